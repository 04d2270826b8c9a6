package adif

import (
	"errors"
	"io"
	"iter"

	"golang.org/x/text/cases"
)

// RecordIterator yields decoded records one at a time.
//
// It owns a cursor into the input and must not be used from more than one
// goroutine at once.
type RecordIterator[T any] struct {
	rest   string
	folder cases.Caser
	done   bool
}

// Next decodes the next record. It returns io.EOF once the input is
// exhausted at a record boundary.
//
// After any other error the cursor may sit in the middle of a record:
// further calls continue from there and are not guaranteed to find the
// next record boundary.
func (it *RecordIterator[T]) Next() (T, error) {
	var v T
	if it.done {
		return v, io.EOF
	}
	d := newRecordDecoder(&it.rest, &it.folder)
	err := finish(d, d.Decode(&v))
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, ErrNoData):
		it.done = true
		err = io.EOF
	}
	var zero T
	return zero, err
}

// All returns the remaining records as a sequence. The sequence stops after
// yielding the first error.
func (it *RecordIterator[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := it.Next()
			if err == io.EOF {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Remaining returns the input that has not been consumed yet.
func (it *RecordIterator[T]) Remaining() string {
	return it.rest
}
