package adif

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

// Reader splits an ADIF document into its optional header and the record
// body. It does not copy the input: every string it hands out, including
// decoded field values, is a substring of it.
type Reader struct {
	header    string
	hasHeader bool
	body      string
}

// NewReader prepares input for decoding.
//
// Input starting with '<' has no header. Otherwise the header runs up to
// the first <eoh> tag (any case) and the records start right after it; if
// there is no such tag NewReader returns ErrNoData. Empty input is an empty
// headerless document.
func NewReader(input string) (*Reader, error) {
	if input == "" || input[0] == '<' {
		return &Reader{body: input}, nil
	}
	for i := 0; ; {
		j := strings.IndexByte(input[i:], '<')
		if j < 0 {
			return nil, ErrNoData
		}
		at := i + j
		if len(input) >= at+5 && strings.EqualFold(input[at+1:at+5], "eoh>") {
			return &Reader{
				header:    input[:at],
				hasHeader: true,
				body:      input[at+5:],
			}, nil
		}
		i = at + 1
	}
}

// Header returns the text preceding the <eoh> tag.
func (r *Reader) Header() (string, bool) {
	return r.header, r.hasHeader
}

// HeaderFields decodes the tagged fields of the header, such as ADIF_VER
// and PROGRAMID. Free text before the first tag is ignored.
func (r *Reader) HeaderFields() (Fields, error) {
	if !r.hasHeader {
		return nil, nil
	}
	rest := r.header
	i := strings.IndexByte(rest, '<')
	if i < 0 {
		return nil, nil
	}
	rest = rest[i:]

	folder := cases.Fold()
	var fields Fields
	err := newRecordDecoder(&rest, &folder).Decode(&fields)
	if err != nil && !errors.Is(err, ErrNoData) {
		return nil, err
	}
	return fields, nil
}

// Deserialize returns an iterator decoding the records of r into values of
// type T. See RecordDecoder.Decode for the supported types. Nothing is
// parsed until the iterator is advanced.
func Deserialize[T any](r *Reader) *RecordIterator[T] {
	return &RecordIterator[T]{rest: r.body, folder: cases.Fold()}
}

// Unmarshal decodes a single record into v. The record must end with an
// <eor> tag.
func Unmarshal(record string, v any) error {
	folder := cases.Fold()
	d := newRecordDecoder(&record, &folder)
	return finish(d, d.Decode(v))
}

// finish maps an exhausted input in the middle of a record to
// ErrMissingEOR. ErrNoData is only the clean end when no field of the
// record had been seen yet.
func finish(d *RecordDecoder, err error) error {
	if err != nil && d.keys > 0 && errors.Is(err, ErrNoData) {
		return ErrMissingEOR
	}
	return err
}
