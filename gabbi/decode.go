package gabbi

import (
	"fmt"
	"strings"

	"github.com/radiolabme/hamlog/adif"
)

// Decoder reads GABBI-formatted records.
type Decoder struct {
	r  *adif.Reader
	it *adif.RecordIterator[adif.Fields]
}

// NewDecoder creates a Decoder over data, which may start with a header.
func NewDecoder(data string) (*Decoder, error) {
	r, err := adif.NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read GABBI data: %w", err)
	}
	return &Decoder{r: r, it: adif.Deserialize[adif.Fields](r)}, nil
}

// Header returns the free text before <eoh>, if any.
func (d *Decoder) Header() (string, bool) {
	return d.r.Header()
}

// Decode returns the next record, or io.EOF when there are none left.
// Field names are upper-cased; values are substrings of the input.
func (d *Decoder) Decode() (Record, error) {
	fields, err := d.it.Next()
	if err != nil {
		return Record{}, err
	}
	r := Record{Fields: make([]Field, len(fields))}
	for i, f := range fields {
		r.Fields[i] = Field{Name: strings.ToUpper(f.Name), Type: f.Type, Value: f.Value}
	}
	return r, nil
}
