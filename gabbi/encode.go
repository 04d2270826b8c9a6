package gabbi

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Encoder writes GABBI-formatted records.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// WriteHeader writes free text followed by the end-of-header tag. It must
// be called before the first record, if at all.
func (e *Encoder) WriteHeader(text string) error {
	if _, err := fmt.Fprintf(e.w, "%s\n<eoh>\n", text); err != nil {
		return err
	}
	return e.w.Flush()
}

// Encode writes one record, one field per line, followed by <eor>.
func (e *Encoder) Encode(r Record) error {
	for _, f := range r.Fields {
		e.w.WriteByte('<')
		e.w.WriteString(f.Name)
		e.w.WriteByte(':')
		e.w.WriteString(strconv.Itoa(len(f.Value)))
		if f.Type != 0 {
			e.w.WriteByte(':')
			e.w.WriteRune(f.Type)
		}
		e.w.WriteByte('>')
		e.w.WriteString(f.Value)
		e.w.WriteByte('\n')
	}
	e.w.WriteString("<eor>\n\n")
	return e.w.Flush()
}
