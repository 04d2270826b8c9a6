// Package gabbi provides encoding and decoding for the GABBI wire format.
//
// GABBI (Generic Amateur radio Binary Block Interface) is the format used
// for transmitting signed amateur radio contact records. It shares the
// tagged field syntax of ADIF: every record is a run of
// <NAME:length[:type]>value fields terminated by <eor>, and the Rec_Type
// field says what the record describes.
package gabbi

import (
	"strconv"
	"strings"
	"time"

	"github.com/radiolabme/hamlog/contact"
)

// Record types.
const (
	RecTypeContact = "tCONTACT"
	RecTypeStation = "tSTATION"
	RecTypeCert    = "tCERT"
)

// Field names with a special meaning.
const (
	FieldRecType   = "Rec_Type"
	FieldSignature = "SIGN_LOTW_V2.0"
	FieldSignData  = "SIGNDATA"
)

// SignatureType is the type indicator written after the signature length.
const SignatureType = '6'

// Field is a single GABBI field.
type Field struct {
	Name  string
	Type  rune
	Value string
}

// Record is an ordered list of fields.
type Record struct {
	Fields []Field
}

// Get returns the value of the named field, ignoring case.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the value of the named field, or appends it.
func (r *Record) Set(name, value string) {
	r.SetTyped(name, 0, value)
}

// SetTyped is Set with a type indicator.
func (r *Record) SetTyped(name string, typ rune, value string) {
	for i := range r.Fields {
		if strings.EqualFold(r.Fields[i].Name, name) {
			r.Fields[i] = Field{Name: r.Fields[i].Name, Type: typ, Value: value}
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Type: typ, Value: value})
}

// RecType returns the record type.
func (r Record) RecType() string {
	v, _ := r.Get(FieldRecType)
	return v
}

// signFields are the contact fields covered by a signature, in signing
// order.
var signFields = []string{
	"CALL",
	"BAND",
	"BAND_RX",
	"FREQ",
	"FREQ_RX",
	"MODE",
	"PROP_MODE",
	"QSO_DATE",
	"QSO_TIME",
	"SAT_NAME",
}

// SignData returns the canonical byte string a contact signature covers:
// the trimmed, upper-cased values of the sign fields that are present,
// concatenated in a fixed order.
func SignData(r Record) string {
	var b strings.Builder
	for _, name := range signFields {
		if v, ok := r.Get(name); ok {
			b.WriteString(strings.ToUpper(strings.TrimSpace(v)))
		}
	}
	return b.String()
}

// ContactRecord builds the unsigned tCONTACT record for c.
func ContactRecord(c contact.Contact) Record {
	r := Record{}
	r.Set(FieldRecType, RecTypeContact)
	r.Set("CALL", c.RecvCallsign)
	r.Set("BAND", c.Band)
	r.Set("MODE", c.Mode)
	if c.FreqTX != 0 {
		r.Set("FREQ", formatMHz(c.FreqTX))
	}
	if c.FreqRX != 0 && c.FreqRX != c.FreqTX {
		r.Set("FREQ_RX", formatMHz(c.FreqRX))
	}
	ts := c.Timestamp.UTC()
	r.Set("QSO_DATE", ts.Format(time.DateOnly))
	r.Set("QSO_TIME", ts.Format("15:04:05Z"))
	return r
}

func formatMHz(hz int64) string {
	return strconv.FormatFloat(float64(hz)/1e6, 'f', -1, 64)
}
