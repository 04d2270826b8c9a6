package adif

import "strings"

// Field is one decoded field of a record. Value is a substring of the
// input.
type Field struct {
	Name  string
	Type  rune // zero when the specifier carried no type indicator
	Value string
}

// Fields is an ordered record consumer that keeps every field, in input
// order, without interpreting any of them.
type Fields []Field

// UnmarshalADIF implements Unmarshaler.
func (f *Fields) UnmarshalADIF(d *RecordDecoder) error {
	*f = (*f)[:0]
	for {
		key, ok, err := d.NextKey()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		typ, _ := d.Type()
		val, err := d.String()
		if err != nil {
			return err
		}
		*f = append(*f, Field{Name: key, Type: typ, Value: val})
	}
}

// Get returns the value of the first field called name, ignoring case.
func (f Fields) Get(name string) (string, bool) {
	for _, field := range f {
		if strings.EqualFold(field.Name, name) {
			return field.Value, true
		}
	}
	return "", false
}

// Keys returns the field names in input order.
func (f Fields) Keys() []string {
	keys := make([]string, len(f))
	for i, field := range f {
		keys[i] = field.Name
	}
	return keys
}
