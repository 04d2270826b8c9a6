package adif

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Unmarshaler is implemented by types that decode themselves from a record.
//
// UnmarshalADIF is called once per record. It should call NextKey until it
// reports the end of the record, reading or skipping each value in turn.
type Unmarshaler interface {
	UnmarshalADIF(d *RecordDecoder) error
}

// Decode decodes the rest of the current record into v.
//
// v must be a non-nil pointer to one of:
//   - a type implementing Unmarshaler
//   - a flat struct; fields are matched by their `adif:"name"` tag or by
//     their lowercased Go name, and unknown fields are skipped
//   - a map[string]string
//
// Struct fields may be strings, booleans, integers, floats, []byte,
// pointers to those (allocated when the field is present), or types
// implementing encoding.TextUnmarshaler. A tag option of "required" makes
// a record without that field an error. Other shapes, such as nested
// structs and slices, are rejected with an InvalidTypeError.
func (d *RecordDecoder) Decode(v any) error {
	if u, ok := v.(Unmarshaler); ok {
		return u.UnmarshalADIF(d)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &InvalidTypeError{Shape: fmt.Sprintf("non-pointer %T", v)}
	}
	return d.decodeRecord(rv.Elem())
}

func (d *RecordDecoder) decodeRecord(v reflect.Value) error {
	if v.CanAddr() {
		if u, ok := v.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalADIF(d)
		}
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return d.decodeRecord(v.Elem())
	case reflect.Struct:
		if v.NumField() == 0 {
			return &InvalidTypeError{Shape: "unit struct"}
		}
		return d.decodeStruct(v)
	case reflect.Map:
		t := v.Type()
		if t.Key().Kind() != reflect.String || t.Elem().Kind() != reflect.String {
			return &InvalidTypeError{Shape: "map"}
		}
		return d.decodeStringMap(v)
	default:
		// A record is not a scalar: with no field pending this reports
		// the requested shape.
		return d.decodeValue(v)
	}
}

func (d *RecordDecoder) decodeStringMap(v reflect.Value) error {
	if v.IsNil() {
		v.Set(reflect.MakeMap(v.Type()))
	}
	for {
		key, ok, err := d.NextKey()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		val, err := d.String()
		if err != nil {
			return err
		}
		v.SetMapIndex(reflect.ValueOf(key).Convert(v.Type().Key()),
			reflect.ValueOf(val).Convert(v.Type().Elem()))
	}
}

func (d *RecordDecoder) decodeStruct(v reflect.Value) error {
	info := cachedStructInfo(v.Type())
	seen := make([]bool, len(info.fields))
	for {
		key, ok, err := d.NextKey()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		i, found := info.byName[key]
		if !found {
			if err := d.Skip(); err != nil {
				return err
			}
			continue
		}
		seen[i] = true
		if err := d.decodeValue(v.FieldByIndex(info.fields[i].index)); err != nil {
			return err
		}
	}
	for i, f := range info.fields {
		if f.required && !seen[i] {
			return d.Errorf("missing field `%s`", f.name)
		}
	}
	return nil
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// decodeValue reads the pending payload into a single struct field.
func (d *RecordDecoder) decodeValue(v reflect.Value) error {
	if v.Kind() != reflect.Pointer && v.CanAddr() && v.Addr().Type().Implements(textUnmarshalerType) {
		s, err := d.String()
		if err != nil {
			return err
		}
		if err := v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return &CustomError{Msg: fmt.Sprintf("field `%s`: %v", d.key, err), Err: err}
		}
		return nil
	}

	switch v.Kind() {
	case reflect.Pointer:
		// Absent fields are never seen, so a present field is always Some.
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return d.decodeValue(v.Elem())
	case reflect.String:
		s, err := d.String()
		if err != nil {
			return err
		}
		v.SetString(s)
	case reflect.Bool:
		b, err := d.Bool()
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := d.signed(intShape(v.Kind()), v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := d.unsigned(intShape(v.Kind()), v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := d.float(intShape(v.Kind()), v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.Uint8 {
			return &InvalidTypeError{Shape: "seq"}
		}
		b, err := d.Bytes()
		if err != nil {
			return err
		}
		v.SetBytes(b)
	case reflect.Array:
		return &InvalidTypeError{Shape: "tuple"}
	case reflect.Struct:
		if v.NumField() == 0 {
			return &InvalidTypeError{Shape: "unit struct"}
		}
		return &InvalidTypeError{Shape: "struct"}
	case reflect.Map:
		return &InvalidTypeError{Shape: "map"}
	case reflect.Interface:
		return &InvalidTypeError{Shape: "any"}
	default:
		return &InvalidTypeError{Shape: v.Kind().String()}
	}
	return nil
}

func intShape(k reflect.Kind) string {
	switch k {
	case reflect.Int8:
		return "i8"
	case reflect.Int16:
		return "i16"
	case reflect.Int32:
		return "i32"
	case reflect.Int64:
		return "i64"
	case reflect.Uint8:
		return "u8"
	case reflect.Uint16:
		return "u16"
	case reflect.Uint32:
		return "u32"
	case reflect.Uint64:
		return "u64"
	case reflect.Float32:
		return "f32"
	case reflect.Float64:
		return "f64"
	}
	return k.String()
}

type structField struct {
	name     string
	index    []int
	required bool
}

type structInfo struct {
	fields []structField
	byName map[string]int
}

var structCache sync.Map // map[reflect.Type]*structInfo

func cachedStructInfo(t reflect.Type) *structInfo {
	if info, ok := structCache.Load(t); ok {
		return info.(*structInfo)
	}
	info := &structInfo{byName: make(map[string]int)}
	collectFields(t, nil, info)
	actual, _ := structCache.LoadOrStore(t, info)
	return actual.(*structInfo)
}

// collectFields walks t, flattening untagged embedded structs the way
// encoding/json does. The first field to claim a name wins.
func collectFields(t reflect.Type, parent []int, info *structInfo) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, hasTag := sf.Tag.Lookup("adif")
		if tag == "-" {
			continue
		}
		index := append(append([]int(nil), parent...), i)
		if sf.Anonymous && !hasTag && sf.Type.Kind() == reflect.Struct {
			collectFields(sf.Type, index, info)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = sf.Name
		}
		name = strings.ToLower(name)
		if _, dup := info.byName[name]; dup {
			continue
		}
		info.byName[name] = len(info.fields)
		info.fields = append(info.fields, structField{
			name:     name,
			index:    index,
			required: hasOption(opts, "required"),
		})
	}
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}
