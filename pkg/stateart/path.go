package stateart

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/vango-dev/stateart/internal/errors"
)

// splitPath splits a dotted path into its segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func joinPath(segs []string) string {
	return strings.Join(segs, ".")
}

// fieldIndex finds the exported struct field addressed by name.
// A json tag name matches first, then the Go field name ignoring case.
func fieldIndex(t reflect.Type, name string) (int, bool) {
	fold := -1
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		if tagName, _, _ := strings.Cut(tag, ","); tagName != "" {
			if tagName == name {
				return i, true
			}
			continue
		}
		if f.Name == name {
			return i, true
		}
		if fold < 0 && strings.EqualFold(f.Name, name) {
			fold = i
		}
	}
	return fold, fold >= 0
}

// fieldNames lists the names a struct type's fields can be addressed by.
func fieldNames(t reflect.Type) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		if tagName, _, _ := strings.Cut(tag, ","); tagName != "" {
			names = append(names, tagName)
		} else {
			names = append(names, f.Name)
		}
	}
	return names
}

// indirect dereferences pointers and interfaces. A nil along the way yields
// the invalid Value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// step resolves one path segment below v.
func step(v reflect.Value, seg string) (reflect.Value, bool) {
	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}, false
	}

	switch v.Kind() {
	case reflect.Struct:
		i, ok := fieldIndex(v.Type(), seg)
		if !ok {
			return reflect.Value{}, false
		}
		return v.Field(i), true
	case reflect.Map:
		key, ok := mapKey(v.Type(), seg)
		if !ok {
			return reflect.Value{}, false
		}
		elem := v.MapIndex(key)
		return elem, elem.IsValid()
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= v.Len() {
			return reflect.Value{}, false
		}
		return v.Index(i), true
	default:
		return reflect.Value{}, false
	}
}

func mapKey(t reflect.Type, seg string) (reflect.Value, bool) {
	if t.Key().Kind() != reflect.String {
		return reflect.Value{}, false
	}
	return reflect.ValueOf(seg).Convert(t.Key()), true
}

// resolve walks segs from root. The result is not dereferenced.
func resolve(root reflect.Value, segs []string) (reflect.Value, bool) {
	v := root
	for _, seg := range segs {
		next, ok := step(v, seg)
		if !ok {
			return reflect.Value{}, false
		}
		v = next
	}
	return v, true
}

type valueClass uint8

const (
	classLeaf valueClass = iota
	classObject
	classFunc
)

// classify decides how a read of v is handled: objects get a nested view,
// functions pass through untracked, everything else is a tracked leaf.
func classify(v reflect.Value) valueClass {
	v = indirect(v)
	if !v.IsValid() {
		return classLeaf
	}
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return classObject
	case reflect.Struct:
		// Opaque comparable structs such as time.Time read as values.
		if len(fieldNames(v.Type())) == 0 && v.Type().Comparable() {
			return classLeaf
		}
		return classObject
	case reflect.Func:
		return classFunc
	default:
		return classLeaf
	}
}

// leafValue returns the dereferenced value of a leaf, or nil for a nil
// pointer or interface.
func leafValue(v reflect.Value) any {
	v = indirect(v)
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

// missingValue marks a selector whose path no longer resolves.
type missingValue struct{}

var missing = &missingValue{}

// strictEqual compares two observed values the way a !== check would:
// same dynamic type and ==. Values that cannot be compared are never equal.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	if va.Kind() == reflect.Float32 || va.Kind() == reflect.Float64 {
		// NaN !== NaN
		if math.IsNaN(va.Float()) || math.IsNaN(vb.Float()) {
			return false
		}
	}
	return a == b
}

// assignPath sets the value at segs below v, allocating nil pointers and
// maps on the way. Map entries are copied, modified and stored back since
// map values are not addressable.
func assignPath(v reflect.Value, segs []string, value any) error {
	if len(segs) == 0 {
		return setValue(v, value, "")
	}
	seg := segs[0]
	rest := segs[1:]

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			if !v.CanSet() {
				return errors.New("E003").WithDetailf("nil pointer before %q", seg)
			}
			v.Set(reflect.New(v.Type().Elem()))
		}
		return assignPath(v.Elem(), segs, value)

	case reflect.Interface:
		if v.IsNil() {
			return errors.New("E003").WithDetailf("nil value before %q", seg)
		}
		elem := v.Elem()
		if elem.Kind() == reflect.Map || elem.Kind() == reflect.Pointer {
			return assignPath(elem, segs, value)
		}
		if !v.CanSet() {
			return errors.New("E009").WithDetailf("value before %q is not settable", seg)
		}
		cp := reflect.New(elem.Type()).Elem()
		cp.Set(elem)
		if err := assignPath(cp, segs, value); err != nil {
			return err
		}
		v.Set(cp)
		return nil

	case reflect.Struct:
		i, ok := fieldIndex(v.Type(), seg)
		if !ok {
			return errors.New("E003").WithDetailf("no field %q", seg)
		}
		f := v.Field(i)
		if len(rest) == 0 {
			return setValue(f, value, seg)
		}
		return assignPath(f, rest, value)

	case reflect.Map:
		key, ok := mapKey(v.Type(), seg)
		if !ok {
			return errors.New("E003").WithDetailf("map key type %s is not a string", v.Type().Key())
		}
		if v.IsNil() {
			if !v.CanSet() {
				return errors.New("E009").WithDetailf("nil map before %q", seg)
			}
			v.Set(reflect.MakeMap(v.Type()))
		}
		elemType := v.Type().Elem()
		if len(rest) == 0 {
			ev, err := convertValue(value, elemType)
			if err != nil {
				return err
			}
			v.SetMapIndex(key, ev)
			return nil
		}
		cur := v.MapIndex(key)
		if !cur.IsValid() {
			return errors.New("E003").WithDetailf("no key %q", seg)
		}
		cp := reflect.New(elemType).Elem()
		cp.Set(cur)
		if err := assignPath(cp, rest, value); err != nil {
			return err
		}
		v.SetMapIndex(key, cp)
		return nil

	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= v.Len() {
			return errors.New("E003").WithDetailf("index %q out of range", seg)
		}
		elem := v.Index(i)
		if len(rest) == 0 {
			return setValue(elem, value, seg)
		}
		return assignPath(elem, rest, value)

	default:
		return errors.New("E003").WithDetailf("%s has no field %q", v.Type(), seg)
	}
}

func setValue(dst reflect.Value, value any, name string) error {
	if !dst.CanSet() {
		return errors.New("E009").WithDetailf("%q is not settable", name)
	}
	rv, err := convertValue(value, dst.Type())
	if err != nil {
		return err
	}
	dst.Set(rv)
	return nil
}

// convertValue converts value to t. Assignable values pass through; numbers
// convert between numeric kinds only when no precision is lost.
func convertValue(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, errors.New("E009").WithDetailf("nil is not a %s", t)
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) && rv.CanConvert(t) {
		if isUnsigned(t.Kind()) && isNegative(rv) {
			return reflect.Value{}, errors.New("E009").WithDetailf("%v does not fit in %s", value, t)
		}
		out := rv.Convert(t)
		if out.Convert(rv.Type()).Interface() == rv.Interface() {
			return out, nil
		}
		return reflect.Value{}, errors.New("E009").WithDetailf("%v does not fit in %s", value, t)
	}
	if rv.Kind() == reflect.String && t.Kind() == reflect.String {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, errors.New("E009").WithDetailf("%s is not assignable to %s", rv.Type(), t)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isNegative(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() < 0
	case reflect.Float32, reflect.Float64:
		return v.Float() < 0
	}
	return false
}
