package stateart

import (
	"reflect"

	"github.com/vango-dev/stateart/internal/errors"
)

// Arg returns args[i] converted to T. Numbers convert between numeric types
// when no precision is lost, so JSON-decoded float64 arguments can feed int
// parameters.
//
//	func add(s Counter, args ...any) (Counter, error) {
//	    n, err := stateart.Arg[int](args, 0)
//	    if err != nil {
//	        return s, err
//	    }
//	    s.Count += n
//	    return s, nil
//	}
func Arg[T any](args []any, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(args) {
		return zero, errors.New("E009").WithDetailf("missing argument %d", i)
	}
	v, err := convertValue(args[i], reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	out, _ := v.Interface().(T)
	return out, nil
}
