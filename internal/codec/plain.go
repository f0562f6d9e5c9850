package codec

import (
	"errors"
	"fmt"
	"reflect"
)

var ErrNotPlain = errors.New("codec: type is not plain data")

// CheckPlain verifies that T holds no pointers, so its bytes can be written verbatim and
// reinterpreted in place later.
func CheckPlain[T any]() error {
	t := reflect.TypeFor[T]()
	if !isPlain(t) {
		return fmt.Errorf("%w: %s", ErrNotPlain, t)
	}
	return nil
}

func isPlain(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isPlain(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isPlain(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
