package di

import (
	"fmt"
	"math"
	"reflect"
)

// coerce turns a resolved value into an argument of type t. Configuration
// values decoded from YAML arrive as int, float64, []any and map[string]any,
// so numbers, strings, slices and maps are converted element-wise.
func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	switch {
	case t.Kind() == reflect.Slice && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array):
		out := reflect.MakeSlice(t, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			e, err := coerce(rv.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(e)
		}
		return out, nil

	case t.Kind() == reflect.Map && rv.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(t, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := coerce(iter.Key().Interface(), t.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			e, err := coerce(iter.Value().Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(k, e)
		}
		return out, nil

	case isNumber(rv.Kind()) && isNumber(t.Kind()):
		if !exact(rv, t) {
			return reflect.Value{}, fmt.Errorf("%w: %v does not fit %s", ErrTypeMismatch, v, t)
		}
		return rv.Convert(t), nil

	case rv.Kind() == reflect.String && t.Kind() == reflect.String,
		rv.Kind() == reflect.Bool && t.Kind() == reflect.Bool:
		return rv.Convert(t), nil
	}

	return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrTypeMismatch, rv.Type(), t)
}

// exact reports whether the number rv converts to t without losing its
// fractional part, its sign or its magnitude.
func exact(rv reflect.Value, t reflect.Type) bool {
	var f float64
	switch {
	case rv.CanInt():
		n := rv.Int()
		switch {
		case t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64:
			return !reflect.Zero(t).OverflowInt(n)
		case t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uint64:
			return n >= 0 && !reflect.Zero(t).OverflowUint(uint64(n))
		}
		f = float64(n)
	case rv.CanUint():
		n := rv.Uint()
		switch {
		case t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64:
			return n <= math.MaxInt64 && !reflect.Zero(t).OverflowInt(int64(n))
		case t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uint64:
			return !reflect.Zero(t).OverflowUint(n)
		}
		f = float64(n)
	default:
		f = rv.Float()
		switch {
		case t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64:
			return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 &&
				!reflect.Zero(t).OverflowInt(int64(f))
		case t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uint64:
			return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 &&
				!reflect.Zero(t).OverflowUint(uint64(f))
		}
	}
	return !reflect.Zero(t).OverflowFloat(f)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
