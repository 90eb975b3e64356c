package dataarray

import (
	"fmt"
	"math"
	"strconv"

	"github.com/vk/voxelflow/internal/datatype"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// fromCty coerces a cty value into T. Numbers are range checked against T.
// A null or missing value yields the zero of T.
func fromCty[T datatype.Element](v cty.Value) (T, error) {
	var out T
	if v == cty.NilVal || v.IsNull() {
		return out, nil
	}
	if !v.IsKnown() {
		return out, fmt.Errorf("value is not known")
	}

	ty, err := gocty.ImpliedType(out)
	if err != nil {
		return out, err
	}
	cv, err := convert.Convert(v, ty)
	if err != nil {
		return out, fmt.Errorf("cannot use %s as %s: %w", v.Type().FriendlyName(), datatype.Of[T](), err)
	}
	if err := gocty.FromCtyValue(cv, &out); err != nil {
		return out, fmt.Errorf("cannot use value as %s: %w", datatype.Of[T](), err)
	}
	return out, nil
}

// FromCty is the exported form of the coercion used for init values.
func FromCty[T datatype.Element](v cty.Value) (T, error) {
	return fromCty[T](v)
}

func toCty[T datatype.Element](v T) (cty.Value, error) {
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, err
	}
	return gocty.ToCtyValue(v, ty)
}

// number is the intermediate form of a scalar during element type conversion.
type number struct {
	i        int64
	u        uint64
	f        float64
	isFloat  bool
	unsigned bool
}

func toNumber(v any) (number, error) {
	switch x := v.(type) {
	case int8:
		return number{i: int64(x)}, nil
	case int16:
		return number{i: int64(x)}, nil
	case int32:
		return number{i: int64(x)}, nil
	case int64:
		return number{i: x}, nil
	case uint8:
		return number{u: uint64(x), unsigned: true}, nil
	case uint16:
		return number{u: uint64(x), unsigned: true}, nil
	case uint32:
		return number{u: uint64(x), unsigned: true}, nil
	case uint64:
		return number{u: x, unsigned: true}, nil
	case float32:
		return number{f: float64(x), isFloat: true}, nil
	case float64:
		return number{f: x, isFloat: true}, nil
	case bool:
		if x {
			return number{i: 1}, nil
		}
		return number{}, nil
	case string:
		if i, err := strconv.ParseInt(x, 10, 64); err == nil {
			return number{i: i}, nil
		}
		if u, err := strconv.ParseUint(x, 10, 64); err == nil {
			return number{u: u, unsigned: true}, nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return number{}, fmt.Errorf("%q is not a number", x)
		}
		return number{f: f, isFloat: true}, nil
	}
	return number{}, fmt.Errorf("unsupported element %T", v)
}

func (n number) float() float64 {
	switch {
	case n.isFloat:
		return n.f
	case n.unsigned:
		return float64(n.u)
	}
	return float64(n.i)
}

func (n number) isZero() bool {
	return n.i == 0 && n.u == 0 && n.f == 0
}

// numberAs converts with Go conversion semantics: floats truncate toward
// zero and integers wrap.
func numberAs[D datatype.Numeric](n number) D {
	switch {
	case n.isFloat:
		if math.IsNaN(n.f) {
			return 0
		}
		return D(n.f)
	case n.unsigned:
		return D(n.u)
	}
	return D(n.i)
}

// castElement converts a single element into D.
func castElement[D datatype.Element](v any) (D, error) {
	var out D
	if s, ok := v.(string); ok {
		if p, ok := any(&out).(*string); ok {
			*p = s
			return out, nil
		}
		if p, ok := any(&out).(*bool); ok {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return out, fmt.Errorf("%q is not a boolean", s)
			}
			*p = b
			return out, nil
		}
	}

	switch p := any(&out).(type) {
	case *string:
		*p = fmt.Sprint(v)
		return out, nil
	}

	n, err := toNumber(v)
	if err != nil {
		return out, err
	}
	switch p := any(&out).(type) {
	case *bool:
		*p = !n.isZero()
	case *int8:
		*p = numberAs[int8](n)
	case *uint8:
		*p = numberAs[uint8](n)
	case *int16:
		*p = numberAs[int16](n)
	case *uint16:
		*p = numberAs[uint16](n)
	case *int32:
		*p = numberAs[int32](n)
	case *uint32:
		*p = numberAs[uint32](n)
	case *int64:
		*p = numberAs[int64](n)
	case *uint64:
		*p = numberAs[uint64](n)
	case *float32:
		*p = numberAs[float32](n)
	case *float64:
		*p = numberAs[float64](n)
	}
	return out, nil
}

// Float64At returns element i of a as a float64. Strings are parsed.
func Float64At(a Array, i int) (float64, error) {
	n, err := toNumber(a.elementAt(i))
	if err != nil {
		return 0, err
	}
	return n.float(), nil
}
