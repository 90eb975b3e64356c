package params

import (
	"fmt"
	"sort"

	"github.com/vk/voxelflow/internal/dataerr"
	"github.com/vk/voxelflow/internal/datapath"
	"github.com/vk/voxelflow/internal/datatype"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Reader exposes named parameter values.
type Reader interface {
	Has(name string) bool
	Value(name string) cty.Value
	Names() []string
}

// Writer receives named parameter values.
type Writer interface {
	Set(name string, v cty.Value)
}

// Values is a map-backed Reader and Writer.
type Values map[string]cty.Value

var (
	_ Reader = Values(nil)
	_ Writer = Values(nil)
)

func (v Values) Has(name string) bool {
	val, ok := v[name]
	return ok && val != cty.NilVal && !val.IsNull()
}

func (v Values) Value(name string) cty.Value {
	if val, ok := v[name]; ok {
		return val
	}
	return cty.NilVal
}

// Names returns the parameter names in sorted order.
func (v Values) Names() []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (v Values) Set(name string, val cty.Value) {
	v[name] = val
}

// Object returns the values as a single cty object.
func (v Values) Object() cty.Value {
	if len(v) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(v))
	for k, val := range v {
		if val == cty.NilVal {
			continue
		}
		attrs[k] = val
	}
	return cty.ObjectVal(attrs)
}

// FromObject unpacks the attributes of a cty object or map.
func FromObject(obj cty.Value) (Values, error) {
	out := Values{}
	if obj == cty.NilVal || obj.IsNull() {
		return out, nil
	}
	ty := obj.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("parameters must be an object, got %s", ty.FriendlyName())
	}
	for it := obj.ElementIterator(); it.Next(); {
		k, val := it.Element()
		out[k.AsString()] = val
	}
	return out, nil
}

func invalid(name string, format string, args ...any) error {
	return dataerr.New(dataerr.InvalidParameter, "", "parameter %q: %s", name, fmt.Sprintf(format, args...))
}

// Get decodes a required parameter into T.
func Get[T any](r Reader, name string) (T, error) {
	var out T
	if !r.Has(name) {
		return out, invalid(name, "is required")
	}
	return decode[T](r, name)
}

// Optional decodes a parameter into T, returning def when it is absent.
func Optional[T any](r Reader, name string, def T) (T, error) {
	if !r.Has(name) {
		return def, nil
	}
	return decode[T](r, name)
}

func decode[T any](r Reader, name string) (T, error) {
	var out T
	ty, err := gocty.ImpliedType(out)
	if err != nil {
		return out, invalid(name, "%v", err)
	}
	v, err := convert.Convert(r.Value(name), ty)
	if err != nil {
		return out, invalid(name, "%v", err)
	}
	if err := gocty.FromCtyValue(v, &out); err != nil {
		return out, invalid(name, "%v", err)
	}
	return out, nil
}

// Put encodes v and stores it under name.
func Put[T any](w Writer, name string, v T) error {
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return err
	}
	val, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return err
	}
	w.Set(name, val)
	return nil
}

// Path decodes a required path parameter of the given depth.
func Path(r Reader, name string, depth datapath.Depth) (datapath.Path, error) {
	raw, err := Get[string](r, name)
	if err != nil {
		return datapath.Path{}, err
	}
	p, err := datapath.ParseAt(raw, depth)
	if err != nil {
		return datapath.Path{}, invalid(name, "%v", err)
	}
	return p, nil
}

// Type decodes a required element type parameter.
func Type(r Reader, name string) (datatype.Type, error) {
	raw, err := Get[string](r, name)
	if err != nil {
		return datatype.Unsupported, err
	}
	t, err := datatype.Parse(raw)
	if err != nil {
		return datatype.Unsupported, dataerr.New(dataerr.UnsupportedType, "", "parameter %q: %v", name, err).WithSupported(datatype.Names())
	}
	return t, nil
}

// Raw returns the parameter value unchanged, or cty.NilVal when absent.
func Raw(r Reader, name string) cty.Value {
	if !r.Has(name) {
		return cty.NilVal
	}
	return r.Value(name)
}

// OptionalPath decodes a path parameter that may be absent or empty, in which
// case the zero Path is returned. Steps check presence with RequirePath when
// they validate.
func OptionalPath(r Reader, name string, depth datapath.Depth) (datapath.Path, error) {
	raw, err := Optional(r, name, "")
	if err != nil || raw == "" {
		return datapath.Path{}, err
	}
	p, err := datapath.ParseAt(raw, depth)
	if err != nil {
		return datapath.Path{}, invalid(name, "%v", err)
	}
	return p, nil
}

// RequirePath reports an InvalidParameter error when p was never set.
func RequirePath(p datapath.Path, name string) error {
	if p.IsZero() {
		return invalid(name, "a path is required")
	}
	return nil
}

// PutPath stores p as its string form. The zero Path is stored as "".
func PutPath(w Writer, name string, p datapath.Path) {
	w.Set(name, cty.StringVal(p.String()))
}

// OptionalType decodes an element type parameter, returning def when absent.
func OptionalType(r Reader, name string, def datatype.Type) (datatype.Type, error) {
	if !r.Has(name) {
		return def, nil
	}
	return Type(r, name)
}
