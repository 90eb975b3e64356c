package yamlfile

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// nodeToCty converts a decoded YAML node into the equivalent cty value.
// Sequences become tuples and mappings become objects.
func nodeToCty(n *yaml.Node) (cty.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return nodeToCty(n.Content[0])
	case yaml.AliasNode:
		return nodeToCty(n.Alias)
	case yaml.ScalarNode:
		return scalarToCty(n)
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeToCty(c)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, v)
		}
		return cty.TupleVal(elems), nil
	case yaml.MappingNode:
		if len(n.Content) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return cty.NilVal, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			v, err := nodeToCty(n.Content[i+1])
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k.Value] = v
		}
		return cty.ObjectVal(attrs), nil
	}
	return cty.NilVal, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func scalarToCty(n *yaml.Node) (cty.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return cty.NullVal(cty.DynamicPseudoType), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			var u uint64
			if uerr := n.Decode(&u); uerr != nil {
				return cty.NilVal, err
			}
			return cty.NumberUIntVal(u), nil
		}
		return cty.NumberIntVal(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return cty.NilVal, err
		}
		if math.IsNaN(f) {
			return cty.NilVal, fmt.Errorf("line %d: NaN is not a valid parameter value", n.Line)
		}
		return cty.NumberFloatVal(f), nil
	}
	return cty.StringVal(n.Value), nil
}

// ctyToNode renders a known cty value as a YAML node.
func ctyToNode(v cty.Value) (*yaml.Node, error) {
	if v.IsNull() {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("unknown values cannot be written")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.AsString()}, nil
	case ty == cty.Bool:
		text := "false"
		if v.True() {
			text = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: text}, nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: bf.Text('f', 0)}, nil
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(bf)}, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			en, err := ctyToNode(ev)
			if err != nil {
				return nil, err
			}
			if en.Kind != yaml.ScalarNode {
				seq.Style = 0
			}
			seq.Content = append(seq.Content, en)
		}
		return seq, nil
	case ty.IsObjectType() || ty.IsMapType():
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			en, err := ctyToNode(ev)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k.AsString()}, en)
		}
		return m, nil
	}
	return nil, fmt.Errorf("values of type %s cannot be written", ty.FriendlyName())
}

func formatFloat(bf *big.Float) string {
	f, _ := bf.Float64()
	return strconv.FormatFloat(f, 'g', -1, 64)
}
