package snapshot

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// Decode parses a YAML or JSON mapping into an Object. Nested mappings
// become Objects and sequences become Arrays; numbers are float64. An empty
// document is an empty Object.
func Decode(data []byte) (*reactive.Object, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return reactive.NewObject(), nil
	}
	v, err := fromNode(&root)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*reactive.Object)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %s, want a mapping", ErrInvalidDocument, reactive.TypeOf(v))
	}
	return obj, nil
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		obj := reactive.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(n.Content[i].Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return reactive.NewArray(items...), nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidDocument, n.Line, err)
		}
		if t, ok := v.(time.Time); ok {
			return t.Format(time.RFC3339Nano), nil
		}
		return reactive.Normalize(v), nil
	}
	return nil, fmt.Errorf("%w: line %d: unexpected node", ErrInvalidDocument, n.Line)
}

// Encode renders v as a YAML document. Object keys keep their order;
// undefined properties and functions are skipped.
func Encode(v any) ([]byte, error) {
	n, err := toNode(v)
	if err != nil {
		return nil, err
	}
	if n == nil {
		n = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	return yaml.Marshal(n)
}

func toNode(v any) (*yaml.Node, error) {
	switch x := reactive.Normalize(v).(type) {
	case reactive.UndefinedType, reactive.Func, reactive.Constructor:
		return nil, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case *reactive.Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range x.Keys() {
			c, err := toNode(x.Get(k))
			if err != nil {
				return nil, err
			}
			if c == nil {
				continue
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, c)
		}
		return n, nil
	case *reactive.Array:
		return sequence(x.Items())
	case *reactive.Set:
		return sequence(x.Values())
	case *reactive.Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		entries := x.Entries()
		sort.SliceStable(entries, func(i, j int) bool {
			return fmt.Sprint(entries[i][0]) < fmt.Sprint(entries[j][0])
		})
		for _, e := range entries {
			c, err := toNode(e[1])
			if err != nil {
				return nil, err
			}
			if c == nil {
				continue
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(e[0])}, c)
		}
		return n, nil
	case float64:
		n := &yaml.Node{}
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return n, n.Encode(int64(x))
		}
		return n, n.Encode(x)
	default:
		n := &yaml.Node{}
		return n, n.Encode(x)
	}
}

func sequence(items []any) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, item := range items {
		c, err := toNode(item)
		if err != nil {
			return nil, err
		}
		if c == nil {
			c = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		n.Content = append(n.Content, c)
	}
	return n, nil
}

// Plain converts a reactive value to plain Go values for JSON encoding:
// Objects and Maps become map[string]any, Arrays and Sets []any. Undefined
// and functions become nil.
func Plain(v any) any {
	switch x := reactive.Normalize(v).(type) {
	case reactive.UndefinedType, reactive.Func, reactive.Constructor:
		return nil
	case *reactive.Object:
		m := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			if val := x.Get(k); !reactive.IsUndefined(val) {
				m[k] = Plain(val)
			}
		}
		return m
	case *reactive.Array:
		return plainSlice(x.Items())
	case *reactive.Set:
		return plainSlice(x.Values())
	case *reactive.Map:
		m := make(map[string]any, x.Len())
		for _, e := range x.Entries() {
			m[fmt.Sprint(e[0])] = Plain(e[1])
		}
		return m
	default:
		return x
	}
}

func plainSlice(items []any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = Plain(item)
	}
	return out
}
