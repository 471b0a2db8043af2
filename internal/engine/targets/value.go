package targets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hydralsp/internal/core/errors"

	"gopkg.in/yaml.v3"
)

// Kind is the structural kind of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	}
	return "unknown"
}

// Pos is a 0-based node position as reported by the YAML parser. Column
// counts characters, not bytes.
type Pos struct {
	Line   int
	Column int
}

// Value is a generic YAML value. Mapping pairs keep document order.
type Value struct {
	Kind  Kind
	Text  string
	Items []*Value
	Pairs []Pair
	Pos   Pos

	// Quoted marks single and double quoted scalars, Block marks literal
	// and folded ones.
	Quoted bool
	Block  bool

	// Aliased is set on values reached through a YAML alias.
	Aliased bool
}

// Pair is a single mapping entry. Merged entries came from a `<<` merge key.
type Pair struct {
	Key       string
	KeyPos    Pos
	KeyQuoted bool
	Value     *Value
	Merged    bool
}

// Get returns the value stored under key, or nil.
func (v *Value) Get(key string) *Value {
	if v == nil || v.Kind != KindMapping {
		return nil
	}
	for _, p := range v.Pairs {
		if p.Key == key {
			return p.Value
		}
	}
	return nil
}

func (v *Value) IsString() bool {
	return v != nil && v.Kind == KindString
}

// Truthy reports whether v is the boolean true.
func (v *Value) Truthy() bool {
	if v == nil || v.Kind != KindBool {
		return false
	}
	b, err := strconv.ParseBool(strings.ToLower(v.Text))
	return err == nil && b
}

// String renders the value in a compact flow style.
func (v *Value) String() string {
	if v == nil {
		return "null"
	}
	switch v.Kind {
	case KindNull:
		return "null"
	case KindString:
		return strconv.Quote(v.Text)
	case KindSequence:
		parts := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			parts = append(parts, item.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMapping:
		parts := make([]string, 0, len(v.Pairs))
		for _, p := range v.Pairs {
			parts = append(parts, p.Key+": "+p.Value.String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return v.Text
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// ReadValue decodes the first YAML document of text into a Value tree.
// Errors carry CodeParseFailure and, when known, the 0-based line.
func ReadValue(text string) (*Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		perr := &errors.DomainError{Code: errors.CodeParseFailure, Message: "invalid YAML", Err: err}
		if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
			if n, convErr := strconv.Atoi(m[1]); convErr == nil && n > 0 {
				perr.WithContext(errors.CtxLine, n-1)
			}
		}
		return nil, perr
	}
	r := &reader{active: make(map[*yaml.Node]bool)}
	return r.convert(&root, false)
}

type reader struct {
	active map[*yaml.Node]bool
}

func (r *reader) convert(n *yaml.Node, aliased bool) (*Value, error) {
	if n == nil {
		return &Value{Kind: KindNull, Aliased: aliased}, nil
	}
	if r.active[n] {
		return nil, errors.New(errors.CodeParseFailure, fmt.Sprintf("recursive alias at line %d", n.Line))
	}
	r.active[n] = true
	defer delete(r.active, n)

	switch n.Kind {
	case 0:
		return &Value{Kind: KindNull, Aliased: aliased}, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return &Value{Kind: KindNull, Aliased: aliased}, nil
		}
		return r.convert(n.Content[0], aliased)
	case yaml.AliasNode:
		return r.convert(n.Alias, true)
	case yaml.ScalarNode:
		return scalarValue(n, aliased), nil
	case yaml.SequenceNode:
		v := &Value{Kind: KindSequence, Pos: nodePos(n), Aliased: aliased, Items: make([]*Value, 0, len(n.Content))}
		for _, c := range n.Content {
			item, err := r.convert(c, aliased)
			if err != nil {
				return nil, err
			}
			v.Items = append(v.Items, item)
		}
		return v, nil
	case yaml.MappingNode:
		return r.mapping(n, aliased)
	}
	return nil, errors.New(errors.CodeParseFailure, fmt.Sprintf("unsupported yaml node kind %d", n.Kind))
}

func (r *reader) mapping(n *yaml.Node, aliased bool) (*Value, error) {
	v := &Value{Kind: KindMapping, Pos: nodePos(n), Aliased: aliased}
	explicit := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		if !isMergeKey(n.Content[i]) {
			explicit[n.Content[i].Value] = true
		}
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, val := n.Content[i], n.Content[i+1]
		if isMergeKey(k) {
			merged, err := r.mergeSources(val)
			if err != nil {
				return nil, err
			}
			for _, src := range merged {
				if src.Kind != KindMapping || isTargetMapping(src) {
					continue
				}
				for _, p := range src.Pairs {
					if explicit[p.Key] {
						continue
					}
					explicit[p.Key] = true
					p.Merged = true
					v.Pairs = append(v.Pairs, p)
				}
			}
			continue
		}
		child, err := r.convert(val, aliased)
		if err != nil {
			return nil, err
		}
		v.Pairs = append(v.Pairs, Pair{
			Key:       k.Value,
			KeyPos:    nodePos(k),
			KeyQuoted: isQuotedStyle(k.Style),
			Value:     child,
		})
	}
	return v, nil
}

func (r *reader) mergeSources(n *yaml.Node) ([]*Value, error) {
	if n.Kind == yaml.SequenceNode {
		out := make([]*Value, 0, len(n.Content))
		for _, c := range n.Content {
			src, err := r.convert(c, true)
			if err != nil {
				return nil, err
			}
			out = append(out, src)
		}
		return out, nil
	}
	src, err := r.convert(n, true)
	if err != nil {
		return nil, err
	}
	return []*Value{src}, nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == "<<" && n.ShortTag() == "!!merge"
}

func nodePos(n *yaml.Node) Pos {
	return Pos{Line: max(n.Line-1, 0), Column: max(n.Column-1, 0)}
}

func isQuotedStyle(s yaml.Style) bool {
	return s&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0
}

func scalarValue(n *yaml.Node, aliased bool) *Value {
	v := &Value{
		Text:    n.Value,
		Pos:     nodePos(n),
		Quoted:  isQuotedStyle(n.Style),
		Block:   n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0,
		Aliased: aliased,
	}
	switch n.ShortTag() {
	case "!!null":
		v.Kind = KindNull
	case "!!bool":
		v.Kind = KindBool
	case "!!int":
		v.Kind = KindInt
	case "!!float":
		v.Kind = KindFloat
	default:
		v.Kind = KindString
	}
	return v
}
