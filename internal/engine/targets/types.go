package targets

// TargetKey is the reserved mapping key naming the symbol to instantiate.
const TargetKey = "_target_"

// Span is a half-open column range on a single line.
type Span struct {
	Start int
	End   int
}

type ParameterKind int

const (
	ScalarParameter ParameterKind = iota
	NestedParameter
)

// Parameter is one sibling key of a target mapping.
type Parameter struct {
	Key     string
	Line    int
	KeySpan Span
	Kind    ParameterKind

	// Value holds the raw value node for scalar parameters.
	Value *Value
	// Nested is the arena index of the referenced target for nested parameters.
	Nested int

	// Merged parameters came from a `<<` merge key and have no text of their own.
	Merged     bool
	Positioned bool

	keyPos    Pos
	keyQuoted bool
}

func (p Parameter) IsNested() bool {
	return p.Kind == NestedParameter
}

// TargetReference is a mapping carrying a `_target_` key. Lines and columns
// are 0-based, columns are byte offsets into the line. ValueLine differs from
// Line only when the value is written below its key, as with block scalars.
type TargetReference struct {
	Value      string
	Line       int
	KeyStart   int
	ValueLine  int
	ValueStart int
	Parameters []Parameter
	Positioned bool

	keyPos Pos
	node   *Value
}

// ValueSpan returns the column range on ValueLine covered by the printed
// target value.
func (t TargetReference) ValueSpan() Span {
	return Span{Start: t.ValueStart, End: t.ValueStart + len(t.Value)}
}

// Parameter returns the parameter named key.
func (t TargetReference) Parameter(key string) (Parameter, bool) {
	for _, p := range t.Parameters {
		if p.Key == key {
			return p, true
		}
	}
	return Parameter{}, false
}

// Arena owns every target reference of a document in discovery order.
type Arena struct {
	Targets []TargetReference
	byLine  map[int]int
}

func NewArena() *Arena {
	return &Arena{byLine: make(map[int]int)}
}

func (a *Arena) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Targets)
}

// At returns the target at index i.
func (a *Arena) At(i int) *TargetReference {
	if a == nil || i < 0 || i >= len(a.Targets) {
		return nil
	}
	return &a.Targets[i]
}

func (a *Arena) push(t TargetReference) int {
	a.Targets = append(a.Targets, t)
	return len(a.Targets) - 1
}

// TargetAt returns the index of the target whose `_target_` key sits on line.
// When several targets share a line the first discovered one wins.
func (a *Arena) TargetAt(line int) (int, bool) {
	if a == nil {
		return 0, false
	}
	idx, ok := a.byLine[line]
	return idx, ok
}

func (a *Arena) reindex() {
	a.byLine = make(map[int]int, len(a.Targets))
	for i, t := range a.Targets {
		if !t.Positioned {
			continue
		}
		if _, seen := a.byLine[t.Line]; !seen {
			a.byLine[t.Line] = i
		}
	}
}
