package python

// ParameterKind classifies how a parameter may be supplied. The kinds are
// mutually exclusive.
type ParameterKind int

const (
	ParamRegular ParameterKind = iota
	ParamPositionalOnly
	ParamVariadicPositional
	ParamKeywordOnly
	ParamVariadicKeyword
)

type ParameterSignature struct {
	Name           string
	TypeAnnotation string
	DefaultValue   string
	HasAnnotation  bool
	HasDefault     bool
	Kind           ParameterKind
}

func (p ParameterSignature) IsVariadicPositional() bool { return p.Kind == ParamVariadicPositional }
func (p ParameterSignature) IsVariadicKeyword() bool    { return p.Kind == ParamVariadicKeyword }
func (p ParameterSignature) IsKeywordOnly() bool        { return p.Kind == ParamKeywordOnly }

func (p ParameterSignature) IsVariadic() bool {
	return p.IsVariadicPositional() || p.IsVariadicKeyword()
}

// IsRequired reports whether a call must supply the parameter.
func (p ParameterSignature) IsRequired() bool {
	return !p.HasDefault && !p.IsVariadic()
}

type FunctionSignature struct {
	Name       string
	Parameters []ParameterSignature
	ReturnType string
	HasReturn  bool
	Docstring  string
	Line       int
}

// HasVariadicKeyword reports whether the signature accepts arbitrary keywords.
func (s *FunctionSignature) HasVariadicKeyword() bool {
	for _, p := range s.Parameters {
		if p.IsVariadicKeyword() {
			return true
		}
	}
	return false
}

// Accepted returns the parameters a caller can name: everything except the
// receiver and the two variadic slots. For methods the first non-variadic
// parameter is the receiver whatever its name.
func (s *FunctionSignature) Accepted(method bool) []ParameterSignature {
	out := make([]ParameterSignature, 0, len(s.Parameters))
	for i, p := range s.Parameters {
		if p.IsVariadic() {
			continue
		}
		if i == 0 && isReceiver(p.Name, method) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isReceiver(name string, method bool) bool {
	return method || name == "self"
}

type ClassDefinition struct {
	Name        string
	Docstring   string
	Constructor *FunctionSignature
	Line        int
}

type DefinitionKind int

const (
	DefinitionFunction DefinitionKind = iota
	DefinitionClass
)

func (k DefinitionKind) String() string {
	if k == DefinitionClass {
		return "class"
	}
	return "function"
}

// Definition is either a function or a class found in Path.
type Definition struct {
	Kind     DefinitionKind
	Function *FunctionSignature
	Class    *ClassDefinition
	Path     string
}

func (d Definition) Name() string {
	if d.Kind == DefinitionClass {
		return d.Class.Name
	}
	return d.Function.Name
}

// Line returns the 0-based line of the def or class statement.
func (d Definition) Line() int {
	if d.Kind == DefinitionClass {
		return d.Class.Line
	}
	return d.Function.Line
}

func (d Definition) Docstring() string {
	if d.Kind == DefinitionClass {
		return d.Class.Docstring
	}
	return d.Function.Docstring
}

// CallSignature is the signature used when the definition is invoked. Classes
// without __init__ take no arguments.
func (d Definition) CallSignature() *FunctionSignature {
	if d.Kind == DefinitionFunction {
		return d.Function
	}
	if d.Class.Constructor != nil {
		return d.Class.Constructor
	}
	return &FunctionSignature{Name: "__init__", Line: d.Class.Line}
}

// CallParameters returns the parameters a caller can supply by name.
func (d Definition) CallParameters() []ParameterSignature {
	return d.CallSignature().Accepted(d.Kind == DefinitionClass)
}
