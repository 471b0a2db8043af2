package python

import (
	"strings"
)

// String renders the signature as a Python def line.
func (s *FunctionSignature) String() string {
	var b strings.Builder
	b.WriteString("def ")
	b.WriteString(s.Name)
	b.WriteByte('(')
	b.WriteString(formatParameters(s.Parameters, false))
	b.WriteByte(')')
	if s.HasReturn {
		b.WriteString(" -> ")
		b.WriteString(s.ReturnType)
	}
	return b.String()
}

// String renders the class with its constructor parameters, receiver omitted.
func (c *ClassDefinition) String() string {
	if c.Constructor == nil {
		return "class " + c.Name
	}
	return "class " + c.Name + "(" + formatParameters(c.Constructor.Parameters, true) + ")"
}

func (d Definition) String() string {
	if d.Kind == DefinitionClass {
		return d.Class.String()
	}
	return d.Function.String()
}

// Markdown renders the definition as a fenced code block followed by its docstring.
func (d Definition) Markdown() string {
	var b strings.Builder
	b.WriteString("```python\n")
	b.WriteString(d.String())
	b.WriteString("\n```")
	if doc := d.Docstring(); doc != "" {
		b.WriteString("\n\n---\n\n")
		b.WriteString(doc)
	}
	return b.String()
}

func formatParameters(params []ParameterSignature, skipReceiver bool) string {
	parts := make([]string, 0, len(params)+2)
	sawStar := false
	for i, p := range params {
		if skipReceiver && i == 0 && !p.IsVariadic() {
			continue
		}
		if p.IsKeywordOnly() && !sawStar {
			parts = append(parts, "*")
			sawStar = true
		}

		var s strings.Builder
		switch p.Kind {
		case ParamVariadicPositional:
			s.WriteString("*")
			sawStar = true
		case ParamVariadicKeyword:
			s.WriteString("**")
		}
		s.WriteString(p.Name)
		if p.HasAnnotation {
			s.WriteString(": ")
			s.WriteString(p.TypeAnnotation)
		}
		if p.HasDefault {
			s.WriteString(" = ")
			s.WriteString(p.DefaultValue)
		}
		parts = append(parts, s.String())

		if p.Kind == ParamPositionalOnly && (i+1 == len(params) || params[i+1].Kind != ParamPositionalOnly) {
			parts = append(parts, "/")
		}
	}
	return strings.Join(parts, ", ")
}
