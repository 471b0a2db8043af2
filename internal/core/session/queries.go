package session

import (
	"fmt"

	"hydralsp/internal/core/errors"
	"hydralsp/internal/engine/python"
	"hydralsp/internal/engine/targets"
)

// Hover describes the definition behind a target reference.
type Hover struct {
	Target    string
	Signature string
	Markdown  string
	Span      targets.Span
	Line      int
}

// Location points at a definition in a Python file. Line is 0-based.
type Location struct {
	Path string
	Line int
}

func (s *Session) document(uri string) (*targets.Document, error) {
	a, ok := s.Analysis(uri)
	if !ok {
		return nil, errors.AddContext(errors.New(errors.CodeNotFound, "document has not been analyzed"), errors.CtxPath, uri)
	}
	if a.Document == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParseFailure, "document did not parse"), errors.CtxPath, uri)
	}
	return a.Document, nil
}

// TargetAt returns the target whose `_target_` key is on line.
func (s *Session) TargetAt(uri string, line int) (*targets.TargetReference, error) {
	doc, err := s.document(uri)
	if err != nil {
		return nil, err
	}
	t, ok := doc.TargetAt(line)
	if !ok {
		return nil, (&errors.DomainError{
			Code:    errors.CodeNotFound,
			Message: fmt.Sprintf("no _target_ on line %d", line+1),
		}).WithContext(errors.CtxPath, uri).WithContext(errors.CtxLine, line)
	}
	return t, nil
}

// CompletionContext classifies the cursor against the last analyzed arena.
func (s *Session) CompletionContext(uri string, line, col int) targets.CompletionContext {
	doc, err := s.document(uri)
	if err != nil {
		return targets.CompletionContext{Kind: targets.ContextUnknown}
	}
	return doc.CompletionContext(line, col)
}

func (s *Session) Hover(uri string, line int) (Hover, error) {
	t, err := s.TargetAt(uri, line)
	if err != nil {
		return Hover{}, err
	}
	r, err := s.analyzer.Engine().Resolve(t.Value)
	if err != nil {
		return Hover{}, err
	}
	return Hover{
		Target:    t.Value,
		Signature: r.Definition.String(),
		Markdown:  r.Definition.Markdown(),
		Span:      t.ValueSpan(),
		Line:      t.ValueLine,
	}, nil
}

func (s *Session) Definition(uri string, line int) (Location, error) {
	t, err := s.TargetAt(uri, line)
	if err != nil {
		return Location{}, err
	}
	r, err := s.analyzer.Engine().Resolve(t.Value)
	if err != nil {
		return Location{}, err
	}
	return Location{Path: r.Path, Line: r.Definition.Line()}, nil
}

// ParameterCompletions lists the parameters of the target enclosing the
// cursor that are not supplied yet, in signature order.
func (s *Session) ParameterCompletions(uri string, line, col int) ([]python.ParameterSignature, error) {
	doc, err := s.document(uri)
	if err != nil {
		return nil, err
	}

	var t *targets.TargetReference
	cc := doc.CompletionContext(line, col)
	switch cc.Kind {
	case targets.ContextParameterKey, targets.ContextParameterValue:
		t = doc.Arena.At(cc.TargetIdx)
	default:
		if found, ok := doc.TargetAt(line); ok {
			t = found
		}
	}
	if t == nil {
		return nil, errors.AddContext(errors.New(errors.CodeNotFound, "no enclosing _target_"), errors.CtxLine, line)
	}

	r, err := s.analyzer.Engine().Resolve(t.Value)
	if err != nil {
		return nil, err
	}
	var out []python.ParameterSignature
	for _, p := range r.Definition.CallParameters() {
		if _, supplied := t.Parameter(p.Name); !supplied {
			out = append(out, p)
		}
	}
	return out, nil
}
