package diagnostics

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"

	"hydralsp/internal/core/errors"
	"hydralsp/internal/engine/python"
	"hydralsp/internal/engine/targets"
	"hydralsp/internal/shared/observability"
)

// Hydra instantiation keys that are never passed to the target.
const (
	keyArgs      = "_args_"
	keyRecursive = "_recursive_"
	keyConvert   = "_convert_"
	keyPartial   = "_partial_"
)

func isReservedKey(key string) bool {
	switch key {
	case keyArgs, keyRecursive, keyConvert, keyPartial:
		return true
	}
	return false
}

// Engine validates target references against the Python definitions they name.
type Engine struct {
	resolver    python.ModuleResolver
	source      python.DefinitionSource
	suggestions atomic.Bool
}

type Option func(*Engine)

// WithSuggestions toggles "did you mean" hints on unknown parameters.
func WithSuggestions(enabled bool) Option {
	return func(e *Engine) { e.suggestions.Store(enabled) }
}

// SetSuggestions toggles "did you mean" hints for later validations.
func (e *Engine) SetSuggestions(enabled bool) {
	e.suggestions.Store(enabled)
}

func NewEngine(resolver python.ModuleResolver, source python.DefinitionSource, opts ...Option) *Engine {
	e := &Engine{resolver: resolver, source: source}
	e.suggestions.Store(true)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolved is the outcome of resolving one target value.
type Resolved struct {
	Module     string
	Symbol     string
	Path       string
	Definition python.Definition
}

// Resolve splits a target value, locates its module and extracts the symbol.
// Errors are DomainErrors coded INVALID_TARGET, MODULE_NOT_FOUND,
// SYMBOL_NOT_FOUND or PYTHON_PARSE_ERROR.
func (e *Engine) Resolve(target string) (Resolved, error) {
	module, symbol, err := python.SplitTarget(target)
	if err != nil {
		return Resolved{}, err
	}
	r := Resolved{Module: module, Symbol: symbol}
	path, err := e.resolver.Resolve(module)
	if err != nil {
		observability.ModuleResolveTotal.WithLabelValues("not_found").Inc()
		return r, err
	}
	observability.ModuleResolveTotal.WithLabelValues("found").Inc()
	r.Path = path
	def, err := e.source.ExtractFile(path, symbol)
	if err != nil {
		return r, err
	}
	r.Definition = def
	return r, nil
}

// ValidateText parses text and validates it. A parse failure yields a single
// document-level finding.
func (e *Engine) ValidateText(ctx context.Context, text string) []Finding {
	doc, err := targets.Parse(text)
	if err != nil {
		return []Finding{ParseFailure(text, err)}
	}
	return e.Validate(ctx, doc)
}

// Validate checks every target of doc in arena order and returns the findings
// sorted by position. A cancelled ctx stops before the next target.
func (e *Engine) Validate(ctx context.Context, doc *targets.Document) []Finding {
	var findings []Finding
	for i := 0; i < doc.Arena.Len(); i++ {
		if ctx.Err() != nil {
			break
		}
		findings = append(findings, e.validateTarget(doc.Arena.At(i))...)
	}
	Sort(findings)
	return findings
}

func (e *Engine) validateTarget(t *targets.TargetReference) []Finding {
	observability.TargetsAnalyzed.Inc()
	span := t.ValueSpan()
	atValue := func(code Code, msg string) Finding {
		return Finding{Line: t.ValueLine, StartCol: span.Start, EndCol: span.End, Severity: SeverityError, Code: code, Message: msg}
	}

	r, err := e.Resolve(t.Value)
	switch {
	case err == nil:
	case errors.IsCode(err, errors.CodeInvalidTarget):
		return []Finding{atValue(CodeInvalidTarget,
			fmt.Sprintf("Invalid _target_ format: '%s'. Expected format: 'module.path.SymbolName'", t.Value))}
	case errors.IsCode(err, errors.CodeSymbolNotFound):
		return []Finding{atValue(CodeSymbolNotFound,
			fmt.Sprintf("Symbol '%s' not found in module '%s'", r.Symbol, r.Module))}
	case errors.IsCode(err, errors.CodePythonParseError):
		return []Finding{atValue(CodePythonParseError,
			fmt.Sprintf("Cannot parse module '%s': %s", r.Module, reason(err)))}
	default:
		return []Finding{atValue(CodeModuleNotFound,
			fmt.Sprintf("Cannot resolve module '%s': %s", r.Module, reason(err)))}
	}

	def := r.Definition
	// A class without __init__ may inherit one, so its keys are not checked.
	if def.Kind == python.DefinitionClass && def.Class.Constructor == nil {
		return nil
	}
	return e.checkParameters(t, def)
}

func (e *Engine) checkParameters(t *targets.TargetReference, def python.Definition) []Finding {
	var findings []Finding
	name := def.Name()
	accepted := def.CallParameters()
	kwargs := def.CallSignature().HasVariadicKeyword()

	expected := make(map[string]bool, len(accepted))
	names := make([]string, 0, len(accepted))
	for _, p := range accepted {
		expected[p.Name] = true
		names = append(names, p.Name)
	}

	supplied := make(map[string]bool, len(t.Parameters))
	for _, p := range t.Parameters {
		supplied[p.Key] = true
		if isReservedKey(p.Key) || expected[p.Key] {
			continue
		}
		f := Finding{Line: p.Line, StartCol: p.KeySpan.Start, EndCol: p.KeySpan.End}
		if kwargs {
			f.Severity = SeverityHint
			f.Code = CodePassedViaKwargs
			f.Message = fmt.Sprintf("Parameter '%s' will be passed via **kwargs", p.Key)
		} else {
			f.Severity = SeverityError
			f.Code = CodeUnknownParameter
			f.Message = fmt.Sprintf("Unknown parameter '%s' for '%s'", p.Key, name)
			if e.suggestions.Load() {
				if guess, ok := closestName(p.Key, names); ok && !supplied[guess] {
					f.Message += fmt.Sprintf(" (did you mean '%s'?)", guess)
				}
			}
		}
		findings = append(findings, f)
	}

	if partial, ok := t.Parameter(keyPartial); ok && partial.Value.Truthy() {
		return findings
	}

	positional := 0
	if args, ok := t.Parameter(keyArgs); ok && args.Value != nil && args.Value.Kind == targets.KindSequence {
		positional = len(args.Value.Items)
	}

	span := t.ValueSpan()
	for _, p := range accepted {
		if positional > 0 && !p.IsKeywordOnly() {
			positional--
			continue
		}
		if !p.IsRequired() || supplied[p.Name] {
			continue
		}
		findings = append(findings, Finding{
			Line:     t.ValueLine,
			StartCol: span.Start,
			EndCol:   span.End,
			Severity: SeverityError,
			Code:     CodeMissingParameter,
			Message:  fmt.Sprintf("Missing required parameter '%s' for '%s'", p.Name, name),
		})
	}
	return findings
}

// ParseFailure converts a document parse error into a finding spanning the
// offending line, or the first line when the position is unknown.
func ParseFailure(text string, err error) Finding {
	line := 0
	if v, ok := errors.ContextValue(err, errors.CtxLine); ok {
		if l, ok := v.(int); ok && l >= 0 {
			line = l
		}
	}
	lines := targets.SplitLines(text)
	if line >= len(lines) {
		line = max(len(lines)-1, 0)
	}
	end := 0
	if line < len(lines) {
		end = len(lines[line])
	}
	return Finding{
		Line:     line,
		EndCol:   end,
		Severity: SeverityError,
		Code:     CodeParseError,
		Message:  fmt.Sprintf("YAML syntax error: %s", reason(err)),
	}
}

// reason extracts the human-readable message of err without code or context.
func reason(err error) string {
	var de *errors.DomainError
	if stderrors.As(err, &de) {
		if de.Err != nil {
			return de.Message + ": " + de.Err.Error()
		}
		return de.Message
	}
	return err.Error()
}
