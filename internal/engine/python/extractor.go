package python

import (
	"fmt"
	"os"
	"strings"
	"time"

	"hydralsp/internal/core/errors"
	"hydralsp/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// DefinitionSource finds a named function or class in a Python file.
type DefinitionSource interface {
	ExtractFile(path, symbol string) (Definition, error)
}

// Extractor reads Python definitions with tree-sitter.
type Extractor struct {
	pool *ParserPool
}

func NewExtractor() *Extractor {
	return &Extractor{pool: NewParserPool()}
}

func (e *Extractor) ExtractFile(path, symbol string) (Definition, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read python source"), errors.CtxPath, path)
	}
	return e.Extract(source, path, symbol)
}

// Extract parses source and returns the first function named symbol in
// pre-order, or failing that the first class.
func (e *Extractor) Extract(source []byte, path, symbol string) (Definition, error) {
	start := time.Now()
	defer func() {
		observability.PythonParseDuration.Observe(time.Since(start).Seconds())
	}()

	sp := e.pool.Get()
	defer e.pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return Definition{}, errors.AddContext(errors.New(errors.CodePythonParseError, "tree-sitter returned no tree"), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		return Definition{}, (&errors.DomainError{
			Code:    errors.CodePythonParseError,
			Message: fmt.Sprintf("syntax error in %s near line %d", path, line+1),
		}).WithContext(errors.CtxPath, path).WithContext(errors.CtxLine, line)
	}

	ctx := &ExtractionContext{Source: source, Path: path, Symbol: symbol}
	if node := findDefinition(ctx, root, "function_definition"); node != nil {
		return Definition{Kind: DefinitionFunction, Function: functionSignature(ctx, node), Path: path}, nil
	}
	if node := findDefinition(ctx, root, "class_definition"); node != nil {
		return Definition{Kind: DefinitionClass, Class: classDefinition(ctx, node), Path: path}, nil
	}
	return Definition{}, (&errors.DomainError{
		Code:    errors.CodeSymbolNotFound,
		Message: fmt.Sprintf("symbol %q not found in %s", symbol, path),
	}).WithContext(errors.CtxSymbol, symbol).WithContext(errors.CtxPath, path)
}

func findDefinition(ctx *ExtractionContext, root *sitter.Node, kind string) *sitter.Node {
	ctx.Found = nil
	engine := NewExtractorEngine(map[string]NodeHandler{
		kind: func(ctx *ExtractionContext, node *sitter.Node) bool {
			if ctx.FieldText(node, "name") == ctx.Symbol {
				ctx.Found = node
				return true
			}
			return false
		},
	})
	engine.Walk(ctx, root)
	return ctx.Found
}

func firstErrorLine(node *sitter.Node) int {
	if node.IsError() || node.IsMissing() {
		return int(node.StartPosition().Row)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && (child.HasError() || child.IsMissing()) {
			return firstErrorLine(child)
		}
	}
	return int(node.StartPosition().Row)
}

func functionSignature(ctx *ExtractionContext, node *sitter.Node) *FunctionSignature {
	sig := &FunctionSignature{
		Name:       ctx.FieldText(node, "name"),
		Parameters: parameters(ctx, node.ChildByFieldName("parameters")),
		Docstring:  docstring(ctx, node.ChildByFieldName("body")),
		Line:       ctx.Line(node),
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		sig.ReturnType = renderExpr(ctx, ret)
		sig.HasReturn = true
	}
	return sig
}

func classDefinition(ctx *ExtractionContext, node *sitter.Node) *ClassDefinition {
	body := node.ChildByFieldName("body")
	class := &ClassDefinition{
		Name:      ctx.FieldText(node, "name"),
		Docstring: docstring(ctx, body),
		Line:      ctx.Line(node),
	}
	for _, stmt := range namedChildren(body) {
		def := stmt
		if def.Kind() == "decorated_definition" {
			def = def.ChildByFieldName("definition")
		}
		if def != nil && def.Kind() == "function_definition" && ctx.FieldText(def, "name") == "__init__" {
			class.Constructor = functionSignature(ctx, def)
			break
		}
	}
	return class
}

// parameters walks a parameter list in source order, which Python fixes as
// positional-only, regular, *args, keyword-only, **kwargs.
func parameters(ctx *ExtractionContext, node *sitter.Node) []ParameterSignature {
	var out []ParameterSignature
	keywordOnly := false

	add := func(p ParameterSignature) {
		if p.Kind == ParamRegular && keywordOnly {
			p.Kind = ParamKeywordOnly
		}
		out = append(out, p)
	}

	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "identifier":
			add(ParameterSignature{Name: ctx.Text(child)})
		case "default_parameter":
			add(ParameterSignature{
				Name:         ctx.FieldText(child, "name"),
				DefaultValue: renderExpr(ctx, child.ChildByFieldName("value")),
				HasDefault:   true,
			})
		case "typed_default_parameter":
			add(ParameterSignature{
				Name:           ctx.FieldText(child, "name"),
				TypeAnnotation: renderExpr(ctx, child.ChildByFieldName("type")),
				HasAnnotation:  true,
				DefaultValue:   renderExpr(ctx, child.ChildByFieldName("value")),
				HasDefault:     true,
			})
		case "typed_parameter":
			p := ParameterSignature{
				TypeAnnotation: renderExpr(ctx, child.ChildByFieldName("type")),
				HasAnnotation:  true,
			}
			inner := namedChildren(child)
			if len(inner) == 0 {
				continue
			}
			switch inner[0].Kind() {
			case "list_splat_pattern":
				p.Name = splatName(ctx, inner[0])
				p.Kind = ParamVariadicPositional
				keywordOnly = true
			case "dictionary_splat_pattern":
				p.Name = splatName(ctx, inner[0])
				p.Kind = ParamVariadicKeyword
			default:
				p.Name = ctx.Text(inner[0])
			}
			add(p)
		case "list_splat_pattern":
			add(ParameterSignature{Name: splatName(ctx, child), Kind: ParamVariadicPositional})
			keywordOnly = true
		case "dictionary_splat_pattern":
			add(ParameterSignature{Name: splatName(ctx, child), Kind: ParamVariadicKeyword})
		case "keyword_separator":
			keywordOnly = true
		case "positional_separator":
			for i := range out {
				if out[i].Kind == ParamRegular {
					out[i].Kind = ParamPositionalOnly
				}
			}
		}
	}
	return out
}

func splatName(ctx *ExtractionContext, node *sitter.Node) string {
	for _, c := range namedChildren(node) {
		if c.Kind() == "identifier" {
			return ctx.Text(c)
		}
	}
	return strings.TrimLeft(ctx.Text(node), "*")
}

// docstring returns the leading bare string statement of a body.
func docstring(ctx *ExtractionContext, body *sitter.Node) string {
	stmts := namedChildren(body)
	if len(stmts) == 0 || stmts[0].Kind() != "expression_statement" {
		return ""
	}
	exprs := namedChildren(stmts[0])
	if len(exprs) != 1 {
		return ""
	}
	switch exprs[0].Kind() {
	case "string":
		return strings.TrimSpace(stringContent(ctx, exprs[0]))
	case "concatenated_string":
		var b strings.Builder
		for _, part := range namedChildren(exprs[0]) {
			if part.Kind() == "string" {
				b.WriteString(stringContent(ctx, part))
			}
		}
		return strings.TrimSpace(b.String())
	}
	return ""
}
