package python

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler inspects a node during a walk. Returning true skips the node's children.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries the source and the search state of one walk.
type ExtractionContext struct {
	Source []byte
	Path   string
	Symbol string

	// Found stops the walk once set.
	Found *sitter.Node
}

// ExtractorEngine walks a syntax tree in pre-order and dispatches handlers by node kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil || ctx.Found != nil {
		return
	}

	skip := false
	if handler, ok := e.handlers[node.Kind()]; ok {
		skip = handler(ctx, node)
	}
	if skip || ctx.Found != nil {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
		if ctx.Found != nil {
			return
		}
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

// Line returns the 0-based row a node starts on.
func (c *ExtractionContext) Line(node *sitter.Node) int {
	return int(node.StartPosition().Row)
}

// FieldText returns the text of the named field child.
func (c *ExtractionContext) FieldText(node *sitter.Node, field string) string {
	if node == nil {
		return ""
	}
	return c.Text(node.ChildByFieldName(field))
}

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}
