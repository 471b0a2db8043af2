package python

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// placeholder stands in for expressions that are not rendered.
const placeholder = "..."

// renderExpr renders annotation and default expressions as text. Unsupported
// shapes become the placeholder.
func renderExpr(ctx *ExtractionContext, node *sitter.Node) string {
	if node == nil {
		return placeholder
	}
	switch node.Kind() {
	case "type":
		children := namedChildren(node)
		if len(children) == 1 {
			return renderExpr(ctx, children[0])
		}
	case "identifier", "integer", "float":
		return ctx.Text(node)
	case "true":
		return "True"
	case "false":
		return "False"
	case "none":
		return "None"
	case "string":
		return "'" + stringContent(ctx, node) + "'"
	case "attribute":
		return renderExpr(ctx, node.ChildByFieldName("object")) + "." + ctx.FieldText(node, "attribute")
	case "member_type":
		children := namedChildren(node)
		if len(children) == 2 {
			return renderExpr(ctx, children[0]) + "." + ctx.Text(children[1])
		}
	case "subscript":
		children := namedChildren(node)
		if len(children) >= 2 {
			return renderExpr(ctx, children[0]) + "[" + renderList(ctx, children[1:]) + "]"
		}
	case "generic_type":
		children := namedChildren(node)
		if len(children) == 2 && children[1].Kind() == "type_parameter" {
			return renderExpr(ctx, children[0]) + "[" + renderList(ctx, namedChildren(children[1])) + "]"
		}
	case "tuple":
		return "(" + renderList(ctx, namedChildren(node)) + ")"
	case "list":
		return "[" + renderList(ctx, namedChildren(node)) + "]"
	case "binary_operator":
		if ctx.Text(node.ChildByFieldName("operator")) == "|" {
			return renderExpr(ctx, node.ChildByFieldName("left")) + " | " + renderExpr(ctx, node.ChildByFieldName("right"))
		}
	case "union_type":
		children := namedChildren(node)
		if len(children) == 2 {
			return renderExpr(ctx, children[0]) + " | " + renderExpr(ctx, children[1])
		}
	case "unary_operator":
		arg := node.ChildByFieldName("argument")
		op := ctx.Text(node.ChildByFieldName("operator"))
		if arg != nil && op == "-" && (arg.Kind() == "integer" || arg.Kind() == "float") {
			return "-" + ctx.Text(arg)
		}
	}
	return placeholder
}

func renderList(ctx *ExtractionContext, nodes []*sitter.Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, renderExpr(ctx, n))
	}
	return strings.Join(parts, ", ")
}

// stringContent returns the literal text between the quotes of a string node.
func stringContent(ctx *ExtractionContext, node *sitter.Node) string {
	count := node.ChildCount()
	if count >= 2 {
		first, last := node.Child(0), node.Child(count-1)
		if first.Kind() == "string_start" && last.Kind() == "string_end" {
			return string(ctx.Source[first.EndByte():last.StartByte()])
		}
	}
	text := ctx.Text(node)
	text = strings.TrimLeft(text, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(text) >= 2*len(q) && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return text[len(q) : len(text)-len(q)]
		}
	}
	return text
}
