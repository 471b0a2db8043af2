package targets

import (
	"strings"
)

type ContextKind int

const (
	ContextUnknown ContextKind = iota
	ContextTargetValue
	ContextParameterKey
	ContextParameterValue
)

func (k ContextKind) String() string {
	switch k {
	case ContextTargetValue:
		return "target-value"
	case ContextParameterKey:
		return "parameter-key"
	case ContextParameterValue:
		return "parameter-value"
	}
	return "unknown"
}

// CompletionContext describes what is being typed at a cursor position.
// TargetIdx is the arena index of the enclosing target for parameter contexts.
type CompletionContext struct {
	Kind      ContextKind
	Partial   string
	Target    string
	TargetIdx int
	Parameter string
}

// CompletionContext classifies the cursor at (line, col) against the already
// built arena. Columns past the end of the line are clamped.
func (d *Document) CompletionContext(line, col int) CompletionContext {
	if line < 0 || line >= len(d.Lines) {
		return CompletionContext{Kind: ContextUnknown}
	}
	text := d.Lines[line]
	col = max(0, min(col, len(text)))
	prefix := text[:col]

	if ms := findTargetKeys(prefix); len(ms) > 0 {
		m := ms[len(ms)-1]
		return CompletionContext{
			Kind:    ContextTargetValue,
			Partial: strings.TrimSpace(prefix[min(m.valueStart, len(prefix)):]),
		}
	}

	_, keyCol, _ := lineLayout(prefix)
	idx, ok := d.enclosingTarget(line, keyCol)
	if !ok {
		return CompletionContext{Kind: ContextUnknown}
	}
	target := d.Arena.At(idx)

	rest := prefix[keyCol:]
	if colon := strings.Index(rest, ":"); colon >= 0 && (colon+1 == len(rest) || rest[colon+1] == ' ' || rest[colon+1] == '\t') {
		return CompletionContext{
			Kind:      ContextParameterValue,
			Target:    target.Value,
			TargetIdx: idx,
			Parameter: stripQuotes(strings.TrimSpace(rest[:colon])),
			Partial:   strings.Trim(strings.TrimSpace(rest[colon+1:]), `"'`),
		}
	}
	return CompletionContext{
		Kind:      ContextParameterKey,
		Target:    target.Value,
		TargetIdx: idx,
		Partial:   strings.Trim(strings.TrimSpace(rest), `"'`),
	}
}

// enclosingTarget finds the target whose block mapping has its keys at
// column col and spans line. Trailing blank lines extend the block so a key
// can be typed on a fresh line below it.
func (d *Document) enclosingTarget(line, col int) (int, bool) {
	for i := range d.Arena.Targets {
		t := &d.Arena.Targets[i]
		if !t.Positioned || t.KeyStart != col || t.Line >= len(d.Lines) {
			continue
		}
		start, end := blockRange(d.Lines, t.Line, col, isItemKey(d.Lines[t.Line], col))
		if line >= start && line <= end {
			return i, true
		}
		if line > end && blankBetween(d.Lines, end+1, line) {
			return i, true
		}
	}
	return 0, false
}

// isItemKey reports whether the key at col is the first key of a sequence item.
func isItemKey(line string, col int) bool {
	indent, keyCol, item := lineLayout(line)
	return item && keyCol == col && indent < col
}

// blankBetween reports whether lines [from, to) are all blank.
func blankBetween(lines []string, from, to int) bool {
	for ln := from; ln < to; ln++ {
		if !isBlank(lines[ln]) {
			return false
		}
	}
	return true
}
