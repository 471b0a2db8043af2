package targets

import (
	"strings"
	"unicode/utf8"
)

// Recover fills the line and column fields of every arena entry and of its
// parameters. A `_target_` key found in the text belongs to the entry whose
// parsed key node sits at the same line and column; text that looks like a
// key but has no node behind it, such as block scalar content, is skipped.
func Recover(lines []string, arena *Arena) {
	byKey := make(map[Pos]int, arena.Len())
	for i, t := range arena.Targets {
		byKey[t.keyPos] = i
	}

	for ln := 0; ln < len(lines) && len(byKey) > 0; ln++ {
		line := lines[ln]
		for _, m := range findTargetKeys(line) {
			at := Pos{Line: ln, Column: utf8.RuneCountInString(line[:m.keyStart])}
			idx, ok := byKey[at]
			if !ok {
				continue
			}
			delete(byKey, at)

			t := &arena.Targets[idx]
			t.Line = ln
			t.KeyStart = m.keyStart
			t.ValueLine, t.ValueStart = valuePosition(lines, ln, m, t.node)
			t.Positioned = true
			recoverParameters(lines, t)
		}
	}
	arena.reindex()
}

// valuePosition returns the line and byte column of the first character of
// the printed target value.
func valuePosition(lines []string, ln int, m keyMatch, v *Value) (int, int) {
	if v == nil || (v.Pos.Line == ln && !v.Block) {
		return ln, skipProperties(lines[ln], m.valueStart)
	}
	if v.Block {
		// Block scalar content starts on the first non-empty line below the indicator.
		for next := v.Pos.Line + 1; next < len(lines); next++ {
			if strings.TrimSpace(lines[next]) == "" {
				continue
			}
			if indent := skipSpaces(lines[next], 0); indent > m.keyStart {
				return next, indent
			}
			break
		}
		return ln, m.valueStart
	}
	if v.Pos.Line >= len(lines) {
		return ln, m.valueStart
	}
	col := byteOffset(lines[v.Pos.Line], v.Pos.Column)
	if v.Quoted {
		col++
	}
	return v.Pos.Line, col
}

// skipProperties moves col past any `&anchor` or `!tag` written before a value
// and past an opening quote that follows them.
func skipProperties(line string, col int) int {
	moved := false
	for col < len(line) && (line[col] == '&' || line[col] == '!') {
		end := strings.IndexAny(line[col:], " \t")
		if end < 0 {
			return len(line)
		}
		col = skipSpaces(line, col+end)
		moved = true
	}
	if moved && col < len(line) && isQuote(line[col]) {
		col++
	}
	return col
}

// byteOffset converts a character column on line to a byte offset.
func byteOffset(line string, col int) int {
	for i := range line {
		if col == 0 {
			return i
		}
		col--
	}
	return len(line)
}

// recoverParameters places each parameter at its parsed key node. Merged
// parameters and keys whose text cannot be found there fall back to the
// `_target_` key position.
func recoverParameters(lines []string, t *TargetReference) {
	for i := range t.Parameters {
		p := &t.Parameters[i]
		if span, ok := keySpan(lines, *p); ok {
			p.Line = p.keyPos.Line
			p.KeySpan = span
			p.Positioned = true
			continue
		}
		p.Line = t.Line
		p.KeySpan = Span{Start: t.KeyStart, End: t.KeyStart + len(TargetKey)}
	}
}

func keySpan(lines []string, p Parameter) (Span, bool) {
	if p.Merged || p.keyPos.Line >= len(lines) {
		return Span{}, false
	}
	line := lines[p.keyPos.Line]
	start := byteOffset(line, p.keyPos.Column)
	if p.keyQuoted {
		start++
	}
	end := start + len(p.Key)
	if end > len(line) || line[start:end] != p.Key {
		return Span{}, false
	}
	return Span{Start: start, End: end}, true
}

// blockRange returns the first and last line of the block mapping whose keys
// sit at column col and which contains line. item marks a key line that also
// opens a sequence item, so no sibling key can precede it.
func blockRange(lines []string, line, col int, item bool) (int, int) {
	start := line
	if !item {
		for ln := line - 1; ln >= 0; ln-- {
			if isBlank(lines[ln]) {
				continue
			}
			if isDocumentMarker(lines[ln]) {
				break
			}
			indent, keyCol, isItem := lineLayout(lines[ln])
			if keyCol == col && isItem && indent < col {
				start = ln
				break
			}
			if indent < col {
				break
			}
			if indent == col && isItem {
				// `key:` followed by a sequence at the same indentation.
				start = ln
				continue
			}
			start = ln
		}
	}

	end := line
	for ln := line + 1; ln < len(lines); ln++ {
		if isBlank(lines[ln]) {
			continue
		}
		if isDocumentMarker(lines[ln]) {
			break
		}
		indent, _, _ := lineLayout(lines[ln])
		if indent < col {
			break
		}
		end = ln
	}
	return start, end
}
