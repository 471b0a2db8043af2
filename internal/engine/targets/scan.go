package targets

import (
	"strings"
)

// keyMatch is one `_target_` key occurrence found on a line of text.
type keyMatch struct {
	keyStart   int
	valueStart int
}

// SplitLines splits text into lines, dropping carriage returns.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func skipSpaces(line string, i int) int {
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

// commentStart returns the index of a `#` comment outside of quotes, or len(line).
func commentStart(line string) int {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case isQuote(c) && (i == 0 || strings.ContainsRune(" \t:{[,-", rune(line[i-1]))):
			quote = c
		case c == '#' && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t'):
			return i
		}
	}
	return len(line)
}

func isBlank(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

func isDocumentMarker(line string) bool {
	return strings.HasPrefix(line, "---") || strings.HasPrefix(line, "...")
}

// isItemPrefix reports whether prefix consists of sequence indicators only.
func isItemPrefix(prefix string) bool {
	if !strings.HasSuffix(prefix, "-") {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		if prefix[i] != '-' && prefix[i] != ' ' && prefix[i] != '\t' {
			return false
		}
	}
	return true
}

// lineLayout returns the indentation of line and the column of the first
// mapping key, skipping any leading `- ` sequence indicators.
func lineLayout(line string) (indent, keyCol int, item bool) {
	indent = skipSpaces(line, 0)
	keyCol = indent
	for keyCol < len(line) && line[keyCol] == '-' && (keyCol+1 == len(line) || line[keyCol+1] == ' ' || line[keyCol+1] == '\t') {
		item = true
		keyCol = skipSpaces(line, keyCol+1)
	}
	return indent, keyCol, item
}

// findTargetKeys locates every `_target_` key on line. The key may be bare
// or wrapped in one pair of matching quotes and must be followed by a colon.
func findTargetKeys(line string) []keyMatch {
	limit := commentStart(line)
	var out []keyMatch
	for from := 0; from < limit; {
		i := strings.Index(line[from:limit], TargetKey)
		if i < 0 {
			break
		}
		pos := from + i
		from = pos + len(TargetKey)

		keyStart, end := pos, pos+len(TargetKey)
		if pos > 0 && isQuote(line[pos-1]) {
			quote := line[pos-1]
			if end >= len(line) || line[end] != quote {
				continue
			}
			keyStart = pos - 1
			end++
		} else if end < len(line) && isQuote(line[end]) {
			continue
		}

		colon := skipSpaces(line, end)
		if colon >= len(line) || line[colon] != ':' {
			continue
		}
		if colon+1 < len(line) && line[colon+1] != ' ' && line[colon+1] != '\t' {
			continue
		}

		m := keyMatch{keyStart: keyStart}
		prefix := strings.TrimRight(line[:keyStart], " \t")
		if prefix != "" && !isItemPrefix(prefix) && !strings.HasSuffix(prefix, "{") && !strings.HasSuffix(prefix, ",") {
			continue
		}

		m.valueStart = skipSpaces(line, colon+1)
		if m.valueStart < len(line) && isQuote(line[m.valueStart]) {
			m.valueStart++
		}
		out = append(out, m)
	}
	return out
}
