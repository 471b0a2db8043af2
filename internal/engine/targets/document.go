package targets

// Document is the analyzed form of one YAML text.
type Document struct {
	Text  string
	Lines []string
	Root  *Value
	Arena *Arena
}

// Parse reads text into a value tree, extracts its target references and
// recovers their source positions.
func Parse(text string) (*Document, error) {
	root, err := ReadValue(text)
	if err != nil {
		return nil, err
	}
	arena := Extract(root)
	lines := SplitLines(text)
	Recover(lines, arena)
	return &Document{Text: text, Lines: lines, Root: root, Arena: arena}, nil
}

// TargetAt returns the target whose `_target_` key is on line.
func (d *Document) TargetAt(line int) (*TargetReference, bool) {
	idx, ok := d.Arena.TargetAt(line)
	if !ok {
		return nil, false
	}
	return d.Arena.At(idx), true
}
