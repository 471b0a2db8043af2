package targets

// stripQuotes removes one layer of matching single or double quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func isTargetKey(key string) bool {
	return stripQuotes(key) == TargetKey
}

// targetPair returns the `_target_` entry of a target mapping.
func targetPair(v *Value) (Pair, bool) {
	if v == nil || v.Kind != KindMapping {
		return Pair{}, false
	}
	for _, p := range v.Pairs {
		if isTargetKey(p.Key) && p.Value.IsString() {
			return p, true
		}
	}
	return Pair{}, false
}

func isTargetMapping(v *Value) bool {
	_, ok := targetPair(v)
	return ok
}

// Extract walks the value tree and registers every target mapping in the
// arena in pre-order. Positions are left unset.
func Extract(root *Value) *Arena {
	arena := NewArena()
	walk(arena, root)
	return arena
}

func walk(arena *Arena, v *Value) {
	if v == nil {
		return
	}
	switch v.Kind {
	case KindMapping:
		if isTargetMapping(v) && !v.Aliased {
			extractTarget(arena, v)
			return
		}
		for _, p := range v.Pairs {
			if p.Merged {
				continue
			}
			walk(arena, p.Value)
		}
	case KindSequence:
		for _, item := range v.Items {
			walk(arena, item)
		}
	}
}

func extractTarget(arena *Arena, v *Value) int {
	tp, _ := targetPair(v)
	idx := arena.push(TargetReference{Value: tp.Value.Text, keyPos: tp.KeyPos, node: tp.Value})

	params := make([]Parameter, 0, len(v.Pairs))
	for _, p := range v.Pairs {
		if isTargetKey(p.Key) {
			continue
		}
		param := Parameter{Key: p.Key, Merged: p.Merged, keyPos: p.KeyPos, keyQuoted: p.KeyQuoted}
		if !p.Merged && isTargetMapping(p.Value) && !p.Value.Aliased {
			param.Kind = NestedParameter
			param.Nested = extractTarget(arena, p.Value)
		} else {
			param.Kind = ScalarParameter
			param.Value = p.Value
			if !p.Merged {
				walk(arena, p.Value)
			}
		}
		params = append(params, param)
	}
	// The slice may have grown during recursion, so write through the index.
	arena.Targets[idx].Parameters = params
	return idx
}
