package diagnostics

import (
	"github.com/hbollon/go-edlib"
)

// suggestionThreshold is the minimum Jaro-Winkler similarity for a "did you mean".
const suggestionThreshold = 0.8

// closestName returns the candidate most similar to name, if any reaches the
// threshold. Ties keep the earlier candidate.
func closestName(name string, candidates []string) (string, bool) {
	best := ""
	bestScore := float32(0)
	for _, c := range candidates {
		score, err := edlib.StringsSimilarity(name, c, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < suggestionThreshold {
		return "", false
	}
	return best, true
}
