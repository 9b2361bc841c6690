package sqlgen

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/jinzhu/inflection"
)

// tableSimilarityThreshold is the minimum ratio for a fuzzy table match.
const tableSimilarityThreshold = 0.6

// Similarity returns a 0..1 ratio from the Levenshtein distance between two
// strings, case-insensitive. 1 means identical.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// BestTableMatch finds the known table most similar to name, trying the name
// itself plus its singular and plural forms as candidates. Returns false when
// no known table clears the similarity threshold.
func BestTableMatch(name string, known []string) (string, bool) {
	candidates := []string{name}
	if singular := inflection.Singular(name); singular != name {
		candidates = append(candidates, singular)
	}
	if plural := inflection.Plural(name); plural != name {
		candidates = append(candidates, plural)
	}

	best := ""
	bestScore := 0.0
	for _, table := range known {
		for _, candidate := range candidates {
			if score := Similarity(candidate, table); score > bestScore {
				best = table
				bestScore = score
			}
		}
	}

	if bestScore < tableSimilarityThreshold {
		return "", false
	}
	return best, true
}
