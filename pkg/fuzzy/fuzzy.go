package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field is a text to score against, weighted by its importance
type Field struct {
	Text   string
	Weight float64
}

// LevenshteinDistance calculates the edit distance between two strings
// This measures how many single-character edits (insertions, deletions, or substitutions)
// are required to change one string into another
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(Normalize(s1))
	r2 := []rune(Normalize(s2))
	m := len(r1)
	n := len(r2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Two rolling rows are enough
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// Threshold is the typo tolerance for a query, based on its length
func Threshold(query string) int {
	l := len([]rune(Normalize(query)))
	switch {
	case l <= 3:
		return 1
	case l >= 8:
		return 3
	}
	return 2
}

// FuzzyMatch checks if query fuzzy-matches text within a given threshold
// threshold is the maximum allowed edit distance
func FuzzyMatch(query, text string, threshold int) bool {
	query = Normalize(query)
	text = Normalize(text)
	if query == "" || text == "" {
		return false
	}

	// If query is contained in text, it's a match
	if strings.Contains(text, query) {
		return true
	}

	// Check if any word in text fuzzy-matches the query
	for _, word := range strings.Fields(text) {
		if LevenshteinDistance(query, word) <= threshold {
			return true
		}
		// Check if word starts with query (partial match)
		if strings.HasPrefix(word, query) {
			return true
		}
	}

	// Check overall distance for short texts
	if len(text) < 50 {
		// Allow more tolerance for longer queries
		maxDistance := threshold + len(query)/5
		if LevenshteinDistance(query, text) <= maxDistance {
			return true
		}
	}

	return false
}

// Match reports whether query fuzzy-matches any of texts
func Match(query string, texts ...string) bool {
	threshold := Threshold(query)
	for _, text := range texts {
		if FuzzyMatch(query, text, threshold) {
			return true
		}
	}
	return false
}

// Score rates how relevant the fields are to query. Higher score = more relevant
func Score(query string, fields ...Field) float64 {
	query = Normalize(query)
	if query == "" {
		return 0
	}

	score := 0.0
	for _, f := range fields {
		text := Normalize(f.Text)
		if text == "" {
			continue
		}

		fieldScore := 0.0
		if strings.Contains(text, query) {
			fieldScore += 100.0
			// Bonus for exact word match
			if containsWord(text, query) {
				fieldScore += 50.0
			}
		} else {
			for _, word := range strings.Fields(text) {
				dist := LevenshteinDistance(query, word)
				if dist <= 2 {
					fieldScore += 50.0 - float64(dist)*15
				}
				if strings.HasPrefix(word, query) {
					fieldScore += 40.0
				}
			}
		}
		score += fieldScore * f.Weight
	}
	return score
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics and collapses whitespace,
// so "Réservation  Été" and "reservation ete" compare equal
func Normalize(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// containsWord checks if text contains query as a whole word
func containsWord(text, query string) bool {
	for _, word := range strings.Fields(text) {
		if word == query {
			return true
		}
	}
	return false
}
