package search

import (
	"math"
	"strings"
)

// matchThreshold is the share of distinct query tokens that must appear in
// the content for ContentMatchesQuery to succeed.
const matchThreshold = 0.6

// Stop words to filter out of queries and content before scoring
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "how": true, "does": true,
}

// tokenize splits text into lowercase word tokens.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// distinct returns tokens with duplicates removed, keeping first occurrence order.
func distinct(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// occurrences counts the content tokens that contain term.
func occurrences(contentTokens []string, term string) int {
	n := 0
	for _, token := range contentTokens {
		if strings.Contains(token, term) {
			n++
		}
	}
	return n
}

// ContentMatchesQuery reports whether at least 60% of the query's distinct
// tokens appear as substrings of some content token. An empty query never matches.
func ContentMatchesQuery(content, query string) bool {
	queryTokens := distinct(tokenize(query))
	if len(queryTokens) == 0 {
		return false
	}
	contentTokens := tokenize(content)
	if len(contentTokens) == 0 {
		return false
	}

	matched := 0
	for _, term := range queryTokens {
		if occurrences(contentTokens, term) > 0 {
			matched++
		}
	}
	return float64(matched)/float64(len(queryTokens)) >= matchThreshold
}

// RelevanceScore returns a term-frequency relevance in [0, 1].
// Each distinct query token contributes its frequency in the content,
// boosted logarithmically and weighted equally across query tokens.
// Stop words are ignored unless the query has nothing else.
// Empty content or an empty query scores exactly 0.
func RelevanceScore(content, query string) float64 {
	queryTokens := distinct(tokenizeAndFilter(query))
	contentTokens := tokenizeAndFilter(content)
	if len(queryTokens) == 0 {
		queryTokens = distinct(tokenize(query))
		contentTokens = tokenize(content)
	}
	if len(queryTokens) == 0 || len(contentTokens) == 0 {
		return 0.0
	}

	weight := 1.0 / float64(len(queryTokens))
	total := float64(len(contentTokens))
	score := 0.0
	for _, term := range queryTokens {
		tf := float64(occurrences(contentTokens, term))
		if tf == 0 {
			continue
		}
		score += weight * (tf / total) * (1 + math.Log1p(tf))
	}
	return math.Min(score, 1.0)
}
