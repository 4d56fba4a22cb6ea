package retrieval

import (
	"regexp"
	"sort"
	"strings"
)

// stopWords is a small closed set of common English words excluded from
// keyword scoring. spec.md §9 leaves the exact list unenshrined; this one
// is fixed for this implementation.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "and": true,
	"or": true, "but": true, "if": true, "then": true, "than": true,
	"what": true, "how": true, "why": true, "when": true, "where": true,
	"who": true, "which": true, "this": true, "that": true, "these": true,
	"those": true, "for": true, "with": true, "from": true, "into": true,
	"about": true, "can": true, "does": true, "do": true, "did": true,
	"you": true, "your": true, "i": true, "my": true, "to": true, "of": true,
	"in": true, "on": true, "at": true, "it": true, "its": true,
}

var wordPattern = regexp.MustCompile(`[a-zA-Z]+`)

// keywords tokenizes query into lowercase alphabetic words of at least 3
// characters, discarding stop words, per spec.md §4.2.
func keywords(query string) []string {
	words := wordPattern.FindAllString(strings.ToLower(query), -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		if stopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// keywordScore scores one section body against the query's keywords: count
// of keyword hits * 100, a +200 bonus if every keyword is present, all
// divided by (len/100) to favor concise sections.
func keywordScore(body string, kws []string) float64 {
	if len(kws) == 0 {
		return 0
	}
	lower := strings.ToLower(body)

	hits := 0
	allPresent := true
	for _, kw := range kws {
		count := strings.Count(lower, kw)
		if count == 0 {
			allPresent = false
			continue
		}
		hits += count
	}
	if hits == 0 {
		return 0
	}

	score := float64(hits) * 100
	if allPresent {
		score += 200
	}

	lengthFactor := float64(len(body)) / 100
	if lengthFactor < 1 {
		lengthFactor = 1
	}
	return score / lengthFactor
}

// keywordFallback ranks sections by keywordScore and formats the top
// matches identically to the vector-search path (see formatResults).
func keywordFallback(sections []section, query string, k int) string {
	kws := keywords(query)
	if len(kws) == 0 {
		return noResultsMessage
	}

	type scored struct {
		sec   section
		score float64
	}
	var candidates []scored
	for _, s := range sections {
		sc := keywordScore(s.Body, kws)
		if sc > 0 {
			candidates = append(candidates, scored{s, sc})
		}
	}
	if len(candidates) == 0 {
		return noResultsMessage
	}

	// stable sort keeps ties in original section order, which keeps
	// fallback output deterministic for tests.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]string, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, formatResult(c.sec.Title, c.sec.Body))
	}
	return strings.Join(results, "\n---\n")
}
