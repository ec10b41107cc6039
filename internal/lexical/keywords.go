// Package lexical holds the local text utilities used when analysis providers
// are unavailable: tokenization, stop-word filtering, frequency keywords and a
// deterministic (non-semantic) embedding.
package lexical

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
)

// MinTermLength is the shortest token kept by ExtractKeywords.
const MinTermLength = 4

// Tokenize splits text on non-word boundaries and lower-cases every token.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// ExtractKeywords returns the maxTerms most frequent terms, ordered by
// descending frequency (first occurrence breaks ties). Each score is the term's
// frequency divided by the number of retained tokens.
func ExtractKeywords(text string, maxTerms int) []pitch.Keyword {
	if maxTerms <= 0 {
		return []pitch.Keyword{}
	}

	type entry struct {
		term  string
		count int
		first int
	}

	counts := map[string]*entry{}
	total := 0
	for _, tok := range Tokenize(text) {
		if utf8.RuneCountInString(tok) < MinTermLength || IsStopWord(tok) {
			continue
		}
		e, ok := counts[tok]
		if !ok {
			e = &entry{term: tok, first: total}
			counts[tok] = e
		}
		e.count++
		total++
	}
	if total == 0 {
		return []pitch.Keyword{}
	}

	entries := make([]*entry, 0, len(counts))
	for _, e := range counts {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].first < entries[j].first
	})

	if len(entries) > maxTerms {
		entries = entries[:maxTerms]
	}
	out := make([]pitch.Keyword, len(entries))
	for i, e := range entries {
		out[i] = pitch.Keyword{Term: e.term, Score: float64(e.count) / float64(total)}
	}
	return out
}

// RankedKeywords turns an ordered term list (most relevant first) into keywords
// with linearly decreasing relevance in (0,1]. Terms are normalised and
// de-duplicated; empty terms are dropped.
func RankedKeywords(terms []string, maxTerms int) []pitch.Keyword {
	seen := make(map[string]struct{}, len(terms))
	cleaned := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	if maxTerms > 0 && len(cleaned) > maxTerms {
		cleaned = cleaned[:maxTerms]
	}

	out := make([]pitch.Keyword, len(cleaned))
	n := float64(len(cleaned))
	for i, t := range cleaned {
		out[i] = pitch.Keyword{Term: t, Score: (n - float64(i)) / n}
	}
	return out
}
