// Package similarity implements the two scoring primitives used for matching:
// cosine similarity over embeddings and substring-aware keyword overlap.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrDimensionMismatch is returned when two vectors of different length are compared.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Cosine returns the cosine similarity of a and b in [-1, 1]. It is 0 when
// either vector has zero norm.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// clamp float rounding
	return math.Max(-1, math.Min(1, s)), nil
}

// TermsMatch reports whether two terms match case-insensitively, either equal
// or one containing the other.
func TermsMatch(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// KeywordOverlap scores |intersection| / max(|a|, |b|) where a term of a is in
// the intersection when it matches any term of b (see TermsMatch). Inputs are
// lower-cased and de-duplicated first. Returns 0 when either set is empty.
func KeywordOverlap(a, b []string) float64 {
	a, b = Normalize(a), Normalize(b)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := len(Shared(a, b))
	return float64(shared) / float64(max(len(a), len(b)))
}

// Shared returns the terms of a that match some term of b, in a's order.
func Shared(a, b []string) []string {
	a, b = Normalize(a), Normalize(b)
	out := []string{}
	for _, x := range a {
		if containsMatch(b, x) {
			out = append(out, x)
		}
	}
	return out
}

// Novel returns the terms of b that match no term of a, in b's order.
func Novel(a, b []string) []string {
	a, b = Normalize(a), Normalize(b)
	out := []string{}
	for _, y := range b {
		if !containsMatch(a, y) {
			out = append(out, y)
		}
	}
	return out
}

func containsMatch(set []string, term string) bool {
	for _, s := range set {
		if TermsMatch(s, term) {
			return true
		}
	}
	return false
}

// Normalize lower-cases, trims and de-duplicates terms, keeping first occurrence order.
func Normalize(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
