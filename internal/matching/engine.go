// Package matching ranks analyzed pitches against a source pitch, either by
// keyword overlap (similar projects), by compatibility (collaborators) or by
// embedding cosine similarity.
package matching

import (
	"fmt"
	"sort"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
	"github.com/bryanwahyu/pitchlens/internal/similarity"
)

const (
	DefaultLimit    = 10
	DefaultMinScore = 0.2
	MaxLimit        = 100

	overlapWeight = 0.6
	noveltyWeight = 0.4
)

// Options for FindSimilar, FindComplementary and FindSimilarByEmbedding.
// Scores must be strictly greater than MinScore to be kept.
type Options struct {
	Limit    int
	MinScore float64
	Theme    pitch.Theme
	// ExcludeOwnerID drops candidates of this owner.
	ExcludeOwnerID string
	// AllowFallback admits lexical fallback vectors in the embedding path.
	AllowFallback bool
}

// DefaultOptions returns the limit/threshold used when a caller gives none.
func DefaultOptions() Options {
	return Options{Limit: DefaultLimit, MinScore: DefaultMinScore}
}

func (o Options) limit() int {
	switch {
	case o.Limit <= 0:
		return DefaultLimit
	case o.Limit > MaxLimit:
		return MaxLimit
	}
	return o.Limit
}

// Match is one ranked candidate.
type Match struct {
	PitchID        pitch.ID    `json:"pitch_id"`
	OwnerID        string      `json:"owner_id"`
	Theme          pitch.Theme `json:"theme"`
	Score          float64     `json:"score"`
	SharedKeywords []string    `json:"shared_keywords"`
	NovelKeywords  []string    `json:"novel_keywords,omitempty"`
}

// FindSimilar ranks pool by KeywordOverlap with src.
func FindSimilar(src *pitch.Pitch, pool []*pitch.Pitch, opts Options) []Match {
	out := []Match{}
	for _, m := range Score(src, pool, opts) {
		if m.Score > opts.MinScore {
			out = append(out, m)
		}
	}
	return rank(out, opts.limit())
}

// Score computes the keyword overlap of src with every eligible candidate,
// without threshold, ordering or limit.
func Score(src *pitch.Pitch, pool []*pitch.Pitch, opts Options) []Match {
	srcTerms := src.Terms()
	cs := candidates(src, pool, opts)
	out := make([]Match, 0, len(cs))
	for _, c := range cs {
		terms := c.Terms()
		out = append(out, Match{
			PitchID:        c.ID,
			OwnerID:        c.OwnerID,
			Theme:          c.Theme,
			Score:          similarity.KeywordOverlap(srcTerms, terms),
			SharedKeywords: similarity.Shared(srcTerms, terms),
		})
	}
	return out
}

// ComputeCompatibility scores how well b complements a:
// 0.6 * overlap(a, b) + 0.4 * (share of b's keywords that a lacks).
// Both pitches must be complete.
func ComputeCompatibility(a, b *pitch.Pitch) (float64, error) {
	if !a.Analyzed() {
		return 0, fmt.Errorf("pitch %s: %w", idOf(a), pitch.ErrNotAnalyzed)
	}
	if !b.Analyzed() {
		return 0, fmt.Errorf("pitch %s: %w", idOf(b), pitch.ErrNotAnalyzed)
	}
	score, _, _ := compatibility(a.Terms(), b.Terms())
	return score, nil
}

// FindComplementary ranks pool by compatibility with src. Candidates sharing no
// keyword with src are skipped: novelty alone is not a collaboration signal.
func FindComplementary(src *pitch.Pitch, pool []*pitch.Pitch, opts Options) []Match {
	srcTerms := src.Terms()
	out := []Match{}
	for _, c := range candidates(src, pool, opts) {
		score, shared, novel := compatibility(srcTerms, c.Terms())
		if len(shared) == 0 || score <= opts.MinScore {
			continue
		}
		out = append(out, Match{
			PitchID:        c.ID,
			OwnerID:        c.OwnerID,
			Theme:          c.Theme,
			Score:          score,
			SharedKeywords: shared,
			NovelKeywords:  novel,
		})
	}
	return rank(out, opts.limit())
}

// FindSimilarByEmbedding ranks pool by cosine similarity of embeddings.
// Candidates without a vector are skipped; fallback vectors only count when
// opts.AllowFallback is set. A dimension mismatch aborts the whole ranking.
func FindSimilarByEmbedding(src *pitch.Pitch, pool []*pitch.Pitch, opts Options) ([]Match, error) {
	if !src.HasEmbedding() || (src.EmbeddingFallback && !opts.AllowFallback) {
		return nil, fmt.Errorf("pitch %s has no usable embedding: %w", idOf(src), pitch.ErrNotAnalyzed)
	}
	srcTerms := src.Terms()
	out := []Match{}
	for _, c := range candidates(src, pool, opts) {
		if !c.HasEmbedding() || (c.EmbeddingFallback && !opts.AllowFallback) {
			continue
		}
		score, err := similarity.Cosine(src.Embedding, c.Embedding)
		if err != nil {
			return nil, fmt.Errorf("compare %s with %s: %w", src.ID, c.ID, err)
		}
		if score <= opts.MinScore {
			continue
		}
		out = append(out, Match{
			PitchID:        c.ID,
			OwnerID:        c.OwnerID,
			Theme:          c.Theme,
			Score:          score,
			SharedKeywords: similarity.Shared(srcTerms, c.Terms()),
		})
	}
	return rank(out, opts.limit()), nil
}

func compatibility(a, b []string) (score float64, shared, novel []string) {
	shared = similarity.Shared(a, b)
	novel = similarity.Novel(a, b)
	overlap := similarity.KeywordOverlap(a, b)

	var uniqueness float64
	if total := len(similarity.Normalize(b)); total > 0 {
		uniqueness = float64(len(novel)) / float64(total)
	}
	return overlapWeight*overlap + noveltyWeight*uniqueness, shared, novel
}

// candidates keeps complete pitches other than src that pass the option filters.
func candidates(src *pitch.Pitch, pool []*pitch.Pitch, opts Options) []*pitch.Pitch {
	out := make([]*pitch.Pitch, 0, len(pool))
	for _, c := range pool {
		if c == nil || !c.Analyzed() {
			continue
		}
		if src != nil && c.ID == src.ID {
			continue
		}
		if opts.Theme != "" && c.Theme != opts.Theme {
			continue
		}
		if opts.ExcludeOwnerID != "" && c.OwnerID == opts.ExcludeOwnerID {
			continue
		}
		out = append(out, c)
	}
	return out
}

func rank(ms []Match, limit int) []Match {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Score != ms[j].Score {
			return ms[i].Score > ms[j].Score
		}
		return ms[i].PitchID < ms[j].PitchID
	})
	if len(ms) > limit {
		ms = ms[:limit]
	}
	return ms
}

func idOf(p *pitch.Pitch) pitch.ID {
	if p == nil {
		return ""
	}
	return p.ID
}
