// Package memory is an in-process store used by the "memory" database driver
// (local runs) and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
)

// PitchRepository implements pitch.Repository on a map guarded by a mutex.
type PitchRepository struct {
	mu      sync.RWMutex
	pitches map[pitch.ID]*pitch.Pitch
}

func NewPitchRepository() *PitchRepository {
	return &PitchRepository{pitches: map[pitch.ID]*pitch.Pitch{}}
}

// Put inserts or replaces a pitch (seeding).
func (r *PitchRepository) Put(p *pitch.Pitch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pitches[p.ID] = clone(p)
}

func (r *PitchRepository) Get(_ context.Context, id pitch.ID) (*pitch.Pitch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pitches[id]
	if !ok {
		return nil, pitch.ErrNotFound
	}
	return clone(p), nil
}

func (r *PitchRepository) List(_ context.Context, f pitch.ListFilter) ([]*pitch.Pitch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*pitch.Pitch{}
	for _, p := range r.pitches {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Theme != "" && p.Theme != f.Theme {
			continue
		}
		if f.OwnerID != "" && p.OwnerID != f.OwnerID {
			continue
		}
		if f.ExcludeOwnerID != "" && p.OwnerID == f.ExcludeOwnerID {
			continue
		}
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *PitchRepository) TransitionStatus(_ context.Context, id pitch.ID, from, to pitch.Status, at time.Time) error {
	if !pitch.CanTransition(from, to) {
		return pitch.ErrInvalidTransition
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pitches[id]
	if !ok {
		return pitch.ErrNotFound
	}
	if p.Status != from {
		return pitch.ErrInvalidTransition
	}
	p.Status = to
	p.StatusChangedAt = at
	return nil
}

func (r *PitchRepository) SaveAnalysis(_ context.Context, id pitch.ID, res pitch.AnalysisResult, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pitches[id]
	if !ok {
		return pitch.ErrNotFound
	}
	if p.Status != pitch.StatusInProgress {
		return pitch.ErrInvalidTransition
	}
	transcript, summary := res.Transcript, res.Summary
	sentiment, quality := res.Sentiment, res.QualityScore
	p.Transcript = &transcript
	p.Summary = &summary
	p.Sentiment = &sentiment
	p.QualityScore = &quality
	p.Keywords = append([]pitch.Keyword{}, res.Keywords...)
	p.Embedding = append([]float32(nil), res.Embedding...)
	p.EmbeddingFallback = res.EmbeddingFallback
	p.AnalysisDegraded = res.Degraded
	p.RelatedIDs = append([]pitch.ID{}, res.RelatedIDs...)
	p.AnalyzedAt = &at
	p.Status = pitch.StatusComplete
	p.StatusChangedAt = at
	return nil
}

func (r *PitchRepository) MarkFailed(_ context.Context, id pitch.ID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pitches[id]
	if !ok {
		return pitch.ErrNotFound
	}
	if p.Status != pitch.StatusInProgress {
		return pitch.ErrInvalidTransition
	}
	p.Status = pitch.StatusFailed
	p.AnalyzedAt = &at
	p.StatusChangedAt = at
	return nil
}

func (r *PitchRepository) UpdateRelated(_ context.Context, id pitch.ID, related []pitch.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pitches[id]
	if !ok {
		return pitch.ErrNotFound
	}
	p.RelatedIDs = append([]pitch.ID{}, related...)
	return nil
}

func (r *PitchRepository) FailStale(_ context.Context, cutoff, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.pitches {
		if p.Status == pitch.StatusInProgress && p.StatusChangedAt.Before(cutoff) {
			p.Status = pitch.StatusFailed
			p.AnalyzedAt = &at
			p.StatusChangedAt = at
			n++
		}
	}
	return n, nil
}

func clone(p *pitch.Pitch) *pitch.Pitch {
	c := *p
	c.Keywords = append([]pitch.Keyword(nil), p.Keywords...)
	c.Embedding = append([]float32(nil), p.Embedding...)
	c.RelatedIDs = append([]pitch.ID(nil), p.RelatedIDs...)
	return &c
}
