package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bryanwahyu/pitchlens/internal/domain/analysiserrors"
)

// AnalysisErrorRepository keeps journal entries in memory.
type AnalysisErrorRepository struct {
	mu      sync.Mutex
	nextID  int64
	entries []*analysiserrors.AnalysisError
}

func NewAnalysisErrorRepository() *AnalysisErrorRepository {
	return &AnalysisErrorRepository{}
}

func (r *AnalysisErrorRepository) Save(_ context.Context, e *analysiserrors.AnalysisError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *AnalysisErrorRepository) ListByPitch(_ context.Context, pitchID string, limit int) ([]*analysiserrors.AnalysisError, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*analysiserrors.AnalysisError{}
	for _, e := range r.entries {
		if e.PitchID == pitchID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
