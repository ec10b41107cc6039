package pitch

import (
	"context"
	"time"
)

// ListFilter narrows candidate scans over the store.
type ListFilter struct {
	Status  Status
	Theme   Theme
	OwnerID string
	// ExcludeOwnerID drops pitches of one owner (e.g. the requester).
	ExcludeOwnerID string
	Limit          int
}

// Repository port (the video store). The pipeline only writes through
// TransitionStatus, SaveAnalysis and MarkFailed, always for a single pitch.
type Repository interface {
	Get(ctx context.Context, id ID) (*Pitch, error)
	List(ctx context.Context, f ListFilter) ([]*Pitch, error)

	// TransitionStatus is a compare-and-set on the status column; it returns
	// ErrInvalidTransition when the stored status is not from.
	TransitionStatus(ctx context.Context, id ID, from, to Status, at time.Time) error
	// SaveAnalysis persists every enrichment field and moves in_progress -> complete.
	SaveAnalysis(ctx context.Context, id ID, res AnalysisResult, at time.Time) error
	// MarkFailed moves in_progress -> failed and records analyzed_at only.
	MarkFailed(ctx context.Context, id ID, at time.Time) error
	// UpdateRelated refreshes the related_ids cache.
	UpdateRelated(ctx context.Context, id ID, related []ID) error
	// FailStale moves in_progress pitches whose status changed before cutoff to failed.
	FailStale(ctx context.Context, cutoff, at time.Time) (int64, error)
}

// VectorSearcher is implemented by stores that can pre-rank complete pitches
// by embedding distance (e.g. pgvector). Results still go through exact scoring.
type VectorSearcher interface {
	NearestByEmbedding(ctx context.Context, vec []float32, exclude ID, allowFallback bool, limit int) ([]*Pitch, error)
}
