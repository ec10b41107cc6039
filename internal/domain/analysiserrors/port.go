package analysiserrors

import (
	"context"
)

// Repository defines persistence for analysis errors
type Repository interface {
	Save(ctx context.Context, e *AnalysisError) error
	ListByPitch(ctx context.Context, pitchID string, limit int) ([]*AnalysisError, error)
}
