package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/bryanwahyu/pitchlens/internal/domain/analysiserrors"
)

type AnalysisErrorRepository struct{ db *sql.DB }

func NewAnalysisErrorRepository(db *sql.DB) *AnalysisErrorRepository {
	return &AnalysisErrorRepository{db: db}
}

func (r *AnalysisErrorRepository) Save(ctx context.Context, e *domain.AnalysisError) error {
	const q = `
INSERT INTO analysis_errors (pitch_id, phase, provider, message, details_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id;`
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	details := e.DetailsJSON
	if strings.TrimSpace(details) == "" || !json.Valid([]byte(details)) {
		b, _ := json.Marshal(map[string]string{"raw": details})
		details = string(b)
	}
	return r.db.QueryRowContext(ctx, q,
		stringOrDash(e.PitchID), stringOrDash(string(e.Phase)), stringOrDash(e.Provider),
		stringOrDash(e.Message), details, created.UTC(),
	).Scan(&e.ID)
}

func (r *AnalysisErrorRepository) ListByPitch(ctx context.Context, pitchID string, limit int) ([]*domain.AnalysisError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, pitch_id, phase, provider, message, details_json::text, created_at
FROM analysis_errors
WHERE pitch_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, pitchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*domain.AnalysisError{}
	for rows.Next() {
		var e domain.AnalysisError
		if err := rows.Scan(&e.ID, &e.PitchID, &e.Phase, &e.Provider, &e.Message, &e.DetailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
