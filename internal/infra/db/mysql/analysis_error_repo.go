package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/bryanwahyu/pitchlens/internal/domain/analysiserrors"
)

type AnalysisErrorRepository struct {
	db *sql.DB
}

func NewAnalysisErrorRepository(db *sql.DB) *AnalysisErrorRepository {
	return &AnalysisErrorRepository{db: db}
}

func (r *AnalysisErrorRepository) Save(ctx context.Context, e *domain.AnalysisError) error {
	const q = `
INSERT INTO analysis_errors
  (pitch_id, phase, provider, message, details_json, created_at)
VALUES (?,?,?,?,?,?)
`
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := r.db.ExecContext(ctx, q,
		stringOrDash(e.PitchID), stringOrDash(string(e.Phase)), stringOrDash(e.Provider),
		msg, detailsJSON(e.DetailsJSON), created.UTC())
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

func (r *AnalysisErrorRepository) ListByPitch(ctx context.Context, pitchID string, limit int) ([]*domain.AnalysisError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, pitch_id, phase, provider, message, details_json, created_at
FROM analysis_errors
WHERE pitch_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
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

// detailsJSON ensures valid json; if invalid, wrap as string field
func detailsJSON(details string) string {
	if strings.TrimSpace(details) == "" {
		return "{}"
	}
	var js any
	if json.Unmarshal([]byte(details), &js) != nil {
		b, _ := json.Marshal(map[string]string{"raw": details})
		return string(b)
	}
	return details
}
