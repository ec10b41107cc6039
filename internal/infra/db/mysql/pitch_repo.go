package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
)

type PitchRepository struct {
	db *sql.DB
}

func NewPitchRepository(db *sql.DB) *PitchRepository {
	return &PitchRepository{db: db}
}

// Get by ID
func (r *PitchRepository) Get(ctx context.Context, id pitch.ID) (*pitch.Pitch, error) {
	q := `SELECT ` + pitchColumns + ` FROM pitches WHERE id=? LIMIT 1;`
	var row pitchRow
	if err := r.db.QueryRowContext(ctx, q, id).Scan(row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pitch.ErrNotFound
		}
		return nil, err
	}
	return row.pitch()
}

// List pitches matching the filter, ordered by id
func (r *PitchRepository) List(ctx context.Context, f pitch.ListFilter) ([]*pitch.Pitch, error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "analysis_status=?")
		args = append(args, f.Status)
	}
	if f.Theme != "" {
		where = append(where, "theme=?")
		args = append(args, f.Theme)
	}
	if f.OwnerID != "" {
		where = append(where, "owner_id=?")
		args = append(args, f.OwnerID)
	}
	if f.ExcludeOwnerID != "" {
		where = append(where, "owner_id<>?")
		args = append(args, f.ExcludeOwnerID)
	}

	q := `SELECT ` + pitchColumns + ` FROM pitches`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*pitch.Pitch{}
	for rows.Next() {
		var row pitchRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, err
		}
		p, err := row.pitch()
		if err != nil {
			return nil, fmt.Errorf("decode pitch: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TransitionStatus compare-and-set on analysis_status
func (r *PitchRepository) TransitionStatus(ctx context.Context, id pitch.ID, from, to pitch.Status, at time.Time) error {
	if !pitch.CanTransition(from, to) {
		return pitch.ErrInvalidTransition
	}
	const q = `UPDATE pitches SET analysis_status=?, status_changed_at=? WHERE id=? AND analysis_status=?;`
	res, err := r.db.ExecContext(ctx, q, to, utc(at), id, from)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, id)
}

// SaveAnalysis simpan semua field hasil analisis dan set status complete
func (r *PitchRepository) SaveAnalysis(ctx context.Context, id pitch.ID, a pitch.AnalysisResult, at time.Time) error {
	const q = `
UPDATE pitches SET
 transcript=?, keywords=?, embedding=?, embedding_is_fallback=?, sentiment=?,
 quality_score=?, summary=?, related_ids=?, analysis_degraded=?,
 analyzed_at=?, analysis_status=?, status_changed_at=?
WHERE id=? AND analysis_status=?;
`
	keywords, err := jsonOrNull(nonNil(a.Keywords))
	if err != nil {
		return err
	}
	embedding, err := jsonOrNull(a.Embedding)
	if err != nil {
		return err
	}
	related, err := jsonOrNull(nonNil(a.RelatedIDs))
	if err != nil {
		return err
	}
	sentiment, err := json.Marshal(a.Sentiment)
	if err != nil {
		return err
	}

	now := utc(at)
	res, err := r.db.ExecContext(ctx, q,
		a.Transcript, keywords, embedding, a.EmbeddingFallback, string(sentiment),
		a.QualityScore, a.Summary, related, a.Degraded,
		now, pitch.StatusComplete, now,
		id, pitch.StatusInProgress,
	)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, id)
}

// MarkFailed set status failed, hanya analyzed_at yang diisi
func (r *PitchRepository) MarkFailed(ctx context.Context, id pitch.ID, at time.Time) error {
	const q = `UPDATE pitches SET analysis_status=?, analyzed_at=?, status_changed_at=? WHERE id=? AND analysis_status=?;`
	now := utc(at)
	res, err := r.db.ExecContext(ctx, q, pitch.StatusFailed, now, now, id, pitch.StatusInProgress)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, id)
}

func (r *PitchRepository) UpdateRelated(ctx context.Context, id pitch.ID, related []pitch.ID) error {
	ids, err := jsonOrNull(nonNil(related))
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE pitches SET related_ids=? WHERE id=?;`, ids, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 when the value did not change; tell that apart from a missing row
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// FailStale tutup in_progress yang tertinggal (worker mati / restart)
func (r *PitchRepository) FailStale(ctx context.Context, cutoff, at time.Time) (int64, error) {
	const q = `
UPDATE pitches SET analysis_status=?, analyzed_at=?, status_changed_at=?
WHERE analysis_status=? AND status_changed_at < ?;
`
	now := utc(at)
	res, err := r.db.ExecContext(ctx, q, pitch.StatusFailed, now, now, pitch.StatusInProgress, utc(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// checkAffected maps a zero-row conditional update to NotFound or InvalidTransition.
func (r *PitchRepository) checkAffected(ctx context.Context, res sql.Result, id pitch.ID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM pitches WHERE id=? LIMIT 1;`, id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return pitch.ErrNotFound
	case err != nil:
		return err
	}
	return pitch.ErrInvalidTransition
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
