package postgres

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

type PitchRepository struct{ db *sql.DB }

func NewPitchRepository(db *sql.DB) *PitchRepository { return &PitchRepository{db: db} }

// Get by ID
func (r *PitchRepository) Get(ctx context.Context, id pitch.ID) (*pitch.Pitch, error) {
	q := `SELECT ` + pitchColumns + ` FROM pitches WHERE id=$1 LIMIT 1;`
	var row pitchRow
	if err := r.db.QueryRowContext(ctx, q, id).Scan(row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pitch.ErrNotFound
		}
		return nil, err
	}
	return row.pitch()
}

func (r *PitchRepository) List(ctx context.Context, f pitch.ListFilter) ([]*pitch.Pitch, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("analysis_status=$%d", f.Status)
	}
	if f.Theme != "" {
		add("theme=$%d", f.Theme)
	}
	if f.OwnerID != "" {
		add("owner_id=$%d", f.OwnerID)
	}
	if f.ExcludeOwnerID != "" {
		add("owner_id<>$%d", f.ExcludeOwnerID)
	}

	q := `SELECT ` + pitchColumns + ` FROM pitches`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	return r.query(ctx, q, args...)
}

// NearestByEmbedding ranks complete pitches by cosine distance inside the database.
// Fallback vectors are excluded unless allowFallback is set.
func (r *PitchRepository) NearestByEmbedding(ctx context.Context, vec []float32, exclude pitch.ID, allowFallback bool, limit int) ([]*pitch.Pitch, error) {
	if len(vec) == 0 {
		return []*pitch.Pitch{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	q := `SELECT ` + pitchColumns + `
FROM pitches
WHERE analysis_status='complete' AND embedding IS NOT NULL AND id<>$2
  AND ($3 OR NOT embedding_is_fallback)
ORDER BY embedding <=> $1::vector, id
LIMIT $4;`
	return r.query(ctx, q, vectorOrNull(vec), exclude, allowFallback, limit)
}

func (r *PitchRepository) query(ctx context.Context, q string, args ...any) ([]*pitch.Pitch, error) {
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
	const q = `UPDATE pitches SET analysis_status=$1, status_changed_at=$2 WHERE id=$3 AND analysis_status=$4;`
	res, err := r.db.ExecContext(ctx, q, to, utc(at), id, from)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, id)
}

func (r *PitchRepository) SaveAnalysis(ctx context.Context, id pitch.ID, a pitch.AnalysisResult, at time.Time) error {
	const q = `
UPDATE pitches SET
 transcript=$1, keywords=$2, embedding=$3, embedding_is_fallback=$4, sentiment=$5,
 quality_score=$6, summary=$7, related_ids=$8, analysis_degraded=$9,
 analyzed_at=$10, analysis_status=$11, status_changed_at=$10
WHERE id=$12 AND analysis_status=$13;`

	keywords := a.Keywords
	if keywords == nil {
		keywords = []pitch.Keyword{}
	}
	kw, err := json.Marshal(keywords)
	if err != nil {
		return err
	}
	sentiment, err := json.Marshal(a.Sentiment)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, q,
		a.Transcript, string(kw), vectorOrNull(a.Embedding), a.EmbeddingFallback, string(sentiment),
		a.QualityScore, a.Summary, idArray(a.RelatedIDs), a.Degraded,
		utc(at), pitch.StatusComplete,
		id, pitch.StatusInProgress,
	)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, id)
}

func (r *PitchRepository) MarkFailed(ctx context.Context, id pitch.ID, at time.Time) error {
	const q = `UPDATE pitches SET analysis_status=$1, analyzed_at=$2, status_changed_at=$2 WHERE id=$3 AND analysis_status=$4;`
	res, err := r.db.ExecContext(ctx, q, pitch.StatusFailed, utc(at), id, pitch.StatusInProgress)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, id)
}

func (r *PitchRepository) UpdateRelated(ctx context.Context, id pitch.ID, related []pitch.ID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE pitches SET related_ids=$1 WHERE id=$2;`, idArray(related), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return pitch.ErrNotFound
	}
	return nil
}

// FailStale tutup in_progress yang tertinggal
func (r *PitchRepository) FailStale(ctx context.Context, cutoff, at time.Time) (int64, error) {
	const q = `
UPDATE pitches SET analysis_status=$1, analyzed_at=$2, status_changed_at=$2
WHERE analysis_status=$3 AND status_changed_at < $4;`
	res, err := r.db.ExecContext(ctx, q, pitch.StatusFailed, utc(at), pitch.StatusInProgress, utc(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PitchRepository) checkAffected(ctx context.Context, res sql.Result, id pitch.ID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM pitches WHERE id=$1;`, id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return pitch.ErrNotFound
	case err != nil:
		return err
	}
	return pitch.ErrInvalidTransition
}
