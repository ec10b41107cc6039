package mysql

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// jsonOrNull encodes v, mapping nil slices to SQL NULL.
func jsonOrNull[T any](v []T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// pitchRow holds the nullable columns of one pitches row.
type pitchRow struct {
	p          pitch.Pitch
	transcript sql.NullString
	keywords   []byte
	embedding  []byte
	sentiment  []byte
	quality    sql.NullFloat64
	summary    sql.NullString
	related    []byte
	analyzedAt sql.NullTime
}

const pitchColumns = `id, owner_id, media_url, theme, analysis_status,
       transcript, keywords, embedding, embedding_is_fallback, sentiment,
       quality_score, summary, related_ids, analysis_degraded, analyzed_at, status_changed_at`

func (r *pitchRow) dest() []any {
	return []any{
		&r.p.ID, &r.p.OwnerID, &r.p.MediaURL, &r.p.Theme, &r.p.Status,
		&r.transcript, &r.keywords, &r.embedding, &r.p.EmbeddingFallback, &r.sentiment,
		&r.quality, &r.summary, &r.related, &r.p.AnalysisDegraded, &r.analyzedAt, &r.p.StatusChangedAt,
	}
}

func (r *pitchRow) pitch() (*pitch.Pitch, error) {
	p := r.p
	if r.transcript.Valid {
		p.Transcript = &r.transcript.String
	}
	if r.summary.Valid {
		p.Summary = &r.summary.String
	}
	if r.quality.Valid {
		p.QualityScore = &r.quality.Float64
	}
	if r.analyzedAt.Valid {
		t := r.analyzedAt.Time.UTC()
		p.AnalyzedAt = &t
	}
	if len(r.keywords) > 0 {
		if err := json.Unmarshal(r.keywords, &p.Keywords); err != nil {
			return nil, err
		}
	}
	if len(r.embedding) > 0 {
		if err := json.Unmarshal(r.embedding, &p.Embedding); err != nil {
			return nil, err
		}
	}
	if len(r.sentiment) > 0 {
		var s pitch.Sentiment
		if err := json.Unmarshal(r.sentiment, &s); err != nil {
			return nil, err
		}
		p.Sentiment = &s
	}
	if len(r.related) > 0 {
		if err := json.Unmarshal(r.related, &p.RelatedIDs); err != nil {
			return nil, err
		}
	}
	p.StatusChangedAt = p.StatusChangedAt.UTC()
	return &p, nil
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
