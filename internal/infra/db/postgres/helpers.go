package postgres

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

const pitchColumns = `id, owner_id, media_url, theme, analysis_status,
       transcript, keywords, embedding, embedding_is_fallback, sentiment,
       quality_score, summary, related_ids, analysis_degraded, analyzed_at, status_changed_at`

type pitchRow struct {
	p          pitch.Pitch
	transcript sql.NullString
	keywords   []byte
	embedding  *pgvector.Vector
	sentiment  []byte
	quality    sql.NullFloat64
	summary    sql.NullString
	related    pq.StringArray
	analyzedAt sql.NullTime
}

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
	if r.embedding != nil {
		p.Embedding = r.embedding.Slice()
	}
	if len(r.keywords) > 0 {
		if err := json.Unmarshal(r.keywords, &p.Keywords); err != nil {
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
	if r.related != nil {
		p.RelatedIDs = make([]pitch.ID, len(r.related))
		for i, id := range r.related {
			p.RelatedIDs[i] = pitch.ID(id)
		}
	}
	p.StatusChangedAt = p.StatusChangedAt.UTC()
	return &p, nil
}

// vectorOrNull maps an empty embedding to SQL NULL.
func vectorOrNull(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return pgvector.NewVector(v)
}

func idArray(ids []pitch.ID) any {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return pq.Array(out)
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
