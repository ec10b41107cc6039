package pitch

import (
	"time"
)

// ID tipe untuk Pitch
type ID string

// Status enum for the analysis lifecycle
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the analysis state machine allows from -> to.
// failed -> pending is only legal through an explicit retry.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusInProgress
	case StatusInProgress:
		return to == StatusComplete || to == StatusFailed
	case StatusFailed:
		return to == StatusPending
	}
	return false
}

// Theme enum (closed vocabulary)
type Theme string

const (
	ThemeTechnology     Theme = "technology"
	ThemeHealth         Theme = "health"
	ThemeEducation      Theme = "education"
	ThemeFinance        Theme = "finance"
	ThemeSustainability Theme = "sustainability"
	ThemeSocialImpact   Theme = "social_impact"
	ThemeEntertainment  Theme = "entertainment"
	ThemeOther          Theme = "other"
)

var themes = map[Theme]struct{}{
	ThemeTechnology:     {},
	ThemeHealth:         {},
	ThemeEducation:      {},
	ThemeFinance:        {},
	ThemeSustainability: {},
	ThemeSocialImpact:   {},
	ThemeEntertainment:  {},
	ThemeOther:          {},
}

// Valid reports whether t belongs to the theme vocabulary.
func (t Theme) Valid() bool {
	_, ok := themes[t]
	return ok
}

// Keyword value object: a term with its relevance in [0,1]
type Keyword struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// Sentiment value object; the three scores sum to 1.
type Sentiment struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// NeutralSentiment is used when no sentiment could be derived.
func NeutralSentiment() Sentiment {
	return Sentiment{Neutral: 1}
}

// Aggregate Root: Pitch
type Pitch struct {
	ID       ID     `json:"id"`
	OwnerID  string `json:"owner_id"`
	MediaURL string `json:"media_url"`
	Theme    Theme  `json:"theme"`
	Status   Status `json:"analysis_status"`

	Transcript   *string    `json:"transcript,omitempty"`
	Keywords     []Keyword  `json:"keywords"`
	Embedding    []float32  `json:"-"`
	Sentiment    *Sentiment `json:"sentiment,omitempty"`
	QualityScore *float64   `json:"quality_score,omitempty"`
	Summary      *string    `json:"summary,omitempty"`
	RelatedIDs   []ID       `json:"related_ids"`

	// EmbeddingFallback marks vectors produced by the lexical fallback; they carry no semantics.
	EmbeddingFallback bool `json:"embedding_is_fallback"`
	// AnalysisDegraded marks runs where content analysis fell back to lexical defaults.
	AnalysisDegraded bool `json:"analysis_degraded"`

	AnalyzedAt      *time.Time `json:"analyzed_at,omitempty"`
	StatusChangedAt time.Time  `json:"status_changed_at"`
}

// Analyzed reports whether the pitch reached complete.
func (p *Pitch) Analyzed() bool {
	return p != nil && p.Status == StatusComplete
}

// HasEmbedding reports whether the pitch carries a vector.
func (p *Pitch) HasEmbedding() bool {
	return p != nil && len(p.Embedding) > 0
}

// Terms returns the keyword terms in relevance order.
func (p *Pitch) Terms() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.Keywords))
	for i, k := range p.Keywords {
		out[i] = k.Term
	}
	return out
}

// AnalysisResult is the transient output of one pipeline run, merged into the Pitch on completion.
type AnalysisResult struct {
	Transcript        string
	Keywords          []Keyword
	Sentiment         Sentiment
	QualityScore      float64
	Summary           string
	Embedding         []float32
	EmbeddingFallback bool
	Degraded          bool
	RelatedIDs        []ID
}
