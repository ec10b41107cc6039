package analysiserrors

import "time"

// Phase of the pipeline in which the problem happened
type Phase string

const (
	PhaseTranscription Phase = "transcription"
	PhaseContent       Phase = "content_analysis"
	PhaseEmbedding     Phase = "embedding"
	PhaseMatching      Phase = "matching"
	PhasePersist       Phase = "persist"
)

// AnalysisError represents a persisted pipeline problem entry. Entries for
// content/embedding phases record a degradation, not a failed run.
type AnalysisError struct {
	ID          int64     `json:"id"`
	PitchID     string    `json:"pitch_id"`
	Phase       Phase     `json:"phase"`
	Provider    string    `json:"provider,omitempty"`
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
