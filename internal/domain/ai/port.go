package ai

import "context"

// JobState of an asynchronous transcription job.
type JobState string

const (
	JobQueued     JobState = "queued"
	JobProcessing JobState = "processing"
	JobDone       JobState = "done"
	JobError      JobState = "error"
)

// Terminal reports whether the job left queued/processing.
func (s JobState) Terminal() bool {
	return s == JobDone || s == JobError
}

// TranscriptionRequest is submitted to a transcription provider.
type TranscriptionRequest struct {
	MediaURL     string `json:"media_url"`
	LanguageHint string `json:"language_hint,omitempty"`
}

// TranscriptionJob is the poll result: either done with Text, error with Message, or still running.
type TranscriptionJob struct {
	ID      string   `json:"id"`
	Status  JobState `json:"status"`
	Text    string   `json:"text,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Transcriber starts jobs and reports their state.
type Transcriber interface {
	Submit(ctx context.Context, req TranscriptionRequest) (string, error)
	Poll(ctx context.Context, jobID string) (TranscriptionJob, error)
}

// ContentAnalysis is the parsed, validated content-analysis payload.
type ContentAnalysis struct {
	Keywords     []string  `json:"keywords"`
	QualityScore float64   `json:"quality_score"`
	Sentiment    Sentiment `json:"sentiment"`
	Summary      string    `json:"summary"`
}

// Sentiment as reported by the provider.
type Sentiment struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// ContentAnalyzer returns a ContentAnalysis or a *ProviderError.
type ContentAnalyzer interface {
	AnalyzeContent(ctx context.Context, text string) (ContentAnalysis, error)
}

// Embedder produces fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
