package analysis

import "time"

// Config holds every pipeline knob; nothing is read from globals.
type Config struct {
	// PollInterval between transcription status checks.
	PollInterval time.Duration
	// MaxPolls bounds the number of status checks per job.
	MaxPolls int
	// Timeout is the hard cap on transcription, submit included.
	Timeout time.Duration
	// RequestTimeout caps each content-analysis and embedding call; a slow
	// provider degrades the run like any other provider failure.
	RequestTimeout time.Duration
	// EmbeddingDimension expected from the embedder and used for fallback vectors.
	EmbeddingDimension int
	MaxKeywords        int
	LanguageHint       string
	FallbackSummary    string
	FallbackQuality    float64
	// RelatedLimit / RelatedMinScore drive the related_ids cache.
	RelatedLimit    int
	RelatedMinScore float64
	// CandidateLimit caps how many complete pitches are loaded for matching.
	CandidateLimit int
}

// DefaultConfig mirrors the provider contract: 5s polls, 60 polls, 5 minutes.
func DefaultConfig() Config {
	return Config{
		PollInterval:       5 * time.Second,
		MaxPolls:           60,
		Timeout:            5 * time.Minute,
		RequestTimeout:     60 * time.Second,
		EmbeddingDimension: 1536,
		MaxKeywords:        10,
		FallbackSummary:    "Automatic analysis unavailable.",
		FallbackQuality:    50,
		RelatedLimit:       5,
		RelatedMinScore:    0.2,
		CandidateLimit:     1000,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.MaxPolls <= 0 {
		c.MaxPolls = d.MaxPolls
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.EmbeddingDimension <= 0 {
		c.EmbeddingDimension = d.EmbeddingDimension
	}
	if c.MaxKeywords <= 0 {
		c.MaxKeywords = d.MaxKeywords
	}
	if c.FallbackSummary == "" {
		c.FallbackSummary = d.FallbackSummary
	}
	if c.FallbackQuality <= 0 {
		c.FallbackQuality = d.FallbackQuality
	}
	if c.RelatedLimit <= 0 {
		c.RelatedLimit = d.RelatedLimit
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = d.CandidateLimit
	}
	return c
}
