package breaker

import (
	"context"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/bryanwahyu/pitchlens/internal/domain/ai"
)

// Analyzer guards an ai.ContentAnalyzer.
type Analyzer struct {
	next ai.ContentAnalyzer
	cb   *gobreaker.CircuitBreaker[ai.ContentAnalysis]
	name string
}

func NewAnalyzer(name string, next ai.ContentAnalyzer, s Settings, log zerolog.Logger) *Analyzer {
	return &Analyzer{next: next, cb: newBreaker[ai.ContentAnalysis](name, s, log), name: name}
}

func (a *Analyzer) AnalyzeContent(ctx context.Context, text string) (ai.ContentAnalysis, error) {
	res, err := a.cb.Execute(func() (ai.ContentAnalysis, error) {
		return a.next.AnalyzeContent(ctx, text)
	})
	return res, rejected(a.name, err)
}

// Embedder guards an ai.Embedder.
type Embedder struct {
	next ai.Embedder
	cb   *gobreaker.CircuitBreaker[[]float32]
	name string
}

func NewEmbedder(name string, next ai.Embedder, s Settings, log zerolog.Logger) *Embedder {
	return &Embedder{next: next, cb: newBreaker[[]float32](name, s, log), name: name}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.cb.Execute(func() ([]float32, error) {
		return e.next.Embed(ctx, text)
	})
	return vec, rejected(e.name, err)
}

func (e *Embedder) Dimension() int { return e.next.Dimension() }

// Transcriber guards Submit only. Poll failures inside one job are the
// pipeline's concern and must not lock out unrelated jobs.
type Transcriber struct {
	next ai.Transcriber
	cb   *gobreaker.CircuitBreaker[string]
	name string
}

func NewTranscriber(name string, next ai.Transcriber, s Settings, log zerolog.Logger) *Transcriber {
	return &Transcriber{next: next, cb: newBreaker[string](name, s, log), name: name}
}

func (t *Transcriber) Submit(ctx context.Context, req ai.TranscriptionRequest) (string, error) {
	id, err := t.cb.Execute(func() (string, error) {
		return t.next.Submit(ctx, req)
	})
	return id, rejected(t.name, err)
}

func (t *Transcriber) Poll(ctx context.Context, jobID string) (ai.TranscriptionJob, error) {
	return t.next.Poll(ctx, jobID)
}
