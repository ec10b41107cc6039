package transcription

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/pitchlens/internal/domain/ai"
)

const providerWhisper = "whisper"

// MediaOpener streams stored media.
type MediaOpener interface {
	Open(ctx context.Context, raw string) (io.ReadCloser, string, error)
}

// AudioAPI is the subset of the go-openai client used here.
type AudioAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// WhisperTranscriber runs synchronous Whisper calls in the background and
// exposes them through the same submit/poll contract as job-based providers.
// Jobs are in-process only and vanish on restart; the stale sweep then fails
// the affected pitches.
type WhisperTranscriber struct {
	api   AudioAPI
	media MediaOpener
	model string
	log   zerolog.Logger

	mu   sync.Mutex
	jobs map[string]ai.TranscriptionJob
}

func NewWhisperTranscriber(api AudioAPI, media MediaOpener, model string, log zerolog.Logger) *WhisperTranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{
		api:   api,
		media: media,
		model: model,
		log:   log.With().Str("component", "whisper").Logger(),
		jobs:  map[string]ai.TranscriptionJob{},
	}
}

// Submit starts the job; it stops when ctx is cancelled.
func (w *WhisperTranscriber) Submit(ctx context.Context, req ai.TranscriptionRequest) (string, error) {
	id := uuid.NewString()
	w.set(ai.TranscriptionJob{ID: id, Status: ai.JobQueued})
	go w.run(ctx, id, req)
	return id, nil
}

func (w *WhisperTranscriber) Poll(_ context.Context, jobID string) (ai.TranscriptionJob, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	job, ok := w.jobs[jobID]
	if !ok {
		return ai.TranscriptionJob{}, ai.NewProviderError(providerWhisper, ai.KindError, "unknown job "+jobID, nil)
	}
	if job.Status.Terminal() {
		delete(w.jobs, jobID)
	}
	return job, nil
}

func (w *WhisperTranscriber) run(ctx context.Context, id string, req ai.TranscriptionRequest) {
	w.set(ai.TranscriptionJob{ID: id, Status: ai.JobProcessing})

	rc, name, err := w.media.Open(ctx, req.MediaURL)
	if err != nil {
		w.log.Warn().Str("job_id", id).Err(err).Msg("open media failed")
		w.finish(ctx, ai.TranscriptionJob{ID: id, Status: ai.JobError, Message: err.Error()})
		return
	}
	defer rc.Close()

	resp, err := w.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: name,
		Reader:   rc,
		Language: req.LanguageHint,
	})
	if err != nil {
		w.log.Warn().Str("job_id", id).Err(err).Msg("whisper transcription failed")
		w.finish(ctx, ai.TranscriptionJob{ID: id, Status: ai.JobError, Message: err.Error()})
		return
	}
	w.finish(ctx, ai.TranscriptionJob{ID: id, Status: ai.JobDone, Text: resp.Text})
}

// finish stores a terminal job, or drops it when nobody is polling any more.
func (w *WhisperTranscriber) finish(ctx context.Context, job ai.TranscriptionJob) {
	if ctx.Err() != nil {
		w.mu.Lock()
		delete(w.jobs, job.ID)
		w.mu.Unlock()
		return
	}
	w.set(job)
}

func (w *WhisperTranscriber) set(job ai.TranscriptionJob) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.jobs[job.ID] = job
}
