// Package analysis runs the pitch analysis pipeline:
// transcription -> content analysis -> embedding -> related pitches.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/pitchlens/internal/application"
	"github.com/bryanwahyu/pitchlens/internal/domain/ai"
	"github.com/bryanwahyu/pitchlens/internal/domain/analysiserrors"
	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
	"github.com/bryanwahyu/pitchlens/internal/lexical"
	"github.com/bryanwahyu/pitchlens/internal/matching"
	"github.com/bryanwahyu/pitchlens/internal/metrics"
)

const (
	providerTranscription = "transcription"
	providerContent       = "content_analysis"
	providerEmbedding     = "embedding"
)

// Service implements the analysis use-cases for Pitch.
// Safe for concurrent use; runs on different pitches are independent.
type Service struct {
	Repo        pitch.Repository
	Transcriber ai.Transcriber
	// Analyzer and Embedder are optional; nil means always use the lexical fallback.
	Analyzer ai.ContentAnalyzer
	Embedder ai.Embedder
	// Errors is an optional journal of provider problems.
	Errors analysiserrors.Repository
	Clock  application.Clock
	Log    zerolog.Logger
	Config Config
}

// Outcome summarises one Analyze call.
type Outcome struct {
	PitchID           pitch.ID     `json:"pitch_id"`
	Status            pitch.Status `json:"status"`
	Degraded          bool         `json:"degraded"`
	EmbeddingFallback bool         `json:"embedding_is_fallback"`
	RelatedCount      int          `json:"related_count"`
}

// Analyze runs the pipeline for one pending pitch. The pending -> in_progress
// compare-and-set acts as the lock: a concurrent second call gets
// ErrInvalidTransition and touches nothing. Once in_progress the run always
// ends in complete or failed; on failed the returned error holds the cause.
func (s *Service) Analyze(ctx context.Context, id pitch.ID) (out Outcome, err error) {
	cfg := s.Config.withDefaults()
	log := s.Log.With().Str("pitch_id", string(id)).Logger()
	out = Outcome{PitchID: id}

	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return out, err
	}
	if err := s.Repo.TransitionStatus(ctx, id, pitch.StatusPending, pitch.StatusInProgress, s.Clock.Now()); err != nil {
		metrics.PipelineRuns.WithLabelValues("skipped").Inc()
		return out, fmt.Errorf("start analysis of %s: %w", id, err)
	}
	out.Status = pitch.StatusInProgress

	started := time.Now()
	metrics.PipelineInFlight.Inc()
	defer func() {
		metrics.PipelineInFlight.Dec()
		metrics.RecordPipelineRun(string(out.Status), time.Since(started))
	}()

	// setelah in_progress, semua jalur harus berakhir di complete/failed
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("analysis panicked")
			err = fmt.Errorf("analysis of %s panicked: %v", id, r)
			out.Status = s.fail(ctx, id, analysiserrors.PhasePersist, "", err)
		}
	}()

	transcript, err := s.transcribe(ctx, cfg, p.MediaURL)
	if err != nil {
		log.Warn().Err(err).Msg("transcription failed")
		out.Status = s.fail(ctx, id, analysiserrors.PhaseTranscription, providerTranscription, err)
		return out, err
	}

	res, err := s.analyzeContent(ctx, cfg, id, transcript)
	if err == nil {
		err = s.embed(ctx, cfg, id, transcript, &res)
	}
	if err == nil {
		res.RelatedIDs = s.related(ctx, cfg, id, res.Keywords)
		err = interrupted(ctx, id)
	}
	if err != nil {
		// dibatalkan caller (shutdown), bukan kegagalan provider: jangan simpan hasil degraded
		log.Warn().Err(err).Msg("analysis interrupted")
		out.Status = s.fail(ctx, id, "", "", err)
		return out, err
	}

	out.Degraded = res.Degraded
	out.EmbeddingFallback = res.EmbeddingFallback
	out.RelatedCount = len(res.RelatedIDs)
	if res.Degraded {
		metrics.DegradedAnalyses.Inc()
	}
	if res.EmbeddingFallback {
		metrics.FallbackEmbeddings.Inc()
	}

	if err := s.Repo.SaveAnalysis(context.WithoutCancel(ctx), id, res, s.Clock.Now()); err != nil {
		if errors.Is(err, pitch.ErrInvalidTransition) {
			// stale sweep sudah menutup run ini
			log.Warn().Err(err).Msg("run superseded, pitch no longer in_progress")
			out.Status = pitch.StatusFailed
			return out, fmt.Errorf("save analysis of %s: %w", id, err)
		}
		log.Error().Err(err).Msg("saving analysis failed")
		out.Status = s.fail(ctx, id, analysiserrors.PhasePersist, "", err)
		return out, fmt.Errorf("save analysis of %s: %w", id, err)
	}

	log.Info().
		Bool("degraded", res.Degraded).
		Bool("embedding_fallback", res.EmbeddingFallback).
		Int("keywords", len(res.Keywords)).
		Int("related", len(res.RelatedIDs)).
		Dur("took", time.Since(started)).
		Msg("analysis complete")
	out.Status = pitch.StatusComplete
	return out, nil
}

// Retry moves a failed pitch back to pending. It is the only way out of failed.
func (s *Service) Retry(ctx context.Context, id pitch.ID) error {
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.TransitionStatus(ctx, id, pitch.StatusFailed, pitch.StatusPending, s.Clock.Now()); err != nil {
		return fmt.Errorf("retry %s: %w", id, err)
	}
	s.Log.Info().Str("pitch_id", string(id)).Msg("analysis retry requested")
	return nil
}

// Get returns one pitch.
func (s *Service) Get(ctx context.Context, id pitch.ID) (*pitch.Pitch, error) {
	return s.Repo.Get(ctx, id)
}

// History returns the journal entries of a pitch, newest first.
func (s *Service) History(ctx context.Context, id pitch.ID, limit int) ([]*analysiserrors.AnalysisError, error) {
	if s.Errors == nil {
		return []*analysiserrors.AnalysisError{}, nil
	}
	return s.Errors.ListByPitch(ctx, string(id), limit)
}

// transcribe submits the media and polls until done, error, MaxPolls or Timeout.
func (s *Service) transcribe(ctx context.Context, cfg Config, mediaURL string) (string, error) {
	if s.Transcriber == nil {
		return "", ai.NewProviderError(providerTranscription, ai.KindError, "no transcriber configured", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	begin := time.Now()
	jobID, err := s.Transcriber.Submit(ctx, ai.TranscriptionRequest{MediaURL: mediaURL, LanguageHint: cfg.LanguageHint})
	metrics.RecordProviderCall(providerTranscription, "submit", time.Since(begin), err)
	if err != nil {
		return "", asProviderError(ctx, providerTranscription, "submit", err)
	}

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for polls := 0; polls < cfg.MaxPolls; polls++ {
		select {
		case <-ctx.Done():
			return "", ai.NewProviderError(providerTranscription, ai.KindTimeout,
				fmt.Sprintf("job %s abandoned after %d polls", jobID, polls), ctx.Err())
		case <-ticker.C:
		}

		begin = time.Now()
		job, err := s.Transcriber.Poll(ctx, jobID)
		metrics.RecordProviderCall(providerTranscription, "poll", time.Since(begin), err)
		if err != nil {
			return "", asProviderError(ctx, providerTranscription, "poll "+jobID, err)
		}
		switch job.Status {
		case ai.JobDone:
			return job.Text, nil
		case ai.JobError:
			msg := job.Message
			if msg == "" {
				msg = "job " + jobID + " failed"
			}
			return "", ai.NewProviderError(providerTranscription, ai.KindError, msg, nil)
		}
	}
	return "", ai.NewProviderError(providerTranscription, ai.KindTimeout,
		fmt.Sprintf("job %s not done after %d polls", jobID, cfg.MaxPolls), nil)
}

// analyzeContent degrades any provider problem to lexical defaults. It only
// fails when the run itself was cancelled.
func (s *Service) analyzeContent(ctx context.Context, cfg Config, id pitch.ID, transcript string) (pitch.AnalysisResult, error) {
	res := pitch.AnalysisResult{Transcript: transcript}

	var cause error
	switch {
	case strings.TrimSpace(transcript) == "":
		cause = errors.New("empty transcript")
	case s.Analyzer == nil:
		cause = errors.New("no content analyzer configured")
	default:
		callCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		begin := time.Now()
		ca, err := s.Analyzer.AnalyzeContent(callCtx, transcript)
		if err != nil {
			err = asProviderError(callCtx, providerContent, "analyze", err)
		}
		cancel()
		metrics.RecordProviderCall(providerContent, "analyze", time.Since(begin), err)
		if err := interrupted(ctx, id); err != nil {
			return res, err
		}
		if err == nil {
			res.Keywords = lexical.RankedKeywords(ca.Keywords, cfg.MaxKeywords)
			res.Sentiment = pitch.Sentiment(ca.Sentiment)
			res.QualityScore = ca.QualityScore
			res.Summary = ca.Summary
			return res, nil
		}
		cause = err
		s.journal(ctx, id, analysiserrors.PhaseContent, providerContent, err)
	}

	s.Log.Warn().Str("pitch_id", string(id)).Err(cause).Msg("content analysis degraded to lexical fallback")
	res.Keywords = lexical.ExtractKeywords(transcript, cfg.MaxKeywords)
	res.Sentiment = pitch.NeutralSentiment()
	res.QualityScore = cfg.FallbackQuality
	res.Summary = cfg.FallbackSummary
	res.Degraded = true
	return res, nil
}

// embed fills res.Embedding, falling back to a flagged lexical vector. It only
// fails when the run itself was cancelled.
func (s *Service) embed(ctx context.Context, cfg Config, id pitch.ID, transcript string, res *pitch.AnalysisResult) error {
	if s.Embedder != nil && strings.TrimSpace(transcript) != "" {
		callCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		begin := time.Now()
		vec, err := s.Embedder.Embed(callCtx, transcript)
		switch {
		case err != nil:
			err = asProviderError(callCtx, providerEmbedding, "embed", err)
		case len(vec) != cfg.EmbeddingDimension:
			err = ai.NewProviderError(providerEmbedding, ai.KindMalformed,
				fmt.Sprintf("got %d dimensions, want %d", len(vec), cfg.EmbeddingDimension), nil)
		}
		cancel()
		metrics.RecordProviderCall(providerEmbedding, "embed", time.Since(begin), err)
		if err := interrupted(ctx, id); err != nil {
			return err
		}
		if err == nil {
			res.Embedding = vec
			return nil
		}
		s.Log.Warn().Str("pitch_id", string(id)).Err(err).Msg("embedding degraded to lexical fallback")
		s.journal(ctx, id, analysiserrors.PhaseEmbedding, providerEmbedding, err)
	}
	res.Embedding = lexical.FallbackEmbedding(transcript, cfg.EmbeddingDimension)
	res.EmbeddingFallback = true
	return nil
}

// interrupted reports a cancelled or expired run context.
func interrupted(ctx context.Context, id pitch.ID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("analysis of %s interrupted: %w", id, err)
	}
	return nil
}

// related is best effort; a failed lookup leaves the cache empty.
func (s *Service) related(ctx context.Context, cfg Config, id pitch.ID, kws []pitch.Keyword) []pitch.ID {
	out := []pitch.ID{}
	if len(kws) == 0 {
		return out
	}
	pool, err := s.Repo.List(ctx, pitch.ListFilter{Status: pitch.StatusComplete, Limit: cfg.CandidateLimit})
	if err != nil {
		s.Log.Warn().Str("pitch_id", string(id)).Err(err).Msg("related lookup failed")
		s.journal(ctx, id, analysiserrors.PhaseMatching, "", err)
		return out
	}
	src := &pitch.Pitch{ID: id, Keywords: kws}
	for _, m := range matching.FindSimilar(src, pool, matching.Options{Limit: cfg.RelatedLimit, MinScore: cfg.RelatedMinScore}) {
		out = append(out, m.PitchID)
	}
	return out
}

// fail records the cause (unless phase is empty) and moves the pitch to failed. It returns the status
// the pitch is left in as far as this run knows.
func (s *Service) fail(ctx context.Context, id pitch.ID, phase analysiserrors.Phase, provider string, cause error) pitch.Status {
	if phase != "" {
		s.journal(ctx, id, phase, provider, cause)
	}
	if err := s.Repo.MarkFailed(context.WithoutCancel(ctx), id, s.Clock.Now()); err != nil {
		if errors.Is(err, pitch.ErrInvalidTransition) {
			// sudah di-fail oleh stale sweep
			s.Log.Warn().Str("pitch_id", string(id)).Msg("pitch already left in_progress")
			return pitch.StatusFailed
		}
		s.Log.Error().Str("pitch_id", string(id)).Err(err).Msg("marking pitch failed")
		return pitch.StatusInProgress
	}
	return pitch.StatusFailed
}

// journal never changes the pipeline outcome; write errors are only logged.
func (s *Service) journal(ctx context.Context, id pitch.ID, phase analysiserrors.Phase, provider string, cause error) {
	if s.Errors == nil || cause == nil {
		return
	}
	entry := &analysiserrors.AnalysisError{
		PitchID:   string(id),
		Phase:     phase,
		Provider:  provider,
		Message:   cause.Error(),
		CreatedAt: s.Clock.Now(),
	}
	var pe *ai.ProviderError
	if errors.As(cause, &pe) {
		entry.Provider = pe.Provider
		if b, err := json.Marshal(map[string]string{"kind": string(pe.Kind), "detail": pe.Detail}); err == nil {
			entry.DetailsJSON = string(b)
		}
	}
	if err := s.Errors.Save(context.WithoutCancel(ctx), entry); err != nil {
		s.Log.Error().Str("pitch_id", string(id)).Err(err).Msg("saving analysis error entry")
	}
}

// asProviderError classifies a raw transport error; context expiry means timeout.
func asProviderError(ctx context.Context, provider, detail string, err error) error {
	var pe *ai.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ai.NewProviderError(provider, ai.KindTimeout, detail, err)
	}
	return ai.NewProviderError(provider, ai.KindError, detail, err)
}
