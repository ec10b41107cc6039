package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/pitchlens/internal/application"
	appanalysis "github.com/bryanwahyu/pitchlens/internal/application/analysis"
	appmatching "github.com/bryanwahyu/pitchlens/internal/application/matching"
	"github.com/bryanwahyu/pitchlens/internal/config"
	"github.com/bryanwahyu/pitchlens/internal/domain/ai"
	"github.com/bryanwahyu/pitchlens/internal/domain/analysiserrors"
	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
	"github.com/bryanwahyu/pitchlens/internal/infra/ai/breaker"
	openaiClient "github.com/bryanwahyu/pitchlens/internal/infra/ai/openai"
	"github.com/bryanwahyu/pitchlens/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/pitchlens/internal/infra/db/mysql"
	"github.com/bryanwahyu/pitchlens/internal/infra/db/postgres"
	"github.com/bryanwahyu/pitchlens/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/pitchlens/internal/infra/storage"
	"github.com/bryanwahyu/pitchlens/internal/infra/transcription"
	"github.com/bryanwahyu/pitchlens/internal/logging"
	"github.com/bryanwahyu/pitchlens/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]middleware.HealthChecker{}

	// store
	repo, journal, db, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("database connect error")
	}
	if db != nil {
		defer db.Close()
		checks["database"] = middleware.PingChecker{Target: db}
	}

	// init minio (optional kalau media sudah berupa URL publik)
	var store *minioStore.Store
	if cfg.Minio.Endpoint != "" {
		store, err = minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("minio init error")
		}
		checks["storage"] = middleware.CheckFunc(store.Ping)
	}

	analysisCfg := appanalysis.DefaultConfig()
	applyAnalysisConfig(&analysisCfg, cfg)

	// providers
	oai := openaiClient.NewClient(openaiClient.Config{
		APIKey:              cfg.OpenAI.APIKey,
		BaseURL:             cfg.OpenAI.BaseURL,
		Model:               cfg.OpenAI.Model,
		EmbeddingModel:      cfg.OpenAI.EmbeddingModel,
		EmbeddingDimensions: cfg.OpenAI.EmbeddingDimensions,
		// backstop only; per-call deadlines come from the analysis config
		HTTPTimeout: analysisCfg.Timeout,
	})
	bs := breakerSettings(cfg)

	var transcriber ai.Transcriber
	switch cfg.Transcription.Backend {
	case "whisper":
		if store == nil {
			log.Fatal().Msg("whisper transcription needs minio for media access")
		}
		transcriber = transcription.NewWhisperTranscriber(oai, store, cfg.Transcription.Model, log)
	default:
		client := transcription.NewHTTPClient(cfg.Transcription.BaseURL, cfg.Transcription.APIKey, cfg.Transcription.RequestTimeout, nil)
		if store != nil {
			client.Resolver = store
		}
		transcriber = client
	}
	transcriber = breaker.NewTranscriber("transcription", transcriber, bs, log)

	var (
		analyzer ai.ContentAnalyzer
		embedder ai.Embedder
	)
	if cfg.OpenAI.APIKey != "" {
		analyzer = breaker.NewAnalyzer("content_analysis", oai, bs, log)
		embedder = breaker.NewEmbedder("embedding", oai, bs, log)
	} else {
		log.Warn().Msg("no openai api key, content analysis and embeddings use the lexical fallback")
	}

	// init service
	svc := &appanalysis.Service{
		Repo:        repo,
		Transcriber: transcriber,
		Analyzer:    analyzer,
		Embedder:    embedder,
		Errors:      journal,
		Clock:       application.SystemClock{},
		Log:         log.With().Str("component", "analysis").Logger(),
		Config:      analysisCfg,
	}
	dispatcher := appanalysis.NewDispatcher(svc, appanalysis.DispatcherConfig{
		Interval:      cfg.Dispatcher.Interval,
		BatchSize:     cfg.Dispatcher.BatchSize,
		Concurrency:   cfg.Dispatcher.Concurrency,
		RatePerSecond: cfg.Dispatcher.RatePerSecond,
		Burst:         cfg.Dispatcher.Burst,
		QueueSize:     cfg.Dispatcher.QueueSize,
		StaleAfter:    cfg.Dispatcher.StaleAfter,
	}, log)
	matching := &appmatching.Service{
		Repo:           repo,
		Log:            log.With().Str("component", "matching").Logger(),
		CandidateLimit: cfg.Analysis.CandidateLimit,
	}

	// init router
	handler := httpserver.NewRouter(svc, dispatcher, matching, httpserver.Options{
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.RateLimit.Requests,
		RateWindow:  cfg.RateLimit.Window,
		Checks:      checks,
		Log:         log.With().Str("component", "http").Logger(),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		_ = dispatcher.Run(ctx)
	}()

	// run server
	go func() {
		log.Info().Str("addr", addr).Str("driver", cfg.Database.Driver).Str("transcription", cfg.Transcription.Backend).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	select {
	case <-dispatcherDone:
	case <-ctx2.Done():
		log.Warn().Msg("dispatcher did not stop in time; stale runs are failed on next start")
	}
}

// openStore picks the repositories for the configured driver.
func openStore(ctx context.Context, cfg *config.Config) (pitch.Repository, analysiserrors.Repository, *sql.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return postgres.NewPitchRepository(db), postgres.NewAnalysisErrorRepository(db), db, nil
	case "memory":
		return memory.NewPitchRepository(), memory.NewAnalysisErrorRepository(), nil, nil
	default:
		db, err := mysqlp.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return mysqlp.NewPitchRepository(db), mysqlp.NewAnalysisErrorRepository(db), db, nil
	}
}

func breakerSettings(cfg *config.Config) breaker.Settings {
	s := breaker.DefaultSettings()
	if cfg.Breaker.MaxRequests > 0 {
		s.MaxRequests = cfg.Breaker.MaxRequests
	}
	if cfg.Breaker.Interval > 0 {
		s.Interval = cfg.Breaker.Interval
	}
	if cfg.Breaker.Timeout > 0 {
		s.Timeout = cfg.Breaker.Timeout
	}
	if cfg.Breaker.MinRequests > 0 {
		s.MinRequests = cfg.Breaker.MinRequests
	}
	if cfg.Breaker.FailureRatio > 0 {
		s.FailureRatio = cfg.Breaker.FailureRatio
	}
	return s
}

// zero values in the file keep the defaults
func applyAnalysisConfig(dst *appanalysis.Config, cfg *config.Config) {
	a := cfg.Analysis
	if a.PollInterval > 0 {
		dst.PollInterval = a.PollInterval
	}
	if a.MaxPolls > 0 {
		dst.MaxPolls = a.MaxPolls
	}
	if a.Timeout > 0 {
		dst.Timeout = a.Timeout
	}
	if a.RequestTimeout > 0 {
		dst.RequestTimeout = a.RequestTimeout
	}
	if a.MaxKeywords > 0 {
		dst.MaxKeywords = a.MaxKeywords
	}
	if a.LanguageHint != "" {
		dst.LanguageHint = a.LanguageHint
	}
	if a.FallbackSummary != "" {
		dst.FallbackSummary = a.FallbackSummary
	}
	if a.RelatedLimit > 0 {
		dst.RelatedLimit = a.RelatedLimit
	}
	if a.RelatedMinScore > 0 {
		dst.RelatedMinScore = a.RelatedMinScore
	}
	if a.CandidateLimit > 0 {
		dst.CandidateLimit = a.CandidateLimit
	}
	// fallback vectors must match the provider's dimension
	if cfg.OpenAI.EmbeddingDimensions > 0 {
		dst.EmbeddingDimension = cfg.OpenAI.EmbeddingDimensions
	}
}
