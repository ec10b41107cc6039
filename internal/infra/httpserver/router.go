package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	appanalysis "github.com/bryanwahyu/pitchlens/internal/application/analysis"
	appmatching "github.com/bryanwahyu/pitchlens/internal/application/matching"
	"github.com/bryanwahyu/pitchlens/internal/domain/ai"
	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
	engine "github.com/bryanwahyu/pitchlens/internal/matching"
	"github.com/bryanwahyu/pitchlens/internal/middleware"
	"github.com/bryanwahyu/pitchlens/internal/recommend"
	"github.com/bryanwahyu/pitchlens/internal/similarity"
)

// Queue accepts pitches for background analysis.
type Queue interface {
	Submit(id pitch.ID) error
}

// Options for NewRouter.
type Options struct {
	APIKeys     map[string]string
	CORSOrigins []string
	RateLimit   int
	RateWindow  time.Duration
	Checks      map[string]middleware.HealthChecker
	Log         zerolog.Logger
}

type Router struct {
	analysis *appanalysis.Service
	queue    Queue
	matching *appmatching.Service
	log      zerolog.Logger
}

func NewRouter(analysis *appanalysis.Service, queue Queue, matching *appmatching.Service, opts Options) http.Handler {
	r := &Router{analysis: analysis, queue: queue, matching: matching, log: opts.Log}
	mux := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(middleware.RequestID)
	mux.Use(middleware.AccessLog(opts.Log))
	mux.Use(middleware.Metrics)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	mux.Use(middleware.RateLimit(opts.RateLimit, opts.RateWindow))

	mux.Get("/health", middleware.HealthHandler(opts.Checks))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.Route("/pitches/{id}", func(rt chi.Router) {
			rt.Get("/", r.wrap(r.handleGet))
			rt.Post("/analyze", r.wrap(r.handleAnalyze))
			rt.Post("/retry", r.wrap(r.handleRetry))
			rt.Get("/similar", r.wrap(r.handleSimilar))
			rt.Get("/collaborators", r.wrap(r.handleCollaborators))
		})
		rt.Get("/compatibility", r.wrap(r.handleCompatibility))
		rt.Get("/recommendations", r.wrap(r.handleRecommendations))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, kind := classify(err)
			if status >= 500 {
				r.log.Error().Err(err).Str("path", req.URL.Path).Str("request_id", middleware.RequestIDFromContext(req.Context())).Msg("request failed")
			}
			writeJSON(w, status, map[string]string{"error": kind, "message": err.Error()})
		}
	}
}

// classify maps domain errors to HTTP status and error kind
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, middleware.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, pitch.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, pitch.ErrNotAnalyzed):
		return http.StatusConflict, "not_analyzed"
	case errors.Is(err, pitch.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, similarity.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity, "dimension_mismatch"
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "quota_exceeded"
	case errors.Is(err, ai.ErrProviderTimeout):
		return http.StatusGatewayTimeout, "provider_timeout"
	case errors.Is(err, ai.ErrProviderError), errors.Is(err, ai.ErrMalformedResponse):
		return http.StatusBadGateway, "provider_error"
	case errors.Is(err, appanalysis.ErrQueueFull):
		return http.StatusServiceUnavailable, "queue_full"
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func pitchID(req *http.Request) (pitch.ID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidatePitchID(id); err != nil {
		return "", err
	}
	return pitch.ID(id), nil
}

// GET /v1/pitches/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := pitchID(req)
	if err != nil {
		return err
	}
	p, err := r.analysis.Get(req.Context(), id)
	if err != nil {
		return err
	}
	problems, err := r.analysis.History(req.Context(), id, 20)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"pitch": p, "problems": problems})
}

// POST /v1/pitches/{id}/analyze
// Jalan di background lewat dispatcher; 202 langsung.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	id, err := pitchID(req)
	if err != nil {
		return err
	}
	p, err := r.analysis.Get(req.Context(), id)
	if err != nil {
		return err
	}
	if p.Status != pitch.StatusPending {
		return writeJSON(w, http.StatusConflict, map[string]string{
			"error":   "invalid_transition",
			"message": "pitch is " + string(p.Status) + ", only pending pitches can be analyzed",
		})
	}
	if err := r.queue.Submit(id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusAccepted, map[string]string{"pitch_id": string(id), "status": "queued"})
}

// POST /v1/pitches/{id}/retry
func (r *Router) handleRetry(w http.ResponseWriter, req *http.Request) error {
	id, err := pitchID(req)
	if err != nil {
		return err
	}
	if err := r.analysis.Retry(req.Context(), id); err != nil {
		return err
	}
	if err := r.queue.Submit(id); err != nil {
		// tetap pending, scan berikutnya yang ambil
		r.log.Warn().Err(err).Str("pitch_id", string(id)).Msg("retry not queued, left pending")
	}
	return writeJSON(w, http.StatusAccepted, map[string]string{"pitch_id": string(id), "status": string(pitch.StatusPending)})
}

// GET /v1/pitches/{id}/similar?limit=&theme=&min_score=&method=
func (r *Router) handleSimilar(w http.ResponseWriter, req *http.Request) error {
	id, err := pitchID(req)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	limit, err := middleware.ValidateLimit(q.Get("limit"), engine.DefaultLimit, engine.MaxLimit)
	if err != nil {
		return err
	}
	theme, err := middleware.ValidateTheme(q.Get("theme"))
	if err != nil {
		return err
	}
	minScore, err := middleware.ValidateMinScore(q.Get("min_score"))
	if err != nil {
		return err
	}
	method := appmatching.Method(q.Get("method"))
	if !method.Valid() {
		return validationError("method must be keywords or embedding")
	}

	matches, err := r.matching.FindSimilarProjects(req.Context(), id, appmatching.SimilarQuery{
		Limit:         limit,
		Theme:         theme,
		MinScore:      minScore,
		Method:        method,
		AllowFallback: q.Get("allow_fallback") == "true",
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"pitch_id": id, "matches": matches})
}

// GET /v1/pitches/{id}/collaborators?limit=&min_score=
func (r *Router) handleCollaborators(w http.ResponseWriter, req *http.Request) error {
	id, err := pitchID(req)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	limit, err := middleware.ValidateLimit(q.Get("limit"), engine.DefaultLimit, engine.MaxLimit)
	if err != nil {
		return err
	}
	minScore, err := middleware.ValidateMinScore(q.Get("min_score"))
	if err != nil {
		return err
	}
	matches, err := r.matching.FindCollaborators(req.Context(), id, appmatching.CollaboratorQuery{Limit: limit, MinScore: minScore})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"pitch_id": id, "collaborators": matches})
}

// GET /v1/compatibility?a=&b=
func (r *Router) handleCompatibility(w http.ResponseWriter, req *http.Request) error {
	a, b := req.URL.Query().Get("a"), req.URL.Query().Get("b")
	if err := middleware.ValidatePitchID(a); err != nil {
		return err
	}
	if err := middleware.ValidatePitchID(b); err != nil {
		return err
	}
	res, err := r.matching.ComputeCompatibility(req.Context(), pitch.ID(a), pitch.ID(b))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/recommendations?page=&page_size=&min_score=
func (r *Router) handleRecommendations(w http.ResponseWriter, req *http.Request) error {
	user := middleware.UserIDFromContext(req.Context())
	if user == "" {
		return validationError("no authenticated user")
	}
	q := req.URL.Query()
	page, err := middleware.ValidatePage(q.Get("page"))
	if err != nil {
		return err
	}
	size, err := middleware.ValidateLimit(q.Get("page_size"), recommend.DefaultPageSize, recommend.MaxPageSize)
	if err != nil {
		return err
	}
	minScore, err := middleware.ValidateMinScore(q.Get("min_score"))
	if err != nil {
		return err
	}

	opts := recommend.DefaultOptions()
	opts.Page = page
	opts.PageSize = size
	if minScore != nil {
		opts.MinScore = *minScore
	}
	recs, err := r.matching.GetRecommendations(req.Context(), user, opts)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, recs)
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", middleware.ErrValidation, msg)
}
