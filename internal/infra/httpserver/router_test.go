package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/pitchlens/internal/application"
	appanalysis "github.com/bryanwahyu/pitchlens/internal/application/analysis"
	appmatching "github.com/bryanwahyu/pitchlens/internal/application/matching"
	"github.com/bryanwahyu/pitchlens/internal/domain/ai"
	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
	"github.com/bryanwahyu/pitchlens/internal/infra/db/memory"
	"github.com/bryanwahyu/pitchlens/internal/similarity"
)

type recordingQueue struct {
	ids []pitch.ID
	err error
}

func (q *recordingQueue) Submit(id pitch.ID) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func keywords(terms ...string) []pitch.Keyword {
	out := make([]pitch.Keyword, len(terms))
	for i, t := range terms {
		out[i] = pitch.Keyword{Term: t, Score: 1}
	}
	return out
}

func newTestRouter(t *testing.T) (http.Handler, *recordingQueue, *memory.PitchRepository) {
	t.Helper()
	repo := memory.NewPitchRepository()
	repo.Put(&pitch.Pitch{ID: "a", OwnerID: "alice", Status: pitch.StatusComplete, Theme: pitch.ThemeFinance, Keywords: keywords("ai", "startup", "fintech")})
	repo.Put(&pitch.Pitch{ID: "b", OwnerID: "bob", Status: pitch.StatusComplete, Theme: pitch.ThemeFinance, Keywords: keywords("ai", "startup", "design", "marketing")})
	repo.Put(&pitch.Pitch{ID: "p", OwnerID: "bob", Status: pitch.StatusPending})
	repo.Put(&pitch.Pitch{ID: "f", OwnerID: "bob", Status: pitch.StatusFailed})

	svc := &appanalysis.Service{
		Repo:   repo,
		Errors: memory.NewAnalysisErrorRepository(),
		Clock:  application.SystemClock{},
		Log:    zerolog.Nop(),
	}
	queue := &recordingQueue{}
	match := &appmatching.Service{Repo: repo, Log: zerolog.Nop()}
	h := NewRouter(svc, queue, match, Options{
		APIKeys: map[string]string{"alice": "key-a"},
		Log:     zerolog.Nop(),
	})
	return h, queue, repo
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer key-a")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutesStatus(t *testing.T) {
	h, _, _ := newTestRouter(t)
	tests := []struct {
		name   string
		method string
		target string
		code   int
		kind   string
	}{
		{"get pitch", http.MethodGet, "/v1/pitches/a", http.StatusOK, ""},
		{"get missing", http.MethodGet, "/v1/pitches/zzz", http.StatusNotFound, "not_found"},
		{"bad id", http.MethodGet, "/v1/pitches/a.b", http.StatusBadRequest, "validation"},
		{"similar", http.MethodGet, "/v1/pitches/a/similar?limit=5", http.StatusOK, ""},
		{"similar not analyzed", http.MethodGet, "/v1/pitches/p/similar", http.StatusConflict, "not_analyzed"},
		{"similar bad theme", http.MethodGet, "/v1/pitches/a/similar?theme=crypto", http.StatusBadRequest, "validation"},
		{"similar bad method", http.MethodGet, "/v1/pitches/a/similar?method=vibes", http.StatusBadRequest, "validation"},
		{"similar bad min score", http.MethodGet, "/v1/pitches/a/similar?min_score=2", http.StatusBadRequest, "validation"},
		{"collaborators", http.MethodGet, "/v1/pitches/a/collaborators", http.StatusOK, ""},
		{"compatibility", http.MethodGet, "/v1/compatibility?a=a&b=b", http.StatusOK, ""},
		{"compatibility missing arg", http.MethodGet, "/v1/compatibility?a=a", http.StatusBadRequest, "validation"},
		{"compatibility pending", http.MethodGet, "/v1/compatibility?a=a&b=p", http.StatusConflict, "not_analyzed"},
		{"recommendations", http.MethodGet, "/v1/recommendations?page=1&page_size=5", http.StatusOK, ""},
		{"analyze complete pitch", http.MethodPost, "/v1/pitches/a/analyze", http.StatusConflict, "invalid_transition"},
		{"retry complete pitch", http.MethodPost, "/v1/pitches/a/retry", http.StatusConflict, "invalid_transition"},
		{"livez", http.MethodGet, "/livez", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, tt.method, tt.target)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.code, rec.Body.String())
			}
			if tt.kind == "" {
				return
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["error"] != tt.kind {
				t.Errorf("error = %q, want %q", body["error"], tt.kind)
			}
		})
	}
}

func TestAnalyzeQueuesPendingPitch(t *testing.T) {
	h, queue, _ := newTestRouter(t)
	rec := do(h, http.MethodPost, "/v1/pitches/p/analyze")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(queue.ids) != 1 || queue.ids[0] != "p" {
		t.Errorf("queued = %v, want [p]", queue.ids)
	}

	queue.err = appanalysis.ErrQueueFull
	if rec := do(h, http.MethodPost, "/v1/pitches/p/analyze"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("full queue status = %d, want 503", rec.Code)
	}
}

func TestRetryFailedPitch(t *testing.T) {
	h, queue, repo := newTestRouter(t)
	rec := do(h, http.MethodPost, "/v1/pitches/f/retry")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	p, _ := repo.Get(t.Context(), "f")
	if p.Status != pitch.StatusPending {
		t.Errorf("status = %s, want pending", p.Status)
	}
	if len(queue.ids) != 1 {
		t.Errorf("queued = %v, want [f]", queue.ids)
	}
}

func TestCompatibilityBody(t *testing.T) {
	h, _, _ := newTestRouter(t)
	rec := do(h, http.MethodGet, "/v1/compatibility?a=a&b=b")
	var body appmatching.Compatibility
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	// overlap 2/4, novel 2/4 -> 0.6*0.5 + 0.4*0.5
	if body.Score < 0.4999 || body.Score > 0.5001 {
		t.Errorf("score = %v, want 0.5", body.Score)
	}
}

func TestRecommendationsRequireAuth(t *testing.T) {
	h, _, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{pitch.ErrNotFound, http.StatusNotFound},
		{similarity.ErrDimensionMismatch, http.StatusUnprocessableEntity},
		{ai.NewProviderError("openai", ai.KindQuota, "429", nil), http.StatusTooManyRequests},
		{ai.NewProviderError("openai", ai.KindTimeout, "slow", nil), http.StatusGatewayTimeout},
		{ai.NewProviderError("openai", ai.KindMalformed, "bad json", nil), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := classify(tt.err); got != tt.code {
			t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.code)
		}
	}
}
