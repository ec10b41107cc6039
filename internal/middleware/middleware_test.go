package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserIDFromContext(r.Context())))
	})
}

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"alice": "key-a", "bob": "key-b"})(echoUser())

	tests := []struct {
		name   string
		path   string
		header string
		code   int
		body   string
	}{
		{"bearer", "/v1/recommendations", "Bearer key-b", http.StatusOK, "bob"},
		{"raw key", "/v1/recommendations", "key-a", http.StatusOK, "alice"},
		{"missing", "/v1/recommendations", "", http.StatusUnauthorized, ""},
		{"wrong", "/v1/recommendations", "Bearer nope", http.StatusUnauthorized, ""},
		{"health is public", "/health", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.code == http.StatusOK && rec.Body.String() != tt.body {
				t.Errorf("user = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("generated id = %q, header = %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc" {
		t.Errorf("kept id = %q, want abc", seen)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/compatibility", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("/health status = %d, want 200", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	ok := CheckFunc(func(context.Context) error { return nil })
	down := CheckFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"db": ok})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"db": ok, "storage": down})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d, want 503", rec.Code)
	}
	var body HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Checks["storage"].Message != "connection refused" {
		t.Errorf("storage check = %+v", body.Checks["storage"])
	}
}

func TestValidateLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 10, false},
		{"5", 5, false},
		{"500", 100, false},
		{"0", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		got, err := ValidateLimit(tt.raw, 10, 100)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ValidateLimit(%q) = %d, %v; want %d, err %v", tt.raw, got, err, tt.want, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrValidation) {
			t.Errorf("error %v is not ErrValidation", err)
		}
	}
}

func TestValidateInputs(t *testing.T) {
	if err := ValidatePitchID("pitch_01-a"); err != nil {
		t.Errorf("ValidatePitchID valid = %v", err)
	}
	if err := ValidatePitchID("../etc"); err == nil {
		t.Errorf("ValidatePitchID(../etc) = nil, want error")
	}
	if th, err := ValidateTheme(" Health "); err != nil || th != pitch.ThemeHealth {
		t.Errorf("ValidateTheme = %q, %v", th, err)
	}
	if _, err := ValidateTheme("crypto"); err == nil {
		t.Errorf("ValidateTheme(crypto) = nil, want error")
	}
	if ms, err := ValidateMinScore(""); err != nil || ms != nil {
		t.Errorf("ValidateMinScore(\"\") = %v, %v; want nil, nil", ms, err)
	}
	if ms, err := ValidateMinScore("0.35"); err != nil || *ms != 0.35 {
		t.Errorf("ValidateMinScore(0.35) = %v, %v", ms, err)
	}
	if _, err := ValidateMinScore("1.5"); err == nil {
		t.Errorf("ValidateMinScore(1.5) = nil, want error")
	}
	if p, err := ValidatePage(""); err != nil || p != 1 {
		t.Errorf("ValidatePage(\"\") = %d, %v", p, err)
	}
	if _, err := ValidatePage("0"); err == nil {
		t.Errorf("ValidatePage(0) = nil, want error")
	}
}
