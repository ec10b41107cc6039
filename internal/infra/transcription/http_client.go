// Package transcription adapts speech-to-text backends to ai.Transcriber.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bryanwahyu/pitchlens/internal/domain/ai"
)

const providerHTTP = "transcription"

// MediaResolver turns a stored media reference into a URL the provider can fetch.
type MediaResolver interface {
	ResolveMediaURL(ctx context.Context, raw string) (string, error)
}

// HTTPClient talks to a job-based transcription REST API:
//
//	POST {base}/transcript      {"audio_url", "language_code"} -> {"id", "status"}
//	GET  {base}/transcript/{id} -> {"id", "status", "text", "error"}
//
// status is one of queued, processing, completed, error.
type HTTPClient struct {
	BaseURL  string
	APIKey   string
	Resolver MediaResolver
	HTTP     *http.Client
}

func NewHTTPClient(baseURL, apiKey string, requestTimeout time.Duration, resolver MediaResolver) *HTTPClient {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &HTTPClient{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIKey:   apiKey,
		Resolver: resolver,
		HTTP:     &http.Client{Timeout: requestTimeout},
	}
}

type submitBody struct {
	AudioURL     string `json:"audio_url"`
	LanguageCode string `json:"language_code,omitempty"`
}

type jobBody struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func (c *HTTPClient) Submit(ctx context.Context, req ai.TranscriptionRequest) (string, error) {
	mediaURL := req.MediaURL
	if c.Resolver != nil {
		u, err := c.Resolver.ResolveMediaURL(ctx, req.MediaURL)
		if err != nil {
			return "", ai.NewProviderError(providerHTTP, ai.KindError, "resolve media", err)
		}
		mediaURL = u
	}

	payload, err := json.Marshal(submitBody{AudioURL: mediaURL, LanguageCode: req.LanguageHint})
	if err != nil {
		return "", err
	}
	var out jobBody
	if err := c.do(ctx, http.MethodPost, c.BaseURL+"/transcript", payload, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", ai.NewProviderError(providerHTTP, ai.KindMalformed, "submit response without id", nil)
	}
	return out.ID, nil
}

func (c *HTTPClient) Poll(ctx context.Context, jobID string) (ai.TranscriptionJob, error) {
	var out jobBody
	if err := c.do(ctx, http.MethodGet, c.BaseURL+"/transcript/"+url.PathEscape(jobID), nil, &out); err != nil {
		return ai.TranscriptionJob{}, err
	}
	job := ai.TranscriptionJob{ID: jobID, Text: out.Text, Message: out.Error}
	switch out.Status {
	case "queued":
		job.Status = ai.JobQueued
	case "processing":
		job.Status = ai.JobProcessing
	case "completed", "done":
		job.Status = ai.JobDone
	case "error", "failed":
		job.Status = ai.JobError
	default:
		return ai.TranscriptionJob{}, ai.NewProviderError(providerHTTP, ai.KindMalformed, fmt.Sprintf("unknown job status %q", out.Status), nil)
	}
	return job, nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &uerr) && uerr.Timeout()) {
			return ai.NewProviderError(providerHTTP, ai.KindTimeout, method+" "+endpoint, err)
		}
		return ai.NewProviderError(providerHTTP, ai.KindError, method+" "+endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return ai.NewProviderError(providerHTTP, ai.KindError, "read body", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ai.NewProviderError(providerHTTP, ai.KindQuota, string(truncate(data)), nil)
	case resp.StatusCode >= 300:
		return ai.NewProviderError(providerHTTP, ai.KindError, fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(data)), nil)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return ai.NewProviderError(providerHTTP, ai.KindMalformed, "decode body", err)
	}
	return nil
}

func truncate(b []byte) []byte {
	if len(b) > 200 {
		return b[:200]
	}
	return b
}
