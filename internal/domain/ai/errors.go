package ai

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

var (
	ErrProviderTimeout   = errors.New("provider timeout")
	ErrProviderError     = errors.New("provider error")
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Kind classifies a provider failure.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindError     Kind = "error"
	KindMalformed Kind = "malformed"
	KindQuota     Kind = "quota"
)

// ProviderError is the failure variant of every provider call.
type ProviderError struct {
	Provider string
	Kind     Kind
	Detail   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Kind, e.Detail)
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (e *ProviderError) Unwrap() []error {
	out := []error{e.sentinel()}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func (e *ProviderError) sentinel() error {
	switch e.Kind {
	case KindTimeout:
		return ErrProviderTimeout
	case KindMalformed:
		return ErrMalformedResponse
	case KindQuota:
		return ErrQuotaExceeded
	default:
		return ErrProviderError
	}
}

// NewProviderError builds a ProviderError.
func NewProviderError(provider string, kind Kind, detail string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Detail: detail, Err: err}
}
