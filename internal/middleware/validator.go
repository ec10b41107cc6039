package middleware

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
)

// ErrValidation marks bad request input; the router answers 400.
var ErrValidation = errors.New("validation failed")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

var pitchIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidatePitchID allows alphanumeric, dash, underscore (max 64 chars)
func ValidatePitchID(id string) error {
	if id == "" {
		return invalid("pitch id cannot be empty")
	}
	if !pitchIDPattern.MatchString(id) {
		return invalid("invalid pitch id format")
	}
	return nil
}

// ValidateLimit parses an optional limit; empty means def, values are capped at max.
func ValidateLimit(raw string, def, max int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, invalid("limit must be a positive integer")
	}
	if n > max {
		return max, nil
	}
	return n, nil
}

// ValidatePage parses a 1-based page number; empty means 1.
func ValidatePage(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, invalid("page must be >= 1")
	}
	return n, nil
}

// ValidateTheme accepts an empty theme (no filter) or one of the vocabulary.
func ValidateTheme(raw string) (pitch.Theme, error) {
	t := pitch.Theme(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" || t.Valid() {
		return t, nil
	}
	return "", invalid("unknown theme %q", raw)
}

// ValidateMinScore parses an optional score in [0,1]; nil means "use the default".
func ValidateMinScore(raw string) (*float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f > 1 {
		return nil, invalid("min_score must be a number in [0,1]")
	}
	return &f, nil
}

// SanitizeString removes control characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}
