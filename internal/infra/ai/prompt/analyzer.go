package prompt

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/bryanwahyu/pitchlens/internal/domain/ai"
)

// sentimentTolerance is how far the three sentiment scores may sum from 1
// before the response is rejected. Within tolerance they are rescaled.
const sentimentTolerance = 0.05

type rawSentiment struct {
	Positive *float64 `json:"positive"`
	Negative *float64 `json:"negative"`
	Neutral  *float64 `json:"neutral"`
}

type rawAnalysis struct {
	Keywords     []string      `json:"keywords"`
	QualityScore *float64      `json:"quality_score"`
	Sentiment    *rawSentiment `json:"sentiment"`
	Summary      *string       `json:"summary"`
}

// ParseContentAnalysis turns the model's raw answer into a validated
// ContentAnalysis. Every rejection is a *ai.ProviderError of KindMalformed.
func ParseContentAnalysis(provider, raw string) (ai.ContentAnalysis, error) {
	body := stripFences(raw)
	if body == "" {
		return ai.ContentAnalysis{}, malformed(provider, "empty response", nil)
	}

	var in rawAnalysis
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&in); err != nil {
		return ai.ContentAnalysis{}, malformed(provider, "invalid json", err)
	}

	switch {
	case in.Keywords == nil:
		return ai.ContentAnalysis{}, malformed(provider, "keywords missing", nil)
	case in.QualityScore == nil:
		return ai.ContentAnalysis{}, malformed(provider, "quality_score missing", nil)
	case in.Sentiment == nil || in.Sentiment.Positive == nil || in.Sentiment.Negative == nil || in.Sentiment.Neutral == nil:
		return ai.ContentAnalysis{}, malformed(provider, "sentiment incomplete", nil)
	case in.Summary == nil:
		return ai.ContentAnalysis{}, malformed(provider, "summary missing", nil)
	}

	q := *in.QualityScore
	if math.IsNaN(q) || q < 0 || q > 100 {
		return ai.ContentAnalysis{}, malformed(provider, fmt.Sprintf("quality_score %v outside [0,100]", q), nil)
	}

	s := ai.Sentiment{Positive: *in.Sentiment.Positive, Negative: *in.Sentiment.Negative, Neutral: *in.Sentiment.Neutral}
	for _, v := range []float64{s.Positive, s.Negative, s.Neutral} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return ai.ContentAnalysis{}, malformed(provider, fmt.Sprintf("sentiment score %v outside [0,1]", v), nil)
		}
	}
	sum := s.Positive + s.Negative + s.Neutral
	if math.Abs(sum-1) > sentimentTolerance {
		return ai.ContentAnalysis{}, malformed(provider, fmt.Sprintf("sentiment sums to %.3f", sum), nil)
	}
	s.Positive, s.Negative, s.Neutral = s.Positive/sum, s.Negative/sum, s.Neutral/sum

	kws := make([]string, 0, len(in.Keywords))
	for _, k := range in.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}

	return ai.ContentAnalysis{
		Keywords:     kws,
		QualityScore: q,
		Sentiment:    s,
		Summary:      strings.TrimSpace(*in.Summary),
	}, nil
}

// stripFences removes a ```json ... ``` wrapper some models add anyway.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func malformed(provider, detail string, err error) *ai.ProviderError {
	return ai.NewProviderError(provider, ai.KindMalformed, detail, err)
}
