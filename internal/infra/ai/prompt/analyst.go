package prompt

import (
	"fmt"
	"unicode/utf8"
)

// MaxTranscriptRunes caps how much transcript is sent to the model.
const MaxTranscriptRunes = 12000

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are an experienced startup pitch reviewer. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- keywords: 3 to 10 short lowercase terms that best describe the pitch, most relevant first.
- quality_score: a number from 0 to 100 rating clarity, problem/solution fit and delivery.
- sentiment: positive, negative and neutral are numbers from 0 to 1 that sum to 1.
- summary: at most two sentences in the language of the transcript.
- If the transcript is very short, still answer conservatively; never leave a field out.

Schema (example with empty values):
{
  "keywords": ["<string>"],
  "quality_score": 0,
  "sentiment": {"positive": 0, "negative": 0, "neutral": 1},
  "summary": "<string>"
}`
}

// GetUserPrompt builds the user message around a transcript, truncated to MaxTranscriptRunes.
func GetUserPrompt(transcript string) string {
	if utf8.RuneCountInString(transcript) > MaxTranscriptRunes {
		transcript = string([]rune(transcript)[:MaxTranscriptRunes])
	}
	return fmt.Sprintf("Analyze this pitch transcript and respond with the JSON per schema.\n\nTranscript:\n%s", transcript)
}
