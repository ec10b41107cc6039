package lexical

import (
	"math"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Hello, World! Solar-powered   farms_2024.")
	want := []string{"hello", "world", "solar", "powered", "farms_2024"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestExtractKeywords(t *testing.T) {
	text := "Solar farms power rural schools. Solar panels are cheap and solar is clean. Schools love it."
	got := ExtractKeywords(text, 3)

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (%v)", len(got), got)
	}
	wantTerms := []string{"solar", "schools", "farms"}
	for i, kw := range got {
		if kw.Term != wantTerms[i] {
			t.Errorf("term[%d] = %q, want %q", i, kw.Term, wantTerms[i])
		}
	}
	// retained tokens: solar farms power rural schools solar panels cheap solar clean schools love
	if math.Abs(got[0].Score-3.0/12) > 1e-9 {
		t.Errorf("score[0] = %v, want %v", got[0].Score, 3.0/12)
	}
}

func TestExtractKeywordsDropsShortAndStopWords(t *testing.T) {
	got := ExtractKeywords("this is what we do and it is very fun", 10)
	if len(got) != 0 {
		t.Errorf("ExtractKeywords() = %v, want empty", got)
	}
}

func TestExtractKeywordsEmpty(t *testing.T) {
	got := ExtractKeywords("", 10)
	if got == nil || len(got) != 0 {
		t.Errorf("ExtractKeywords(\"\") = %#v, want empty non-nil slice", got)
	}
}

func TestExtractKeywordsIdempotent(t *testing.T) {
	text := "water filters for water scarce villages filters ship monthly villages pay later"
	first := ExtractKeywords(text, 5)
	for i := 0; i < 20; i++ {
		if again := ExtractKeywords(text, 5); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d = %v, want %v", i, again, first)
		}
	}
}

func TestRankedKeywords(t *testing.T) {
	got := RankedKeywords([]string{" AI ", "fintech", "ai", "", "lending"}, 10)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (%v)", len(got), got)
	}
	want := []float64{1, 2.0 / 3, 1.0 / 3}
	for i, kw := range got {
		if math.Abs(kw.Score-want[i]) > 1e-9 {
			t.Errorf("score[%d] = %v, want %v", i, kw.Score, want[i])
		}
	}
	if got[0].Term != "ai" {
		t.Errorf("term[0] = %q, want ai", got[0].Term)
	}
}

func TestFallbackEmbedding(t *testing.T) {
	a := FallbackEmbedding("pitch transcript", 64)
	b := FallbackEmbedding("pitch transcript", 64)
	c := FallbackEmbedding("another transcript", 64)

	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same text should give the same vector")
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different text should give a different vector")
	}
	for i, v := range a {
		if v < -1 || v > 1 {
			t.Errorf("component %d = %v out of [-1,1]", i, v)
		}
	}
	if got := FallbackEmbedding("x", 0); len(got) != 0 {
		t.Errorf("dimension 0 len = %d", len(got))
	}
}
