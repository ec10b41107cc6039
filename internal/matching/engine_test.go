package matching

import (
	"errors"
	"math"
	"testing"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
	"github.com/bryanwahyu/pitchlens/internal/similarity"
)

func analyzed(id, owner string, theme pitch.Theme, terms ...string) *pitch.Pitch {
	kws := make([]pitch.Keyword, len(terms))
	for i, t := range terms {
		kws[i] = pitch.Keyword{Term: t, Score: 1}
	}
	return &pitch.Pitch{
		ID:       pitch.ID(id),
		OwnerID:  owner,
		Theme:    theme,
		Status:   pitch.StatusComplete,
		Keywords: kws,
	}
}

func ids(ms []Match) []pitch.ID {
	out := make([]pitch.ID, len(ms))
	for i, m := range ms {
		out[i] = m.PitchID
	}
	return out
}

func TestFindSimilarMinScoreIsStrict(t *testing.T) {
	src := analyzed("src", "u1", pitch.ThemeFinance, "ai", "startup")
	exact := analyzed("half", "u2", pitch.ThemeFinance, "ai", "design") // 1/2 = 0.5
	above := analyzed("full", "u3", pitch.ThemeFinance, "ai", "startup")

	got := FindSimilar(src, []*pitch.Pitch{exact, above}, Options{Limit: 10, MinScore: 0.5})
	if len(got) != 1 || got[0].PitchID != "full" {
		t.Fatalf("FindSimilar() = %v, want only full", ids(got))
	}

	got = FindSimilar(src, []*pitch.Pitch{exact, above}, Options{Limit: 10, MinScore: 0.49})
	if len(got) != 2 {
		t.Fatalf("FindSimilar() = %v, want both", ids(got))
	}
}

func TestFindSimilarFiltersAndOrders(t *testing.T) {
	src := analyzed("src", "u1", pitch.ThemeTechnology, "ai", "startup", "fintech")
	pending := analyzed("pending", "u2", pitch.ThemeTechnology, "ai", "startup", "fintech")
	pending.Status = pitch.StatusPending
	self := analyzed("src", "u1", pitch.ThemeTechnology, "ai", "startup", "fintech")
	other := analyzed("health", "u2", pitch.ThemeHealth, "ai", "startup", "fintech")
	b := analyzed("b", "u3", pitch.ThemeTechnology, "ai", "startup")
	a := analyzed("a", "u4", pitch.ThemeTechnology, "ai", "startup")
	best := analyzed("best", "u5", pitch.ThemeTechnology, "ai", "startup", "fintech")

	pool := []*pitch.Pitch{pending, self, other, b, a, best, nil}
	got := FindSimilar(src, pool, Options{Limit: 10, MinScore: 0.2, Theme: pitch.ThemeTechnology})

	want := []pitch.ID{"best", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("FindSimilar() = %v, want %v", ids(got), want)
	}
	for i := range want {
		if got[i].PitchID != want[i] {
			t.Errorf("rank %d = %s, want %s", i, got[i].PitchID, want[i])
		}
	}

	got = FindSimilar(src, pool, Options{Limit: 1, MinScore: 0.2})
	if len(got) != 1 || got[0].Score != 1 {
		t.Errorf("limit 1 = %v", got)
	}
}

func TestComputeCompatibility(t *testing.T) {
	a := analyzed("a", "u1", pitch.ThemeFinance, "ai", "startup", "fintech")
	b := analyzed("b", "u2", pitch.ThemeFinance, "ai", "startup", "design", "marketing")

	got, err := ComputeCompatibility(a, b)
	if err != nil {
		t.Fatalf("ComputeCompatibility() error = %v", err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("ComputeCompatibility() = %v, want 0.5", got)
	}
	if ov := similarity.KeywordOverlap(a.Terms(), b.Terms()); math.Abs(ov-0.5) > 1e-9 {
		t.Errorf("KeywordOverlap() = %v, want 0.5", ov)
	}
}

func TestComputeCompatibilityNotAnalyzed(t *testing.T) {
	a := analyzed("a", "u1", pitch.ThemeFinance, "ai")
	b := analyzed("b", "u2", pitch.ThemeFinance, "ai")
	b.Status = pitch.StatusFailed

	if _, err := ComputeCompatibility(a, b); !errors.Is(err, pitch.ErrNotAnalyzed) {
		t.Errorf("error = %v, want ErrNotAnalyzed", err)
	}
	if _, err := ComputeCompatibility(nil, a); !errors.Is(err, pitch.ErrNotAnalyzed) {
		t.Errorf("nil error = %v, want ErrNotAnalyzed", err)
	}
}

func TestFindComplementary(t *testing.T) {
	src := analyzed("src", "u1", pitch.ThemeTechnology, "ai", "startup", "fintech")
	dup := analyzed("dup", "u2", pitch.ThemeTechnology, "ai", "startup", "fintech")         // 0.6*1 + 0.4*0 = 0.6
	comp := analyzed("comp", "u3", pitch.ThemeTechnology, "ai", "startup", "design", "ads") // 0.6*0.5 + 0.4*0.5 = 0.5
	stranger := analyzed("stranger", "u4", pitch.ThemeTechnology, "cooking", "travel")      // no shared context
	mine := analyzed("mine", "u1", pitch.ThemeTechnology, "ai", "startup", "fintech")

	got := FindComplementary(src, []*pitch.Pitch{dup, comp, stranger, mine}, Options{Limit: 10, MinScore: 0.2, ExcludeOwnerID: "u1"})
	want := []pitch.ID{"dup", "comp"}
	if len(got) != len(want) {
		t.Fatalf("FindComplementary() = %v, want %v", ids(got), want)
	}
	for i := range want {
		if got[i].PitchID != want[i] {
			t.Errorf("rank %d = %s, want %s", i, got[i].PitchID, want[i])
		}
	}
	if len(got[1].NovelKeywords) != 2 {
		t.Errorf("novel = %v, want [design ads]", got[1].NovelKeywords)
	}
}

func TestFindSimilarByEmbedding(t *testing.T) {
	src := analyzed("src", "u1", pitch.ThemeTechnology, "ai")
	src.Embedding = []float32{1, 0}
	near := analyzed("near", "u2", pitch.ThemeTechnology, "ai")
	near.Embedding = []float32{1, 0.1}
	far := analyzed("far", "u3", pitch.ThemeTechnology, "ai")
	far.Embedding = []float32{0, 1}
	fake := analyzed("fake", "u4", pitch.ThemeTechnology, "ai")
	fake.Embedding = []float32{1, 0}
	fake.EmbeddingFallback = true
	none := analyzed("none", "u5", pitch.ThemeTechnology, "ai")

	pool := []*pitch.Pitch{near, far, fake, none}
	got, err := FindSimilarByEmbedding(src, pool, Options{Limit: 10, MinScore: 0.5})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(got) != 1 || got[0].PitchID != "near" {
		t.Errorf("got %v, want [near]", ids(got))
	}

	got, err = FindSimilarByEmbedding(src, pool, Options{Limit: 10, MinScore: 0.5, AllowFallback: true})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(got) != 2 || got[0].PitchID != "fake" {
		t.Errorf("with fallback got %v, want [fake near]", ids(got))
	}
}

func TestFindSimilarByEmbeddingErrors(t *testing.T) {
	src := analyzed("src", "u1", pitch.ThemeTechnology, "ai")
	if _, err := FindSimilarByEmbedding(src, nil, DefaultOptions()); !errors.Is(err, pitch.ErrNotAnalyzed) {
		t.Errorf("no embedding error = %v, want ErrNotAnalyzed", err)
	}

	src.Embedding = []float32{1, 0}
	bad := analyzed("bad", "u2", pitch.ThemeTechnology, "ai")
	bad.Embedding = []float32{1, 0, 0}
	if _, err := FindSimilarByEmbedding(src, []*pitch.Pitch{bad}, DefaultOptions()); !errors.Is(err, similarity.ErrDimensionMismatch) {
		t.Errorf("mismatch error = %v, want ErrDimensionMismatch", err)
	}
}
