package recommend

import (
	"math"
	"testing"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
)

func mk(id, owner string, theme pitch.Theme, kws ...pitch.Keyword) *pitch.Pitch {
	return &pitch.Pitch{ID: pitch.ID(id), OwnerID: owner, Theme: theme, Status: pitch.StatusComplete, Keywords: kws}
}

func kw(term string, score float64) pitch.Keyword { return pitch.Keyword{Term: term, Score: score} }

func TestBuildProfile(t *testing.T) {
	owned := []*pitch.Pitch{
		mk("p1", "u1", pitch.ThemeFinance, kw("ai", 1), kw("lending", 0.5)),
		mk("p2", "u1", pitch.ThemeFinance, kw("ai", 0.5)),
		mk("p3", "u1", pitch.ThemeHealth, kw("clinic", 1)),
	}
	failed := mk("p4", "u1", pitch.ThemeEducation, kw("school", 1))
	failed.Status = pitch.StatusFailed
	owned = append(owned, failed, mk("p5", "u2", pitch.ThemeEducation, kw("school", 1)))

	prof := BuildProfile("u1", owned)
	if prof.PitchCount != 3 {
		t.Fatalf("PitchCount = %d, want 3", prof.PitchCount)
	}
	if got := prof.TopThemes(5); len(got) != 2 || got[0] != pitch.ThemeFinance || got[1] != pitch.ThemeHealth {
		t.Errorf("TopThemes() = %v", got)
	}
	if prof.Keywords[0].Term != "ai" || math.Abs(prof.Keywords[0].Score-0.5) > 1e-9 {
		t.Errorf("Keywords[0] = %+v, want ai/0.5", prof.Keywords[0])
	}
	if len(prof.Keywords) != 3 {
		t.Errorf("len(Keywords) = %d, want 3", len(prof.Keywords))
	}
	if got := prof.TopKeywords(2); len(got) != 2 || got[0].Term != "ai" || got[1].Term != "clinic" {
		t.Errorf("TopKeywords(2) = %+v, want [ai clinic]", got)
	}
	if got := prof.TopKeywords(0); len(got) != 3 {
		t.Errorf("TopKeywords(0) = %+v, want all 3", got)
	}
}

func TestRecommendProfileTermsCap(t *testing.T) {
	prof := BuildProfile("u1", []*pitch.Pitch{
		mk("mine", "u1", pitch.ThemeFinance, kw("ai", 1), kw("lending", 0.5)),
	})
	pool := []*pitch.Pitch{mk("len", "u2", pitch.ThemeHealth, kw("lending", 1))}

	if page := Recommend(prof, pool, DefaultOptions()); page.Total != 1 {
		t.Errorf("all terms: Total = %d, want 1", page.Total)
	}
	opts := DefaultOptions()
	opts.ProfileTerms = 1
	if page := Recommend(prof, pool, opts); page.Total != 0 {
		t.Errorf("ProfileTerms 1: Total = %d, want 0 (lending is outside the cap)", page.Total)
	}
}

func TestRecommendEmptyProfile(t *testing.T) {
	prof := BuildProfile("u1", nil)
	if !prof.Empty() {
		t.Fatal("profile should be empty")
	}
	page := Recommend(prof, []*pitch.Pitch{mk("x", "u2", pitch.ThemeFinance, kw("ai", 1))}, DefaultOptions())
	if page.Items == nil || len(page.Items) != 0 || page.Total != 0 {
		t.Errorf("Recommend() = %+v, want empty page", page)
	}
}

func TestRecommendBoostAndReason(t *testing.T) {
	prof := BuildProfile("u1", []*pitch.Pitch{
		mk("mine", "u1", pitch.ThemeFinance, kw("ai", 1), kw("lending", 1)),
	})
	pool := []*pitch.Pitch{
		mk("mine", "u1", pitch.ThemeFinance, kw("ai", 1), kw("lending", 1)),
		mk("fin", "u2", pitch.ThemeFinance, kw("ai", 1), kw("crypto", 1)),  // 0.5 + 0.1
		mk("edu", "u3", pitch.ThemeEducation, kw("ai", 1), kw("tutor", 1)), // 0.5
		mk("off", "u4", pitch.ThemeHealth, kw("yoga", 1)),                  // 0
	}

	page := Recommend(prof, pool, DefaultOptions())
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("Recommend() = %+v, want 2 items", page)
	}
	first, second := page.Items[0], page.Items[1]
	if first.PitchID != "fin" || math.Abs(first.Score-0.6) > 1e-9 || !first.ThemeBoosted {
		t.Errorf("first = %+v", first)
	}
	if first.Reason != "shares theme finance and keywords ai" {
		t.Errorf("reason = %q", first.Reason)
	}
	if second.PitchID != "edu" || second.Reason != "shares keywords ai" {
		t.Errorf("second = %+v", second)
	}
}

func TestRecommendPagination(t *testing.T) {
	prof := BuildProfile("u1", []*pitch.Pitch{mk("mine", "u1", pitch.ThemeOther, kw("ai", 1))})
	var pool []*pitch.Pitch
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		pool = append(pool, mk(id, "u2", pitch.ThemeTechnology, kw("ai", 1)))
	}

	tests := []struct {
		page, size int
		want       []pitch.ID
	}{
		{1, 2, []pitch.ID{"a", "b"}},
		{2, 2, []pitch.ID{"c", "d"}},
		{3, 2, []pitch.ID{"e"}},
		{4, 2, []pitch.ID{}},
	}
	for _, tt := range tests {
		opts := DefaultOptions()
		opts.Page, opts.PageSize = tt.page, tt.size
		page := Recommend(prof, pool, opts)
		if page.Total != 5 {
			t.Errorf("page %d: Total = %d, want 5", tt.page, page.Total)
		}
		if len(page.Items) != len(tt.want) {
			t.Fatalf("page %d: got %d items, want %d", tt.page, len(page.Items), len(tt.want))
		}
		for i, id := range tt.want {
			if page.Items[i].PitchID != id {
				t.Errorf("page %d item %d = %s, want %s", tt.page, i, page.Items[i].PitchID, id)
			}
		}
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		boosted bool
		shared  []string
		want    string
	}{
		{true, []string{"a", "b", "c", "d"}, "shares theme health and keywords a, b, c"},
		{true, nil, "shares theme health"},
		{false, []string{"a"}, "shares keywords a"},
		{false, nil, "similar to your pitches"},
	}
	for _, tt := range tests {
		if got := Reason(pitch.ThemeHealth, tt.boosted, tt.shared); got != tt.want {
			t.Errorf("Reason() = %q, want %q", got, tt.want)
		}
	}
}
