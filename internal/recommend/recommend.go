package recommend

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
	"github.com/bryanwahyu/pitchlens/internal/matching"
)

const (
	DefaultPageSize    = 10
	MaxPageSize        = 50
	DefaultMinScore    = 0.1
	DefaultThemeBoost  = 0.1
	DefaultTopThemes   = 3
	DefaultProfileTerm = 20

	reasonKeywords = 3
)

// Options for Recommend. Zero values fall back to the defaults above, except
// MinScore which is used as given.
type Options struct {
	Page      int
	PageSize  int
	MinScore  float64
	TopThemes int
	// ThemeBoost is added when a candidate's theme is among the profile's top themes.
	ThemeBoost float64
	// ProfileTerms caps how many profile keywords take part in overlap scoring.
	ProfileTerms int
}

// DefaultOptions returns the first page with the default thresholds.
func DefaultOptions() Options {
	return Options{
		Page:         1,
		PageSize:     DefaultPageSize,
		MinScore:     DefaultMinScore,
		TopThemes:    DefaultTopThemes,
		ThemeBoost:   DefaultThemeBoost,
		ProfileTerms: DefaultProfileTerm,
	}
}

func (o Options) normalized() Options {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	if o.TopThemes <= 0 {
		o.TopThemes = DefaultTopThemes
	}
	if o.ThemeBoost <= 0 {
		o.ThemeBoost = DefaultThemeBoost
	}
	if o.ProfileTerms <= 0 {
		o.ProfileTerms = DefaultProfileTerm
	}
	return o
}

// Recommendation is one explained result.
type Recommendation struct {
	PitchID        pitch.ID    `json:"pitch_id"`
	OwnerID        string      `json:"owner_id"`
	Theme          pitch.Theme `json:"theme"`
	Score          float64     `json:"score"`
	ThemeBoosted   bool        `json:"theme_boosted"`
	SharedKeywords []string    `json:"shared_keywords"`
	Reason         string      `json:"reason"`
}

// Page of recommendations. Total counts every result above MinScore.
type Page struct {
	Items    []Recommendation `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int              `json:"total"`
}

// Recommend scores complete candidates not owned by the profile's user by
// keyword overlap with the profile, plus ThemeBoost for a top theme. Results
// strictly above MinScore are sorted (score desc, id asc) and paginated.
func Recommend(prof Profile, pool []*pitch.Pitch, opts Options) Page {
	opts = opts.normalized()
	page := Page{Items: []Recommendation{}, Page: opts.Page, PageSize: opts.PageSize}
	if prof.Empty() {
		return page
	}

	subject := &pitch.Pitch{Keywords: prof.TopKeywords(opts.ProfileTerms)}
	top := prof.TopThemes(opts.TopThemes)

	all := []Recommendation{}
	for _, m := range matching.Score(subject, pool, matching.Options{ExcludeOwnerID: prof.UserID}) {
		boosted := slices.Contains(top, m.Theme)
		score := m.Score
		if boosted {
			score += opts.ThemeBoost
		}
		if score <= opts.MinScore {
			continue
		}
		all = append(all, Recommendation{
			PitchID:        m.PitchID,
			OwnerID:        m.OwnerID,
			Theme:          m.Theme,
			Score:          score,
			ThemeBoosted:   boosted,
			SharedKeywords: m.SharedKeywords,
			Reason:         Reason(m.Theme, boosted, m.SharedKeywords),
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].PitchID < all[j].PitchID
	})

	page.Total = len(all)
	start := (opts.Page - 1) * opts.PageSize
	if start >= len(all) {
		return page
	}
	end := min(start+opts.PageSize, len(all))
	page.Items = all[start:end]
	return page
}

// Reason explains a recommendation, e.g. "shares theme finance and keywords ai, lending".
func Reason(theme pitch.Theme, themeMatched bool, shared []string) string {
	kws := shared
	if len(kws) > reasonKeywords {
		kws = kws[:reasonKeywords]
	}
	switch {
	case themeMatched && len(kws) > 0:
		return fmt.Sprintf("shares theme %s and keywords %s", theme, strings.Join(kws, ", "))
	case themeMatched:
		return fmt.Sprintf("shares theme %s", theme)
	case len(kws) > 0:
		return fmt.Sprintf("shares keywords %s", strings.Join(kws, ", "))
	}
	return "similar to your pitches"
}
