// Package recommend builds per-user interest profiles from analyzed pitches
// and turns them into ranked, explained recommendations.
package recommend

import (
	"sort"
	"strings"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
)

// ThemeCount is one entry of a profile's ranked theme list.
type ThemeCount struct {
	Theme pitch.Theme `json:"theme"`
	Count int         `json:"count"`
}

// Profile aggregates a user's analyzed pitches. An empty profile means
// insufficient data, not an error.
type Profile struct {
	UserID     string          `json:"user_id"`
	PitchCount int             `json:"pitch_count"`
	Themes     []ThemeCount    `json:"themes"`
	Keywords   []pitch.Keyword `json:"keywords"`
}

// Empty reports whether the profile was built from no analyzed pitch.
func (p Profile) Empty() bool {
	return p.PitchCount == 0
}

// TopThemes returns up to n themes, most frequent first.
func (p Profile) TopThemes(n int) []pitch.Theme {
	if n > len(p.Themes) {
		n = len(p.Themes)
	}
	out := make([]pitch.Theme, 0, n)
	for _, tc := range p.Themes[:max(n, 0)] {
		out = append(out, tc.Theme)
	}
	return out
}

// TopKeywords returns up to n keywords, most relevant first. n <= 0 means all.
func (p Profile) TopKeywords(n int) []pitch.Keyword {
	if n > 0 && len(p.Keywords) > n {
		return p.Keywords[:n]
	}
	return p.Keywords
}

// BuildProfile aggregates the complete pitches owned by userID. Themes are
// ranked by frequency; each keyword's score is its summed relevance divided by
// the number of pitches aggregated.
func BuildProfile(userID string, owned []*pitch.Pitch) Profile {
	prof := Profile{UserID: userID, Themes: []ThemeCount{}, Keywords: []pitch.Keyword{}}

	themeCounts := map[pitch.Theme]int{}
	relevance := map[string]float64{}
	for _, p := range owned {
		if !p.Analyzed() || p.OwnerID != userID {
			continue
		}
		prof.PitchCount++
		if p.Theme != "" {
			themeCounts[p.Theme]++
		}
		for _, k := range p.Keywords {
			term := strings.ToLower(strings.TrimSpace(k.Term))
			if term == "" {
				continue
			}
			relevance[term] += k.Score
		}
	}
	if prof.PitchCount == 0 {
		return prof
	}

	for th, n := range themeCounts {
		prof.Themes = append(prof.Themes, ThemeCount{Theme: th, Count: n})
	}
	sort.Slice(prof.Themes, func(i, j int) bool {
		if prof.Themes[i].Count != prof.Themes[j].Count {
			return prof.Themes[i].Count > prof.Themes[j].Count
		}
		return prof.Themes[i].Theme < prof.Themes[j].Theme
	})

	n := float64(prof.PitchCount)
	for term, sum := range relevance {
		prof.Keywords = append(prof.Keywords, pitch.Keyword{Term: term, Score: sum / n})
	}
	sort.Slice(prof.Keywords, func(i, j int) bool {
		if prof.Keywords[i].Score != prof.Keywords[j].Score {
			return prof.Keywords[i].Score > prof.Keywords[j].Score
		}
		return prof.Keywords[i].Term < prof.Keywords[j].Term
	})
	return prof
}
