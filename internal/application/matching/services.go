// Package matching implements the discovery use-cases consumed by the HTTP
// layer: similar projects, collaborators, compatibility and recommendations.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
	engine "github.com/bryanwahyu/pitchlens/internal/matching"
	"github.com/bryanwahyu/pitchlens/internal/metrics"
	"github.com/bryanwahyu/pitchlens/internal/recommend"
	"github.com/bryanwahyu/pitchlens/internal/similarity"
)

// Method selects the similarity measure of FindSimilarProjects.
type Method string

const (
	MethodKeywords  Method = "keywords"
	MethodEmbedding Method = "embedding"
)

// Valid reports whether m is a known method; empty means keywords.
func (m Method) Valid() bool {
	return m == "" || m == MethodKeywords || m == MethodEmbedding
}

// DefaultCandidateLimit caps complete pitches loaded per query.
const DefaultCandidateLimit = 1000

// Service reads the pitch store; its only write is the related_ids cache.
type Service struct {
	Repo pitch.Repository
	Log  zerolog.Logger
	// CandidateLimit caps the candidate pool; 0 means DefaultCandidateLimit.
	CandidateLimit int
}

// SimilarQuery parameters of FindSimilarProjects. Nil MinScore means the engine default.
type SimilarQuery struct {
	Limit         int
	Theme         pitch.Theme
	MinScore      *float64
	Method        Method
	AllowFallback bool
}

// CollaboratorQuery parameters of FindCollaborators.
type CollaboratorQuery struct {
	Limit    int
	MinScore *float64
}

// Compatibility is the result of ComputeCompatibility.
type Compatibility struct {
	PitchA         pitch.ID `json:"pitch_a"`
	PitchB         pitch.ID `json:"pitch_b"`
	Score          float64  `json:"score"`
	SharedKeywords []string `json:"shared_keywords"`
	NovelKeywords  []string `json:"novel_keywords"`
}

// Recommendations bundles the profile used with the page it produced.
type Recommendations struct {
	Profile recommend.Profile `json:"profile"`
	recommend.Page
}

// FindSimilarProjects ranks complete pitches like id.
func (s *Service) FindSimilarProjects(ctx context.Context, id pitch.ID, q SimilarQuery) ([]engine.Match, error) {
	defer observe("similar", time.Now())

	src, err := s.analyzedPitch(ctx, id)
	if err != nil {
		return nil, err
	}
	pool, err := s.similarPool(ctx, src, q)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	opts := engine.Options{Limit: q.Limit, MinScore: engine.DefaultMinScore, Theme: q.Theme, AllowFallback: q.AllowFallback}
	if q.MinScore != nil {
		opts.MinScore = *q.MinScore
	}
	if q.Method == MethodEmbedding {
		return engine.FindSimilarByEmbedding(src, pool, opts)
	}
	matches := engine.FindSimilar(src, pool, opts)
	if q.Theme == "" {
		s.refreshRelated(ctx, id, matches)
	}
	return matches, nil
}

// refreshRelated stores an unfiltered keyword ranking as the pitch's related
// cache. Failures are only logged.
func (s *Service) refreshRelated(ctx context.Context, id pitch.ID, matches []engine.Match) {
	ids := make([]pitch.ID, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.PitchID)
	}
	if err := s.Repo.UpdateRelated(ctx, id, ids); err != nil {
		s.Log.Warn().Str("pitch_id", string(id)).Err(err).Msg("refresh related cache")
	}
}

// FindCollaborators ranks complete pitches of other owners by compatibility with id.
func (s *Service) FindCollaborators(ctx context.Context, id pitch.ID, q CollaboratorQuery) ([]engine.Match, error) {
	defer observe("collaborators", time.Now())

	src, err := s.analyzedPitch(ctx, id)
	if err != nil {
		return nil, err
	}
	pool, err := s.Repo.List(ctx, pitch.ListFilter{Status: pitch.StatusComplete, ExcludeOwnerID: src.OwnerID, Limit: s.candidateLimit()})
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	opts := engine.Options{Limit: q.Limit, MinScore: engine.DefaultMinScore, ExcludeOwnerID: src.OwnerID}
	if q.MinScore != nil {
		opts.MinScore = *q.MinScore
	}
	return engine.FindComplementary(src, pool, opts), nil
}

// ComputeCompatibility scores how well b complements a.
func (s *Service) ComputeCompatibility(ctx context.Context, a, b pitch.ID) (Compatibility, error) {
	pa, err := s.Repo.Get(ctx, a)
	if err != nil {
		return Compatibility{}, err
	}
	pb, err := s.Repo.Get(ctx, b)
	if err != nil {
		return Compatibility{}, err
	}
	score, err := engine.ComputeCompatibility(pa, pb)
	if err != nil {
		return Compatibility{}, err
	}
	return Compatibility{
		PitchA:         a,
		PitchB:         b,
		Score:          score,
		SharedKeywords: similarity.Shared(pa.Terms(), pb.Terms()),
		NovelKeywords:  similarity.Novel(pa.Terms(), pb.Terms()),
	}, nil
}

// GetRecommendations profiles userID's complete pitches and ranks other
// owners' pitches against it. No analyzed pitch yields an empty page.
func (s *Service) GetRecommendations(ctx context.Context, userID string, opts recommend.Options) (Recommendations, error) {
	defer observe("recommendations", time.Now())

	owned, err := s.Repo.List(ctx, pitch.ListFilter{Status: pitch.StatusComplete, OwnerID: userID, Limit: s.candidateLimit()})
	if err != nil {
		return Recommendations{}, fmt.Errorf("load owned pitches: %w", err)
	}
	prof := recommend.BuildProfile(userID, owned)
	if prof.Empty() {
		s.Log.Debug().Str("user_id", userID).Msg("no analyzed pitches, empty recommendations")
		return Recommendations{Profile: prof, Page: recommend.Recommend(prof, nil, opts)}, nil
	}

	pool, err := s.Repo.List(ctx, pitch.ListFilter{Status: pitch.StatusComplete, ExcludeOwnerID: userID, Limit: s.candidateLimit()})
	if err != nil {
		return Recommendations{}, fmt.Errorf("load candidates: %w", err)
	}
	return Recommendations{Profile: prof, Page: recommend.Recommend(prof, pool, opts)}, nil
}

// similarPool loads candidates; the embedding method uses the store's vector
// index when it has one.
func (s *Service) similarPool(ctx context.Context, src *pitch.Pitch, q SimilarQuery) ([]*pitch.Pitch, error) {
	vs, ok := s.Repo.(pitch.VectorSearcher)
	if q.Method == MethodEmbedding && ok && src.HasEmbedding() && (q.AllowFallback || !src.EmbeddingFallback) {
		return vs.NearestByEmbedding(ctx, src.Embedding, src.ID, q.AllowFallback, s.candidateLimit())
	}
	return s.Repo.List(ctx, pitch.ListFilter{Status: pitch.StatusComplete, Theme: q.Theme, Limit: s.candidateLimit()})
}

func (s *Service) analyzedPitch(ctx context.Context, id pitch.ID) (*pitch.Pitch, error) {
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Analyzed() {
		return nil, fmt.Errorf("pitch %s is %s: %w", id, p.Status, pitch.ErrNotAnalyzed)
	}
	return p, nil
}

func (s *Service) candidateLimit() int {
	if s.CandidateLimit > 0 {
		return s.CandidateLimit
	}
	return DefaultCandidateLimit
}

func observe(query string, start time.Time) {
	metrics.RecordMatchQuery(query, time.Since(start))
}
