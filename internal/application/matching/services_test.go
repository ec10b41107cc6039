package matching

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/pitchlens/internal/domain/pitch"
	"github.com/bryanwahyu/pitchlens/internal/infra/db/memory"
	"github.com/bryanwahyu/pitchlens/internal/recommend"
	"github.com/bryanwahyu/pitchlens/internal/similarity"
)

func put(repo *memory.PitchRepository, id, owner string, status pitch.Status, theme pitch.Theme, terms ...string) {
	kws := make([]pitch.Keyword, len(terms))
	for i, t := range terms {
		kws[i] = pitch.Keyword{Term: t, Score: 1}
	}
	repo.Put(&pitch.Pitch{ID: pitch.ID(id), OwnerID: owner, Status: status, Theme: theme, Keywords: kws})
}

func fixture() (*Service, *memory.PitchRepository) {
	repo := memory.NewPitchRepository()
	put(repo, "a", "alice", pitch.StatusComplete, pitch.ThemeFinance, "ai", "startup", "fintech")
	put(repo, "b", "bob", pitch.StatusComplete, pitch.ThemeFinance, "ai", "startup", "design", "marketing")
	put(repo, "c", "carol", pitch.StatusComplete, pitch.ThemeHealth, "clinic", "nurses")
	put(repo, "a2", "alice", pitch.StatusComplete, pitch.ThemeFinance, "ai", "startup", "fintech")
	put(repo, "p", "dave", pitch.StatusPending, pitch.ThemeFinance)
	return &Service{Repo: repo, Log: zerolog.Nop()}, repo
}

func ptr(f float64) *float64 { return &f }

func TestFindSimilarProjects(t *testing.T) {
	svc, _ := fixture()
	got, err := svc.FindSimilarProjects(context.Background(), "a", SimilarQuery{Limit: 5})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(got) != 2 || got[0].PitchID != "a2" || got[1].PitchID != "b" {
		t.Errorf("got %+v, want [a2 b]", got)
	}

	got, err = svc.FindSimilarProjects(context.Background(), "a", SimilarQuery{Limit: 5, MinScore: ptr(0.5)})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(got) != 1 || got[0].PitchID != "a2" {
		t.Errorf("minScore 0.5 got %+v, want [a2]", got)
	}
}

func TestFindSimilarProjectsRefreshesRelatedCache(t *testing.T) {
	svc, repo := fixture()
	if _, err := svc.FindSimilarProjects(context.Background(), "a", SimilarQuery{Limit: 5}); err != nil {
		t.Fatalf("error = %v", err)
	}
	p, _ := repo.Get(context.Background(), "a")
	if len(p.RelatedIDs) != 2 || p.RelatedIDs[0] != "a2" || p.RelatedIDs[1] != "b" {
		t.Errorf("related = %v, want [a2 b]", p.RelatedIDs)
	}

	// a theme filter narrows the ranking, so the cache is left alone
	if _, err := svc.FindSimilarProjects(context.Background(), "a", SimilarQuery{Limit: 5, Theme: pitch.ThemeHealth}); err != nil {
		t.Fatalf("error = %v", err)
	}
	p, _ = repo.Get(context.Background(), "a")
	if len(p.RelatedIDs) != 2 {
		t.Errorf("related after themed query = %v, want unchanged", p.RelatedIDs)
	}
}

func TestFindSimilarProjectsErrors(t *testing.T) {
	svc, _ := fixture()
	if _, err := svc.FindSimilarProjects(context.Background(), "missing", SimilarQuery{}); !errors.Is(err, pitch.ErrNotFound) {
		t.Errorf("missing error = %v, want ErrNotFound", err)
	}
	if _, err := svc.FindSimilarProjects(context.Background(), "p", SimilarQuery{}); !errors.Is(err, pitch.ErrNotAnalyzed) {
		t.Errorf("pending error = %v, want ErrNotAnalyzed", err)
	}
}

func TestFindSimilarProjectsByEmbeddingMismatch(t *testing.T) {
	svc, repo := fixture()
	repo.Put(&pitch.Pitch{ID: "e1", OwnerID: "x", Status: pitch.StatusComplete, Embedding: []float32{1, 0}})
	repo.Put(&pitch.Pitch{ID: "e2", OwnerID: "y", Status: pitch.StatusComplete, Embedding: []float32{1, 0, 0}})

	_, err := svc.FindSimilarProjects(context.Background(), "e1", SimilarQuery{Method: MethodEmbedding})
	if !errors.Is(err, similarity.ErrDimensionMismatch) {
		t.Errorf("error = %v, want ErrDimensionMismatch", err)
	}
}

func TestFindCollaboratorsExcludesOwner(t *testing.T) {
	svc, _ := fixture()
	got, err := svc.FindCollaborators(context.Background(), "a", CollaboratorQuery{Limit: 5})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(got) != 1 || got[0].PitchID != "b" {
		t.Fatalf("got %+v, want [b]", got)
	}
	if math.Abs(got[0].Score-0.5) > 1e-9 {
		t.Errorf("score = %v, want 0.5", got[0].Score)
	}
}

func TestComputeCompatibility(t *testing.T) {
	svc, _ := fixture()
	got, err := svc.ComputeCompatibility(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if math.Abs(got.Score-0.5) > 1e-9 {
		t.Errorf("score = %v, want 0.5", got.Score)
	}
	if len(got.SharedKeywords) != 2 || len(got.NovelKeywords) != 2 {
		t.Errorf("shared=%v novel=%v", got.SharedKeywords, got.NovelKeywords)
	}

	if _, err := svc.ComputeCompatibility(context.Background(), "a", "p"); !errors.Is(err, pitch.ErrNotAnalyzed) {
		t.Errorf("pending error = %v, want ErrNotAnalyzed", err)
	}
	if _, err := svc.ComputeCompatibility(context.Background(), "a", "zzz"); !errors.Is(err, pitch.ErrNotFound) {
		t.Errorf("missing error = %v, want ErrNotFound", err)
	}
}

func TestGetRecommendations(t *testing.T) {
	svc, _ := fixture()
	got, err := svc.GetRecommendations(context.Background(), "alice", recommend.DefaultOptions())
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if got.Profile.PitchCount != 2 {
		t.Errorf("profile pitches = %d, want 2", got.Profile.PitchCount)
	}
	if len(got.Items) != 1 || got.Items[0].PitchID != "b" {
		t.Fatalf("items = %+v, want [b]", got.Items)
	}
	if got.Items[0].Reason != "shares theme finance and keywords ai, startup" {
		t.Errorf("reason = %q", got.Items[0].Reason)
	}
}

func TestGetRecommendationsNoHistory(t *testing.T) {
	svc, _ := fixture()
	got, err := svc.GetRecommendations(context.Background(), "newcomer", recommend.DefaultOptions())
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if got.Items == nil || len(got.Items) != 0 {
		t.Errorf("items = %#v, want empty list", got.Items)
	}
}

type vectorRepo struct {
	*memory.PitchRepository
	calls int
	pool  []*pitch.Pitch
}

func (v *vectorRepo) NearestByEmbedding(_ context.Context, _ []float32, _ pitch.ID, _ bool, _ int) ([]*pitch.Pitch, error) {
	v.calls++
	return v.pool, nil
}

func TestFindSimilarProjectsUsesVectorIndex(t *testing.T) {
	mem := memory.NewPitchRepository()
	src := &pitch.Pitch{ID: "s", OwnerID: "x", Status: pitch.StatusComplete, Embedding: []float32{1, 0}}
	near := &pitch.Pitch{ID: "n", OwnerID: "y", Status: pitch.StatusComplete, Embedding: []float32{1, 0.1}}
	mem.Put(src)
	mem.Put(near)
	mem.Put(&pitch.Pitch{ID: "far", OwnerID: "z", Status: pitch.StatusComplete, Embedding: []float32{1, 0}})
	repo := &vectorRepo{PitchRepository: mem, pool: []*pitch.Pitch{near}}
	svc := &Service{Repo: repo, Log: zerolog.Nop()}

	got, err := svc.FindSimilarProjects(context.Background(), "s", SimilarQuery{Method: MethodEmbedding})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("NearestByEmbedding calls = %d, want 1", repo.calls)
	}
	if len(got) != 1 || got[0].PitchID != "n" {
		t.Errorf("got %+v, want [n]", got)
	}

	if _, err := svc.FindSimilarProjects(context.Background(), "s", SimilarQuery{}); err != nil {
		t.Fatalf("keywords error = %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("keyword query must not hit the vector index")
	}
}
