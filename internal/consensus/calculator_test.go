package consensus

import (
	"context"
	"math"
	"testing"

	"github.com/histrank/canon/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewStore(store.Config{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rows(specs ...[3]interface{}) []*store.Ranking {
	out := make([]*store.Ranking, 0, len(specs))
	for _, s := range specs {
		out = append(out, &store.Ranking{
			Source:   s[0].(string),
			SampleID: s[1].(string),
			Rank:     s[2].(int),
		})
	}
	return out
}

func TestRecomputeTwoSources(t *testing.T) {
	// Source X samples [10, 14, 12] average to 12; source Y's single
	// sample is 50. Consensus = mean(12, 50) = 31.0; variance is the
	// population CoV: stddev(12, 50) / 31 = 19/31.
	summary, ok := Recompute(rows(
		[3]interface{}{"x", "1", 10},
		[3]interface{}{"x", "2", 14},
		[3]interface{}{"x", "3", 12},
		[3]interface{}{"y", "1", 50},
	))
	if !ok {
		t.Fatal("expected a summary")
	}
	if summary.ConsensusRank != 31.0 {
		t.Errorf("consensus = %v, want 31.0", summary.ConsensusRank)
	}
	want := 19.0 / 31.0
	if math.Abs(summary.VarianceScore-want) > 1e-9 {
		t.Errorf("variance = %v, want %v", summary.VarianceScore, want)
	}
	if summary.SourceCount != 2 || summary.SampleCount != 4 {
		t.Errorf("counts = %+v", summary)
	}
}

func TestRecomputeSingleSourceZeroVariance(t *testing.T) {
	summary, ok := Recompute(rows(
		[3]interface{}{"x", "1", 7},
		[3]interface{}{"x", "2", 9},
	))
	if !ok {
		t.Fatal("expected a summary")
	}
	if summary.ConsensusRank != 8.0 {
		t.Errorf("consensus = %v, want 8.0", summary.ConsensusRank)
	}
	if summary.VarianceScore != 0 {
		t.Errorf("variance = %v, want 0 for a single source", summary.VarianceScore)
	}
}

func TestRecomputeRounding(t *testing.T) {
	// Averages [10, 11]: mean 10.5 stays; [10, 11, 11]: mean 10.666...
	// rounds to 10.7.
	summary, _ := Recompute(rows(
		[3]interface{}{"a", "1", 10},
		[3]interface{}{"b", "1", 11},
		[3]interface{}{"c", "1", 11},
	))
	if summary.ConsensusRank != 10.7 {
		t.Errorf("consensus = %v, want 10.7", summary.ConsensusRank)
	}
}

func TestRecomputeBounds(t *testing.T) {
	// The consensus must lie within [min, max] of the per-source
	// averages, and variance within [0, 1], for arbitrary inputs.
	inputs := [][]*store.Ranking{
		rows([3]interface{}{"a", "1", 1}, [3]interface{}{"b", "1", 100}),
		rows([3]interface{}{"a", "1", 3}, [3]interface{}{"b", "1", 3}, [3]interface{}{"c", "1", 3}),
		rows([3]interface{}{"a", "1", 1}, [3]interface{}{"b", "1", 500}, [3]interface{}{"c", "1", 2}),
	}
	for _, in := range inputs {
		summary, ok := Recompute(in)
		if !ok {
			t.Fatal("expected a summary")
		}
		min, max := math.Inf(1), math.Inf(-1)
		bySource := map[string][]int{}
		for _, r := range in {
			bySource[r.Source] = append(bySource[r.Source], r.Rank)
		}
		for _, ranks := range bySource {
			sum := 0
			for _, r := range ranks {
				sum += r
			}
			avg := float64(sum) / float64(len(ranks))
			min = math.Min(min, avg)
			max = math.Max(max, avg)
		}
		if summary.ConsensusRank < min-0.05 || summary.ConsensusRank > max+0.05 {
			t.Errorf("consensus %v outside [%v, %v]", summary.ConsensusRank, min, max)
		}
		if summary.VarianceScore < 0 || summary.VarianceScore > 1 {
			t.Errorf("variance %v outside [0, 1]", summary.VarianceScore)
		}
	}
}

func TestRecomputeVarianceClamped(t *testing.T) {
	// Extreme disagreement: averages [1, 1000]. CoV well above 1 must
	// clamp to exactly 1.
	summary, _ := Recompute(rows(
		[3]interface{}{"a", "1", 1},
		[3]interface{}{"b", "1", 1000},
	))
	if summary.VarianceScore != 1 {
		t.Errorf("variance = %v, want clamped 1", summary.VarianceScore)
	}
}

func TestRecomputeEmpty(t *testing.T) {
	if _, ok := Recompute(nil); ok {
		t.Error("expected no summary for zero rows")
	}
}

func TestRecomputeFigurePersists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertFigure(ctx, &store.Figure{ID: "homer", Name: "Homer"}); err != nil {
		t.Fatalf("UpsertFigure: %v", err)
	}
	if err := s.AddRankingBatch(ctx, []*store.Ranking{
		{FigureID: "homer", Source: "x", SampleID: "1", Rank: 10},
		{FigureID: "homer", Source: "x", SampleID: "2", Rank: 14},
		{FigureID: "homer", Source: "x", SampleID: "3", Rank: 12},
		{FigureID: "homer", Source: "y", SampleID: "1", Rank: 50},
	}); err != nil {
		t.Fatalf("AddRankingBatch: %v", err)
	}

	summary, err := RecomputeFigure(ctx, s, "homer")
	if err != nil {
		t.Fatalf("RecomputeFigure: %v", err)
	}
	if summary.ConsensusRank != 31.0 {
		t.Errorf("consensus = %v", summary.ConsensusRank)
	}

	got, _ := s.GetFigure(ctx, "homer")
	if got.ConsensusRank == nil || *got.ConsensusRank != 31.0 {
		t.Errorf("persisted consensus = %v", got.ConsensusRank)
	}
	if got.VarianceScore == nil {
		t.Fatal("persisted variance missing")
	}
	if math.Abs(*got.VarianceScore-19.0/31.0) > 1e-9 {
		t.Errorf("persisted variance = %v", *got.VarianceScore)
	}
	if got.ConsensusUpdatedAt == nil {
		t.Error("expected update timestamp")
	}
}

func TestRecomputeAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := s.UpsertFigure(ctx, &store.Figure{ID: id, Name: id}); err != nil {
			t.Fatalf("UpsertFigure: %v", err)
		}
	}
	if err := s.AddRankingBatch(ctx, []*store.Ranking{
		{FigureID: "a", Source: "x", SampleID: "1", Rank: 5},
		{FigureID: "b", Source: "x", SampleID: "1", Rank: 9},
	}); err != nil {
		t.Fatalf("AddRankingBatch: %v", err)
	}

	n, err := RecomputeAll(ctx, s)
	if err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	if n != 2 {
		t.Errorf("recomputed %d figures, want 2", n)
	}

	a, _ := s.GetFigure(ctx, "a")
	if a.ConsensusRank == nil || *a.ConsensusRank != 5.0 {
		t.Errorf("figure a consensus = %v", a.ConsensusRank)
	}
}
