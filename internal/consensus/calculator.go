// Package consensus aggregates per-source ranking rows into a single
// consensus rank and a cross-source disagreement score per figure.
//
// The consensus formula is the plain mean of per-source average ranks:
// only sources that actually ranked the figure contribute. This is the
// single formula in the repository; there is no coverage-aware padding
// of missing figures.
package consensus

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/histrank/canon/internal/store"
)

// Summary is the derived pair persisted on a figure.
type Summary struct {
	ConsensusRank float64
	VarianceScore float64
	SourceCount   int
	SampleCount   int
}

// Recompute aggregates one figure's ranking rows.
//
// Rows are grouped by source; each source's samples average to one rank,
// and the consensus rank is the mean of those per-source averages,
// rounded to one decimal place. The variance score is the coefficient of
// variation of the per-source averages (population standard deviation
// over their mean), clamped to [0, 1]; a single contributing source
// scores exactly 0.
func Recompute(rows []*store.Ranking) (Summary, bool) {
	if len(rows) == 0 {
		return Summary{}, false
	}

	bySource := map[string][]int{}
	for _, r := range rows {
		bySource[r.Source] = append(bySource[r.Source], r.Rank)
	}

	sources := make([]string, 0, len(bySource))
	for s := range bySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	averages := make([]float64, 0, len(sources))
	for _, s := range sources {
		ranks := bySource[s]
		sum := 0
		for _, r := range ranks {
			sum += r
		}
		averages = append(averages, float64(sum)/float64(len(ranks)))
	}

	mean := 0.0
	for _, a := range averages {
		mean += a
	}
	mean /= float64(len(averages))

	variance := 0.0
	if len(averages) >= 2 && mean != 0 {
		sumSq := 0.0
		for _, a := range averages {
			d := a - mean
			sumSq += d * d
		}
		stdDev := math.Sqrt(sumSq / float64(len(averages)))
		variance = stdDev / mean
		if variance > 1 {
			variance = 1
		}
		if variance < 0 {
			variance = 0
		}
	}

	return Summary{
		ConsensusRank: math.Round(mean*10) / 10,
		VarianceScore: variance,
		SourceCount:   len(averages),
		SampleCount:   len(rows),
	}, true
}

// RecomputeFigure recalculates and persists one figure's consensus rank
// and variance score. A figure with no ranking rows is left untouched.
func RecomputeFigure(ctx context.Context, st store.Store, figureID string) (Summary, error) {
	rows, err := st.ListRankings(ctx, figureID)
	if err != nil {
		return Summary{}, err
	}
	summary, ok := Recompute(rows)
	if !ok {
		return Summary{}, nil
	}
	if err := st.SetConsensus(ctx, figureID, summary.ConsensusRank, summary.VarianceScore); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// RecomputeAll recalculates every figure that has at least one ranking
// row. It must run only after all imports and merges for the run have
// committed; interleaving would aggregate over a half-migrated table.
func RecomputeAll(ctx context.Context, st store.Store) (int, error) {
	ids, err := st.ListRankedFigureIDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := RecomputeFigure(ctx, st, id); err != nil {
			return 0, fmt.Errorf("recomputing %s: %w", id, err)
		}
	}
	return len(ids), nil
}
