// Package merge consolidates confirmed duplicate figure pairs.
//
// One figure survives as the primary; the other's field data, ranking
// rows, and aliases migrate onto it before the row is deleted. Primary
// selection is commutative: merge(A,B) and merge(B,A) pick the same
// survivor, because the tie-break chain terminates in a total order
// over figure ids.
package merge

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/histrank/canon/internal/names"
	"github.com/histrank/canon/internal/store"
)

// ErrStaleTarget marks a merge pair whose figure was already absorbed by
// an earlier merge in the same batch.
var ErrStaleTarget = errors.New("merge target no longer exists")

// Completeness weights. A populated field contributes its weight to the
// figure's completeness score; the more complete record survives.
const (
	weightWikiSlug   = 5
	weightHPIRank    = 3
	weightHPIScore   = 2
	weightOtherField = 1
)

// Result describes one applied merge.
type Result struct {
	SurvivorID    string
	AbsorbedID    string
	RankingsMoved int64
	AliasesMoved  int64
}

// CompletenessScore sums the weights of the figure's populated fields.
func CompletenessScore(f *store.Figure) int {
	score := 0
	if f.WikiSlug != "" {
		score += weightWikiSlug
	}
	if f.HPIRank != nil {
		score += weightHPIRank
	}
	if f.HPIScore != nil {
		score += weightHPIScore
	}
	if f.BirthYear != nil {
		score += weightOtherField
	}
	if f.DeathYear != nil {
		score += weightOtherField
	}
	if f.Domain != "" {
		score += weightOtherField
	}
	if f.Era != "" {
		score += weightOtherField
	}
	if f.Region != "" {
		score += weightOtherField
	}
	if f.Latitude != nil && f.Longitude != nil {
		score += weightOtherField
	}
	if f.Pageviews != nil {
		score += weightOtherField
	}
	if f.ConsensusRank != nil {
		score += weightOtherField
	}
	return score
}

// ChoosePrimary selects the surviving figure of a confirmed pair.
// Order of precedence: higher completeness score, lower (better)
// consensus rank, lower HPI rank, then smaller id. The id comparison
// makes the ordering total, which is what makes selection commutative.
func ChoosePrimary(a, b *store.Figure) (primary, secondary *store.Figure) {
	if better(a, b) {
		return a, b
	}
	return b, a
}

func better(a, b *store.Figure) bool {
	sa, sb := CompletenessScore(a), CompletenessScore(b)
	if sa != sb {
		return sa > sb
	}
	if ca, cb := floatOrInf(a.ConsensusRank), floatOrInf(b.ConsensusRank); ca != cb {
		return ca < cb
	}
	if ha, hb := intOrInf(a.HPIRank), intOrInf(b.HPIRank); ha != hb {
		return ha < hb
	}
	return a.ID < b.ID
}

func floatOrInf(v *float64) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return *v
}

func intOrInf(v *int) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return float64(*v)
}

// Merge consolidates two live figures and returns the survivor.
// After it returns, the consensus calculator must re-run for the
// survivor: its sample count changed.
func Merge(ctx context.Context, st store.Store, idA, idB string) (*Result, error) {
	if idA == idB {
		return nil, fmt.Errorf("merging %s with itself", idA)
	}

	a, err := st.GetFigure(ctx, idA)
	if err != nil {
		return nil, err
	}
	b, err := st.GetFigure(ctx, idB)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("figure %s: %w", idA, ErrStaleTarget)
	}
	if b == nil {
		return nil, fmt.Errorf("figure %s: %w", idB, ErrStaleTarget)
	}

	primary, secondary := ChoosePrimary(a, b)

	if coalesceFields(primary, secondary) {
		if err := st.UpdateFigure(ctx, primary); err != nil {
			return nil, fmt.Errorf("updating survivor %s: %w", primary.ID, err)
		}
	}

	rankingsMoved, err := st.RepointRankings(ctx, secondary.ID, primary.ID)
	if err != nil {
		return nil, err
	}
	aliasesMoved, err := st.RepointAliases(ctx, secondary.ID, primary.ID)
	if err != nil {
		return nil, err
	}

	// Both original canonical names must keep resolving to the survivor
	// in future imports.
	for _, name := range []string{primary.Name, secondary.Name} {
		norm := names.Normalize(name)
		if norm == "" {
			continue
		}
		if err := st.UpsertAlias(ctx, norm, primary.ID); err != nil {
			return nil, err
		}
	}

	if err := st.DeleteFigure(ctx, secondary.ID); err != nil {
		return nil, fmt.Errorf("deleting absorbed figure %s: %w", secondary.ID, err)
	}

	return &Result{
		SurvivorID:    primary.ID,
		AbsorbedID:    secondary.ID,
		RankingsMoved: rankingsMoved,
		AliasesMoved:  aliasesMoved,
	}, nil
}

// coalesceFields copies each informative field from the secondary onto
// the primary where the primary lacks a value. A primary value that is
// already set is never overwritten. Derived consensus fields are not
// merged; the calculator recomputes them from the migrated rows.
// Returns true if anything changed.
func coalesceFields(primary, secondary *store.Figure) bool {
	changed := false

	if primary.BirthYear == nil && secondary.BirthYear != nil {
		primary.BirthYear = secondary.BirthYear
		changed = true
	}
	if primary.DeathYear == nil && secondary.DeathYear != nil {
		primary.DeathYear = secondary.DeathYear
		changed = true
	}
	if primary.Domain == "" && secondary.Domain != "" {
		primary.Domain = secondary.Domain
		changed = true
	}
	if primary.Era == "" && secondary.Era != "" {
		primary.Era = secondary.Era
		changed = true
	}
	if primary.Region == "" && secondary.Region != "" {
		primary.Region = secondary.Region
		changed = true
	}
	// Coordinates move as a unit; a latitude without its longitude is
	// not a location.
	if primary.Latitude == nil && primary.Longitude == nil &&
		secondary.Latitude != nil && secondary.Longitude != nil {
		primary.Latitude = secondary.Latitude
		primary.Longitude = secondary.Longitude
		changed = true
	}
	if primary.WikiSlug == "" && secondary.WikiSlug != "" {
		primary.WikiSlug = secondary.WikiSlug
		changed = true
	}
	if primary.HPIRank == nil && secondary.HPIRank != nil {
		primary.HPIRank = secondary.HPIRank
		changed = true
	}
	if primary.HPIScore == nil && secondary.HPIScore != nil {
		primary.HPIScore = secondary.HPIScore
		changed = true
	}
	if primary.Pageviews == nil && secondary.Pageviews != nil {
		primary.Pageviews = secondary.Pageviews
		changed = true
	}

	return changed
}
