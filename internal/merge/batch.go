package merge

import (
	"context"
	"fmt"

	"github.com/histrank/canon/internal/dedupe"
	"github.com/histrank/canon/internal/store"
)

// Action records the outcome for one pair in a batch.
type Action struct {
	AID        string `json:"a_id"`
	BID        string `json:"b_id"`
	SurvivorID string `json:"survivor_id,omitempty"`
	Applied    bool   `json:"applied"`
	Reason     string `json:"reason"`
}

// BatchReport summarizes a batch merge run.
type BatchReport struct {
	DryRun  bool     `json:"dry_run"`
	Merged  int      `json:"merged"`
	Skipped int      `json:"skipped"`
	Actions []Action `json:"actions"`

	// Survivors lists the figure ids whose sample counts changed; the
	// consensus calculator must re-run for each.
	Survivors []string `json:"survivors,omitempty"`
}

// Batch applies a precomputed safe-pair list pair-by-pair in its given
// order. A pair whose figure was already absorbed earlier in the batch
// is skipped and logged, never fatal. The batch is not transactional:
// each merge commits row-by-row, and a failure leaves earlier merges in
// place.
func Batch(ctx context.Context, st store.Store, pairs []dedupe.Pair, dryRun bool) (*BatchReport, error) {
	report := &BatchReport{DryRun: dryRun, Actions: make([]Action, 0, len(pairs))}
	survivorSet := map[string]struct{}{}

	for _, p := range pairs {
		act := Action{AID: p.AID, BID: p.BID}

		a, err := st.GetFigure(ctx, p.AID)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", p.AID, err)
		}
		b, err := st.GetFigure(ctx, p.BID)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", p.BID, err)
		}
		if a == nil || b == nil {
			act.Reason = "skipped: figure already absorbed earlier in batch"
			report.Skipped++
			report.Actions = append(report.Actions, act)
			continue
		}

		if dryRun {
			primary, secondary := ChoosePrimary(a, b)
			act.SurvivorID = primary.ID
			act.Reason = fmt.Sprintf("would merge %s into %s", secondary.ID, primary.ID)
			report.Actions = append(report.Actions, act)
			continue
		}

		res, err := Merge(ctx, st, p.AID, p.BID)
		if err != nil {
			return nil, fmt.Errorf("merging %s + %s: %w", p.AID, p.BID, err)
		}
		act.SurvivorID = res.SurvivorID
		act.Applied = true
		act.Reason = fmt.Sprintf("absorbed %s (%d rankings, %d aliases moved)",
			res.AbsorbedID, res.RankingsMoved, res.AliasesMoved)
		report.Merged++
		report.Actions = append(report.Actions, act)

		if _, seen := survivorSet[res.SurvivorID]; !seen {
			survivorSet[res.SurvivorID] = struct{}{}
			report.Survivors = append(report.Survivors, res.SurvivorID)
		}
		// A survivor that later gets absorbed drops out of the list.
		if idx := indexOf(report.Survivors, res.AbsorbedID); idx >= 0 {
			report.Survivors = append(report.Survivors[:idx], report.Survivors[idx+1:]...)
			delete(survivorSet, res.AbsorbedID)
		}
	}

	return report, nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
