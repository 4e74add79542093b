package main

import (
	"context"
	"fmt"

	"github.com/histrank/canon/internal/consensus"
	"github.com/histrank/canon/internal/merge"
	"github.com/histrank/canon/internal/pipeline"
)

func runMerge(args []string) error {
	flags, positional, err := splitFlags(args, map[string]bool{
		"safe": true, "dry-run": true, "n": true,
	})
	if err != nil {
		return err
	}
	dryRun := flags["dry-run"] == "true" || flags["n"] == "true"
	safeMode := flags["safe"] == "true"

	if !safeMode && len(positional) != 2 {
		return fmt.Errorf("usage: canon merge --safe [--dry-run] | canon merge <idA> <idB>")
	}

	cfg, err := resolveSettings(flags)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()

	if !safeMode {
		res, err := merge.Merge(ctx, s, positional[0], positional[1])
		if err != nil {
			return err
		}
		if _, err := consensus.RecomputeFigure(ctx, s, res.SurvivorID); err != nil {
			return err
		}
		fmt.Printf("Merged %s into %s (%d rankings, %d aliases moved)\n",
			res.AbsorbedID, res.SurvivorID, res.RankingsMoved, res.AliasesMoved)
		return nil
	}

	window, err := cfg.WindowValue()
	if err != nil {
		return err
	}
	detection, err := pipeline.DetectFromStore(ctx, s, window)
	if err != nil {
		return err
	}
	if len(detection.Safe) == 0 {
		fmt.Println("No safe pairs to merge")
		return nil
	}

	report, err := merge.Batch(ctx, s, detection.Safe, dryRun)
	if err != nil {
		return err
	}

	for _, act := range report.Actions {
		fmt.Printf("  %s + %s: %s\n", act.AID, act.BID, act.Reason)
	}
	if dryRun {
		fmt.Printf("Dry run: %d pairs would merge, %d skipped\n",
			len(report.Actions)-report.Skipped, report.Skipped)
		return nil
	}

	for _, id := range report.Survivors {
		if _, err := consensus.RecomputeFigure(ctx, s, id); err != nil {
			return fmt.Errorf("recomputing survivor %s: %w", id, err)
		}
	}
	fmt.Printf("Merged %d pairs, skipped %d; recomputed %d survivors\n",
		report.Merged, report.Skipped, len(report.Survivors))
	return nil
}
