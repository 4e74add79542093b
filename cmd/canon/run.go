package main

import (
	"context"
	"fmt"

	"github.com/histrank/canon/internal/pipeline"
)

func runPipeline(args []string) error {
	flags, _, err := splitFlags(args, map[string]bool{
		"auto-merge": true, "dry-run": true, "n": true,
	})
	if err != nil {
		return err
	}
	dryRun := flags["dry-run"] == "true" || flags["n"] == "true"

	cfg, err := resolveSettings(flags)
	if err != nil {
		return err
	}
	window, err := cfg.WindowValue()
	if err != nil {
		return err
	}
	autoMerge, err := cfg.AutoMergeValue()
	if err != nil {
		return err
	}
	if cfg.RankingsDir.Value == "" {
		return fmt.Errorf("rankings directory is required (--dir, CANON_RANKINGS_DIR, or rankings_dir in config)")
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	runner, err := pipeline.NewRunner(s, pipeline.Options{
		Dir:           cfg.RankingsDir.Value,
		SeedPath:      cfg.SeedsPath.Value,
		CompoundsPath: cfg.CompoundsPath.Value,
		Window:        window,
		AutoMerge:     autoMerge,
		DryRun:        dryRun,
	})
	if err != nil {
		return err
	}

	report, err := runner.Run(context.Background())
	if err != nil {
		return err
	}

	if report.DryRun {
		fmt.Println("Dry run — no changes written")
	}
	fmt.Printf("Aliases: %d loaded, %d skipped\n", report.AliasesLoaded, report.AliasesSkipped)
	for _, f := range report.Files {
		fmt.Printf("  %s (%s/%s): %d matched, %d unmatched, %d rows\n",
			f.Path, f.Source, f.SampleID, f.Matched, f.Unmatched, f.Rows)
	}
	fmt.Printf("Rows written: %d  Unmatched: %d\n", report.RowsWritten, report.Unmatched)
	if report.DryRun {
		return nil
	}
	fmt.Printf("Consensus recomputed for %d figures\n", report.Recomputed)
	fmt.Printf("Duplicates: %d candidates, %d safe\n", report.Candidates, report.SafePairs)
	if report.Merged > 0 || report.Skipped > 0 {
		fmt.Printf("Auto-merged %d pairs (skipped %d), recomputed %d survivors\n",
			report.Merged, report.Skipped, report.RecomputedAfterMerge)
	}
	return nil
}
