package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/histrank/canon/internal/ingest"
	"github.com/histrank/canon/internal/resolve"
)

func runImport(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: canon import figures|rankings <file> [flags]")
	}
	switch args[0] {
	case "figures":
		return runImportFigures(args[1:])
	case "rankings":
		return runImportRankings(args[1:])
	default:
		return fmt.Errorf("unknown import target %q (want figures or rankings)", args[0])
	}
}

func runImportFigures(args []string) error {
	flags, paths, err := splitFlags(args, nil)
	if err != nil {
		return err
	}
	if len(paths) != 1 {
		return fmt.Errorf("usage: canon import figures <file>")
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

	summary, err := ingest.ImportFigures(context.Background(), s, paths[0])
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d figures (%d malformed records skipped)\n",
		summary.Upserted, summary.Malformed)
	return nil
}

func runImportRankings(args []string) error {
	flags, paths, err := splitFlags(args, map[string]bool{"dry-run": true, "n": true})
	if err != nil {
		return err
	}
	if len(paths) != 1 {
		return fmt.Errorf("usage: canon import rankings <file> --source S --sample N [--dry-run]")
	}
	source := flags["source"]
	sample := flags["sample"]
	if source == "" || sample == "" {
		return fmt.Errorf("--source and --sample are required")
	}
	dryRun := flags["dry-run"] == "true" || flags["n"] == "true"

	cfg, err := resolveSettings(flags)
	if err != nil {
		return err
	}
	compounds, err := loadCompounds(cfg)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	snap, err := resolve.LoadSnapshot(ctx, s)
	if err != nil {
		return err
	}
	resolver := resolve.NewResolver(snap, compounds)

	summary, err := ingest.ImportRankings(ctx, s, resolver, paths[0], source, sample, dryRun)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Println("Dry run — no rows written")
	}
	fmt.Printf("Run %s: %s sample %s\n", summary.RunID, summary.Source, summary.SampleID)
	fmt.Printf("  parsed:    %d arrays (%d malformed), %d rows skipped, %d duplicates dropped\n",
		summary.Arrays, summary.MalformedArrays, summary.MalformedRows, summary.Duplicates)
	fmt.Printf("  matched:   %d names -> %d rows", summary.Matched, summary.RowsWritten)
	if summary.RowsReplaced > 0 {
		fmt.Printf(" (replaced %d prior rows)", summary.RowsReplaced)
	}
	fmt.Println()

	stages := make([]string, 0, len(summary.StageCounts))
	for stage := range summary.StageCounts {
		stages = append(stages, string(stage))
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Printf("    %-10s %d\n", stage, summary.StageCounts[resolve.Stage(stage)])
	}

	if summary.Unmatched > 0 {
		fmt.Printf("  unmatched: %d", summary.Unmatched)
		if summary.ArtifactPath != "" {
			fmt.Printf(" -> %s", summary.ArtifactPath)
		}
		fmt.Println()
	}
	return nil
}

func runAliases(args []string) error {
	if len(args) == 0 || args[0] != "seed" {
		return fmt.Errorf("usage: canon aliases seed [<file>]")
	}
	flags, paths, err := splitFlags(args[1:], nil)
	if err != nil {
		return err
	}

	cfg, err := resolveSettings(flags)
	if err != nil {
		return err
	}
	seedPath := cfg.SeedsPath.Value
	if len(paths) == 1 {
		seedPath = paths[0]
	} else if len(paths) > 1 {
		return fmt.Errorf("usage: canon aliases seed [<file>]")
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := ingest.SeedAliases(context.Background(), s, seedPath)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d aliases (%d skipped: figure not in catalog)\n",
		summary.Loaded, summary.Skipped)
	return nil
}
