package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/histrank/canon/internal/dedupe"
	"github.com/histrank/canon/internal/pipeline"
)

func runDuplicates(args []string) error {
	flags, _, err := splitFlags(args, map[string]bool{"json": true})
	if err != nil {
		return err
	}

	cfg, err := resolveSettings(flags)
	if err != nil {
		return err
	}
	window, err := cfg.WindowValue()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := pipeline.DetectFromStore(context.Background(), s, window)
	if err != nil {
		return err
	}

	if flags["json"] == "true" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Scanned %d figures (%d pairs compared)\n", report.WindowSize, report.PairsCompared)
	fmt.Printf("Candidates: %d  Safe: %d\n", len(report.Candidates), len(report.Safe))

	if len(report.Candidates) > 0 {
		fmt.Println("\nCandidate pairs:")
		printPairs(report.Candidates)
	}
	if len(report.Safe) > 0 {
		fmt.Println("\nSafe pairs (mergeable via canon merge --safe):")
		printPairs(report.Safe)
	}
	return nil
}

func printPairs(pairs []dedupe.Pair) {
	for _, p := range pairs {
		fmt.Printf("  [%s] %s (%s)", p.Rule, p.AName, p.AID)
		if p.AHPIRank != nil {
			fmt.Printf(" hpi #%d", *p.AHPIRank)
		}
		fmt.Printf("  <->  %s (%s)", p.BName, p.BID)
		if p.BHPIRank != nil {
			fmt.Printf(" hpi #%d", *p.BHPIRank)
		}
		fmt.Println()
	}
}
