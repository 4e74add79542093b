package main

import (
	"context"
	"fmt"
)

func runStats(args []string) error {
	flags, _, err := splitFlags(args, nil)
	if err != nil {
		return err
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

	stats, err := s.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Figures:   %d\n", stats.FigureCount)
	fmt.Printf("Rankings:  %d (from %d sources)\n", stats.RankingCount, stats.SourceCount)
	fmt.Printf("Aliases:   %d\n", stats.AliasCount)
	if stats.FigureCount > 0 {
		coverage := float64(stats.RankedCount) / float64(stats.FigureCount) * 100
		fmt.Printf("Ranked:    %d/%d figures (%.1f%%)\n", stats.RankedCount, stats.FigureCount, coverage)
	}
	if stats.DBSizeBytes > 0 {
		fmt.Printf("DB size:   %.1f KB\n", float64(stats.DBSizeBytes)/1024)
	}
	return nil
}
