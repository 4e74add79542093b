package main

import (
	"context"
	"fmt"

	"github.com/histrank/canon/internal/consensus"
)

func runConsensus(args []string) error {
	flags, positional, err := splitFlags(args, nil)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("usage: canon consensus [figureID]")
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

	if len(positional) == 1 {
		id := positional[0]
		summary, err := consensus.RecomputeFigure(ctx, s, id)
		if err != nil {
			return err
		}
		if summary.SampleCount == 0 {
			fmt.Printf("%s: no ranking rows\n", id)
			return nil
		}
		fmt.Printf("%s: consensus %.1f, variance %.4f (%d sources, %d samples)\n",
			id, summary.ConsensusRank, summary.VarianceScore,
			summary.SourceCount, summary.SampleCount)
		return nil
	}

	n, err := consensus.RecomputeAll(ctx, s)
	if err != nil {
		return err
	}
	fmt.Printf("Recomputed consensus for %d figures\n", n)
	return nil
}
