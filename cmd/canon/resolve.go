package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/histrank/canon/internal/resolve"
)

func runResolve(args []string) error {
	flags, positional, err := splitFlags(args, nil)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return fmt.Errorf("usage: canon resolve <name>")
	}
	name := strings.Join(positional, " ")

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
	res := resolve.NewResolver(snap, compounds).Resolve(name)

	if !res.Matched() {
		fmt.Printf("%q: no match\n", name)
		return nil
	}
	fmt.Printf("%q -> %s (stage: %s)\n", name, strings.Join(res.FigureIDs, ", "), res.Stage)

	for _, id := range res.FigureIDs {
		f, err := s.GetFigure(ctx, id)
		if err != nil {
			return err
		}
		if f == nil {
			continue
		}
		line := fmt.Sprintf("  %s: %s", f.ID, f.Name)
		if f.ConsensusRank != nil {
			line += fmt.Sprintf("  consensus %.1f", *f.ConsensusRank)
		}
		if f.HPIRank != nil {
			line += fmt.Sprintf("  hpi #%d", *f.HPIRank)
		}
		fmt.Println(line)
	}
	return nil
}
