package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/histrank/canon/internal/resolve"
	"github.com/histrank/canon/internal/store"
)

// RankingSummary reports one ranking import run.
type RankingSummary struct {
	RunID    string
	Source   string
	SampleID string
	DryRun   bool

	Arrays          int
	MalformedArrays int
	MalformedRows   int
	Duplicates      int

	Matched      int // names the cascade resolved
	Unmatched    int // names it could not
	RowsWritten  int // ranking rows inserted (compounds expand to several)
	RowsReplaced int64

	StageCounts  map[resolve.Stage]int
	ArtifactPath string
}

// ImportRankings resolves one ranking file's names and writes the
// resulting rows for (source, sampleID). Import is a bulk replace:
// existing rows for the same source and sample are deleted first, so
// re-importing a corrected file is idempotent. A compound name writes one
// row per mapped figure, all at the same rank. Unresolved names go to the
// unmatched artifact next to the input file.
//
// Dry run resolves and counts everything but writes neither rows nor
// artifact.
func ImportRankings(ctx context.Context, st store.Store, r *resolve.Resolver, path, source, sampleID string, dryRun bool) (*RankingSummary, error) {
	if source == "" || sampleID == "" {
		return nil, fmt.Errorf("source and sample id are required")
	}

	parsed, err := ParseRankingFile(path)
	if err != nil {
		return nil, err
	}

	summary := &RankingSummary{
		RunID:           uuid.NewString(),
		Source:          source,
		SampleID:        sampleID,
		DryRun:          dryRun,
		Arrays:          parsed.Arrays,
		MalformedArrays: parsed.MalformedArrays,
		MalformedRows:   parsed.MalformedRows,
		Duplicates:      parsed.Duplicates,
		StageCounts:     map[resolve.Stage]int{},
	}

	var rows []*store.Ranking
	var unmatched []Unmatched
	for _, rr := range parsed.Rows {
		res := r.Resolve(rr.Name)
		summary.StageCounts[res.Stage]++
		if !res.Matched() {
			summary.Unmatched++
			unmatched = append(unmatched, Unmatched{Rank: rr.Rank, Name: rr.Name})
			continue
		}
		summary.Matched++
		for _, id := range res.FigureIDs {
			rows = append(rows, &store.Ranking{
				FigureID:      id,
				Source:        source,
				SampleID:      sampleID,
				Rank:          rr.Rank,
				Justification: rr.Contribution,
				RawName:       rr.Name,
				RunID:         summary.RunID,
			})
		}
	}
	summary.RowsWritten = len(rows)

	if dryRun {
		return summary, nil
	}

	replaced, err := st.DeleteRankings(ctx, source, sampleID)
	if err != nil {
		return nil, fmt.Errorf("replacing rows for %s/%s: %w", source, sampleID, err)
	}
	summary.RowsReplaced = replaced

	if err := st.AddRankingBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("writing ranking rows: %w", err)
	}

	artifact, err := WriteUnmatchedArtifact(path, unmatched)
	if err != nil {
		return nil, err
	}
	summary.ArtifactPath = artifact

	return summary, nil
}

// FigureSummary reports one figure dataset import.
type FigureSummary struct {
	Upserted  int
	Malformed int
}

// ImportFigures bulk-upserts a figure dataset file. Upserts key on id and
// never touch the derived consensus fields.
func ImportFigures(ctx context.Context, st store.Store, path string) (*FigureSummary, error) {
	figures, malformed, err := ParseFigureFile(path)
	if err != nil {
		return nil, err
	}
	for _, f := range figures {
		if err := st.UpsertFigure(ctx, f); err != nil {
			return nil, fmt.Errorf("upserting figure %s: %w", f.ID, err)
		}
	}
	return &FigureSummary{Upserted: len(figures), Malformed: malformed}, nil
}

// SeedSummary reports one alias seed load.
type SeedSummary struct {
	Loaded  int
	Skipped int // pairs whose figure id is not live
}

// SeedAliases loads the built-in alias pairs plus an optional seed file
// into the alias table. Pairs pointing at figure ids not present in the
// store are skipped and counted; the seed list is broader than any one
// catalog. A seed path that fails to load is fatal, since the file is
// explicit configuration.
func SeedAliases(ctx context.Context, st store.Store, seedPath string) (*SeedSummary, error) {
	pairs := StaticSeedPairs()
	if seedPath != "" {
		filePairs, err := ParseSeedFile(seedPath)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, filePairs...)
	}

	summary := &SeedSummary{}
	for _, p := range pairs {
		f, err := st.GetFigure(ctx, p.FigureID)
		if err != nil {
			return nil, err
		}
		if f == nil {
			summary.Skipped++
			continue
		}
		if err := st.UpsertAlias(ctx, p.Alias, p.FigureID); err != nil {
			return nil, fmt.Errorf("seeding alias %q: %w", p.Alias, err)
		}
		summary.Loaded++
	}
	return summary, nil
}
