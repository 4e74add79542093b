// Package pipeline orchestrates a full catalog run in the required
// order: alias seeding, ranking imports, consensus, duplicate detection,
// optional safe-pair merging, and a consensus re-run for the survivors.
//
// The consensus phases never interleave with imports or merges; each
// phase runs only after the previous one has fully committed. After any
// merge the resolver snapshot is stale and is rebuilt before anything
// resolves against it again.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/histrank/canon/internal/consensus"
	"github.com/histrank/canon/internal/dedupe"
	"github.com/histrank/canon/internal/ingest"
	"github.com/histrank/canon/internal/merge"
	"github.com/histrank/canon/internal/resolve"
	"github.com/histrank/canon/internal/store"
)

// Options configures one pipeline run.
type Options struct {
	Dir           string // directory of per-source ranking files
	SeedPath      string // optional alias seed file
	CompoundsPath string // optional compound-name overrides file
	Window        int    // detection window; 0 means dedupe.DefaultWindow
	AutoMerge     bool   // apply the safe-pair report without review
	DryRun        bool
}

// FileResult is one ranking file's import outcome within a run.
type FileResult struct {
	Path      string `json:"path"`
	Source    string `json:"source"`
	SampleID  string `json:"sample_id"`
	Matched   int    `json:"matched"`
	Unmatched int    `json:"unmatched"`
	Rows      int    `json:"rows"`
}

// Report summarizes one full pipeline run.
type Report struct {
	DryRun bool `json:"dry_run"`

	AliasesLoaded  int          `json:"aliases_loaded"`
	AliasesSkipped int          `json:"aliases_skipped"`
	Files          []FileResult `json:"files"`
	RowsWritten    int          `json:"rows_written"`
	Unmatched      int          `json:"unmatched"`

	Recomputed int `json:"recomputed"`

	Candidates int `json:"candidates"`
	SafePairs  int `json:"safe_pairs"`
	Merged     int `json:"merged"`
	Skipped    int `json:"skipped"`

	// Recomputed again after merging, since migrated rows change sample
	// counts for the survivors.
	RecomputedAfterMerge int `json:"recomputed_after_merge"`
}

// Runner drives the ordered phases against one store.
type Runner struct {
	st   store.Store
	opts Options
}

// NewRunner validates the options and creates a Runner. A missing
// rankings directory is a configuration error and fatal up front.
func NewRunner(st store.Store, opts Options) (*Runner, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("rankings directory is required")
	}
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("rankings directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("rankings path %s is not a directory", opts.Dir)
	}
	return &Runner{st: st, opts: opts}, nil
}

// Run executes the full pipeline.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{DryRun: r.opts.DryRun}

	var compounds map[string][]string
	if r.opts.CompoundsPath != "" {
		var err error
		compounds, err = resolve.LoadCompounds(r.opts.CompoundsPath)
		if err != nil {
			return nil, err
		}
	}

	// Phase 1: alias seeds, so imports resolve against them.
	if !r.opts.DryRun {
		seeded, err := ingest.SeedAliases(ctx, r.st, r.opts.SeedPath)
		if err != nil {
			return nil, err
		}
		report.AliasesLoaded = seeded.Loaded
		report.AliasesSkipped = seeded.Skipped
	}

	snap, err := resolve.LoadSnapshot(ctx, r.st)
	if err != nil {
		return nil, err
	}
	resolver := resolve.NewResolver(snap, compounds)

	// Phase 2: import every ranking file in the directory.
	files, err := rankingFiles(r.opts.Dir)
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		source, sampleID := sourceAndSample(path)
		summary, err := ingest.ImportRankings(ctx, r.st, resolver, path, source, sampleID, r.opts.DryRun)
		if err != nil {
			return nil, fmt.Errorf("importing %s: %w", path, err)
		}
		report.Files = append(report.Files, FileResult{
			Path:      path,
			Source:    source,
			SampleID:  sampleID,
			Matched:   summary.Matched,
			Unmatched: summary.Unmatched,
			Rows:      summary.RowsWritten,
		})
		report.RowsWritten += summary.RowsWritten
		report.Unmatched += summary.Unmatched
	}

	if r.opts.DryRun {
		return report, nil
	}

	// Phase 3: consensus over everything the imports touched.
	report.Recomputed, err = consensus.RecomputeAll(ctx, r.st)
	if err != nil {
		return nil, err
	}

	// Phase 4: duplicate detection over the prominence-ordered window.
	detection, err := DetectFromStore(ctx, r.st, r.opts.Window)
	if err != nil {
		return nil, err
	}
	report.Candidates = len(detection.Candidates)
	report.SafePairs = len(detection.Safe)

	if !r.opts.AutoMerge || len(detection.Safe) == 0 {
		return report, nil
	}

	// Phase 5: merge the safe pairs, then re-run consensus for the
	// survivors whose sample counts changed.
	batch, err := merge.Batch(ctx, r.st, detection.Safe, false)
	if err != nil {
		return nil, err
	}
	report.Merged = batch.Merged
	report.Skipped = batch.Skipped

	for _, id := range batch.Survivors {
		if _, err := consensus.RecomputeFigure(ctx, r.st, id); err != nil {
			return nil, fmt.Errorf("recomputing survivor %s: %w", id, err)
		}
		report.RecomputedAfterMerge++
	}

	return report, nil
}

// DetectFromStore runs duplicate detection over the store's figures in
// prominence order (external rank first).
func DetectFromStore(ctx context.Context, st store.Store, window int) (*dedupe.Report, error) {
	figures, err := st.ListFigures(ctx, store.ListOpts{SortBy: "hpi"})
	if err != nil {
		return nil, fmt.Errorf("loading figures for detection: %w", err)
	}
	in := make([]dedupe.Figure, 0, len(figures))
	for _, f := range figures {
		in = append(in, dedupe.Figure{
			ID:       f.ID,
			Name:     f.Name,
			HPIRank:  f.HPIRank,
			WikiSlug: f.WikiSlug,
		})
	}
	return dedupe.Detect(in, dedupe.Options{Window: window}), nil
}

// rankingFiles lists the directory's .json ranking files in name order.
// Artifact files from earlier runs are not ranking input.
func rankingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing rankings directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// sourceAndSample derives source and sample id from a ranking filename.
// "model-x.2.json" is sample 2 of source model-x; a name without a
// sample part is sample 1.
func sourceAndSample(path string) (string, string) {
	stem := strings.TrimSuffix(filepath.Base(path), ".json")
	if i := strings.LastIndex(stem, "."); i > 0 {
		source, sample := stem[:i], stem[i+1:]
		if sample != "" && isDigits(sample) {
			return source, sample
		}
	}
	return stem, "1"
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
