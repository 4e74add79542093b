// Package resolve maps raw name strings from external ranking sources to
// canonical figure ids.
//
// Resolution is a descending cascade; the first stage that produces a
// result wins. Every stage is deterministic and precision-biased: an
// ambiguous match at any stage produces no match rather than a guess.
// Unmatched names are reported upstream, never auto-inserted as figures.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/histrank/canon/internal/names"
	"github.com/histrank/canon/internal/store"
)

// Stage identifies which cascade stage produced a resolution.
type Stage string

const (
	StageCompound  Stage = "compound"
	StageSlug      Stage = "slug"
	StageAlias     Stage = "alias"
	StageCanonical Stage = "canonical"
	StageLastName  Stage = "last-name"
	StageFuzzy     Stage = "fuzzy"
	StageNone      Stage = "none"
)

// Fuzzy-match thresholds: short names tolerate 2 edits, longer names 3.
const (
	fuzzyShortLen     = 10
	fuzzyShortMaxDist = 2
	fuzzyLongMaxDist  = 3
)

// Resolution is the outcome for one raw name. FigureIDs holds more than
// one id only for configured compound names ("Watson and Crick").
type Resolution struct {
	FigureIDs []string
	Stage     Stage
}

// Matched reports whether the cascade produced at least one figure id.
func (r Resolution) Matched() bool {
	return len(r.FigureIDs) > 0
}

type figureEntry struct {
	id        string
	norm      string
	lastToken string
}

// Snapshot is a read-only view of the live figures and known aliases.
// Resolvers never write; callers rebuild the snapshot after any merge.
type Snapshot struct {
	entries []figureEntry
	ids     map[string]struct{}
	byNorm  map[string][]string
	aliases map[string]string
}

// LoadSnapshot builds a Snapshot from the store's current figures and
// alias table.
func LoadSnapshot(ctx context.Context, st store.Store) (*Snapshot, error) {
	figures, err := st.ListFigures(ctx, store.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("loading figures for snapshot: %w", err)
	}
	aliases, err := st.ListAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aliases for snapshot: %w", err)
	}

	snap := &Snapshot{
		ids:     make(map[string]struct{}, len(figures)),
		byNorm:  make(map[string][]string),
		aliases: make(map[string]string, len(aliases)),
	}
	for _, f := range figures {
		norm := names.Normalize(f.Name)
		entry := figureEntry{id: f.ID, norm: norm}
		if fields := strings.Fields(norm); len(fields) > 0 {
			entry.lastToken = fields[len(fields)-1]
		}
		snap.entries = append(snap.entries, entry)
		snap.ids[f.ID] = struct{}{}
		if norm != "" {
			snap.byNorm[norm] = append(snap.byNorm[norm], f.ID)
		}
	}
	for _, a := range aliases {
		snap.aliases[a.Alias] = a.FigureID
	}
	return snap, nil
}

// Resolver runs the cascade over an injected snapshot plus the configured
// compound-name overrides.
type Resolver struct {
	snap      *Snapshot
	compounds map[string][]string
}

// NewResolver creates a Resolver. The compounds map is keyed by
// normalized multi-person phrase; it may be nil.
func NewResolver(snap *Snapshot, compounds map[string][]string) *Resolver {
	if compounds == nil {
		compounds = map[string][]string{}
	}
	return &Resolver{snap: snap, compounds: compounds}
}

// Reload replaces the snapshot from the store's current state. Call it
// after any merge; figure ids the snapshot knew may no longer be live.
func (r *Resolver) Reload(ctx context.Context, st store.Store) error {
	snap, err := LoadSnapshot(ctx, st)
	if err != nil {
		return err
	}
	r.snap = snap
	return nil
}

// Resolve maps one raw name to zero, one, or several figure ids.
// Pure function of the raw name and the snapshot: calling it twice with
// the same inputs yields the same result.
func (r *Resolver) Resolve(raw string) Resolution {
	norm := names.Normalize(raw)
	if norm == "" {
		return Resolution{Stage: StageNone}
	}

	// Stage 1: compound override. The configured table maps a multi-person
	// phrase to several ids; only ids still live count.
	if ids, ok := r.compounds[norm]; ok {
		live := make([]string, 0, len(ids))
		for _, id := range ids {
			if _, exists := r.snap.ids[id]; exists {
				live = append(live, id)
			}
		}
		if len(live) > 0 {
			return Resolution{FigureIDs: live, Stage: StageCompound}
		}
	}

	// Stage 2: deterministic slug equals a live figure id.
	if slug := names.Slug(raw); slug != "" {
		if _, ok := r.snap.ids[slug]; ok {
			return Resolution{FigureIDs: []string{slug}, Stage: StageSlug}
		}
	}

	// Stage 3: alias table, trying deterministic variants of the raw name.
	for _, v := range aliasVariants(raw, norm) {
		if id, ok := r.snap.aliases[v]; ok {
			return Resolution{FigureIDs: []string{id}, Stage: StageAlias}
		}
	}

	// Stage 4: normalized raw name equals a figure's normalized canonical
	// name. Requires uniqueness: two figures sharing a normalized name
	// are merge candidates, not resolution targets.
	if ids := r.snap.byNorm[norm]; len(ids) == 1 {
		return Resolution{FigureIDs: []string{ids[0]}, Stage: StageCanonical}
	}

	// Stage 5: single-token last-name match, guarded to single-word inputs
	// and to a unique owner of that surname.
	if fields := strings.Fields(norm); len(fields) == 1 {
		var matches []string
		for _, e := range r.snap.entries {
			if e.lastToken == norm {
				matches = append(matches, e.id)
			}
		}
		if len(matches) == 1 {
			return Resolution{FigureIDs: matches, Stage: StageLastName}
		}
	}

	// Stage 6: fuzzy fallback over every canonical name. Only a strictly
	// unique minimum distance within threshold matches; ties lose.
	if id, ok := r.fuzzyMatch(norm); ok {
		return Resolution{FigureIDs: []string{id}, Stage: StageFuzzy}
	}

	return Resolution{Stage: StageNone}
}

func (r *Resolver) fuzzyMatch(norm string) (string, bool) {
	maxDist := fuzzyLongMaxDist
	if len(norm) <= fuzzyShortLen {
		maxDist = fuzzyShortMaxDist
	}

	best, bestCount := -1, 0
	bestID := ""
	for _, e := range r.snap.entries {
		if e.norm == "" {
			continue
		}
		d := names.EditDistance(norm, e.norm)
		switch {
		case best == -1 || d < best:
			best, bestCount, bestID = d, 1, e.id
		case d == best:
			bestCount++
		}
	}
	if best < 0 || best > maxDist || bestCount != 1 {
		return "", false
	}
	return bestID, true
}

// aliasVariants returns the deterministic lookup variants for the alias
// stage, in precedence order. Normalization already strips diacritics,
// punctuation, and hyphens, so the variants cover the substitutions
// normalization cannot see: "&" vs "and", "st" vs "saint", and stray
// "the"/"of" particles.
func aliasVariants(raw, norm string) []string {
	variants := []string{norm}
	add := func(v string) {
		if v == "" {
			return
		}
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	if strings.Contains(raw, "&") {
		add(names.Normalize(strings.ReplaceAll(raw, "&", " and ")))
	}

	fields := strings.Fields(norm)
	add(swapToken(fields, "st", "saint"))
	add(swapToken(fields, "saint", "st"))
	add(dropTokens(fields, "the", "of"))

	return variants
}

func swapToken(fields []string, from, to string) string {
	swapped := false
	out := make([]string, len(fields))
	for i, f := range fields {
		if f == from {
			out[i] = to
			swapped = true
		} else {
			out[i] = f
		}
	}
	if !swapped {
		return ""
	}
	return strings.Join(out, " ")
}

func dropTokens(fields []string, drop ...string) string {
	dropSet := make(map[string]struct{}, len(drop))
	for _, d := range drop {
		dropSet[d] = struct{}{}
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := dropSet[f]; ok {
			continue
		}
		out = append(out, f)
	}
	if len(out) == len(fields) {
		return ""
	}
	return strings.Join(out, " ")
}

// SortedCompoundPhrases returns the configured compound phrases in
// deterministic order, for reporting.
func (r *Resolver) SortedCompoundPhrases() []string {
	phrases := make([]string, 0, len(r.compounds))
	for p := range r.compounds {
		phrases = append(phrases, p)
	}
	sort.Strings(phrases)
	return phrases
}
