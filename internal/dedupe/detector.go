// Package dedupe detects pairs of canonical figures that plausibly name the
// same historical person.
//
// Detection is pairwise and therefore quadratic, so it runs over a bounded
// top-K window of the catalog. Two reports come out of a scan: candidate
// pairs for human review, and a stricter "safe" subset judged mergeable
// without review.
package dedupe

import (
	"strings"

	"github.com/histrank/canon/internal/names"
)

// DefaultWindow bounds the pairwise scan. Hundreds, not thousands: the
// scan is O(K²) pairs with an edit-distance per pair.
const DefaultWindow = 300

// Thresholds for the candidate rules.
const (
	minLastTokenLen  = 3
	jaccardThreshold = 0.6
	maxEditDistance  = 2
)

// Figure is the minimal figure shape the detector needs.
type Figure struct {
	ID       string
	Name     string
	HPIRank  *int
	WikiSlug string
}

// Pair is one flagged duplicate pair with the audit fields a reviewer
// needs before approving a merge.
type Pair struct {
	AID       string `json:"a_id"`
	AName     string `json:"a_name"`
	AHPIRank  *int   `json:"a_hpi_rank,omitempty"`
	AWikiSlug string `json:"a_wiki_slug,omitempty"`
	BID       string `json:"b_id"`
	BName     string `json:"b_name"`
	BHPIRank  *int   `json:"b_hpi_rank,omitempty"`
	BWikiSlug string `json:"b_wiki_slug,omitempty"`
	Rule      string `json:"rule"`
}

// Report holds the outcome of one detection scan.
type Report struct {
	WindowSize    int    `json:"window_size"`
	PairsCompared int    `json:"pairs_compared"`
	Candidates    []Pair `json:"candidates"`
	Safe          []Pair `json:"safe"`
}

// Options configures a detection scan.
type Options struct {
	Window int // max figures considered; 0 means DefaultWindow
}

type figureKey struct {
	fig    Figure
	norm   string
	tokens []string
}

// Detect scans the given figures (already ordered most-prominent-first)
// for likely duplicate pairs. Pairs whose normalized full names are
// identical are skipped: there is nothing to detect, only data to merge,
// and that situation never survives a figure import.
func Detect(figures []Figure, opts Options) *Report {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	if len(figures) > window {
		figures = figures[:window]
	}

	keys := make([]figureKey, len(figures))
	for i, f := range figures {
		keys[i] = figureKey{
			fig:    f,
			norm:   names.Normalize(f.Name),
			tokens: names.Tokenize(f.Name),
		}
	}

	report := &Report{WindowSize: len(figures)}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			a, b := keys[i], keys[j]
			if a.norm == "" || b.norm == "" || a.norm == b.norm {
				continue
			}
			report.PairsCompared++

			rule := candidateRule(a, b)
			safe := safeTokenAssignment(a.tokens, b.tokens)

			if rule == "" && safe {
				rule = "safe"
			}
			if rule == "" {
				continue
			}

			pair := makePair(a.fig, b.fig, rule)
			report.Candidates = append(report.Candidates, pair)
			if safe {
				report.Safe = append(report.Safe, pair)
			}
		}
	}
	return report
}

// candidateRule returns the name of the first candidate rule the pair
// satisfies, or "" if none fires.
func candidateRule(a, b figureKey) string {
	lastMatch := lastTokensMatch(a.tokens, b.tokens)

	// Rule 1: one normalized name contains the other, and either the last
	// tokens match or the shorter name still has at least two tokens.
	if containsEither(a.norm, b.norm) {
		if lastMatch || minTokenCount(a.tokens, b.tokens) >= 2 {
			return "substring"
		}
	}

	if !lastMatch {
		return ""
	}

	// Rule 2: shared surname plus strong token overlap.
	if jaccard(a.tokens, b.tokens) >= jaccardThreshold {
		return "token-overlap"
	}

	// Rule 3: shared surname plus a near-identical full name or first token.
	d := names.EditDistance(a.norm, b.norm)
	if len(a.tokens) > 0 && len(b.tokens) > 0 {
		if fd := names.EditDistance(a.tokens[0], b.tokens[0]); fd < d {
			d = fd
		}
	}
	if d <= maxEditDistance {
		return "edit-distance"
	}
	return ""
}

// safeTokenAssignment reports whether every token of a can be assigned to
// a distinct token of b with edit distance <= 2, with equal token counts.
//
// The assignment is greedy left-to-right, not a maximum bipartite
// matching. At the 2-4 tokens typical of person names the difference
// never shows up in practice.
func safeTokenAssignment(ta, tb []string) bool {
	if len(ta) == 0 || len(ta) != len(tb) {
		return false
	}
	used := make([]bool, len(tb))
	for _, t := range ta {
		matched := false
		for i, u := range tb {
			if used[i] {
				continue
			}
			if names.EditDistance(t, u) <= maxEditDistance {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func lastTokensMatch(ta, tb []string) bool {
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	last := ta[len(ta)-1]
	return len(last) >= minLastTokenLen && last == tb[len(tb)-1]
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func minTokenCount(ta, tb []string) int {
	if len(ta) < len(tb) {
		return len(ta)
	}
	return len(tb)
}

func jaccard(ta, tb []string) float64 {
	aSet := map[string]struct{}{}
	for _, t := range ta {
		aSet[t] = struct{}{}
	}
	bSet := map[string]struct{}{}
	for _, t := range tb {
		bSet[t] = struct{}{}
	}
	if len(aSet) == 0 && len(bSet) == 0 {
		return 1
	}
	inter := 0
	for t := range aSet {
		if _, ok := bSet[t]; ok {
			inter++
		}
	}
	union := len(aSet) + len(bSet) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func makePair(a, b Figure, rule string) Pair {
	return Pair{
		AID:       a.ID,
		AName:     a.Name,
		AHPIRank:  a.HPIRank,
		AWikiSlug: a.WikiSlug,
		BID:       b.ID,
		BName:     b.Name,
		BHPIRank:  b.HPIRank,
		BWikiSlug: b.WikiSlug,
		Rule:      rule,
	}
}
