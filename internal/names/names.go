// Package names provides the canonical name transforms used everywhere a
// figure name is compared, stored, or matched: normalization, tokenization,
// slug derivation, and edit distance.
//
// All functions are pure. Identical input always yields identical output;
// the resolver's idempotence guarantee depends on it.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopWords are honorifics and particles dropped during tokenization.
// They carry no identity: "Alexander the Great" and "Alexander Great"
// must tokenize identically.
var stopWords = map[string]struct{}{
	"the":   {},
	"of":    {},
	"saint": {},
	"st":    {},
	"ibn":   {},
	"al":    {},
	"von":   {},
	"de":    {},
	"da":    {},
	"di":    {},
}

// diacriticStripper decomposes to NFD and removes nonspacing marks,
// so "Curie" and "Curié" normalize to the same string.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize returns the canonical comparison form of a human name:
// diacritics stripped, lowercased, parenthesized content dropped,
// non-alphanumerics replaced with spaces, whitespace collapsed.
func Normalize(name string) string {
	s, _, err := transform.String(diacriticStripper, name)
	if err != nil {
		s = name
	}
	s = strings.ToLower(s)
	s = stripParens(s)

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize normalizes the name and returns its tokens with stop words removed.
// A name made entirely of stop words returns an empty slice.
func Tokenize(name string) []string {
	fields := strings.Fields(Normalize(name))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Slug derives the deterministic id form of a name: the normalized string
// with spaces replaced by hyphens. Figure ids in the authoritative dataset
// follow this shape, which is what resolver stage 2 relies on.
func Slug(name string) string {
	return strings.ReplaceAll(Normalize(name), " ", "-")
}

// stripParens removes parenthesized spans, including nested ones.
// Unbalanced closing parens are dropped.
func stripParens(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// EditDistance returns the Levenshtein distance between two strings,
// computed over runes.
func EditDistance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := 0; j <= len(br); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = minInt(del, minInt(ins, sub))
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
