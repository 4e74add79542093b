package ingest

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/histrank/canon/internal/names"
)

// SeedPair is one (alias, figure id) entry from a seed source.
type SeedPair struct {
	Alias    string
	FigureID string
}

// seedAliases are the built-in alias pairs: well-known alternate names
// that the detector's orthographic rules cannot reach.
var seedAliases = []SeedPair{
	{"napoleon", "napoleon-bonaparte"},
	{"bonaparte", "napoleon-bonaparte"},
	{"buddha", "siddhartha-gautama"},
	{"gautama buddha", "siddhartha-gautama"},
	{"the buddha", "siddhartha-gautama"},
	{"jesus christ", "jesus"},
	{"christ", "jesus"},
	{"muhammad", "prophet-muhammad"},
	{"confucius", "kongzi"},
	{"genghis khan", "chinggis-khan"},
	{"lao tzu", "laozi"},
	{"mao zedong", "mao-tse-tung"},
	{"mahatma gandhi", "mohandas-gandhi"},
	{"gandhi", "mohandas-gandhi"},
	{"da vinci", "leonardo-da-vinci"},
	{"leonardo", "leonardo-da-vinci"},
	{"michelangelo buonarroti", "michelangelo"},
	{"mark twain", "samuel-clemens"},
	{"queen victoria", "victoria"},
	{"queen elizabeth i", "elizabeth-i"},
	{"fdr", "franklin-d-roosevelt"},
	{"mlk", "martin-luther-king-jr"},
	{"julius caesar", "gaius-julius-caesar"},
	{"alexander", "alexander-the-great"},
	{"charlemagne", "charles-the-great"},
}

// StaticSeedPairs returns the built-in alias pairs with normalized alias
// strings.
func StaticSeedPairs() []SeedPair {
	out := make([]SeedPair, 0, len(seedAliases))
	for _, p := range seedAliases {
		out = append(out, SeedPair{Alias: names.Normalize(p.Alias), FigureID: p.FigureID})
	}
	return out
}

// ParseSeedFile reads a delimited alias seed file: one "alias|figure-id"
// pair per line. Blank lines and #-comments are skipped; a line without
// a delimiter or with an empty side is a hard error, since seed files
// are hand-maintained configuration rather than generative output.
func ParseSeedFile(path string) ([]SeedPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening alias seed file: %w", err)
	}
	defer f.Close()

	var pairs []SeedPair
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		alias, id, ok := strings.Cut(line, "|")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected alias|figure-id, got %q", path, lineNo, line)
		}
		alias = names.Normalize(alias)
		id = strings.TrimSpace(id)
		if alias == "" || id == "" {
			return nil, fmt.Errorf("%s:%d: empty alias or figure id", path, lineNo)
		}
		pairs = append(pairs, SeedPair{Alias: alias, FigureID: id})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading alias seed file %s: %w", path, err)
	}
	return pairs, nil
}
