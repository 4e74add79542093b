package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/histrank/canon/internal/names"
)

// RankingRow is one parsed entry of a ranking file.
type RankingRow struct {
	Rank         int    `json:"rank"`
	Name         string `json:"name"`
	Contribution string `json:"contribution"`
}

// ParseResult is the outcome of parsing one ranking file.
type ParseResult struct {
	Rows []RankingRow

	Arrays          int // well-formed arrays consumed
	MalformedArrays int // arrays skipped as unparsable
	MalformedRows   int // rows skipped for wrong shape
	Duplicates      int // rows dropped by rank or normalized-name dedupe
}

// ParseRankingFile reads a ranking file: a JSON array of
// {rank, name, contribution} objects. Generative sources sometimes emit
// several concatenated arrays in one file; every array is consumed and
// the rows merged. Rows are deduplicated by rank and by normalized name,
// first occurrence wins. A malformed array or row is skipped and
// counted, never fatal; the rest of the file still parses.
func ParseRankingFile(path string) (*ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening ranking file: %w", err)
	}
	return parseRankings(data), nil
}

func parseRankings(data []byte) *ParseResult {
	res := &ParseResult{}
	seenRank := map[int]struct{}{}
	seenName := map[string]struct{}{}

	for _, segment := range splitTopLevelArrays(data) {
		var elems []json.RawMessage
		if err := json.Unmarshal(segment, &elems); err != nil {
			res.MalformedArrays++
			continue
		}
		res.Arrays++

		for _, raw := range elems {
			row, ok := decodeRow(raw)
			if !ok {
				res.MalformedRows++
				continue
			}

			norm := names.Normalize(row.Name)
			if _, dup := seenRank[row.Rank]; dup {
				res.Duplicates++
				continue
			}
			if _, dup := seenName[norm]; dup {
				res.Duplicates++
				continue
			}
			seenRank[row.Rank] = struct{}{}
			seenName[norm] = struct{}{}
			res.Rows = append(res.Rows, row)
		}
	}

	return res
}

// splitTopLevelArrays scans for balanced top-level [...] segments so each
// concatenated array parses and fails independently. Text between arrays
// (generative preambles, stray commas) is ignored; an unclosed array at
// end of input is returned as-is and left for the JSON parser to reject.
func splitTopLevelArrays(data []byte) [][]byte {
	var segments [][]byte
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			if depth > 0 {
				depth--
				if depth == 0 {
					segments = append(segments, data[start:i+1])
					start = -1
				}
			}
		}
	}
	if start >= 0 {
		segments = append(segments, data[start:])
	}
	return segments
}

// decodeRow validates one array element. A row must be an object with a
// positive integer rank and a non-empty name.
func decodeRow(raw json.RawMessage) (RankingRow, bool) {
	var row RankingRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return RankingRow{}, false
	}
	if row.Rank <= 0 || strings.TrimSpace(row.Name) == "" {
		return RankingRow{}, false
	}
	row.Name = strings.TrimSpace(row.Name)
	return row, true
}
