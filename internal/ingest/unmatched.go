package ingest

import (
	"fmt"
	"os"
	"strings"
)

// Unmatched is one name the alias cascade could not resolve.
type Unmatched struct {
	Rank int
	Name string
}

// UnmatchedArtifactPath returns the artifact path for a ranking file:
// the input path with ".unmatched.txt" appended.
func UnmatchedArtifactPath(rankingPath string) string {
	return rankingPath + ".unmatched.txt"
}

// WriteUnmatchedArtifact writes the "rank. name" list for manual
// follow-up next to the input file. An empty list removes any stale
// artifact from a previous run instead of writing an empty file.
func WriteUnmatchedArtifact(rankingPath string, rows []Unmatched) (string, error) {
	path := UnmatchedArtifactPath(rankingPath)
	if len(rows) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("removing stale artifact: %w", err)
		}
		return "", nil
	}

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%d. %s\n", r.Rank, r.Name)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing unmatched artifact: %w", err)
	}
	return path, nil
}
