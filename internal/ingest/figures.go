package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/histrank/canon/internal/names"
	"github.com/histrank/canon/internal/store"
)

// figureRecord mirrors one entry of a figure dataset file.
type figureRecord struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	BirthYear *int     `json:"birth_year"`
	DeathYear *int     `json:"death_year"`
	Domain    string   `json:"domain"`
	Era       string   `json:"era"`
	Region    string   `json:"region"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	WikiSlug  string   `json:"wiki_slug"`
	HPIRank   *int     `json:"hpi_rank"`
	HPIScore  *float64 `json:"hpi_score"`
	Pageviews *int64   `json:"pageviews"`
}

// ParseFigureFile reads a figure dataset: a JSON array of figure records.
// A record without an id gets the slug of its name. Records with neither
// id nor name are skipped and counted as malformed.
func ParseFigureFile(path string) ([]*store.Figure, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening figure file: %w", err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, fmt.Errorf("parsing figure file %s: %w", path, err)
	}

	var figures []*store.Figure
	malformed := 0
	for _, raw := range records {
		var rec figureRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			malformed++
			continue
		}
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.ID == "" {
			rec.ID = names.Slug(rec.Name)
		}
		if rec.ID == "" || rec.Name == "" {
			malformed++
			continue
		}
		figures = append(figures, &store.Figure{
			ID:        rec.ID,
			Name:      rec.Name,
			BirthYear: rec.BirthYear,
			DeathYear: rec.DeathYear,
			Domain:    rec.Domain,
			Era:       rec.Era,
			Region:    rec.Region,
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			WikiSlug:  rec.WikiSlug,
			HPIRank:   rec.HPIRank,
			HPIScore:  rec.HPIScore,
			Pageviews: rec.Pageviews,
		})
	}
	return figures, malformed, nil
}
