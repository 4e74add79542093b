package store

import (
	"context"
	"database/sql"
	"fmt"
)

const figureColumns = `id, name, birth_year, death_year, domain, era, region,
	latitude, longitude, wiki_slug, hpi_rank, hpi_score, pageviews,
	consensus_rank, variance_score, consensus_updated_at, created_at, updated_at`

// UpsertFigure inserts a figure or updates its descriptive fields by id.
// Derived fields (consensus_rank, variance_score) are never touched here;
// only the consensus calculator writes them.
func (s *SQLiteStore) UpsertFigure(ctx context.Context, f *Figure) error {
	if f.ID == "" {
		return fmt.Errorf("figure id is required")
	}
	if f.Name == "" {
		return fmt.Errorf("figure %s: name is required", f.ID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO figures (id, name, birth_year, death_year, domain, era, region,
			latitude, longitude, wiki_slug, hpi_rank, hpi_score, pageviews)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			birth_year = excluded.birth_year,
			death_year = excluded.death_year,
			domain = excluded.domain,
			era = excluded.era,
			region = excluded.region,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			wiki_slug = excluded.wiki_slug,
			hpi_rank = excluded.hpi_rank,
			hpi_score = excluded.hpi_score,
			pageviews = excluded.pageviews,
			updated_at = CURRENT_TIMESTAMP`,
		f.ID, f.Name, f.BirthYear, f.DeathYear, nullStr(f.Domain), nullStr(f.Era),
		nullStr(f.Region), f.Latitude, f.Longitude, nullStr(f.WikiSlug),
		f.HPIRank, f.HPIScore, f.Pageviews,
	)
	if err != nil {
		return fmt.Errorf("upserting figure %s: %w", f.ID, err)
	}
	return nil
}

// UpdateFigure overwrites every descriptive field of an existing figure.
// The merge resolver uses it after coalescing fields into the survivor.
func (s *SQLiteStore) UpdateFigure(ctx context.Context, f *Figure) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE figures SET
			name = ?, birth_year = ?, death_year = ?, domain = ?, era = ?,
			region = ?, latitude = ?, longitude = ?, wiki_slug = ?,
			hpi_rank = ?, hpi_score = ?, pageviews = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		f.Name, f.BirthYear, f.DeathYear, nullStr(f.Domain), nullStr(f.Era),
		nullStr(f.Region), f.Latitude, f.Longitude, nullStr(f.WikiSlug),
		f.HPIRank, f.HPIScore, f.Pageviews, f.ID,
	)
	if err != nil {
		return fmt.Errorf("updating figure %s: %w", f.ID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("updating figure %s: not found", f.ID)
	}
	return nil
}

// GetFigure returns one figure by id, or nil if it does not exist.
func (s *SQLiteStore) GetFigure(ctx context.Context, id string) (*Figure, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+figureColumns+` FROM figures WHERE id = ?`, id)
	f, err := scanFigure(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting figure %s: %w", id, err)
	}
	return f, nil
}

// ListFigures returns figures ordered per opts. The default order is by
// consensus rank with unranked figures last, then HPI rank, then id, so a
// bounded window always selects the most prominent figures first.
func (s *SQLiteStore) ListFigures(ctx context.Context, opts ListOpts) ([]*Figure, error) {
	order := `ORDER BY consensus_rank IS NULL, consensus_rank ASC,
		hpi_rank IS NULL, hpi_rank ASC, id ASC`
	switch opts.SortBy {
	case "hpi":
		order = `ORDER BY hpi_rank IS NULL, hpi_rank ASC, id ASC`
	case "name":
		order = `ORDER BY name ASC, id ASC`
	}

	query := `SELECT ` + figureColumns + ` FROM figures ` + order
	args := []interface{}{}
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing figures: %w", err)
	}
	defer rows.Close()

	var figures []*Figure
	for rows.Next() {
		f, err := scanFigure(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning figure row: %w", err)
		}
		figures = append(figures, f)
	}
	return figures, rows.Err()
}

// DeleteFigure removes a figure row. Callers must migrate rankings and
// aliases first; the foreign keys reject a delete that would dangle.
func (s *SQLiteStore) DeleteFigure(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM figures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting figure %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("deleting figure %s: not found", id)
	}
	return nil
}

// SetConsensus persists the derived consensus rank and variance score
// along with the recompute timestamp.
func (s *SQLiteStore) SetConsensus(ctx context.Context, id string, rank, variance float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE figures
		SET consensus_rank = ?, variance_score = ?,
			consensus_updated_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		rank, variance, id,
	)
	if err != nil {
		return fmt.Errorf("setting consensus for %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("setting consensus for %s: not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFigure(row rowScanner) (*Figure, error) {
	var f Figure
	var birthYear, deathYear, hpiRank sql.NullInt64
	var pageviews sql.NullInt64
	var lat, lon, hpiScore, consensusRank, varianceScore sql.NullFloat64
	var domain, era, region, wikiSlug sql.NullString
	var consensusUpdated sql.NullTime

	err := row.Scan(&f.ID, &f.Name, &birthYear, &deathYear, &domain, &era,
		&region, &lat, &lon, &wikiSlug, &hpiRank, &hpiScore, &pageviews,
		&consensusRank, &varianceScore, &consensusUpdated,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}

	f.BirthYear = nullableInt(birthYear)
	f.DeathYear = nullableInt(deathYear)
	f.Domain = domain.String
	f.Era = era.String
	f.Region = region.String
	f.WikiSlug = wikiSlug.String
	f.HPIRank = nullableInt(hpiRank)
	if pageviews.Valid {
		v := pageviews.Int64
		f.Pageviews = &v
	}
	f.Latitude = nullableFloat(lat)
	f.Longitude = nullableFloat(lon)
	f.HPIScore = nullableFloat(hpiScore)
	f.ConsensusRank = nullableFloat(consensusRank)
	f.VarianceScore = nullableFloat(varianceScore)
	if consensusUpdated.Valid {
		t := consensusUpdated.Time
		f.ConsensusUpdatedAt = &t
	}
	return &f, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	n := v.Float64
	return &n
}

func nullStr(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
