package store

import "fmt"

// migrate creates all tables if they don't exist and applies additive
// schema changes. Every step is idempotent; opening an old database
// upgrades it in place.
func (s *SQLiteStore) migrate() error {
	if err := s.runBootstrapDDL(); err != nil {
		return err
	}

	// Schema evolution: stamp ranking rows with the import run that
	// produced them. ALTER TABLE can't live inside CREATE TABLE IF NOT
	// EXISTS, so check for the column first to stay idempotent.
	if err := s.migrateRunIDColumn(); err != nil {
		return fmt.Errorf("migrating run_id column: %w", err)
	}

	return nil
}

func (s *SQLiteStore) runBootstrapDDL() error {
	statements := []string{
		// Canonical figures. id is a slug and never changes.
		`CREATE TABLE IF NOT EXISTS figures (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			birth_year      INTEGER,
			death_year      INTEGER,
			domain          TEXT,
			era             TEXT,
			region          TEXT,
			latitude        REAL,
			longitude       REAL,
			wiki_slug       TEXT,
			hpi_rank        INTEGER,
			hpi_score       REAL,
			pageviews       INTEGER,
			consensus_rank  REAL,
			variance_score  REAL,
			consensus_updated_at DATETIME,
			created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Per-source ranking observations. figure_id must stay live;
		// merges repoint these rows before deleting the loser.
		`CREATE TABLE IF NOT EXISTS rankings (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			figure_id     TEXT NOT NULL REFERENCES figures(id),
			source        TEXT NOT NULL,
			sample_id     TEXT NOT NULL,
			rank          INTEGER NOT NULL,
			justification TEXT,
			raw_name      TEXT,
			created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Normalized alias strings. One alias resolves to exactly one
		// figure; many aliases may point at the same figure.
		`CREATE TABLE IF NOT EXISTS name_aliases (
			alias      TEXT PRIMARY KEY,
			figure_id  TEXT NOT NULL REFERENCES figures(id),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_rankings_figure ON rankings(figure_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rankings_source_sample ON rankings(source, sample_id)`,
		`CREATE INDEX IF NOT EXISTS idx_aliases_figure ON name_aliases(figure_id)`,

		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("bootstrap DDL: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) migrateRunIDColumn() error {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info('rankings') WHERE name='run_id'",
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking run_id column: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := s.db.Exec("ALTER TABLE rankings ADD COLUMN run_id TEXT"); err != nil {
		return fmt.Errorf("adding run_id column: %w", err)
	}
	return nil
}
