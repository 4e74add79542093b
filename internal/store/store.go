// Package store provides the SQLite storage layer for Canon.
//
// All catalog data lives in a single SQLite database file:
// - figures: one row per canonical historical person
// - rankings: one row per (figure, source, sample) observation
// - name_aliases: normalized name strings mapped to figure ids
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.canon/canon.db"

// Figure is one canonical historical person. ID is a slug and is immutable
// once assigned. ConsensusRank and VarianceScore are derived by the
// consensus calculator and never hand-edited.
type Figure struct {
	ID        string
	Name      string
	BirthYear *int
	DeathYear *int
	Domain    string
	Era       string
	Region    string
	Latitude  *float64
	Longitude *float64
	WikiSlug  string
	HPIRank   *int
	HPIScore  *float64
	Pageviews *int64

	ConsensusRank      *float64
	VarianceScore      *float64
	ConsensusUpdatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ranking is one source's placement of one figure in one sample list.
// FigureID must always reference a live figure; merges migrate rows
// before the losing figure is deleted.
type Ranking struct {
	ID            int64
	FigureID      string
	Source        string
	SampleID      string
	Rank          int
	Justification string
	RawName       string
	RunID         string
	CreatedAt     time.Time
}

// Alias maps a normalized name string to exactly one figure id.
type Alias struct {
	Alias     string
	FigureID  string
	CreatedAt time.Time
}

// ListOpts controls pagination and ordering for ListFigures.
type ListOpts struct {
	Limit  int
	Offset int
	SortBy string // "consensus", "hpi", "name"
}

// Stats holds observability statistics about the store.
type Stats struct {
	FigureCount  int64
	RankingCount int64
	AliasCount   int64
	SourceCount  int64
	RankedCount  int64 // figures with at least one ranking row
	DBSizeBytes  int64
}

// Config holds configuration for NewStore.
type Config struct {
	DBPath string
}

// Store defines the catalog storage interface.
type Store interface {
	// Figures
	UpsertFigure(ctx context.Context, f *Figure) error
	UpdateFigure(ctx context.Context, f *Figure) error
	GetFigure(ctx context.Context, id string) (*Figure, error)
	ListFigures(ctx context.Context, opts ListOpts) ([]*Figure, error)
	DeleteFigure(ctx context.Context, id string) error
	SetConsensus(ctx context.Context, id string, rank, variance float64) error

	// Rankings
	AddRanking(ctx context.Context, r *Ranking) (int64, error)
	AddRankingBatch(ctx context.Context, rows []*Ranking) error
	ListRankings(ctx context.Context, figureID string) ([]*Ranking, error)
	ListRankedFigureIDs(ctx context.Context) ([]string, error)
	DeleteRankings(ctx context.Context, source, sampleID string) (int64, error)
	RepointRankings(ctx context.Context, fromID, toID string) (int64, error)

	// Aliases
	UpsertAlias(ctx context.Context, alias, figureID string) error
	GetAlias(ctx context.Context, alias string) (string, bool, error)
	ListAliases(ctx context.Context) ([]Alias, error)
	RepointAliases(ctx context.Context, fromID, toID string) (int64, error)

	// Observability
	Stats(ctx context.Context) (*Stats, error)

	// Maintenance
	Vacuum(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg Config) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: cfg.DBPath}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// GetDB exposes the underlying connection for callers that need raw SQL.
func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Vacuum runs VACUUM on the database. Manual only, never automatic.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Stats returns table counts and on-disk size.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	queries := []struct {
		dst   *int64
		query string
	}{
		{&st.FigureCount, "SELECT COUNT(*) FROM figures"},
		{&st.RankingCount, "SELECT COUNT(*) FROM rankings"},
		{&st.AliasCount, "SELECT COUNT(*) FROM name_aliases"},
		{&st.SourceCount, "SELECT COUNT(DISTINCT source) FROM rankings"},
		{&st.RankedCount, "SELECT COUNT(DISTINCT figure_id) FROM rankings"},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("stats query %q: %w", q.query, err)
		}
	}

	if s.dbPath != ":memory:" {
		if info, err := os.Stat(s.dbPath); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}
	return st, nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
