package store

import (
	"context"
	"database/sql"
	"fmt"
)

// UpsertAlias maps a normalized alias string to a figure id. An existing
// alias is repointed; the table holds exactly one figure per alias.
func (s *SQLiteStore) UpsertAlias(ctx context.Context, alias, figureID string) error {
	if alias == "" {
		return fmt.Errorf("alias is required")
	}
	if figureID == "" {
		return fmt.Errorf("alias %q: figure id is required", alias)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO name_aliases (alias, figure_id)
		VALUES (?, ?)
		ON CONFLICT(alias) DO UPDATE SET figure_id = excluded.figure_id`,
		alias, figureID)
	if err != nil {
		return fmt.Errorf("upserting alias %q: %w", alias, err)
	}
	return nil
}

// GetAlias returns the figure id an alias resolves to, and whether the
// alias exists.
func (s *SQLiteStore) GetAlias(ctx context.Context, alias string) (string, bool, error) {
	var figureID string
	err := s.db.QueryRowContext(ctx,
		`SELECT figure_id FROM name_aliases WHERE alias = ?`, alias).Scan(&figureID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting alias %q: %w", alias, err)
	}
	return figureID, true, nil
}

// ListAliases returns every alias row in alias order.
func (s *SQLiteStore) ListAliases(ctx context.Context) ([]Alias, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT alias, figure_id, created_at FROM name_aliases ORDER BY alias ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing aliases: %w", err)
	}
	defer rows.Close()

	var out []Alias
	for rows.Next() {
		var a Alias
		if err := rows.Scan(&a.Alias, &a.FigureID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning alias row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RepointAliases moves every alias from one figure to another. Used by
// merges before the losing figure is deleted.
func (s *SQLiteStore) RepointAliases(ctx context.Context, fromID, toID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE name_aliases SET figure_id = ? WHERE figure_id = ?`,
		toID, fromID)
	if err != nil {
		return 0, fmt.Errorf("repointing aliases %s -> %s: %w", fromID, toID, err)
	}
	return res.RowsAffected()
}
