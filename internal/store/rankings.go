package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AddRanking inserts one ranking observation.
func (s *SQLiteStore) AddRanking(ctx context.Context, r *Ranking) (int64, error) {
	if r.FigureID == "" || r.Source == "" || r.SampleID == "" {
		return 0, fmt.Errorf("ranking requires figure_id, source, and sample_id")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO rankings (figure_id, source, sample_id, rank, justification, raw_name, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.FigureID, r.Source, r.SampleID, r.Rank,
		nullStr(r.Justification), nullStr(r.RawName), nullStr(r.RunID),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting ranking for %s: %w", r.FigureID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading ranking id: %w", err)
	}
	r.ID = id
	return id, nil
}

// AddRankingBatch inserts ranking rows inside one transaction.
func (s *SQLiteStore) AddRankingBatch(ctx context.Context, rows []*Ranking) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning ranking batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rankings (figure_id, source, sample_id, rank, justification, raw_name, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing ranking insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.FigureID, r.Source, r.SampleID, r.Rank,
			nullStr(r.Justification), nullStr(r.RawName), nullStr(r.RunID),
		); err != nil {
			return fmt.Errorf("inserting ranking for %s: %w", r.FigureID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ranking batch: %w", err)
	}
	return nil
}

// ListRankings returns all ranking rows for one figure, ordered by
// source then sample for deterministic aggregation.
func (s *SQLiteStore) ListRankings(ctx context.Context, figureID string) ([]*Ranking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, figure_id, source, sample_id, rank,
			COALESCE(justification, ''), COALESCE(raw_name, ''),
			COALESCE(run_id, ''), created_at
		FROM rankings
		WHERE figure_id = ?
		ORDER BY source ASC, sample_id ASC, id ASC`, figureID)
	if err != nil {
		return nil, fmt.Errorf("listing rankings for %s: %w", figureID, err)
	}
	defer rows.Close()
	return scanRankings(rows)
}

// ListRankedFigureIDs returns the distinct figure ids that have at least
// one ranking row, in id order.
func (s *SQLiteStore) ListRankedFigureIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT figure_id FROM rankings ORDER BY figure_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing ranked figure ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning figure id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRankings removes every row for one (source, sample) pair.
// Ranking imports are bulk-replace: re-importing a sample clears the
// previous rows first.
func (s *SQLiteStore) DeleteRankings(ctx context.Context, source, sampleID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM rankings WHERE source = ? AND sample_id = ?`,
		source, sampleID)
	if err != nil {
		return 0, fmt.Errorf("deleting rankings %s/%s: %w", source, sampleID, err)
	}
	return res.RowsAffected()
}

// RepointRankings moves every ranking row from one figure to another.
// Used by merges before the losing figure is deleted.
func (s *SQLiteStore) RepointRankings(ctx context.Context, fromID, toID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rankings SET figure_id = ? WHERE figure_id = ?`,
		toID, fromID)
	if err != nil {
		return 0, fmt.Errorf("repointing rankings %s -> %s: %w", fromID, toID, err)
	}
	return res.RowsAffected()
}

func scanRankings(rows *sql.Rows) ([]*Ranking, error) {
	var out []*Ranking
	for rows.Next() {
		var r Ranking
		if err := rows.Scan(&r.ID, &r.FigureID, &r.Source, &r.SampleID,
			&r.Rank, &r.Justification, &r.RawName, &r.RunID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning ranking row: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
