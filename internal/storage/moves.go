package storage

import (
	"context"
	"fmt"

	"github.com/ysakai/filedrop/internal/model"
)

// SaveMove records one completed move.
func (s *SQLiteJournal) SaveMove(ctx context.Context, rec *model.MoveRecord) error {
	if rec == nil {
		return fmt.Errorf("move record cannot be nil")
	}
	if rec.Source == "" || rec.Target == "" {
		return fmt.Errorf("move record requires source and target")
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO moves (source, target, issue, title, moved_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Source, rec.Target, rec.Issue, rec.Title, rec.MovedAt)
	if err != nil {
		return fmt.Errorf("failed to save move: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// ListMoves returns the most recent moves, newest first. limit <= 0 means
// no limit.
func (s *SQLiteJournal) ListMoves(ctx context.Context, limit int) ([]model.MoveRecord, error) {
	query := `SELECT id, source, target, issue, title, moved_at FROM moves ORDER BY moved_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.MoveRecord
	for rows.Next() {
		var rec model.MoveRecord
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Target, &rec.Issue, &rec.Title, &rec.MovedAt); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate moves: %w", err)
	}
	return records, nil
}
