package database

import (
	"context"
	"fmt"
	"time"
)

// OperationRecord is one journal entry.
type OperationRecord struct {
	ID        int64
	Operation string
	Input     string
	Output    string
	KeyID     string
	Mode      string
	Elapsed   time.Duration
	Warnings  int
	// Error is empty for successful runs.
	Error     string
	Timestamp time.Time
}

// RecordOperation appends rec to the journal and returns its id.
func (s *Store) RecordOperation(ctx context.Context, rec *OperationRecord) (int64, error) {
	query := `
	INSERT INTO operations (operation, input, output, key_id, mode, elapsed_ms, warnings, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		rec.Operation,
		rec.Input,
		rec.Output,
		rec.KeyID,
		rec.Mode,
		rec.Elapsed.Milliseconds(),
		rec.Warnings,
		rec.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record operation: %w", err)
	}
	return result.LastInsertId()
}

// ListOperations returns journal entries, newest first. A non-empty keyID
// restricts the result to runs using that key; a positive limit caps it.
func (s *Store) ListOperations(ctx context.Context, keyID string, limit int) ([]OperationRecord, error) {
	query := `
	SELECT id, operation, input, output, key_id, mode, elapsed_ms, warnings, error, timestamp
	FROM operations
	WHERE 1=1
	`
	args := make([]any, 0)

	if keyID != "" {
		query += " AND key_id = ?"
		args = append(args, keyID)
	}

	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	results := make([]OperationRecord, 0)
	for rows.Next() {
		var rec OperationRecord
		var elapsed int64
		var timestamp string

		err := rows.Scan(
			&rec.ID,
			&rec.Operation,
			&rec.Input,
			&rec.Output,
			&rec.KeyID,
			&rec.Mode,
			&elapsed,
			&rec.Warnings,
			&rec.Error,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}

		rec.Elapsed = time.Duration(elapsed) * time.Millisecond
		rec.Timestamp = parseTimestamp(timestamp)
		results = append(results, rec)
	}

	return results, rows.Err()
}
