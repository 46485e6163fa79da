package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nao1215/pngcipher/internal/model"
)

// InspectionMetadata contains summary information about a saved report.
type InspectionMetadata struct {
	ID        int64
	File      string
	Timestamp time.Time
	// Summary holds the chunk, warning, invalid-CRC and privacy finding
	// counts.
	Summary map[string]int
}

// SaveInspection stores an inspection report as JSON.
func (s *Store) SaveInspection(ctx context.Context, report *model.InspectionReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	summary := map[string]int{
		"chunks":      len(report.Chunks),
		"warnings":    report.WarningCount(),
		"invalid_crc": report.InvalidCRCCount(),
		"findings":    len(report.Findings),
	}
	summaryJSON, _ := json.Marshal(summary) //nolint:errcheck,errchkjson // plain map

	query := `
	INSERT INTO inspections (file, report_json, summary)
	VALUES (?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		report.File,
		string(reportJSON),
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save inspection: %w", err)
	}
	return result.LastInsertId()
}

// GetInspection retrieves a saved report by id. It returns nil when the id
// does not exist.
func (s *Store) GetInspection(ctx context.Context, id int64) (*model.InspectionReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM inspections WHERE id = ?`, id).Scan(&reportJSON)
	if noRows(err) {
		return nil, nil //nolint:nilnil // absent report
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection: %w", err)
	}

	var report model.InspectionReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// InspectionHistory returns metadata of every saved report for file,
// newest first.
func (s *Store) InspectionHistory(ctx context.Context, file string) ([]InspectionMetadata, error) {
	query := `
	SELECT id, file, timestamp, summary
	FROM inspections
	WHERE file = ?
	ORDER BY id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, file)
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection history: %w", err)
	}
	defer rows.Close()

	results := make([]InspectionMetadata, 0)
	for rows.Next() {
		var meta InspectionMetadata
		var timestamp string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.File, &timestamp, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)

		meta.Summary = make(map[string]int)
		if summaryJSON.Valid && summaryJSON.String != "" {
			_ = json.Unmarshal([]byte(summaryJSON.String), &meta.Summary) //nolint:errcheck // best effort
		}
		results = append(results, meta)
	}

	return results, rows.Err()
}

// InspectedFile is a file with saved reports.
type InspectedFile struct {
	File    string
	Reports int
	Latest  time.Time
}

// ListInspectedFiles returns every file with at least one saved report,
// ordered by name.
func (s *Store) ListInspectedFiles(ctx context.Context) ([]InspectedFile, error) {
	query := `
	SELECT file, COUNT(*), MAX(timestamp)
	FROM inspections
	GROUP BY file
	ORDER BY file
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspected files: %w", err)
	}
	defer rows.Close()

	results := make([]InspectedFile, 0)
	for rows.Next() {
		var f InspectedFile
		var latest string
		if err := rows.Scan(&f.File, &f.Reports, &latest); err != nil {
			return nil, fmt.Errorf("failed to scan inspected file: %w", err)
		}
		f.Latest = parseTimestamp(latest)
		results = append(results, f)
	}
	return results, rows.Err()
}
