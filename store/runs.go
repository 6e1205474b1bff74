package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FileStatus classifies the outcome of ingesting one file in a batch run.
type FileStatus string

const (
	FileCreated  FileStatus = "created"   // new process created
	FileExisting FileStatus = "existing"  // process already present
	FileNoNumber FileStatus = "no_number" // no case number anywhere (warning)
	FileError    FileStatus = "error"     // unreadable file or store failure
)

// RunRecord summarises one batch ingestion run.
type RunRecord struct {
	ID        string
	Root      string
	Processed int
	Created   int
	Skipped   int
	Failed    int
}

// FileRecord is the per-file outcome of a batch run.
type FileRecord struct {
	RunID         string
	Path          string
	Status        FileStatus
	ProcessNumber string
	Detail        string
}

// BeginRun records the start of a batch ingestion run.
func (s *Store) BeginRun(ctx context.Context, id, root string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, root, started_at) VALUES (?, ?, ?)`,
		id, root, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: begin run %s: %w", id, err)
	}
	return nil
}

// FinishRun stores the aggregate counters for a completed run.
func (s *Store) FinishRun(ctx context.Context, rec *RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ingest_runs
		SET finished_at = ?, processed = ?, created = ?, skipped = ?, failed = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		rec.Processed, rec.Created, rec.Skipped, rec.Failed, rec.ID)
	if err != nil {
		return fmt.Errorf("store: finish run %s: %w", rec.ID, err)
	}
	return nil
}

// InsertFileRecords appends per-file outcomes in one transaction. Used by
// the async run log writer, which batches records before flushing.
func (s *Store) InsertFileRecords(ctx context.Context, recs []*FileRecord) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.runTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO ingest_files (run_id, path, status, process_number, detail, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare file record: %w", err)
		}
		defer stmt.Close()
		for _, r := range recs {
			if _, err := stmt.ExecContext(ctx, r.RunID, r.Path, string(r.Status), r.ProcessNumber, r.Detail, now); err != nil {
				return fmt.Errorf("store: insert file record %s: %w", r.Path, err)
			}
		}
		return nil
	})
}

// ListFileRecords returns the per-file outcomes of a run in insertion order.
func (s *Store) ListFileRecords(ctx context.Context, runID string) ([]*FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, path, status, process_number, detail
		FROM ingest_files
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: list file records: %w", err)
	}
	defer rows.Close()

	var out []*FileRecord
	for rows.Next() {
		var r FileRecord
		var status string
		if err := rows.Scan(&r.RunID, &r.Path, &status, &r.ProcessNumber, &r.Detail); err != nil {
			return nil, fmt.Errorf("store: scan file record: %w", err)
		}
		r.Status = FileStatus(status)
		out = append(out, &r)
	}
	return out, rows.Err()
}
