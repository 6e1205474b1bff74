package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Snapshot archives one ingested rendition of a process page: the
// sanitized HTML plus a markdown preview. The (process, sha256) pair is
// unique, so re-ingesting the identical document adds nothing.
type Snapshot struct {
	ID        int64     `json:"id"`
	ProcessID int64     `json:"process_id"`
	Source    string    `json:"source"`
	SHA256    string    `json:"sha256"`
	HTML      string    `json:"html,omitempty"`
	Markdown  string    `json:"markdown,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HashDocument returns the hex SHA-256 of raw document bytes.
func HashDocument(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// SaveSnapshot stores a snapshot, reporting false when an identical one
// already exists for the process.
func (s *Store) SaveSnapshot(ctx context.Context, snap *Snapshot) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (process_id, source, sha256, html, markdown, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ProcessID, snap.Source, snap.SHA256, snap.HTML, snap.Markdown, now)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("store: insert snapshot: %w", err)
	}
	return true, nil
}

// ListSnapshots returns snapshot metadata for a process, newest first.
// Body columns are omitted; fetch them per snapshot when needed.
func (s *Store) ListSnapshots(ctx context.Context, processID int64) ([]*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, process_id, source, sha256, created_at
		FROM snapshots
		WHERE process_id = ?
		ORDER BY created_at DESC, id DESC`, processID)
	if err != nil {
		return nil, fmt.Errorf("store: list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		var snap Snapshot
		var createdAt string
		if err := rows.Scan(&snap.ID, &snap.ProcessID, &snap.Source, &snap.SHA256, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan snapshot: %w", err)
		}
		created, err := parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		snap.CreatedAt = created
		out = append(out, &snap)
	}
	return out, rows.Err()
}
