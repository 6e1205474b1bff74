package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/juridigo/procpipe/extractor"
)

// Party is one participant of a process. The (process, name, document)
// triple is the natural key; re-ingesting the same party is a no-op.
type Party struct {
	ID        int64              `json:"id"`
	ProcessID int64              `json:"process_id"`
	Name      string             `json:"name"`
	Document  string             `json:"document"`
	Category  extractor.Category `json:"category"`
	Label     string             `json:"category_label"`
	CreatedAt time.Time          `json:"created_at"`
}

// GetOrCreateParty looks up a party by its natural key, creating it with
// the given category when absent. The category of an existing party is
// never updated by this path.
func (s *Store) GetOrCreateParty(ctx context.Context, processID int64, name, document string, category extractor.Category) (*Party, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("store: empty party name")
	}

	p, err := s.getParty(ctx, processID, name, document)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO parties (process_id, name, document, category, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		processID, name, document, string(category), now)
	if err != nil {
		if isUniqueViolation(err) {
			p, rerr := s.getParty(ctx, processID, name, document)
			if rerr != nil {
				return nil, false, rerr
			}
			return p, false, nil
		}
		return nil, false, fmt.Errorf("store: insert party %q: %w", name, err)
	}

	p, err = s.getParty(ctx, processID, name, document)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s *Store) getParty(ctx context.Context, processID int64, name, document string) (*Party, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, process_id, name, document, category, created_at
		FROM parties
		WHERE process_id = ? AND name = ? AND document = ?`,
		processID, name, document)
	return scanParty(row)
}

// GetParty returns one party by id.
func (s *Store) GetParty(ctx context.Context, id int64) (*Party, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, process_id, name, document, category, created_at
		FROM parties WHERE id = ?`, id)
	return scanParty(row)
}

// ListParties returns all parties of a process ordered by name.
func (s *Store) ListParties(ctx context.Context, processID int64) ([]*Party, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, process_id, name, document, category, created_at
		FROM parties
		WHERE process_id = ?
		ORDER BY name`, processID)
	if err != nil {
		return nil, fmt.Errorf("store: list parties: %w", err)
	}
	defer rows.Close()

	var out []*Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanParty(row rowScanner) (*Party, error) {
	var p Party
	var category, createdAt string
	err := row.Scan(&p.ID, &p.ProcessID, &p.Name, &p.Document, &category, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan party: %w", err)
	}
	p.Category = extractor.Category(category)
	p.Label = p.Category.Label()
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}
