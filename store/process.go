package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// Process is one legal proceeding, keyed by its process number.
type Process struct {
	ID           int64     `json:"id"`
	Number       string    `json:"process_number"`
	Class        string    `json:"process_class"`
	Subject      string    `json:"subject"`
	Judge        string    `json:"judge"`
	PartiesCount int       `json:"parties_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProcessDefaults carries the field values used only when a process is
// created. An existing process keeps its stored values: first write wins.
type ProcessDefaults struct {
	Class   string
	Subject string
	Judge   string
}

// GetOrCreateProcess looks a process up by number, creating it with the
// given defaults when absent. A uniqueness violation raced in by a
// concurrent writer is absorbed by re-reading the winning row, so created
// is reported accurately in that case too.
func (s *Store) GetOrCreateProcess(ctx context.Context, number string, defaults ProcessDefaults) (*Process, bool, error) {
	if number == "" {
		return nil, false, fmt.Errorf("store: empty process number")
	}

	p, err := s.GetProcess(ctx, number)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO processes (process_number, process_class, subject, judge, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		number, defaults.Class, defaults.Subject, defaults.Judge, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			// Another ingestion created it between our lookup and insert.
			p, rerr := s.GetProcess(ctx, number)
			if rerr != nil {
				return nil, false, rerr
			}
			return p, false, nil
		}
		return nil, false, fmt.Errorf("store: insert process %s: %w", number, err)
	}

	p, err = s.GetProcess(ctx, number)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// GetProcess returns a process by its number, with the derived party count.
func (s *Store) GetProcess(ctx context.Context, number string) (*Process, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.process_number, p.process_class, p.subject, p.judge,
		       p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM parties WHERE process_id = p.id)
		FROM processes p
		WHERE p.process_number = ?`, number)
	return scanProcess(row)
}

// ProcessFilter narrows and pages ListProcesses results.
type ProcessFilter struct {
	Search   string // LIKE match over number, class, subject and judge
	Class    string // exact class filter
	Page     int    // 1-based, default 1
	PageSize int    // default 20, max 100
}

// Normalize applies the page defaults and bounds.
func (f *ProcessFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

// ListProcesses returns a result page (newest first) plus the unpaged total.
func (s *Store) ListProcesses(ctx context.Context, filter ProcessFilter) ([]*Process, int, error) {
	filter.Normalize()

	where := " WHERE 1=1"
	var args []any
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where += ` AND (p.process_number LIKE ? OR p.process_class LIKE ? OR p.subject LIKE ? OR p.judge LIKE ?)`
		args = append(args, like, like, like, like)
	}
	if filter.Class != "" {
		where += ` AND p.process_class = ?`
		args = append(args, filter.Class)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM processes p"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count processes: %w", err)
	}

	query := `
		SELECT p.id, p.process_number, p.process_class, p.subject, p.judge,
		       p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM parties WHERE process_id = p.id)
		FROM processes p` + where + `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?`
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list processes: %w", err)
	}
	defer rows.Close()

	var out []*Process
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// DeleteProcess removes a process; parties and their contacts cascade.
func (s *Store) DeleteProcess(ctx context.Context, number string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM processes WHERE process_number = ?`, number)
	if err != nil {
		return fmt.Errorf("store: delete process %s: %w", number, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcess(row rowScanner) (*Process, error) {
	var p Process
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Number, &p.Class, &p.Subject, &p.Judge, &createdAt, &updatedAt, &p.PartiesCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan process: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// parseTime rejects malformed stored timestamps instead of rendering the
// zero time; a bad value means the row was written outside this package.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: malformed timestamp %q: %w", s, err)
	}
	return t, nil
}
