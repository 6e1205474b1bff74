package store

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// ContactType discriminates party contact kinds.
type ContactType string

const (
	ContactEmail ContactType = "EMAIL"
	ContactPhone ContactType = "PHONE"
)

// PartyContact is one contact entry of a party. Primary contacts sort
// first when listed; primary exclusivity per kind is not enforced.
type PartyContact struct {
	ID        int64       `json:"id"`
	PartyID   int64       `json:"party_id"`
	Type      ContactType `json:"contact_type"`
	Value     string      `json:"value"`
	IsPrimary bool        `json:"is_primary"`
	CreatedAt time.Time   `json:"created_at"`
}

// Brazilian phone shapes: optional +55, 2-digit area code, 8 or 9 digits.
var phoneRe = regexp.MustCompile(`^\+?(55)?\s?\(?[0-9]{2}\)?\s?[0-9]{4,5}-?[0-9]{4}$`)

// ValidateContact checks a contact value against its kind's format.
func ValidateContact(kind ContactType, value string) error {
	switch kind {
	case ContactEmail:
		if _, err := mail.ParseAddress(value); err != nil {
			return fmt.Errorf("store: invalid email %q", value)
		}
	case ContactPhone:
		if !phoneRe.MatchString(strings.TrimSpace(value)) {
			return fmt.Errorf("store: invalid phone %q", value)
		}
	default:
		return fmt.Errorf("store: unknown contact type %q", kind)
	}
	return nil
}

// AddContact validates and inserts a contact for a party.
func (s *Store) AddContact(ctx context.Context, partyID int64, kind ContactType, value string, primary bool) (*PartyContact, error) {
	if err := ValidateContact(kind, value); err != nil {
		return nil, err
	}
	if _, err := s.GetParty(ctx, partyID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO party_contacts (party_id, contact_type, value, is_primary, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		partyID, string(kind), value, boolToInt(primary), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("store: insert contact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: contact id: %w", err)
	}
	return &PartyContact{
		ID:        id,
		PartyID:   partyID,
		Type:      kind,
		Value:     value,
		IsPrimary: primary,
		CreatedAt: now,
	}, nil
}

// ListContacts returns a party's contacts, primary entries first, then by
// type and value.
func (s *Store) ListContacts(ctx context.Context, partyID int64) ([]*PartyContact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, party_id, contact_type, value, is_primary, created_at
		FROM party_contacts
		WHERE party_id = ?
		ORDER BY is_primary DESC, contact_type, value`, partyID)
	if err != nil {
		return nil, fmt.Errorf("store: list contacts: %w", err)
	}
	defer rows.Close()

	var out []*PartyContact
	for rows.Next() {
		var c PartyContact
		var kind, createdAt string
		var primary int
		if err := rows.Scan(&c.ID, &c.PartyID, &kind, &c.Value, &primary, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan contact: %w", err)
		}
		c.Type = ContactType(kind)
		c.IsPrimary = primary != 0
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
