package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no archived deal matches.
var ErrNotFound = errors.New("deal not found in archive")

const selectDeal = `
	SELECT id, seq, label, deal_name, deal_type, fingerprint, ir, ir_version, compiler, source
	FROM compiled_deals`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(row rowScanner) (DealRecord, error) {
	var rec DealRecord
	var irJSON string
	err := row.Scan(
		&rec.ID,
		&rec.Seq,
		&rec.Label,
		&rec.DealName,
		&rec.DealType,
		&rec.Fingerprint,
		&irJSON,
		&rec.IRVersion,
		&rec.Compiler,
		&rec.Source,
	)
	if err != nil {
		return DealRecord{}, err
	}
	if rec.IR, err = unmarshalIR(irJSON); err != nil {
		return DealRecord{}, err
	}
	return rec, nil
}

// History returns every archived version of a deal, matched on the deal
// name or the source label, oldest first. Ordering is deterministic:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) History(ctx context.Context, name string) ([]DealRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectDeal+`
		WHERE deal_name = ? OR label = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, name, name)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	records := []DealRecord{}
	for rows.Next() {
		rec, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// ReadByFingerprint returns the archived deal with the given fingerprint,
// or ErrNotFound.
func (s *Store) ReadByFingerprint(ctx context.Context, fingerprint string) (DealRecord, error) {
	rec, err := scanDeal(s.db.QueryRowContext(ctx, selectDeal+` WHERE fingerprint = ?`, fingerprint))
	if errors.Is(err, sql.ErrNoRows) {
		return DealRecord{}, fmt.Errorf("fingerprint %s: %w", fingerprint, ErrNotFound)
	}
	if err != nil {
		return DealRecord{}, fmt.Errorf("read deal: %w", err)
	}
	return rec, nil
}

// Count returns the number of archived deals.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM compiled_deals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count deals: %w", err)
	}
	return n, nil
}
