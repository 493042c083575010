package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/absbox/absc/internal/ir"
)

// DealRecord is one archived compiled deal.
type DealRecord struct {
	ID          string
	Seq         int64
	Label       string
	DealName    string
	DealType    string
	Fingerprint string
	IR          ir.IRTagged
	IRVersion   string
	Compiler    string
	Source      string
}

// WriteDeal archives a compiled deal document and returns the stored
// record. Writes are idempotent on the fingerprint: if the same document
// is already archived, the existing record is returned with
// inserted=false and nothing is written.
//
// ID, Seq, IRVersion and Compiler are assigned by the store; values set
// by the caller are ignored.
func (s *Store) WriteDeal(ctx context.Context, rec DealRecord) (stored DealRecord, inserted bool, err error) {
	if rec.Fingerprint == "" {
		return DealRecord{}, false, fmt.Errorf("write deal %q: fingerprint is required", rec.Label)
	}
	irJSON, err := marshalIR(rec.IR)
	if err != nil {
		return DealRecord{}, false, fmt.Errorf("write deal %q: %w", rec.Label, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DealRecord{}, false, fmt.Errorf("write deal: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	existing, err := scanDeal(tx.QueryRowContext(ctx, selectDeal+` WHERE fingerprint = ?`, rec.Fingerprint))
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return DealRecord{}, false, fmt.Errorf("write deal: lookup fingerprint: %w", err)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return DealRecord{}, false, fmt.Errorf("write deal: new id: %w", err)
	}
	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM compiled_deals`).Scan(&seq); err != nil {
		return DealRecord{}, false, fmt.Errorf("write deal: next seq: %w", err)
	}

	rec.ID = id
	rec.Seq = seq
	rec.IRVersion = ir.IRVersion
	rec.Compiler = ir.CompilerVersion
	_, err = tx.ExecContext(ctx, `
		INSERT INTO compiled_deals
		(id, seq, label, deal_name, deal_type, fingerprint, ir, ir_version, compiler, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Seq,
		rec.Label,
		rec.DealName,
		rec.DealType,
		rec.Fingerprint,
		irJSON,
		rec.IRVersion,
		rec.Compiler,
		rec.Source,
	)
	if err != nil {
		return DealRecord{}, false, fmt.Errorf("write deal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return DealRecord{}, false, fmt.Errorf("write deal: commit: %w", err)
	}
	return rec, true, nil
}
