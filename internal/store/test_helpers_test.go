package store

import (
	"path/filepath"
	"testing"

	"github.com/absbox/absc/internal/ir"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDeal builds a record for a small deal document named name.
// Different balances give different fingerprints.
func createTestDeal(label, name string, balance string) DealRecord {
	doc := ir.Tag("MDeal", ir.Obj(
		ir.O("name", ir.Str(name)),
		ir.O("accounts", ir.Obj(
			ir.O("acc01", ir.Obj(
				ir.O("accName", ir.Str("acc01")),
				ir.O("accBalance", ir.MustNum(balance)),
			)),
		)),
	))
	return DealRecord{
		Label:       label,
		DealName:    name,
		DealType:    doc.Tag,
		Fingerprint: ir.MustFingerprint(ir.DomainDeal, doc),
		IR:          doc,
		Source:      "deals/" + label + ".cue",
	}
}
