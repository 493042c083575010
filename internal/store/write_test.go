package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/absbox/absc/internal/ir"
	"github.com/absbox/absc/internal/testutil"
)

func TestWriteDeal_AssignsIdentity(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec, inserted, err := s.WriteDeal(ctx, createTestDeal("demo", "Demo 2022-1", "100.5"))
	if err != nil {
		t.Fatalf("WriteDeal() failed: %v", err)
	}
	if !inserted {
		t.Error("first write should insert")
	}
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		t.Fatalf("id %q is not a uuid: %v", rec.ID, err)
	}
	if id.Version() != 7 {
		t.Errorf("id version = %d, want 7", id.Version())
	}
	if rec.Seq != 1 {
		t.Errorf("seq = %d, want 1", rec.Seq)
	}
	if rec.IRVersion != ir.IRVersion {
		t.Errorf("ir_version = %q, want %q", rec.IRVersion, ir.IRVersion)
	}
}

func TestWriteDeal_IdempotentOnFingerprint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, _, err := s.WriteDeal(ctx, createTestDeal("demo", "Demo", "100"))
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	again, inserted, err := s.WriteDeal(ctx, createTestDeal("renamed-label", "Demo", "100"))
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if inserted {
		t.Error("same document must not be inserted twice")
	}
	if again.ID != first.ID || again.Label != "demo" {
		t.Errorf("got existing record %+v, want %+v", again, first)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestWriteDeal_RequiresFingerprint(t *testing.T) {
	s := createTestStore(t)
	rec := createTestDeal("demo", "Demo", "1")
	rec.Fingerprint = ""
	if _, _, err := s.WriteDeal(context.Background(), rec); err == nil {
		t.Error("expected error for missing fingerprint")
	}
}

func TestHistory_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, bal := range []string{"100", "90", "80"} {
		if _, _, err := s.WriteDeal(ctx, createTestDeal("demo", "Demo", bal)); err != nil {
			t.Fatalf("write %s: %v", bal, err)
		}
	}
	if _, _, err := s.WriteDeal(ctx, createTestDeal("other", "Other", "5")); err != nil {
		t.Fatalf("write other: %v", err)
	}

	hist, err := s.History(ctx, "Demo")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(hist))
	}
	for i, rec := range hist {
		if rec.Seq != int64(i+1) {
			t.Errorf("history[%d].seq = %d, want %d", i, rec.Seq, i+1)
		}
	}

	byLabel, err := s.History(ctx, "other")
	if err != nil {
		t.Fatalf("History(label) failed: %v", err)
	}
	if len(byLabel) != 1 || byLabel[0].Seq != 4 {
		t.Errorf("history by label = %+v, want one record with seq 4", byLabel)
	}

	none, err := s.History(ctx, "missing")
	if err != nil {
		t.Fatalf("History(missing) failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("history of unknown deal = %#v, want empty slice", none)
	}
}

func TestReadByFingerprint_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := createTestDeal("demo", "Demo", "123.4500")
	if _, _, err := s.WriteDeal(ctx, want); err != nil {
		t.Fatalf("WriteDeal() failed: %v", err)
	}

	got, err := s.ReadByFingerprint(ctx, want.Fingerprint)
	if err != nil {
		t.Fatalf("ReadByFingerprint() failed: %v", err)
	}
	wantJSON, _ := ir.MarshalCanonical(want.IR)
	gotJSON, _ := ir.MarshalCanonical(got.IR)
	if string(gotJSON) != string(wantJSON) {
		t.Errorf("stored IR = %s, want %s", gotJSON, wantJSON)
	}
	if fp := ir.MustFingerprint(ir.DomainDeal, got.IR); fp != want.Fingerprint {
		t.Errorf("reloaded fingerprint = %s, want %s", fp, want.Fingerprint)
	}

	_, err = s.ReadByFingerprint(ctx, "deadbeef")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestWriteDealWithIDGenerator(t *testing.T) {
	ids := testutil.NewSequentialIDs()
	s, err := Open(":memory:", WithIDGenerator(ids))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	for i, bal := range []string{"1", "2"} {
		got, _, err := s.WriteDeal(ctx, createTestDeal("demo", "Demo", bal))
		if err != nil {
			t.Fatalf("WriteDeal() failed: %v", err)
		}
		want := fmt.Sprintf("00000000-0000-7000-8000-%012d", i+1)
		if got.ID != want {
			t.Errorf("ID = %s, want %s", got.ID, want)
		}
	}

	// A repeated write takes no id.
	if _, _, err := s.WriteDeal(ctx, createTestDeal("demo", "Demo", "1")); err != nil {
		t.Fatalf("WriteDeal() failed: %v", err)
	}
	if ids.Issued() != 2 {
		t.Errorf("Issued() = %d, want 2", ids.Issued())
	}
}
