package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/absbox/absc/internal/compiler"
	"github.com/absbox/absc/internal/deal"
	"github.com/absbox/absc/internal/ir"
	"github.com/absbox/absc/internal/store"
	"github.com/absbox/absc/internal/testutil"
)

// Harness is the test execution engine. Each run gets its own in-memory
// archive with sequential record ids, so results are reproducible.
type Harness struct {
	store  *store.Store
	ids    *testutil.SequentialIDs
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Create a fresh in-memory archive
//  2. Parse the source and compile the selected deal
//  3. Validate the compiled deal (with the assumption, if named)
//  4. Archive the deal and read it back by fingerprint
//  5. Evaluate assertions
//
// A compile failure is recorded in the result; only harness problems
// (unreadable source, archive failure) are returned as errors.
func Run(scenario *Scenario) (*Result, error) {
	ids := testutil.NewSequentialIDs()
	st, err := store.Open(":memory:", store.WithIDGenerator(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		ids:    ids,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx := context.Background()
	result := NewResult()
	if err := h.compile(ctx, scenario, result); err != nil {
		return nil, err
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) compile(ctx context.Context, scenario *Scenario, result *Result) error {
	data, err := os.ReadFile(scenario.Source)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	v, err := compiler.ParseSource(scenario.Source, data)
	if err != nil {
		result.CompileErr = err
		return nil
	}
	label := scenario.Deal
	if label == "" {
		labels, err := compiler.Labels(v, "deal")
		if err != nil {
			result.CompileErr = err
			return nil
		}
		if len(labels) == 0 {
			result.CompileErr = &compiler.CompileError{
				Kind:    compiler.InvalidSource,
				Field:   scenario.Source,
				Message: "no deal found",
			}
			return nil
		}
		label = labels[0]
	}
	result.Label = label

	cd, err := compiler.Compile(label, compiler.Section(v, "deal", label))
	if err != nil {
		result.CompileErr = err
		h.logger.Info("compile failed", "scenario", scenario.Name, "error", err)
		return nil
	}
	result.IR = cd.IR
	result.Fingerprint = cd.Fingerprint

	var assumption ir.IRValue
	if scenario.Assumption != "" {
		a, err := compiler.CompileAssumption(scenario.Assumption, compiler.Section(v, "assumption", scenario.Assumption))
		if err != nil {
			result.CompileErr = err
			return nil
		}
		assumption = a.Encode()
	}
	result.Validation, _ = compiler.ValidateDeal(cd.IR, assumption)
	compiler.SortErrors(result.Validation)

	return h.archive(ctx, scenario, cd, result)
}

// archive stores the compiled deal and checks that it reads back
// byte-identical.
func (h *Harness) archive(ctx context.Context, scenario *Scenario, cd *compiler.CompiledDeal, result *Result) error {
	rec, _, err := h.store.WriteDeal(ctx, store.DealRecord{
		Label:       cd.Label,
		DealName:    deal.DisplayName(cd.IR),
		DealType:    cd.IR.Tag,
		Fingerprint: cd.Fingerprint,
		IR:          cd.IR,
		Source:      scenario.Source,
	})
	if err != nil {
		return fmt.Errorf("failed to archive deal: %w", err)
	}
	result.RecordID = rec.ID

	back, err := h.store.ReadByFingerprint(ctx, cd.Fingerprint)
	if err != nil {
		return fmt.Errorf("failed to read archived deal: %w", err)
	}
	want, err := ir.MarshalCanonical(cd.IR)
	if err != nil {
		return err
	}
	got, err := ir.MarshalCanonical(back.IR)
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		result.AddError("archived IR differs from compiled IR")
	}

	h.logger.Info("scenario compiled",
		"scenario", scenario.Name,
		"label", cd.Label,
		"fingerprint", cd.Fingerprint,
		"record_id", rec.ID,
	)
	return nil
}
