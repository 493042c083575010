package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/json"
	"cuelang.org/go/encoding/yaml"
	"golang.org/x/sync/errgroup"

	"github.com/absbox/absc/internal/deal"
)

// ParseSource builds a CUE value from a description file. The format is
// chosen by extension: .cue, .yaml/.yml or .json.
func ParseSource(filename string, data []byte) (cue.Value, error) {
	ctx := cuecontext.New()
	var v cue.Value
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(filename))
	case ".yaml", ".yml":
		f, err := yaml.Extract(filename, data)
		if err != nil {
			return cue.Value{}, formatCUEError(filename, err)
		}
		v = ctx.BuildFile(f)
	case ".json":
		expr, err := json.Extract(filename, data)
		if err != nil {
			return cue.Value{}, formatCUEError(filename, err)
		}
		v = ctx.BuildExpr(expr)
	default:
		return cue.Value{}, &CompileError{
			Kind:    InvalidSource,
			Field:   filename,
			Message: "unsupported file type (want .cue, .yaml, .yml or .json)",
		}
	}
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(filename, err)
	}
	return v, nil
}

// Labels lists the labels under a top-level section (deal, assumption,
// pricing) in source order.
func Labels(v cue.Value, section string) ([]string, error) {
	s := lookup(v, section)
	if !s.Exists() {
		return nil, nil
	}
	iter, err := s.Fields()
	if err != nil {
		return nil, formatCUEError(section, err)
	}
	var out []string
	for iter.Next() {
		out = append(out, iter.Selector().Unquoted())
	}
	return out, nil
}

// Section returns section.<label>.
func Section(v cue.Value, section, label string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(section), cue.Str(label)))
}

// CompileSource compiles every deal of a description file, up to workers
// at a time. Results are in source order. Each worker parses its own copy
// of the source because CUE values are not shared across goroutines.
func CompileSource(ctx context.Context, filename string, data []byte, workers int) ([]*CompiledDeal, error) {
	v, err := ParseSource(filename, data)
	if err != nil {
		return nil, err
	}
	labels, err := Labels(v, "deal")
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, &CompileError{Kind: InvalidSource, Field: filename, Message: "no deal found"}
	}
	if workers < 1 {
		workers = 1
	}

	// Deals after the lowest failing index are skipped; the error reported
	// is always the first failure in source order.
	out := make([]*CompiledDeal, len(labels))
	errs := make([]error, len(labels))
	var mu sync.Mutex
	firstFail := len(labels)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, label := range labels {
		g.Go(func() error {
			mu.Lock()
			skip := i > firstFail
			mu.Unlock()
			if skip {
				return nil
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			own, err := ParseSource(filename, data)
			if err == nil {
				out[i], err = Compile(label, Section(own, "deal", label))
			}
			if err != nil {
				errs[i] = err
				mu.Lock()
				firstFail = min(firstFail, i)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Scenario is the assumption and pricing part of a request.
type Scenario struct {
	Assumptions []deal.AssumptionSet
	Pricing     *deal.Pricing
}

// CompileScenario reads the assumption and pricing sections of v. Only
// the named pricing is used; an empty name takes the first one, if any.
func CompileScenario(v cue.Value, pricing string) (*Scenario, error) {
	sc := &Scenario{}
	labels, err := Labels(v, "assumption")
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		a, err := CompileAssumption(l, Section(v, "assumption", l))
		if err != nil {
			return nil, err
		}
		sc.Assumptions = append(sc.Assumptions, *a)
	}

	labels, err = Labels(v, "pricing")
	if err != nil {
		return nil, err
	}
	if pricing == "" && len(labels) > 0 {
		pricing = labels[0]
	}
	if pricing != "" {
		pv := Section(v, "pricing", pricing)
		if !pv.Exists() {
			return nil, fmt.Errorf("pricing %q: %w", pricing, ErrInvalidSource)
		}
		if sc.Pricing, err = CompilePricing(pricing, pv); err != nil {
			return nil, err
		}
	}
	return sc, nil
}
