package result

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
)

// Aggregation combines rows of one flow that share a key.
type Aggregation string

const (
	AggNone Aggregation = ""
	AggSum  Aggregation = "sum"
	AggMin  Aggregation = "min"
	AggMax  Aggregation = "max"
)

// ParseAggregation accepts "", "sum", "min" and "max".
func ParseAggregation(s string) (Aggregation, error) {
	switch a := Aggregation(s); a {
	case AggNone, AggSum, AggMin, AggMax:
		return a, nil
	}
	return AggNone, fmt.Errorf("unknown aggregation %q: want sum, min or max", s)
}

// FlowPath addresses one column of one reshaped table, e.g. bonds>A1>cash
// or pool>balance.
type FlowPath struct {
	Section string
	Entity  string
	Column  string
}

func (p FlowPath) String() string {
	if p.Entity == "" {
		return p.Section + ">" + p.Column
	}
	return p.Section + ">" + p.Entity + ">" + p.Column
}

// ParseFlowPath reads "section>entity>column", or "section>column" for
// the pool and pricing tables.
func ParseFlowPath(s string) (FlowPath, error) {
	parts := strings.Split(s, ">")
	switch {
	case len(parts) == 2 && (parts[0] == "pool" || parts[0] == "pricing"):
		return FlowPath{Section: parts[0], Column: parts[1]}, nil
	case len(parts) == 3 && slices.Contains([]string{"bonds", "fees", "accounts", "liquidity", "rateSwaps"}, parts[0]):
		if parts[1] == "" || parts[2] == "" {
			break
		}
		return FlowPath{Section: parts[0], Entity: parts[1], Column: parts[2]}, nil
	}
	return FlowPath{}, fmt.Errorf("flow path %q: want section>entity>column or pool>column", s)
}

// Table returns the table a path's section and entity address.
func (r *Result) Table(p FlowPath) (*Table, error) {
	var set map[string]*Table
	switch p.Section {
	case "pool":
		return r.Pool, nil
	case "pricing":
		if r.Pricing == nil {
			return nil, fmt.Errorf("%s: run was not priced", p)
		}
		return r.Pricing, nil
	case "bonds":
		set = r.Bonds
	case "fees":
		set = r.Fees
	case "accounts":
		set = r.Accounts
	case "liquidity":
		set = r.Liquidity
	case "rateSwaps":
		set = r.RateSwaps
	default:
		return nil, fmt.Errorf("%s: unknown section", p)
	}
	t, ok := set[p.Entity]
	if !ok {
		return nil, fmt.Errorf("%s: %s not in result", p, p.Entity)
	}
	return t, nil
}

// IsScenarioSet reports whether data is a multi-scenario response: an
// object keyed by scenario name rather than a single-run array.
func IsScenarioSet(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

// ReshapeScenarios decodes the engine's answer to a multi-scenario run,
// {scenario: response}, reshaping each response.
func ReshapeScenarios(data []byte) (map[string]*Result, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("reshape scenarios: expected {scenario: response}: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("reshape scenarios: no scenarios")
	}
	out := make(map[string]*Result, len(raw))
	for name, r := range raw {
		res, err := Reshape(r)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		out[name] = res
	}
	return out, nil
}

// ByScenario pulls the same flow out of every scenario and joins them on
// the key. Columns are named "<scenario>.<column>". Rows of one scenario
// sharing a key are combined with agg; with AggNone a repeated key is an
// error.
func ByScenario(results map[string]*Result, path FlowPath, agg Aggregation) (*Table, error) {
	flows := make(map[string]*Table, len(results))
	for name, r := range results {
		t, err := r.Table(path)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		c := t.Column(path.Column)
		if c < 0 {
			return nil, fmt.Errorf("scenario %s: %s: unknown column, have %v", name, path, t.Columns)
		}
		flow := NewTable(t.Index, path.Column)
		for _, row := range t.Rows {
			flow.Rows = append(flow.Rows, Row{Key: row.Key, Cells: []Cell{row.Cells[c]}})
		}
		if agg != AggNone {
			flow = aggregate(flow, agg)
		}
		flows[name] = flow
	}
	out, err := Join(flows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w (aggregate repeated keys with sum, min or max)", path, err)
	}
	return out, nil
}

// aggregate folds a one-column table to one row per key.
func aggregate(t *Table, agg Aggregation) *Table {
	out := NewTable(t.Index, t.Columns...)
	for _, g := range groupByDate(t) {
		acc := Null
		for _, row := range g.rows {
			switch agg {
			case AggSum:
				if acc.IsNull() {
					acc = row.Cells[0]
					if _, ok := acc.Decimal(); !ok {
						acc = Null
					}
					continue
				}
				acc = addCell(acc, row.Cells[0])
			case AggMin:
				acc = minCell(acc, row.Cells[0])
			case AggMax:
				acc = maxCell(acc, row.Cells[0])
			}
		}
		out.Rows = append(out.Rows, Row{Key: g.key, Cells: []Cell{acc}})
	}
	return out
}

func maxCell(a, b Cell) Cell {
	bd, ok := b.Decimal()
	if !ok {
		return a
	}
	ad, ok := a.Decimal()
	if !ok || bd.GreaterThan(ad) {
		return b
	}
	return a
}
