package result

import (
	"fmt"
	"slices"

	"cloud.google.com/go/civil"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Column layouts of the reshaped tables.
var (
	BondColumns      = []string{"balance", "interest", "principal", "rate", "cash", "memo"}
	FeeColumns       = []string{"balance", "paid", "due"}
	AccountColumns   = []string{"begin", "change", "end"}
	LiquidityColumns = []string{"limit", "change", "credit", "memo"}
	SwapColumns      = []string{"notional", "net", "memo"}
	PoolColumns      = []string{"balance", "principal", "interest", "prepayment", "default", "recovery", "loss", "rate"}
	PricingColumns   = []string{"pv", "face", "wal", "duration", "accrued"}
)

// Result is the reshaped engine response. Entity maps are keyed by name.
type Result struct {
	DealType  string            `json:"dealType,omitempty"`
	DealName  string            `json:"dealName,omitempty"`
	Bonds     map[string]*Table `json:"bonds"`
	Fees      map[string]*Table `json:"fees"`
	Accounts  map[string]*Table `json:"accounts"`
	Liquidity map[string]*Table `json:"liquidity,omitempty"`
	RateSwaps map[string]*Table `json:"rateSwaps,omitempty"`
	Pool      *Table            `json:"pool"`
	Pricing   *Table            `json:"pricing,omitempty"`

	origins map[string]decimal.Decimal
}

// Reshape decodes an engine response and builds the result tables.
func Reshape(data []byte) (*Result, error) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	body := resp.Deal.Body

	r := &Result{
		DealType:  resp.Deal.Tag,
		DealName:  body.Name,
		Bonds:     make(map[string]*Table, len(body.Bonds)),
		Fees:      make(map[string]*Table, len(body.Fees)),
		Accounts:  make(map[string]*Table, len(body.Accounts)),
		Liquidity: make(map[string]*Table, len(body.LiqProvider)),
		RateSwaps: make(map[string]*Table, len(body.RateSwap)),
		origins:   make(map[string]decimal.Decimal, len(body.Bonds)),
	}

	var err error
	for name, b := range body.Bonds {
		if r.Bonds[name], err = readBond(b.Stmt); err != nil {
			return nil, fmt.Errorf("bond %s: %w", name, err)
		}
		if b.OriginInfo.OriginBalance != "" {
			ob, err := decimal.NewFromString(string(b.OriginInfo.OriginBalance))
			if err != nil {
				return nil, fmt.Errorf("bond %s: origin balance: %w", name, err)
			}
			r.origins[name] = ob
		}
	}
	for name, f := range body.Fees {
		if r.Fees[name], err = readFee(f.Stmt); err != nil {
			return nil, fmt.Errorf("fee %s: %w", name, err)
		}
	}
	for name, a := range body.Accounts {
		if r.Accounts[name], err = readAccount(a.Stmt); err != nil {
			return nil, fmt.Errorf("account %s: %w", name, err)
		}
	}
	for name, l := range body.LiqProvider {
		if r.Liquidity[name], err = readPositional(l.Stmt, LiquidityColumns); err != nil {
			return nil, fmt.Errorf("liquidity provider %s: %w", name, err)
		}
	}
	for name, s := range body.RateSwap {
		if r.RateSwaps[name], err = readPositional(s.Stmt, SwapColumns); err != nil {
			return nil, fmt.Errorf("rate swap %s: %w", name, err)
		}
	}

	r.Pool = NewTable("date", PoolColumns...)
	if body.Pool != nil {
		if r.Pool, err = readPositional(body.Pool.FutureCf, PoolColumns); err != nil {
			return nil, fmt.Errorf("pool flow: %w", err)
		}
	}
	if resp.Pricing != nil {
		if r.Pricing, err = readPricing(resp.Pricing); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// readPositional maps statement columns 1..n onto cols, keyed by the
// date in column 0.
func readPositional(s statement, cols []string) (*Table, error) {
	t := NewTable("date", cols...)
	for i, tx := range s {
		d, err := tx.date()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if _, err := civil.ParseDate(d); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		cells := make([]Cell, len(cols))
		for c := range cols {
			if cells[c], err = tx.cell(c + 1); err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i, cols[c], err)
			}
		}
		t.Rows = append(t.Rows, Row{Key: d, Cells: cells})
	}
	return t, nil
}

func readBond(s statement) (*Table, error) {
	return readPositional(s, BondColumns)
}

// readFee aggregates fee rows per date: lowest balance, total paid,
// lowest outstanding due.
func readFee(s statement) (*Table, error) {
	raw, err := readPositional(s, []string{"balance", "paid", "due", "memo"})
	if err != nil {
		return nil, err
	}
	t := NewTable("date", FeeColumns...)
	for _, g := range groupByDate(raw) {
		bal, paid, due := Null, Num(decimal.Zero), Null
		for _, row := range g.rows {
			bal = minCell(bal, row.Cells[0])
			paid = addCell(paid, row.Cells[1])
			due = minCell(due, row.Cells[2])
		}
		t.Rows = append(t.Rows, Row{Key: g.key, Cells: []Cell{bal, paid, due}})
	}
	return t, nil
}

// readAccount aggregates account rows per date. end is the balance after
// the last transaction of the date, change the sum of the amounts and
// begin the previous date's end; the first begin is end - change rounded
// to cents.
func readAccount(s statement) (*Table, error) {
	raw, err := readPositional(s, []string{"balance", "change", "memo"})
	if err != nil {
		return nil, err
	}
	t := NewTable("date", AccountColumns...)
	var prevEnd Cell
	for i, g := range groupByDate(raw) {
		change := Num(decimal.Zero)
		for _, row := range g.rows {
			change = addCell(change, row.Cells[1])
		}
		end := g.rows[len(g.rows)-1].Cells[0]
		begin := prevEnd
		if i == 0 {
			e, eok := end.Decimal()
			c, _ := change.Decimal()
			if eok {
				begin = Num(e.Sub(c).Round(2))
			}
		}
		t.Rows = append(t.Rows, Row{Key: g.key, Cells: []Cell{begin, change, end}})
		prevEnd = end
	}
	return t, nil
}

func readPricing(m map[string]txn) (*Table, error) {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	slices.Sort(names)

	t := NewTable("bond", PricingColumns...)
	for _, n := range names {
		cells := make([]Cell, len(PricingColumns))
		for c := range PricingColumns {
			var err error
			if cells[c], err = m[n].cell(c); err != nil {
				return nil, fmt.Errorf("pricing %s column %s: %w", n, PricingColumns[c], err)
			}
		}
		t.Rows = append(t.Rows, Row{Key: n, Cells: cells})
	}
	return t, nil
}

type dateGroup struct {
	key  string
	rows []Row
}

// groupByDate groups rows by key in ascending date order, keeping the row
// order within a date.
func groupByDate(t *Table) []dateGroup {
	idx := map[string]int{}
	var groups []dateGroup
	for _, r := range t.Rows {
		i, ok := idx[r.Key]
		if !ok {
			i = len(groups)
			idx[r.Key] = i
			groups = append(groups, dateGroup{key: r.Key})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	slices.SortStableFunc(groups, func(a, b dateGroup) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})
	return groups
}

func minCell(a, b Cell) Cell {
	bd, ok := b.Decimal()
	if !ok {
		return a
	}
	ad, ok := a.Decimal()
	if !ok || bd.LessThan(ad) {
		return b
	}
	return a
}

func addCell(a, b Cell) Cell {
	bd, ok := b.Decimal()
	if !ok {
		return a
	}
	ad, _ := a.Decimal()
	return Num(ad.Add(bd))
}
