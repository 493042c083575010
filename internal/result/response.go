package result

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// response is the top-level engine answer: [deal, pool, logs, pricing].
// Only the deal is required.
type response struct {
	Deal    dealEnvelope
	Pricing map[string]txn
}

func (r *response) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("response: expected [deal, ...]: %w", err)
	}
	if len(parts) == 0 {
		return fmt.Errorf("response: empty array")
	}
	if err := json.Unmarshal(parts[0], &r.Deal); err != nil {
		return fmt.Errorf("response deal: %w", err)
	}
	if len(parts) > 3 && !isNull(parts[3]) {
		if err := json.Unmarshal(parts[3], &r.Pricing); err != nil {
			return fmt.Errorf("response pricing: %w", err)
		}
	}
	return nil
}

// dealEnvelope accepts both {"tag": "MDeal", "contents": {...}} and the
// bare deal object.
type dealEnvelope struct {
	Tag  string
	Body dealBody
}

func (e *dealEnvelope) UnmarshalJSON(data []byte) error {
	var tagged struct {
		Tag      string          `json:"tag"`
		Contents json.RawMessage `json:"contents"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if tagged.Tag != "" && len(tagged.Contents) > 0 {
		e.Tag = tagged.Tag
		return json.Unmarshal(tagged.Contents, &e.Body)
	}
	return json.Unmarshal(data, &e.Body)
}

type dealBody struct {
	Name        string              `json:"name"`
	Bonds       map[string]bondBody `json:"bonds"`
	Fees        map[string]feeBody  `json:"fees"`
	Accounts    map[string]accBody  `json:"accounts"`
	LiqProvider map[string]liqBody  `json:"liqProvider"`
	RateSwap    map[string]swapBody `json:"rateSwap"`
	Pool        *poolBody           `json:"pool"`
}

type bondBody struct {
	Stmt       statement `json:"bndStmt"`
	OriginInfo struct {
		OriginBalance json.Number `json:"originBalance"`
	} `json:"bndOriginInfo"`
}

type feeBody struct {
	Stmt statement `json:"feeStmt"`
}

type accBody struct {
	Stmt statement `json:"accStmt"`
}

type liqBody struct {
	Stmt statement `json:"liqStmt"`
}

type swapBody struct {
	Stmt statement `json:"rsStmt"`
}

type poolBody struct {
	FutureCf statement `json:"futureCf"`
}

// statement is a list of transactions. The engine writes it as null, a
// bare array or a tagged wrapper around the array.
type statement []txn

func (s *statement) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*s = nil
		return nil
	}
	var rows []txn
	if data[0] == '[' {
		if err := json.Unmarshal(data, &rows); err != nil {
			return err
		}
		*s = rows
		return nil
	}
	var wrapped struct {
		Contents []txn `json:"contents"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*s = wrapped.Contents
	return nil
}

// txn is one positional row; the engine tags it ({"tag": "BondTxn",
// "contents": [...]}) but a bare array is read the same way.
type txn []json.RawMessage

func (t *txn) UnmarshalJSON(data []byte) error {
	var cols []json.RawMessage
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &cols); err != nil {
			return err
		}
		*t = cols
		return nil
	}
	var tagged struct {
		Contents []json.RawMessage `json:"contents"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	*t = tagged.Contents
	return nil
}

// cell converts the i-th column. Missing columns are null; objects and
// arrays (memos) are kept as compact JSON text.
func (t txn) cell(i int) (Cell, error) {
	if i >= len(t) {
		return Null, nil
	}
	return toCell(t[i])
}

func (t txn) date() (string, error) {
	if len(t) == 0 {
		return "", fmt.Errorf("empty transaction")
	}
	var s string
	if err := json.Unmarshal(t[0], &s); err != nil {
		return "", fmt.Errorf("transaction date %s: %w", t[0], err)
	}
	return s, nil
}

func toCell(raw json.RawMessage) (Cell, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || isNull(raw):
		return Null, nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Null, err
		}
		return Text(s), nil
	case raw[0] == '{' || raw[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return Null, err
		}
		return Text(buf.String()), nil
	case raw[0] == 't' || raw[0] == 'f':
		return Text(string(raw)), nil
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return Null, fmt.Errorf("number %s: %w", raw, err)
	}
	return Num(d), nil
}

func isNull(raw []byte) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
