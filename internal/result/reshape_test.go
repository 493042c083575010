package result

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *Result {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "response.json"))
	require.NoError(t, err)
	res, err := Reshape(data)
	require.NoError(t, err)
	return res
}

func cellString(t *testing.T, tbl *Table, key, col string) string {
	t.Helper()
	c, ok := tbl.Get(key, col)
	require.True(t, ok, "missing %s/%s", key, col)
	return c.String()
}

func TestReshapeBonds(t *testing.T) {
	res := loadFixture(t)

	assert.Equal(t, "MDeal", res.DealType)
	assert.Equal(t, "Demo Deal", res.DealName)
	require.Len(t, res.Bonds, 2)

	a1 := res.Bonds["A1"]
	assert.Equal(t, "date", a1.Index)
	assert.Equal(t, BondColumns, a1.Columns)
	assert.Equal(t, []string{"2021-07-26", "2021-08-26"}, a1.Keys())
	assert.Equal(t, "800", cellString(t, a1, "2021-07-26", "balance"))
	assert.Equal(t, "5", cellString(t, a1, "2021-07-26", "interest"))
	assert.Equal(t, "205", cellString(t, a1, "2021-07-26", "cash"))
	assert.Equal(t, `{"tag":"PayPrin","contents":["acc01",["A1"]]}`, cellString(t, a1, "2021-07-26", "memo"))

	memo, _ := a1.Get("2021-08-26", "memo")
	assert.True(t, memo.IsNull())

	assert.Empty(t, res.Bonds["B"].Rows, "null statement gives an empty table")
}

func TestReshapeFeesAggregatePerDate(t *testing.T) {
	res := loadFixture(t)
	fee := res.Fees["trustee"]

	assert.Equal(t, FeeColumns, fee.Columns)
	assert.Equal(t, []string{"2021-07-26", "2021-08-26"}, fee.Keys())
	assert.Equal(t, "30", cellString(t, fee, "2021-07-26", "balance"))
	assert.Equal(t, "30", cellString(t, fee, "2021-07-26", "paid"))
	assert.Equal(t, "20", cellString(t, fee, "2021-07-26", "due"))
	assert.Equal(t, "0", cellString(t, fee, "2021-08-26", "balance"))
}

func TestReshapeAccountsAggregatePerDate(t *testing.T) {
	res := loadFixture(t)
	acc := res.Accounts["acc01"]

	assert.Equal(t, AccountColumns, acc.Columns)
	require.Len(t, acc.Rows, 2)

	assert.Equal(t, "0", cellString(t, acc, "2021-07-26", "begin"))
	assert.Equal(t, "295", cellString(t, acc, "2021-07-26", "change"))
	assert.Equal(t, "295", cellString(t, acc, "2021-07-26", "end"))

	assert.Equal(t, "295", cellString(t, acc, "2021-08-26", "begin"), "begin carries the previous end")
	assert.Equal(t, "-295", cellString(t, acc, "2021-08-26", "change"))
	assert.Equal(t, "0", cellString(t, acc, "2021-08-26", "end"))
}

func TestReshapePoolAndPricing(t *testing.T) {
	res := loadFixture(t)

	assert.Equal(t, PoolColumns, res.Pool.Columns)
	assert.Equal(t, "1500", cellString(t, res.Pool, "2021-08-01", "balance"))
	assert.Equal(t, "0.08", cellString(t, res.Pool, "2021-08-01", "rate"))

	require.NotNil(t, res.Pricing)
	assert.Equal(t, "bond", res.Pricing.Index)
	assert.Equal(t, []string{"A1", "B"}, res.Pricing.Keys(), "pricing rows sorted by bond")
	assert.Equal(t, "980.5", cellString(t, res.Pricing, "A1", "pv"))
	assert.Equal(t, "2.9", cellString(t, res.Pricing, "B", "duration"))
}

func TestReshapeBareDealWithoutPricing(t *testing.T) {
	data := []byte(`[{"name":"bare","bonds":{},"fees":{},"accounts":{}}]`)

	res, err := Reshape(data)
	require.NoError(t, err)

	assert.Empty(t, res.DealType)
	assert.Equal(t, "bare", res.DealName)
	assert.Nil(t, res.Pricing)
	assert.Empty(t, res.Pool.Rows)
	assert.Equal(t, PoolColumns, res.Pool.Columns)
}

func TestReshapeRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"not an array", `{"name":"x"}`, "expected [deal"},
		{"empty array", `[]`, "empty array"},
		{"bad date", `[{"bonds":{"A":{"bndStmt":[["26/07/2021",1]]}}}]`, "bond A: row 0"},
		{"date not a string", `[{"fees":{"f":{"feeStmt":[[20210726,1]]}}}]`, "fee f: row 0"},
		{"bad number", `[{"accounts":{"a":{"accStmt":[["2021-07-26",1e]]}}}]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reshape([]byte(tt.data))
			require.Error(t, err)
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestPosition(t *testing.T) {
	res := loadFixture(t)

	views, err := res.Position(map[string]decimal.Decimal{"A1": decimal.NewFromInt(250)})
	require.NoError(t, err)

	a1 := views["A1"]
	require.NotNil(t, a1)
	assert.Equal(t, []string{"interest", "principal", "cash"}, a1.Columns)
	assert.Equal(t, "1.25", cellString(t, a1, "2021-07-26", "interest"))
	assert.Equal(t, "50", cellString(t, a1, "2021-07-26", "principal"))
	assert.Equal(t, "76", cellString(t, a1, "2021-08-26", "cash"))

	// The source table is left as it was.
	assert.Equal(t, "205", cellString(t, res.Bonds["A1"], "2021-07-26", "cash"))
}

func TestPositionRejects(t *testing.T) {
	res := loadFixture(t)

	_, err := res.Position(map[string]decimal.Decimal{"A1": decimal.NewFromInt(1001)})
	assert.ErrorIs(t, err, ErrPositionTooLarge)

	_, err = res.Position(map[string]decimal.Decimal{"Z": decimal.NewFromInt(1)})
	assert.ErrorContains(t, err, "bond not in result")

	views, err := res.Position(map[string]decimal.Decimal{"B": decimal.NewFromInt(100)})
	require.NoError(t, err, "a factor of exactly 1 is allowed")
	assert.Empty(t, views["B"].Rows)
}
