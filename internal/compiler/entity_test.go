package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBond(t *testing.T) {
	b, err := parseBond("A1", expr(t, `{
		balance: 800
		rate: 0.05
		originBalance: 1000
		originRate: 0.05
		originDate: "2021-06-15"
		interest: {fixed: 0.05}
		type: "sequential"
	}`), "bonds.A1")
	require.NoError(t, err)

	want := `{"bndBalance":800,"bndDueInt":0,"bndDueIntDate":null,"bndDuePrin":0,` +
		`"bndInterestInfo":{"contents":[0.05,"DC_ACT_365F"],"tag":"Fix"},` +
		`"bndName":"A1",` +
		`"bndOriginInfo":{"originBalance":1000,"originDate":"2021-06-15","originRate":0.05},` +
		`"bndRate":0.05,"bndType":{"tag":"Sequential"}}`
	assert.Equal(t, want, canon(t, b.Encode()))
}

func TestParseBondType(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"sequential"`, `{"tag":"Sequential"}`},
		{`"equity"`, `{"tag":"Equity"}`},
		{`{lockout: "2023-01-01"}`, `{"contents":"2023-01-01","tag":"Lockout"}`},
		{
			`{pac: [["2022-01-01", 900], ["2022-07-01", 700]]}`,
			`{"contents":{"contents":[["2022-01-01",900],["2022-07-01",700]],"tag":"BalanceCurve"},"tag":"PAC"}`,
		},
	}
	for _, tt := range tests {
		bt, err := parseBondType(expr(t, tt.src), "type")
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, canon(t, bt.Encode()))
	}

	_, err := parseBondType(expr(t, `"turbo"`), "type")
	requireKind(t, err, UnmatchedEntityVariant)
	_, err = parseBondType(expr(t, `{pac: [], lockout: "2023-01-01"}`), "type")
	requireKind(t, err, UnmatchedEntityVariant)
}

func TestParseBondRate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"fixed default day count", `{fixed: 0.07}`, `{"contents":[0.07,"DC_ACT_365F"],"tag":"Fix"}`},
		{"fixed short day count", `{fixed: 0.07, dayCount: "30/360"}`, `{"contents":[0.07,"DC_30_360_US"],"tag":"Fix"}`},
		{
			"floating default day count",
			`{floating: ["SOFR3M", 0.015, {interval: "quarterly"}]}`,
			`{"contents":["SOFR3M",0.015,{"contents":[{"tag":"Quarterly"},null],"tag":"ByInterval"},"DC_ACT_365F",null,null],"tag":"Floater"}`,
		},
		{
			"floating explicit day count",
			`{floating: ["LPR5Y", -0.001, {resetMonth: 1}], dayCount: "DC_ACT_360"}`,
			`{"contents":["LPR5Y",-0.001,{"contents":1,"tag":"MonthOfYear"},"DC_ACT_360",null,null],"tag":"Floater"}`,
		},
		{"yield", `{yield: 0.12}`, `{"contents":0.12,"tag":"InterestByYield"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := parseBondRate(expr(t, tt.src), "interest")
			require.NoError(t, err)
			assert.Equal(t, tt.want, canon(t, r.Encode()))
		})
	}

	_, err := parseBondRate(expr(t, `{floating: ["EURIBOR", 0.01, {interval: "monthly"}]}`), "interest")
	requireKind(t, err, UnmatchedEntityVariant)
	_, err = parseBondRate(expr(t, `{floating: ["SOFR3M", 0.01]}`), "interest")
	requireKind(t, err, UnmatchedEntityVariant)
	_, err = parseBondRate(expr(t, `{stepUp: 0.01}`), "interest")
	requireKind(t, err, UnmatchedEntityVariant)
}

func TestParseBondRateRejectsAmbiguousShapes(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"fixed and floating", `{fixed: 0.05, floating: ["LIBOR1M", 0.01, {interval: "monthly"}]}`},
		{"fixed and yield", `{fixed: 0.05, yield: 0.1}`},
		{"misspelled day count", `{fixed: 0.05, daycount: "30/360"}`},
		{"day count with yield", `{yield: 0.1, dayCount: "30/360"}`},
		{"day count alone", `{dayCount: "30/360"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := parseBondRate(expr(t, tt.src), "interest")
			requireKind(t, err, UnmatchedEntityVariant)
			assert.Nil(t, r)
		})
	}
}

func TestEntityFieldsAreClosed(t *testing.T) {
	_, err := parseBond("A1", expr(t, `{
		balance: 800
		rate: 0.05
		originBalance: 1000
		originRate: 0.05
		originDate: "2021-06-15"
		interest: {fixed: 0.05}
		type: "sequential"
		maturity: "2030-01-01"
	}`), "bonds.A1")
	requireKind(t, err, UnmatchedEntityVariant)
	assert.Contains(t, err.Error(), "bonds.A1.maturity")

	_, err = parseFee("trustee", expr(t, `{type: {fixed: 100}, strat: "2022-02-01"}`), "fees.trustee")
	requireKind(t, err, UnmatchedEntityVariant)
	assert.Contains(t, err.Error(), "fees.trustee.strat")

	_, err = parseLiquidity("bank", expr(t, `{type: "fixed", limit: 500, liimt: 600}`), "liquidity.bank")
	requireKind(t, err, UnmatchedEntityVariant)

	_, err = parseLiquidity("bank", expr(t, `{type: {replenish: ["quarterEnd", 300], topUp: 1}, limit: 300}`), "liquidity.bank")
	requireKind(t, err, UnmatchedEntityVariant)
}

func TestParseFeeType(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"fixed", `{fixed: 100}`, `{"contents":100,"tag":"FixFee"}`},
		{"recurring", `{recurring: ["monthEnd", 25]}`, `{"contents":[{"tag":"MonthEnd"},25],"tag":"RecurFee"}`},
		{
			"annual rate",
			`{annualRate: ["poolBalance", 0.0025]}`,
			`{"contents":[{"contents":"1970-01-01","tag":"CurrentPoolBalance"},0.0025],"tag":"AnnualRateFee"}`,
		},
		{
			"pct of collected interest",
			`{pctRate: ["poolCollection", "interest", 0.01]}`,
			`{"contents":[{"contents":"CollectedInterest","tag":"PoolCollectionIncome"},0.01],"tag":"PctFee"}`,
		},
		{
			"pct of bond interest",
			`{pctRate: ["bondInterestPaid", "A", "B", 0.02]}`,
			`{"contents":[{"contents":["A","B"],"tag":"LastBondIntPaid"},0.02],"tag":"PctFee"}`,
		},
		{
			"pct of bond principal",
			`{pctRate: ["bondPrincipalPaid", "A", 0.02]}`,
			`{"contents":[{"contents":["A"],"tag":"LastBondPrinPaid"},0.02],"tag":"PctFee"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft, err := parseFeeType(expr(t, tt.src), "type")
			require.NoError(t, err)
			assert.Equal(t, tt.want, canon(t, ft.Encode()))
		})
	}
}

func TestParseFeeTypeRejects(t *testing.T) {
	for _, src := range []string{
		`{pctRate: ["poolCollection", "principal", 0.01]}`,
		`{pctRate: ["bondInterestPaid", 0.01]}`,
		`{pctRate: ["grossRevenue", 0.01]}`,
		`{annualRate: ["poolSize", 0.01]}`,
		`{monthly: 5}`,
		`{fixed: 1, recurring: ["monthEnd", 1]}`,
	} {
		_, err := parseFeeType(expr(t, src), "type")
		requireKind(t, err, UnmatchedEntityVariant)
	}
}

func TestParseFeeStartLeftForDealDefault(t *testing.T) {
	f, err := parseFee("trustee", expr(t, `{type: {fixed: 100}}`), "fees.trustee")
	require.NoError(t, err)
	assert.Nil(t, f.Start)

	f, err = parseFee("trustee", expr(t, `{type: {fixed: 100}, start: "2022-02-01"}`), "fees.trustee")
	require.NoError(t, err)
	require.NotNil(t, f.Start)
	assert.Equal(t, "2022-02-01", f.Start.String())
}

func TestParseAccount(t *testing.T) {
	a, err := parseAccount("acc01", expr(t, `{balance: 0}`), "accounts.acc01")
	require.NoError(t, err)
	assert.Equal(t,
		`{"accBalance":0,"accInterest":null,"accName":"acc01","accStmt":null,"accType":null}`,
		canon(t, a.Encode()))

	a, err = parseAccount("rsv", expr(t, `{
		balance: 50
		reserve: {fixReserve: 100}
		interest: {period: "monthEnd", rate: 0.01, lastSettled: "2022-01-31"}
		history: [["2022-01-31", 50, 50, "seed"]]
	}`), "accounts.rsv")
	require.NoError(t, err)
	assert.Equal(t,
		`{"accBalance":50,`+
			`"accInterest":{"contents":[0.01,"2022-01-31",{"tag":"MonthEnd"}],"tag":"BankAccount"},`+
			`"accName":"rsv",`+
			`"accStmt":[{"contents":["2022-01-31",50,50,"seed"],"tag":"AccTxn"}],`+
			`"accType":{"contents":100,"tag":"FixReserve"}}`,
		canon(t, a.Encode()))
}

func TestParseReserve(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"target phrase",
			`{targetReserve: ["poolBalance", 0.02]}`,
			`{"contents":[{"tag":"CurrentPoolBalance"},0.02],"tag":"PctReserve"}`,
		},
		{
			"target sum",
			`{targetReserve: [["sum", "poolBalance", "bondBalance"], 0.01]}`,
			`{"contents":[{"contents":[{"tag":"CurrentPoolBalance"},{"tag":"CurrentBondBalance"}],"tag":"Sum"},0.01],"tag":"PctReserve"}`,
		},
		{
			"target formula default factor",
			`{targetReserve: {formula: ["bondBalance", "A"]}}`,
			`{"contents":[{"contents":["A"],"tag":"CurrentBondBalanceOf"},1],"tag":"PctReserve"}`,
		},
		{
			"higher of",
			`{higherOf: [{fixReserve: 10}, {targetReserve: ["poolBalance", 0.01]}]}`,
			`{"contents":[{"contents":10,"tag":"FixReserve"},{"contents":[{"tag":"CurrentPoolBalance"},0.01],"tag":"PctReserve"}],"tag":"Max"}`,
		},
		{
			"either",
			`{either: [["status", "revolving"], {fixReserve: 10}, {fixReserve: 20}]}`,
			`{"contents":[{"contents":{"tag":"Revolving"},"tag":"IfDealStatus"},{"contents":10,"tag":"FixReserve"},{"contents":20,"tag":"FixReserve"}],"tag":"Either"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parseReserve(expr(t, tt.src), "reserve")
			require.NoError(t, err)
			assert.Equal(t, tt.want, canon(t, p.Encode()))
		})
	}

	_, err := parseReserve(expr(t, `{lowerOf: [{fixReserve: 10}]}`), "reserve")
	requireKind(t, err, UnmatchedEntityVariant)
	_, err = parseReserve(expr(t, `{floor: 10}`), "reserve")
	requireKind(t, err, UnmatchedEntityVariant)
}

func TestParsePool(t *testing.T) {
	cutoff, _ := dateOf(expr(t, `"2022-01-01"`), "cutoff")
	p, err := parsePool(expr(t, `{
		assets: [
			["mortgage",
				{originBalance: 1000, originRate: ["fix", 0.045], originTerm: 120, freq: "monthly", type: "level", startDate: "2021-01-01"},
				{balance: 900, rate: 0.045, remainTerms: 108, status: "current"}],
			["mortgage",
				{originBalance: 500, originRate: ["floater", 0.04, {index: "SOFR1M", spread: 0.01, resetFreq: "monthly"}], originTerm: 60, freq: "monthly", type: "even", startDate: "2021-06-01"},
				{balance: 400, rate: 0.041, remainTerms: 54, status: "defaulted"}],
		]
		issuanceBalance: 1500
	}`), cutoff, "pool")
	require.NoError(t, err)
	require.Len(t, p.Assets, 2)

	kind, ok := p.Kind()
	require.True(t, ok)
	assert.Equal(t, "MDeal", kind.DealType())

	enc := p.Encode()
	assert.Equal(t, `"2022-01-01"`, canon(t, enc["asOfDate"]))
	assert.Equal(t, `{"IssuanceBalance":1500}`, canon(t, enc["issuanceStat"]))
	assert.Equal(t, `null`, canon(t, enc["futureCf"]))
	assert.Equal(t,
		`{"contents":[{"originBalance":500,"originRate":{"contents":["SOFR1M",0.01,0.04,{"tag":"Monthly"},null],"tag":"Floater"},`+
			`"originTerm":60,"period":{"tag":"Monthly"},"prinType":{"tag":"Even"},"startDate":"2021-06-01"},`+
			`400,0.041,54,{"contents":null,"tag":"Defaulted"}],"tag":"Mortgage"}`,
		canon(t, p.Assets[1].Encode()))
}

func TestParsePoolCashflowPadding(t *testing.T) {
	cutoff, _ := dateOf(expr(t, `"2022-01-01"`), "cutoff")
	p, err := parsePool(expr(t, `{cashflow: [["2022-02-01", 900, 100, 5]]}`), cutoff, "pool")
	require.NoError(t, err)
	assert.Equal(t,
		`[{"contents":["2022-02-01",900,100,5,0,0,0,0,0],"tag":"MortgageFlow"}]`,
		canon(t, p.Encode()["futureCf"]))
}

func TestParsePoolRejectsMixedKinds(t *testing.T) {
	cutoff, _ := dateOf(expr(t, `"2022-01-01"`), "cutoff")
	_, err := parsePool(expr(t, `{assets: [
		["mortgage", {originBalance: 1, originRate: ["fix", 0.01], originTerm: 1, freq: "monthly", type: "level", startDate: "2021-01-01"}, {balance: 1, rate: 0.01, remainTerms: 1}],
		["loan", {originBalance: 1, originRate: ["fix", 0.01], originTerm: 1, freq: "monthly", type: "interestOnly", startDate: "2021-01-01"}, {balance: 1, rate: 0.01, remainTerms: 1}],
	]}`), cutoff, "pool")
	requireKind(t, err, UnmatchedEntityVariant)
}

func TestParseAssetRejects(t *testing.T) {
	for _, src := range []string{
		`["lease", {}, {}]`,
		`["mortgage", {}]`,
		`["mortgage", {originBalance: 1, originRate: ["step", 0.01], originTerm: 1, freq: "monthly", type: "level", startDate: "2021-01-01"}, {balance: 1, rate: 0.01, remainTerms: 1}]`,
		`["mortgage", {originBalance: 1, originRate: ["fix", 0.01], originTerm: 1, freq: "monthly", type: "balloon", startDate: "2021-01-01"}, {balance: 1, rate: 0.01, remainTerms: 1}]`,
		`["mortgage", {originBalance: 1, originRate: ["fix", 0.01], originTerm: 1, freq: "monthly", type: "level", startDate: "2021-01-01"}, {balance: 1, rate: 0.01, remainTerms: 1, status: "late"}]`,
	} {
		_, err := parseAsset(expr(t, src), "pool.assets")
		requireKind(t, err, UnmatchedEntityVariant)
	}
}

func TestParseCollection(t *testing.T) {
	c, err := parseCollection(expr(t, `[["interest", "acc01"], ["principal", "acc02"], ["recoveries", "acc02"]]`), "collection")
	require.NoError(t, err)
	require.Len(t, c, 3)
	assert.Equal(t, `{"contents":["CollectedInterest","acc01"],"tag":"Collect"}`, canon(t, c[0].Encode()))
	assert.Equal(t, `{"contents":["CollectedRecoveries","acc02"],"tag":"Collect"}`, canon(t, c[2].Encode()))

	_, err = parseCollection(expr(t, `[["fees", "acc01"]]`), "collection")
	requireKind(t, err, UnmatchedEntityVariant)
}

func TestParseLiquidity(t *testing.T) {
	l, err := parseLiquidity("bank", expr(t, `{type: "unlimited"}`), "liquidity.bank")
	require.NoError(t, err)
	enc := l.Encode()
	_, hasBalance := enc["liqBalance"]
	assert.False(t, hasBalance, "unlimited provider has no liqBalance")
	assert.Equal(t, `{"tag":"UnLimit"}`, canon(t, enc["liqType"]))
	assert.Equal(t, `0`, canon(t, enc["liqCredit"]))
	assert.Nil(t, l.Start)

	l, err = parseLiquidity("bank", expr(t, `{type: "fixed", limit: 500, credit: 20, start: "2022-03-01"}`), "liquidity.bank")
	require.NoError(t, err)
	enc = l.Encode()
	assert.Equal(t, `500`, canon(t, enc["liqBalance"]))
	assert.Equal(t, `20`, canon(t, enc["liqCredit"]))
	assert.Equal(t, `"2022-03-01"`, canon(t, enc["liqStart"]))

	l, err = parseLiquidity("bank", expr(t, `{type: {replenish: ["quarterEnd", 300]}, limit: 300}`), "liquidity.bank")
	require.NoError(t, err)
	assert.Equal(t, `{"contents":[{"tag":"QuarterEnd"},300],"tag":"ReplenishSupport"}`, canon(t, l.Encode()["liqType"]))

	_, err = parseLiquidity("bank", expr(t, `{type: "fixed"}`), "liquidity.bank")
	requireKind(t, err, InvalidSource)
	_, err = parseLiquidity("bank", expr(t, `{type: "revolver", limit: 1}`), "liquidity.bank")
	requireKind(t, err, UnmatchedEntityVariant)
}

func TestParseRateSwap(t *testing.T) {
	s, err := parseRateSwap("hedge", expr(t, `{
		notional: 1000
		pay: {fixed: 0.03}
		receive: {floating: ["SOFR3M", 0.001]}
		settle: "quarterEnd"
		start: "2022-01-01"
	}`), "rateSwap.hedge")
	require.NoError(t, err)
	enc := s.Encode()
	assert.Equal(t, `{"contents":[0.03,["SOFR3M",0.001]],"tag":"FixedToFloating"}`, canon(t, enc["rsType"]))
	assert.Equal(t, `{"contents":1000,"tag":"Fixed"}`, canon(t, enc["rsNotional"]))
	assert.Equal(t, `"DC_ACT_365F"`, canon(t, enc["rsDayCount"]))

	s, err = parseRateSwap("hedge", expr(t, `{
		notional: {formula: "bondBalance"}
		pay: {floating: ["SOFR1M", 0]}
		receive: {floating: ["SOFR3M", 0]}
		settle: "monthEnd"
		start: "2022-01-01"
		dayCount: "ACT/360"
	}`), "rateSwap.hedge")
	require.NoError(t, err)
	enc = s.Encode()
	assert.Equal(t, "FloatingToFloating", s.SwapKind())
	assert.Equal(t, `{"contents":{"tag":"CurrentBondBalance"},"tag":"Base"}`, canon(t, enc["rsNotional"]))
	assert.Equal(t, `"DC_ACT_360"`, canon(t, enc["rsDayCount"]))

	_, err = parseRateSwap("hedge", expr(t, `{
		notional: 1000
		pay: {fixed: 0.03}
		receive: {fixed: 0.04}
		settle: "monthEnd"
		start: "2022-01-01"
	}`), "rateSwap.hedge")
	requireKind(t, err, UnmatchedEntityVariant)
}

func TestParseCurrencySwap(t *testing.T) {
	c, err := parseCurrencySwap("fx", expr(t, `{balance: 1000, rate: 7.1, settle: "monthEnd", start: "2022-01-01"}`), "currencySwap.fx")
	require.NoError(t, err)
	assert.Equal(t,
		`{"csBalance":1000,"csRate":7.1,"csSettleDates":{"tag":"MonthEnd"},"csStartDate":"2022-01-01","csStmt":null}`,
		canon(t, c.Encode()))
}

func TestParseCustom(t *testing.T) {
	c, err := parseCustom(expr(t, `{constant: 42}`), "custom.k")
	require.NoError(t, err)
	assert.Equal(t, `{"contents":42,"tag":"CustomConstant"}`, canon(t, c.Encode()))

	c, err = parseCustom(expr(t, `{curve: [["2022-01-01", 1]]}`), "custom.k")
	require.NoError(t, err)
	assert.Equal(t, `{"contents":{"contents":[["2022-01-01",1]],"tag":"BalanceCurve"},"tag":"CustomCurve"}`, canon(t, c.Encode()))

	c, err = parseCustom(expr(t, `{formula: ["factor", "poolBalance", 0.5]}`), "custom.k")
	require.NoError(t, err)
	assert.Equal(t, `{"contents":{"contents":[{"tag":"CurrentPoolBalance"},0.5],"tag":"Factor"},"tag":"CustomDS"}`, canon(t, c.Encode()))

	_, err = parseCustom(expr(t, `{table: 1}`), "custom.k")
	requireKind(t, err, UnmatchedEntityVariant)
}

func TestParseTrigger(t *testing.T) {
	tr, err := parseTrigger(expr(t, `{
		when: "endCollection"
		condition: ["poolFactor", "<", 0.1]
		effect: {dealStatusTo: "accelerated"}
	}`), "triggers")
	require.NoError(t, err)
	assert.Equal(t,
		`{"contents":[{"tag":"EndCollection"},{"contents":[{"tag":"PoolFactor"},0.1],"tag":"IfLT"},{"contents":{"tag":"Accelerated"},"tag":"DealStatusTo"}],"tag":"Trigger"}`,
		canon(t, tr.Encode()))

	_, err = parseTrigger(expr(t, `{when: "midPeriod", condition: ["poolFactor", "<", 0.1], effect: {dealStatusTo: "accelerated"}}`), "triggers")
	requireKind(t, err, UnrecognizedPattern)
	_, err = parseTrigger(expr(t, `{when: "endCollection", condition: ["poolFactor", "<", 0.1], effect: {dealStatusTo: "wound down"}}`), "triggers")
	requireKind(t, err, UnknownStatus)
	_, err = parseTrigger(expr(t, `{when: "endCollection", condition: ["poolFactor", "<", 0.1], effect: {payOff: true}}`), "triggers")
	requireKind(t, err, UnmatchedEntityVariant)
}
