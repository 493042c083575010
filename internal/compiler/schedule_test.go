package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absbox/absc/internal/deal"
)

func TestParseDatePattern(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"month end", `"monthEnd"`, `{"tag":"MonthEnd"}`},
		{"quarter first", `"quarterFirst"`, `{"tag":"QuarterFirst"}`},
		{"anchor as list", `["yearEnd"]`, `{"tag":"YearEnd"}`},
		{"day of month", `["dayOfMonth", 25]`, `{"contents":25,"tag":"DayOfMonth"}`},
		{"day of month shortcut", `"dayOfMonth:25"`, `{"contents":25,"tag":"DayOfMonth"}`},
		{"weekday shortcut", `"weekday:3"`, `{"contents":3,"tag":"Weekday"}`},
		{"month day of year", `["monthDayOfYear", 6, 30]`, `{"contents":[6,30],"tag":"MonthDayOfYear"}`},
		{"every n month", `["everyNMonth", "2022-01-15", 3]`, `{"contents":["2022-01-15",3],"tag":"EveryNMonth"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dp, err := parseDatePattern(expr(t, tt.src), "dates.payFreq")
			require.NoError(t, err)
			assert.Equal(t, tt.want, canon(t, dp.Encode()))
		})
	}
}

func TestParseDatePatternRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown token", `"fortnightly"`},
		{"unknown list op", `["everyOtherTuesday", 1]`},
		{"missing param", `["dayOfMonth"]`},
		{"extra param", `["monthEnd", 1]`},
		{"day out of range", `["dayOfMonth", 32]`},
		{"weekday out of range", `"weekday:7"`},
		{"shortcut on anchor", `"monthEnd:2"`},
		{"non integer shortcut", `"dayOfMonth:x"`},
		{"number", `12`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseDatePattern(expr(t, tt.src), "dates.payFreq")
			ce := requireKind(t, err, UnrecognizedPattern)
			assert.Equal(t, "dates.payFreq", ce.Field)
			assert.NotEmpty(t, ce.Fragment)
		})
	}
}

func TestParseRateReset(t *testing.T) {
	r, err := parseRateReset(expr(t, `{interval: "quarterly"}`), "reset")
	require.NoError(t, err)
	assert.Equal(t, `{"contents":[{"tag":"Quarterly"},null],"tag":"ByInterval"}`, canon(t, r.Encode()))

	r, err = parseRateReset(expr(t, `{interval: "annually", start: "2023-01-01"}`), "reset")
	require.NoError(t, err)
	assert.Equal(t, `{"contents":[{"tag":"Annually"},"2023-01-01"],"tag":"ByInterval"}`, canon(t, r.Encode()))

	r, err = parseRateReset(expr(t, `{resetMonth: 7}`), "reset")
	require.NoError(t, err)
	assert.Equal(t, `{"contents":7,"tag":"MonthOfYear"}`, canon(t, r.Encode()))

	_, err = parseRateReset(expr(t, `{interval: "biweekly"}`), "reset")
	requireKind(t, err, UnrecognizedPattern)

	_, err = parseRateReset(expr(t, `{every: "month"}`), "reset")
	requireKind(t, err, UnrecognizedPattern)
}

func TestParseStatus(t *testing.T) {
	for token, want := range map[string]deal.Status{
		"amortizing":  deal.Amortizing,
		"accelerated": deal.Accelerated,
		"revolving":   deal.Revolving,
		"defaulted":   deal.Defaulted,
	} {
		st, err := parseStatus(expr(t, `"`+token+`"`), "status")
		require.NoError(t, err)
		assert.Equal(t, want, st)
		assert.True(t, st.Encode().TagOnly())
	}

	_, err := parseStatus(expr(t, `"paused"`), "status")
	requireKind(t, err, UnknownStatus)
}

func TestParseDayCount(t *testing.T) {
	tests := map[string]deal.DayCount{
		"ACT/360":       deal.DCAct360,
		"ACT/365F":      deal.DCAct365F,
		"30/360":        deal.DC30360US,
		"30E+/360":      deal.DC30Ep360,
		"30/360 German": deal.DC30360German,
		"DC_ACT_ACT":    deal.DCActAct,
		"DC_NL_365":     deal.DCNL365,
	}
	for name, want := range tests {
		dc, err := parseDayCount(expr(t, `"`+name+`"`), "dayCount")
		require.NoError(t, err, name)
		assert.Equal(t, want, dc)
	}

	_, err := parseDayCount(expr(t, `"ACT/364"`), "dayCount")
	requireKind(t, err, UnmatchedEntityVariant)
}

func TestOptDayCountDefault(t *testing.T) {
	dc, err := optDayCount(expr(t, `{fixed: 0.05}`), "dayCount", "rate")
	require.NoError(t, err)
	assert.Equal(t, deal.DCAct365F, dc)
}

func TestParseCurve(t *testing.T) {
	c, err := parseCurve(expr(t, `[["2022-01-01", 100], ["2023-01-01", 50.5]]`), "curve")
	require.NoError(t, err)
	assert.Equal(t, `[["2022-01-01",100],["2023-01-01",50.5]]`, canon(t, c.Rows()))

	_, err = parseCurve(expr(t, `[["2022-01-01"]]`), "curve")
	requireKind(t, err, InvalidSource)

	_, err = parseCurve(expr(t, `[["01/01/2022", 1]]`), "curve")
	requireKind(t, err, InvalidSource)
}
