package validate

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bujit/internal/core"
)

func TestMoney(t *testing.T) {
	save := core.NewAccount("Save", core.MustParseMoney("20.00"), decimal.Zero)

	tests := []struct {
		name    string
		rule    MoneyRule
		raw     Input
		want    string
		wantMsg string
	}{
		{"valid", MoneyRule{Label: "Amount", Required: true}, "12.34", "12.34", ""},
		{"comma separator", MoneyRule{Label: "Amount", Required: true}, "12,3", "12.30", ""},
		{"trailing zeros are fine", MoneyRule{Label: "Amount", Required: true}, "1.500", "1.50", ""},
		{"optional empty", MoneyRule{Label: "Balance"}, "", "0.00", ""},
		{"required", MoneyRule{Label: "Amount", Required: true}, "  ", "", "Amount is required"},
		{"not a number", MoneyRule{Label: "Amount", Required: true}, "ten", "", "Amount must be a number"},
		{"negative", MoneyRule{Label: "Amount", Required: true}, "-1", "", "Amount must be greater than or equal to 0"},
		{"three decimals", MoneyRule{Label: "Amount", Required: true}, "1.234", "", "Amount must be 2 decimal places"},
		{"exponent form", MoneyRule{Label: "Amount", Required: true}, "1e2", "", "Amount must be a number"},
		{"largest storable amount", MoneyRule{Label: "Amount", Required: true}, "92233720368547758.07", "92233720368547758.07", ""},
		{"too large to store", MoneyRule{Label: "Balance"}, "100000000000000000", "", "Balance must be less than or equal to 92233720368547758.07"},
		{"at balance", MoneyRule{Label: "Amount", Required: true, Source: save}, "20", "20.00", ""},
		{"over balance", MoneyRule{Label: "Amount", Required: true, Source: save}, "20.01", "", "Save [$20.00] doesn't have sufficient funds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Money(tt.rule, tt.raw)
			if tt.wantMsg != "" {
				ve, ok := As(err)
				require.True(t, ok, "expected validation error, got %v", err)
				assert.Equal(t, tt.wantMsg, ve.Message)
				assert.Equal(t, tt.rule.Label, ve.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		raw      Input
		required bool
		want     int64
		wantMsg  string
	}{
		{"40", true, 40, ""},
		{"", false, 0, ""},
		{"", true, 0, "Pay Percentage is required"},
		{"100", true, 100, ""},
		{"101", true, 0, "Pay Percentage must be less than or equal to 100"},
		{"-5", true, 0, "Pay Percentage must be greater than or equal to 0"},
		{"12.5", true, 0, "Pay Percentage must be only integers"},
		{"abc", true, 0, "Pay Percentage must be a number"},
	}
	for _, tt := range tests {
		got, err := Percent("Pay Percentage", tt.required, tt.raw)
		if tt.wantMsg != "" {
			require.Error(t, err, "raw %q", tt.raw)
			assert.Equal(t, tt.wantMsg, err.Error())
			continue
		}
		require.NoError(t, err, "raw %q", tt.raw)
		assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "raw %q got %s", tt.raw, got)
	}
}

func TestName(t *testing.T) {
	got, err := Name("Name", "  Savings ")
	require.NoError(t, err)
	assert.Equal(t, "Savings", got)

	_, err = Name("Name", "   ")
	assert.EqualError(t, err, "Name is required")
}

func TestInput_UnmarshalJSON(t *testing.T) {
	var body struct {
		A Input `json:"a"`
		B Input `json:"b"`
		C Input `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.345, "b": "7,50", "c": null}`), &body))
	assert.Equal(t, Input("12.345"), body.A)
	assert.Equal(t, Input("7,50"), body.B)
	assert.True(t, body.C.IsEmpty())
}

func TestSufficientFunds(t *testing.T) {
	acc := core.NewAccount("Save", core.MustParseMoney("20.00"), decimal.Zero)

	assert.True(t, SufficientFunds(acc, core.MustParseMoney("20.00")))
	assert.False(t, SufficientFunds(acc, core.MustParseMoney("20.01")))
	assert.False(t, SufficientFunds(nil, core.Money{}))
}

func TestDistinctAccounts(t *testing.T) {
	assert.NoError(t, DistinctAccounts(1, 2))
	err := DistinctAccounts(3, 3)
	ve, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "To", ve.Field)
}
