package service

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeDecimal(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		want    string
		anomaly bool
	}{
		{name: "nil", raw: nil, want: "0"},
		{name: "empty string", raw: "", want: "0"},
		{name: "null marker", raw: "null", want: "0"},
		{name: "plain string", raw: "100.00", want: "100"},
		{name: "comma decimal point", raw: "1234,56", want: "1234.56"},
		{name: "grouping space and comma", raw: "1 234,56", want: "1234.56"},
		{name: "grouping comma with dot", raw: "1,234.56", want: "1234.56"},
		{name: "currency noise", raw: "₴ 99.90 грн", want: "99.9"},
		{name: "negative", raw: "-15.25", want: "-15.25"},
		{name: "float", raw: 12.5, want: "12.5"},
		{name: "int", raw: 10, want: "10"},
		{name: "json number", raw: json.Number("7.77"), want: "7.77"},
		{name: "multiple separators", raw: "12.3.4", want: "0", anomaly: true},
		{name: "letters only", raw: "abc", want: "0", anomaly: true},
		{name: "unsupported type", raw: []string{"1"}, want: "0", anomaly: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDecimal(tt.raw)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
			assert.Equal(t, !tt.anomaly, ok)
		})
	}
}

func TestNormalizeDecimalNeverPanics(t *testing.T) {
	inputs := []interface{}{nil, "", "null", " , . - ", "--5", "1 234,56", "12.3.4", 3.14, int64(9), map[string]string{}}
	for _, raw := range inputs {
		assert.NotPanics(t, func() {
			_, _ = NormalizeDecimal(raw)
		})
	}
}
