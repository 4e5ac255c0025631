package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMinTradeAmount applies to currencies missing from the table.
var DefaultMinTradeAmount = decimal.NewFromInt(1000)

var defaultMinTradeAmounts = map[string]decimal.Decimal{
	"btc":   decimal.RequireFromString("0.01"),
	"uah":   decimal.NewFromInt(50),
	"kun":   decimal.NewFromInt(1),
	"gol":   decimal.NewFromInt(1),
	"eth":   decimal.RequireFromString("0.01"),
	"waves": decimal.NewFromInt(1),
	"bch":   decimal.RequireFromString("0.01"),
	"gbg":   decimal.NewFromInt(1),
}

// MinTradeAmounts minimum tradeable balance per currency.
type MinTradeAmounts struct {
	amounts map[string]decimal.Decimal
}

// NewMinTradeAmounts returns the default table with overrides merged on top.
func NewMinTradeAmounts(overrides map[string]decimal.Decimal) MinTradeAmounts {
	amounts := make(map[string]decimal.Decimal, len(defaultMinTradeAmounts)+len(overrides))
	for currency, amount := range defaultMinTradeAmounts {
		amounts[currency] = amount
	}
	for currency, amount := range overrides {
		amounts[strings.ToLower(currency)] = amount
	}

	return MinTradeAmounts{amounts: amounts}
}

// For returns the minimum trade amount for the currency.
func (m MinTradeAmounts) For(currency string) decimal.Decimal {
	if amount, ok := m.amounts[strings.ToLower(currency)]; ok {
		return amount
	}
	return DefaultMinTradeAmount
}
