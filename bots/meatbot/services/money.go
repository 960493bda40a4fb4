package services

import (
	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

// PriceFormatter renders money amounts for chat messages.
type PriceFormatter struct {
	ac accounting.Accounting
}

// NewPriceFormatter builds a formatter with the shop currency symbol.
func NewPriceFormatter(symbol string) *PriceFormatter {
	return &PriceFormatter{
		ac: accounting.Accounting{
			Symbol:    symbol,
			Precision: 2,
			Thousand:  " ",
			Decimal:   ".",
			Format:    "%v %s",
		},
	}
}

// Format renders an amount like "1 250.00 ₽".
func (f *PriceFormatter) Format(amount decimal.Decimal) string {
	return f.ac.FormatMoneyDecimal(amount)
}
