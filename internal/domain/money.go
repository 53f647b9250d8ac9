package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies are charged in whole units rather than cents.
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true, "KRW": true,
	"MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true, "VUV": true, "XAF": true,
	"XOF": true, "XPF": true,
}

// FormatPrice renders an amount in minor units, e.g. 4900 EUR as "49.00 EUR".
func FormatPrice(amount int64, currency string) string {
	currency = strings.ToUpper(currency)
	if zeroDecimalCurrencies[currency] {
		return decimal.NewFromInt(amount).String() + " " + currency
	}
	return decimal.New(amount, -2).StringFixed(2) + " " + currency
}
