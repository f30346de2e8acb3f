// Package format renders monetary amounts held in minor currency units.
package format

import (
	"fmt"
	"time"
)

// Amount renders minor units as a decimal string, e.g. 150000 -> "1500.00".
func Amount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// AmountWithCurrency appends the ISO currency code, e.g. "1500.00 PLN".
func AmountWithCurrency(minor int64, currency string) string {
	if currency == "" {
		return Amount(minor)
	}
	return Amount(minor) + " " + currency
}

// Date renders a calendar date as YYYY-MM-DD.
func Date(t time.Time) string {
	return t.Format("2006-01-02")
}
