package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAmount(t *testing.T) {
	assert.Equal(t, "0.00", Amount(0))
	assert.Equal(t, "0.05", Amount(5))
	assert.Equal(t, "1500.00", Amount(150_000))
	assert.Equal(t, "12.34", Amount(1234))
	assert.Equal(t, "-12.34", Amount(-1234))
}

func TestAmountWithCurrency(t *testing.T) {
	assert.Equal(t, "1500.00 PLN", AmountWithCurrency(150_000, "PLN"))
	assert.Equal(t, "1500.00", AmountWithCurrency(150_000, ""))
}

func TestDate(t *testing.T) {
	assert.Equal(t, "2026-03-10", Date(time.Date(2026, 3, 10, 14, 5, 0, 0, time.UTC)))
}
