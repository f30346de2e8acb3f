package interest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompute_NotOverdue(t *testing.T) {
	due := date(2026, 3, 10)

	res := Compute(100_000, due, due, 11.5)
	assert.Equal(t, int64(0), res.Interest)
	assert.Equal(t, int64(100_000), res.Total)
	assert.Equal(t, 0, res.DaysOverdue)

	res = Compute(100_000, due, date(2026, 3, 5), 11.5)
	assert.Equal(t, int64(0), res.Interest)
	assert.Equal(t, 0, res.DaysOverdue)
}

func TestCompute_SimpleInterest(t *testing.T) {
	due := date(2026, 3, 10)

	// 30 days at 11.5% on 1000.00: 100000 * 0.115 * 30/365 = 945.205 -> 945
	res := Compute(100_000, due, date(2026, 4, 9), 11.5)
	assert.Equal(t, 30, res.DaysOverdue)
	assert.Equal(t, int64(945), res.Interest)
	assert.Equal(t, int64(100_945), res.Total)

	// A full (non-leap divisor) year accrues the nominal rate exactly.
	res = Compute(100_000, due, due.AddDate(0, 0, 365), 11.5)
	assert.Equal(t, int64(11_500), res.Interest)
}

func TestCompute_RoundsHalfUp(t *testing.T) {
	// 10000 * 0.115 * 10/365 = 31.506 -> 32
	res := Compute(10_000, date(2026, 3, 10), date(2026, 3, 20), 11.5)
	assert.Equal(t, int64(32), res.Interest)
}

func TestCompute_PartialDaysDoNotAccrue(t *testing.T) {
	due := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	asOf := time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC)

	res := Compute(100_000, due, asOf, 11.5)
	assert.Equal(t, 1, res.DaysOverdue)
}

func TestCompute_DegenerateInputs(t *testing.T) {
	due := date(2026, 3, 10)
	asOf := date(2026, 4, 10)

	assert.Equal(t, int64(0), Compute(0, due, asOf, 11.5).Interest)
	assert.Equal(t, int64(0), Compute(-500, due, asOf, 11.5).Interest)
	assert.Equal(t, int64(0), Compute(100_000, due, asOf, 0).Interest)
	assert.Equal(t, int64(0), Compute(100_000, due, asOf, -4).Interest)
}
