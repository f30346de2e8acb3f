// Package interest computes statutory interest on overdue receivables.
package interest

import (
	"math"
	"time"

	"github.com/smallbiznis/collecta/internal/clock"
)

// Result holds accrued interest and the grand total, both in minor
// currency units.
type Result struct {
	Interest    int64
	Total       int64
	DaysOverdue int
}

// Compute accrues simple interest on principal from dueDate to asOf at the
// given annual percentage rate. Both dates are treated as calendar dates;
// partial days do not accrue. Interest is never negative.
func Compute(principal int64, dueDate, asOf time.Time, annualRatePercent float64) Result {
	days := daysBetween(dueDate, asOf)
	if days <= 0 || principal <= 0 || annualRatePercent <= 0 {
		return Result{Interest: 0, Total: principal, DaysOverdue: maxInt(days, 0)}
	}

	accrued := float64(principal) * (annualRatePercent / 100) * (float64(days) / 365)
	interest := int64(math.Round(accrued))
	if interest < 0 {
		interest = 0
	}
	return Result{
		Interest:    interest,
		Total:       principal + interest,
		DaysOverdue: days,
	}
}

// daysBetween counts whole calendar days from a to b, flooring any
// time-of-day component first.
func daysBetween(a, b time.Time) int {
	from := clock.DateOnly(a)
	to := clock.DateOnly(b)
	return int(to.Sub(from).Hours() / 24)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
