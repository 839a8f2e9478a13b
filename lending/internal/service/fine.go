package service

import (
	"github.com/lendhub/lending-service/lending/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultFinePerDay is charged per overdue day unless overridden in
// config.
var DefaultFinePerDay = decimal.RequireFromString("0.50")

// OverdueDaysAt counts whole calendar days from dueDate to asOf,
// never negative. A loan due exactly on asOf has zero overdue days.
func OverdueDaysAt(dueDate, asOf model.Date) int {
	days := dueDate.DaysBetween(asOf)
	if days < 0 {
		return 0
	}
	return days
}

// Fine is overdueDays * perDay, exact decimal arithmetic at scale 2.
func Fine(overdueDays int, perDay decimal.Decimal) decimal.Decimal {
	if overdueDays <= 0 {
		return decimal.Zero.Round(2)
	}
	return perDay.Mul(decimal.NewFromInt(int64(overdueDays))).Round(2)
}
