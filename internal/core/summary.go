package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period is the half-open interval [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

func MonthPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("month %d out of range 1-12", month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

func YearPeriod(year int) Period {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(1, 0, 0)}
}

// Contains reports whether t falls in [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

func (p Period) String() string {
	return p.Start.Format("2006-01-02") + ".." + p.End.Format("2006-01-02")
}

// SummaryReport holds period totals in the book base currency.
type SummaryReport struct {
	BaseCurrency string
	Period       Period
	IncomeTotal  decimal.Decimal
	ExpenseTotal decimal.Decimal
	NetTotal     decimal.Decimal
}

// CategoryTotal is one row of a category distribution.
type CategoryTotal struct {
	CategoryID   uuid.UUID
	CategoryName string
	Total        decimal.Decimal
}

// CategoryDistribution lists per-category totals, largest absolute total first.
type CategoryDistribution struct {
	BaseCurrency string
	Period       Period
	Type         CategoryType
	Items        []CategoryTotal
}
