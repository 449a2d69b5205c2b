// Package reports provides read models over posted vouchers and stock.
// REJECTED vouchers never contribute to a report.
package reports

import (
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
)

// Period is the bucket size of a grouped report.
type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Valid reports whether p is known.
func (p Period) Valid() bool {
	return p == PeriodMonth || p == PeriodYear
}

// Truncate returns the start of the bucket containing t.
func (p Period) Truncate(t time.Time) time.Time {
	t = t.UTC()
	if p == PeriodYear {
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Range is an inclusive date range. A zero From means "since the beginning".
type Range struct {
	From time.Time
	To   time.Time
}

// Validate checks the range is usable.
func (r Range) Validate() error {
	if r.To.IsZero() {
		return apperror.NewValidation("report end date is required")
	}
	if !r.From.IsZero() && r.From.After(r.To) {
		return apperror.NewValidation("report start date must not be after end date").
			WithDetail("from", r.From.Format(time.DateOnly)).
			WithDetail("to", r.To.Format(time.DateOnly))
	}
	return nil
}

// TypeTurnover is the turnover of one account type, optionally within one period.
type TypeTurnover struct {
	Period time.Time     `db:"period" json:"period"`
	Type   accounts.Type `db:"account_type" json:"type"`
	Debit  types.Money   `db:"debit" json:"debit"`
	Credit types.Money   `db:"credit" json:"credit"`
}

// TypeBalance is a TypeTurnover with the natural-side balance.
type TypeBalance struct {
	TypeTurnover
	Balance types.Money `json:"balance"`
}

// Ratios are the headline figures for a range.
type Ratios struct {
	From         time.Time    `json:"from"`
	To           time.Time    `json:"to"`
	Assets       types.Money  `json:"assets"`
	Liabilities  types.Money  `json:"liabilities"`
	Income       types.Money  `json:"income"`
	Expense      types.Money  `json:"expense"`
	CurrentRatio *types.Money `json:"currentRatio,omitempty"`
	GrossMargin  *types.Money `json:"grossMarginPct,omitempty"`
	NetIncome    types.Money  `json:"netIncome"`
}
