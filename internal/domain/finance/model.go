// Package finance provides financial years, payment terms and payment schedules.
package finance

import (
	"fmt"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

// Year is a financial year. At most one year is active at a time.
type Year struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"startDate"`
	EndDate   time.Time `db:"end_date" json:"endDate"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	IsClosed  bool      `db:"is_closed" json:"isClosed"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CalendarYear returns the January-to-December year containing t.
func CalendarYear(t time.Time) *Year {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return &Year{
		ID:        id.New(),
		Name:      fmt.Sprintf("FY%d", t.Year()),
		StartDate: start,
		EndDate:   start.AddDate(1, 0, -1),
		CreatedAt: time.Now().UTC(),
	}
}

// Next returns the year starting the day after y ends, with the same length in months.
func (y *Year) Next() *Year {
	start := y.EndDate.AddDate(0, 0, 1)
	months := (y.EndDate.Year()-y.StartDate.Year())*12 + int(y.EndDate.Month()-y.StartDate.Month()) + 1
	end := start.AddDate(0, months, -1)
	name := fmt.Sprintf("FY%d", start.Year())
	if end.Year() != start.Year() {
		name = fmt.Sprintf("FY%d-%d", start.Year(), end.Year()%100)
	}
	return &Year{
		ID:        id.New(),
		Name:      name,
		StartDate: start,
		EndDate:   end,
		CreatedAt: time.Now().UTC(),
	}
}

// Contains reports whether t falls on a day within the year.
func (y *Year) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(y.StartDate) && !day.After(y.EndDate)
}

// Validate checks year invariants.
func (y *Year) Validate() error {
	if y.Name == "" {
		return apperror.NewValidation("financial year name is required")
	}
	if !y.EndDate.After(y.StartDate) {
		return apperror.NewValidation("financial year must end after it starts").
			WithDetail("start", y.StartDate.Format(time.DateOnly)).
			WithDetail("end", y.EndDate.Format(time.DateOnly))
	}
	return nil
}

// PostingContext is passed explicitly into every voucher-producing call
// instead of looking up the active year globally.
type PostingContext struct {
	FinancialYearID id.ID
	Actor           string
	BranchID        *string
}

// Validate checks the context is usable for posting.
func (pc PostingContext) Validate() error {
	if id.IsNil(pc.FinancialYearID) {
		return apperror.NewValidation("financial year is required for posting")
	}
	if pc.Actor == "" {
		return apperror.NewValidation("acting user is required for posting")
	}
	return nil
}

// Term is a payment term: Installments parts, IntervalDays apart.
type Term struct {
	ID           id.ID  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Installments int    `db:"installments" json:"installments"`
	IntervalDays int    `db:"interval_days" json:"intervalDays"`
}

// Default term values.
const (
	DefaultInstallments = 1
	DefaultIntervalDays = 30
)

// ScheduleStatus is the settlement state of an installment.
type ScheduleStatus string

const (
	SchedulePending ScheduleStatus = "PENDING"
	SchedulePaid    ScheduleStatus = "PAID"
)

// Schedule is one installment of a document's outstanding amount.
type Schedule struct {
	ID            id.ID          `db:"id" json:"id"`
	DocumentType  string         `db:"document_type" json:"documentType"`
	DocumentID    id.ID          `db:"document_id" json:"documentId"`
	InstallmentNo int            `db:"installment_no" json:"installmentNo"`
	DueDate       time.Time      `db:"due_date" json:"dueDate"`
	Amount        types.Money    `db:"amount" json:"amount"`
	Status        ScheduleStatus `db:"status" json:"status"`
	VoucherID     *id.ID         `db:"voucher_id" json:"voucherId,omitempty"`
}

// BuildSchedule splits outstanding into the term's installments.
// Due dates start one interval after date. Amounts are rounded to cents and
// the rounding remainder lands on the last installment. Nothing is due when
// outstanding is not positive.
func BuildSchedule(term Term, documentType string, documentID id.ID, date time.Time, outstanding types.Money) []Schedule {
	if !outstanding.IsPositive() {
		return nil
	}
	n := term.Installments
	if n < 1 {
		n = DefaultInstallments
	}
	interval := term.IntervalDays
	if interval < 1 {
		interval = DefaultIntervalDays
	}

	parts := types.Split(outstanding, n)
	out := make([]Schedule, n)
	for i := range parts {
		out[i] = Schedule{
			ID:            id.New(),
			DocumentType:  documentType,
			DocumentID:    documentID,
			InstallmentNo: i + 1,
			DueDate:       date.AddDate(0, 0, interval*(i+1)),
			Amount:        parts[i],
			Status:        SchedulePending,
		}
	}
	return out
}
