// Package vouchers provides the double-entry voucher ledger engine.
package vouchers

import (
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

// Status is the voucher approval state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Voucher is a balanced double-entry record.
type Voucher struct {
	ID              id.ID       `db:"id" json:"id"`
	Number          string      `db:"number" json:"number"`
	Type            Type        `db:"voucher_type" json:"type"`
	Date            time.Time   `db:"voucher_date" json:"date"`
	Narration       string      `db:"narration" json:"narration"`
	Amount          types.Money `db:"amount" json:"amount"`
	Status          Status      `db:"status" json:"status"`
	CreatedBy       string      `db:"created_by" json:"createdBy"`
	ApprovedBy      *string     `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time  `db:"approved_at" json:"approvedAt,omitempty"`
	BranchID        *string     `db:"branch_id" json:"branchId,omitempty"`
	FinancialYearID *id.ID      `db:"financial_year_id" json:"financialYearId,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`

	Entries []Entry `db:"-" json:"entries,omitempty"`
}

// Entry is one debit or credit line of a voucher.
type Entry struct {
	ID        id.ID       `db:"id" json:"id"`
	VoucherID id.ID       `db:"voucher_id" json:"voucherId"`
	LineNo    int         `db:"line_no" json:"lineNo"`
	AccountID id.ID       `db:"account_id" json:"accountId"`
	Debit     types.Money `db:"debit" json:"debit"`
	Credit    types.Money `db:"credit" json:"credit"`
	Remarks   string      `db:"remarks" json:"remarks,omitempty"`
}

// EntryInput is a line handed to the engine.
type EntryInput struct {
	AccountID id.ID       `json:"accountId"`
	Debit     types.Money `json:"debit"`
	Credit    types.Money `json:"credit"`
	Remarks   string      `json:"remarks,omitempty"`
}

// RoundEntries returns a copy of entries with every amount rounded to
// posting precision. Checks and persistence both work on this copy, so the
// stored lines balance exactly as validated.
func RoundEntries(entries []EntryInput) []EntryInput {
	out := make([]EntryInput, len(entries))
	for i, e := range entries {
		e.Debit = types.Round(e.Debit)
		e.Credit = types.Round(e.Credit)
		out[i] = e
	}
	return out
}

// Totals returns debit and credit sums of the entries rounded one by one.
func Totals(entries []EntryInput) (debit, credit types.Money) {
	debit, credit = types.Zero(), types.Zero()
	for _, e := range entries {
		debit = debit.Add(types.Round(e.Debit))
		credit = credit.Add(types.Round(e.Credit))
	}
	return debit, credit
}

// ValidateEntries checks shape and balance of an entry set at posting
// precision. It never touches storage, so a failure guarantees nothing was
// written.
func ValidateEntries(entries []EntryInput) error {
	if len(entries) < 2 {
		return apperror.NewValidation("a voucher needs at least two entries").
			WithDetail("entries", len(entries))
	}
	for i, e := range RoundEntries(entries) {
		if id.IsNil(e.AccountID) {
			return apperror.NewValidation("entry has no account").WithDetail("line", i+1)
		}
		if e.Debit.IsNegative() || e.Credit.IsNegative() {
			return apperror.NewValidation("entry amounts must not be negative").WithDetail("line", i+1)
		}
		if e.Debit.IsZero() && e.Credit.IsZero() {
			return apperror.NewValidation("entry has neither debit nor credit").WithDetail("line", i+1)
		}
	}

	debit, credit := Totals(entries)
	if !debit.Equal(credit) {
		return apperror.NewImbalancedEntries(debit.StringFixed(2), credit.StringFixed(2))
	}
	return nil
}

// buildEntries turns rounded inputs into persisted lines owned by voucherID.
func buildEntries(voucherID id.ID, in []EntryInput) []Entry {
	out := make([]Entry, len(in))
	for i, e := range in {
		out[i] = Entry{
			ID:        id.New(),
			VoucherID: voucherID,
			LineNo:    i + 1,
			AccountID: e.AccountID,
			Debit:     e.Debit,
			Credit:    e.Credit,
			Remarks:   e.Remarks,
		}
	}
	return out
}

// transition moves v to target, enforcing the PENDING -> terminal state machine.
func (v *Voucher) transition(target Status, actor string, at time.Time) error {
	if v.Status != StatusPending {
		return apperror.NewInvalidTransition("voucher", string(v.Status), string(target))
	}
	v.Status = target
	v.ApprovedBy = &actor
	v.ApprovedAt = &at
	return nil
}

// EnsureMutable fails with VOUCHER_LOCKED once v left PENDING.
func (v *Voucher) EnsureMutable() error {
	if v.Status != StatusPending {
		return apperror.NewVoucherLocked(v.ID.String(), string(v.Status))
	}
	return nil
}

// TotalDebit sums the debit side of persisted entries.
func (v *Voucher) TotalDebit() types.Money {
	total := types.Zero()
	for _, e := range v.Entries {
		total = total.Add(e.Debit)
	}
	return total
}

// TotalCredit sums the credit side of persisted entries.
func (v *Voucher) TotalCredit() types.Money {
	total := types.Zero()
	for _, e := range v.Entries {
		total = total.Add(e.Credit)
	}
	return total
}
