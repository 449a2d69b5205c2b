package vouchers

import (
	"context"
	"time"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

// Repository defines persistence for vouchers and their entries.
type Repository interface {
	// EnsureTypes upserts the voucher type registry.
	EnsureTypes(ctx context.Context, infos []TypeInfo) error

	// Create inserts the voucher header and all entries in one multi-row write.
	Create(ctx context.Context, v *Voucher) error

	// GetByID returns the voucher with entries or NOT_FOUND.
	GetByID(ctx context.Context, voucherID id.ID) (*Voucher, error)

	// GetForUpdate is GetByID with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, voucherID id.ID) (*Voucher, error)

	// UpdateStatus writes the status fields of v only if the stored status
	// still equals from. Returns false when the guard did not match.
	UpdateStatus(ctx context.Context, v *Voucher, from Status) (bool, error)

	// ReplaceEntries swaps all entries and the amount of a PENDING voucher.
	// Returns false when the voucher is no longer PENDING.
	ReplaceEntries(ctx context.Context, voucherID id.ID, amount types.Money, entries []Entry) (bool, error)

	// List returns headers (without entries) ordered by date, then number.
	List(ctx context.Context, filter ListFilter) ([]*Voucher, error)

	// LedgerLines returns entries of an account joined with their voucher,
	// skipping REJECTED vouchers, ordered by voucher date then creation.
	LedgerLines(ctx context.Context, accountID id.ID, from, to *time.Time) ([]LedgerLine, error)

	// Turnover sums debit and credit of an account before a date, skipping REJECTED vouchers.
	Turnover(ctx context.Context, accountID id.ID, before time.Time) (debit, credit types.Money, err error)
}

// ListFilter narrows voucher listings.
type ListFilter struct {
	Type            *Type
	Status          *Status
	FinancialYearID *id.ID
	FromDate        *time.Time
	ToDate          *time.Time
	Limit           int
	Offset          int
}

// LedgerLine is one entry in an account ledger.
type LedgerLine struct {
	VoucherID     id.ID       `db:"voucher_id" json:"voucherId"`
	VoucherNumber string      `db:"voucher_number" json:"voucherNumber"`
	VoucherType   Type        `db:"voucher_type" json:"voucherType"`
	Date          time.Time   `db:"voucher_date" json:"date"`
	Narration     string      `db:"narration" json:"narration"`
	Remarks       string      `db:"remarks" json:"remarks,omitempty"`
	Debit         types.Money `db:"debit" json:"debit"`
	Credit        types.Money `db:"credit" json:"credit"`
	Balance       types.Money `db:"-" json:"balance"`
}
