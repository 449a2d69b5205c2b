package reports

import (
	"context"
	"time"

	"erpcore/internal/domain/posting"
)

// Repository provides report aggregates. All methods skip REJECTED vouchers.
type Repository interface {
	// AccountTurnover sums debit and credit per account for vouchers dated
	// within [from, to]. A zero from is unbounded.
	AccountTurnover(ctx context.Context, from, to time.Time) ([]posting.AccountBalance, error)

	// TypeTurnover sums debit and credit per account type and period bucket.
	// With an empty period everything lands in one bucket with a zero Period.
	TypeTurnover(ctx context.Context, from, to time.Time, period Period) ([]TypeTurnover, error)
}
