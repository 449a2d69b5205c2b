package accounts

import (
	"context"

	"erpcore/internal/core/id"
)

// Repository defines persistence for the chart of accounts.
// Get methods return apperror NOT_FOUND when nothing matches.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, accountID id.ID) (*Account, error)
	GetByCode(ctx context.Context, code string) (*Account, error)

	// GetByIDs returns the accounts that exist; missing ids are simply absent.
	GetByIDs(ctx context.Context, ids []id.ID) ([]*Account, error)

	List(ctx context.Context, filter ListFilter) ([]*Account, error)
}

// ListFilter narrows account listings.
type ListFilter struct {
	Type       *Type
	ActiveOnly bool
}
