package party

import (
	"context"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

// Repository defines persistence for parties.
type Repository interface {
	Create(ctx context.Context, p *Party) error
	GetByID(ctx context.Context, partyID id.ID) (*Party, error)

	// GetForUpdate locks the party row until the transaction ends.
	GetForUpdate(ctx context.Context, partyID id.ID) (*Party, error)

	// AddBalance adds delta to current_balance and returns the new value.
	AddBalance(ctx context.Context, partyID id.ID, delta types.Money) (types.Money, error)

	List(ctx context.Context, t *Type) ([]*Party, error)
}
