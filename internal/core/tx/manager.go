// Package tx defines the transaction boundary used by the ledger services.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically. A voucher with its entries, a
// stock movement with its batch update, and a whole document confirmation
// each run inside one call.
//
// Implementations: postgres.TxManager (pgx transaction carried in ctx) and
// memory.Store (snapshot restored on error).
type Manager interface {
	// RunInTransaction commits when fn returns nil and rolls back otherwise,
	// including on panic. A call made while a transaction is already open in
	// ctx joins it, so services compose without knowing who opened it.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
