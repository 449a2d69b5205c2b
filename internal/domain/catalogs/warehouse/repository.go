package warehouse

import (
	"context"

	"erpcore/internal/core/id"
)

// Repository defines persistence for warehouses.
type Repository interface {
	Create(ctx context.Context, w *Warehouse) error
	GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)
	GetByCode(ctx context.Context, code string) (*Warehouse, error)
	List(ctx context.Context) ([]*Warehouse, error)
}
