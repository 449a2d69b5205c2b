package stock

import (
	"context"
	"time"

	"erpcore/internal/core/id"
)

// Repository defines persistence for batches and movements.
// Get methods return apperror NOT_FOUND when nothing matches.
type Repository interface {
	// CreateBatch inserts a batch. A (product, batch number) clash is DUPLICATE_BATCH.
	CreateBatch(ctx context.Context, b *Batch) error

	GetBatch(ctx context.Context, batchID id.ID) (*Batch, error)

	// GetBatchForUpdate locks the batch row until the transaction ends.
	GetBatchForUpdate(ctx context.Context, batchID id.ID) (*Batch, error)

	// GetBatchByNumber finds a batch by its product-scoped number, locked when forUpdate.
	GetBatchByNumber(ctx context.Context, productID id.ID, batchNumber string, forUpdate bool) (*Batch, error)

	// PickForIssue locks and returns the soonest-expiring batch of productID
	// that alone holds at least qty. Ties go to the oldest batch.
	PickForIssue(ctx context.Context, productID id.ID, qty int64, warehouseID *id.ID) (*Batch, error)

	// MaxAvailable returns the largest single-batch quantity of productID.
	MaxAvailable(ctx context.Context, productID id.ID, warehouseID *id.ID) (int64, error)

	// Decrement subtracts qty only if the batch still holds at least qty.
	// Returns false when the guard did not match.
	Decrement(ctx context.Context, batchID id.ID, qty int64) (bool, error)

	Increment(ctx context.Context, batchID id.ID, qty int64) error
	SetQuantity(ctx context.Context, batchID id.ID, qty int64) error

	// CreateMovements appends audit rows in one multi-row write.
	CreateMovements(ctx context.Context, movements []Movement) error

	ListBatches(ctx context.Context, filter BatchFilter) ([]*Batch, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)

	// MovementTotals returns the signed sum and count of a batch's movements.
	MovementTotals(ctx context.Context, batchID id.ID) (sum int64, rows int, err error)

	// Levels aggregates non-empty batches per product and warehouse.
	Levels(ctx context.Context, warehouseID *id.ID) ([]Level, error)
}

// BatchFilter narrows batch listings. Results are ordered by expiry, then id.
type BatchFilter struct {
	ProductID     *id.ID
	WarehouseID   *id.ID
	ExpiresBefore *time.Time
	NonEmpty      bool
}

// MovementFilter narrows movement listings. Results are ordered by creation.
type MovementFilter struct {
	BatchID   *id.ID
	ProductID *id.ID
	Type      *MovementType
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
}
