package documents

import (
	"context"
	"time"

	"erpcore/internal/core/id"
)

// ListFilter narrows document listings.
type ListFilter struct {
	Kind      *Kind
	PartyID   *id.ID
	Confirmed *bool
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}

// Repository persists documents and their lines.
type Repository interface {
	// Create inserts the header and all lines.
	Create(ctx context.Context, doc *Document) error

	// GetByID loads a document with lines.
	GetByID(ctx context.Context, docID id.ID) (*Document, error)

	// GetForUpdate loads a document with lines and locks the header row.
	GetForUpdate(ctx context.Context, docID id.ID) (*Document, error)

	// SetVoucher links the posted voucher. It only succeeds while the
	// document has no voucher yet and reports whether the row changed.
	SetVoucher(ctx context.Context, docID, voucherID id.ID, at time.Time) (bool, error)

	// SetLineBatch records the batch a line was issued from or returned to.
	SetLineBatch(ctx context.Context, lineID, batchID id.ID) error

	List(ctx context.Context, filter ListFilter) ([]*Document, error)
}
