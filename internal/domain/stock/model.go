// Package stock provides the batch-level inventory ledger.
package stock

import (
	"time"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementIn     MovementType = "IN"
	MovementOut    MovementType = "OUT"
	MovementAdjust MovementType = "ADJUST"
)

// Batch is a received lot of one product at one warehouse.
// Quantity is never negative; every change is paired with one Movement.
type Batch struct {
	ID            id.ID       `db:"id" json:"id"`
	ProductID     id.ID       `db:"product_id" json:"productId"`
	WarehouseID   id.ID       `db:"warehouse_id" json:"warehouseId"`
	BatchNumber   string      `db:"batch_number" json:"batchNumber"`
	ExpiryDate    time.Time   `db:"expiry_date" json:"expiryDate"`
	PurchasePrice types.Money `db:"purchase_price" json:"purchasePrice"`
	SalePrice     types.Money `db:"sale_price" json:"salePrice"`
	Quantity      int64       `db:"quantity" json:"quantity"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
}

// IsExpired reports whether the batch expires before the day of now.
func (b *Batch) IsExpired(now time.Time) bool {
	y, m, d := now.Date()
	return b.ExpiryDate.Before(time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}

// Source references the business document behind a movement.
type Source struct {
	Type string `db:"source_type" json:"type"`
	ID   id.ID  `db:"source_id" json:"id"`
}

// Movement is an immutable audit row. Quantity is signed: IN is positive,
// OUT negative, ADJUST carries the variance.
type Movement struct {
	ID         id.ID        `db:"id" json:"id"`
	BatchID    id.ID        `db:"batch_id" json:"batchId"`
	ProductID  id.ID        `db:"product_id" json:"productId"`
	Type       MovementType `db:"movement_type" json:"type"`
	Quantity   int64        `db:"quantity" json:"quantity"`
	Reason     string       `db:"reason" json:"reason"`
	SourceType *string      `db:"source_type" json:"sourceType,omitempty"`
	SourceID   *id.ID       `db:"source_id" json:"sourceId,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
}

func newMovement(b *Batch, t MovementType, qty int64, reason string, src *Source, at time.Time) Movement {
	mv := Movement{
		ID:        id.New(),
		BatchID:   b.ID,
		ProductID: b.ProductID,
		Type:      t,
		Quantity:  qty,
		Reason:    reason,
		CreatedAt: at,
	}
	if src != nil {
		srcType, srcID := src.Type, src.ID
		mv.SourceType = &srcType
		mv.SourceID = &srcID
	}
	return mv
}

// Level is the on-hand quantity and value of a product at a warehouse.
type Level struct {
	ProductID   id.ID       `db:"product_id" json:"productId"`
	WarehouseID id.ID       `db:"warehouse_id" json:"warehouseId"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	Value       types.Money `db:"value" json:"value"`
	Batches     int         `db:"batches" json:"batches"`
}

// Reconciliation compares a batch quantity with its movement history.
type Reconciliation struct {
	BatchID      id.ID `json:"batchId"`
	Quantity     int64 `json:"quantity"`
	MovementSum  int64 `json:"movementSum"`
	InSync       bool  `json:"inSync"`
	MovementRows int   `json:"movementRows"`
}
