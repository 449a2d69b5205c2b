package dto

import (
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/stock"
)

// StockInRequest is the body of POST /stock/in.
type StockInRequest struct {
	ProductID     id.ID       `json:"productId" validate:"required"`
	WarehouseID   id.ID       `json:"warehouseId" validate:"required"`
	BatchNumber   string      `json:"batchNumber" validate:"required,max=64"`
	Quantity      int64       `json:"quantity" validate:"gt=0"`
	ExpiryDate    Date        `json:"expiryDate"`
	PurchasePrice types.Money `json:"purchasePrice" validate:"nonneg_decimal"`
	SalePrice     types.Money `json:"salePrice" validate:"nonneg_decimal"`
	Reason        string      `json:"reason" validate:"max=500"`
}

// ToInput converts the request to service input.
func (r StockInRequest) ToInput() stock.StockInInput {
	return stock.StockInInput{
		ProductID:     r.ProductID,
		WarehouseID:   r.WarehouseID,
		BatchNumber:   r.BatchNumber,
		Quantity:      r.Quantity,
		ExpiryDate:    r.ExpiryDate.Time,
		PurchasePrice: r.PurchasePrice,
		SalePrice:     r.SalePrice,
		Reason:        r.Reason,
	}
}

// StockOutRequest is the body of POST /stock/out.
type StockOutRequest struct {
	ProductID   id.ID  `json:"productId" validate:"required"`
	WarehouseID *id.ID `json:"warehouseId"`
	Quantity    int64  `json:"quantity" validate:"gt=0"`
	Reason      string `json:"reason" validate:"max=500"`
}

// StockReturnRequest is the body of POST /stock/return.
type StockReturnRequest struct {
	ProductID   id.ID  `json:"productId" validate:"required"`
	BatchNumber string `json:"batchNumber" validate:"required,max=64"`
	Quantity    int64  `json:"quantity" validate:"gt=0"`
	Reason      string `json:"reason" validate:"max=500"`
}

// StockAuditRequest is the body of POST /stock/audit.
type StockAuditRequest struct {
	Reason  string             `json:"reason" validate:"max=500"`
	Entries []stock.AuditEntry `json:"entries" validate:"required,min=1,dive"`
}
