package dto

import (
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/documents"
	"erpcore/internal/domain/posting"
)

// DocumentLineRequest is one product line of a document.
type DocumentLineRequest struct {
	ProductID     id.ID       `json:"productId" validate:"required"`
	BatchNumber   string      `json:"batchNumber" validate:"max=64"`
	Quantity      int64       `json:"quantity" validate:"gt=0"`
	BonusQuantity int64       `json:"bonusQuantity" validate:"gte=0"`
	UnitPrice     types.Money `json:"unitPrice" validate:"nonneg_decimal"`
	SalePrice     types.Money `json:"salePrice" validate:"nonneg_decimal"`
	ExpiryDate    *Date       `json:"expiryDate"`
}

// CreateDocumentRequest is the body of POST /documents/{kind}.
type CreateDocumentRequest struct {
	Date          Date                  `json:"date"`
	PartyID       id.ID                 `json:"partyId" validate:"required"`
	WarehouseID   id.ID                 `json:"warehouseId" validate:"required"`
	PaymentMethod posting.PaymentMethod `json:"paymentMethod" validate:"required,oneof=CASH CREDIT"`
	PaidAmount    types.Money           `json:"paidAmount" validate:"nonneg_decimal"`
	Discount      types.Money           `json:"discount" validate:"nonneg_decimal"`
	Tax           types.Money           `json:"tax" validate:"nonneg_decimal"`
	PaymentTermID *id.ID                `json:"paymentTermId"`
	OriginalID    *id.ID                `json:"originalId"`
	Notes         string                `json:"notes" validate:"max=1000"`
	Lines         []DocumentLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ToInput converts the request to service input.
func (r CreateDocumentRequest) ToInput(kind documents.Kind, actor string, branchID *string) documents.CreateInput {
	lines := make([]documents.LineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, documents.LineInput{
			ProductID:     l.ProductID,
			BatchNumber:   l.BatchNumber,
			Quantity:      l.Quantity,
			BonusQuantity: l.BonusQuantity,
			UnitPrice:     l.UnitPrice,
			SalePrice:     l.SalePrice,
			ExpiryDate:    l.ExpiryDate.Ptr(),
		})
	}
	return documents.CreateInput{
		Kind:          kind,
		Date:          r.Date.Time,
		PartyID:       r.PartyID,
		WarehouseID:   r.WarehouseID,
		PaymentMethod: r.PaymentMethod,
		PaidAmount:    r.PaidAmount,
		Discount:      r.Discount,
		Tax:           r.Tax,
		PaymentTermID: r.PaymentTermID,
		OriginalID:    r.OriginalID,
		Notes:         r.Notes,
		Lines:         lines,
		CreatedBy:     actor,
		BranchID:      branchID,
	}
}
