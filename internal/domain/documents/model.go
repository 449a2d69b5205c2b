// Package documents provides sale and purchase invoices and returns, and the
// confirmation flows that turn them into stock movements and vouchers.
package documents

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/catalogs/party"
	"erpcore/internal/domain/posting"
)

// Kind is the document type.
type Kind string

const (
	KindSaleInvoice     Kind = "SALE_INVOICE"
	KindPurchaseInvoice Kind = "PURCHASE_INVOICE"
	KindSaleReturn      Kind = "SALE_RETURN"
	KindPurchaseReturn  Kind = "PURCHASE_RETURN"
)

// Valid reports whether k is known.
func (k Kind) Valid() bool {
	switch k {
	case KindSaleInvoice, KindPurchaseInvoice, KindSaleReturn, KindPurchaseReturn:
		return true
	}
	return false
}

// Prefix is the document number prefix.
func (k Kind) Prefix() string {
	switch k {
	case KindSaleInvoice:
		return "SI"
	case KindPurchaseInvoice:
		return "PI"
	case KindSaleReturn:
		return "SR"
	default:
		return "PR"
	}
}

// Title is the human name used in narrations and stock reasons.
func (k Kind) Title() string {
	switch k {
	case KindSaleInvoice:
		return "Sale Invoice"
	case KindPurchaseInvoice:
		return "Purchase Invoice"
	case KindSaleReturn:
		return "Sale Return"
	default:
		return "Purchase Return"
	}
}

// PartyType is the party role the document requires.
func (k Kind) PartyType() party.Type {
	if k == KindSaleInvoice || k == KindSaleReturn {
		return party.TypeCustomer
	}
	return party.TypeSupplier
}

// IsInvoice reports whether k carries a payment schedule.
func (k Kind) IsInvoice() bool {
	return k == KindSaleInvoice || k == KindPurchaseInvoice
}

// Document is an invoice or return. It is a draft until VoucherID is set.
type Document struct {
	ID            id.ID                 `db:"id" json:"id"`
	Kind          Kind                  `db:"kind" json:"kind"`
	Number        string                `db:"number" json:"number"`
	Date          time.Time             `db:"doc_date" json:"date"`
	PartyID       id.ID                 `db:"party_id" json:"partyId"`
	WarehouseID   id.ID                 `db:"warehouse_id" json:"warehouseId"`
	PaymentMethod posting.PaymentMethod `db:"payment_method" json:"paymentMethod"`
	PaidAmount    types.Money           `db:"paid_amount" json:"paidAmount"`
	Discount      types.Money           `db:"discount" json:"discount"`
	Tax           types.Money           `db:"tax" json:"tax"`
	PaymentTermID *id.ID                `db:"payment_term_id" json:"paymentTermId,omitempty"`
	BranchID      *string               `db:"branch_id" json:"branchId,omitempty"`
	OriginalID    *id.ID                `db:"original_id" json:"originalId,omitempty"`
	Notes         string                `db:"notes" json:"notes,omitempty"`
	VoucherID     *id.ID                `db:"voucher_id" json:"voucherId,omitempty"`
	CreatedBy     string                `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time             `db:"created_at" json:"createdAt"`
	ConfirmedAt   *time.Time            `db:"confirmed_at" json:"confirmedAt,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one product row.
// BatchNumber names the new batch on purchases and the target batch on sale
// returns; sales and purchase returns pick batches by expiry.
type Line struct {
	ID            id.ID       `db:"id" json:"id"`
	DocumentID    id.ID       `db:"document_id" json:"documentId"`
	LineNo        int         `db:"line_no" json:"lineNo"`
	ProductID     id.ID       `db:"product_id" json:"productId"`
	BatchNumber   string      `db:"batch_number" json:"batchNumber,omitempty"`
	Quantity      int64       `db:"quantity" json:"quantity"`
	BonusQuantity int64       `db:"bonus_quantity" json:"bonusQuantity"`
	UnitPrice     types.Money `db:"unit_price" json:"unitPrice"`
	SalePrice     types.Money `db:"sale_price" json:"salePrice"`
	ExpiryDate    *time.Time  `db:"expiry_date" json:"expiryDate,omitempty"`
	BatchID       *id.ID      `db:"batch_id" json:"batchId,omitempty"`
}

// StockQuantity is what moves in stock: bonus units move but are not charged.
func (l Line) StockQuantity() int64 {
	return l.Quantity + l.BonusQuantity
}

// Amount is quantity times unit price.
func (l Line) Amount() types.Money {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Confirmed reports whether the document has posted its voucher.
func (d *Document) Confirmed() bool {
	return d.VoucherID != nil
}

// Subtotal sums the line amounts.
func (d *Document) Subtotal() types.Money {
	total := types.Zero()
	for _, l := range d.Lines {
		total = total.Add(l.Amount())
	}
	return types.Round(total)
}

// Net is the subtotal after discount, before tax.
func (d *Document) Net() types.Money {
	return types.Round(d.Subtotal().Sub(d.Discount))
}

// GrandTotal is the net plus tax.
func (d *Document) GrandTotal() types.Money {
	return types.Round(d.Net().Add(d.Tax))
}

// Validate checks document invariants without storage access.
func (d *Document) Validate() error {
	if !d.Kind.Valid() {
		return apperror.NewValidation("unknown document kind").WithDetail("kind", string(d.Kind))
	}
	if d.Date.IsZero() {
		return apperror.NewValidation("document date is required")
	}
	if id.IsNil(d.PartyID) || id.IsNil(d.WarehouseID) {
		return apperror.NewValidation("party and warehouse are required")
	}
	if !d.PaymentMethod.Valid() {
		return apperror.NewValidation("unknown payment method").WithDetail("method", string(d.PaymentMethod))
	}
	if d.PaidAmount.IsNegative() || d.Discount.IsNegative() || d.Tax.IsNegative() {
		return apperror.NewValidation("paid amount, discount and tax must not be negative")
	}
	if d.PaymentTermID != nil && !d.Kind.IsInvoice() {
		return apperror.NewValidation("payment terms apply to invoices only")
	}
	if len(d.Lines) == 0 {
		return apperror.NewValidation("document has no lines")
	}

	for i, l := range d.Lines {
		line := i + 1
		if id.IsNil(l.ProductID) {
			return apperror.NewValidation("line has no product").WithDetail("line", line)
		}
		if l.Quantity <= 0 {
			return apperror.NewValidation("line quantity must be positive").WithDetail("line", line)
		}
		if l.BonusQuantity < 0 {
			return apperror.NewValidation("bonus quantity must not be negative").WithDetail("line", line)
		}
		if l.UnitPrice.IsNegative() || l.SalePrice.IsNegative() {
			return apperror.NewValidation("prices must not be negative").WithDetail("line", line)
		}
		switch d.Kind {
		case KindPurchaseInvoice:
			if strings.TrimSpace(l.BatchNumber) == "" || l.ExpiryDate == nil {
				return apperror.NewValidation("purchase lines need a batch number and expiry date").WithDetail("line", line)
			}
		case KindSaleReturn:
			if strings.TrimSpace(l.BatchNumber) == "" {
				return apperror.NewValidation("sale return lines need a batch number").WithDetail("line", line)
			}
		}
	}

	if d.Discount.GreaterThan(d.Subtotal()) {
		return apperror.NewValidation("discount exceeds subtotal").
			WithDetail("discount", d.Discount.String()).
			WithDetail("subtotal", d.Subtotal().String())
	}
	return nil
}

// CanModify fails once the document is confirmed.
func (d *Document) CanModify() error {
	if d.Confirmed() {
		return apperror.NewBusinessRule(apperror.CodeDocumentConfirmed, "confirmed document cannot be modified").
			WithDetail("number", d.Number)
	}
	return nil
}
