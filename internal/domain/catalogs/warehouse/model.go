// Package warehouse provides storage locations and their default posting accounts.
package warehouse

import (
	"strings"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
)

// Warehouse is a storage location. Its account defaults feed the posting
// builders when a document does not name accounts itself.
type Warehouse struct {
	ID                      id.ID     `db:"id" json:"id"`
	Code                    string    `db:"code" json:"code"`
	Name                    string    `db:"name" json:"name"`
	SalesAccountID          *id.ID    `db:"sales_account_id" json:"salesAccountId,omitempty"`
	PurchaseAccountID       *id.ID    `db:"purchase_account_id" json:"purchaseAccountId,omitempty"`
	SalesReturnAccountID    *id.ID    `db:"sales_return_account_id" json:"salesReturnAccountId,omitempty"`
	PurchaseReturnAccountID *id.ID    `db:"purchase_return_account_id" json:"purchaseReturnAccountId,omitempty"`
	CashAccountID           *id.ID    `db:"cash_account_id" json:"cashAccountId,omitempty"`
	BankAccountID           *id.ID    `db:"bank_account_id" json:"bankAccountId,omitempty"`
	IsActive                bool      `db:"is_active" json:"isActive"`
	CreatedAt               time.Time `db:"created_at" json:"createdAt"`
}

// Validate checks warehouse invariants.
func (w *Warehouse) Validate() error {
	if strings.TrimSpace(w.Code) == "" {
		return apperror.NewValidation("warehouse code is required")
	}
	if strings.TrimSpace(w.Name) == "" {
		return apperror.NewValidation("warehouse name is required").WithDetail("code", w.Code)
	}
	return nil
}

// Sales returns the default sales account or a nil id.
func (w *Warehouse) Sales() id.ID { return deref(w.SalesAccountID) }

// Purchase returns the default purchase account or a nil id.
func (w *Warehouse) Purchase() id.ID { return deref(w.PurchaseAccountID) }

// SalesReturn returns the sales-return account or a nil id.
func (w *Warehouse) SalesReturn() id.ID { return deref(w.SalesReturnAccountID) }

// PurchaseReturn returns the purchase-return account or a nil id.
func (w *Warehouse) PurchaseReturn() id.ID { return deref(w.PurchaseReturnAccountID) }

// CashOrBank prefers the cash account and falls back to the bank account.
func (w *Warehouse) CashOrBank() id.ID {
	if w.CashAccountID != nil {
		return *w.CashAccountID
	}
	return deref(w.BankAccountID)
}

func deref(v *id.ID) id.ID {
	if v == nil {
		return id.Nil()
	}
	return *v
}
