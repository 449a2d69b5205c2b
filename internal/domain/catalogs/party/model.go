// Package party provides customers, suppliers and investors with their
// running balances.
package party

import (
	"strings"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
)

// Type defines the role of a party.
type Type string

const (
	TypeCustomer Type = "customer"
	TypeSupplier Type = "supplier"
	TypeInvestor Type = "investor"
)

// Valid reports whether t is known.
func (t Type) Valid() bool {
	return t == TypeCustomer || t == TypeSupplier || t == TypeInvestor
}

// AccountType is the ledger category of a party's own account:
// customers are receivables, everyone else a payable.
func (t Type) AccountType() accounts.Type {
	if t == TypeCustomer {
		return accounts.TypeAsset
	}
	return accounts.TypeLiability
}

// Party is a business partner linked to its ledger account.
// CurrentBalance moves only inside voucher-producing business events.
type Party struct {
	ID             id.ID       `db:"id" json:"id"`
	Name           string      `db:"name" json:"name"`
	Type           Type        `db:"party_type" json:"type"`
	Phone          *string     `db:"phone" json:"phone,omitempty"`
	AccountID      id.ID       `db:"account_id" json:"accountId"`
	CurrentBalance types.Money `db:"current_balance" json:"currentBalance"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
}

// Validate checks party invariants.
func (p *Party) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("party name is required")
	}
	if !p.Type.Valid() {
		return apperror.NewValidation("invalid party type").WithDetail("type", string(p.Type))
	}
	if id.IsNil(p.AccountID) {
		return apperror.NewValidation("party account is required")
	}
	return nil
}
