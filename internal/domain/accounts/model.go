// Package accounts provides the chart of accounts registry.
package accounts

import (
	"strings"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

// Type is the account category. It decides the natural balance side.
type Type string

const (
	TypeAsset     Type = "ASSET"
	TypeLiability Type = "LIABILITY"
	TypeIncome    Type = "INCOME"
	TypeExpense   Type = "EXPENSE"
	TypeEquity    Type = "EQUITY"
)

// AllTypes lists account types in reporting order.
var AllTypes = []Type{TypeAsset, TypeLiability, TypeEquity, TypeIncome, TypeExpense}

// Side is a ledger side.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// Valid reports whether t is a known account type.
func (t Type) Valid() bool {
	switch t {
	case TypeAsset, TypeLiability, TypeIncome, TypeExpense, TypeEquity:
		return true
	}
	return false
}

// NaturalSide returns the side on which the account type normally carries its balance.
func (t Type) NaturalSide() Side {
	switch t {
	case TypeAsset, TypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Balance returns debit and credit turnover netted on the natural side,
// so a normal balance is positive.
func (t Type) Balance(debit, credit types.Money) types.Money {
	if t.NaturalSide() == SideDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// Account is a node of the chart of accounts.
// ParentID only drives rollups; it never affects whether an account can be posted to.
type Account struct {
	ID        id.ID     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Type      Type      `db:"account_type" json:"type"`
	ParentID  *id.ID    `db:"parent_id" json:"parentId,omitempty"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewAccount creates an active account.
func NewAccount(code, name string, t Type) *Account {
	return &Account{
		ID:        id.New(),
		Code:      strings.TrimSpace(code),
		Name:      strings.TrimSpace(name),
		Type:      t,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks account invariants.
func (a *Account) Validate() error {
	if a.Code == "" {
		return apperror.NewValidation("account code is required")
	}
	if a.Name == "" {
		return apperror.NewValidation("account name is required").WithDetail("code", a.Code)
	}
	if !a.Type.Valid() {
		return apperror.NewValidation("unknown account type").WithDetail("type", string(a.Type))
	}
	if a.ParentID != nil && *a.ParentID == a.ID {
		return apperror.NewValidation("account cannot be its own parent").WithDetail("code", a.Code)
	}
	return nil
}
