package documents

import (
	"context"
	"fmt"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/catalogs/party"
	"erpcore/internal/domain/catalogs/warehouse"
)

// AccountLookup resolves account codes.
type AccountLookup interface {
	ResolveCode(ctx context.Context, code string) (*accounts.Account, error)
}

// Accounts is the full set of accounts a document may post to.
// Unset roles stay nil and are reported by the posting builders.
type Accounts struct {
	Sales          id.ID
	Purchase       id.ID
	SalesReturn    id.ID
	PurchaseReturn id.ID
	CashOrBank     id.ID
	Party          id.ID
	TaxPayable     id.ID
	TaxReceivable  id.ID
}

// AccountResolver determines posting accounts for a document from the
// warehouse defaults, the party ledger account and the configured tax codes.
type AccountResolver struct {
	accounts          AccountLookup
	taxPayableCode    string
	taxReceivableCode string
}

// NewAccountResolver creates a new AccountResolver.
func NewAccountResolver(accts AccountLookup, taxPayableCode, taxReceivableCode string) *AccountResolver {
	return &AccountResolver{
		accounts:          accts,
		taxPayableCode:    taxPayableCode,
		taxReceivableCode: taxReceivableCode,
	}
}

// Resolve collects the accounts for doc. Tax accounts are looked up only when
// the document carries tax, so a chart without them still posts untaxed documents.
func (r *AccountResolver) Resolve(ctx context.Context, doc *Document, wh *warehouse.Warehouse, p *party.Party) (Accounts, error) {
	out := Accounts{
		Sales:          wh.Sales(),
		Purchase:       wh.Purchase(),
		SalesReturn:    wh.SalesReturn(),
		PurchaseReturn: wh.PurchaseReturn(),
		CashOrBank:     wh.CashOrBank(),
		Party:          p.AccountID,
	}

	if !doc.Tax.IsPositive() {
		return out, nil
	}

	var err error
	switch doc.Kind {
	case KindSaleInvoice, KindSaleReturn:
		out.TaxPayable, err = r.taxAccount(ctx, r.taxPayableCode)
	case KindPurchaseInvoice, KindPurchaseReturn:
		out.TaxReceivable, err = r.taxAccount(ctx, r.taxReceivableCode)
	}
	if err != nil {
		return Accounts{}, err
	}
	return out, nil
}

func (r *AccountResolver) taxAccount(ctx context.Context, code string) (id.ID, error) {
	if code == "" {
		return id.Nil(), nil
	}
	acc, err := r.accounts.ResolveCode(ctx, code)
	if err != nil {
		if apperror.Is(err, apperror.CodeAccountNotFound) {
			// Reported as a missing role by the builder.
			return id.Nil(), nil
		}
		return id.Nil(), fmt.Errorf("resolve tax account %s: %w", code, err)
	}
	return acc.ID, nil
}
