// Package apptest builds a fully wired domain layer over the in-memory store
// for service tests.
package apptest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"erpcore/internal/app"
	"erpcore/internal/config"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/catalogs/party"
	"erpcore/internal/domain/catalogs/warehouse"
	"erpcore/internal/domain/finance"
	"erpcore/internal/infrastructure/storage/memory"
)

// Env is a seeded ledger: default chart, one warehouse with return
// accounts, a customer, a supplier and an active financial year.
type Env struct {
	Ctx       context.Context
	Store     *memory.Store
	Svc       *app.Services
	Warehouse *warehouse.Warehouse
	Customer  *party.Party
	Supplier  *party.Party
	Year      *finance.Year
	PC        finance.PostingContext
}

// New builds an Env.
func New(t *testing.T) *Env {
	t.Helper()

	ctx := context.Background()
	store := memory.New()
	svc := app.Build(app.MemoryStorage(store), config.DefaultLedger())
	require.NoError(t, svc.Bootstrap(ctx))

	wh, err := svc.Warehouses.Create(ctx, warehouse.CreateInput{
		Code:               "MAIN",
		Name:               "Main warehouse",
		SalesReturnCode:    accounts.CodeSalesReturns,
		PurchaseReturnCode: accounts.CodePurchaseReturns,
	})
	require.NoError(t, err)

	customer, err := svc.Parties.Create(ctx, party.CreateInput{Name: "Acme Retail", Type: party.TypeCustomer})
	require.NoError(t, err)
	supplier, err := svc.Parties.Create(ctx, party.CreateInput{Name: "Globex Supply", Type: party.TypeSupplier})
	require.NoError(t, err)

	year, err := svc.Finance.GetActive(ctx)
	require.NoError(t, err)

	return &Env{
		Ctx:       ctx,
		Store:     store,
		Svc:       svc,
		Warehouse: wh,
		Customer:  customer,
		Supplier:  supplier,
		Year:      year,
		PC:        finance.PostingContext{FinancialYearID: year.ID, Actor: "tester"},
	}
}

// Account returns the account with code.
func (e *Env) Account(t *testing.T, code string) *accounts.Account {
	t.Helper()
	acc, err := e.Svc.Accounts.ResolveCode(e.Ctx, code)
	require.NoError(t, err)
	return acc
}

// Balance reloads a party's current balance.
func (e *Env) Balance(t *testing.T, partyID id.ID) types.Money {
	t.Helper()
	p, err := e.Svc.Parties.Get(e.Ctx, partyID)
	require.NoError(t, err)
	return p.CurrentBalance
}

// Money parses a decimal literal.
func Money(s string) types.Money {
	return types.MustMoney(s)
}

// Date returns midnight UTC of the given day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
