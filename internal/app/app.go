// Package app wires repositories into the domain services.
package app

import (
	"context"
	"fmt"

	"erpcore/internal/config"
	"erpcore/internal/core/numerator"
	"erpcore/internal/core/tx"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/catalogs/party"
	"erpcore/internal/domain/catalogs/warehouse"
	"erpcore/internal/domain/documents"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/payroll"
	"erpcore/internal/domain/reports"
	"erpcore/internal/domain/stock"
	"erpcore/internal/domain/vouchers"
	"erpcore/internal/infrastructure/storage/memory"
)

// Storage is one backend: a transaction manager, a numerator and a
// repository per domain.
type Storage struct {
	// Ready reports whether the backend can serve requests.
	Ready func(ctx context.Context) error

	TxManager  tx.Manager
	Numerator  numerator.Generator
	Accounts   accounts.Repository
	Vouchers   vouchers.Repository
	Stock      stock.Repository
	Parties    party.Repository
	Warehouses warehouse.Repository
	Finance    finance.Repository
	Documents  documents.Repository
	Reports    reports.Repository
}

// MemoryStorage exposes an in-memory store as a Storage.
func MemoryStorage(s *memory.Store) Storage {
	r := s.Repositories()
	return Storage{
		Ready:      func(context.Context) error { return nil },
		TxManager:  s,
		Numerator:  r.Numerator,
		Accounts:   r.Accounts,
		Vouchers:   r.Vouchers,
		Stock:      r.Stock,
		Parties:    r.Parties,
		Warehouses: r.Warehouses,
		Finance:    r.Finance,
		Documents:  r.Documents,
		Reports:    r.Reports,
	}
}

// Services is the assembled domain layer.
type Services struct {
	Ledger     config.LedgerConfig
	Accounts   *accounts.Service
	Vouchers   *vouchers.Engine
	Stock      *stock.Service
	Parties    *party.Service
	Warehouses *warehouse.Service
	Finance    *finance.Service
	Closer     *finance.Closer
	Documents  *documents.Service
	Payroll    *payroll.Service
	Reports    *reports.Service
}

// Build creates every service over st.
func Build(st Storage, ledger config.LedgerConfig) *Services {
	accts := accounts.NewService(st.Accounts, st.TxManager)
	engine := vouchers.NewEngine(st.Vouchers, accts, st.Numerator, st.TxManager)
	stockSvc := stock.NewService(st.Stock, st.TxManager, ledger.LowStockThreshold)
	parties := party.NewService(st.Parties, accts, st.Numerator, st.TxManager)
	warehouses := warehouse.NewService(st.Warehouses, accts, st.TxManager)
	fin := finance.NewService(st.Finance, st.TxManager)
	rep := reports.NewService(st.Reports, stockSvc)

	docs := documents.NewService(documents.Deps{
		Repo:       st.Documents,
		Stock:      stockSvc,
		Vouchers:   engine,
		Parties:    parties,
		Warehouses: warehouses,
		Schedules:  fin,
		Accounts:   documents.NewAccountResolver(accts, ledger.TaxPayableCode, ledger.TaxReceivableCode),
		Numerator:  st.Numerator,
		TxManager:  st.TxManager,
	})

	return &Services{
		Ledger:     ledger,
		Accounts:   accts,
		Vouchers:   engine,
		Stock:      stockSvc,
		Parties:    parties,
		Warehouses: warehouses,
		Finance:    fin,
		Closer:     finance.NewCloser(fin, rep, engine, accts),
		Documents:  docs,
		Payroll:    payroll.NewService(accts, engine),
		Reports:    rep,
	}
}

// Bootstrap seeds the voucher type registry and the default chart of accounts.
// It is safe to run on every start.
func (s *Services) Bootstrap(ctx context.Context) error {
	if err := s.Vouchers.EnsureTypes(ctx); err != nil {
		return err
	}
	if _, err := s.Accounts.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("ensure default accounts: %w", err)
	}
	return nil
}
