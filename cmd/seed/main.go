// Package main provides a CLI tool for seeding the ledger with its chart of
// accounts and, optionally, a small demo dataset.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"erpcore/internal/app"
	"erpcore/internal/config"
	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/catalogs/party"
	"erpcore/internal/domain/catalogs/warehouse"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/stock"
	"erpcore/internal/domain/vouchers"
	"erpcore/internal/infrastructure/storage/postgres"
	"erpcore/pkg/logger"
)

const seedActor = "seed"

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.Storage != config.StoragePostgres {
		log.Fatal("seeding requires STORAGE=postgres")
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txm := postgres.NewTxManager(pool, cfg.TxStatementTimeout)
	services := app.Build(app.PostgresStorage(txm), cfg.LedgerConfig)

	if err := services.Bootstrap(ctx); err != nil {
		log.Fatalw("failed to bootstrap ledger", "error", err)
	}
	year, err := services.Finance.GetActive(ctx)
	if err != nil {
		log.Fatalw("failed to resolve active financial year", "error", err)
	}
	log.Infow("ledger bootstrapped", "financial_year", year.Name)

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, services, year, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedDemoData creates a warehouse, two parties, a payment term, an owner
// investment voucher and two stocked batches. A second run stops at the
// warehouse, whose code is unique.
func seedDemoData(ctx context.Context, svc *app.Services, year *finance.Year, log *logger.Logger) error {
	wh, err := svc.Warehouses.Create(ctx, warehouse.CreateInput{
		Code:               "MAIN",
		Name:               "Main warehouse",
		SalesReturnCode:    accounts.CodeSalesReturns,
		PurchaseReturnCode: accounts.CodePurchaseReturns,
	})
	if apperror.Is(err, apperror.CodeDuplicate) {
		log.Info("demo data already present, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("create warehouse: %w", err)
	}

	for _, in := range []party.CreateInput{
		{Name: "Walk-in Customer", Type: party.TypeCustomer},
		{Name: "Central Supply Co", Type: party.TypeSupplier},
	} {
		if _, err := svc.Parties.Create(ctx, in); err != nil {
			return fmt.Errorf("create party %s: %w", in.Name, err)
		}
	}

	if _, err := svc.Finance.CreateTerm(ctx, finance.CreateTermInput{
		Name:         "Net 30 x3",
		Installments: 3,
		IntervalDays: 30,
	}); err != nil {
		return fmt.Errorf("create payment term: %w", err)
	}

	cash, err := svc.Accounts.ResolveCode(ctx, accounts.CodeCash)
	if err != nil {
		return err
	}
	capital, err := svc.Accounts.ResolveCode(ctx, accounts.CodeOwnersCapital)
	if err != nil {
		return err
	}
	v, err := svc.Vouchers.CreateWithEntries(ctx, vouchers.CreateInput{
		Type:      vouchers.TypeJournal,
		Date:      time.Now().UTC(),
		Narration: "Opening capital",
		Entries: []vouchers.EntryInput{
			{AccountID: cash.ID, Debit: types.MustMoney("50000")},
			{AccountID: capital.ID, Credit: types.MustMoney("50000")},
		},
		CreatedBy:       seedActor,
		FinancialYearID: &year.ID,
	})
	if err != nil {
		return fmt.Errorf("create opening voucher: %w", err)
	}
	if _, err := svc.Vouchers.Approve(ctx, v.ID, seedActor); err != nil {
		return fmt.Errorf("approve opening voucher: %w", err)
	}

	expiry := time.Now().UTC().AddDate(1, 0, 0)
	for i, price := range []string{"12.50", "4.75"} {
		if _, err := svc.Stock.StockIn(ctx, stock.StockInInput{
			ProductID:     id.New(),
			WarehouseID:   wh.ID,
			BatchNumber:   fmt.Sprintf("DEMO-%03d", i+1),
			Quantity:      100,
			ExpiryDate:    expiry,
			PurchasePrice: types.MustMoney(price),
			SalePrice:     types.MustMoney(price).Mul(types.MustMoney("1.4")).Round(2),
			Reason:        "Demo opening stock",
		}); err != nil {
			return fmt.Errorf("stock demo batch: %w", err)
		}
	}

	log.Infow("demo data seeded", "warehouse", wh.Code, "voucher", v.Number)
	return nil
}
