package app

import (
	"context"

	"erpcore/internal/infrastructure/storage/postgres"
	"erpcore/internal/infrastructure/storage/postgres/catalog_repo"
	"erpcore/internal/infrastructure/storage/postgres/document_repo"
	"erpcore/internal/infrastructure/storage/postgres/ledger_repo"
	"erpcore/internal/infrastructure/storage/postgres/register_repo"
	"erpcore/internal/infrastructure/storage/postgres/report_repo"
	"erpcore/pkg/numerator"
)

// PostgresStorage builds a Storage over a pool. Every repository and the
// numerator resolve the active transaction from ctx.
func PostgresStorage(txm *postgres.TxManager) Storage {
	return Storage{
		Ready: func(ctx context.Context) error {
			return txm.ReadOnly(ctx, func(ctx context.Context) error {
				var one int
				return txm.GetQuerier(ctx).QueryRow(ctx, "SELECT 1").Scan(&one)
			})
		},
		TxManager: txm,
		Numerator: numerator.NewFromContext(func(ctx context.Context) numerator.Querier {
			return txm.GetQuerier(ctx)
		}),
		Accounts:   catalog_repo.NewAccountRepo(txm),
		Vouchers:   ledger_repo.NewVoucherRepo(txm),
		Stock:      register_repo.NewStockRepo(txm),
		Parties:    catalog_repo.NewPartyRepo(txm),
		Warehouses: catalog_repo.NewWarehouseRepo(txm),
		Finance:    ledger_repo.NewFinanceRepo(txm),
		Documents:  document_repo.NewDocumentRepo(txm),
		Reports:    report_repo.NewReportRepo(txm),
	}
}
