package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"erpcore/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// Constraint names the repositories translate into domain errors.
const (
	ConstraintAccountCode      = "accounts_code_key"
	ConstraintWarehouseCode    = "warehouses_code_key"
	ConstraintBatchNumber      = "batches_product_number_key"
	ConstraintBatchQuantity    = "batches_quantity_non_negative"
	ConstraintDocumentNumber   = "documents_kind_number_key"
	ConstraintSingleActiveYear = "financial_years_single_active"
	ConstraintYearName         = "financial_years_name_key"
	ConstraintVoucherNumber    = "vouchers_number_key"
)

// ApplySchema creates missing tables and indexes.
func ApplySchema(ctx context.Context, pool *Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	logger.Info(ctx, "database schema applied")
	return nil
}
