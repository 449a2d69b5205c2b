package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchInserter performs bulk inserts with the COPY protocol.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice copies rows into table. Each row holds values matching columns.
// It requires a transaction in ctx so the rows commit or vanish together with
// the header they belong to.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("CopyFromSlice into %s requires transaction context", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// Copy runs CopyFromSlice inside a transaction, opening one when ctx has none.
func (b *BatchInserter) Copy(ctx context.Context, table string, columns []string, rows [][]any) error {
	return b.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := b.CopyFromSlice(ctx, table, columns, rows); err != nil {
			return fmt.Errorf("copy %s: %w", table, err)
		}
		return nil
	})
}
