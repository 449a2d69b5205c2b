// Package register_repo provides the PostgreSQL stock register: batches and
// their movement audit trail.
package register_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/stock"
	"erpcore/internal/infrastructure/storage/postgres"
)

const (
	batchesTable   = "batches"
	movementsTable = "stock_movements"
)

// issueOrder is the FIFO-by-expiry order batches are issued in.
var issueOrder = []string{"expiry_date", "created_at", "id"}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm          *postgres.TxManager
	inserter     *postgres.BatchInserter
	builder      squirrel.StatementBuilderType
	batchCols    []string
	movementCols []string
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:          txm,
		inserter:     postgres.NewBatchInserter(txm),
		builder:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		batchCols:    postgres.ExtractDBColumns[stock.Batch](),
		movementCols: postgres.ExtractDBColumns[stock.Movement](),
	}
}

func (r *StockRepo) CreateBatch(ctx context.Context, b *stock.Batch) error {
	cols, values := postgres.Columns(postgres.StructToMap(b), r.batchCols)
	sql, args, err := r.builder.Insert(batchesTable).Columns(cols...).Values(values...).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, postgres.ConstraintBatchNumber) {
			return apperror.NewDuplicateBatch(b.ProductID.String(), b.BatchNumber)
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *StockRepo) getBatch(ctx context.Context, where squirrel.Sqlizer, key any, forUpdate bool) (*stock.Batch, error) {
	q := r.builder.Select(r.batchCols...).From(batchesTable).Where(where).Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b stock.Batch
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", key)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

func (r *StockRepo) GetBatch(ctx context.Context, batchID id.ID) (*stock.Batch, error) {
	return r.getBatch(ctx, squirrel.Eq{"id": batchID}, batchID, false)
}

func (r *StockRepo) GetBatchForUpdate(ctx context.Context, batchID id.ID) (*stock.Batch, error) {
	return r.getBatch(ctx, squirrel.Eq{"id": batchID}, batchID, true)
}

func (r *StockRepo) GetBatchByNumber(ctx context.Context, productID id.ID, batchNumber string, forUpdate bool) (*stock.Batch, error) {
	batchNumber = strings.TrimSpace(batchNumber)
	return r.getBatch(ctx, squirrel.Eq{"product_id": productID, "batch_number": batchNumber}, batchNumber, forUpdate)
}

// PickForIssue locks the chosen row. A concurrent issue of the same batch
// waits on the lock and Decrement re-checks the quantity afterwards.
func (r *StockRepo) PickForIssue(ctx context.Context, productID id.ID, qty int64, warehouseID *id.ID) (*stock.Batch, error) {
	where := squirrel.And{
		squirrel.Eq{"product_id": productID},
		squirrel.GtOrEq{"quantity": qty},
	}
	if warehouseID != nil {
		where = append(where, squirrel.Eq{"warehouse_id": *warehouseID})
	}

	q := r.builder.Select(r.batchCols...).From(batchesTable).
		Where(where).
		OrderBy(issueOrder...).
		Limit(1).
		Suffix("FOR UPDATE")
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b stock.Batch
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", productID)
		}
		return nil, fmt.Errorf("pick batch: %w", err)
	}
	return &b, nil
}

func (r *StockRepo) MaxAvailable(ctx context.Context, productID id.ID, warehouseID *id.ID) (int64, error) {
	q := r.builder.Select("COALESCE(MAX(quantity), 0)").From(batchesTable).
		Where(squirrel.Eq{"product_id": productID})
	if warehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *warehouseID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var largest int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&largest); err != nil {
		return 0, fmt.Errorf("max available: %w", err)
	}
	return largest, nil
}

// Decrement is a compare-and-set: it only applies while quantity >= qty.
func (r *StockRepo) Decrement(ctx context.Context, batchID id.ID, qty int64) (bool, error) {
	sql, args, err := r.builder.Update(batchesTable).
		Set("quantity", squirrel.Expr("quantity - ?", qty)).
		Where(squirrel.Eq{"id": batchID}).
		Where(squirrel.GtOrEq{"quantity": qty}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("decrement batch: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *StockRepo) Increment(ctx context.Context, batchID id.ID, qty int64) error {
	return r.setQuantity(ctx, batchID, squirrel.Expr("quantity + ?", qty))
}

func (r *StockRepo) SetQuantity(ctx context.Context, batchID id.ID, qty int64) error {
	return r.setQuantity(ctx, batchID, qty)
}

func (r *StockRepo) setQuantity(ctx context.Context, batchID id.ID, value any) error {
	sql, args, err := r.builder.Update(batchesTable).
		Set("quantity", value).
		Where(squirrel.Eq{"id": batchID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsCheckViolation(err, postgres.ConstraintBatchQuantity) {
			return apperror.NewValidation("batch quantity must not be negative").WithDetail("batch_id", batchID)
		}
		return fmt.Errorf("update batch quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", batchID)
	}
	return nil
}

// CreateMovements batch inserts movements.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if r.txm.GetTx(ctx) != nil {
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.ID, m.BatchID, m.ProductID, string(m.Type), m.Quantity,
				m.Reason, m.SourceType, m.SourceID, m.CreatedAt,
			})
		}
		if _, err := r.inserter.CopyFromSlice(ctx, movementsTable, r.movementCols, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(movementsTable).Columns(r.movementCols...)
	for _, m := range movements {
		q = q.Values(m.ID, m.BatchID, m.ProductID, m.Type, m.Quantity, m.Reason, m.SourceType, m.SourceID, m.CreatedAt)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

func (r *StockRepo) ListBatches(ctx context.Context, filter stock.BatchFilter) ([]*stock.Batch, error) {
	q := r.builder.Select(r.batchCols...).From(batchesTable).OrderBy(issueOrder...)
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.ExpiresBefore != nil {
		q = q.Where(squirrel.Lt{"expiry_date": *filter.ExpiresBefore})
	}
	if filter.NonEmpty {
		q = q.Where(squirrel.Gt{"quantity": 0})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []*stock.Batch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

func (r *StockRepo) ListMovements(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error) {
	q := r.builder.Select(r.movementCols...).From(movementsTable).OrderBy("created_at", "id")
	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"batch_id": *filter.BatchID})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.Type})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at::date": filter.FromDate.Format(time.DateOnly)})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at::date": filter.ToDate.Format(time.DateOnly)})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []stock.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return out, nil
}

func (r *StockRepo) MovementTotals(ctx context.Context, batchID id.ID) (int64, int, error) {
	sql, args, err := r.builder.Select("COALESCE(SUM(quantity), 0)::bigint", "COUNT(*)").
		From(movementsTable).
		Where(squirrel.Eq{"batch_id": batchID}).
		ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build query: %w", err)
	}
	var (
		sum  int64
		rows int
	)
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum, &rows); err != nil {
		return 0, 0, fmt.Errorf("movement totals: %w", err)
	}
	return sum, rows, nil
}

func (r *StockRepo) Levels(ctx context.Context, warehouseID *id.ID) ([]stock.Level, error) {
	q := r.builder.Select(
		"product_id", "warehouse_id",
		"SUM(quantity)::bigint AS quantity",
		"ROUND(SUM(quantity * purchase_price), 2) AS value",
		"COUNT(*) AS batches",
	).
		From(batchesTable).
		Where(squirrel.Gt{"quantity": 0}).
		GroupBy("product_id", "warehouse_id").
		OrderBy("product_id", "warehouse_id")
	if warehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *warehouseID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []stock.Level
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("stock levels: %w", err)
	}
	return out, nil
}
