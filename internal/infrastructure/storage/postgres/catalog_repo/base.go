// Package catalog_repo provides PostgreSQL repositories for reference data:
// the chart of accounts, parties and warehouses.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"erpcore/internal/core/apperror"
	"erpcore/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides insert and lookup for one catalog table.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	orderBy    string
}

// NewBaseCatalogRepo creates a base repository over tableName whose columns
// come from T's db tags.
func NewBaseCatalogRepo[T any](txm *postgres.TxManager, tableName, entityName, orderBy string) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.ExtractDBColumns[T](),
		orderBy:    orderBy,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseCatalogRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// insert writes entity using its "db" tags.
func (r *BaseCatalogRepo[T]) insert(ctx context.Context, entity *T) error {
	cols, values := postgres.Columns(postgres.StructToMap(entity), r.selectCols)
	if len(cols) == 0 {
		return fmt.Errorf("no db tags found in %s", r.entityName)
	}

	sql, args, err := r.Builder().
		Insert(r.tableName).
		Columns(cols...).
		Values(values...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// baseSelect creates a SELECT builder.
func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tableName)
}

// getOne returns the single row matching where, or NOT_FOUND naming key.
func (r *BaseCatalogRepo[T]) getOne(ctx context.Context, where squirrel.Sqlizer, key any, forUpdate bool) (*T, error) {
	q := r.baseSelect().Where(where).Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entity := new(T)
	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, key)
		}
		return nil, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return entity, nil
}

// list returns all rows matching where (nil for all) in the repository order.
func (r *BaseCatalogRepo[T]) list(ctx context.Context, where squirrel.Sqlizer) ([]*T, error) {
	q := r.baseSelect().OrderBy(r.orderBy)
	if where != nil {
		q = q.Where(where)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*T
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return out, nil
}

func pgxNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
