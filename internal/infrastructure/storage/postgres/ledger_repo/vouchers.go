// Package ledger_repo provides PostgreSQL repositories for vouchers and
// financial years.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/vouchers"
	"erpcore/internal/infrastructure/storage/postgres"
)

const (
	vouchersTable     = "vouchers"
	entriesTable      = "voucher_entries"
	voucherTypesTable = "voucher_types"
)

var entryColumns = []string{"id", "voucher_id", "line_no", "account_id", "debit", "credit", "remarks"}

// VoucherRepo implements vouchers.Repository.
type VoucherRepo struct {
	txm      *postgres.TxManager
	inserter *postgres.BatchInserter
	builder  squirrel.StatementBuilderType
	cols     []string
}

var _ vouchers.Repository = (*VoucherRepo)(nil)

// NewVoucherRepo creates a new voucher repository.
func NewVoucherRepo(txm *postgres.TxManager) *VoucherRepo {
	return &VoucherRepo{
		txm:      txm,
		inserter: postgres.NewBatchInserter(txm),
		builder:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cols:     postgres.ExtractDBColumns[vouchers.Voucher](),
	}
}

func (r *VoucherRepo) EnsureTypes(ctx context.Context, infos []vouchers.TypeInfo) error {
	if len(infos) == 0 {
		return nil
	}
	q := r.builder.Insert(voucherTypesTable).Columns("code", "name")
	for _, info := range infos {
		q = q.Values(info.Code, info.Name)
	}
	sql, args, err := q.Suffix("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name").ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert voucher types: %w", err)
	}
	return nil
}

// Create inserts the header and copies the entries in the same transaction.
func (r *VoucherRepo) Create(ctx context.Context, v *vouchers.Voucher) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		cols, values := postgres.Columns(postgres.StructToMap(v), r.cols)
		sql, args, err := r.builder.Insert(vouchersTable).Columns(cols...).Values(values...).ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			if postgres.IsUniqueViolation(err, postgres.ConstraintVoucherNumber) {
				return apperror.NewDuplicate("voucher", "number", v.Number)
			}
			return fmt.Errorf("insert voucher: %w", err)
		}
		return r.copyEntries(ctx, v.Entries)
	})
}

func (r *VoucherRepo) copyEntries(ctx context.Context, entries []vouchers.Entry) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			e.ID, e.VoucherID, e.LineNo, e.AccountID,
			postgres.Numeric(e.Debit), postgres.Numeric(e.Credit), e.Remarks,
		})
	}
	if _, err := r.inserter.CopyFromSlice(ctx, entriesTable, entryColumns, rows); err != nil {
		return fmt.Errorf("copy voucher entries: %w", err)
	}
	return nil
}

func (r *VoucherRepo) GetByID(ctx context.Context, voucherID id.ID) (*vouchers.Voucher, error) {
	return r.get(ctx, voucherID, false)
}

func (r *VoucherRepo) GetForUpdate(ctx context.Context, voucherID id.ID) (*vouchers.Voucher, error) {
	return r.get(ctx, voucherID, true)
}

func (r *VoucherRepo) get(ctx context.Context, voucherID id.ID, forUpdate bool) (*vouchers.Voucher, error) {
	q := r.builder.Select(r.cols...).From(vouchersTable).Where(squirrel.Eq{"id": voucherID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var v vouchers.Voucher
	if err := pgxscan.Get(ctx, querier, &v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("voucher", voucherID)
		}
		return nil, fmt.Errorf("get voucher: %w", err)
	}

	sql, args, err = r.builder.Select(entryColumns...).From(entriesTable).
		Where(squirrel.Eq{"voucher_id": voucherID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &v.Entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select voucher entries: %w", err)
	}
	return &v, nil
}

// UpdateStatus is a compare-and-set on status.
func (r *VoucherRepo) UpdateStatus(ctx context.Context, v *vouchers.Voucher, from vouchers.Status) (bool, error) {
	sql, args, err := r.builder.Update(vouchersTable).
		Set("status", v.Status).
		Set("approved_by", v.ApprovedBy).
		Set("approved_at", v.ApprovedAt).
		Where(squirrel.Eq{"id": v.ID, "status": from}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update voucher status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *VoucherRepo) ReplaceEntries(ctx context.Context, voucherID id.ID, amount types.Money, entries []vouchers.Entry) (bool, error) {
	var ok bool
	err := r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txm.GetQuerier(ctx)

		sql, args, err := r.builder.Update(vouchersTable).
			Set("amount", amount).
			Where(squirrel.Eq{"id": voucherID, "status": vouchers.StatusPending}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		tag, err := querier.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("update voucher amount: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		sql, args, err = r.builder.Delete(entriesTable).Where(squirrel.Eq{"voucher_id": voucherID}).ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete voucher entries: %w", err)
		}
		if err := r.copyEntries(ctx, entries); err != nil {
			return err
		}
		ok = true
		return nil
	})
	return ok, err
}

func (r *VoucherRepo) List(ctx context.Context, filter vouchers.ListFilter) ([]*vouchers.Voucher, error) {
	q := r.builder.Select(r.cols...).From(vouchersTable).OrderBy("voucher_date", "number")
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"voucher_type": *filter.Type})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.FinancialYearID != nil {
		q = q.Where(squirrel.Eq{"financial_year_id": *filter.FinancialYearID})
	}
	q = dateRange(q, "voucher_date", filter.FromDate, filter.ToDate)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []*vouchers.Voucher
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	return out, nil
}

func (r *VoucherRepo) LedgerLines(ctx context.Context, accountID id.ID, from, to *time.Time) ([]vouchers.LedgerLine, error) {
	q := r.builder.Select(
		"v.id AS voucher_id", "v.number AS voucher_number", "v.voucher_type",
		"v.voucher_date", "v.narration", "e.remarks", "e.debit", "e.credit",
	).
		From(entriesTable+" e").
		Join(vouchersTable+" v ON v.id = e.voucher_id").
		Where(squirrel.Eq{"e.account_id": accountID}).
		Where(squirrel.NotEq{"v.status": vouchers.StatusRejected}).
		OrderBy("v.voucher_date", "v.created_at", "v.number", "e.line_no")
	q = dateRange(q, "v.voucher_date", from, to)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []vouchers.LedgerLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select ledger lines: %w", err)
	}
	return out, nil
}

func (r *VoucherRepo) Turnover(ctx context.Context, accountID id.ID, before time.Time) (types.Money, types.Money, error) {
	sql, args, err := r.builder.Select("COALESCE(SUM(e.debit), 0)", "COALESCE(SUM(e.credit), 0)").
		From(entriesTable + " e").
		Join(vouchersTable + " v ON v.id = e.voucher_id").
		Where(squirrel.Eq{"e.account_id": accountID}).
		Where(squirrel.NotEq{"v.status": vouchers.StatusRejected}).
		Where(squirrel.Lt{"v.voucher_date": before.Format(time.DateOnly)}).
		ToSql()
	if err != nil {
		return types.Zero(), types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var debit, credit types.Money
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&debit, &credit); err != nil {
		return types.Zero(), types.Zero(), fmt.Errorf("account turnover: %w", err)
	}
	return debit, credit, nil
}

// dateRange adds optional inclusive day bounds on col.
func dateRange(q squirrel.SelectBuilder, col string, from, to *time.Time) squirrel.SelectBuilder {
	if from != nil {
		q = q.Where(squirrel.GtOrEq{col: from.Format(time.DateOnly)})
	}
	if to != nil {
		q = q.Where(squirrel.LtOrEq{col: to.Format(time.DateOnly)})
	}
	return q
}
