package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/finance"
	"erpcore/internal/infrastructure/storage/postgres"
)

const (
	yearsTable     = "financial_years"
	termsTable     = "payment_terms"
	schedulesTable = "payment_schedules"
)

// FinanceRepo implements finance.Repository.
type FinanceRepo struct {
	txm         *postgres.TxManager
	inserter    *postgres.BatchInserter
	builder     squirrel.StatementBuilderType
	yearCols    []string
	termCols    []string
	scheduleCol []string
}

var _ finance.Repository = (*FinanceRepo)(nil)

// NewFinanceRepo creates a new financial year repository.
func NewFinanceRepo(txm *postgres.TxManager) *FinanceRepo {
	return &FinanceRepo{
		txm:         txm,
		inserter:    postgres.NewBatchInserter(txm),
		builder:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		yearCols:    postgres.ExtractDBColumns[finance.Year](),
		termCols:    postgres.ExtractDBColumns[finance.Term](),
		scheduleCol: postgres.ExtractDBColumns[finance.Schedule](),
	}
}

func (r *FinanceRepo) exec(ctx context.Context, q squirrel.Sqlizer, what string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", what, err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return tag.RowsAffected(), nil
}

func (r *FinanceRepo) CreateYear(ctx context.Context, y *finance.Year) error {
	cols, values := postgres.Columns(postgres.StructToMap(y), r.yearCols)
	_, err := r.exec(ctx, r.builder.Insert(yearsTable).Columns(cols...).Values(values...), "insert financial year")
	switch {
	case postgres.IsUniqueViolation(err, postgres.ConstraintYearName):
		return apperror.NewDuplicate("financial year", "name", y.Name)
	case postgres.IsUniqueViolation(err, postgres.ConstraintSingleActiveYear):
		return apperror.NewConflict("another financial year is already active")
	}
	return err
}

func (r *FinanceRepo) getYear(ctx context.Context, where squirrel.Sqlizer, key any, forUpdate bool) (*finance.Year, error) {
	q := r.builder.Select(r.yearCols...).From(yearsTable).Where(where).OrderBy("start_date").Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var y finance.Year
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &y, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("financial year", key)
		}
		return nil, fmt.Errorf("get financial year: %w", err)
	}
	return &y, nil
}

func (r *FinanceRepo) GetYear(ctx context.Context, yearID id.ID) (*finance.Year, error) {
	return r.getYear(ctx, squirrel.Eq{"id": yearID}, yearID, false)
}

func (r *FinanceRepo) GetYearForUpdate(ctx context.Context, yearID id.ID) (*finance.Year, error) {
	return r.getYear(ctx, squirrel.Eq{"id": yearID}, yearID, true)
}

func (r *FinanceRepo) GetActiveYear(ctx context.Context) (*finance.Year, error) {
	return r.getYear(ctx, squirrel.Eq{"is_active": true}, "active", false)
}

func (r *FinanceRepo) FindYearContaining(ctx context.Context, date time.Time) (*finance.Year, error) {
	d := date.Format(time.DateOnly)
	return r.getYear(ctx, squirrel.And{
		squirrel.LtOrEq{"start_date": d},
		squirrel.GtOrEq{"end_date": d},
	}, d, false)
}

func (r *FinanceRepo) ListYears(ctx context.Context) ([]*finance.Year, error) {
	sql, args, err := r.builder.Select(r.yearCols...).From(yearsTable).OrderBy("start_date").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []*finance.Year
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list financial years: %w", err)
	}
	return out, nil
}

func (r *FinanceRepo) DeactivateAll(ctx context.Context) error {
	_, err := r.exec(ctx, r.builder.Update(yearsTable).
		Set("is_active", false).
		Where(squirrel.Eq{"is_active": true}), "deactivate financial years")
	return err
}

// ActivateYear relies on the single-active partial index: a concurrent
// activation that slipped in after DeactivateAll fails with a conflict.
func (r *FinanceRepo) ActivateYear(ctx context.Context, yearID id.ID) (bool, error) {
	n, err := r.exec(ctx, r.builder.Update(yearsTable).
		Set("is_active", true).
		Where(squirrel.Eq{"id": yearID, "is_closed": false}), "activate financial year")
	if postgres.IsUniqueViolation(err, postgres.ConstraintSingleActiveYear) {
		return false, apperror.NewConflict("another financial year is already active")
	}
	return n == 1, err
}

func (r *FinanceRepo) MarkClosed(ctx context.Context, yearID id.ID) error {
	n, err := r.exec(ctx, r.builder.Update(yearsTable).
		Set("is_closed", true).
		Set("is_active", false).
		Where(squirrel.Eq{"id": yearID}), "close financial year")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("financial year", yearID)
	}
	return nil
}

func (r *FinanceRepo) CreateTerm(ctx context.Context, t *finance.Term) error {
	cols, values := postgres.Columns(postgres.StructToMap(t), r.termCols)
	_, err := r.exec(ctx, r.builder.Insert(termsTable).Columns(cols...).Values(values...), "insert payment term")
	return err
}

func (r *FinanceRepo) GetTerm(ctx context.Context, termID id.ID) (*finance.Term, error) {
	sql, args, err := r.builder.Select(r.termCols...).From(termsTable).Where(squirrel.Eq{"id": termID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var t finance.Term
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("payment term", termID)
		}
		return nil, fmt.Errorf("get payment term: %w", err)
	}
	return &t, nil
}

func (r *FinanceRepo) ListTerms(ctx context.Context) ([]*finance.Term, error) {
	sql, args, err := r.builder.Select(r.termCols...).From(termsTable).OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []*finance.Term
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list payment terms: %w", err)
	}
	return out, nil
}

func (r *FinanceRepo) CreateSchedules(ctx context.Context, schedules []finance.Schedule) error {
	rows := make([][]any, 0, len(schedules))
	for _, sc := range schedules {
		rows = append(rows, []any{
			sc.ID, sc.DocumentType, sc.DocumentID, sc.InstallmentNo,
			sc.DueDate, postgres.Numeric(sc.Amount), string(sc.Status), sc.VoucherID,
		})
	}
	return r.inserter.Copy(ctx, schedulesTable, r.scheduleCol, rows)
}

func (r *FinanceRepo) ListSchedules(ctx context.Context, documentType string, documentID id.ID) ([]finance.Schedule, error) {
	sql, args, err := r.builder.Select(r.scheduleCol...).From(schedulesTable).
		Where(squirrel.Eq{"document_type": documentType, "document_id": documentID}).
		OrderBy("installment_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []finance.Schedule
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list payment schedules: %w", err)
	}
	return out, nil
}

func (r *FinanceRepo) GetScheduleForUpdate(ctx context.Context, scheduleID id.ID) (*finance.Schedule, error) {
	sql, args, err := r.builder.Select(r.scheduleCol...).From(schedulesTable).
		Where(squirrel.Eq{"id": scheduleID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var sc finance.Schedule
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &sc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("payment schedule", scheduleID)
		}
		return nil, fmt.Errorf("get payment schedule: %w", err)
	}
	return &sc, nil
}

func (r *FinanceRepo) MarkSchedulePaid(ctx context.Context, scheduleID, voucherID id.ID) (bool, error) {
	n, err := r.exec(ctx, r.builder.Update(schedulesTable).
		Set("status", finance.SchedulePaid).
		Set("voucher_id", voucherID).
		Where(squirrel.Eq{"id": scheduleID, "status": finance.SchedulePending}), "mark schedule paid")
	return n == 1, err
}
