// Package report_repo provides PostgreSQL aggregates for ledger reports.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"erpcore/internal/domain/posting"
	"erpcore/internal/domain/reports"
	"erpcore/internal/domain/vouchers"
	"erpcore/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// entries joins every entry with its voucher and account, skipping REJECTED
// vouchers and anything dated outside [from, to].
func (r *ReportRepo) entries(q squirrel.SelectBuilder, from, to time.Time) squirrel.SelectBuilder {
	q = q.From("voucher_entries e").
		Join("vouchers v ON v.id = e.voucher_id").
		Join("accounts a ON a.id = e.account_id").
		Where(squirrel.NotEq{"v.status": vouchers.StatusRejected}).
		Where(squirrel.LtOrEq{"v.voucher_date": to.Format(time.DateOnly)})
	if !from.IsZero() {
		q = q.Where(squirrel.GtOrEq{"v.voucher_date": from.Format(time.DateOnly)})
	}
	return q
}

func (r *ReportRepo) AccountTurnover(ctx context.Context, from, to time.Time) ([]posting.AccountBalance, error) {
	q := r.builder.Select(
		"a.id AS account_id",
		"a.account_type AS type",
		"COALESCE(SUM(e.debit), 0) AS debit",
		"COALESCE(SUM(e.credit), 0) AS credit",
	)
	q = r.entries(q, from, to).
		GroupBy("a.id", "a.account_type", "a.code").
		OrderBy("a.code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []posting.AccountBalance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("account turnover: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) TypeTurnover(ctx context.Context, from, to time.Time, period reports.Period) ([]reports.TypeTurnover, error) {
	cols := []string{
		"a.account_type",
		"COALESCE(SUM(e.debit), 0) AS debit",
		"COALESCE(SUM(e.credit), 0) AS credit",
	}
	q := r.builder.Select(cols...)
	if period != "" {
		// The bucket goes first so GROUP BY and ORDER BY can use ordinals.
		q = r.builder.Select().
			Column(squirrel.Expr("date_trunc(?, v.voucher_date::timestamp) AS period", string(period))).
			Columns(cols...)
		q = r.entries(q, from, to).GroupBy("1", "2").OrderBy("1", "2")
	} else {
		q = r.entries(q, from, to).GroupBy("a.account_type").OrderBy("a.account_type")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []reports.TypeTurnover
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("type turnover: %w", err)
	}
	return out, nil
}
