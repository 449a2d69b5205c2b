package memory

import (
	"context"
	"time"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/posting"
	"erpcore/internal/domain/reports"
	"erpcore/internal/domain/vouchers"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct{ s *Store }

var _ reports.Repository = (*ReportRepo)(nil)

func (r *ReportRepo) AccountTurnover(ctx context.Context, from, to time.Time) ([]posting.AccountBalance, error) {
	totals := make(map[id.ID]*posting.AccountBalance)
	var order []id.ID

	err := r.s.read(ctx, func(st *state) error {
		return eachEntry(st, from, to, func(_ vouchers.Voucher, e vouchers.Entry, acc accounts.Account) {
			b, ok := totals[acc.ID]
			if !ok {
				b = &posting.AccountBalance{AccountID: acc.ID, Type: acc.Type, Debit: types.Zero(), Credit: types.Zero()}
				totals[acc.ID] = b
				order = append(order, acc.ID)
			}
			b.Debit = b.Debit.Add(e.Debit)
			b.Credit = b.Credit.Add(e.Credit)
		})
	})
	if err != nil {
		return nil, err
	}

	out := make([]posting.AccountBalance, 0, len(order))
	for _, accountID := range order {
		out = append(out, *totals[accountID])
	}
	return out, nil
}

func (r *ReportRepo) TypeTurnover(ctx context.Context, from, to time.Time, period reports.Period) ([]reports.TypeTurnover, error) {
	type key struct {
		period time.Time
		typ    accounts.Type
	}
	totals := make(map[key]*reports.TypeTurnover)
	var order []key

	err := r.s.read(ctx, func(st *state) error {
		return eachEntry(st, from, to, func(v vouchers.Voucher, e vouchers.Entry, acc accounts.Account) {
			k := key{typ: acc.Type}
			if period != "" {
				k.period = period.Truncate(v.Date)
			}
			t, ok := totals[k]
			if !ok {
				t = &reports.TypeTurnover{Period: k.period, Type: acc.Type, Debit: types.Zero(), Credit: types.Zero()}
				totals[k] = t
				order = append(order, k)
			}
			t.Debit = t.Debit.Add(e.Debit)
			t.Credit = t.Credit.Add(e.Credit)
		})
	})
	if err != nil {
		return nil, err
	}

	out := make([]reports.TypeTurnover, 0, len(order))
	for _, k := range order {
		out = append(out, *totals[k])
	}
	return out, nil
}

// eachEntry visits entries of non-rejected vouchers dated within [from, to].
func eachEntry(st *state, from, to time.Time, fn func(vouchers.Voucher, vouchers.Entry, accounts.Account)) error {
	var lo *time.Time
	if !from.IsZero() {
		lo = &from
	}
	for _, v := range st.vouchers {
		if v.Status == vouchers.StatusRejected || !inRange(v.Date, lo, &to) {
			continue
		}
		for _, e := range v.Entries {
			acc, ok := st.accounts[e.AccountID]
			if !ok {
				continue
			}
			fn(v, e, acc)
		}
	}
	return nil
}
