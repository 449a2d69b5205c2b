package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/vouchers"
)

// VoucherRepo implements vouchers.Repository.
type VoucherRepo struct{ s *Store }

var _ vouchers.Repository = (*VoucherRepo)(nil)

func (r *VoucherRepo) EnsureTypes(ctx context.Context, infos []vouchers.TypeInfo) error {
	return r.s.write(ctx, func(st *state) error {
		for _, info := range infos {
			st.voucherTypes[info.Code] = info
		}
		return nil
	})
}

func (r *VoucherRepo) Create(ctx context.Context, v *vouchers.Voucher) error {
	return r.s.write(ctx, func(st *state) error {
		for _, existing := range st.vouchers {
			if existing.Number == v.Number {
				return apperror.NewDuplicate("voucher", "number", v.Number)
			}
		}
		row := *v
		row.Entries = slices.Clone(v.Entries)
		st.vouchers[v.ID] = row
		return nil
	})
}

func (r *VoucherRepo) GetByID(ctx context.Context, voucherID id.ID) (*vouchers.Voucher, error) {
	var out *vouchers.Voucher
	err := r.s.read(ctx, func(st *state) error {
		v, ok := st.vouchers[voucherID]
		if !ok {
			return apperror.NewNotFound("voucher", voucherID)
		}
		v.Entries = slices.Clone(v.Entries)
		out = &v
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock: the transaction already holds the store.
func (r *VoucherRepo) GetForUpdate(ctx context.Context, voucherID id.ID) (*vouchers.Voucher, error) {
	return r.GetByID(ctx, voucherID)
}

func (r *VoucherRepo) UpdateStatus(ctx context.Context, v *vouchers.Voucher, from vouchers.Status) (bool, error) {
	var ok bool
	err := r.s.write(ctx, func(st *state) error {
		row, found := st.vouchers[v.ID]
		if !found || row.Status != from {
			return nil
		}
		row.Status = v.Status
		row.ApprovedBy = v.ApprovedBy
		row.ApprovedAt = v.ApprovedAt
		st.vouchers[v.ID] = row
		ok = true
		return nil
	})
	return ok, err
}

func (r *VoucherRepo) ReplaceEntries(ctx context.Context, voucherID id.ID, amount types.Money, entries []vouchers.Entry) (bool, error) {
	var ok bool
	err := r.s.write(ctx, func(st *state) error {
		row, found := st.vouchers[voucherID]
		if !found || row.Status != vouchers.StatusPending {
			return nil
		}
		row.Amount = amount
		row.Entries = slices.Clone(entries)
		st.vouchers[voucherID] = row
		ok = true
		return nil
	})
	return ok, err
}

func (r *VoucherRepo) List(ctx context.Context, filter vouchers.ListFilter) ([]*vouchers.Voucher, error) {
	var out []*vouchers.Voucher
	err := r.s.read(ctx, func(st *state) error {
		for _, v := range st.vouchers {
			if filter.Type != nil && v.Type != *filter.Type {
				continue
			}
			if filter.Status != nil && v.Status != *filter.Status {
				continue
			}
			if filter.FinancialYearID != nil && (v.FinancialYearID == nil || *v.FinancialYearID != *filter.FinancialYearID) {
				continue
			}
			if !inRange(v.Date, filter.FromDate, filter.ToDate) {
				continue
			}
			v.Entries = nil
			out = append(out, &v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Number < out[j].Number
	})
	return page(out, filter.Offset, filter.Limit), nil
}

func (r *VoucherRepo) LedgerLines(ctx context.Context, accountID id.ID, from, to *time.Time) ([]vouchers.LedgerLine, error) {
	type keyed struct {
		line    vouchers.LedgerLine
		created time.Time
		lineNo  int
	}
	var rows []keyed
	err := r.s.read(ctx, func(st *state) error {
		for _, v := range st.vouchers {
			if v.Status == vouchers.StatusRejected || !inRange(v.Date, from, to) {
				continue
			}
			for _, e := range v.Entries {
				if e.AccountID != accountID {
					continue
				}
				rows = append(rows, keyed{
					line: vouchers.LedgerLine{
						VoucherID:     v.ID,
						VoucherNumber: v.Number,
						VoucherType:   v.Type,
						Date:          v.Date,
						Narration:     v.Narration,
						Remarks:       e.Remarks,
						Debit:         e.Debit,
						Credit:        e.Credit,
					},
					created: v.CreatedAt,
					lineNo:  e.LineNo,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !day(a.line.Date).Equal(day(b.line.Date)) {
			return a.line.Date.Before(b.line.Date)
		}
		if !a.created.Equal(b.created) {
			return a.created.Before(b.created)
		}
		if a.line.VoucherID != b.line.VoucherID {
			return a.line.VoucherNumber < b.line.VoucherNumber
		}
		return a.lineNo < b.lineNo
	})
	out := make([]vouchers.LedgerLine, len(rows))
	for i, row := range rows {
		out[i] = row.line
	}
	return out, nil
}

func (r *VoucherRepo) Turnover(ctx context.Context, accountID id.ID, before time.Time) (types.Money, types.Money, error) {
	debit, credit := types.Zero(), types.Zero()
	err := r.s.read(ctx, func(st *state) error {
		for _, v := range st.vouchers {
			if v.Status == vouchers.StatusRejected || !day(v.Date).Before(day(before)) {
				continue
			}
			for _, e := range v.Entries {
				if e.AccountID == accountID {
					debit = debit.Add(e.Debit)
					credit = credit.Add(e.Credit)
				}
			}
		}
		return nil
	})
	return debit, credit, err
}

// day truncates t to its UTC calendar day.
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// inRange reports whether the day of t falls within the optional inclusive bounds.
func inRange(t time.Time, from, to *time.Time) bool {
	d := day(t)
	if from != nil && d.Before(day(*from)) {
		return false
	}
	if to != nil && d.After(day(*to)) {
		return false
	}
	return true
}

func page[T any](rows []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
