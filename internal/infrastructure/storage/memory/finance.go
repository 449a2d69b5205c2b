package memory

import (
	"context"
	"sort"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/finance"
)

// FinanceRepo implements finance.Repository.
type FinanceRepo struct{ s *Store }

var _ finance.Repository = (*FinanceRepo)(nil)

func (r *FinanceRepo) CreateYear(ctx context.Context, y *finance.Year) error {
	return r.s.write(ctx, func(st *state) error {
		for _, existing := range st.years {
			if existing.Name == y.Name {
				return apperror.NewDuplicate("financial year", "name", y.Name)
			}
			if y.IsActive && existing.IsActive {
				return apperror.NewConflict("another financial year is already active")
			}
		}
		st.years[y.ID] = *y
		return nil
	})
}

func (r *FinanceRepo) GetYear(ctx context.Context, yearID id.ID) (*finance.Year, error) {
	var out *finance.Year
	err := r.s.read(ctx, func(st *state) error {
		y, ok := st.years[yearID]
		if !ok {
			return apperror.NewNotFound("financial year", yearID)
		}
		out = &y
		return nil
	})
	return out, err
}

func (r *FinanceRepo) GetYearForUpdate(ctx context.Context, yearID id.ID) (*finance.Year, error) {
	return r.GetYear(ctx, yearID)
}

func (r *FinanceRepo) GetActiveYear(ctx context.Context) (*finance.Year, error) {
	var out *finance.Year
	err := r.s.read(ctx, func(st *state) error {
		for _, y := range st.years {
			if y.IsActive {
				out = &y
				return nil
			}
		}
		return apperror.NewNotFound("financial year", "active")
	})
	return out, err
}

func (r *FinanceRepo) FindYearContaining(ctx context.Context, date time.Time) (*finance.Year, error) {
	var out *finance.Year
	err := r.s.read(ctx, func(st *state) error {
		for _, y := range st.years {
			if y.Contains(date) {
				out = &y
				return nil
			}
		}
		return apperror.NewNotFound("financial year", date.Format(time.DateOnly))
	})
	return out, err
}

func (r *FinanceRepo) ListYears(ctx context.Context) ([]*finance.Year, error) {
	var out []*finance.Year
	err := r.s.read(ctx, func(st *state) error {
		for _, y := range st.years {
			out = append(out, &y)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, err
}

func (r *FinanceRepo) DeactivateAll(ctx context.Context) error {
	return r.s.write(ctx, func(st *state) error {
		for yearID, y := range st.years {
			if y.IsActive {
				y.IsActive = false
				st.years[yearID] = y
			}
		}
		return nil
	})
}

func (r *FinanceRepo) ActivateYear(ctx context.Context, yearID id.ID) (bool, error) {
	var ok bool
	err := r.s.write(ctx, func(st *state) error {
		y, found := st.years[yearID]
		if !found || y.IsClosed {
			return nil
		}
		for otherID, other := range st.years {
			if otherID != yearID && other.IsActive {
				return apperror.NewConflict("another financial year is already active")
			}
		}
		y.IsActive = true
		st.years[yearID] = y
		ok = true
		return nil
	})
	return ok, err
}

func (r *FinanceRepo) MarkClosed(ctx context.Context, yearID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		y, found := st.years[yearID]
		if !found {
			return apperror.NewNotFound("financial year", yearID)
		}
		y.IsClosed = true
		y.IsActive = false
		st.years[yearID] = y
		return nil
	})
}

func (r *FinanceRepo) CreateTerm(ctx context.Context, t *finance.Term) error {
	return r.s.write(ctx, func(st *state) error {
		st.terms[t.ID] = *t
		return nil
	})
}

func (r *FinanceRepo) GetTerm(ctx context.Context, termID id.ID) (*finance.Term, error) {
	var out *finance.Term
	err := r.s.read(ctx, func(st *state) error {
		t, ok := st.terms[termID]
		if !ok {
			return apperror.NewNotFound("payment term", termID)
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *FinanceRepo) ListTerms(ctx context.Context) ([]*finance.Term, error) {
	var out []*finance.Term
	err := r.s.read(ctx, func(st *state) error {
		for _, t := range st.terms {
			out = append(out, &t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *FinanceRepo) CreateSchedules(ctx context.Context, schedules []finance.Schedule) error {
	return r.s.write(ctx, func(st *state) error {
		st.schedules = append(st.schedules, schedules...)
		return nil
	})
}

func (r *FinanceRepo) ListSchedules(ctx context.Context, documentType string, documentID id.ID) ([]finance.Schedule, error) {
	var out []finance.Schedule
	err := r.s.read(ctx, func(st *state) error {
		for _, sc := range st.schedules {
			if sc.DocumentType == documentType && sc.DocumentID == documentID {
				out = append(out, sc)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].InstallmentNo < out[j].InstallmentNo })
	return out, err
}

func (r *FinanceRepo) GetScheduleForUpdate(ctx context.Context, scheduleID id.ID) (*finance.Schedule, error) {
	var out *finance.Schedule
	err := r.s.read(ctx, func(st *state) error {
		for _, sc := range st.schedules {
			if sc.ID == scheduleID {
				out = &sc
				return nil
			}
		}
		return apperror.NewNotFound("payment schedule", scheduleID)
	})
	return out, err
}

func (r *FinanceRepo) MarkSchedulePaid(ctx context.Context, scheduleID, voucherID id.ID) (bool, error) {
	var ok bool
	err := r.s.write(ctx, func(st *state) error {
		for i := range st.schedules {
			sc := &st.schedules[i]
			if sc.ID != scheduleID || sc.Status != finance.SchedulePending {
				continue
			}
			sc.Status = finance.SchedulePaid
			sc.VoucherID = &voucherID
			ok = true
			return nil
		}
		return nil
	})
	return ok, err
}
