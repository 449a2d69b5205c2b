package memory

import (
	"context"
	"sort"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/accounts"
)

// AccountRepo implements accounts.Repository.
type AccountRepo struct{ s *Store }

var _ accounts.Repository = (*AccountRepo)(nil)

func (r *AccountRepo) Create(ctx context.Context, a *accounts.Account) error {
	return r.s.write(ctx, func(st *state) error {
		for _, existing := range st.accounts {
			if existing.Code == a.Code {
				return apperror.NewDuplicate("account", "code", a.Code)
			}
		}
		st.accounts[a.ID] = *a
		return nil
	})
}

func (r *AccountRepo) GetByID(ctx context.Context, accountID id.ID) (*accounts.Account, error) {
	var out *accounts.Account
	err := r.s.read(ctx, func(st *state) error {
		a, ok := st.accounts[accountID]
		if !ok {
			return apperror.NewNotFound("account", accountID)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *AccountRepo) GetByCode(ctx context.Context, code string) (*accounts.Account, error) {
	var out *accounts.Account
	err := r.s.read(ctx, func(st *state) error {
		for _, a := range st.accounts {
			if a.Code == code {
				out = &a
				return nil
			}
		}
		return apperror.NewNotFound("account", code)
	})
	return out, err
}

func (r *AccountRepo) GetByIDs(ctx context.Context, ids []id.ID) ([]*accounts.Account, error) {
	var out []*accounts.Account
	err := r.s.read(ctx, func(st *state) error {
		for _, accountID := range ids {
			if a, ok := st.accounts[accountID]; ok {
				out = append(out, &a)
			}
		}
		return nil
	})
	return out, err
}

func (r *AccountRepo) List(ctx context.Context, filter accounts.ListFilter) ([]*accounts.Account, error) {
	var out []*accounts.Account
	err := r.s.read(ctx, func(st *state) error {
		for _, a := range st.accounts {
			if filter.Type != nil && a.Type != *filter.Type {
				continue
			}
			if filter.ActiveOnly && !a.IsActive {
				continue
			}
			out = append(out, &a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}
