package accounts

import (
	"context"
	"fmt"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/tx"
	"erpcore/pkg/logger"
)

// Service provides chart of accounts operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new accounts service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// CreateInput describes a new account.
type CreateInput struct {
	Code       string `json:"code" validate:"required,max=32"`
	Name       string `json:"name" validate:"required,max=200"`
	Type       Type   `json:"type" validate:"required,oneof=ASSET LIABILITY INCOME EXPENSE EQUITY"`
	ParentCode string `json:"parentCode,omitempty"`
}

// Create adds an account. Codes are unique.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Account, error) {
	acc := NewAccount(in.Code, in.Name, in.Type)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if in.ParentCode != "" {
			parent, err := s.repo.GetByCode(ctx, in.ParentCode)
			if err != nil {
				return err
			}
			acc.ParentID = &parent.ID
		}
		if err := acc.Validate(); err != nil {
			return err
		}

		if _, err := s.repo.GetByCode(ctx, acc.Code); err == nil {
			return apperror.NewDuplicate("account", "code", acc.Code)
		} else if !apperror.IsNotFound(err) {
			return err
		}

		return s.repo.Create(ctx, acc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "account created", "code", acc.Code, "type", acc.Type)
	return acc, nil
}

// GetByID returns an account by id.
func (s *Service) GetByID(ctx context.Context, accountID id.ID) (*Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

// GetByCode returns an account by code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Account, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns accounts matching filter ordered by code.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Account, error) {
	return s.repo.List(ctx, filter)
}

// GetOrCreate returns the account with code, creating it when absent.
// An existing account is returned as is, even if its name or type differ.
func (s *Service) GetOrCreate(ctx context.Context, code, name string, t Type) (*Account, error) {
	var acc *Account
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByCode(ctx, code)
		if err == nil {
			acc = existing
			return nil
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		acc = NewAccount(code, name, t)
		if err := acc.Validate(); err != nil {
			return err
		}
		return s.repo.Create(ctx, acc)
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// ResolveActive loads the accounts referenced by a posting.
// The first unknown or inactive id fails with ACCOUNT_NOT_FOUND.
func (s *Service) ResolveActive(ctx context.Context, ids []id.ID) (map[id.ID]*Account, error) {
	unique := make([]id.ID, 0, len(ids))
	seen := make(map[id.ID]struct{}, len(ids))
	for _, accountID := range ids {
		if _, ok := seen[accountID]; ok {
			continue
		}
		seen[accountID] = struct{}{}
		unique = append(unique, accountID)
	}

	found, err := s.repo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	byID := make(map[id.ID]*Account, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	for _, accountID := range unique {
		a, ok := byID[accountID]
		if !ok || !a.IsActive {
			return nil, apperror.NewAccountNotFound(accountID.String())
		}
	}
	return byID, nil
}

// ResolveCode returns the active account with code or ACCOUNT_NOT_FOUND.
func (s *Service) ResolveCode(ctx context.Context, code string) (*Account, error) {
	acc, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewAccountNotFound(code)
		}
		return nil, err
	}
	if !acc.IsActive {
		return nil, apperror.NewAccountNotFound(code)
	}
	return acc, nil
}

// EnsureDefaults seeds DefaultChart. Existing codes are left untouched.
func (s *Service) EnsureDefaults(ctx context.Context) (created int, err error) {
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, d := range DefaultChart {
			_, err := s.repo.GetByCode(ctx, d.Code)
			if err == nil {
				continue
			}
			if !apperror.IsNotFound(err) {
				return err
			}
			if err := s.repo.Create(ctx, NewAccount(d.Code, d.Name, d.Type)); err != nil {
				return fmt.Errorf("seed account %s: %w", d.Code, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		logger.Info(ctx, "default chart of accounts seeded", "created", created)
	}
	return created, nil
}
