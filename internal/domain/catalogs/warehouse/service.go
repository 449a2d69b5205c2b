package warehouse

import (
	"context"
	"strings"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/tx"
	"erpcore/internal/domain/accounts"
	"erpcore/pkg/logger"
)

// AccountLookup resolves account codes.
type AccountLookup interface {
	ResolveCode(ctx context.Context, code string) (*accounts.Account, error)
}

// Service provides warehouse operations.
type Service struct {
	repo      Repository
	accounts  AccountLookup
	txManager tx.Manager
}

// NewService creates a new warehouse service.
func NewService(repo Repository, accts AccountLookup, txManager tx.Manager) *Service {
	return &Service{repo: repo, accounts: accts, txManager: txManager}
}

// CreateInput describes a new warehouse. Empty sales, purchase and cash codes
// fall back to the default chart (4001, 5001, 1001).
type CreateInput struct {
	Code               string `json:"code" validate:"required,max=32"`
	Name               string `json:"name" validate:"required,max=200"`
	SalesCode          string `json:"salesAccountCode,omitempty"`
	PurchaseCode       string `json:"purchaseAccountCode,omitempty"`
	SalesReturnCode    string `json:"salesReturnAccountCode,omitempty"`
	PurchaseReturnCode string `json:"purchaseReturnAccountCode,omitempty"`
	CashCode           string `json:"cashAccountCode,omitempty"`
	BankCode           string `json:"bankAccountCode,omitempty"`
}

// Create registers a warehouse, resolving its account defaults.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Warehouse, error) {
	w := &Warehouse{
		ID:        id.New(),
		Code:      strings.TrimSpace(in.Code),
		Name:      strings.TrimSpace(in.Name),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByCode(ctx, w.Code); err == nil {
			return apperror.NewDuplicate("warehouse", "code", w.Code)
		} else if !apperror.IsNotFound(err) {
			return err
		}

		links := []struct {
			code, fallback string
			dst            **id.ID
		}{
			{in.SalesCode, accounts.CodeSalesRevenue, &w.SalesAccountID},
			{in.PurchaseCode, accounts.CodePurchase, &w.PurchaseAccountID},
			{in.SalesReturnCode, "", &w.SalesReturnAccountID},
			{in.PurchaseReturnCode, "", &w.PurchaseReturnAccountID},
			{in.CashCode, accounts.CodeCash, &w.CashAccountID},
			{in.BankCode, "", &w.BankAccountID},
		}
		for _, l := range links {
			code := l.code
			if code == "" {
				code = l.fallback
			}
			if code == "" {
				continue
			}
			acc, err := s.accounts.ResolveCode(ctx, code)
			if err != nil {
				return err
			}
			accountID := acc.ID
			*l.dst = &accountID
		}

		return s.repo.Create(ctx, w)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "warehouse created", "warehouse_id", w.ID, "code", w.Code)
	return w, nil
}

// Get returns a warehouse.
func (s *Service) Get(ctx context.Context, warehouseID id.ID) (*Warehouse, error) {
	return s.repo.GetByID(ctx, warehouseID)
}

// List returns all warehouses.
func (s *Service) List(ctx context.Context) ([]*Warehouse, error) {
	return s.repo.List(ctx)
}
