package party

import (
	"context"
	"fmt"
	"strings"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/numerator"
	"erpcore/internal/core/tx"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/pkg/logger"
)

// AccountCreator opens the ledger account of a new party.
type AccountCreator interface {
	GetOrCreate(ctx context.Context, code, name string, t accounts.Type) (*accounts.Account, error)
}

// accountCodes numbers party accounts PTY-0001, PTY-0002, ...
var accountCodes = numerator.Config{Prefix: "PTY", PadWidth: 4, ResetPeriod: "never"}

// Service provides party operations.
type Service struct {
	repo      Repository
	accounts  AccountCreator
	numerator numerator.Generator
	txManager tx.Manager
}

// NewService creates a new party service.
func NewService(repo Repository, accts AccountCreator, gen numerator.Generator, txManager tx.Manager) *Service {
	return &Service{repo: repo, accounts: accts, numerator: gen, txManager: txManager}
}

// CreateInput describes a new party.
type CreateInput struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Type  Type    `json:"type" validate:"required,oneof=customer supplier investor"`
	Phone *string `json:"phone,omitempty"`
}

// Create registers a party together with its own ledger account.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Party, error) {
	p := &Party{
		ID:             id.New(),
		Name:           strings.TrimSpace(in.Name),
		Type:           in.Type,
		Phone:          in.Phone,
		CurrentBalance: types.Zero(),
		CreatedAt:      time.Now().UTC(),
	}
	if !p.Type.Valid() {
		return nil, apperror.NewValidation("invalid party type").WithDetail("type", string(p.Type))
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		code, err := s.numerator.GetNextNumber(ctx, accountCodes, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("party account code: %w", err)
		}
		acc, err := s.accounts.GetOrCreate(ctx, code, p.Name, p.Type.AccountType())
		if err != nil {
			return err
		}
		p.AccountID = acc.ID

		if err := p.Validate(); err != nil {
			return err
		}
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "party created", "party_id", p.ID, "type", p.Type)
	return p, nil
}

// Get returns a party.
func (s *Service) Get(ctx context.Context, partyID id.ID) (*Party, error) {
	return s.repo.GetByID(ctx, partyID)
}

// List returns parties, optionally of one type.
func (s *Service) List(ctx context.Context, t *Type) ([]*Party, error) {
	return s.repo.List(ctx, t)
}

// AdjustBalance moves the running balance of a party by delta.
// It must be called inside the transaction that posts the matching voucher;
// nothing else is allowed to change the balance.
func (s *Service) AdjustBalance(ctx context.Context, partyID id.ID, delta types.Money) (types.Money, error) {
	if delta.IsZero() {
		p, err := s.repo.GetByID(ctx, partyID)
		if err != nil {
			return types.Zero(), err
		}
		return p.CurrentBalance, nil
	}

	var balance types.Money
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, partyID); err != nil {
			return err
		}
		var err error
		balance, err = s.repo.AddBalance(ctx, partyID, types.Round(delta))
		return err
	})
	if err != nil {
		return types.Zero(), err
	}
	return balance, nil
}
