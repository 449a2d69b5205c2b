package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/infrastructure/storage/postgres"
)

const accountsTable = "accounts"

// AccountRepo implements accounts.Repository.
type AccountRepo struct {
	*BaseCatalogRepo[accounts.Account]
}

var _ accounts.Repository = (*AccountRepo)(nil)

// NewAccountRepo creates a new chart of accounts repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[accounts.Account](txm, accountsTable, "account", "code"),
	}
}

func (r *AccountRepo) Create(ctx context.Context, a *accounts.Account) error {
	if err := r.insert(ctx, a); err != nil {
		if postgres.IsUniqueViolation(err, postgres.ConstraintAccountCode) {
			return apperror.NewDuplicate("account", "code", a.Code)
		}
		return err
	}
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, accountID id.ID) (*accounts.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"id": accountID}, accountID, false)
}

func (r *AccountRepo) GetByCode(ctx context.Context, code string) (*accounts.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code, false)
}

func (r *AccountRepo) GetByIDs(ctx context.Context, ids []id.ID) ([]*accounts.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, squirrel.Eq{"id": ids})
}

func (r *AccountRepo) List(ctx context.Context, filter accounts.ListFilter) ([]*accounts.Account, error) {
	where := squirrel.And{}
	if filter.Type != nil {
		where = append(where, squirrel.Eq{"account_type": *filter.Type})
	}
	if filter.ActiveOnly {
		where = append(where, squirrel.Eq{"is_active": true})
	}
	return r.list(ctx, where)
}
