package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/catalogs/party"
	"erpcore/internal/infrastructure/storage/postgres"
)

const partiesTable = "parties"

// PartyRepo implements party.Repository.
type PartyRepo struct {
	*BaseCatalogRepo[party.Party]
}

var _ party.Repository = (*PartyRepo)(nil)

// NewPartyRepo creates a new party repository.
func NewPartyRepo(txm *postgres.TxManager) *PartyRepo {
	return &PartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[party.Party](txm, partiesTable, "party", "name, id"),
	}
}

func (r *PartyRepo) Create(ctx context.Context, p *party.Party) error {
	return r.insert(ctx, p)
}

func (r *PartyRepo) GetByID(ctx context.Context, partyID id.ID) (*party.Party, error) {
	return r.getOne(ctx, squirrel.Eq{"id": partyID}, partyID, false)
}

func (r *PartyRepo) GetForUpdate(ctx context.Context, partyID id.ID) (*party.Party, error) {
	return r.getOne(ctx, squirrel.Eq{"id": partyID}, partyID, true)
}

// AddBalance applies delta in a single UPDATE so concurrent confirmations
// never overwrite each other's balance change.
func (r *PartyRepo) AddBalance(ctx context.Context, partyID id.ID, delta types.Money) (types.Money, error) {
	sql, args, err := r.Builder().
		Update(partiesTable).
		Set("current_balance", squirrel.Expr("current_balance + ?", delta)).
		Where(squirrel.Eq{"id": partyID}).
		Suffix("RETURNING current_balance").
		ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build update: %w", err)
	}

	var balance types.Money
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		if pgxNoRows(err) {
			return types.Zero(), apperror.NewNotFound("party", partyID)
		}
		return types.Zero(), fmt.Errorf("add party balance: %w", err)
	}
	return balance, nil
}

func (r *PartyRepo) List(ctx context.Context, t *party.Type) ([]*party.Party, error) {
	if t == nil {
		return r.list(ctx, nil)
	}
	return r.list(ctx, squirrel.Eq{"party_type": *t})
}
