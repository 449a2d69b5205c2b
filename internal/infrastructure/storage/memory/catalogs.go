package memory

import (
	"context"
	"sort"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/catalogs/party"
	"erpcore/internal/domain/catalogs/warehouse"
)

// PartyRepo implements party.Repository.
type PartyRepo struct{ s *Store }

var _ party.Repository = (*PartyRepo)(nil)

func (r *PartyRepo) Create(ctx context.Context, p *party.Party) error {
	return r.s.write(ctx, func(st *state) error {
		st.parties[p.ID] = *p
		return nil
	})
}

func (r *PartyRepo) GetByID(ctx context.Context, partyID id.ID) (*party.Party, error) {
	var out *party.Party
	err := r.s.read(ctx, func(st *state) error {
		p, ok := st.parties[partyID]
		if !ok {
			return apperror.NewNotFound("party", partyID)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *PartyRepo) GetForUpdate(ctx context.Context, partyID id.ID) (*party.Party, error) {
	return r.GetByID(ctx, partyID)
}

func (r *PartyRepo) AddBalance(ctx context.Context, partyID id.ID, delta types.Money) (types.Money, error) {
	var balance types.Money
	err := r.s.write(ctx, func(st *state) error {
		p, ok := st.parties[partyID]
		if !ok {
			return apperror.NewNotFound("party", partyID)
		}
		p.CurrentBalance = p.CurrentBalance.Add(delta)
		st.parties[partyID] = p
		balance = p.CurrentBalance
		return nil
	})
	return balance, err
}

func (r *PartyRepo) List(ctx context.Context, t *party.Type) ([]*party.Party, error) {
	var out []*party.Party
	err := r.s.read(ctx, func(st *state) error {
		for _, p := range st.parties {
			if t != nil && p.Type != *t {
				continue
			}
			out = append(out, &p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct{ s *Store }

var _ warehouse.Repository = (*WarehouseRepo)(nil)

func (r *WarehouseRepo) Create(ctx context.Context, w *warehouse.Warehouse) error {
	return r.s.write(ctx, func(st *state) error {
		for _, existing := range st.warehouses {
			if existing.Code == w.Code {
				return apperror.NewDuplicate("warehouse", "code", w.Code)
			}
		}
		st.warehouses[w.ID] = *w
		return nil
	})
}

func (r *WarehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	var out *warehouse.Warehouse
	err := r.s.read(ctx, func(st *state) error {
		w, ok := st.warehouses[warehouseID]
		if !ok {
			return apperror.NewNotFound("warehouse", warehouseID)
		}
		out = &w
		return nil
	})
	return out, err
}

func (r *WarehouseRepo) GetByCode(ctx context.Context, code string) (*warehouse.Warehouse, error) {
	var out *warehouse.Warehouse
	err := r.s.read(ctx, func(st *state) error {
		for _, w := range st.warehouses {
			if w.Code == code {
				out = &w
				return nil
			}
		}
		return apperror.NewNotFound("warehouse", code)
	})
	return out, err
}

func (r *WarehouseRepo) List(ctx context.Context) ([]*warehouse.Warehouse, error) {
	var out []*warehouse.Warehouse
	err := r.s.read(ctx, func(st *state) error {
		for _, w := range st.warehouses {
			out = append(out, &w)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}
