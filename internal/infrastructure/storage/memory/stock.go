package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/stock"
)

// StockRepo implements stock.Repository.
type StockRepo struct{ s *Store }

var _ stock.Repository = (*StockRepo)(nil)

func (r *StockRepo) CreateBatch(ctx context.Context, b *stock.Batch) error {
	return r.s.write(ctx, func(st *state) error {
		for _, existing := range st.batches {
			if existing.ProductID == b.ProductID && existing.BatchNumber == b.BatchNumber {
				return apperror.NewDuplicateBatch(b.ProductID.String(), b.BatchNumber)
			}
		}
		if b.Quantity < 0 {
			return fmt.Errorf("batch %s: quantity must not be negative", b.BatchNumber)
		}
		st.batches[b.ID] = *b
		return nil
	})
}

func (r *StockRepo) GetBatch(ctx context.Context, batchID id.ID) (*stock.Batch, error) {
	var out *stock.Batch
	err := r.s.read(ctx, func(st *state) error {
		b, ok := st.batches[batchID]
		if !ok {
			return apperror.NewNotFound("batch", batchID)
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *StockRepo) GetBatchForUpdate(ctx context.Context, batchID id.ID) (*stock.Batch, error) {
	return r.GetBatch(ctx, batchID)
}

func (r *StockRepo) GetBatchByNumber(ctx context.Context, productID id.ID, batchNumber string, _ bool) (*stock.Batch, error) {
	batchNumber = strings.TrimSpace(batchNumber)
	var out *stock.Batch
	err := r.s.read(ctx, func(st *state) error {
		for _, b := range st.batches {
			if b.ProductID == productID && b.BatchNumber == batchNumber {
				out = &b
				return nil
			}
		}
		return apperror.NewNotFound("batch", batchNumber)
	})
	return out, err
}

func (r *StockRepo) PickForIssue(ctx context.Context, productID id.ID, qty int64, warehouseID *id.ID) (*stock.Batch, error) {
	var out *stock.Batch
	err := r.s.read(ctx, func(st *state) error {
		for _, b := range sortedBatches(st, stock.BatchFilter{ProductID: &productID, WarehouseID: warehouseID}) {
			if b.Quantity >= qty {
				out = b
				return nil
			}
		}
		return apperror.NewNotFound("batch", productID)
	})
	return out, err
}

func (r *StockRepo) MaxAvailable(ctx context.Context, productID id.ID, warehouseID *id.ID) (int64, error) {
	var largest int64
	err := r.s.read(ctx, func(st *state) error {
		for _, b := range sortedBatches(st, stock.BatchFilter{ProductID: &productID, WarehouseID: warehouseID}) {
			if b.Quantity > largest {
				largest = b.Quantity
			}
		}
		return nil
	})
	return largest, err
}

func (r *StockRepo) Decrement(ctx context.Context, batchID id.ID, qty int64) (bool, error) {
	var ok bool
	err := r.s.write(ctx, func(st *state) error {
		b, found := st.batches[batchID]
		if !found || b.Quantity < qty {
			return nil
		}
		b.Quantity -= qty
		st.batches[batchID] = b
		ok = true
		return nil
	})
	return ok, err
}

func (r *StockRepo) Increment(ctx context.Context, batchID id.ID, qty int64) error {
	return r.s.write(ctx, func(st *state) error {
		b, found := st.batches[batchID]
		if !found {
			return apperror.NewNotFound("batch", batchID)
		}
		b.Quantity += qty
		st.batches[batchID] = b
		return nil
	})
}

func (r *StockRepo) SetQuantity(ctx context.Context, batchID id.ID, qty int64) error {
	return r.s.write(ctx, func(st *state) error {
		b, found := st.batches[batchID]
		if !found {
			return apperror.NewNotFound("batch", batchID)
		}
		if qty < 0 {
			return fmt.Errorf("batch %s: quantity must not be negative", b.BatchNumber)
		}
		b.Quantity = qty
		st.batches[batchID] = b
		return nil
	})
}

func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	return r.s.write(ctx, func(st *state) error {
		st.movements = append(st.movements, movements...)
		return nil
	})
}

func (r *StockRepo) ListBatches(ctx context.Context, filter stock.BatchFilter) ([]*stock.Batch, error) {
	var out []*stock.Batch
	err := r.s.read(ctx, func(st *state) error {
		out = sortedBatches(st, filter)
		return nil
	})
	return out, err
}

func (r *StockRepo) ListMovements(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error) {
	var out []stock.Movement
	err := r.s.read(ctx, func(st *state) error {
		for _, mv := range st.movements {
			if filter.BatchID != nil && mv.BatchID != *filter.BatchID {
				continue
			}
			if filter.ProductID != nil && mv.ProductID != *filter.ProductID {
				continue
			}
			if filter.Type != nil && mv.Type != *filter.Type {
				continue
			}
			if !inRange(mv.CreatedAt, filter.FromDate, filter.ToDate) {
				continue
			}
			out = append(out, mv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page(out, 0, filter.Limit), nil
}

func (r *StockRepo) MovementTotals(ctx context.Context, batchID id.ID) (int64, int, error) {
	var (
		sum  int64
		rows int
	)
	err := r.s.read(ctx, func(st *state) error {
		for _, mv := range st.movements {
			if mv.BatchID == batchID {
				sum += mv.Quantity
				rows++
			}
		}
		return nil
	})
	return sum, rows, err
}

func (r *StockRepo) Levels(ctx context.Context, warehouseID *id.ID) ([]stock.Level, error) {
	type key struct{ product, warehouse id.ID }
	levels := make(map[key]*stock.Level)
	var order []key

	err := r.s.read(ctx, func(st *state) error {
		for _, b := range sortedBatches(st, stock.BatchFilter{WarehouseID: warehouseID, NonEmpty: true}) {
			k := key{b.ProductID, b.WarehouseID}
			lvl, ok := levels[k]
			if !ok {
				lvl = &stock.Level{ProductID: b.ProductID, WarehouseID: b.WarehouseID, Value: types.Zero()}
				levels[k] = lvl
				order = append(order, k)
			}
			lvl.Quantity += b.Quantity
			lvl.Value = lvl.Value.Add(b.PurchasePrice.Mul(decimal.NewFromInt(b.Quantity)))
			lvl.Batches++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]stock.Level, 0, len(order))
	for _, k := range order {
		lvl := *levels[k]
		lvl.Value = types.Round(lvl.Value)
		out = append(out, lvl)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return id.Less(out[i].ProductID, out[j].ProductID)
		}
		return id.Less(out[i].WarehouseID, out[j].WarehouseID)
	})
	return out, nil
}

// sortedBatches filters batches and orders them by expiry, then creation, then id.
func sortedBatches(st *state, filter stock.BatchFilter) []*stock.Batch {
	var out []*stock.Batch
	for _, b := range st.batches {
		if filter.ProductID != nil && b.ProductID != *filter.ProductID {
			continue
		}
		if filter.WarehouseID != nil && b.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.ExpiresBefore != nil && !b.ExpiryDate.Before(*filter.ExpiresBefore) {
			continue
		}
		if filter.NonEmpty && b.Quantity <= 0 {
			continue
		}
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return id.Less(a.ID, b.ID)
	})
	return out
}
