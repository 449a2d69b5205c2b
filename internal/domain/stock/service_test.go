package stock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/stock"
	"erpcore/internal/infrastructure/storage/memory"
)

type fixture struct {
	ctx       context.Context
	svc       *stock.Service
	warehouse id.ID
	product   id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, func(r stock.Repository) stock.Repository { return r })
}

// newFixtureWith lets a test wrap the memory repository.
func newFixtureWith(t *testing.T, wrap func(stock.Repository) stock.Repository) *fixture {
	t.Helper()
	store := memory.New()
	return &fixture{
		ctx:       context.Background(),
		svc:       stock.NewService(wrap(store.Repositories().Stock), store, stock.DefaultLowStockThreshold),
		warehouse: id.New(),
		product:   id.New(),
	}
}

func (f *fixture) in(t *testing.T, batch string, qty int64, expiresIn time.Duration) *stock.Batch {
	t.Helper()
	b, err := f.svc.StockIn(f.ctx, stock.StockInInput{
		ProductID:     f.product,
		WarehouseID:   f.warehouse,
		BatchNumber:   batch,
		Quantity:      qty,
		ExpiryDate:    time.Now().Add(expiresIn),
		PurchasePrice: types.MustMoney("2.50"),
		SalePrice:     types.MustMoney("4"),
		Reason:        "receipt",
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) total(t *testing.T) int64 {
	t.Helper()
	total, err := f.svc.TotalQuantity(f.ctx, f.product)
	require.NoError(t, err)
	return total
}

const day = 24 * time.Hour

func TestStockOut_DecrementsAndRecordsMovement(t *testing.T) {
	f := newFixture(t)
	f.in(t, "B1", 20, 90*day)

	b, err := f.svc.StockOut(f.ctx, f.product, 7, "sale", stock.OutOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 13, b.Quantity)
	assert.EqualValues(t, 13, f.total(t))

	out := stock.MovementOut
	movements, err := f.svc.Movements(f.ctx, stock.MovementFilter{BatchID: &b.ID, Type: &out})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.EqualValues(t, -7, movements[0].Quantity)
	assert.Equal(t, "sale", movements[0].Reason)
}

func TestStockOut_TwiceDecrementsTwice(t *testing.T) {
	f := newFixture(t)
	f.in(t, "B1", 10, 90*day)

	for range 2 {
		_, err := f.svc.StockOut(f.ctx, f.product, 3, "sale", stock.OutOptions{})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 4, f.total(t))
}

func TestStockOut_PicksSoonestExpiringBatchThatCovers(t *testing.T) {
	f := newFixture(t)
	late := f.in(t, "LATE", 50, 300*day)
	small := f.in(t, "SMALL", 2, 10*day)
	soon := f.in(t, "SOON", 10, 30*day)

	b, err := f.svc.StockOut(f.ctx, f.product, 5, "sale", stock.OutOptions{})
	require.NoError(t, err)
	assert.Equal(t, soon.ID, b.ID, "SMALL cannot cover 5 and the request is never split")

	b, err = f.svc.StockOut(f.ctx, f.product, 2, "sale", stock.OutOptions{})
	require.NoError(t, err)
	assert.Equal(t, small.ID, b.ID)

	b, err = f.svc.StockOut(f.ctx, f.product, 6, "sale", stock.OutOptions{})
	require.NoError(t, err)
	assert.Equal(t, late.ID, b.ID)
}

func TestStockOut_Insufficient(t *testing.T) {
	f := newFixture(t)
	f.in(t, "B1", 4, 90*day)
	f.in(t, "B2", 4, 120*day)

	_, err := f.svc.StockOut(f.ctx, f.product, 6, "sale", stock.OutOptions{})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.EqualValues(t, 6, appErr.Details["requested"])
	assert.EqualValues(t, 4, appErr.Details["available"])
	assert.EqualValues(t, 8, f.total(t))
}

func TestStockOut_ConcurrentIssuesNeverOversell(t *testing.T) {
	f := newFixture(t)
	b := f.in(t, "B1", 10, 90*day)

	const workers, each = 8, 3
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		issued       int
		insufficient int
		other        []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.StockOut(f.ctx, f.product, each, "sale", stock.OutOptions{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				issued++
			case apperror.Is(err, apperror.CodeInsufficientStock):
				insufficient++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 10/each, issued)
	assert.Equal(t, workers-10/each, insufficient)

	got, err := f.svc.Batch(f.ctx, b.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.Quantity, int64(0))
	assert.EqualValues(t, 10-issued*each, got.Quantity)

	rec, err := f.svc.Reconcile(f.ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, rec.InSync)
	assert.Equal(t, 1+issued, rec.MovementRows)
}

// racingRepo simulates rival issues landing between StockOut's reads and
// its guarded decrement.
type racingRepo struct {
	stock.Repository
	emptyPicks       int // picks answered NOT_FOUND before delegating
	drainOnDecrement int // decrements that find their batch drained by a rival
}

func (r *racingRepo) PickForIssue(ctx context.Context, productID id.ID, qty int64, warehouseID *id.ID) (*stock.Batch, error) {
	if r.emptyPicks > 0 {
		r.emptyPicks--
		return nil, apperror.NewNotFound("batch", productID)
	}
	return r.Repository.PickForIssue(ctx, productID, qty, warehouseID)
}

func (r *racingRepo) Decrement(ctx context.Context, batchID id.ID, qty int64) (bool, error) {
	if r.drainOnDecrement > 0 {
		r.drainOnDecrement--
		if err := r.Repository.SetQuantity(ctx, batchID, 0); err != nil {
			return false, err
		}
		return false, nil
	}
	return r.Repository.Decrement(ctx, batchID, qty)
}

func TestStockOut_RepicksAfterLosingBatch(t *testing.T) {
	t.Run("guarded decrement misses", func(t *testing.T) {
		race := &racingRepo{drainOnDecrement: 1}
		f := newFixtureWith(t, func(r stock.Repository) stock.Repository {
			race.Repository = r
			return race
		})
		soon := f.in(t, "SOON", 5, 10*day)
		late := f.in(t, "LATE", 5, 90*day)

		b, err := f.svc.StockOut(f.ctx, f.product, 5, "sale", stock.OutOptions{})
		require.NoError(t, err)
		assert.Equal(t, late.ID, b.ID)
		assert.EqualValues(t, 0, b.Quantity)

		drained, err := f.svc.Batch(f.ctx, soon.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, drained.Quantity)
	})

	t.Run("locked read comes back empty", func(t *testing.T) {
		race := &racingRepo{emptyPicks: 1}
		f := newFixtureWith(t, func(r stock.Repository) stock.Repository {
			race.Repository = r
			return race
		})
		f.in(t, "B1", 5, 90*day)

		b, err := f.svc.StockOut(f.ctx, f.product, 2, "sale", stock.OutOptions{})
		require.NoError(t, err)
		assert.EqualValues(t, 3, b.Quantity)
	})

	t.Run("gives up after one retry", func(t *testing.T) {
		race := &racingRepo{drainOnDecrement: 2}
		f := newFixtureWith(t, func(r stock.Repository) stock.Repository {
			race.Repository = r
			return race
		})
		first := f.in(t, "B1", 5, 10*day)
		f.in(t, "B2", 5, 90*day)
		f.in(t, "B3", 5, 120*day)

		_, err := f.svc.StockOut(f.ctx, f.product, 5, "sale", stock.OutOptions{})
		assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))

		// The failed issue rolls back the whole transaction.
		assert.EqualValues(t, 15, f.total(t))
		rec, err := f.svc.Reconcile(f.ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, rec.InSync)
		assert.Equal(t, 1, rec.MovementRows)
	})
}

func TestStockOut_WarehouseFilter(t *testing.T) {
	f := newFixture(t)
	f.in(t, "B1", 10, 90*day)

	other := id.New()
	_, err := f.svc.StockOut(f.ctx, f.product, 1, "transfer", stock.OutOptions{WarehouseID: &other})
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))
}

func TestStockIn_DuplicateBatch(t *testing.T) {
	f := newFixture(t)
	f.in(t, "B1", 10, 90*day)

	_, err := f.svc.StockIn(f.ctx, stock.StockInInput{
		ProductID:   f.product,
		WarehouseID: f.warehouse,
		BatchNumber: "B1",
		Quantity:    5,
		ExpiryDate:  time.Now().Add(day),
	})
	assert.True(t, apperror.Is(err, apperror.CodeDuplicateBatch))
	assert.EqualValues(t, 10, f.total(t))
}

func TestStockReturn(t *testing.T) {
	f := newFixture(t)
	b := f.in(t, "B1", 10, 90*day)
	_, err := f.svc.StockOut(f.ctx, f.product, 4, "sale", stock.OutOptions{})
	require.NoError(t, err)

	returned, err := f.svc.StockReturn(f.ctx, f.product, 2, "B1", "damaged box", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 8, returned.Quantity)

	movements, err := f.svc.Movements(f.ctx, stock.MovementFilter{BatchID: &b.ID})
	require.NoError(t, err)
	require.Len(t, movements, 3)
	assert.Equal(t, "Return: damaged box", movements[2].Reason)
	assert.Equal(t, stock.MovementIn, movements[2].Type)

	_, err = f.svc.StockReturn(f.ctx, f.product, 1, "NOPE", "", nil)
	assert.True(t, apperror.Is(err, apperror.CodeBatchNotFound))
}

func TestStockAudit(t *testing.T) {
	f := newFixture(t)
	a := f.in(t, "A", 10, 90*day)
	b := f.in(t, "B", 5, 90*day)

	results, err := f.svc.StockAudit(f.ctx, []stock.AuditEntry{
		{BatchID: a.ID, CountedQuantity: 7},
		{BatchID: b.ID, CountedQuantity: 5},
	}, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.EqualValues(t, -3, results[0].Variance)
	assert.EqualValues(t, 0, results[1].Variance)

	adjust := stock.MovementAdjust
	movements, err := f.svc.Movements(f.ctx, stock.MovementFilter{ProductID: &f.product, Type: &adjust})
	require.NoError(t, err)
	assert.Len(t, movements, 2)
	assert.EqualValues(t, 12, f.total(t))
}

func TestReconcile_MovementsMatchQuantity(t *testing.T) {
	f := newFixture(t)
	b := f.in(t, "B1", 10, 90*day)
	_, err := f.svc.StockOut(f.ctx, f.product, 3, "sale", stock.OutOptions{})
	require.NoError(t, err)
	_, err = f.svc.StockReturn(f.ctx, f.product, 1, "B1", "", nil)
	require.NoError(t, err)
	_, err = f.svc.StockAudit(f.ctx, []stock.AuditEntry{{BatchID: b.ID, CountedQuantity: 6}}, "count")
	require.NoError(t, err)

	rec, err := f.svc.Reconcile(f.ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, rec.InSync)
	assert.EqualValues(t, 6, rec.Quantity)
	assert.Equal(t, 4, rec.MovementRows)
}

func TestLevelsAndExpiring(t *testing.T) {
	f := newFixture(t)
	f.in(t, "A", 4, 5*day)
	f.in(t, "B", 6, 200*day)

	levels, err := f.svc.Levels(f.ctx, &f.warehouse)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.EqualValues(t, 10, levels[0].Quantity)
	assert.True(t, levels[0].Value.Equal(types.MustMoney("25")))
	assert.Equal(t, 2, levels[0].Batches)

	expiring, err := f.svc.ExpiringBefore(f.ctx, time.Now().Add(30*day))
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "A", expiring[0].BatchNumber)
}
