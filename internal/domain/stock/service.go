package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/tx"
	"erpcore/internal/core/types"
	"erpcore/pkg/logger"
)

// DefaultLowStockThreshold is used when no threshold is configured.
const DefaultLowStockThreshold int64 = 5

// Service moves stock in and out of batches and keeps the movement trail.
type Service struct {
	repo              Repository
	txManager         tx.Manager
	lowStockThreshold int64
	now               func() time.Time
}

// NewService creates a new stock ledger service.
// A negative threshold falls back to DefaultLowStockThreshold.
func NewService(repo Repository, txManager tx.Manager, lowStockThreshold int64) *Service {
	if lowStockThreshold < 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &Service{
		repo:              repo,
		txManager:         txManager,
		lowStockThreshold: lowStockThreshold,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// StockInInput describes a new batch receipt.
type StockInInput struct {
	ProductID     id.ID       `json:"productId" validate:"required"`
	WarehouseID   id.ID       `json:"warehouseId" validate:"required"`
	BatchNumber   string      `json:"batchNumber" validate:"required,max=64"`
	Quantity      int64       `json:"quantity" validate:"gt=0"`
	ExpiryDate    time.Time   `json:"expiryDate" validate:"required"`
	PurchasePrice types.Money `json:"purchasePrice"`
	SalePrice     types.Money `json:"salePrice"`
	Reason        string      `json:"reason"`
	Source        *Source     `json:"source,omitempty"`
}

// StockIn creates a batch and records an IN movement.
// Receiving an existing (product, batch number) fails with DUPLICATE_BATCH.
func (s *Service) StockIn(ctx context.Context, in StockInInput) (*Batch, error) {
	in.BatchNumber = strings.TrimSpace(in.BatchNumber)
	if in.BatchNumber == "" {
		return nil, apperror.NewValidation("batch number is required")
	}
	if in.Quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("quantity", in.Quantity)
	}
	if id.IsNil(in.ProductID) || id.IsNil(in.WarehouseID) {
		return nil, apperror.NewValidation("product and warehouse are required")
	}
	if in.PurchasePrice.IsNegative() || in.SalePrice.IsNegative() {
		return nil, apperror.NewValidation("prices must not be negative")
	}

	now := s.now()
	b := &Batch{
		ID:            id.New(),
		ProductID:     in.ProductID,
		WarehouseID:   in.WarehouseID,
		BatchNumber:   in.BatchNumber,
		ExpiryDate:    in.ExpiryDate,
		PurchasePrice: in.PurchasePrice,
		SalePrice:     in.SalePrice,
		Quantity:      in.Quantity,
		CreatedAt:     now,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetBatchByNumber(ctx, in.ProductID, in.BatchNumber, false); err == nil {
			return apperror.NewDuplicateBatch(in.ProductID.String(), in.BatchNumber)
		} else if !apperror.IsNotFound(err) {
			return err
		}

		if err := s.repo.CreateBatch(ctx, b); err != nil {
			return err
		}
		mv := newMovement(b, MovementIn, in.Quantity, in.Reason, in.Source, now)
		return s.repo.CreateMovements(ctx, []Movement{mv})
	})
	if err != nil {
		return nil, err
	}

	if b.IsExpired(now) {
		logger.Warn(ctx, "received batch is already expired",
			"product_id", b.ProductID,
			"batch_number", b.BatchNumber,
			"expiry_date", b.ExpiryDate.Format(time.DateOnly),
		)
	}
	return b, nil
}

// OutOptions narrows and annotates a stock issue.
type OutOptions struct {
	WarehouseID *id.ID
	Source      *Source
}

// StockOut issues qty of productID from the single soonest-expiring batch
// that can cover it and records an OUT movement. The request is never split
// across batches; when no one batch suffices it fails with INSUFFICIENT_STOCK.
func (s *Service) StockOut(ctx context.Context, productID id.ID, qty int64, reason string, opts OutOptions) (*Batch, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("quantity", qty)
	}

	var b *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.issue(ctx, productID, qty, opts.WarehouseID)
		if err != nil {
			return err
		}

		mv := newMovement(b, MovementOut, -qty, reason, opts.Source, s.now())
		return s.repo.CreateMovements(ctx, []Movement{mv})
	})
	if err != nil {
		return nil, err
	}

	if b.Quantity < s.lowStockThreshold {
		logger.Warn(ctx, "low stock",
			"product_id", productID,
			"batch_number", b.BatchNumber,
			"remaining", b.Quantity,
			"threshold", s.lowStockThreshold,
		)
	}
	return b, nil
}

// issueAttempts bounds how often a pick is repeated after a concurrent
// issue took the chosen batch. A locked read under READ COMMITTED may come
// back empty after waiting, and the guarded decrement may miss.
const issueAttempts = 2

// issue picks a covering batch and decrements it, re-picking once when the
// batch was drained between the pick and the decrement.
func (s *Service) issue(ctx context.Context, productID id.ID, qty int64, warehouseID *id.ID) (*Batch, error) {
	for attempt := 1; attempt <= issueAttempts; attempt++ {
		b, err := s.repo.PickForIssue(ctx, productID, qty, warehouseID)
		if apperror.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		ok, err := s.repo.Decrement(ctx, b.ID, qty)
		if err != nil {
			return nil, fmt.Errorf("decrement batch: %w", err)
		}
		if ok {
			b.Quantity -= qty
			return b, nil
		}
		logger.Debug(ctx, "batch drained before decrement, picking again",
			"batch_id", b.ID,
			"attempt", attempt,
		)
	}
	return nil, s.insufficient(ctx, productID, qty, warehouseID)
}

func (s *Service) insufficient(ctx context.Context, productID id.ID, qty int64, warehouseID *id.ID) error {
	available, err := s.repo.MaxAvailable(ctx, productID, warehouseID)
	if err != nil {
		return fmt.Errorf("max available: %w", err)
	}
	return apperror.NewInsufficientStock(productID.String(), qty, available)
}

// StockReturn puts qty back into an existing batch and records an IN movement
// tagged as a return.
func (s *Service) StockReturn(ctx context.Context, productID id.ID, qty int64, batchNumber, reason string, src *Source) (*Batch, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("quantity", qty)
	}

	var b *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.repo.GetBatchByNumber(ctx, productID, batchNumber, true)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewBatchNotFound(productID.String(), batchNumber)
			}
			return err
		}

		if err := s.repo.Increment(ctx, b.ID, qty); err != nil {
			return fmt.Errorf("increment batch: %w", err)
		}
		b.Quantity += qty

		mv := newMovement(b, MovementIn, qty, "Return: "+reason, src, s.now())
		return s.repo.CreateMovements(ctx, []Movement{mv})
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// AuditEntry is one physical count.
type AuditEntry struct {
	BatchID         id.ID `json:"batchId" validate:"required"`
	CountedQuantity int64 `json:"countedQuantity" validate:"gte=0"`
}

// AuditResult reports the variance applied to a batch.
type AuditResult struct {
	BatchID  id.ID `json:"batchId"`
	Previous int64 `json:"previous"`
	Counted  int64 `json:"counted"`
	Variance int64 `json:"variance"`
}

// StockAudit overwrites batch quantities with counted ones and records an
// ADJUST movement carrying each variance. Zero variances are recorded too,
// so every count leaves a trace.
func (s *Service) StockAudit(ctx context.Context, entries []AuditEntry, reason string) ([]AuditResult, error) {
	if len(entries) == 0 {
		return nil, apperror.NewValidation("audit has no entries")
	}
	for i, e := range entries {
		if e.CountedQuantity < 0 {
			return nil, apperror.NewValidation("counted quantity must not be negative").WithDetail("line", i+1)
		}
	}
	if reason == "" {
		reason = "Stock audit"
	}

	results := make([]AuditResult, 0, len(entries))
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		movements := make([]Movement, 0, len(entries))
		for _, e := range entries {
			b, err := s.repo.GetBatchForUpdate(ctx, e.BatchID)
			if err != nil {
				return err
			}

			variance := e.CountedQuantity - b.Quantity
			if err := s.repo.SetQuantity(ctx, b.ID, e.CountedQuantity); err != nil {
				return fmt.Errorf("set batch quantity: %w", err)
			}
			movements = append(movements, newMovement(b, MovementAdjust, variance, reason, nil, now))
			results = append(results, AuditResult{
				BatchID:  b.ID,
				Previous: b.Quantity,
				Counted:  e.CountedQuantity,
				Variance: variance,
			})
		}
		return s.repo.CreateMovements(ctx, movements)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock audit applied", "batches", len(results))
	return results, nil
}

// --- Read model ---

// Batch returns one batch.
func (s *Service) Batch(ctx context.Context, batchID id.ID) (*Batch, error) {
	return s.repo.GetBatch(ctx, batchID)
}

// Batches lists batches ordered by expiry.
func (s *Service) Batches(ctx context.Context, filter BatchFilter) ([]*Batch, error) {
	return s.repo.ListBatches(ctx, filter)
}

// Movements lists the audit trail.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 200
	}
	return s.repo.ListMovements(ctx, filter)
}

// ExpiringBefore lists non-empty batches expiring before date.
func (s *Service) ExpiringBefore(ctx context.Context, date time.Time) ([]*Batch, error) {
	return s.repo.ListBatches(ctx, BatchFilter{ExpiresBefore: &date, NonEmpty: true})
}

// TotalQuantity sums all batches of a product.
func (s *Service) TotalQuantity(ctx context.Context, productID id.ID) (int64, error) {
	batches, err := s.repo.ListBatches(ctx, BatchFilter{ProductID: &productID})
	if err != nil {
		return 0, err
	}
	var total int64
	for _, b := range batches {
		total += b.Quantity
	}
	return total, nil
}

// Levels returns stock levels per product and warehouse.
func (s *Service) Levels(ctx context.Context, warehouseID *id.ID) ([]Level, error) {
	return s.repo.Levels(ctx, warehouseID)
}

// Reconcile checks that a batch quantity equals the sum of its movements.
func (s *Service) Reconcile(ctx context.Context, batchID id.ID) (*Reconciliation, error) {
	b, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	sum, rows, err := s.repo.MovementTotals(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("movement totals: %w", err)
	}
	return &Reconciliation{
		BatchID:      batchID,
		Quantity:     b.Quantity,
		MovementSum:  sum,
		InSync:       sum == b.Quantity,
		MovementRows: rows,
	}, nil
}
