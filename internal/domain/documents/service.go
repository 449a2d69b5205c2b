package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/numerator"
	"erpcore/internal/core/tx"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/catalogs/party"
	"erpcore/internal/domain/catalogs/warehouse"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/posting"
	"erpcore/internal/domain/stock"
	"erpcore/internal/domain/vouchers"
	"erpcore/pkg/logger"
)

var tracer = otel.Tracer("erpcore/documents")

// StockLedger moves stock on confirmation.
type StockLedger interface {
	StockIn(ctx context.Context, in stock.StockInInput) (*stock.Batch, error)
	StockOut(ctx context.Context, productID id.ID, qty int64, reason string, opts stock.OutOptions) (*stock.Batch, error)
	StockReturn(ctx context.Context, productID id.ID, qty int64, batchNumber, reason string, src *stock.Source) (*stock.Batch, error)
}

// VoucherPoster posts the document voucher.
type VoucherPoster interface {
	CreateWithEntries(ctx context.Context, in vouchers.CreateInput) (*vouchers.Voucher, error)
}

// PartyLedger reads parties and moves their running balance.
type PartyLedger interface {
	Get(ctx context.Context, partyID id.ID) (*party.Party, error)
	AdjustBalance(ctx context.Context, partyID id.ID, delta types.Money) (types.Money, error)
}

// WarehouseLookup reads warehouses.
type WarehouseLookup interface {
	Get(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error)
}

// Scheduler splits an invoice's outstanding amount into installments.
type Scheduler interface {
	Term(ctx context.Context, termID id.ID) (*finance.Term, error)
	ScheduleDocument(ctx context.Context, termID id.ID, documentType string, documentID id.ID, date time.Time, outstanding types.Money) ([]finance.Schedule, error)
	ScheduleForUpdate(ctx context.Context, scheduleID id.ID) (*finance.Schedule, error)
	MarkSchedulePaid(ctx context.Context, scheduleID, voucherID id.ID) error
}

// Deps groups the collaborators of Service.
type Deps struct {
	Repo       Repository
	Stock      StockLedger
	Vouchers   VoucherPoster
	Parties    PartyLedger
	Warehouses WarehouseLookup
	Schedules  Scheduler
	Accounts   *AccountResolver
	Numerator  numerator.Generator
	TxManager  tx.Manager
}

// Service creates documents and confirms them into stock, vouchers and
// party balances.
type Service struct {
	repo       Repository
	stock      StockLedger
	vouchers   VoucherPoster
	parties    PartyLedger
	warehouses WarehouseLookup
	schedules  Scheduler
	accounts   *AccountResolver
	numerator  numerator.Generator
	txManager  tx.Manager
	now        func() time.Time
}

// NewService creates a new documents service.
func NewService(d Deps) *Service {
	return &Service{
		repo:       d.Repo,
		stock:      d.Stock,
		vouchers:   d.Vouchers,
		parties:    d.Parties,
		warehouses: d.Warehouses,
		schedules:  d.Schedules,
		accounts:   d.Accounts,
		numerator:  d.Numerator,
		txManager:  d.TxManager,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// LineInput is one submitted document line.
type LineInput struct {
	ProductID     id.ID       `json:"productId" validate:"required"`
	BatchNumber   string      `json:"batchNumber" validate:"max=64"`
	Quantity      int64       `json:"quantity" validate:"gt=0"`
	BonusQuantity int64       `json:"bonusQuantity" validate:"gte=0"`
	UnitPrice     types.Money `json:"unitPrice"`
	SalePrice     types.Money `json:"salePrice"`
	ExpiryDate    *time.Time  `json:"expiryDate"`
}

// CreateInput is a draft document.
type CreateInput struct {
	Kind          Kind                  `json:"-"`
	Date          time.Time             `json:"date"`
	PartyID       id.ID                 `json:"partyId" validate:"required"`
	WarehouseID   id.ID                 `json:"warehouseId" validate:"required"`
	PaymentMethod posting.PaymentMethod `json:"paymentMethod" validate:"required,oneof=CASH CREDIT"`
	PaidAmount    types.Money           `json:"paidAmount"`
	Discount      types.Money           `json:"discount"`
	Tax           types.Money           `json:"tax"`
	PaymentTermID *id.ID                `json:"paymentTermId"`
	OriginalID    *id.ID                `json:"originalId"`
	Notes         string                `json:"notes"`
	Lines         []LineInput           `json:"lines" validate:"required,min=1,dive"`
	CreatedBy     string                `json:"-"`
	BranchID      *string               `json:"-"`
}

// Create stores a draft document. Nothing moves until it is confirmed.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Document, error) {
	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	doc := &Document{
		ID:            id.New(),
		Kind:          in.Kind,
		Date:          date,
		PartyID:       in.PartyID,
		WarehouseID:   in.WarehouseID,
		PaymentMethod: in.PaymentMethod,
		PaidAmount:    types.Round(in.PaidAmount),
		Discount:      types.Round(in.Discount),
		Tax:           types.Round(in.Tax),
		PaymentTermID: in.PaymentTermID,
		BranchID:      in.BranchID,
		OriginalID:    in.OriginalID,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedBy:     in.CreatedBy,
		CreatedAt:     s.now(),
	}
	for i, l := range in.Lines {
		doc.Lines = append(doc.Lines, Line{
			ID:            id.New(),
			DocumentID:    doc.ID,
			LineNo:        i + 1,
			ProductID:     l.ProductID,
			BatchNumber:   strings.TrimSpace(l.BatchNumber),
			Quantity:      l.Quantity,
			BonusQuantity: l.BonusQuantity,
			UnitPrice:     l.UnitPrice,
			SalePrice:     l.SalePrice,
			ExpiryDate:    l.ExpiryDate,
		})
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.parties.Get(ctx, doc.PartyID)
		if err != nil {
			return err
		}
		if p.Type != doc.Kind.PartyType() {
			return apperror.NewValidation(fmt.Sprintf("%s requires a %s party", doc.Kind.Title(), doc.Kind.PartyType())).
				WithDetail("party_type", string(p.Type))
		}
		if _, err := s.warehouses.Get(ctx, doc.WarehouseID); err != nil {
			return err
		}
		if doc.PaymentTermID != nil {
			if _, err := s.schedules.Term(ctx, *doc.PaymentTermID); err != nil {
				return err
			}
		}
		if doc.OriginalID != nil {
			if err := s.checkOriginal(ctx, doc); err != nil {
				return err
			}
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(doc.Kind.Prefix()), doc.Date)
		if err != nil {
			return fmt.Errorf("document number: %w", err)
		}
		doc.Number = number

		return s.repo.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "document created",
		"id", doc.ID,
		"kind", doc.Kind,
		"number", doc.Number,
		"grand_total", doc.GrandTotal().StringFixed(2),
	)
	return doc, nil
}

// checkOriginal ensures a return points at an invoice of the matching kind and party.
func (s *Service) checkOriginal(ctx context.Context, doc *Document) error {
	want := KindSaleInvoice
	switch doc.Kind {
	case KindSaleReturn:
	case KindPurchaseReturn:
		want = KindPurchaseInvoice
	default:
		return apperror.NewValidation("only returns reference an original invoice")
	}

	orig, err := s.repo.GetByID(ctx, *doc.OriginalID)
	if err != nil {
		return err
	}
	if orig.Kind != want || orig.PartyID != doc.PartyID {
		return apperror.NewValidation("original invoice does not match the return").
			WithDetail("original_id", orig.ID)
	}
	return nil
}

// Get returns a document with its lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*Document, error) {
	return s.repo.GetByID(ctx, docID)
}

// GetOfKind returns a document and fails with NOT_FOUND when its kind differs.
func (s *Service) GetOfKind(ctx context.Context, kind Kind, docID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Kind != kind {
		return nil, apperror.NewNotFound(kind.Title(), docID)
	}
	return doc, nil
}

// List returns documents matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}
