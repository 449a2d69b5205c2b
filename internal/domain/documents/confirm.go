package documents

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/catalogs/warehouse"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/posting"
	"erpcore/internal/domain/stock"
	"erpcore/internal/domain/vouchers"
	"erpcore/pkg/logger"
)

// ConfirmSaleInvoice issues stock, posts the SAL voucher and charges the
// customer with the unpaid part.
func (s *Service) ConfirmSaleInvoice(ctx context.Context, docID id.ID, pc finance.PostingContext) (*Document, error) {
	return s.confirm(ctx, KindSaleInvoice, docID, pc)
}

// ConfirmPurchaseInvoice receives stock as new batches, posts the PUR voucher
// and credits the supplier with the unpaid part.
func (s *Service) ConfirmPurchaseInvoice(ctx context.Context, docID id.ID, pc finance.PostingContext) (*Document, error) {
	return s.confirm(ctx, KindPurchaseInvoice, docID, pc)
}

// ConfirmSaleReturn puts stock back into the named batches and posts the SRN voucher.
func (s *Service) ConfirmSaleReturn(ctx context.Context, docID id.ID, pc finance.PostingContext) (*Document, error) {
	return s.confirm(ctx, KindSaleReturn, docID, pc)
}

// ConfirmPurchaseReturn issues stock back to the supplier and posts the PRN voucher.
func (s *Service) ConfirmPurchaseReturn(ctx context.Context, docID id.ID, pc finance.PostingContext) (*Document, error) {
	return s.confirm(ctx, KindPurchaseReturn, docID, pc)
}

// Confirm dispatches on the stored kind.
func (s *Service) Confirm(ctx context.Context, kind Kind, docID id.ID, pc finance.PostingContext) (*Document, error) {
	return s.confirm(ctx, kind, docID, pc)
}

// confirm runs the whole side-effect chain in one transaction. A document
// that already has a voucher is returned unchanged, so repeating a confirm
// never posts twice.
func (s *Service) confirm(ctx context.Context, kind Kind, docID id.ID, pc finance.PostingContext) (*Document, error) {
	ctx, span := tracer.Start(ctx, "documents.Confirm", trace.WithAttributes(
		attribute.String("document.kind", string(kind)),
		attribute.String("document.id", docID.String()),
	))
	defer span.End()

	if err := pc.Validate(); err != nil {
		return nil, err
	}

	var (
		doc     *Document
		voucher *vouchers.Voucher
		already bool
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Kind != kind {
			return apperror.NewNotFound(kind.Title(), docID)
		}
		if doc.Confirmed() {
			already = true
			return nil
		}

		wh, err := s.warehouses.Get(ctx, doc.WarehouseID)
		if err != nil {
			return err
		}
		p, err := s.parties.Get(ctx, doc.PartyID)
		if err != nil {
			return err
		}
		accts, err := s.accounts.Resolve(ctx, doc, wh, p)
		if err != nil {
			return err
		}

		post, settlement, err := buildPosting(doc, accts)
		if err != nil {
			return err
		}
		if err := post.Verify(); err != nil {
			return err
		}

		if err := s.moveStock(ctx, doc, wh); err != nil {
			return err
		}

		voucher, err = s.vouchers.CreateWithEntries(ctx, vouchers.CreateInput{
			Type:            post.Type,
			Date:            doc.Date,
			Narration:       post.Narration,
			Entries:         post.Entries,
			CreatedBy:       pc.Actor,
			BranchID:        pc.BranchID,
			FinancialYearID: &pc.FinancialYearID,
		})
		if err != nil {
			return err
		}

		if delta := balanceDelta(doc, settlement); !delta.IsZero() {
			if _, err := s.parties.AdjustBalance(ctx, p.ID, delta); err != nil {
				return err
			}
		}

		if doc.Kind.IsInvoice() && doc.PaymentTermID != nil && settlement.Outstanding.IsPositive() {
			if _, err := s.schedules.ScheduleDocument(ctx, *doc.PaymentTermID, string(doc.Kind), doc.ID, doc.Date, settlement.Outstanding); err != nil {
				return err
			}
		}

		at := s.now()
		ok, err := s.repo.SetVoucher(ctx, doc.ID, voucher.ID, at)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewConflict("document was confirmed concurrently").WithDetail("number", doc.Number)
		}
		doc.VoucherID = &voucher.ID
		doc.ConfirmedAt = &at
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if already {
		logger.Debug(ctx, "document already confirmed", "id", doc.ID, "number", doc.Number)
		return doc, nil
	}
	logger.Info(ctx, "document confirmed",
		"id", doc.ID,
		"kind", doc.Kind,
		"number", doc.Number,
		"voucher", voucher.Number,
		"amount", voucher.Amount.StringFixed(2),
	)
	return doc, nil
}

// buildPosting maps the document onto its posting builder.
func buildPosting(doc *Document, a Accounts) (*posting.Posting, posting.Settlement, error) {
	grand := doc.GrandTotal()
	settlement := posting.Settle(doc.PaymentMethod, grand, doc.PaidAmount)

	var (
		p   *posting.Posting
		err error
	)
	switch doc.Kind {
	case KindSaleInvoice:
		p, err = posting.SaleInvoice(posting.SaleInvoiceInput{
			Reference:         doc.Number,
			GrandTotal:        grand,
			Tax:               doc.Tax,
			Paid:              settlement.Paid,
			SalesAccount:      a.Sales,
			CustomerAccount:   a.Party,
			CashOrBankAccount: a.CashOrBank,
			TaxPayableAccount: a.TaxPayable,
		})
	case KindPurchaseInvoice:
		p, err = posting.PurchaseInvoice(posting.PurchaseInvoiceInput{
			Reference:            doc.Number,
			GrandTotal:           grand,
			Tax:                  doc.Tax,
			Paid:                 settlement.Paid,
			PurchaseAccount:      a.Purchase,
			SupplierAccount:      a.Party,
			CashOrBankAccount:    a.CashOrBank,
			TaxReceivableAccount: a.TaxReceivable,
		})
	case KindSaleReturn:
		p, err = posting.SaleReturn(posting.ReturnInput{
			Reference:         doc.Number,
			Net:               doc.Net(),
			Tax:               doc.Tax,
			Method:            doc.PaymentMethod,
			ReturnAccount:     a.SalesReturn,
			FallbackAccount:   a.Sales,
			PartyAccount:      a.Party,
			CashOrBankAccount: a.CashOrBank,
			TaxAccount:        a.TaxPayable,
		})
	case KindPurchaseReturn:
		p, err = posting.PurchaseReturn(posting.ReturnInput{
			Reference:         doc.Number,
			Net:               doc.Net(),
			Tax:               doc.Tax,
			Method:            doc.PaymentMethod,
			ReturnAccount:     a.PurchaseReturn,
			FallbackAccount:   a.Purchase,
			PartyAccount:      a.Party,
			CashOrBankAccount: a.CashOrBank,
			TaxAccount:        a.TaxReceivable,
		})
	default:
		err = apperror.NewValidation("unknown document kind").WithDetail("kind", string(doc.Kind))
	}
	return p, settlement, err
}

// balanceDelta is the change to the party's running balance. Invoices add the
// unpaid part; credit returns take back the gross amount; cash returns are
// settled at the till and leave the balance alone.
func balanceDelta(doc *Document, s posting.Settlement) types.Money {
	switch doc.Kind {
	case KindSaleInvoice, KindPurchaseInvoice:
		return s.Outstanding
	case KindSaleReturn, KindPurchaseReturn:
		if doc.PaymentMethod == posting.Credit {
			return doc.GrandTotal().Neg()
		}
	}
	return types.Zero()
}

func (s *Service) moveStock(ctx context.Context, doc *Document, wh *warehouse.Warehouse) error {
	src := &stock.Source{Type: string(doc.Kind), ID: doc.ID}
	reason := fmt.Sprintf("%s %s", doc.Kind.Title(), doc.Number)

	for i, l := range doc.Lines {
		var (
			b   *stock.Batch
			err error
		)
		switch doc.Kind {
		case KindSaleInvoice, KindPurchaseReturn:
			b, err = s.stock.StockOut(ctx, l.ProductID, l.StockQuantity(), reason, stock.OutOptions{
				WarehouseID: &wh.ID,
				Source:      src,
			})
		case KindPurchaseInvoice:
			b, err = s.stock.StockIn(ctx, stock.StockInInput{
				ProductID:     l.ProductID,
				WarehouseID:   wh.ID,
				BatchNumber:   l.BatchNumber,
				Quantity:      l.StockQuantity(),
				ExpiryDate:    *l.ExpiryDate,
				PurchasePrice: l.UnitPrice,
				SalePrice:     l.SalePrice,
				Reason:        reason,
				Source:        src,
			})
		case KindSaleReturn:
			b, err = s.stock.StockReturn(ctx, l.ProductID, l.StockQuantity(), l.BatchNumber, reason, src)
		}
		if err != nil {
			return err
		}
		if err := s.repo.SetLineBatch(ctx, l.ID, b.ID); err != nil {
			return err
		}
		doc.Lines[i].BatchID = &b.ID
	}
	return nil
}
