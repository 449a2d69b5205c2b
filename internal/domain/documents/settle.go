package documents

import (
	"context"
	"fmt"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/posting"
	"erpcore/internal/domain/vouchers"
	"erpcore/pkg/logger"
)

// SettleInstallment pays one PENDING installment of a confirmed invoice.
// A sale installment posts a receipt (Dr cash, Cr customer); a purchase
// installment posts a payment (Dr supplier, Cr cash). The party balance drops
// by the installment amount.
func (s *Service) SettleInstallment(ctx context.Context, scheduleID id.ID, pc finance.PostingContext) (*finance.Schedule, error) {
	ctx, span := tracer.Start(ctx, "documents.SettleInstallment")
	defer span.End()

	if err := pc.Validate(); err != nil {
		return nil, err
	}

	var (
		sched   *finance.Schedule
		voucher *vouchers.Voucher
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sched, err = s.schedules.ScheduleForUpdate(ctx, scheduleID)
		if err != nil {
			return err
		}
		if sched.Status != finance.SchedulePending {
			return apperror.NewInvalidTransition("payment schedule", string(sched.Status), string(finance.SchedulePaid))
		}

		doc, err := s.repo.GetByID(ctx, sched.DocumentID)
		if err != nil {
			return err
		}
		wh, err := s.warehouses.Get(ctx, doc.WarehouseID)
		if err != nil {
			return err
		}
		p, err := s.parties.Get(ctx, doc.PartyID)
		if err != nil {
			return err
		}

		in := posting.SimpleInput{
			Amount: sched.Amount,
		}
		switch doc.Kind {
		case KindSaleInvoice:
			in.Type = vouchers.TypeReceipt
			in.Narration = fmt.Sprintf("Receipt for %s installment %d", doc.Number, sched.InstallmentNo)
			in.DebitAccount, in.CreditAccount = wh.CashOrBank(), p.AccountID
		case KindPurchaseInvoice:
			in.Type = vouchers.TypePayment
			in.Narration = fmt.Sprintf("Payment for %s installment %d", doc.Number, sched.InstallmentNo)
			in.DebitAccount, in.CreditAccount = p.AccountID, wh.CashOrBank()
		default:
			return apperror.NewValidation("only invoices have installments").WithDetail("kind", string(doc.Kind))
		}
		if id.IsNil(wh.CashOrBank()) {
			return apperror.NewMissingAccount("cash_or_bank")
		}

		post, err := posting.Simple(in)
		if err != nil {
			return err
		}
		voucher, err = s.vouchers.CreateWithEntries(ctx, vouchers.CreateInput{
			Type:            post.Type,
			Date:            s.now(),
			Narration:       post.Narration,
			Entries:         post.Entries,
			CreatedBy:       pc.Actor,
			BranchID:        pc.BranchID,
			FinancialYearID: &pc.FinancialYearID,
		})
		if err != nil {
			return err
		}

		if _, err := s.parties.AdjustBalance(ctx, p.ID, sched.Amount.Neg()); err != nil {
			return err
		}
		if err := s.schedules.MarkSchedulePaid(ctx, sched.ID, voucher.ID); err != nil {
			return err
		}
		sched.Status = finance.SchedulePaid
		sched.VoucherID = &voucher.ID
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Info(ctx, "installment settled",
		"schedule_id", sched.ID,
		"document_id", sched.DocumentID,
		"voucher", voucher.Number,
		"amount", sched.Amount.StringFixed(2),
	)
	return sched, nil
}
