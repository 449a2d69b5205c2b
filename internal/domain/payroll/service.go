// Package payroll posts salary payments to the ledger.
package payroll

import (
	"context"
	"strings"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/posting"
	"erpcore/internal/domain/vouchers"
	"erpcore/pkg/logger"
)

// Default payroll accounts from the default chart.
const (
	DefaultExpenseCode = accounts.CodeSalaries
	DefaultPaymentCode = accounts.CodeCash
)

// AccountLookup resolves account codes.
type AccountLookup interface {
	ResolveCode(ctx context.Context, code string) (*accounts.Account, error)
}

// VoucherPoster posts the payroll voucher.
type VoucherPoster interface {
	CreateWithEntries(ctx context.Context, in vouchers.CreateInput) (*vouchers.Voucher, error)
}

// Service posts payroll vouchers.
type Service struct {
	accounts AccountLookup
	vouchers VoucherPoster
	now      func() time.Time
}

// NewService creates a new payroll service.
func NewService(accts AccountLookup, poster VoucherPoster) *Service {
	return &Service{
		accounts: accts,
		vouchers: poster,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PayrollInput is one salary payment.
type PayrollInput struct {
	Employee       string                 `json:"employee" validate:"required,max=200"`
	NetSalary      types.Money            `json:"netSalary"`
	ExpenseCode    string                 `json:"expenseCode"`
	PaymentCode    string                 `json:"paymentCode"`
	Date           time.Time              `json:"date"`
	PostingContext finance.PostingContext `json:"-"`
}

// Post debits salary expense and credits the paying account with the net salary.
func (s *Service) Post(ctx context.Context, in PayrollInput) (*vouchers.Voucher, error) {
	if err := in.PostingContext.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Employee) == "" {
		return nil, apperror.NewValidation("employee is required")
	}
	if in.ExpenseCode == "" {
		in.ExpenseCode = DefaultExpenseCode
	}
	if in.PaymentCode == "" {
		in.PaymentCode = DefaultPaymentCode
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}

	expense, err := s.accounts.ResolveCode(ctx, in.ExpenseCode)
	if err != nil {
		return nil, err
	}
	payment, err := s.accounts.ResolveCode(ctx, in.PaymentCode)
	if err != nil {
		return nil, err
	}

	p, err := posting.Payroll(posting.PayrollInput{
		Employee:       strings.TrimSpace(in.Employee),
		NetSalary:      in.NetSalary,
		ExpenseAccount: expense.ID,
		PaymentAccount: payment.ID,
	})
	if err != nil {
		return nil, err
	}

	pc := in.PostingContext
	v, err := s.vouchers.CreateWithEntries(ctx, vouchers.CreateInput{
		Type:            p.Type,
		Date:            in.Date,
		Narration:       p.Narration,
		Entries:         p.Entries,
		CreatedBy:       pc.Actor,
		BranchID:        pc.BranchID,
		FinancialYearID: &pc.FinancialYearID,
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payroll posted", "employee", in.Employee, "voucher", v.Number, "amount", v.Amount.StringFixed(2))
	return v, nil
}
