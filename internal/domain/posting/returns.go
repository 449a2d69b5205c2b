package posting

import (
	"fmt"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/vouchers"
)

// ReturnInput carries a sale or purchase return.
// Net excludes tax; the party or cash leg carries Net + Tax.
type ReturnInput struct {
	Reference string
	Net       types.Money
	Tax       types.Money
	Method    PaymentMethod

	// ReturnAccount is the sales-return or purchase-return account.
	// When unset, FallbackAccount (sales or purchase) is used.
	ReturnAccount     id.ID
	FallbackAccount   id.ID
	PartyAccount      id.ID
	CashOrBankAccount id.ID
	TaxAccount        id.ID
}

// Gross is the amount refunded or netted against the party.
func (in ReturnInput) Gross() types.Money {
	return types.Round(in.Net.Add(in.Tax))
}

func (in ReturnInput) returnAccount() id.ID {
	if !id.IsNil(in.ReturnAccount) {
		return in.ReturnAccount
	}
	return in.FallbackAccount
}

// counterAccount picks the leg that settles the return.
func (in ReturnInput) counterAccount() (id.ID, error) {
	switch in.Method {
	case Cash:
		return in.CashOrBankAccount, requireAccount(in.CashOrBankAccount, "cash_or_bank")
	case Credit:
		return in.PartyAccount, requireAccount(in.PartyAccount, "party")
	default:
		return id.Nil(), apperror.NewValidation("unknown payment method").WithDetail("method", string(in.Method))
	}
}

func (in ReturnInput) validate(returnRole string) error {
	if err := nonNegative("amount", in.Net, in.Tax); err != nil {
		return err
	}
	if err := requireAccount(in.returnAccount(), returnRole); err != nil {
		return err
	}
	if in.Tax.IsPositive() {
		return requireAccount(in.TaxAccount, "tax")
	}
	return nil
}

// SaleReturn reverses a sale: debit sales return and tax payable, credit the
// customer (Credit) or refund from cash (Cash).
func SaleReturn(in ReturnInput) (*Posting, error) {
	if err := in.validate("sales_return"); err != nil {
		return nil, err
	}
	counter, err := in.counterAccount()
	if err != nil {
		return nil, err
	}

	p := newPosting(vouchers.TypeSaleReturn, fmt.Sprintf("Auto-voucher for Sale Return %s", in.Reference))
	p.Debit(in.returnAccount(), in.Net, "Sales return")
	p.Debit(in.TaxAccount, in.Tax, "Tax payable reversal")
	p.Credit(counter, in.Gross(), refundRemarks(in.Method))
	return done(p)
}

// PurchaseReturn reverses a purchase: credit purchase return and tax
// receivable, debit the supplier (Credit) or receive a cash refund (Cash).
func PurchaseReturn(in ReturnInput) (*Posting, error) {
	if err := in.validate("purchase_return"); err != nil {
		return nil, err
	}
	counter, err := in.counterAccount()
	if err != nil {
		return nil, err
	}

	p := newPosting(vouchers.TypePurchaseReturn, fmt.Sprintf("Auto-voucher for Purchase Return %s", in.Reference))
	p.Debit(counter, in.Gross(), refundRemarks(in.Method))
	p.Credit(in.returnAccount(), in.Net, "Purchase return")
	p.Credit(in.TaxAccount, in.Tax, "Tax receivable reversal")
	return done(p)
}

func refundRemarks(m PaymentMethod) string {
	if m == Cash {
		return "Refund"
	}
	return "Party adjustment"
}
