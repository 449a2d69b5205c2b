package posting

import (
	"fmt"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/vouchers"
)

// Settlement splits an invoice total into the paid and outstanding parts.
type Settlement struct {
	GrandTotal  types.Money
	Paid        types.Money
	Outstanding types.Money
}

// Settle resolves what part of grandTotal is settled now.
// Cash with nothing entered is paid in full. Paid is clamped into
// [0, grandTotal]; change handed back on overpayment is not posted.
func Settle(method PaymentMethod, grandTotal, paid types.Money) Settlement {
	grandTotal = types.Round(grandTotal)
	paid = types.Round(paid)
	if method == Cash && paid.IsZero() {
		paid = grandTotal
	}
	paid = types.Clamp(paid, types.Zero(), grandTotal)
	return Settlement{
		GrandTotal:  grandTotal,
		Paid:        paid,
		Outstanding: grandTotal.Sub(paid),
	}
}

// SaleInvoiceInput carries the amounts and accounts of a sale invoice.
type SaleInvoiceInput struct {
	Reference  string
	GrandTotal types.Money
	Tax        types.Money
	Paid       types.Money

	SalesAccount      id.ID
	CustomerAccount   id.ID
	CashOrBankAccount id.ID
	TaxPayableAccount id.ID
}

// SaleInvoice credits sales with the net amount and tax payable with the tax,
// and debits cash for what was paid and the customer for the rest.
func SaleInvoice(in SaleInvoiceInput) (*Posting, error) {
	if err := invoiceAmounts(in.GrandTotal, in.Tax, in.Paid); err != nil {
		return nil, err
	}
	s := Settle(Credit, in.GrandTotal, in.Paid)
	tax := types.Round(in.Tax)

	if err := requireAccount(in.SalesAccount, "sales"); err != nil {
		return nil, err
	}
	if tax.IsPositive() {
		if err := requireAccount(in.TaxPayableAccount, "tax_payable"); err != nil {
			return nil, err
		}
	}
	if s.Paid.IsPositive() {
		if err := requireAccount(in.CashOrBankAccount, "cash_or_bank"); err != nil {
			return nil, err
		}
	}
	if s.Outstanding.IsPositive() {
		if err := requireAccount(in.CustomerAccount, "customer"); err != nil {
			return nil, err
		}
	}

	p := newPosting(vouchers.TypeSale, fmt.Sprintf("Auto-voucher for Sale Invoice %s", in.Reference))
	p.Debit(in.CashOrBankAccount, s.Paid, "Cash received")
	p.Debit(in.CustomerAccount, s.Outstanding, "Receivable")
	p.Credit(in.SalesAccount, s.GrandTotal.Sub(tax), "Sales")
	p.Credit(in.TaxPayableAccount, tax, "Tax payable")
	return done(p)
}

// PurchaseInvoiceInput carries the amounts and accounts of a purchase invoice.
type PurchaseInvoiceInput struct {
	Reference  string
	GrandTotal types.Money
	Tax        types.Money
	Paid       types.Money

	PurchaseAccount      id.ID
	SupplierAccount      id.ID
	CashOrBankAccount    id.ID
	TaxReceivableAccount id.ID
}

// PurchaseInvoice mirrors SaleInvoice: debit purchase and tax receivable,
// credit cash for what was paid and the supplier for the rest.
func PurchaseInvoice(in PurchaseInvoiceInput) (*Posting, error) {
	if err := invoiceAmounts(in.GrandTotal, in.Tax, in.Paid); err != nil {
		return nil, err
	}
	s := Settle(Credit, in.GrandTotal, in.Paid)
	tax := types.Round(in.Tax)

	if err := requireAccount(in.PurchaseAccount, "purchase"); err != nil {
		return nil, err
	}
	if tax.IsPositive() {
		if err := requireAccount(in.TaxReceivableAccount, "tax_receivable"); err != nil {
			return nil, err
		}
	}
	if s.Paid.IsPositive() {
		if err := requireAccount(in.CashOrBankAccount, "cash_or_bank"); err != nil {
			return nil, err
		}
	}
	if s.Outstanding.IsPositive() {
		if err := requireAccount(in.SupplierAccount, "supplier"); err != nil {
			return nil, err
		}
	}

	p := newPosting(vouchers.TypePurchase, fmt.Sprintf("Auto-voucher for Purchase Invoice %s", in.Reference))
	p.Debit(in.PurchaseAccount, s.GrandTotal.Sub(tax), "Purchase")
	p.Debit(in.TaxReceivableAccount, tax, "Tax receivable")
	p.Credit(in.SupplierAccount, s.Outstanding, "Payable")
	p.Credit(in.CashOrBankAccount, s.Paid, "Cash paid")
	return done(p)
}

func invoiceAmounts(grandTotal, tax, paid types.Money) error {
	if err := nonNegative("amount", grandTotal, tax, paid); err != nil {
		return err
	}
	if tax.GreaterThan(grandTotal) {
		return apperror.NewValidation("tax exceeds grand total").
			WithDetail("tax", tax.String()).
			WithDetail("grand_total", grandTotal.String())
	}
	return nil
}
