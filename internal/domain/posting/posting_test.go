package posting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/vouchers"
)

var (
	sales         = id.New()
	salesReturn   = id.New()
	purchase      = id.New()
	purchaseRet   = id.New()
	customer      = id.New()
	supplier      = id.New()
	cash          = id.New()
	taxPayable    = id.New()
	taxReceivable = id.New()
	equity        = id.New()
)

func m(s string) types.Money { return types.MustMoney(s) }

// line finds the entry for account and returns its debit and credit.
func line(t *testing.T, p *Posting, account id.ID) (types.Money, types.Money) {
	t.Helper()
	for _, e := range p.Entries {
		if e.AccountID == account {
			return e.Debit, e.Credit
		}
	}
	t.Fatalf("no entry for account %s", account)
	return types.Zero(), types.Zero()
}

func assertBalanced(t *testing.T, p *Posting) {
	t.Helper()
	debit, credit := vouchers.Totals(p.Entries)
	assert.True(t, debit.Equal(credit), "debit %s != credit %s", debit, credit)
}

func TestSaleInvoice_CashOverpaymentIsClamped(t *testing.T) {
	p, err := SaleInvoice(SaleInvoiceInput{
		Reference:         "SI-1",
		GrandTotal:        m("100"),
		Tax:               m("10"),
		Paid:              m("110"),
		SalesAccount:      sales,
		CustomerAccount:   customer,
		CashOrBankAccount: cash,
		TaxPayableAccount: taxPayable,
	})
	require.NoError(t, err)

	assert.Len(t, p.Entries, 3)
	assert.Equal(t, vouchers.TypeSale, p.Type)
	d, _ := line(t, p, cash)
	assert.True(t, d.Equal(m("100")))
	_, c := line(t, p, sales)
	assert.True(t, c.Equal(m("90")))
	_, c = line(t, p, taxPayable)
	assert.True(t, c.Equal(m("10")))
	assertBalanced(t, p)
}

func TestSaleInvoice_PartialPayment(t *testing.T) {
	p, err := SaleInvoice(SaleInvoiceInput{
		GrandTotal:        m("250"),
		Tax:               m("25"),
		Paid:              m("100"),
		SalesAccount:      sales,
		CustomerAccount:   customer,
		CashOrBankAccount: cash,
		TaxPayableAccount: taxPayable,
	})
	require.NoError(t, err)

	assert.Len(t, p.Entries, 4)
	d, _ := line(t, p, customer)
	assert.True(t, d.Equal(m("150")))
	d, _ = line(t, p, cash)
	assert.True(t, d.Equal(m("100")))
	assertBalanced(t, p)
}

func TestSaleInvoice_PaidWithoutCashAccount(t *testing.T) {
	_, err := SaleInvoice(SaleInvoiceInput{
		GrandTotal:      m("50"),
		Paid:            m("50"),
		SalesAccount:    sales,
		CustomerAccount: customer,
	})

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeMissingAccount, appErr.Code)
	assert.Equal(t, "cash_or_bank", appErr.Details["role"])
}

func TestSaleInvoice_TaxWithoutTaxAccount(t *testing.T) {
	_, err := SaleInvoice(SaleInvoiceInput{
		GrandTotal:      m("50"),
		Tax:             m("5"),
		SalesAccount:    sales,
		CustomerAccount: customer,
	})

	assert.True(t, apperror.Is(err, apperror.CodeMissingAccount))
}

func TestSaleInvoice_TaxAboveTotal(t *testing.T) {
	_, err := SaleInvoice(SaleInvoiceInput{
		GrandTotal:      m("5"),
		Tax:             m("6"),
		SalesAccount:    sales,
		CustomerAccount: customer,
	})

	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestPurchaseInvoice_Credit(t *testing.T) {
	p, err := PurchaseInvoice(PurchaseInvoiceInput{
		GrandTotal:      m("100"),
		PurchaseAccount: purchase,
		SupplierAccount: supplier,
	})
	require.NoError(t, err)

	assert.Len(t, p.Entries, 2)
	d, _ := line(t, p, purchase)
	assert.True(t, d.Equal(m("100")))
	_, c := line(t, p, supplier)
	assert.True(t, c.Equal(m("100")))
}

func TestPurchaseInvoice_TaxAndPartialPayment(t *testing.T) {
	p, err := PurchaseInvoice(PurchaseInvoiceInput{
		GrandTotal:           m("118"),
		Tax:                  m("18"),
		Paid:                 m("18"),
		PurchaseAccount:      purchase,
		SupplierAccount:      supplier,
		CashOrBankAccount:    cash,
		TaxReceivableAccount: taxReceivable,
	})
	require.NoError(t, err)

	assert.Len(t, p.Entries, 4)
	d, _ := line(t, p, purchase)
	assert.True(t, d.Equal(m("100")))
	d, _ = line(t, p, taxReceivable)
	assert.True(t, d.Equal(m("18")))
	_, c := line(t, p, supplier)
	assert.True(t, c.Equal(m("100")))
	_, c = line(t, p, cash)
	assert.True(t, c.Equal(m("18")))
}

func TestPurchaseReturn_CreditWithoutTax(t *testing.T) {
	p, err := PurchaseReturn(ReturnInput{
		Net:             m("30"),
		Method:          Credit,
		ReturnAccount:   purchaseRet,
		FallbackAccount: purchase,
		PartyAccount:    supplier,
	})
	require.NoError(t, err)

	assert.Len(t, p.Entries, 2)
	d, _ := line(t, p, supplier)
	assert.True(t, d.Equal(m("30")))
	_, c := line(t, p, purchaseRet)
	assert.True(t, c.Equal(m("30")))
}

func TestPurchaseReturn_FallsBackToPurchaseAccount(t *testing.T) {
	p, err := PurchaseReturn(ReturnInput{
		Net:               m("40"),
		Tax:               m("4"),
		Method:            Cash,
		FallbackAccount:   purchase,
		CashOrBankAccount: cash,
		TaxAccount:        taxReceivable,
	})
	require.NoError(t, err)

	d, _ := line(t, p, cash)
	assert.True(t, d.Equal(m("44")))
	_, c := line(t, p, purchase)
	assert.True(t, c.Equal(m("40")))
	assertBalanced(t, p)
}

func TestSaleReturn_CashRefund(t *testing.T) {
	p, err := SaleReturn(ReturnInput{
		Net:               m("20"),
		Tax:               m("2"),
		Method:            Cash,
		ReturnAccount:     salesReturn,
		FallbackAccount:   sales,
		PartyAccount:      customer,
		CashOrBankAccount: cash,
		TaxAccount:        taxPayable,
	})
	require.NoError(t, err)

	assert.Equal(t, vouchers.TypeSaleReturn, p.Type)
	d, _ := line(t, p, salesReturn)
	assert.True(t, d.Equal(m("20")))
	_, c := line(t, p, cash)
	assert.True(t, c.Equal(m("22")))
	assertBalanced(t, p)
}

func TestSaleReturn_CreditWithoutPartyAccount(t *testing.T) {
	_, err := SaleReturn(ReturnInput{
		Net:             m("20"),
		Method:          Credit,
		FallbackAccount: sales,
	})

	assert.True(t, apperror.Is(err, apperror.CodeMissingAccount))
}

func TestPayroll(t *testing.T) {
	p, err := Payroll(PayrollInput{
		Employee:       "A. Rahman",
		NetSalary:      m("1500.50"),
		ExpenseAccount: purchase,
		PaymentAccount: cash,
	})
	require.NoError(t, err)

	assert.Equal(t, vouchers.TypePayroll, p.Type)
	assert.Len(t, p.Entries, 2)
	assert.True(t, p.TotalDebit().Equal(m("1500.50")))
}

func TestPayroll_NonPositive(t *testing.T) {
	_, err := Payroll(PayrollInput{NetSalary: types.Zero(), ExpenseAccount: purchase, PaymentAccount: cash})

	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestSimple_SameAccount(t *testing.T) {
	_, err := Simple(SimpleInput{Amount: m("5"), DebitAccount: cash, CreditAccount: cash})

	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestYearEndClosing_Profit(t *testing.T) {
	income, expense, asset := id.New(), id.New(), id.New()

	p, err := YearEndClosing("FY2026", equity, []AccountBalance{
		{AccountID: income, Type: accounts.TypeIncome, Debit: m("10"), Credit: m("510")},
		{AccountID: expense, Type: accounts.TypeExpense, Debit: m("300"), Credit: types.Zero()},
		{AccountID: asset, Type: accounts.TypeAsset, Debit: m("700"), Credit: types.Zero()},
	})
	require.NoError(t, err)

	assert.Len(t, p.Entries, 3)
	d, _ := line(t, p, income)
	assert.True(t, d.Equal(m("500")))
	_, c := line(t, p, expense)
	assert.True(t, c.Equal(m("300")))
	_, c = line(t, p, equity)
	assert.True(t, c.Equal(m("200")))
	assertBalanced(t, p)
}

func TestYearEndClosing_NothingToClose(t *testing.T) {
	p, err := YearEndClosing("FY2026", equity, nil)

	require.NoError(t, err)
	assert.Empty(t, p.Entries)
}

func TestSettle(t *testing.T) {
	s := Settle(Cash, m("80"), types.Zero())
	assert.True(t, s.Paid.Equal(m("80")))
	assert.True(t, s.Outstanding.IsZero())

	s = Settle(Credit, m("80"), types.Zero())
	assert.True(t, s.Outstanding.Equal(m("80")))

	s = Settle(Credit, m("80"), m("-5"))
	assert.True(t, s.Paid.IsZero())
}

func TestVerify_DetectsImbalance(t *testing.T) {
	p := newPosting(vouchers.TypeJournal, "manual")
	p.Debit(cash, m("10"), "")
	p.Credit(sales, m("9.99"), "")

	err := p.Verify()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeImbalancedEntries, appErr.Code)
	assert.Equal(t, "10.00", appErr.Details["total_debit"])
	assert.Equal(t, "9.99", appErr.Details["total_credit"])
}
