package documents_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app/apptest"
	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/documents"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/posting"
	"erpcore/internal/domain/stock"
	"erpcore/internal/domain/vouchers"
)

var m = apptest.Money

func receive(t *testing.T, env *apptest.Env, product id.ID, batch string, qty int64) *stock.Batch {
	t.Helper()
	b, err := env.Svc.Stock.StockIn(env.Ctx, stock.StockInInput{
		ProductID:     product,
		WarehouseID:   env.Warehouse.ID,
		BatchNumber:   batch,
		Quantity:      qty,
		ExpiryDate:    time.Now().AddDate(1, 0, 0),
		PurchasePrice: m("5"),
		SalePrice:     m("9"),
	})
	require.NoError(t, err)
	return b
}

// entries maps account id to (debit, credit) of a posted voucher.
func entries(t *testing.T, env *apptest.Env, voucherID *id.ID) (*vouchers.Voucher, map[id.ID][2]types.Money) {
	t.Helper()
	require.NotNil(t, voucherID)
	v, err := env.Svc.Vouchers.Get(env.Ctx, *voucherID)
	require.NoError(t, err)
	out := make(map[id.ID][2]types.Money)
	for _, e := range v.Entries {
		out[e.AccountID] = [2]types.Money{e.Debit, e.Credit}
	}
	assert.True(t, v.TotalDebit().Equal(v.TotalCredit()), "voucher %s is unbalanced", v.Number)
	return v, out
}

func assertLeg(t *testing.T, legs map[id.ID][2]types.Money, account id.ID, debit, credit string) {
	t.Helper()
	leg, ok := legs[account]
	require.True(t, ok, "no entry for account %s", account)
	assert.True(t, leg[0].Equal(m(debit)), "debit: want %s, got %s", debit, leg[0])
	assert.True(t, leg[1].Equal(m(credit)), "credit: want %s, got %s", credit, leg[1])
}

func TestConfirmSaleInvoice_CashOverpayment(t *testing.T) {
	env := apptest.New(t)
	product := id.New()
	receive(t, env, product, "B1", 10)

	doc, err := env.Svc.Documents.Create(env.Ctx, documents.CreateInput{
		Kind:          documents.KindSaleInvoice,
		PartyID:       env.Customer.ID,
		WarehouseID:   env.Warehouse.ID,
		PaymentMethod: posting.Cash,
		PaidAmount:    m("110"),
		Tax:           m("10"),
		Lines:         []documents.LineInput{{ProductID: product, Quantity: 1, UnitPrice: m("90")}},
		CreatedBy:     "tester",
	})
	require.NoError(t, err)
	assert.True(t, doc.GrandTotal().Equal(m("100")))

	doc, err = env.Svc.Documents.ConfirmSaleInvoice(env.Ctx, doc.ID, env.PC)
	require.NoError(t, err)

	v, legs := entries(t, env, doc.VoucherID)
	assert.Equal(t, vouchers.TypeSale, v.Type)
	assert.Len(t, v.Entries, 3)
	assertLeg(t, legs, env.Account(t, accounts.CodeCash).ID, "100", "0")
	assertLeg(t, legs, env.Account(t, accounts.CodeSalesRevenue).ID, "0", "90")
	assertLeg(t, legs, env.Account(t, accounts.CodeTaxPayable).ID, "0", "10")

	assert.True(t, env.Balance(t, env.Customer.ID).IsZero())

	total, err := env.Svc.Stock.TotalQuantity(env.Ctx, product)
	require.NoError(t, err)
	assert.EqualValues(t, 9, total)
}

func TestConfirmPurchaseInvoice_Credit(t *testing.T) {
	env := apptest.New(t)
	product := id.New()
	expiry := time.Now().AddDate(2, 0, 0)

	doc, err := env.Svc.Documents.Create(env.Ctx, documents.CreateInput{
		Kind:          documents.KindPurchaseInvoice,
		PartyID:       env.Supplier.ID,
		WarehouseID:   env.Warehouse.ID,
		PaymentMethod: posting.Credit,
		Lines: []documents.LineInput{{
			ProductID:     product,
			BatchNumber:   "PB-1",
			Quantity:      10,
			BonusQuantity: 2,
			UnitPrice:     m("10"),
			SalePrice:     m("14"),
			ExpiryDate:    &expiry,
		}},
		CreatedBy: "tester",
	})
	require.NoError(t, err)

	doc, err = env.Svc.Documents.ConfirmPurchaseInvoice(env.Ctx, doc.ID, env.PC)
	require.NoError(t, err)

	assert.True(t, env.Balance(t, env.Supplier.ID).Equal(m("100")))

	v, legs := entries(t, env, doc.VoucherID)
	assert.Equal(t, vouchers.TypePurchase, v.Type)
	assert.Len(t, v.Entries, 2)
	assertLeg(t, legs, env.Account(t, accounts.CodePurchase).ID, "100", "0")
	assertLeg(t, legs, env.Supplier.AccountID, "0", "100")

	// Bonus units are received but not charged.
	total, err := env.Svc.Stock.TotalQuantity(env.Ctx, product)
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	require.NotNil(t, doc.Lines[0].BatchID)
}

func TestConfirmPurchaseReturn_ReducesSupplierBalance(t *testing.T) {
	env := apptest.New(t)
	product := id.New()
	expiry := time.Now().AddDate(1, 0, 0)

	inv, err := env.Svc.Documents.Create(env.Ctx, documents.CreateInput{
		Kind:          documents.KindPurchaseInvoice,
		PartyID:       env.Supplier.ID,
		WarehouseID:   env.Warehouse.ID,
		PaymentMethod: posting.Credit,
		Lines: []documents.LineInput{{
			ProductID: product, BatchNumber: "PB-7", Quantity: 10, UnitPrice: m("10"), ExpiryDate: &expiry,
		}},
		CreatedBy: "tester",
	})
	require.NoError(t, err)
	_, err = env.Svc.Documents.ConfirmPurchaseInvoice(env.Ctx, inv.ID, env.PC)
	require.NoError(t, err)
	require.True(t, env.Balance(t, env.Supplier.ID).Equal(m("100")))

	ret, err := env.Svc.Documents.Create(env.Ctx, documents.CreateInput{
		Kind:          documents.KindPurchaseReturn,
		PartyID:       env.Supplier.ID,
		WarehouseID:   env.Warehouse.ID,
		PaymentMethod: posting.Credit,
		OriginalID:    &inv.ID,
		Lines:         []documents.LineInput{{ProductID: product, Quantity: 3, UnitPrice: m("10")}},
		CreatedBy:     "tester",
	})
	require.NoError(t, err)
	ret, err = env.Svc.Documents.ConfirmPurchaseReturn(env.Ctx, ret.ID, env.PC)
	require.NoError(t, err)

	assert.True(t, env.Balance(t, env.Supplier.ID).Equal(m("70")))

	v, legs := entries(t, env, ret.VoucherID)
	assert.Equal(t, vouchers.TypePurchaseReturn, v.Type)
	assertLeg(t, legs, env.Supplier.AccountID, "30", "0")
	assertLeg(t, legs, env.Account(t, accounts.CodePurchaseReturns).ID, "0", "30")

	total, err := env.Svc.Stock.TotalQuantity(env.Ctx, product)
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
}

func TestConfirmSaleReturn_Credit(t *testing.T) {
	env := apptest.New(t)
	product := id.New()
	batch := receive(t, env, product, "B9", 5)

	inv, err := env.Svc.Documents.Create(env.Ctx, documents.CreateInput{
		Kind:          documents.KindSaleInvoice,
		PartyID:       env.Customer.ID,
		WarehouseID:   env.Warehouse.ID,
		PaymentMethod: posting.Credit,
		Tax:           m("5"),
		Lines:         []documents.LineInput{{ProductID: product, Quantity: 2, UnitPrice: m("25")}},
		CreatedBy:     "tester",
	})
	require.NoError(t, err)
	_, err = env.Svc.Documents.ConfirmSaleInvoice(env.Ctx, inv.ID, env.PC)
	require.NoError(t, err)
	require.True(t, env.Balance(t, env.Customer.ID).Equal(m("55")))

	ret, err := env.Svc.Documents.Create(env.Ctx, documents.CreateInput{
		Kind:          documents.KindSaleReturn,
		PartyID:       env.Customer.ID,
		WarehouseID:   env.Warehouse.ID,
		PaymentMethod: posting.Credit,
		Tax:           m("2.50"),
		Lines:         []documents.LineInput{{ProductID: product, BatchNumber: "B9", Quantity: 1, UnitPrice: m("25")}},
		CreatedBy:     "tester",
	})
	require.NoError(t, err)
	ret, err = env.Svc.Documents.ConfirmSaleReturn(env.Ctx, ret.ID, env.PC)
	require.NoError(t, err)

	assert.True(t, env.Balance(t, env.Customer.ID).Equal(m("27.50")))

	v, legs := entries(t, env, ret.VoucherID)
	assert.Equal(t, vouchers.TypeSaleReturn, v.Type)
	assertLeg(t, legs, env.Account(t, accounts.CodeSalesReturns).ID, "25", "0")
	assertLeg(t, legs, env.Account(t, accounts.CodeTaxPayable).ID, "2.5", "0")
	assertLeg(t, legs, env.Customer.AccountID, "0", "27.5")

	b, err := env.Svc.Stock.Batch(env.Ctx, batch.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, b.Quantity)
}

func TestConfirm_IsIdempotent(t *testing.T) {
	env := apptest.New(t)
	product := id.New()
	receive(t, env, product, "B1", 10)

	doc, err := env.Svc.Documents.Create(env.Ctx, documents.CreateInput{
		Kind:          documents.KindSaleInvoice,
		PartyID:       env.Customer.ID,
		WarehouseID:   env.Warehouse.ID,
		PaymentMethod: posting.Credit,
		Lines:         []documents.LineInput{{ProductID: product, Quantity: 4, UnitPrice: m("10")}},
		CreatedBy:     "tester",
	})
	require.NoError(t, err)

	first, err := env.Svc.Documents.ConfirmSaleInvoice(env.Ctx, doc.ID, env.PC)
	require.NoError(t, err)
	second, err := env.Svc.Documents.ConfirmSaleInvoice(env.Ctx, doc.ID, env.PC)
	require.NoError(t, err)

	require.NotNil(t, first.VoucherID)
	assert.Equal(t, *first.VoucherID, *second.VoucherID)

	sal := vouchers.TypeSale
	list, err := env.Svc.Vouchers.List(env.Ctx, vouchers.ListFilter{Type: &sal})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	total, err := env.Svc.Stock.TotalQuantity(env.Ctx, product)
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	assert.True(t, env.Balance(t, env.Customer.ID).Equal(m("40")))
}

func TestConfirm_InsufficientStockRollsBack(t *testing.T) {
	env := apptest.New(t)
	first, second := id.New(), id.New()
	receive(t, env, first, "A1", 10)
	receive(t, env, second, "C1", 2)

	doc, err := env.Svc.Documents.Create(env.Ctx, documents.CreateInput{
		Kind:          documents.KindSaleInvoice,
		PartyID:       env.Customer.ID,
		WarehouseID:   env.Warehouse.ID,
		PaymentMethod: posting.Credit,
		Lines: []documents.LineInput{
			{ProductID: first, Quantity: 5, UnitPrice: m("10")},
			{ProductID: second, Quantity: 3, UnitPrice: m("10")},
		},
		CreatedBy: "tester",
	})
	require.NoError(t, err)

	_, err = env.Svc.Documents.ConfirmSaleInvoice(env.Ctx, doc.ID, env.PC)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientStock))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.EqualValues(t, 3, appErr.Details["requested"])
	assert.EqualValues(t, 2, appErr.Details["available"])

	total, err := env.Svc.Stock.TotalQuantity(env.Ctx, first)
	require.NoError(t, err)
	assert.EqualValues(t, 10, total, "first line must be rolled back")

	movements, err := env.Svc.Stock.Movements(env.Ctx, stock.MovementFilter{ProductID: &first})
	require.NoError(t, err)
	assert.Len(t, movements, 1, "only the receipt remains")

	assert.True(t, env.Balance(t, env.Customer.ID).IsZero())

	list, err := env.Svc.Vouchers.List(env.Ctx, vouchers.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	reloaded, err := env.Svc.Documents.Get(env.Ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Confirmed())
}

func TestConfirm_MissingTaxAccount(t *testing.T) {
	env := apptest.New(t)
	product := id.New()
	receive(t, env, product, "B1", 10)

	// A chart without the configured tax code.
	doc, err := env.Svc.Documents.Create(env.Ctx, documents.CreateInput{
		Kind:          documents.KindSaleInvoice,
		PartyID:       env.Customer.ID,
		WarehouseID:   env.Warehouse.ID,
		PaymentMethod: posting.Credit,
		Tax:           m("1"),
		Lines:         []documents.LineInput{{ProductID: product, Quantity: 1, UnitPrice: m("10")}},
		CreatedBy:     "tester",
	})
	require.NoError(t, err)

	resolver := documents.NewAccountResolver(env.Svc.Accounts, "9999", "9998")
	wh, err := env.Svc.Warehouses.Get(env.Ctx, env.Warehouse.ID)
	require.NoError(t, err)
	accts, err := resolver.Resolve(env.Ctx, doc, wh, env.Customer)
	require.NoError(t, err)
	assert.True(t, id.IsNil(accts.TaxPayable))

	_, err = posting.SaleInvoice(posting.SaleInvoiceInput{
		Reference:         doc.Number,
		GrandTotal:        doc.GrandTotal(),
		Tax:               doc.Tax,
		SalesAccount:      accts.Sales,
		CustomerAccount:   accts.Party,
		TaxPayableAccount: accts.TaxPayable,
	})
	assert.True(t, apperror.Is(err, apperror.CodeMissingAccount))
}

func TestCreate_Validation(t *testing.T) {
	env := apptest.New(t)
	product := id.New()

	tests := []struct {
		name string
		in   documents.CreateInput
	}{
		{
			name: "sale to supplier",
			in: documents.CreateInput{
				Kind: documents.KindSaleInvoice, PartyID: env.Supplier.ID, WarehouseID: env.Warehouse.ID,
				PaymentMethod: posting.Cash,
				Lines:         []documents.LineInput{{ProductID: product, Quantity: 1, UnitPrice: m("1")}},
			},
		},
		{
			name: "no lines",
			in: documents.CreateInput{
				Kind: documents.KindSaleInvoice, PartyID: env.Customer.ID, WarehouseID: env.Warehouse.ID,
				PaymentMethod: posting.Cash,
			},
		},
		{
			name: "purchase line without expiry",
			in: documents.CreateInput{
				Kind: documents.KindPurchaseInvoice, PartyID: env.Supplier.ID, WarehouseID: env.Warehouse.ID,
				PaymentMethod: posting.Credit,
				Lines:         []documents.LineInput{{ProductID: product, BatchNumber: "X", Quantity: 1, UnitPrice: m("1")}},
			},
		},
		{
			name: "discount above subtotal",
			in: documents.CreateInput{
				Kind: documents.KindSaleInvoice, PartyID: env.Customer.ID, WarehouseID: env.Warehouse.ID,
				PaymentMethod: posting.Cash, Discount: m("50"),
				Lines: []documents.LineInput{{ProductID: product, Quantity: 1, UnitPrice: m("10")}},
			},
		},
		{
			name: "sale return without batch",
			in: documents.CreateInput{
				Kind: documents.KindSaleReturn, PartyID: env.Customer.ID, WarehouseID: env.Warehouse.ID,
				PaymentMethod: posting.Cash,
				Lines:         []documents.LineInput{{ProductID: product, Quantity: 1, UnitPrice: m("10")}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.CreatedBy = "tester"
			_, err := env.Svc.Documents.Create(env.Ctx, tt.in)
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestSettleInstallment(t *testing.T) {
	env := apptest.New(t)
	product := id.New()
	receive(t, env, product, "B1", 10)

	term, err := env.Svc.Finance.CreateTerm(env.Ctx, finance.CreateTermInput{Name: "3x30", Installments: 3, IntervalDays: 30})
	require.NoError(t, err)

	doc, err := env.Svc.Documents.Create(env.Ctx, documents.CreateInput{
		Kind:          documents.KindSaleInvoice,
		PartyID:       env.Customer.ID,
		WarehouseID:   env.Warehouse.ID,
		PaymentMethod: posting.Credit,
		PaymentTermID: &term.ID,
		Lines:         []documents.LineInput{{ProductID: product, Quantity: 1, UnitPrice: m("100")}},
		CreatedBy:     "tester",
	})
	require.NoError(t, err)
	_, err = env.Svc.Documents.ConfirmSaleInvoice(env.Ctx, doc.ID, env.PC)
	require.NoError(t, err)

	schedules, err := env.Svc.Finance.Schedules(env.Ctx, string(documents.KindSaleInvoice), doc.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 3)
	assert.True(t, schedules[0].Amount.Equal(m("33.33")))
	assert.True(t, schedules[2].Amount.Equal(m("33.34")))

	paid, err := env.Svc.Documents.SettleInstallment(env.Ctx, schedules[0].ID, env.PC)
	require.NoError(t, err)
	assert.Equal(t, finance.SchedulePaid, paid.Status)
	assert.True(t, env.Balance(t, env.Customer.ID).Equal(m("66.67")))

	_, legs := entries(t, env, paid.VoucherID)
	assertLeg(t, legs, env.Account(t, accounts.CodeCash).ID, "33.33", "0")
	assertLeg(t, legs, env.Customer.AccountID, "0", "33.33")

	_, err = env.Svc.Documents.SettleInstallment(env.Ctx, schedules[0].ID, env.PC)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidTransition))
}
