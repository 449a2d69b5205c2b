package payroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app/apptest"
	"erpcore/internal/core/apperror"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/payroll"
	"erpcore/internal/domain/vouchers"
)

func TestPost_DefaultAccounts(t *testing.T) {
	env := apptest.New(t)

	v, err := env.Svc.Payroll.Post(env.Ctx, payroll.PayrollInput{
		Employee:       "  Dana Smith ",
		NetSalary:      apptest.Money("1250.50"),
		Date:           env.Year.StartDate.AddDate(0, 4, 0),
		PostingContext: env.PC,
	})
	require.NoError(t, err)

	assert.Equal(t, vouchers.TypePayroll, v.Type)
	assert.Equal(t, "Payroll for Dana Smith", v.Narration)
	assert.Equal(t, "tester", v.CreatedBy)
	require.NotNil(t, v.FinancialYearID)
	assert.Equal(t, env.Year.ID, *v.FinancialYearID)
	require.Len(t, v.Entries, 2)

	assert.Equal(t, env.Account(t, accounts.CodeSalaries).ID, v.Entries[0].AccountID)
	assert.True(t, v.Entries[0].Debit.Equal(apptest.Money("1250.50")))
	assert.Equal(t, env.Account(t, accounts.CodeCash).ID, v.Entries[1].AccountID)
	assert.True(t, v.Entries[1].Credit.Equal(apptest.Money("1250.50")))
}

func TestPost_BankPayment(t *testing.T) {
	env := apptest.New(t)

	v, err := env.Svc.Payroll.Post(env.Ctx, payroll.PayrollInput{
		Employee:       "Lee",
		NetSalary:      apptest.Money("900"),
		PaymentCode:    accounts.CodeBank,
		PostingContext: env.PC,
	})
	require.NoError(t, err)
	assert.Equal(t, env.Account(t, accounts.CodeBank).ID, v.Entries[1].AccountID)
}

func TestPost_Rejects(t *testing.T) {
	env := apptest.New(t)

	tests := []struct {
		name string
		in   payroll.PayrollInput
		code string
	}{
		{"zero salary", payroll.PayrollInput{Employee: "A", PostingContext: env.PC}, apperror.CodeValidation},
		{"no employee", payroll.PayrollInput{NetSalary: apptest.Money("10"), PostingContext: env.PC}, apperror.CodeValidation},
		{"no posting context", payroll.PayrollInput{Employee: "A", NetSalary: apptest.Money("10"), PostingContext: finance.PostingContext{}}, apperror.CodeValidation},
		{"unknown account", payroll.PayrollInput{Employee: "A", NetSalary: apptest.Money("10"), ExpenseCode: "9999", PostingContext: env.PC}, apperror.CodeAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Svc.Payroll.Post(env.Ctx, tt.in)
			require.Error(t, err)
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}

	list, err := env.Svc.Vouchers.List(env.Ctx, vouchers.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
