package vouchers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app/apptest"
	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/vouchers"
)

var m = apptest.Money

func journal(env *apptest.Env, t *testing.T, debitCode, creditCode, amount string) vouchers.CreateInput {
	t.Helper()
	return vouchers.CreateInput{
		Type:            vouchers.TypeJournal,
		Date:            apptest.Date(env.Year.StartDate.Year(), 3, 15),
		Narration:       "test journal",
		CreatedBy:       "tester",
		FinancialYearID: &env.Year.ID,
		Entries: []vouchers.EntryInput{
			{AccountID: env.Account(t, debitCode).ID, Debit: m(amount)},
			{AccountID: env.Account(t, creditCode).ID, Credit: m(amount)},
		},
	}
}

func TestCreateWithEntries_Balanced(t *testing.T) {
	env := apptest.New(t)

	v, err := env.Svc.Vouchers.CreateWithEntries(env.Ctx, journal(env, t, accounts.CodeRent, accounts.CodeCash, "250.00"))
	require.NoError(t, err)

	assert.Equal(t, vouchers.StatusPending, v.Status)
	assert.True(t, v.Amount.Equal(m("250")))
	assert.Len(t, v.Entries, 2)
	assert.Regexp(t, `^JRN-\d{4}-00001$`, v.Number)

	stored, err := env.Svc.Vouchers.Get(env.Ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalDebit().Equal(stored.TotalCredit()))
}

func TestCreateWithEntries_NumbersAreSequential(t *testing.T) {
	env := apptest.New(t)

	first, err := env.Svc.Vouchers.CreateWithEntries(env.Ctx, journal(env, t, accounts.CodeRent, accounts.CodeCash, "1"))
	require.NoError(t, err)
	second, err := env.Svc.Vouchers.CreateWithEntries(env.Ctx, journal(env, t, accounts.CodeRent, accounts.CodeCash, "1"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Number, second.Number)
	assert.Regexp(t, `-00002$`, second.Number)
}

func TestCreateWithEntries_Imbalanced(t *testing.T) {
	env := apptest.New(t)
	in := journal(env, t, accounts.CodeRent, accounts.CodeCash, "100")
	in.Entries[1].Credit = m("99.99")

	_, err := env.Svc.Vouchers.CreateWithEntries(env.Ctx, in)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeImbalancedEntries, appErr.Code)
	assert.Equal(t, "100.00", appErr.Details["total_debit"])
	assert.Equal(t, "99.99", appErr.Details["total_credit"])

	list, err := env.Svc.Vouchers.List(env.Ctx, vouchers.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateWithEntries_InvalidLines(t *testing.T) {
	env := apptest.New(t)
	cash := env.Account(t, accounts.CodeCash).ID

	tests := []struct {
		name    string
		entries []vouchers.EntryInput
		code    string
	}{
		{"single entry", []vouchers.EntryInput{{AccountID: cash, Debit: m("1")}}, apperror.CodeValidation},
		{"negative amount", []vouchers.EntryInput{
			{AccountID: cash, Debit: m("-1")},
			{AccountID: cash, Credit: m("-1")},
		}, apperror.CodeValidation},
		{"unknown account", []vouchers.EntryInput{
			{AccountID: cash, Debit: m("5")},
			{AccountID: id.New(), Credit: m("5")},
		}, apperror.CodeAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Svc.Vouchers.CreateWithEntries(env.Ctx, vouchers.CreateInput{
				Type:      vouchers.TypeJournal,
				Date:      env.Year.StartDate,
				CreatedBy: "tester",
				Entries:   tt.entries,
			})
			require.Error(t, err)
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestCreateWithEntries_ChecksRoundedAmounts(t *testing.T) {
	env := apptest.New(t)
	rent := env.Account(t, accounts.CodeRent).ID
	utilities := env.Account(t, accounts.CodeUtilities).ID
	cash := env.Account(t, accounts.CodeCash).ID

	create := func(entries ...vouchers.EntryInput) (*vouchers.Voucher, error) {
		return env.Svc.Vouchers.CreateWithEntries(env.Ctx, vouchers.CreateInput{
			Type:      vouchers.TypeJournal,
			Date:      env.Year.StartDate,
			CreatedBy: "tester",
			Entries:   entries,
		})
	}

	t.Run("half cents round apart", func(t *testing.T) {
		_, err := create(
			vouchers.EntryInput{AccountID: rent, Debit: m("0.005")},
			vouchers.EntryInput{AccountID: utilities, Debit: m("0.005")},
			vouchers.EntryInput{AccountID: cash, Credit: m("0.01")},
		)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeImbalancedEntries, appErr.Code)
		assert.Equal(t, "0.02", appErr.Details["total_debit"])
		assert.Equal(t, "0.01", appErr.Details["total_credit"])
	})

	t.Run("line rounds to zero", func(t *testing.T) {
		_, err := create(
			vouchers.EntryInput{AccountID: rent, Debit: m("5")},
			vouchers.EntryInput{AccountID: utilities, Debit: m("0.004")},
			vouchers.EntryInput{AccountID: cash, Credit: m("5")},
		)
		assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)
	})

	list, err := env.Svc.Vouchers.List(env.Ctx, vouchers.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	t.Run("stores what was checked", func(t *testing.T) {
		v, err := create(
			vouchers.EntryInput{AccountID: rent, Debit: m("10.004")},
			vouchers.EntryInput{AccountID: cash, Credit: m("10.001")},
		)
		require.NoError(t, err)

		stored, err := env.Svc.Vouchers.Get(env.Ctx, v.ID)
		require.NoError(t, err)
		assert.True(t, stored.Amount.Equal(m("10")))
		assert.True(t, stored.Entries[0].Debit.Equal(m("10")))
		assert.True(t, stored.Entries[1].Credit.Equal(m("10")))
		assert.True(t, stored.TotalDebit().Equal(stored.TotalCredit()))
	})
}

func TestReplaceEntries_ChecksRoundedAmounts(t *testing.T) {
	env := apptest.New(t)
	v, err := env.Svc.Vouchers.CreateWithEntries(env.Ctx, journal(env, t, accounts.CodeRent, accounts.CodeCash, "10"))
	require.NoError(t, err)

	_, err = env.Svc.Vouchers.ReplaceEntries(env.Ctx, v.ID, []vouchers.EntryInput{
		{AccountID: env.Account(t, accounts.CodeRent).ID, Debit: m("0.005")},
		{AccountID: env.Account(t, accounts.CodeUtilities).ID, Debit: m("0.005")},
		{AccountID: env.Account(t, accounts.CodeCash).ID, Credit: m("0.01")},
	})
	assert.True(t, apperror.Is(err, apperror.CodeImbalancedEntries), "got %v", err)

	stored, err := env.Svc.Vouchers.Get(env.Ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(m("10")))
	assert.Len(t, stored.Entries, 2)
}

func TestApproveReject_StateMachine(t *testing.T) {
	env := apptest.New(t)

	v, err := env.Svc.Vouchers.CreateWithEntries(env.Ctx, journal(env, t, accounts.CodeRent, accounts.CodeCash, "10"))
	require.NoError(t, err)

	approved, err := env.Svc.Vouchers.Approve(env.Ctx, v.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, vouchers.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "manager", *approved.ApprovedBy)

	_, err = env.Svc.Vouchers.Reject(env.Ctx, v.ID, "manager")
	assert.True(t, apperror.Is(err, apperror.CodeInvalidTransition))

	_, err = env.Svc.Vouchers.Approve(env.Ctx, v.ID, "manager")
	assert.True(t, apperror.Is(err, apperror.CodeInvalidTransition))
}

func TestReplaceEntries(t *testing.T) {
	env := apptest.New(t)
	rent := env.Account(t, accounts.CodeRent).ID
	bank := env.Account(t, accounts.CodeBank).ID

	v, err := env.Svc.Vouchers.CreateWithEntries(env.Ctx, journal(env, t, accounts.CodeRent, accounts.CodeCash, "10"))
	require.NoError(t, err)

	replaced, err := env.Svc.Vouchers.ReplaceEntries(env.Ctx, v.ID, []vouchers.EntryInput{
		{AccountID: rent, Debit: m("12")},
		{AccountID: bank, Credit: m("12")},
	})
	require.NoError(t, err)
	assert.True(t, replaced.Amount.Equal(m("12")))

	_, err = env.Svc.Vouchers.Approve(env.Ctx, v.ID, "manager")
	require.NoError(t, err)

	_, err = env.Svc.Vouchers.ReplaceEntries(env.Ctx, v.ID, []vouchers.EntryInput{
		{AccountID: rent, Debit: m("1")},
		{AccountID: bank, Credit: m("1")},
	})
	assert.True(t, apperror.Is(err, apperror.CodeVoucherLocked))

	stored, err := env.Svc.Vouchers.Get(env.Ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(m("12")))
}

func TestReplaceEntries_RejectedIsLocked(t *testing.T) {
	env := apptest.New(t)

	v, err := env.Svc.Vouchers.CreateWithEntries(env.Ctx, journal(env, t, accounts.CodeRent, accounts.CodeCash, "10"))
	require.NoError(t, err)
	_, err = env.Svc.Vouchers.Reject(env.Ctx, v.ID, "manager")
	require.NoError(t, err)

	_, err = env.Svc.Vouchers.ReplaceEntries(env.Ctx, v.ID, journal(env, t, accounts.CodeRent, accounts.CodeCash, "5").Entries)
	assert.True(t, apperror.Is(err, apperror.CodeVoucherLocked))
}

func TestAccountLedger_RunningBalance(t *testing.T) {
	env := apptest.New(t)
	cash := env.Account(t, accounts.CodeCash)
	y := env.Year.StartDate.Year()

	post := func(month int, debitCode, creditCode, amount string) *vouchers.Voucher {
		in := journal(env, t, debitCode, creditCode, amount)
		in.Date = apptest.Date(y, 1, 1).AddDate(0, month-1, 0)
		v, err := env.Svc.Vouchers.CreateWithEntries(env.Ctx, in)
		require.NoError(t, err)
		return v
	}

	post(1, accounts.CodeCash, accounts.CodeOwnersCapital, "1000")
	post(2, accounts.CodeRent, accounts.CodeCash, "300")
	rejected := post(3, accounts.CodeRent, accounts.CodeCash, "50")
	post(4, accounts.CodeCash, accounts.CodeSalesRevenue, "120")

	_, err := env.Svc.Vouchers.Reject(env.Ctx, rejected.ID, "manager")
	require.NoError(t, err)

	from := apptest.Date(y, 2, 1)
	ledger, err := env.Svc.Vouchers.AccountLedger(env.Ctx, cash.ID, &from, nil)
	require.NoError(t, err)

	assert.True(t, ledger.Opening.Equal(m("1000")))
	require.Len(t, ledger.Lines, 2)
	assert.True(t, ledger.Lines[0].Balance.Equal(m("700")))
	assert.True(t, ledger.Lines[1].Balance.Equal(m("820")))
	assert.True(t, ledger.Closing.Equal(m("820")))
}
