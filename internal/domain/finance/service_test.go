package finance_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app/apptest"
	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/vouchers"
	"erpcore/internal/infrastructure/storage/memory"
)

func activeYears(t *testing.T, env *apptest.Env) []*finance.Year {
	t.Helper()
	years, err := env.Svc.Finance.Years(env.Ctx)
	require.NoError(t, err)
	var active []*finance.Year
	for _, y := range years {
		if y.IsActive {
			active = append(active, y)
		}
	}
	return active
}

func TestGetActive_CreatesCalendarYearOnce(t *testing.T) {
	env := apptest.New(t)

	assert.True(t, env.Year.IsActive)
	assert.True(t, env.Year.Contains(env.Year.StartDate))

	again, err := env.Svc.Finance.GetActive(env.Ctx)
	require.NoError(t, err)
	assert.Equal(t, env.Year.ID, again.ID)

	years, err := env.Svc.Finance.Years(env.Ctx)
	require.NoError(t, err)
	assert.Len(t, years, 1)
}

// gatedRepo holds GetActiveYear until released and then fails the way a
// database driver does when the caller's context is done.
type gatedRepo struct {
	finance.Repository
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *gatedRepo) GetActiveYear(ctx context.Context) (*finance.Year, error) {
	r.once.Do(func() { close(r.entered) })
	<-r.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.Repository.GetActiveYear(ctx)
}

func newGatedService() (*finance.Service, *gatedRepo) {
	store := memory.New()
	repo := &gatedRepo{
		Repository: store.Repositories().Finance,
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	return finance.NewService(repo, store), repo
}

func TestGetActive_IgnoresCallerCancellation(t *testing.T) {
	svc, repo := newGatedService()
	close(repo.release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	y, err := svc.GetActive(ctx)
	require.NoError(t, err)
	assert.True(t, y.IsActive)
}

func TestGetActive_WaitersSurviveLeaderCancel(t *testing.T) {
	svc, repo := newGatedService()

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := svc.GetActive(leaderCtx)
		leaderDone <- err
	}()
	<-repo.entered

	type result struct {
		year *finance.Year
		err  error
	}
	waiter := make(chan result, 1)
	go func() {
		y, err := svc.GetActive(context.Background())
		waiter <- result{y, err}
	}()
	// Give the waiter time to join the in-flight lookup.
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	close(repo.release)

	got := <-waiter
	require.NoError(t, got.err)
	assert.True(t, got.year.IsActive)
	require.NoError(t, <-leaderDone)

	again, err := svc.GetActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, got.year.ID, again.ID)
}

func TestActivate_KeepsSingleActiveYear(t *testing.T) {
	env := apptest.New(t)
	start := env.Year.EndDate.AddDate(0, 0, 1)

	next, err := env.Svc.Finance.CreateYear(env.Ctx, finance.CreateYearInput{
		Name:      "NEXT",
		StartDate: start,
		EndDate:   start.AddDate(1, 0, -1),
	})
	require.NoError(t, err)
	assert.False(t, next.IsActive)

	_, err = env.Svc.Finance.Activate(env.Ctx, next.ID)
	require.NoError(t, err)

	active := activeYears(t, env)
	require.Len(t, active, 1)
	assert.Equal(t, next.ID, active[0].ID)

	pc, err := env.Svc.Finance.PostingContextFor(env.Ctx, "tester", nil)
	require.NoError(t, err)
	assert.Equal(t, next.ID, pc.FinancialYearID)
}

func TestCreateYear_Overlap(t *testing.T) {
	env := apptest.New(t)

	_, err := env.Svc.Finance.CreateYear(env.Ctx, finance.CreateYearInput{
		Name:      "OVERLAP",
		StartDate: env.Year.EndDate.AddDate(0, -1, 0),
		EndDate:   env.Year.EndDate.AddDate(0, 11, 0),
	})
	assert.True(t, apperror.Is(err, apperror.CodeConflict))

	_, err = env.Svc.Finance.CreateYear(env.Ctx, finance.CreateYearInput{
		Name:      "BACKWARDS",
		StartDate: env.Year.EndDate.AddDate(1, 0, 0),
		EndDate:   env.Year.EndDate.AddDate(0, 6, 0),
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func post(t *testing.T, env *apptest.Env, debitCode, creditCode, amount string) {
	t.Helper()
	_, err := env.Svc.Vouchers.CreateWithEntries(env.Ctx, vouchers.CreateInput{
		Type:            vouchers.TypeJournal,
		Date:            env.Year.StartDate.AddDate(0, 2, 0),
		Narration:       "activity",
		CreatedBy:       "tester",
		FinancialYearID: &env.Year.ID,
		Entries: []vouchers.EntryInput{
			{AccountID: env.Account(t, debitCode).ID, Debit: apptest.Money(amount)},
			{AccountID: env.Account(t, creditCode).ID, Credit: apptest.Money(amount)},
		},
	})
	require.NoError(t, err)
}

func leg(entries []vouchers.Entry, accountID id.ID) (debit, credit types.Money, found bool) {
	for _, e := range entries {
		if e.AccountID == accountID {
			return e.Debit, e.Credit, true
		}
	}
	return types.Zero(), types.Zero(), false
}

func TestClose_MovesProfitIntoEquity(t *testing.T) {
	env := apptest.New(t)
	post(t, env, accounts.CodeCash, accounts.CodeSalesRevenue, "500")
	post(t, env, accounts.CodeSalaries, accounts.CodeCash, "200")

	res, err := env.Svc.Closer.Close(env.Ctx, finance.CloseInput{
		YearID:     env.Year.ID,
		EquityCode: accounts.CodeRetainedEarnings,
		Actor:      "tester",
		OpenNext:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Voucher)

	assert.True(t, res.Year.IsClosed)
	assert.False(t, res.Year.IsActive)
	assert.Equal(t, env.Year.EndDate, res.Voucher.Date)
	require.Len(t, res.Voucher.Entries, 3)

	dr, _, ok := leg(res.Voucher.Entries, env.Account(t, accounts.CodeSalesRevenue).ID)
	require.True(t, ok)
	assert.True(t, dr.Equal(apptest.Money("500")))

	_, cr, ok := leg(res.Voucher.Entries, env.Account(t, accounts.CodeSalaries).ID)
	require.True(t, ok)
	assert.True(t, cr.Equal(apptest.Money("200")))

	_, cr, ok = leg(res.Voucher.Entries, env.Account(t, accounts.CodeRetainedEarnings).ID)
	require.True(t, ok)
	assert.True(t, cr.Equal(apptest.Money("300")))

	require.NotNil(t, res.Next)
	assert.Equal(t, fmt.Sprintf("FY%d", env.Year.StartDate.Year()+1), res.Next.Name)
	active := activeYears(t, env)
	require.Len(t, active, 1)
	assert.Equal(t, res.Next.ID, active[0].ID)

	_, err = env.Svc.Finance.Activate(env.Ctx, env.Year.ID)
	assert.True(t, apperror.Is(err, apperror.CodeFinancialYearClose))

	_, err = env.Svc.Closer.Close(env.Ctx, finance.CloseInput{
		YearID:     env.Year.ID,
		EquityCode: accounts.CodeRetainedEarnings,
		Actor:      "tester",
	})
	assert.True(t, apperror.Is(err, apperror.CodeFinancialYearClose))
}

func TestClose_RequiresEquityAccount(t *testing.T) {
	env := apptest.New(t)

	_, err := env.Svc.Closer.Close(env.Ctx, finance.CloseInput{
		YearID:     env.Year.ID,
		EquityCode: accounts.CodeCash,
		Actor:      "tester",
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	y, err := env.Svc.Finance.GetActive(env.Ctx)
	require.NoError(t, err)
	assert.Equal(t, env.Year.ID, y.ID)
	assert.False(t, y.IsClosed)
}

func TestClose_EmptyYearPostsNothing(t *testing.T) {
	env := apptest.New(t)

	res, err := env.Svc.Closer.Close(env.Ctx, finance.CloseInput{
		YearID:     env.Year.ID,
		EquityCode: accounts.CodeRetainedEarnings,
		Actor:      "tester",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Voucher)
	assert.Nil(t, res.Next)
	assert.True(t, res.Year.IsClosed)
}
