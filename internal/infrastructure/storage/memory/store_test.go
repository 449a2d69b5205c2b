package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/numerator"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/catalogs/party"
)

func seedParty(t *testing.T, s *Store) *party.Party {
	t.Helper()
	p := &party.Party{ID: id.New(), Name: "Acme", Type: party.TypeCustomer, AccountID: id.New(), CurrentBalance: types.Zero()}
	require.NoError(t, s.Repositories().Parties.Create(context.Background(), p))
	return p
}

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	repos := s.Repositories()
	p := seedParty(t, s)
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := repos.Parties.AddBalance(ctx, p.ID, types.MustMoney("50")); err != nil {
			return err
		}
		if err := repos.Accounts.Create(ctx, accounts.NewAccount("7000", "Temp", accounts.TypeExpense)); err != nil {
			return err
		}
		if _, err := repos.Numerator.GetNextNumber(ctx, numerator.DefaultConfig("SI"), p.CreatedAt); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repos.Parties.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.IsZero())

	_, err = repos.Accounts.GetByCode(ctx, "7000")
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, s.st.sequences)
}

func TestRunInTransaction_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := New()
	repos := s.Repositories()
	p := seedParty(t, s)

	assert.Panics(t, func() {
		_ = s.RunInTransaction(ctx, func(ctx context.Context) error {
			_, _ = repos.Parties.AddBalance(ctx, p.ID, types.MustMoney("10"))
			panic("unexpected")
		})
	})

	got, err := repos.Parties.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.IsZero())
}

func TestRunInTransaction_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	s := New()
	repos := s.Repositories()
	p := seedParty(t, s)

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		inner := s.RunInTransaction(ctx, func(ctx context.Context) error {
			_, err := repos.Parties.AddBalance(ctx, p.ID, types.MustMoney("25"))
			return err
		})
		require.NoError(t, inner)
		return apperror.NewConflict("outer fails")
	})
	require.Error(t, err)

	got, err := repos.Parties.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.IsZero(), "inner write must roll back with the outer transaction")
}

func TestRunInTransaction_Commits(t *testing.T) {
	ctx := context.Background()
	s := New()
	repos := s.Repositories()
	p := seedParty(t, s)

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := repos.Parties.AddBalance(ctx, p.ID, types.MustMoney("12.5"))
		return err
	})
	require.NoError(t, err)

	got, err := repos.Parties.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(types.MustMoney("12.5")))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := seedParty(t, s)

	s.Reset()

	_, err := s.Repositories().Parties.GetByID(ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))
}
