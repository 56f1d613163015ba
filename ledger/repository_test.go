package ledger_test

import (
	"context"
	"testing"

	"github.com/alovak/bankledger/ledger"
	"github.com/alovak/bankledger/ledger/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func account(number string, balance string) *models.Account {
	return &models.Account{
		AccountNumber: number,
		Name:          "Account " + number,
		Secret:        "secret-" + number,
		Balance:       decimal.RequireFromString(balance),
	}
}

func TestRepository_CreateAndFind(t *testing.T) {
	repo := ledger.NewRepository()

	want := account("A1", "100.00")
	require.NoError(t, repo.Create(want))

	got, err := repo.FindByAccountNumber("A1")
	require.NoError(t, err)
	require.Equal(t, want.AccountNumber, got.AccountNumber)
	require.Equal(t, want.Name, got.Name)
	require.Equal(t, want.Secret, got.Secret)
	require.True(t, want.Balance.Equal(got.Balance))

	t.Run("duplicate create fails", func(t *testing.T) {
		err := repo.Create(account("A1", "0"))
		require.ErrorIs(t, err, models.ErrDuplicateAccount)
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := repo.FindByAccountNumber("nope")
		require.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestRepository_FindByCredentials(t *testing.T) {
	repo := ledger.NewRepository()
	require.NoError(t, repo.Create(account("A1", "100.00")))

	got, err := repo.FindByCredentials("A1", "secret-A1")
	require.NoError(t, err)
	require.Equal(t, "A1", got.AccountNumber)

	// both fields must match exactly
	_, err = repo.FindByCredentials("A1", "secret-A2")
	require.ErrorIs(t, err, models.ErrNotFound)
	_, err = repo.FindByCredentials("A2", "secret-A1")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestRepository_ReturnsCopies(t *testing.T) {
	repo := ledger.NewRepository()
	require.NoError(t, repo.Create(account("A1", "100.00")))

	got, err := repo.FindByAccountNumber("A1")
	require.NoError(t, err)
	got.Balance = decimal.RequireFromString("999999")

	again, err := repo.FindByAccountNumber("A1")
	require.NoError(t, err)
	require.True(t, again.Balance.Equal(decimal.RequireFromString("100.00")))
}

func TestRepository_UpdateBalance(t *testing.T) {
	repo := ledger.NewRepository()
	require.NoError(t, repo.Create(account("A1", "100.00")))

	require.NoError(t, repo.UpdateBalance("A1", decimal.RequireFromString("250.00")))

	got, err := repo.FindByAccountNumber("A1")
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.RequireFromString("250.00")))

	err = repo.UpdateBalance("nope", decimal.Zero)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestRepository_UpdateProfile(t *testing.T) {
	repo := ledger.NewRepository()
	require.NoError(t, repo.Create(account("A1", "100.00")))

	require.NoError(t, repo.UpdateProfile("A1", "New Name", "new-secret"))

	got, err := repo.FindByCredentials("A1", "new-secret")
	require.NoError(t, err)
	require.Equal(t, "New Name", got.Name)

	err = repo.UpdateProfile("nope", "x", "y")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestRepository_DeleteIsIdempotent(t *testing.T) {
	repo := ledger.NewRepository()
	require.NoError(t, repo.Create(account("A1", "100.00")))

	removed, err := repo.Delete("A1")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repo.Delete("A1")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestRepository_ListAll(t *testing.T) {
	repo := ledger.NewRepository()
	require.NoError(t, repo.Create(account("B1", "1")))
	require.NoError(t, repo.Create(account("A1", "2")))

	accounts, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, "A1", accounts[0].AccountNumber)
	require.Equal(t, "B1", accounts[1].AccountNumber)

	// the listing is a snapshot, not a live view
	accounts[0].Balance = decimal.RequireFromString("777")
	got, err := repo.FindByAccountNumber("A1")
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.RequireFromString("2")))
}

func TestRepository_AtomicTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds", func(t *testing.T) {
		repo := ledger.NewRepository()
		require.NoError(t, repo.Create(account("A1", "100.00")))
		require.NoError(t, repo.Create(account("A2", "0.00")))

		require.NoError(t, repo.AtomicTransfer(ctx, "A1", "A2", decimal.RequireFromString("40.00")))

		from, _ := repo.FindByAccountNumber("A1")
		to, _ := repo.FindByAccountNumber("A2")
		require.True(t, from.Balance.Equal(decimal.RequireFromString("60.00")))
		require.True(t, to.Balance.Equal(decimal.RequireFromString("40.00")))
	})

	t.Run("insufficient funds aborts with no effect", func(t *testing.T) {
		repo := ledger.NewRepository()
		require.NoError(t, repo.Create(account("A1", "100.00")))
		require.NoError(t, repo.Create(account("A2", "0.00")))

		err := repo.AtomicTransfer(ctx, "A1", "A2", decimal.RequireFromString("100.01"))
		require.ErrorIs(t, err, models.ErrTransferFailed)

		from, _ := repo.FindByAccountNumber("A1")
		to, _ := repo.FindByAccountNumber("A2")
		require.True(t, from.Balance.Equal(decimal.RequireFromString("100.00")))
		require.True(t, to.Balance.Equal(decimal.RequireFromString("0.00")))
	})

	t.Run("missing source aborts", func(t *testing.T) {
		repo := ledger.NewRepository()
		require.NoError(t, repo.Create(account("A2", "0.00")))

		err := repo.AtomicTransfer(ctx, "nope", "A2", decimal.RequireFromString("1"))
		require.ErrorIs(t, err, models.ErrTransferFailed)
	})

	t.Run("missing destination rolls back the debit", func(t *testing.T) {
		repo := ledger.NewRepository()
		require.NoError(t, repo.Create(account("A1", "100.00")))

		err := repo.AtomicTransfer(ctx, "A1", "nope", decimal.RequireFromString("40.00"))
		require.ErrorIs(t, err, models.ErrTransferFailed)

		from, _ := repo.FindByAccountNumber("A1")
		require.True(t, from.Balance.Equal(decimal.RequireFromString("100.00")))
	})

	t.Run("exact balance drains to zero", func(t *testing.T) {
		repo := ledger.NewRepository()
		require.NoError(t, repo.Create(account("A1", "100.00")))
		require.NoError(t, repo.Create(account("A2", "0.00")))

		require.NoError(t, repo.AtomicTransfer(ctx, "A1", "A2", decimal.RequireFromString("100.00")))

		from, _ := repo.FindByAccountNumber("A1")
		require.True(t, from.Balance.IsZero())
	})
}
