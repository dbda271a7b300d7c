package repository

import (
	"testing"

	"github.com/novachain/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBalanceRepository_SeedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewBalanceRepository(db)
	user := createUser(t, db, "alice")

	require.NoError(t, repo.Seed(user.ID, models.SupportedCoins))
	require.NoError(t, repo.Credit(user.ID, models.CoinUSDT, decimal.NewFromInt(5)))
	require.NoError(t, repo.Seed(user.ID, models.SupportedCoins))

	rows, err := repo.ListByUser(user.ID)
	require.NoError(t, err)
	assert.Len(t, rows, len(models.SupportedCoins))

	bal, err := repo.Get(user.ID, models.CoinUSDT)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(5)), "seed must not reset balance, got %s", bal)
}

func TestBalanceRepository_CreditCreatesRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewBalanceRepository(db)
	user := createUser(t, db, "bob")

	bal, err := repo.Get(user.ID, "ETH")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	require.NoError(t, repo.Credit(user.ID, "ETH", decimal.RequireFromString("1.5")))
	require.NoError(t, repo.Credit(user.ID, "ETH", decimal.RequireFromString("0.25")))

	bal, err = repo.Get(user.ID, "ETH")
	require.NoError(t, err)
	assert.Equal(t, "1.75", bal.String())
}

func TestBalanceRepository_DebitGuard(t *testing.T) {
	db := newTestDB(t)
	repo := NewBalanceRepository(db)
	user := createUser(t, db, "carol")
	require.NoError(t, repo.Credit(user.ID, models.CoinUSDT, decimal.NewFromInt(100)))

	require.NoError(t, repo.Debit(user.ID, models.CoinUSDT, decimal.NewFromInt(10)))
	bal, _ := repo.Get(user.ID, models.CoinUSDT)
	assert.True(t, bal.Equal(decimal.NewFromInt(90)))

	err := repo.Debit(user.ID, models.CoinUSDT, decimal.NewFromInt(91))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	bal, _ = repo.Get(user.ID, models.CoinUSDT)
	assert.True(t, bal.Equal(decimal.NewFromInt(90)))

	// debit of the exact balance is allowed
	require.NoError(t, repo.Debit(user.ID, models.CoinUSDT, decimal.NewFromInt(90)))
	bal, _ = repo.Get(user.ID, models.CoinUSDT)
	assert.True(t, bal.IsZero())

	assert.ErrorIs(t, repo.Debit(user.ID, "SOL", decimal.NewFromInt(1)), ErrInsufficientBalance)
}

func TestBalanceRepository_TransactionRollback(t *testing.T) {
	db := newTestDB(t)
	repo := NewBalanceRepository(db)
	user := createUser(t, db, "dave")
	require.NoError(t, repo.Credit(user.ID, models.CoinUSDT, decimal.NewFromInt(10)))

	err := db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		if err := txRepo.Debit(user.ID, models.CoinUSDT, decimal.NewFromInt(4)); err != nil {
			return err
		}
		return txRepo.Debit(user.ID, models.CoinUSDT, decimal.NewFromInt(7))
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	bal, _ := repo.Get(user.ID, models.CoinUSDT)
	assert.True(t, bal.Equal(decimal.NewFromInt(10)))
}

func TestBalanceRepository_SnapshotAndHistory(t *testing.T) {
	db := newTestDB(t)
	repo := NewBalanceRepository(db)
	user := createUser(t, db, "erin")
	require.NoError(t, repo.Credit(user.ID, models.CoinUSDT, decimal.NewFromInt(10)))

	_, err := repo.Snapshot(user.ID, models.CoinUSDT, decimal.NewFromInt(1), models.SnapshotDeposit)
	require.NoError(t, err)
	require.NoError(t, repo.Credit(user.ID, models.CoinUSDT, decimal.NewFromInt(5)))
	snap, err := repo.Snapshot(user.ID, models.CoinUSDT, decimal.NewFromInt(1), models.SnapshotTradeSettlement)
	require.NoError(t, err)
	assert.True(t, snap.Balance.Equal(decimal.NewFromInt(15)))

	history, err := repo.History(user.ID, "", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.SnapshotTradeSettlement, history[0].Reason)
	assert.True(t, history[1].Balance.Equal(decimal.NewFromInt(10)))

	limited, err := repo.History(user.ID, models.CoinUSDT, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	other, err := repo.History(user.ID, "BTC", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}
