package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/novachain/backend/internal/config"
	"github.com/novachain/backend/internal/models"
	"github.com/novachain/backend/internal/price"
	"github.com/novachain/backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubOracle struct {
	prices map[string]decimal.Decimal
	err    error
}

func (o *stubOracle) GetSpotPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	if o.err != nil {
		return decimal.Zero, o.err
	}
	if p, ok := o.prices[symbol]; ok {
		return p, nil
	}
	return decimal.Zero, price.ErrPriceUnavailable
}

func (o *stubOracle) PriceOrFallback(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	p, err := o.GetSpotPrice(ctx, symbol)
	if err != nil {
		return price.Fallback(symbol), true
	}
	return p, false
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls map[string]time.Time
}

func (s *recordingScheduler) Schedule(tradeID string, dueAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]time.Time)
	}
	s.calls[tradeID] = dueAt
}

func testTradeConfig() config.TradeConfig {
	return config.TradeConfig{
		MinDuration:   5,
		MaxDuration:   120,
		MinPercent:    5,
		MaxPercent:    40,
		MinAmount:     1,
		SettleTimeout: 5 * time.Second,
	}
}

type testEnv struct {
	db        *gorm.DB
	users     *repository.UserRepository
	balances  *repository.BalanceRepository
	trades    *repository.TradeRepository
	modes     *repository.ModeRepository
	wallets   *repository.WalletRepository
	ledger    *BalanceLedger
	resolver  *ModeResolver
	oracle    *stubOracle
	engine    *TradeEngine
	scheduler *recordingScheduler
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.AutoMigrate(db))

	env := &testEnv{
		db:        db,
		users:     repository.NewUserRepository(db),
		balances:  repository.NewBalanceRepository(db),
		trades:    repository.NewTradeRepository(db),
		modes:     repository.NewModeRepository(db),
		wallets:   repository.NewWalletRepository(db),
		oracle:    &stubOracle{prices: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(60000)}},
		scheduler: &recordingScheduler{},
		now:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	env.ledger = NewBalanceLedger(env.balances)
	env.resolver = NewModeResolver(env.modes, env.users)
	env.engine = NewTradeEngine(db, env.users, env.trades, env.ledger, env.resolver, env.oracle, nil, testTradeConfig(), zap.NewNop())
	env.engine.SetScheduler(env.scheduler)
	env.engine.SetClock(func() time.Time { return env.now })
	return env
}

// newUser creates a user holding usdt USDT
func (env *testEnv) newUser(t *testing.T, username string, usdt int64) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x", KYCStatus: models.KYCUnverified}
	require.NoError(t, env.users.Create(user))
	require.NoError(t, env.ledger.Seed(nil, user.ID))
	if usdt > 0 {
		require.NoError(t, env.ledger.Credit(nil, user.ID, models.CoinUSDT, decimal.NewFromInt(usdt)))
	}
	return user
}

func (env *testEnv) usdt(t *testing.T, userID uint) decimal.Decimal {
	t.Helper()
	bal, err := env.ledger.Balance(userID, models.CoinUSDT)
	require.NoError(t, err)
	return bal
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
