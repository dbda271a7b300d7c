package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/novachain/backend/internal/config"
	"github.com/novachain/backend/internal/models"
	"github.com/novachain/backend/internal/price"
	"github.com/novachain/backend/internal/repository"
	"github.com/novachain/backend/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeSettler struct {
	mu      sync.Mutex
	settled map[string]int
	pending []models.Trade
}

func (f *fakeSettler) SettleTrade(_ context.Context, tradeID string) (*models.Trade, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled == nil {
		f.settled = make(map[string]int)
	}
	f.settled[tradeID]++
	return &models.Trade{ID: tradeID, Status: models.TradeStatusWin}, f.settled[tradeID] == 1, nil
}

func (f *fakeSettler) PendingTrades(int) ([]models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Trade(nil), f.pending...), nil
}

func (f *fakeSettler) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled[id]
}

func newScheduler(t *testing.T, settler Settler) *SettlementScheduler {
	t.Helper()
	s, err := NewSettlementScheduler(settler, config.TradeConfig{PoolSize: 4, SweepInterval: time.Hour}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Stop(time.Second) })
	return s
}

func TestSettlementScheduler_FiresWhenDue(t *testing.T) {
	settler := &fakeSettler{}
	s := newScheduler(t, settler)

	s.Schedule("t1", time.Now().Add(20*time.Millisecond))
	s.Schedule("t1", time.Now().Add(20*time.Millisecond))
	assert.Equal(t, 1, s.Pending())

	assert.Eventually(t, func() bool { return settler.count("t1") == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSettlementScheduler_StartRecoversPending(t *testing.T) {
	now := time.Now()
	settler := &fakeSettler{pending: []models.Trade{
		{ID: "overdue", DueAt: now.Add(-time.Minute)},
		{ID: "future", DueAt: now.Add(time.Hour)},
	}}
	s := newScheduler(t, settler)

	s.Start(context.Background())

	assert.Eventually(t, func() bool { return settler.count("overdue") == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, settler.count("future"))
	assert.Equal(t, 1, s.Pending())
}

func TestSettlementScheduler_StopCancelsTimers(t *testing.T) {
	settler := &fakeSettler{}
	s := newScheduler(t, settler)

	s.Schedule("later", time.Now().Add(50*time.Millisecond))
	s.Stop(time.Second)
	assert.Equal(t, 0, s.Pending())

	s.Schedule("ignored", time.Now())
	assert.Equal(t, 0, s.Pending())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, settler.count("later"))
	assert.Equal(t, 0, settler.count("ignored"))
}

// flakySettler fails the first settlement attempt of every trade and keeps
// the trade pending until an attempt succeeds
type flakySettler struct {
	mu       sync.Mutex
	attempts map[string]int
	settled  map[string]int
	pending  []models.Trade
}

func (f *flakySettler) SettleTrade(_ context.Context, tradeID string) (*models.Trade, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[tradeID]++
	if f.attempts[tradeID] == 1 {
		return nil, false, errors.New("database is locked")
	}
	for i, t := range f.pending {
		if t.ID == tradeID {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			f.settled[tradeID]++
			return &models.Trade{ID: tradeID, Status: models.TradeStatusWin}, true, nil
		}
	}
	return nil, false, nil
}

func (f *flakySettler) PendingTrades(int) ([]models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Trade(nil), f.pending...), nil
}

func (f *flakySettler) counts(id string) (attempts, settled int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[id], f.settled[id]
}

func TestSettlementScheduler_SweepRetriesFailedSettlement(t *testing.T) {
	settler := &flakySettler{
		attempts: make(map[string]int),
		settled:  make(map[string]int),
		pending:  []models.Trade{{ID: "t1", DueAt: time.Now().Add(-time.Second)}},
	}
	s := newScheduler(t, settler)

	s.Start(context.Background())
	assert.Eventually(t, func() bool {
		attempts, _ := settler.counts("t1")
		return attempts == 1 && s.Pending() == 0
	}, time.Second, 5*time.Millisecond)
	_, settled := settler.counts("t1")
	assert.Equal(t, 0, settled)

	s.sweep()
	assert.Eventually(t, func() bool {
		_, settled := settler.counts("t1")
		return settled == 1
	}, time.Second, 5*time.Millisecond)

	// nothing pending remains, so further sweeps arm nothing
	s.sweep()
	assert.Equal(t, 0, s.Pending())
	time.Sleep(20 * time.Millisecond)
	attempts, settled := settler.counts("t1")
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, settled)
}

type fixedOracle struct{}

func (fixedOracle) GetSpotPrice(context.Context, string) (decimal.Decimal, error) {
	return decimal.NewFromInt(60000), nil
}

func (fixedOracle) PriceOrFallback(context.Context, string) (decimal.Decimal, bool) {
	return decimal.NewFromInt(60000), false
}

func TestSettlementScheduler_SettlesThroughEngine(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.AutoMigrate(db))

	users := repository.NewUserRepository(db)
	trades := repository.NewTradeRepository(db)
	ledger := service.NewBalanceLedger(repository.NewBalanceRepository(db))
	resolver := service.NewModeResolver(repository.NewModeRepository(db), users)
	cfg := config.TradeConfig{MinDuration: 5, MaxDuration: 120, MinPercent: 5, MaxPercent: 40, MinAmount: 1, PoolSize: 2, SweepInterval: time.Hour}
	engine := service.NewTradeEngine(db, users, trades, ledger, resolver, fixedOracle{}, nil, cfg, zap.NewNop())

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", KYCStatus: models.KYCUnverified}
	require.NoError(t, users.Create(user))
	require.NoError(t, ledger.Seed(nil, user.ID))
	require.NoError(t, ledger.Credit(nil, user.ID, models.CoinUSDT, decimal.NewFromInt(100)))
	_, err = resolver.SetGlobalMode("ALL_WIN")
	require.NoError(t, err)

	// opened in the past so the trade is already due
	engine.SetClock(func() time.Time { return time.Now().Add(-10 * time.Minute) })
	opened, err := engine.OpenTrade(context.Background(), &service.OpenTradeRequest{
		UserID:    user.ID,
		Symbol:    "BTC",
		Direction: "BUY",
		Amount:    decimal.NewFromInt(10),
		Duration:  decimal.NewFromInt(120),
	})
	require.NoError(t, err)

	s, err := NewSettlementScheduler(engine, cfg, zap.NewNop())
	require.NoError(t, err)
	engine.SetScheduler(s)
	s.Start(context.Background())
	t.Cleanup(func() { s.Stop(time.Second) })

	assert.Eventually(t, func() bool {
		trade, err := trades.GetByID(opened.TradeID)
		return err == nil && trade.Status == models.TradeStatusWin
	}, 2*time.Second, 10*time.Millisecond)

	balance, err := ledger.Balance(user.ID, models.CoinUSDT)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(104)), balance.String())
}

var _ price.PriceOracle = fixedOracle{}
