package worker

import (
	"context"
	"sync"
	"time"

	"github.com/novachain/backend/internal/config"
	"github.com/novachain/backend/internal/models"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Settler settles trades and lists the ones still open
type Settler interface {
	SettleTrade(ctx context.Context, tradeID string) (*models.Trade, bool, error)
	PendingTrades(limit int) ([]models.Trade, error)
}

// SettlementScheduler fires a settlement for every trade once it is due.
// Timers are held in memory; a periodic sweep re-arms pending trades so
// nothing is lost across restarts.
type SettlementScheduler struct {
	settler  Settler
	pool     *ants.Pool
	interval time.Duration
	batch    int
	logger   *zap.Logger

	mu       sync.Mutex
	timers   map[string]*time.Timer
	stopped  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	now func() time.Time
}

// NewSettlementScheduler creates a scheduler running settlements on a pool of
// cfg.PoolSize goroutines
func NewSettlementScheduler(settler Settler, cfg config.TradeConfig, logger *zap.Logger) (*SettlementScheduler, error) {
	size := cfg.PoolSize
	if size <= 0 {
		size = 64
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	batch := cfg.SweepBatch
	if batch <= 0 {
		batch = 500
	}

	return &SettlementScheduler{
		settler:  settler,
		pool:     pool,
		interval: interval,
		batch:    batch,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
		stopChan: make(chan struct{}),
		now:      time.Now,
	}, nil
}

// Schedule arms a timer for tradeID. Overdue trades fire immediately and a
// trade already armed is left alone.
func (s *SettlementScheduler) Schedule(tradeID string, dueAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if _, ok := s.timers[tradeID]; ok {
		return
	}

	delay := dueAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	s.timers[tradeID] = time.AfterFunc(delay, func() { s.fire(tradeID) })
}

// Pending returns the number of armed timers
func (s *SettlementScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *SettlementScheduler) fire(tradeID string) {
	s.mu.Lock()
	delete(s.timers, tradeID)
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return
	}

	if err := s.pool.Submit(func() { s.settle(tradeID) }); err != nil {
		// picked up again by the next sweep
		s.logger.Warn("Settlement not submitted",
			zap.String("trade_id", tradeID),
			zap.Error(err),
		)
	}
}

func (s *SettlementScheduler) settle(tradeID string) {
	trade, settled, err := s.settler.SettleTrade(context.Background(), tradeID)
	if err != nil {
		s.logger.Error("Failed to settle trade",
			zap.String("trade_id", tradeID),
			zap.Error(err),
		)
		return
	}
	if settled {
		s.logger.Debug("Trade settled by scheduler",
			zap.String("trade_id", tradeID),
			zap.String("result", string(trade.Status)),
		)
	}
}

// Start re-arms every pending trade and then sweeps on an interval until ctx
// is done or Stop is called
func (s *SettlementScheduler) Start(ctx context.Context) {
	s.logger.Info("Settlement scheduler started", zap.Duration("sweep_interval", s.interval))
	s.sweep()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			}
		}
	}()
}

func (s *SettlementScheduler) sweep() {
	trades, err := s.settler.PendingTrades(s.batch)
	if err != nil {
		s.logger.Error("Settlement sweep failed", zap.Error(err))
		return
	}
	for _, t := range trades {
		s.Schedule(t.ID, t.DueAt)
	}
	if len(trades) > 0 {
		s.logger.Debug("Settlement sweep", zap.Int("pending", len(trades)))
	}
}

// Stop cancels armed timers and waits up to timeout for running settlements
func (s *SettlementScheduler) Stop(timeout time.Duration) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		s.logger.Warn("Settlement pool did not drain", zap.Error(err))
	}
	s.logger.Info("Settlement scheduler stopped")
}
