package price

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrPriceUnavailable = errors.New("price unavailable")
)

// PriceOracle returns current USD spot prices
type PriceOracle interface {
	GetSpotPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	PriceOrFallback(ctx context.Context, symbol string) (decimal.Decimal, bool)
}

type memEntry struct {
	price decimal.Decimal
	at    time.Time
}

// Oracle looks prices up in memory, then the shared cache, then the live source
type Oracle struct {
	source  QuoteSource
	cache   Cache
	logger  *zap.Logger
	timeout time.Duration
	ttl     time.Duration

	mem    map[string]memEntry
	memMux sync.RWMutex
	now    func() time.Time
}

var _ PriceOracle = (*Oracle)(nil)

// NewOracle creates an Oracle. source and cache may be nil.
func NewOracle(source QuoteSource, cache Cache, timeout, ttl time.Duration, logger *zap.Logger) *Oracle {
	return &Oracle{
		source:  source,
		cache:   cache,
		logger:  logger,
		timeout: timeout,
		ttl:     ttl,
		mem:     make(map[string]memEntry),
		now:     time.Now,
	}
}

// GetSpotPrice returns the live or cached price of symbol
func (o *Oracle) GetSpotPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if symbol == "USDT" {
		return decimal.NewFromInt(1), nil
	}
	prices, err := o.lookup(ctx, []string{symbol})
	if err != nil {
		return decimal.Zero, err
	}
	p, ok := prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
	}
	return p, nil
}

// PriceOrFallback never fails; it reports whether the fallback table was used
func (o *Oracle) PriceOrFallback(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	p, err := o.GetSpotPrice(ctx, symbol)
	if err != nil {
		o.logger.Warn("Using fallback price", zap.String("symbol", symbol), zap.Error(err))
		return Fallback(symbol), true
	}
	return p, false
}

// Prices returns a price for every symbol, falling back per symbol
func (o *Oracle) Prices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(symbols))
	var want []string
	for _, s := range symbols {
		if s == "USDT" {
			out[s] = decimal.NewFromInt(1)
			continue
		}
		want = append(want, s)
	}

	found, err := o.lookup(ctx, want)
	if err != nil {
		o.logger.Warn("Price lookup failed", zap.Strings("symbols", want), zap.Error(err))
	}
	for _, s := range want {
		if p, ok := found[s]; ok {
			out[s] = p
		} else {
			out[s] = Fallback(s)
		}
	}
	return out
}

// lookup resolves symbols through each layer. It returns what it found
// together with the source error, if the source was needed and failed.
func (o *Oracle) lookup(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	found := make(map[string]decimal.Decimal, len(symbols))
	var misses []string

	o.memMux.RLock()
	for _, s := range symbols {
		if e, ok := o.mem[s]; ok && o.now().Sub(e.at) < o.ttl {
			found[s] = e.price
		} else {
			misses = append(misses, s)
		}
	}
	o.memMux.RUnlock()
	if len(misses) == 0 {
		return found, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if o.cache != nil {
		var remaining []string
		for _, s := range misses {
			p, ok, err := o.cache.Get(ctx, s)
			if err != nil {
				o.logger.Debug("Price cache read failed", zap.String("symbol", s), zap.Error(err))
			}
			if ok {
				found[s] = p
				o.remember(s, p)
				continue
			}
			remaining = append(remaining, s)
		}
		misses = remaining
	}
	if len(misses) == 0 {
		return found, nil
	}

	if o.source == nil {
		return found, ErrPriceUnavailable
	}
	live, err := o.source.Quotes(ctx, misses)
	if err != nil {
		return found, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	for _, s := range misses {
		p, ok := live[s]
		if !ok {
			continue
		}
		found[s] = p
		o.remember(s, p)
		if o.cache != nil {
			if err := o.cache.Set(ctx, s, p, o.ttl); err != nil {
				o.logger.Debug("Price cache write failed", zap.String("symbol", s), zap.Error(err))
			}
		}
	}
	return found, nil
}

func (o *Oracle) remember(symbol string, p decimal.Decimal) {
	o.memMux.Lock()
	o.mem[symbol] = memEntry{price: p, at: o.now()}
	o.memMux.Unlock()
}
