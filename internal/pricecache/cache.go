package pricecache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"crypto-tracker-go/internal/coingecko"
	"crypto-tracker-go/internal/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrPriceUnavailable indicates no fresh price could be fetched and no
// cached quote young enough to serve as a fallback exists.
var ErrPriceUnavailable = errors.New("no usable price for symbol")

// Quote is a point-in-time unit price for a coin symbol. Stale is set when
// the quote was served from cache past its freshness window because a live
// fetch failed.
type Quote struct {
	Symbol    string
	Price     decimal.Decimal
	FetchedAt time.Time
	Stale     bool
}

// PriceResolver is the subset of the oracle client the cache depends on.
type PriceResolver interface {
	ResolvePrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, map[string]error, error)
}

// Cache is a process-wide, short-TTL price store shared by all analysis
// requests. Quotes within the freshness window are served without touching
// the oracle; quotes older than that but within the staleness ceiling are
// served as a fallback when a live fetch fails.
type Cache struct {
	logger           *zap.Logger
	oracle           PriceResolver
	freshnessWindow  time.Duration
	stalenessCeiling time.Duration
	now              func() time.Time

	mu      sync.RWMutex
	entries map[string]Quote
}

// NewCache creates a new price cache backed by the given oracle.
func NewCache(cfg *config.Cache, oracle PriceResolver, logger *zap.Logger) *Cache {
	return &Cache{
		logger:           logger,
		oracle:           oracle,
		freshnessWindow:  time.Duration(cfg.FreshnessWindowSeconds) * time.Second,
		stalenessCeiling: time.Duration(cfg.StalenessCeilingSeconds) * time.Second,
		now:              time.Now,
		entries:          make(map[string]Quote),
	}
}

// GetOrFetch resolves the given symbols to quotes, cache-first. Symbols
// that could not be resolved at all are reported in the second map with a
// per-symbol reason and are absent from the first.
//
// All cache misses are resolved through a single batched oracle call.
func (c *Cache) GetOrFetch(ctx context.Context, symbols []string) (map[string]Quote, map[string]error) {
	quotes := make(map[string]Quote, len(symbols))
	unresolved := make(map[string]error)

	var misses []string
	seen := make(map[string]struct{}, len(symbols))
	c.mu.RLock()
	for _, s := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(s))
		if symbol == "" {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		if entry, ok := c.entries[symbol]; ok && c.now().Sub(entry.FetchedAt) <= c.freshnessWindow {
			quotes[symbol] = entry
			continue
		}
		misses = append(misses, symbol)
	}
	c.mu.RUnlock()

	if len(misses) == 0 {
		return quotes, unresolved
	}

	prices, failed, err := c.oracle.ResolvePrices(ctx, misses)
	if err != nil {
		// Whole batch failed, fall back for every miss.
		c.logger.Warn("Price fetch failed, falling back to cached quotes",
			zap.Int("symbols", len(misses)),
			zap.Error(err),
		)
		for _, symbol := range misses {
			c.fallback(symbol, quotes, unresolved)
		}
		return quotes, unresolved
	}

	fetchedAt := c.now()
	c.mu.Lock()
	for symbol, price := range prices {
		c.entries[symbol] = Quote{
			Symbol:    symbol,
			Price:     price,
			FetchedAt: fetchedAt,
		}
	}
	c.mu.Unlock()

	for _, symbol := range misses {
		if price, ok := prices[symbol]; ok {
			quotes[symbol] = Quote{Symbol: symbol, Price: price, FetchedAt: fetchedAt}
			continue
		}
		reason, ok := failed[symbol]
		if !ok || errors.Is(reason, coingecko.ErrOracleUnavailable) {
			c.fallback(symbol, quotes, unresolved)
			continue
		}
		// Unknown symbol or similar terminal reason, no fallback applies.
		unresolved[symbol] = reason
	}

	return quotes, unresolved
}

// fallback serves a cached quote past its freshness window, up to the
// staleness ceiling, marking it stale. Without a usable cached quote the
// symbol is reported unresolved.
func (c *Cache) fallback(symbol string, quotes map[string]Quote, unresolved map[string]error) {
	c.mu.RLock()
	entry, ok := c.entries[symbol]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.FetchedAt) <= c.stalenessCeiling {
		entry.Stale = true
		quotes[symbol] = entry
		c.logger.Warn("Serving stale cached price",
			zap.String("symbol", symbol),
			zap.Time("fetched_at", entry.FetchedAt),
		)
		return
	}

	unresolved[symbol] = ErrPriceUnavailable
}
