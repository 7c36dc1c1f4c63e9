package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"crypto-tracker-go/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const vsCurrency = "usd"

var (
	// ErrOracleUnavailable indicates the price source could not be reached
	// or rejected the request (network failure, rate limit, server error).
	ErrOracleUnavailable = errors.New("price oracle unavailable")

	// ErrUnknownSymbol indicates the price source has no listing for the
	// requested coin symbol.
	ErrUnknownSymbol = errors.New("unknown coin symbol")
)

// OracleInterface defines the interface for the CoinGecko price oracle client.
type OracleInterface interface {
	Ping(ctx context.Context) error
	VerifySymbol(ctx context.Context, symbol string) error
	ResolvePrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, map[string]error, error)
}

// Client is a client for the CoinGecko REST API.
// It implements the OracleInterface.
//
// The client performs no retries: a failed call surfaces as
// ErrOracleUnavailable and retry policy belongs to the caller.
type Client struct {
	client    *resty.Client
	logger    *zap.Logger
	limiter   *rate.Limiter
	batchSize int

	mu          sync.RWMutex
	symbolIndex map[string]string // lower-cased symbol -> coingecko coin id
}

// ensure Client implements the interface
var _ OracleInterface = (*Client)(nil)

// NewClient creates a new CoinGecko REST API client.
func NewClient(cfg *config.CoinGecko, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	batchSize := cfg.MaxBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	return &Client{
		client:    client,
		logger:    logger,
		limiter:   limiter,
		batchSize: batchSize,
	}
}

// doRequest executes a single request with rate limiting and a bounded
// timeout. Unreachable, rate-limited or erroring upstream responses are
// all mapped to ErrOracleUnavailable.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	// A deadline spent waiting on the limiter is indistinguishable, to the
	// caller, from one spent on the wire.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter wait failed: %v", ErrOracleUnavailable, err)
	}

	c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
	resp, err := req.SetContext(ctx).Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	if resp.IsError() {
		if resp.StatusCode() == http.StatusTooManyRequests {
			c.logger.Warn("CoinGecko rate limit hit", zap.String("url", url))
		}
		return nil, fmt.Errorf("%w: status %s", ErrOracleUnavailable, resp.Status())
	}

	return resp, nil
}

// Ping checks connectivity to the CoinGecko API.
func (c *Client) Ping(ctx context.Context) error {
	req := c.client.R()
	if _, err := c.doRequest(ctx, "GET", "/ping", req); err != nil {
		return fmt.Errorf("failed to ping coingecko: %w", err)
	}
	return nil
}

// coinListEntry is a single row of the /coins/list response.
type coinListEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// lookupCoinID resolves a lower-cased symbol to a CoinGecko coin id,
// loading the coin index on first use. Major coins are matched against a
// curated table first: the full list contains many low-cap tokens reusing
// the same ticker, and the first list entry is not necessarily the one a
// user means by "BTC".
func (c *Client) lookupCoinID(ctx context.Context, symbol string) (string, error) {
	if id, ok := majorCoinIDs[symbol]; ok {
		return id, nil
	}

	c.mu.RLock()
	index := c.symbolIndex
	c.mu.RUnlock()

	if index == nil {
		var err error
		index, err = c.loadSymbolIndex(ctx)
		if err != nil {
			return "", err
		}
	}

	id, ok := index[symbol]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSymbol, strings.ToUpper(symbol))
	}
	return id, nil
}

// loadSymbolIndex fetches the full coin list and caches a symbol -> id map
// for the lifetime of the client. Listings change rarely enough that the
// index is never refreshed.
func (c *Client) loadSymbolIndex(ctx context.Context) (map[string]string, error) {
	var entries []coinListEntry

	req := c.client.R().
		SetResult(&entries).
		SetHeader("Accept", "application/json")

	if _, err := c.doRequest(ctx, "GET", "/coins/list", req); err != nil {
		return nil, fmt.Errorf("failed to load coin list: %w", err)
	}

	index := make(map[string]string, len(entries))
	for _, e := range entries {
		symbol := strings.ToLower(e.Symbol)
		// First listing wins for duplicated tickers.
		if _, ok := index[symbol]; !ok {
			index[symbol] = e.ID
		}
	}

	c.mu.Lock()
	c.symbolIndex = index
	c.mu.Unlock()

	c.logger.Info("Cached CoinGecko coin index", zap.Int("count", len(index)))
	return index, nil
}

// VerifySymbol checks that a coin symbol is listed on CoinGecko. It returns
// ErrUnknownSymbol for unlisted symbols and ErrOracleUnavailable when the
// listing cannot be checked at all.
func (c *Client) VerifySymbol(ctx context.Context, symbol string) error {
	normalized := strings.ToLower(strings.TrimSpace(symbol))
	if normalized == "" {
		return fmt.Errorf("%w: empty symbol", ErrUnknownSymbol)
	}
	_, err := c.lookupCoinID(ctx, normalized)
	return err
}

// ResolvePrices resolves a set of coin symbols to current unit prices in
// one pass, sharding the lookup into batches of at most batchSize ids.
//
// The returned price map is keyed by upper-cased symbol. Symbols that could
// not be priced are reported in the second map with a per-symbol reason:
// ErrUnknownSymbol for unlisted symbols, ErrOracleUnavailable for symbols
// whose shard failed. A failed shard never invalidates successful shards.
// The call as a whole fails only when the coin index itself is unavailable.
func (c *Client) ResolvePrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, map[string]error, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	unresolved := make(map[string]error)

	// Map symbols to coin ids, deduplicating as we go.
	idToSymbol := make(map[string]string, len(symbols))
	var ids []string
	for _, s := range symbols {
		canonical := strings.ToUpper(strings.TrimSpace(s))
		if canonical == "" {
			continue
		}
		id, err := c.lookupCoinID(ctx, strings.ToLower(canonical))
		if err != nil {
			if errors.Is(err, ErrUnknownSymbol) {
				unresolved[canonical] = err
				continue
			}
			// Coin index unavailable: nothing can be resolved.
			return nil, nil, err
		}
		if _, ok := idToSymbol[id]; !ok {
			ids = append(ids, id)
		}
		idToSymbol[id] = canonical
	}

	for start := 0; start < len(ids); start += c.batchSize {
		end := start + c.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		shard := ids[start:end]

		shardPrices, err := c.fetchSimplePrices(ctx, shard)
		if err != nil {
			c.logger.Warn("Price shard failed",
				zap.Int("shard_size", len(shard)),
				zap.Error(err),
			)
			for _, id := range shard {
				unresolved[idToSymbol[id]] = ErrOracleUnavailable
			}
			continue
		}

		for _, id := range shard {
			symbol := idToSymbol[id]
			price, ok := shardPrices[id]
			if !ok {
				// Listed in the index but no longer quoted.
				unresolved[symbol] = fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
				continue
			}
			prices[symbol] = price
		}
	}

	return prices, unresolved, nil
}

// fetchSimplePrices performs one /simple/price call for a batch of coin ids.
func (c *Client) fetchSimplePrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	var result map[string]map[string]decimal.Decimal

	req := c.client.R().
		SetResult(&result).
		SetQueryParam("ids", strings.Join(ids, ",")).
		SetQueryParam("vs_currencies", vsCurrency).
		SetHeader("Accept", "application/json")

	if _, err := c.doRequest(ctx, "GET", "/simple/price", req); err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(result))
	for id, quotes := range result {
		if price, ok := quotes[vsCurrency]; ok {
			prices[id] = price
		}
	}
	return prices, nil
}
