package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"crypto-tracker-go/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a Client configured to use it.
func setupTestServer(handler http.Handler, batchSize int) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	client := resty.New().SetBaseURL(server.URL)
	logger := zap.NewNop() // Use a no-op logger for tests

	c := &Client{
		client:    client,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
		batchSize: batchSize,
	}

	return c, server
}

func TestPing(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/ping", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"gecko_says":"(V3) To the Moon!"}`))
		})

		c, server := setupTestServer(handler, 100)
		defer server.Close()

		err := c.Ping(context.Background())
		assert.NoError(t, err)
	})

	t.Run("APIError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		c, server := setupTestServer(handler, 100)
		defer server.Close()

		err := c.Ping(context.Background())
		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrOracleUnavailable)
	})

	t.Run("LimiterWaitTimeout", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		c, server := setupTestServer(handler, 100)
		defer server.Close()

		// Drain the burst so the next request would have to wait an hour,
		// far past the context deadline. A timeout spent pacing counts as
		// the oracle being unavailable, same as one spent on the wire.
		c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
		assert.True(t, c.limiter.Allow())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := c.Ping(ctx)
		assert.ErrorIs(t, err, ErrOracleUnavailable)
	})
}

func TestResolvePrices_Success(t *testing.T) {
	var priceCalls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		atomic.AddInt32(&priceCalls, 1)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":35000},"ethereum":{"usd":1500.25}}`))
	})

	c, server := setupTestServer(handler, 100)
	defer server.Close()

	prices, unresolved, err := c.ResolvePrices(context.Background(), []string{"btc", "ETH", "BTC"})

	assert.NoError(t, err)
	assert.Empty(t, unresolved)
	// Major coins resolve through the curated table, no /coins/list call,
	// and the duplicated BTC collapses into one lookup.
	assert.Equal(t, int32(1), atomic.LoadInt32(&priceCalls))
	assert.True(t, decimal.NewFromInt(35000).Equal(prices["BTC"]))
	assert.True(t, decimal.RequireFromString("1500.25").Equal(prices["ETH"]))
}

func TestResolvePrices_UnknownSymbol(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/coins/list":
			_, _ = w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin"}]`))
		case "/simple/price":
			_, _ = w.Write([]byte(`{"bitcoin":{"usd":35000}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	c, server := setupTestServer(handler, 100)
	defer server.Close()

	prices, unresolved, err := c.ResolvePrices(context.Background(), []string{"BTC", "NOPE"})

	assert.NoError(t, err)
	assert.Len(t, prices, 1)
	assert.ErrorIs(t, unresolved["NOPE"], ErrUnknownSymbol)
}

func TestResolvePrices_IndexUnavailable(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c, server := setupTestServer(handler, 100)
	defer server.Close()

	// A non-curated symbol forces a /coins/list load, which fails and
	// takes the whole resolve down with it.
	_, _, err := c.ResolvePrices(context.Background(), []string{"OBSCURE"})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrOracleUnavailable)
}

func TestResolvePrices_ShardPartialFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		ids := r.URL.Query().Get("ids")
		if ids == "bitcoin" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ethereum":{"usd":1500}}`))
	})

	// batchSize of 1 forces one shard per symbol.
	c, server := setupTestServer(handler, 1)
	defer server.Close()

	prices, unresolved, err := c.ResolvePrices(context.Background(), []string{"BTC", "ETH"})

	// The failed BTC shard must not invalidate the ETH shard.
	assert.NoError(t, err)
	assert.ErrorIs(t, unresolved["BTC"], ErrOracleUnavailable)
	assert.True(t, decimal.NewFromInt(1500).Equal(prices["ETH"]))
}

func TestResolvePrices_DelistedSymbol(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// BTC is requested but absent from the quote response.
		_, _ = w.Write([]byte(`{}`))
	})

	c, server := setupTestServer(handler, 100)
	defer server.Close()

	prices, unresolved, err := c.ResolvePrices(context.Background(), []string{"BTC"})

	assert.NoError(t, err)
	assert.Empty(t, prices)
	assert.ErrorIs(t, unresolved["BTC"], ErrUnknownSymbol)
}

func TestVerifySymbol(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/list", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"smallcoin","symbol":"sml","name":"Smallcoin"}]`))
	})

	c, server := setupTestServer(handler, 100)
	defer server.Close()

	ctx := context.Background()

	assert.NoError(t, c.VerifySymbol(ctx, "BTC")) // curated, no index needed
	assert.NoError(t, c.VerifySymbol(ctx, " sml "))
	assert.ErrorIs(t, c.VerifySymbol(ctx, "NOPE"), ErrUnknownSymbol)
	assert.ErrorIs(t, c.VerifySymbol(ctx, ""), ErrUnknownSymbol)
}

func TestNewClient_BatchSizeDefault(t *testing.T) {
	cfg := &config.CoinGecko{BaseURL: "https://api.coingecko.com/api/v3", TimeoutSeconds: 10}
	c := NewClient(cfg, zap.NewNop())
	assert.NotNil(t, c)
	assert.Equal(t, 100, c.batchSize)
}
