package portfolio

import (
	"context"
	"errors"

	"crypto-tracker-go/internal/models"
	"crypto-tracker-go/internal/pricecache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNoTradesFound indicates the user has no recorded trades to analyze.
var ErrNoTradesFound = errors.New("no trades found")

// QuoteProvider is the subset of the price cache the analyzer depends on.
type QuoteProvider interface {
	GetOrFetch(ctx context.Context, symbols []string) (map[string]pricecache.Quote, map[string]error)
}

// TradeMetric holds the valuation of a single trade against the current
// market price. CurrentPrice, UnrealizedPnL and PercentChange are nil when
// the trade's symbol could not be priced; such trades are excluded from
// aggregate totals. PercentChange is also nil for a zero buy price.
type TradeMetric struct {
	CoinSymbol       string
	Quantity         decimal.Decimal
	AvgBuyPrice      decimal.Decimal
	CurrentPrice     *decimal.Decimal
	UnrealizedPnL    *decimal.Decimal
	PercentChange    *decimal.Decimal
	PriceUnavailable bool
}

// Summary is the aggregate valuation of a trade set. Totals cover only
// successfully priced trades; TotalPercentChange is nil when the priced
// cost basis is zero. All values are exact, rounding happens at assembly.
type Summary struct {
	TotalPortfolioValue decimal.Decimal
	TotalProfitLoss     decimal.Decimal
	TotalPercentChange  *decimal.Decimal
	TradeMetrics        []TradeMetric
}

// Analyzer computes portfolio valuations. It is pure given its inputs: the
// only side effects are reads through the injected quote provider.
type Analyzer struct {
	logger *zap.Logger
	quotes QuoteProvider
}

// NewAnalyzer creates a new portfolio analyzer.
func NewAnalyzer(quotes QuoteProvider, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		logger: logger,
		quotes: quotes,
	}
}

var hundred = decimal.NewFromInt(100)

// Analyze values every trade against current market prices and aggregates
// the result. Prices are resolved in one batched lookup over the distinct
// symbols of the trade set, so the number of resolved symbols is
// independent of the trade count. Output order mirrors input order.
func (a *Analyzer) Analyze(ctx context.Context, trades []models.Trade) (*Summary, error) {
	if len(trades) == 0 {
		return nil, ErrNoTradesFound
	}

	symbols := distinctSymbols(trades)
	quotes, unresolved := a.quotes.GetOrFetch(ctx, symbols)

	for symbol, reason := range unresolved {
		a.logger.Warn("Symbol unpriced, excluding its trades from totals",
			zap.String("symbol", symbol),
			zap.Error(reason),
		)
	}

	summary := &Summary{
		TotalPortfolioValue: decimal.Zero,
		TotalProfitLoss:     decimal.Zero,
		TradeMetrics:        make([]TradeMetric, 0, len(trades)),
	}
	totalCostBasis := decimal.Zero

	for _, trade := range trades {
		metric := TradeMetric{
			CoinSymbol:  trade.CoinSymbol,
			Quantity:    trade.Quantity,
			AvgBuyPrice: trade.AvgBuyPrice,
		}

		quote, priced := quotes[trade.CoinSymbol]
		if !priced {
			metric.PriceUnavailable = true
			summary.TradeMetrics = append(summary.TradeMetrics, metric)
			continue
		}

		currentPrice := quote.Price
		costBasis := trade.Quantity.Mul(trade.AvgBuyPrice)
		currentValue := trade.Quantity.Mul(currentPrice)
		pnl := currentValue.Sub(costBasis)

		metric.CurrentPrice = &currentPrice
		metric.UnrealizedPnL = &pnl
		if !trade.AvgBuyPrice.IsZero() {
			pct := currentPrice.Sub(trade.AvgBuyPrice).Div(trade.AvgBuyPrice).Mul(hundred)
			metric.PercentChange = &pct
		}

		summary.TotalPortfolioValue = summary.TotalPortfolioValue.Add(currentValue)
		summary.TotalProfitLoss = summary.TotalProfitLoss.Add(pnl)
		totalCostBasis = totalCostBasis.Add(costBasis)

		summary.TradeMetrics = append(summary.TradeMetrics, metric)
	}

	if !totalCostBasis.IsZero() {
		totalPct := summary.TotalProfitLoss.Div(totalCostBasis).Mul(hundred)
		summary.TotalPercentChange = &totalPct
	}

	return summary, nil
}

// distinctSymbols collects the distinct coin symbols of a trade set,
// preserving first-seen order.
func distinctSymbols(trades []models.Trade) []string {
	seen := make(map[string]struct{}, len(trades))
	symbols := make([]string, 0, len(trades))
	for _, t := range trades {
		if _, ok := seen[t.CoinSymbol]; ok {
			continue
		}
		seen[t.CoinSymbol] = struct{}{}
		symbols = append(symbols, t.CoinSymbol)
	}
	return symbols
}
