package portfolio

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestAssembleAnalysis_RoundsPercentagesOnly(t *testing.T) {
	summary := &Summary{
		TotalPortfolioValue: decimal.RequireFromString("17500"),
		TotalProfitLoss:     decimal.RequireFromString("2500"),
		TotalPercentChange:  decPtr("16.666666666666666667"),
		TradeMetrics: []TradeMetric{
			{
				CoinSymbol:    "BTC",
				Quantity:      decimal.RequireFromString("0.5"),
				AvgBuyPrice:   decimal.RequireFromString("30000"),
				CurrentPrice:  decPtr("35000"),
				UnrealizedPnL: decPtr("2500"),
				PercentChange: decPtr("16.666666666666666667"),
			},
		},
	}

	resp := AssembleAnalysis(summary, 2)

	// Percentages carry the 2dp presentation rounding, half-up.
	assert.Equal(t, "16.67", resp.TotalPercentChange.String())
	assert.Equal(t, "16.67", resp.TradesAnalysis[0].PercentChange.String())
	// Monetary values pass through without rounding.
	assert.True(t, decimal.RequireFromString("2500").Equal(*resp.TradesAnalysis[0].UnrealizedPnL))
	assert.True(t, decimal.RequireFromString("17500").Equal(resp.TotalPortfolioValue))
}

func TestAssembleAnalysis_NullSentinels(t *testing.T) {
	summary := &Summary{
		TotalPortfolioValue: decimal.Zero,
		TotalProfitLoss:     decimal.Zero,
		TradeMetrics: []TradeMetric{
			{
				CoinSymbol:       "DUST",
				Quantity:         decimal.RequireFromString("1000"),
				AvgBuyPrice:      decimal.RequireFromString("1"),
				PriceUnavailable: true,
			},
		},
	}

	resp := AssembleAnalysis(summary, 2)

	payload, err := json.Marshal(resp)
	assert.NoError(t, err)

	// Unpriced fields serialize as explicit nulls, never omitted, and
	// the per-trade marker is surfaced.
	var decoded map[string]any
	assert.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Nil(t, decoded["total_percent_change"])

	items := decoded["trades_analysis"].([]any)
	item := items[0].(map[string]any)
	assert.Contains(t, item, "current_price")
	assert.Nil(t, item["current_price"])
	assert.Nil(t, item["unrealized_pnl"])
	assert.Nil(t, item["percent_change"])
	assert.Equal(t, true, item["price_unavailable"])
}
