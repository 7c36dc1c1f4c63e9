package portfolio

import "github.com/shopspring/decimal"

// TradeAnalysisItem is the external shape of a single trade's valuation.
// Nullable fields are pointers so unpriced trades serialize with explicit
// nulls rather than omitted fields or fabricated zeros.
type TradeAnalysisItem struct {
	CoinSymbol       string           `json:"coin_symbol"`
	Quantity         decimal.Decimal  `json:"quantity"`
	AvgBuyPrice      decimal.Decimal  `json:"avg_buy_price"`
	CurrentPrice     *decimal.Decimal `json:"current_price"`
	UnrealizedPnL    *decimal.Decimal `json:"unrealized_pnl"`
	PercentChange    *decimal.Decimal `json:"percent_change"`
	PriceUnavailable bool             `json:"price_unavailable"`
}

// AnalysisResponse is the external shape of a portfolio analysis.
type AnalysisResponse struct {
	TotalPortfolioValue decimal.Decimal     `json:"total_portfolio_value"`
	TotalProfitLoss     decimal.Decimal     `json:"total_profit_loss"`
	TotalPercentChange  *decimal.Decimal    `json:"total_percent_change"`
	TradesAnalysis      []TradeAnalysisItem `json:"trades_analysis"`
}

// AssembleAnalysis shapes a Summary into the response contract. Percent
// changes are rounded half-up to the given precision here, at the
// presentation boundary only; monetary values pass through exact.
func AssembleAnalysis(summary *Summary, percentPrecision int32) AnalysisResponse {
	resp := AnalysisResponse{
		TotalPortfolioValue: summary.TotalPortfolioValue,
		TotalProfitLoss:     summary.TotalProfitLoss,
		TotalPercentChange:  roundPtr(summary.TotalPercentChange, percentPrecision),
		TradesAnalysis:      make([]TradeAnalysisItem, 0, len(summary.TradeMetrics)),
	}

	for _, m := range summary.TradeMetrics {
		resp.TradesAnalysis = append(resp.TradesAnalysis, TradeAnalysisItem{
			CoinSymbol:       m.CoinSymbol,
			Quantity:         m.Quantity,
			AvgBuyPrice:      m.AvgBuyPrice,
			CurrentPrice:     m.CurrentPrice,
			UnrealizedPnL:    m.UnrealizedPnL,
			PercentChange:    roundPtr(m.PercentChange, percentPrecision),
			PriceUnavailable: m.PriceUnavailable,
		})
	}

	return resp
}

func roundPtr(d *decimal.Decimal, precision int32) *decimal.Decimal {
	if d == nil {
		return nil
	}
	rounded := d.Round(precision)
	return &rounded
}
