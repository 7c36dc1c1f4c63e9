package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Trade represents a recorded purchase position owned by a user.
// Quantity and AvgBuyPrice are stored as decimals so valuation
// arithmetic stays exact.
type Trade struct {
	gorm.Model
	UserID      string          `gorm:"index;not null" json:"user_id"`
	CoinSymbol  string          `gorm:"index;not null" json:"coin_symbol"`
	Quantity    decimal.Decimal `gorm:"type:decimal(32,18);not null" json:"quantity"`
	AvgBuyPrice decimal.Decimal `gorm:"type:decimal(32,18);not null" json:"avg_buy_price"`
}
