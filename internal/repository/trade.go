package repository

import (
	"fmt"

	"crypto-tracker-go/internal/models"
	"gorm.io/gorm"
)

// TradeRepository provides read/write access to recorded trades.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new trade repository.
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create persists a new trade record.
func (r *TradeRepository) Create(trade *models.Trade) error {
	if err := r.db.Create(trade).Error; err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

// ListByUser returns all trades owned by a user in submission order.
func (r *TradeRepository) ListByUser(userID string) ([]models.Trade, error) {
	var trades []models.Trade
	if err := r.db.Where("user_id = ?", userID).Order("id asc").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to list trades for user: %w", err)
	}
	return trades, nil
}
