package repository

import (
	"testing"

	"crypto-tracker-go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTest creates an isolated in-memory database per test.
func setupTest(t *testing.T) *TradeRepository {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.Trade{})
	assert.NoError(t, err)

	return NewTradeRepository(db)
}

func TestCreateAndListByUser(t *testing.T) {
	repo := setupTest(t)

	first := models.Trade{
		UserID:      "alice",
		CoinSymbol:  "BTC",
		Quantity:    decimal.RequireFromString("0.5"),
		AvgBuyPrice: decimal.RequireFromString("30000"),
	}
	second := models.Trade{
		UserID:      "alice",
		CoinSymbol:  "ETH",
		Quantity:    decimal.RequireFromString("2"),
		AvgBuyPrice: decimal.RequireFromString("1200"),
	}
	other := models.Trade{
		UserID:      "bob",
		CoinSymbol:  "SOL",
		Quantity:    decimal.RequireFromString("10"),
		AvgBuyPrice: decimal.RequireFromString("20"),
	}

	assert.NoError(t, repo.Create(&first))
	assert.NoError(t, repo.Create(&second))
	assert.NoError(t, repo.Create(&other))
	assert.NotZero(t, first.ID)

	trades, err := repo.ListByUser("alice")
	assert.NoError(t, err)
	assert.Len(t, trades, 2)

	// Submission order and decimal round-trip survive persistence.
	assert.Equal(t, "BTC", trades[0].CoinSymbol)
	assert.Equal(t, "ETH", trades[1].CoinSymbol)
	assert.True(t, decimal.RequireFromString("0.5").Equal(trades[0].Quantity))
	assert.True(t, decimal.RequireFromString("30000").Equal(trades[0].AvgBuyPrice))
}

func TestListByUser_NoTrades(t *testing.T) {
	repo := setupTest(t)

	trades, err := repo.ListByUser("nobody")
	assert.NoError(t, err)
	assert.Empty(t, trades)
}
