package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookLevel best resting order on one side of the order book.
type BookLevel struct {
	// ID exchange order id; empty when the venue publishes aggregated levels only.
	ID     string
	Price  decimal.Decimal
	Volume decimal.Decimal
}

// Matches reports whether the order rests at this book level.
// Orders are compared by id when the level carries one, by price otherwise.
func (l BookLevel) Matches(order PlacedOrder) bool {
	if l.ID != "" {
		return l.ID == order.ID
	}
	return l.Price.Equal(order.Price)
}

// Ticker 24h market statistics of a pair.
type Ticker struct {
	High decimal.Decimal
	Low  decimal.Decimal
	Last decimal.Decimal
	// Buy best bid reported by the ticker.
	Buy decimal.Decimal
	// Sell best ask reported by the ticker.
	Sell decimal.Decimal
}

// Trade own executed trade.
type Trade struct {
	ID         string
	OrderID    string
	Side       Side
	Price      decimal.Decimal
	Volume     decimal.Decimal
	ExecutedAt time.Time
}

// LatestTrade returns the first trade on the given side of a newest-first history.
func LatestTrade(history []Trade, side Side) (Trade, bool) {
	for _, t := range history {
		if t.Side == side {
			return t, true
		}
	}
	return Trade{}, false
}
