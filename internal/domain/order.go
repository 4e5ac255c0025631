package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side of an order or trade.
type Side string

const (
	// SideBuy bid side.
	SideBuy Side = "buy"
	// SideSell ask side.
	SideSell Side = "sell"
)

// String returns the string representation.
func (s Side) String() string {
	return string(s)
}

// IsValid checks if the Side value is valid.
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// OrderState lifecycle state of a placed order.
type OrderState string

const (
	OrderStateOpen     OrderState = "open"
	OrderStateFilled   OrderState = "filled"
	OrderStateCanceled OrderState = "canceled"
)

// OrderIntent computed order, not yet submitted.
type OrderIntent struct {
	// Index 1-based position in the ladder, used for labeling only.
	Index  int
	Side   Side
	Price  decimal.Decimal
	Volume decimal.Decimal
}

// String returns a human-readable string representation.
func (o OrderIntent) String() string {
	return fmt.Sprintf("#%d %s volume|%s price|%s", o.Index, o.Side, o.Volume.String(), o.Price.String())
}

// PlacedOrder order as reported by the exchange.
type PlacedOrder struct {
	ID        string
	Pair      Pair
	Side      Side
	Type      string
	Price     decimal.Decimal
	Volume    decimal.Decimal
	State     OrderState
	CreatedAt time.Time
}
