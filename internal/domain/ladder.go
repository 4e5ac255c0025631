package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Scale number of fractional digits kept by all order arithmetic.
// Results are truncated, never rounded up, so order volumes never exceed the balance.
const Scale int32 = 6

// TruncationPolicy decides which margins remain when the balance is below the boundary.
type TruncationPolicy string

const (
	// KeepFirstMargin places a single order at the first margin.
	KeepFirstMargin TruncationPolicy = "keep_first"
	// DropFirstMargin removes the first margin and keeps the rest.
	// A one-element ladder is left untouched.
	DropFirstMargin TruncationPolicy = "drop_first"
)

// ParseTruncationPolicy parses a policy name, empty means KeepFirstMargin.
func ParseTruncationPolicy(s string) (TruncationPolicy, error) {
	switch TruncationPolicy(s) {
	case "", KeepFirstMargin:
		return KeepFirstMargin, nil
	case DropFirstMargin:
		return DropFirstMargin, nil
	default:
		return "", errors.Errorf("unknown below boundary policy %q", s)
	}
}

func (p TruncationPolicy) truncate(margins []decimal.Decimal) []decimal.Decimal {
	if len(margins) <= 1 {
		return margins
	}
	if p == DropFirstMargin {
		return margins[1:]
	}
	return margins[:1]
}

// LadderInput parameters of a single ladder computation.
type LadderInput struct {
	// Balance available funds of the currency being spent.
	Balance decimal.Decimal
	// MinAmount minimum trade amount of that currency.
	MinAmount decimal.Decimal
	// ReferencePrice price the margins are added to.
	ReferencePrice decimal.Decimal
	// Boundary balance below which the ladder is truncated.
	Boundary decimal.Decimal
	// Margins signed price offsets, in placement order.
	Margins []decimal.Decimal
	// Side of the orders. Buy volumes are converted from quote to base currency.
	Side   Side
	Policy TruncationPolicy
}

// Ladder result of a ladder computation.
type Ladder struct {
	Intents []OrderIntent
	// BelowBoundary the margins were truncated by the policy.
	BelowBoundary bool
	// Collapsed the per-order volume was below the minimum so one order carries the full balance.
	Collapsed bool
}

// BuildLadder turns a balance and a margin ladder into order intents.
func BuildLadder(in LadderInput) (Ladder, error) {
	var ladder Ladder

	margins := in.Margins
	if len(margins) == 0 {
		return ladder, nil
	}

	if in.Balance.LessThan(in.Boundary) {
		margins = in.Policy.truncate(margins)
		ladder.BelowBoundary = true
	}

	volume := in.Balance.Div(decimal.NewFromInt(int64(len(margins)))).Truncate(Scale)
	if len(margins) > 1 && volume.LessThan(in.MinAmount) {
		margins = margins[:1]
		volume = in.Balance.Truncate(Scale)
		ladder.Collapsed = true
	}

	ladder.Intents = make([]OrderIntent, 0, len(margins))
	for i, margin := range margins {
		price := in.ReferencePrice.Add(margin).Truncate(Scale)
		if !price.IsPositive() {
			return Ladder{}, errors.Errorf("order #%d: price %s is not positive (reference %s, margin %s)",
				i+1, price.String(), in.ReferencePrice.String(), margin.String())
		}

		orderVolume := volume
		if in.Side == SideBuy {
			orderVolume = volume.Div(price).Truncate(Scale)
		}

		ladder.Intents = append(ladder.Intents, OrderIntent{
			Index:  i + 1,
			Side:   in.Side,
			Price:  price,
			Volume: orderVolume,
		})
	}

	return ladder, nil
}

// AllowedBuyPrice highest price at which buying is permitted: the middle of the day's range.
func AllowedBuyPrice(t Ticker) decimal.Decimal {
	half := t.High.Sub(t.Low).Mul(decimal.RequireFromString("0.5")).Truncate(Scale)
	return half.Add(t.Low).Truncate(Scale)
}

// SideConfig ladder settings of one side of the pair.
type SideConfig struct {
	// Boundary balance below which the ladder is truncated.
	Boundary decimal.Decimal
	Margins  []decimal.Decimal
}
