package strategy

import (
	"context"
	"strings"
	"time"

	"github.com/madmis/kuna-bot/internal/domain"
	"go.uber.org/zap"
)

// OrderSubmitter places computed orders and logs what the exchange accepted.
type OrderSubmitter struct {
	gateway    orderPlacer
	pair       domain.Pair
	retryDelay time.Duration
	l          *zap.Logger
}

// NewOrderSubmitter creates an OrderSubmitter for the pair.
func NewOrderSubmitter(l *zap.Logger, gateway orderPlacer, pair domain.Pair, retryDelay time.Duration) *OrderSubmitter {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	return &OrderSubmitter{gateway: gateway, pair: pair, retryDelay: retryDelay, l: l}
}

// Submit places intents in order and stops at the first failure.
func (s *OrderSubmitter) Submit(ctx context.Context, intents []domain.OrderIntent) ([]domain.PlacedOrder, error) {
	placed := make([]domain.PlacedOrder, 0, len(intents))
	for _, intent := range intents {
		order, err := s.gateway.PlaceOrder(ctx, s.pair, intent.Side, intent.Volume, intent.Price)
		if err != nil {
			return placed, classifyErr(err, s.retryDelay, "failed to place %s", intent.String())
		}

		s.l.Info("Order created",
			zap.Int("order", intent.Index),
			zap.String("id", order.ID),
			zap.String("type", order.Type),
			zap.String("price", order.Price.String()),
			zap.String("side", strings.ToUpper(order.Side.String())),
			zap.String("state", string(order.State)),
			zap.String("volume", order.Volume.String()),
		)
		placed = append(placed, order)
	}

	return placed, nil
}
