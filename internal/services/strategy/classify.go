package strategy

import (
	"time"

	"github.com/madmis/kuna-bot/internal/domain"
	"github.com/pkg/errors"
)

// DefaultRetryDelay delay attached to retryable gateway failures.
const DefaultRetryDelay = 10 * time.Second

// classifyBalanceErr translates a failed balance lookup: transient failures are retried,
// everything else stops the bot.
func classifyBalanceErr(err error, currency string, retryDelay time.Duration) error {
	err = errors.Wrapf(err, "failed to get %s balance", currency)
	if errors.Is(err, domain.ErrTransient) {
		return domain.NewRetryableError(err, retryDelay)
	}

	return domain.NewFatalError(err)
}

// classifyErr translates any other gateway failure. Transient failures and empty
// order books are retried, a pair the venue does not list stops the bot, the rest
// is returned wrapped for the controller to map.
func classifyErr(err error, retryDelay time.Duration, format string, args ...any) error {
	err = errors.Wrapf(err, format, args...)
	if errors.Is(err, domain.ErrTransient) || errors.Is(err, domain.ErrEmptyOrderBook) {
		return domain.NewRetryableError(err, retryDelay)
	}
	if errors.Is(err, domain.ErrUnknownPair) {
		return domain.NewFatalError(err)
	}

	return err
}
