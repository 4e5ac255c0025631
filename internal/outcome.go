package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/madmis/kuna-bot/internal/domain"
	"github.com/pkg/errors"
)

// OutcomeKind what the loop does after a cycle.
type OutcomeKind int

const (
	// OutcomeContinue applies the steady delay and runs the next cycle.
	OutcomeContinue OutcomeKind = iota
	// OutcomeRetry applies the outcome delay instead of the steady delay.
	OutcomeRetry
	// OutcomeStop ends the loop without an error.
	OutcomeStop
	// OutcomeFatal ends the loop with the outcome error.
	OutcomeFatal
)

// String returns the string representation.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeRetry:
		return "retry"
	case OutcomeStop:
		return "stop"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// CycleOutcome result of a single iteration.
type CycleOutcome struct {
	Kind OutcomeKind
	// Delay before the next cycle, set for OutcomeRetry only.
	Delay time.Duration
	// Err failure the outcome was derived from, nil for a clean cycle.
	Err error
	// Malformed the exchange returned data of unexpected shape.
	Malformed bool
}

// Continue clean or recoverable cycle.
func Continue(err error) CycleOutcome {
	return CycleOutcome{Kind: OutcomeContinue, Err: err}
}

// RetryAfter abandoned cycle, next one starts after d.
func RetryAfter(d time.Duration, err error) CycleOutcome {
	return CycleOutcome{Kind: OutcomeRetry, Delay: d, Err: err}
}

// Stop terminal outcome that is not a crash.
func Stop(err error) CycleOutcome {
	return CycleOutcome{Kind: OutcomeStop, Err: err}
}

// Fatal terminal outcome caused by err.
func Fatal(err error) CycleOutcome {
	return CycleOutcome{Kind: OutcomeFatal, Err: err}
}

// Terminal reports whether the loop must end.
func (o CycleOutcome) Terminal() bool {
	return o.Kind == OutcomeStop || o.Kind == OutcomeFatal
}

// ClassifyCycleError maps a cycle error to its outcome.
// Authentication failures are fatal whatever they are wrapped in.
func ClassifyCycleError(err error) CycleOutcome {
	if err == nil {
		return Continue(nil)
	}

	if errors.Is(err, domain.ErrAuthentication) {
		return Fatal(err)
	}

	var stop *domain.StopError
	if errors.As(err, &stop) {
		return Stop(err)
	}

	var fatal *domain.FatalError
	if errors.As(err, &fatal) {
		return Fatal(err)
	}

	var retry *domain.RetryableError
	if errors.As(err, &retry) {
		return RetryAfter(retry.Delay, err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Stop(err)
	}

	outcome := Continue(err)
	outcome.Malformed = errors.Is(err, domain.ErrMalformed)

	return outcome
}
