package domain

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Gateway failure classes. Exchange gateways wrap venue errors with one of these
// so callers can classify failures without knowing the venue.
var (
	// ErrTransient network, rate limit or server side failure that may pass on its own.
	ErrTransient = errors.New("transient exchange failure")
	// ErrAuthentication invalid or missing credentials.
	ErrAuthentication = errors.New("exchange authentication failed")
	// ErrMalformed unexpected or unparsable data returned by the exchange.
	ErrMalformed = errors.New("malformed exchange data")
	// ErrOrderRejected the exchange refused to accept an order.
	ErrOrderRejected = errors.New("order rejected")
	// ErrEmptyOrderBook the requested order book side has no orders.
	ErrEmptyOrderBook = errors.New("order book side is empty")
	// ErrUnknownPair the pair identifier is not registered.
	ErrUnknownPair = errors.New("unknown pair")
)

// RetryableError abandons the current iteration; the loop resumes after Delay.
type RetryableError struct {
	Delay time.Duration
	Err   error
}

// NewRetryableError wraps err into a RetryableError with the given delay.
func NewRetryableError(err error, delay time.Duration) *RetryableError {
	return &RetryableError{Delay: delay, Err: err}
}

func (e *RetryableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("retry after %s", e.Delay)
	}
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// StopError stops the bot without treating it as a crash.
type StopError struct {
	Reason string
}

// NewStopError returns a StopError with the given reason.
func NewStopError(reason string) *StopError {
	return &StopError{Reason: reason}
}

func (e *StopError) Error() string {
	if e.Reason == "" {
		return "stop bot"
	}
	return e.Reason
}

// FatalError is an unexpected failure after which the bot must not continue.
type FatalError struct {
	Err error
}

// NewFatalError wraps err into a FatalError.
func NewFatalError(err error) *FatalError {
	return &FatalError{Err: err}
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return "fatal failure"
	}
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
