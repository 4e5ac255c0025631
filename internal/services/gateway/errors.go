// Package gateway implements the exchange gateways used by the strategies.
package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2/common"
	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/madmis/kuna-bot/internal/domain"
)

var (
	binanceAuthCodes = map[int64]bool{
		-2014: true, // API key format invalid
		-2015: true, // invalid API key, IP or permissions
		-1022: true, // invalid signature
	}
	binanceTransientCodes = map[int64]bool{
		-1001: true, // internal disconnect
		-1003: true, // too many requests
		-1007: true, // backend timeout
		-1015: true, // too many new orders
	}
	binanceRejectCodes = map[int64]bool{
		-1013: true, // filter failure
		-2010: true, // new order rejected
		-2011: true, // cancel rejected
	}
	binanceUnknownPairCodes = map[int64]bool{
		-1121: true, // invalid symbol
	}

	bybitAuthCodes = map[int]bool{
		10003: true, // invalid API key
		10004: true, // invalid signature
		10005: true, // permission denied
	}
	bybitTransientCodes = map[int]bool{
		10006: true, // rate limit
		10016: true, // server error
	}
	bybitRejectCodes = map[int]bool{
		170131: true, // insufficient balance
		170136: true, // order quantity too low
		170140: true, // order value too low
		170213: true, // order does not exist
	}
	bybitUnknownPairCodes = map[int]bool{
		170121: true, // invalid symbol
	}
)

// bybitParamsErrCode generic params error, also returned for an unlisted symbol.
const bybitParamsErrCode = 10001

// classifyBinanceErr wraps a go-binance failure with the matching domain sentinel.
func classifyBinanceErr(err error, msg string) error {
	if err == nil {
		return nil
	}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch {
		case binanceAuthCodes[apiErr.Code]:
			return wrapSentinel(domain.ErrAuthentication, err, msg)
		case binanceTransientCodes[apiErr.Code]:
			return wrapSentinel(domain.ErrTransient, err, msg)
		case binanceRejectCodes[apiErr.Code]:
			return wrapSentinel(domain.ErrOrderRejected, err, msg)
		case binanceUnknownPairCodes[apiErr.Code]:
			return wrapSentinel(domain.ErrUnknownPair, err, msg)
		case !apiErr.IsValid():
			// non-JSON body, usually a gateway or proxy error page
			return wrapSentinel(domain.ErrTransient, err, msg)
		}
		return errors.Wrap(err, msg)
	}

	return classifyTransport(err, msg)
}

// classifyBybitErr wraps a bybit failure with the matching domain sentinel.
func classifyBybitErr(err error, msg string) error {
	if err == nil {
		return nil
	}

	var rateErr *bybit.RateLimitV5Error
	if errors.As(err, &rateErr) {
		return wrapSentinel(domain.ErrTransient, err, msg)
	}

	var respErr *bybit.ErrorResponse
	if errors.As(err, &respErr) {
		switch {
		case bybitAuthCodes[respErr.RetCode]:
			return wrapSentinel(domain.ErrAuthentication, err, msg)
		case bybitTransientCodes[respErr.RetCode]:
			return wrapSentinel(domain.ErrTransient, err, msg)
		case bybitRejectCodes[respErr.RetCode]:
			return wrapSentinel(domain.ErrOrderRejected, err, msg)
		case bybitUnknownPairCodes[respErr.RetCode],
			respErr.RetCode == bybitParamsErrCode && strings.Contains(strings.ToLower(respErr.RetMsg), "symbol"):
			return wrapSentinel(domain.ErrUnknownPair, err, msg)
		}
		return errors.Wrap(err, msg)
	}

	if errors.Is(err, bybit.ErrInvalidRequest) || errors.Is(err, bybit.ErrForbiddenRequest) {
		return wrapSentinel(domain.ErrAuthentication, err, msg)
	}

	// the client reports other statuses only as text
	var status int
	if _, scanErr := fmt.Sscanf(err.Error(), "unexpected status code %d", &status); scanErr == nil && transientStatus(status) {
		return wrapSentinel(domain.ErrTransient, err, msg)
	}

	return classifyTransport(err, msg)
}

// classifyTransport handles failures raised below the venue API layer.
func classifyTransport(err error, msg string) error {
	// checked before net.Error: *url.Error implements it and wraps status errors
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case authStatus(statusErr.StatusCode):
			return wrapSentinel(domain.ErrAuthentication, err, msg)
		case transientStatus(statusErr.StatusCode):
			return wrapSentinel(domain.ErrTransient, err, msg)
		}
		return errors.Wrap(err, msg)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrapSentinel(domain.ErrTransient, err, msg)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return wrapSentinel(domain.ErrMalformed, err, msg)
	}

	return errors.Wrap(err, msg)
}

// httpStatusError response status the venue client does not expose itself.
type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// statusTransport turns authentication and server failure responses into
// *httpStatusError before the venue client parses the body.
type statusTransport struct {
	next http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if !authStatus(resp.StatusCode) && !transientStatus(resp.StatusCode) {
		return resp, nil
	}

	defer resp.Body.Close()
	body := make([]byte, 512)
	n, _ := io.ReadFull(resp.Body, body)

	return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body[:n]))}
}

// withStatusTransport returns a copy of c whose transport reports failure statuses.
func withStatusTransport(c *http.Client) *http.Client {
	if c == nil {
		c = http.DefaultClient
	}
	next := c.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	if _, ok := next.(*statusTransport); ok {
		return c
	}

	wrapped := *c
	wrapped.Transport = &statusTransport{next: next}

	return &wrapped
}

func authStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// sentinelError keeps both the sentinel and the venue error reachable through errors.Is/As.
type sentinelError struct {
	sentinel error
	cause    error
}

func (e *sentinelError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *sentinelError) Unwrap() []error {
	return []error{e.sentinel, e.cause}
}

func wrapSentinel(sentinel, cause error, msg string) error {
	return errors.WithMessage(&sentinelError{sentinel: sentinel, cause: cause}, msg)
}

// parseDecimal parses a venue number, empty strings are zero.
func parseDecimal(value, field string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.Wrapf(domain.ErrMalformed, "field %s: %q is not a number", field, value)
	}

	return d, nil
}

func parseMillis(value, field string) (int64, error) {
	if value == "" {
		return 0, nil
	}

	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(domain.ErrMalformed, "field %s: %q is not a timestamp", field, value)
	}

	return ms, nil
}
