package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	// KindTransient marks failures worth retrying (5xx, 429, timeouts).
	KindTransient ErrorKind = "transient"
	// KindInvalidTicker marks tickers the provider does not know.
	KindInvalidTicker ErrorKind = "invalid_ticker"
)

// Error is a typed failure from the provider. A trading day with no data is
// not an Error: GetDailyBars returns an empty slice instead.
type Error struct {
	Ticker string
	Kind   ErrorKind
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s [%s]: %v", e.Ticker, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindTransient
}

// IsInvalidTicker reports whether err means the ticker does not exist.
func IsInvalidTicker(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindInvalidTicker
}
