package contracts

import (
	"errors"
	"fmt"
)

// Run-level errors (fatal for one market run)
var (
	ErrUnknownMarket   = errors.New("unknown market")
	ErrEmptyTickerList = errors.New("empty ticker list")
	ErrPersistence     = errors.New("persistence error")
)

// Ticker-level errors (recovered by exclusion)
var (
	ErrDataUnavailable = errors.New("data unavailable")
	ErrProviderError   = errors.New("provider error")
	ErrMalformedData   = errors.New("malformed data")
)

// FetchError wraps a per-ticker failure with its kind
type FetchError struct {
	Ticker string
	Kind   error // one of ErrDataUnavailable, ErrProviderError, ErrMalformedData
	Err    error
}

// NewFetchError builds a FetchError
func NewFetchError(ticker string, kind error, err error) *FetchError {
	return &FetchError{Ticker: ticker, Kind: kind, Err: err}
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Ticker, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Ticker, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf maps an error to the label written in run diagnostics
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrProviderError):
		return "provider_error"
	case errors.Is(err, ErrMalformedData):
		return "malformed_data"
	default:
		return "unknown"
	}
}

// IsRetryable reports whether a ticker fetch may be attempted again
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProviderError)
}
