package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Error taxonomy for the quote pipeline.
//
// A ProviderError is recovered locally by advancing to the next provider in
// the chain. ErrUnavailable means the whole chain was exhausted; callers
// skip the symbol for the cycle and keep going. Neither may ever stop a
// periodic job.
// -----------------------------------------------------------------------------

// ErrUnavailable is returned when every provider in the chain failed.
var ErrUnavailable = errors.New("quote unavailable: all providers exhausted")

// ErrRateLimited marks a provider that refused the call under its quota.
var ErrRateLimited = errors.New("provider rate limited")

// ErrNoData marks a well-formed response that carried nothing for the
// symbol. Distinguished from failures only in logs, never in control flow.
var ErrNoData = errors.New("no data for symbol")

// -----------------------------------------------------------------------------

// ProviderError wraps a failure from one named provider.
type ProviderError struct {
	Provider string
	Op       string
	Symbol   string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Provider, e.Op, e.Symbol, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

// WrapProvider builds a ProviderError unless the cause is already one.
func WrapProvider(provider, op, symbol string, cause error) error {
	var pe *ProviderError
	if errors.As(cause, &pe) {
		return cause
	}
	return &ProviderError{Provider: provider, Op: op, Symbol: symbol, Cause: cause}
}
