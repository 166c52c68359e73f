package interfaces

import (
	"context"

	"wealthpilot-market/src/models"
)

// -----------------------------------------------------------------------------
// IQuoteProvider is one external quote source. Every provider normalizes its
// own wire format into the shared models before returning.
// -----------------------------------------------------------------------------

type IQuoteProvider interface {

	// Name returns the unique identifier of the provider.
	Name() string

	// -----------------------------------------------------------------------------

	// FetchQuote retrieves the current quote for one symbol.
	// A rate-limited or unreachable provider returns an error; the caller
	// advances to the next provider in the chain.
	FetchQuote(ctx context.Context, symbol string) (*models.MQuote, error)

	// -----------------------------------------------------------------------------

	// FetchHistorical retrieves up to `days` daily bars, oldest first.
	FetchHistorical(ctx context.Context, symbol string, days int) ([]models.MHistoricalBar, error)

	// -----------------------------------------------------------------------------

	// FetchProfile retrieves company metadata for one symbol.
	FetchProfile(ctx context.Context, symbol string) (*models.MProfile, error)
}
