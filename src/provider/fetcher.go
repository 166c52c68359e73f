package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wealthpilot-market/src/helpers"
	"wealthpilot-market/src/interfaces"
	"wealthpilot-market/src/models"

	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// ResilientFetcher
//
// Cache in front of an ordered provider chain. On a miss it walks the chain
// with a short per-call timeout and returns the first success; the result is
// cached under the operation-class TTL. When the chain is exhausted the
// caller gets helpers.ErrUnavailable and is expected to skip the symbol for
// the cycle, never to stop.
// -----------------------------------------------------------------------------

type ResilientFetcher struct {
	Cache     interfaces.ICache
	Providers []interfaces.IQuoteProvider
	Timeout   time.Duration
	Logger    *zap.Logger
}

// -----------------------------------------------------------------------------

func NewResilientFetcher(cache interfaces.ICache, providers []interfaces.IQuoteProvider, timeout time.Duration, log *zap.Logger) *ResilientFetcher {
	return &ResilientFetcher{
		Cache:     cache,
		Providers: providers,
		Timeout:   timeout,
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

// Quote resolves the current quote for one symbol.
func (f *ResilientFetcher) Quote(ctx context.Context, symbol string) (*models.MQuote, error) {
	symbol = strings.ToUpper(symbol)
	key := fmt.Sprintf("quote:%s", symbol)

	if payload, ok := f.Cache.Get(ctx, key); ok {
		var q models.MQuote
		if err := json.Unmarshal(payload, &q); err == nil {
			return &q, nil
		}
		// A corrupt entry is treated as a miss.
	}

	q, err := fetchChain(ctx, f, "quote", symbol, func(ctx context.Context, p interfaces.IQuoteProvider) (*models.MQuote, error) {
		return p.FetchQuote(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}

	f.cachePut(ctx, key, q, interfaces.CacheClassQuote)
	return q, nil
}

// -----------------------------------------------------------------------------

// Historical resolves up to `days` daily bars for one symbol, oldest first.
func (f *ResilientFetcher) Historical(ctx context.Context, symbol string, days int) ([]models.MHistoricalBar, error) {
	symbol = strings.ToUpper(symbol)
	key := fmt.Sprintf("historical:%s:%dd", symbol, days)

	if payload, ok := f.Cache.Get(ctx, key); ok {
		var bars []models.MHistoricalBar
		if err := json.Unmarshal(payload, &bars); err == nil {
			return bars, nil
		}
	}

	bars, err := fetchChain(ctx, f, "historical", symbol, func(ctx context.Context, p interfaces.IQuoteProvider) ([]models.MHistoricalBar, error) {
		return p.FetchHistorical(ctx, symbol, days)
	})
	if err != nil {
		return nil, err
	}

	f.cachePut(ctx, key, bars, interfaces.CacheClassHistorical)
	return bars, nil
}

// -----------------------------------------------------------------------------

// Profile resolves company metadata for one symbol.
func (f *ResilientFetcher) Profile(ctx context.Context, symbol string) (*models.MProfile, error) {
	symbol = strings.ToUpper(symbol)
	key := fmt.Sprintf("profile:%s", symbol)

	if payload, ok := f.Cache.Get(ctx, key); ok {
		var p models.MProfile
		if err := json.Unmarshal(payload, &p); err == nil {
			return &p, nil
		}
	}

	p, err := fetchChain(ctx, f, "profile", symbol, func(ctx context.Context, p interfaces.IQuoteProvider) (*models.MProfile, error) {
		return p.FetchProfile(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}

	f.cachePut(ctx, key, p, interfaces.CacheClassProfile)
	return p, nil
}

// -----------------------------------------------------------------------------

// fetchChain walks the provider chain in priority order. A failure of any
// kind (timeout, malformed payload, rate limit, no data) advances to the
// next provider; the distinction only shows up in the log line.
func fetchChain[T any](ctx context.Context, f *ResilientFetcher, op, symbol string, call func(context.Context, interfaces.IQuoteProvider) (T, error)) (T, error) {
	var zero T

	for _, p := range f.Providers {
		callCtx, cancel := context.WithTimeout(ctx, f.Timeout)
		result, err := call(callCtx, p)
		cancel()

		if err == nil {
			return result, nil
		}

		f.Logger.Warn("provider failed, advancing",
			zap.String("provider", p.Name()),
			zap.String("op", op),
			zap.String("symbol", symbol),
			zap.Error(err))

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	f.Logger.Error("all providers exhausted",
		zap.String("op", op),
		zap.String("symbol", symbol))
	return zero, helpers.ErrUnavailable
}

// -----------------------------------------------------------------------------

func (f *ResilientFetcher) cachePut(ctx context.Context, key string, v any, class string) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := f.Cache.Put(ctx, key, payload, class); err != nil {
		f.Logger.Warn("cache put failed", zap.String("key", key), zap.Error(err))
	}
}
