package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"wealthpilot-market/src/cache"
	"wealthpilot-market/src/helpers"
	"wealthpilot-market/src/interfaces"
	"wealthpilot-market/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeProvider struct {
	name  string
	calls int
	quote *models.MQuote
	err   error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) FetchQuote(ctx context.Context, symbol string) (*models.MQuote, error) {
	p.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	q := *p.quote
	q.Symbol = symbol
	return &q, nil
}

func (p *fakeProvider) FetchHistorical(_ context.Context, symbol string, days int) ([]models.MHistoricalBar, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	bars := make([]models.MHistoricalBar, days)
	for i := range bars {
		bars[i] = models.MHistoricalBar{Symbol: symbol, Close: 100 + float64(i)}
	}
	return bars, nil
}

func (p *fakeProvider) FetchProfile(_ context.Context, symbol string) (*models.MProfile, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &models.MProfile{Symbol: symbol, Name: "Fake Corp"}, nil
}

// -----------------------------------------------------------------------------

func testFetcher(providers ...interfaces.IQuoteProvider) (*ResilientFetcher, *cache.MemoryCache) {
	ttls := cache.TTLs{Quote: 10 * time.Second, Historical: 5 * time.Minute, Profile: 30 * time.Minute}
	mem := cache.NewMemoryCache(ttls)
	return NewResilientFetcher(mem, providers, time.Second, zap.NewNop()), mem
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestQuoteFailoverOrder(t *testing.T) {
	p1 := &fakeProvider{name: "first", err: errors.New("down")}
	p2 := &fakeProvider{name: "second", quote: &models.MQuote{Price: 231.5}}
	p3 := &fakeProvider{name: "third", quote: &models.MQuote{Price: 1}}
	f, _ := testFetcher(p1, p2, p3)

	q, err := f.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 231.5, q.Price)

	assert.Equal(t, 1, p1.calls)
	assert.Equal(t, 1, p2.calls)
	// Success short-circuits the rest of the chain.
	assert.Equal(t, 0, p3.calls)
}

func TestQuoteCacheHitSkipsProviders(t *testing.T) {
	p1 := &fakeProvider{name: "only", quote: &models.MQuote{Price: 99}}
	f, _ := testFetcher(p1)
	ctx := context.Background()

	_, err := f.Quote(ctx, "MSFT")
	require.NoError(t, err)

	q, err := f.Quote(ctx, "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 99.0, q.Price)
	assert.Equal(t, 1, p1.calls)
}

func TestQuoteSymbolNormalized(t *testing.T) {
	p1 := &fakeProvider{name: "only", quote: &models.MQuote{Price: 5}}
	f, _ := testFetcher(p1)
	ctx := context.Background()

	_, err := f.Quote(ctx, "aapl")
	require.NoError(t, err)

	// Same symbol in a different case is the same cache entry.
	_, err = f.Quote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, p1.calls)
}

func TestQuoteAllProvidersFail(t *testing.T) {
	p1 := &fakeProvider{name: "first", err: errors.New("down")}
	p2 := &fakeProvider{name: "second", err: helpers.ErrRateLimited}
	f, _ := testFetcher(p1, p2)

	_, err := f.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, helpers.ErrUnavailable)

	// A failed resolve caches nothing.
	_, err = f.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Equal(t, 2, p1.calls)
}

func TestHistoricalCachedPerWindow(t *testing.T) {
	p1 := &fakeProvider{name: "only", quote: &models.MQuote{}}
	f, _ := testFetcher(p1)
	ctx := context.Background()

	bars, err := f.Historical(ctx, "AAPL", 30)
	require.NoError(t, err)
	assert.Len(t, bars, 30)

	// A different window is a different entry and hits the provider again.
	bars, err = f.Historical(ctx, "AAPL", 90)
	require.NoError(t, err)
	assert.Len(t, bars, 90)
	assert.Equal(t, 2, p1.calls)

	_, err = f.Historical(ctx, "AAPL", 30)
	require.NoError(t, err)
	assert.Equal(t, 2, p1.calls)
}

func TestProfileFailover(t *testing.T) {
	p1 := &fakeProvider{name: "first", err: helpers.ErrNoData}
	p2 := &fakeProvider{name: "second"}
	f, _ := testFetcher(p1, p2)

	profile, err := f.Profile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Fake Corp", profile.Name)
}

func TestQuoteCancelledContext(t *testing.T) {
	p1 := &fakeProvider{name: "only", quote: &models.MQuote{Price: 1}}
	f, _ := testFetcher(p1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Quote(ctx, "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
