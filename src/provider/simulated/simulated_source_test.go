package simulated

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchQuoteStaysNearBasePrice(t *testing.T) {
	s := NewSourceWithSeed(1)

	q, err := s.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "Apple Inc.", q.Name)
	assert.Equal(t, "simulated", q.Source)

	// Variation is bounded at +/-3% of the base price.
	assert.InDelta(t, 185.0, q.Price, 185.0*0.031)
	assert.Equal(t, 185.0, q.PreviousClose)
	assert.GreaterOrEqual(t, q.High, q.Price*0.999)
	assert.Positive(t, q.Volume)
}

func TestFetchQuoteUnknownSymbolGetsDefaults(t *testing.T) {
	s := NewSourceWithSeed(1)

	q, err := s.FetchQuote(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Equal(t, "ZZZZ", q.Symbol)
	assert.NotEmpty(t, q.Name)
	assert.Positive(t, q.Price)
}

func TestFetchHistoricalWalk(t *testing.T) {
	s := NewSourceWithSeed(1)

	bars, err := s.FetchHistorical(context.Background(), "MSFT", 30)
	require.NoError(t, err)
	require.Len(t, bars, 30)

	for i, b := range bars {
		assert.Equal(t, "MSFT", b.Symbol)
		assert.Positive(t, b.Close)
		assert.GreaterOrEqual(t, b.High, b.Low, "bar %d", i)
		if i > 0 {
			assert.Greater(t, b.Date, bars[i-1].Date)
		}
	}
}

func TestFetchProfileKnownSymbol(t *testing.T) {
	s := NewSourceWithSeed(1)

	p, err := s.FetchProfile(context.Background(), "JNJ")
	require.NoError(t, err)
	assert.Equal(t, "Johnson & Johnson", p.Name)
	assert.Equal(t, "Healthcare", p.Sector)
	assert.InDelta(t, 0.030, p.DividendYield, 0.0001)
}

func TestConcurrentFetchQuote(t *testing.T) {
	// One instance serves the poller, the evaluator and request handlers
	// at the same time; the race detector must stay quiet.
	s := NewSourceWithSeed(1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q, err := s.FetchQuote(context.Background(), "AAPL")
				assert.NoError(t, err)
				assert.Positive(t, q.Price)
			}
		}()
	}
	wg.Wait()
}

func TestDeterministicWithSameSeed(t *testing.T) {
	a, err := NewSourceWithSeed(42).FetchQuote(context.Background(), "TSLA")
	require.NoError(t, err)
	b, err := NewSourceWithSeed(42).FetchQuote(context.Background(), "TSLA")
	require.NoError(t, err)

	assert.Equal(t, a.Price, b.Price)
	assert.Equal(t, a.Volume, b.Volume)
}
