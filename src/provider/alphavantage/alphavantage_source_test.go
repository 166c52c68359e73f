package alphavantage

import (
	"context"
	"errors"
	"testing"

	"wealthpilot-market/src/helpers"
	"wealthpilot-market/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// Fake network
// -----------------------------------------------------------------------------

type fakeNetwork struct {
	body   []byte
	err    error
	params map[string]string
}

func (n *fakeNetwork) Get(_ context.Context, _ string, params map[string]string) ([]byte, error) {
	n.params = params
	if n.err != nil {
		return nil, n.err
	}
	return n.body, nil
}

func testSource(net *fakeNetwork) *Source {
	cfg := models.MAlphaVantageConfig{APIKey: "demo", CallsPerMinute: 60}
	return NewSource(cfg, net, zap.NewNop())
}

// -----------------------------------------------------------------------------
// Quote parsing
// -----------------------------------------------------------------------------

const globalQuoteBody = `{
	"Global Quote": {
		"01. symbol": "AAPL",
		"02. open": "229.0000",
		"03. high": "233.1200",
		"04. low": "228.5000",
		"05. price": "231.5000",
		"06. volume": "44123456",
		"07. latest trading day": "2026-08-28",
		"08. previous close": "228.0000",
		"09. change": "3.5000",
		"10. change percent": "1.5351%"
	}
}`

func TestFetchQuoteParsesGlobalQuote(t *testing.T) {
	net := &fakeNetwork{body: []byte(globalQuoteBody)}
	s := testSource(net)

	q, err := s.FetchQuote(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 231.5, q.Price)
	assert.Equal(t, 229.0, q.Open)
	assert.Equal(t, 228.0, q.PreviousClose)
	assert.Equal(t, 3.5, q.Change)
	assert.InDelta(t, 1.5351, q.ChangePercent, 0.0001)
	assert.Equal(t, int64(44123456), q.Volume)
	assert.Equal(t, "alphavantage", q.Source)

	assert.Equal(t, "GLOBAL_QUOTE", net.params["function"])
	assert.Equal(t, "AAPL", net.params["symbol"])
}

func TestFetchQuoteEmptyPayloadIsNoData(t *testing.T) {
	// The API answers rate-limit and unknown-symbol cases with an empty
	// object and HTTP 200.
	net := &fakeNetwork{body: []byte(`{"Global Quote": {}}`)}
	s := testSource(net)

	_, err := s.FetchQuote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, helpers.ErrNoData)
}

func TestFetchQuoteZeroPriceIsNoData(t *testing.T) {
	net := &fakeNetwork{body: []byte(`{"Global Quote": {"05. price": "0.0000"}}`)}
	s := testSource(net)

	_, err := s.FetchQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, helpers.ErrNoData)
}

func TestFetchQuoteNetworkErrorWrapped(t *testing.T) {
	net := &fakeNetwork{err: errors.New("connection refused")}
	s := testSource(net)

	_, err := s.FetchQuote(context.Background(), "AAPL")
	require.Error(t, err)

	var perr *helpers.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "alphavantage", perr.Provider)
	assert.Equal(t, "AAPL", perr.Symbol)
}

func TestFetchQuoteRateLimited(t *testing.T) {
	net := &fakeNetwork{body: []byte(globalQuoteBody)}
	cfg := models.MAlphaVantageConfig{APIKey: "demo", CallsPerMinute: 1}
	s := NewSource(cfg, net, zap.NewNop())

	_, err := s.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	_, err = s.FetchQuote(context.Background(), "MSFT")
	assert.ErrorIs(t, err, helpers.ErrRateLimited)
}

// -----------------------------------------------------------------------------
// Historical parsing
// -----------------------------------------------------------------------------

const dailySeriesBody = `{
	"Time Series (Daily)": {
		"2026-08-28": {
			"1. open": "229.00", "2. high": "233.12", "3. low": "228.50",
			"4. close": "231.50", "5. adjusted close": "231.50", "6. volume": "44123456"
		},
		"2026-08-26": {
			"1. open": "225.00", "2. high": "227.00", "3. low": "224.10",
			"4. close": "226.40", "5. adjusted close": "226.40", "6. volume": "39000000"
		},
		"2026-08-27": {
			"1. open": "226.50", "2. high": "229.90", "3. low": "226.00",
			"4. close": "228.00", "5. adjusted close": "", "6. volume": "41000000"
		}
	}
}`

func TestFetchHistoricalSortedAndTrimmed(t *testing.T) {
	net := &fakeNetwork{body: []byte(dailySeriesBody)}
	s := testSource(net)

	bars, err := s.FetchHistorical(context.Background(), "AAPL", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	// Oldest first, trimmed to the most recent window.
	assert.Equal(t, "2026-08-27", bars[0].Date)
	assert.Equal(t, "2026-08-28", bars[1].Date)

	// A missing adjusted close falls back to the raw close.
	assert.Equal(t, 228.0, bars[0].AdjustedClose)
	assert.Equal(t, "compact", net.params["outputsize"])
}

func TestFetchHistoricalLongWindowRequestsFull(t *testing.T) {
	net := &fakeNetwork{body: []byte(dailySeriesBody)}
	s := testSource(net)

	_, err := s.FetchHistorical(context.Background(), "AAPL", 365)
	require.NoError(t, err)
	assert.Equal(t, "full", net.params["outputsize"])
}

// -----------------------------------------------------------------------------
// Profile parsing
// -----------------------------------------------------------------------------

func TestFetchProfileParsesOverview(t *testing.T) {
	net := &fakeNetwork{body: []byte(`{
		"Symbol": "AAPL",
		"Name": "Apple Inc",
		"Sector": "TECHNOLOGY",
		"Industry": "ELECTRONIC COMPUTERS",
		"MarketCapitalization": "3450000000000",
		"PERatio": "35.1",
		"DividendYield": "0.0044",
		"52WeekHigh": "242.10",
		"52WeekLow": "164.08",
		"Description": "Apple Inc. designs consumer electronics."
	}`)}
	s := testSource(net)

	p, err := s.FetchProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc", p.Name)
	assert.Equal(t, "TECHNOLOGY", p.Sector)
	assert.Equal(t, 3.45e12, p.MarketCap)
	assert.Equal(t, 242.10, p.FiftyTwoWeekHigh)
}

func TestFetchProfileEmptyIsNoData(t *testing.T) {
	net := &fakeNetwork{body: []byte(`{}`)}
	s := testSource(net)

	_, err := s.FetchProfile(context.Background(), "NOPE")
	assert.ErrorIs(t, err, helpers.ErrNoData)
}
