package alphavantage

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"wealthpilot-market/src/helpers"
	"wealthpilot-market/src/interfaces"
	"wealthpilot-market/src/models"
	"wealthpilot-market/src/utils"

	"go.uber.org/zap"
)

const baseURL = "https://www.alphavantage.co/query"

// Source is the primary provider. The free tier allows 5 calls/min, so
// every fetch passes through a sliding-window rate limiter; a rejected call
// surfaces as ErrRateLimited and the chain falls through to the next
// provider instead of waiting.
type Source struct {
	apiKey  string
	Network interfaces.INetworkManager
	Limiter *utils.RateLimiter
	Logger  *zap.Logger
}

// -----------------------------------------------------------------------------

func NewSource(cfg models.MAlphaVantageConfig, netMgr interfaces.INetworkManager, log *zap.Logger) *Source {
	return &Source{
		apiKey:  cfg.APIKey,
		Network: netMgr,
		Limiter: utils.NewRateLimiter(cfg.CallsPerMinute),
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

func (s *Source) Name() string {
	return "alphavantage"
}

// -----------------------------------------------------------------------------

type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

// FetchQuote retrieves the GLOBAL_QUOTE snapshot for one symbol.
func (s *Source) FetchQuote(ctx context.Context, symbol string) (*models.MQuote, error) {
	symbol = strings.ToUpper(symbol)

	if !s.Limiter.Allow() {
		return nil, helpers.WrapProvider(s.Name(), "quote", symbol, helpers.ErrRateLimited)
	}

	body, err := s.Network.Get(ctx, baseURL, map[string]string{
		"function": "GLOBAL_QUOTE",
		"symbol":   symbol,
		"apikey":   s.apiKey,
	})
	if err != nil {
		return nil, helpers.WrapProvider(s.Name(), "quote", symbol, err)
	}

	var resp globalQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.WrapProvider(s.Name(), "quote", symbol, err)
	}
	if len(resp.GlobalQuote) == 0 {
		return nil, helpers.WrapProvider(s.Name(), "quote", symbol, helpers.ErrNoData)
	}

	q := resp.GlobalQuote
	price := avFloat(q["05. price"])
	if price <= 0 {
		return nil, helpers.WrapProvider(s.Name(), "quote", symbol, helpers.ErrNoData)
	}

	quote := &models.MQuote{
		Symbol:        avString(q["01. symbol"], symbol),
		Price:         price,
		Open:          avFloat(q["02. open"]),
		High:          avFloat(q["03. high"]),
		Low:           avFloat(q["04. low"]),
		Volume:        int64(avFloat(q["06. volume"])),
		PreviousClose: avFloat(q["08. previous close"]),
		Change:        avFloat(q["09. change"]),
		ChangePercent: avFloat(strings.TrimSuffix(q["10. change percent"], "%")),
		Source:        s.Name(),
		Timestamp:     time.Now().UTC(),
	}
	return quote, nil
}

// -----------------------------------------------------------------------------

type dailySeriesResponse struct {
	TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
}

// FetchHistorical retrieves daily adjusted bars, oldest first.
func (s *Source) FetchHistorical(ctx context.Context, symbol string, days int) ([]models.MHistoricalBar, error) {
	symbol = strings.ToUpper(symbol)

	if !s.Limiter.Allow() {
		return nil, helpers.WrapProvider(s.Name(), "historical", symbol, helpers.ErrRateLimited)
	}

	// compact covers 100 days, full covers the whole listing.
	outputSize := "compact"
	if days > 100 {
		outputSize = "full"
	}

	body, err := s.Network.Get(ctx, baseURL, map[string]string{
		"function":   "TIME_SERIES_DAILY_ADJUSTED",
		"symbol":     symbol,
		"outputsize": outputSize,
		"apikey":     s.apiKey,
	})
	if err != nil {
		return nil, helpers.WrapProvider(s.Name(), "historical", symbol, err)
	}

	var resp dailySeriesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.WrapProvider(s.Name(), "historical", symbol, err)
	}
	if len(resp.TimeSeries) == 0 {
		return nil, helpers.WrapProvider(s.Name(), "historical", symbol, helpers.ErrNoData)
	}

	bars := make([]models.MHistoricalBar, 0, len(resp.TimeSeries))
	for date, values := range resp.TimeSeries {
		closeVal := avFloat(values["4. close"])
		adjusted := avFloat(values["5. adjusted close"])
		if adjusted == 0 {
			adjusted = closeVal
		}
		bars = append(bars, models.MHistoricalBar{
			Symbol:        symbol,
			Date:          date,
			Open:          avFloat(values["1. open"]),
			High:          avFloat(values["2. high"]),
			Low:           avFloat(values["3. low"]),
			Close:         closeVal,
			AdjustedClose: adjusted,
			Volume:        int64(avFloat(values["6. volume"])),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })

	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// -----------------------------------------------------------------------------

// FetchProfile retrieves the OVERVIEW company metadata.
func (s *Source) FetchProfile(ctx context.Context, symbol string) (*models.MProfile, error) {
	symbol = strings.ToUpper(symbol)

	if !s.Limiter.Allow() {
		return nil, helpers.WrapProvider(s.Name(), "profile", symbol, helpers.ErrRateLimited)
	}

	body, err := s.Network.Get(ctx, baseURL, map[string]string{
		"function": "OVERVIEW",
		"symbol":   symbol,
		"apikey":   s.apiKey,
	})
	if err != nil {
		return nil, helpers.WrapProvider(s.Name(), "profile", symbol, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, helpers.WrapProvider(s.Name(), "profile", symbol, err)
	}
	if raw["Symbol"] == "" {
		return nil, helpers.WrapProvider(s.Name(), "profile", symbol, helpers.ErrNoData)
	}

	return &models.MProfile{
		Symbol:           symbol,
		Name:             raw["Name"],
		Sector:           raw["Sector"],
		Industry:         raw["Industry"],
		MarketCap:        avFloat(raw["MarketCapitalization"]),
		PERatio:          avFloat(raw["PERatio"]),
		DividendYield:    avFloat(raw["DividendYield"]),
		FiftyTwoWeekHigh: avFloat(raw["52WeekHigh"]),
		FiftyTwoWeekLow:  avFloat(raw["52WeekLow"]),
		Description:      raw["Description"],
		Source:           s.Name(),
	}, nil
}

// -----------------------------------------------------------------------------
// Helpers: Alpha Vantage serializes every number as a string, and pads
// missing values with "None" or "-".
// -----------------------------------------------------------------------------

func avFloat(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

func avString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
