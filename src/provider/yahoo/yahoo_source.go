package yahoo

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

const (
	chartURL   = "https://query1.finance.yahoo.com/v8/finance/chart/%s"
	summaryURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s"
)

// Source is the fallback provider, built on the public chart API.
type Source struct {
	Network interfaces.INetworkManager
	Logger  *zap.Logger
}

// -----------------------------------------------------------------------------

func NewSource(netMgr interfaces.INetworkManager, log *zap.Logger) *Source {
	return &Source{Network: netMgr, Logger: log}
}

// -----------------------------------------------------------------------------

func (s *Source) Name() string {
	return "yahoo"
}

// -----------------------------------------------------------------------------

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"` // Pointers to handle null
					Low    []*float64 `json:"low"`
					Open   []*float64 `json:"open"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchQuote derives a quote from the 1-day chart metadata plus the last
// intraday bar for OHLC and volume.
func (s *Source) FetchQuote(ctx context.Context, symbol string) (*models.MQuote, error) {
	symbol = strings.ToUpper(symbol)

	resp, err := s.fetchChart(ctx, symbol, "1d", "5m")
	if err != nil {
		return nil, helpers.WrapProvider(s.Name(), "quote", symbol, err)
	}

	result := resp.Chart.Result[0]
	meta := result.Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, helpers.WrapProvider(s.Name(), "quote", symbol, helpers.ErrNoData)
	}

	quote := &models.MQuote{
		Symbol:        symbol,
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.ChartPreviousClose,
		Source:        s.Name(),
		Timestamp:     time.Now().UTC(),
	}
	if meta.ChartPreviousClose > 0 {
		quote.Change = quote.Price - meta.ChartPreviousClose
		quote.ChangePercent = quote.Change / meta.ChartPreviousClose * 100
	}

	// Day high/low/open/volume from the intraday bars, skipping nulls.
	if len(result.Indicators.Quote) > 0 {
		bars := result.Indicators.Quote[0]
		var volume float64
		for i := range result.Timestamp {
			if i < len(bars.High) && bars.High[i] != nil && *bars.High[i] > quote.High {
				quote.High = *bars.High[i]
			}
			if i < len(bars.Low) && bars.Low[i] != nil && (quote.Low == 0 || *bars.Low[i] < quote.Low) {
				quote.Low = *bars.Low[i]
			}
			if quote.Open == 0 && i < len(bars.Open) && bars.Open[i] != nil {
				quote.Open = *bars.Open[i]
			}
			if i < len(bars.Volume) && bars.Volume[i] != nil {
				volume += *bars.Volume[i]
			}
		}
		quote.Volume = int64(volume)
	}

	return quote, nil
}

// -----------------------------------------------------------------------------

// FetchHistorical retrieves daily bars for the requested range, oldest
// first. Points with null OHLCV fields are dropped.
func (s *Source) FetchHistorical(ctx context.Context, symbol string, days int) ([]models.MHistoricalBar, error) {
	symbol = strings.ToUpper(symbol)

	resp, err := s.fetchChart(ctx, symbol, fmt.Sprintf("%dd", days), "1d")
	if err != nil {
		return nil, helpers.WrapProvider(s.Name(), "historical", symbol, err)
	}

	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, helpers.WrapProvider(s.Name(), "historical", symbol, helpers.ErrNoData)
	}

	quote := result.Indicators.Quote[0]
	if len(result.Timestamp) != len(quote.Close) ||
		len(result.Timestamp) != len(quote.Open) ||
		len(result.Timestamp) != len(quote.High) ||
		len(result.Timestamp) != len(quote.Low) ||
		len(result.Timestamp) != len(quote.Volume) {
		return nil, helpers.WrapProvider(s.Name(), "historical", symbol,
			fmt.Errorf("data alignment error: mismatched array lengths for %s", symbol))
	}

	var bars []models.MHistoricalBar
	for i, ts := range result.Timestamp {
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}
		closeVal := *quote.Close[i]
		if closeVal <= 0 {
			continue
		}
		bars = append(bars, models.MHistoricalBar{
			Symbol:        symbol,
			Date:          time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Open:          *quote.Open[i],
			High:          *quote.High[i],
			Low:           *quote.Low[i],
			Close:         closeVal,
			AdjustedClose: closeVal,
			Volume:        int64(*quote.Volume[i]),
		})
	}

	if len(bars) == 0 {
		return nil, helpers.WrapProvider(s.Name(), "historical", symbol, helpers.ErrNoData)
	}
	return bars, nil
}

// -----------------------------------------------------------------------------

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector          string `json:"sector"`
				Industry        string `json:"industry"`
				LongBusinessSum string `json:"longBusinessSummary"`
			} `json:"assetProfile"`
			Price struct {
				LongName  string `json:"longName"`
				MarketCap struct {
					Raw float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"price"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// FetchProfile retrieves company metadata from the quoteSummary endpoint.
func (s *Source) FetchProfile(ctx context.Context, symbol string) (*models.MProfile, error) {
	symbol = strings.ToUpper(symbol)

	body, err := s.Network.Get(ctx, fmt.Sprintf(summaryURL, symbol), map[string]string{
		"modules": "assetProfile,price",
	})
	if err != nil {
		return nil, helpers.WrapProvider(s.Name(), "profile", symbol, err)
	}

	var resp summaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.WrapProvider(s.Name(), "profile", symbol, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, helpers.WrapProvider(s.Name(), "profile", symbol, helpers.ErrNoData)
	}

	r := resp.QuoteSummary.Result[0]
	return &models.MProfile{
		Symbol:      symbol,
		Name:        r.Price.LongName,
		Sector:      r.AssetProfile.Sector,
		Industry:    r.AssetProfile.Industry,
		MarketCap:   r.Price.MarketCap.Raw,
		Description: r.AssetProfile.LongBusinessSum,
		Source:      s.Name(),
	}, nil
}

// -----------------------------------------------------------------------------

func (s *Source) fetchChart(ctx context.Context, symbol, rangeStr, interval string) (*chartResponse, error) {
	body, err := s.Network.Get(ctx, fmt.Sprintf(chartURL, symbol), map[string]string{
		"range":          rangeStr,
		"interval":       interval,
		"includePrePost": "false",
	})
	if err != nil {
		return nil, err
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, helpers.ErrNoData
	}

	return &resp, nil
}
