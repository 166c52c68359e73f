package simulated

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"wealthpilot-market/src/models"
)

// stockInfo carries the reference data the generator anchors to.
type stockInfo struct {
	name          string
	sector        string
	basePrice     float64
	dividendYield float64
}

// Reference prices for the common dashboard universe. Unknown symbols get
// generated defaults so the chain never runs dry.
var stockDatabase = map[string]stockInfo{
	"AAPL":  {"Apple Inc.", "Technology", 185.0, 0.005},
	"MSFT":  {"Microsoft Corporation", "Technology", 378.0, 0.008},
	"GOOGL": {"Alphabet Inc.", "Technology", 141.0, 0.0},
	"AMZN":  {"Amazon.com Inc.", "Consumer Cyclical", 178.0, 0.0},
	"NVDA":  {"NVIDIA Corporation", "Technology", 495.0, 0.0004},
	"META":  {"Meta Platforms Inc.", "Technology", 505.0, 0.004},
	"TSLA":  {"Tesla Inc.", "Consumer Cyclical", 248.0, 0.0},
	"JPM":   {"JPMorgan Chase & Co.", "Financial", 170.0, 0.024},
	"V":     {"Visa Inc.", "Financial", 260.0, 0.008},
	"JNJ":   {"Johnson & Johnson", "Healthcare", 156.0, 0.030},
	"WMT":   {"Walmart Inc.", "Consumer Defensive", 165.0, 0.014},
	"PG":    {"Procter & Gamble", "Consumer Defensive", 159.0, 0.024},
	"XOM":   {"Exxon Mobil Corp.", "Energy", 105.0, 0.035},
	"KO":    {"Coca-Cola Company", "Consumer Defensive", 60.0, 0.031},
	"PFE":   {"Pfizer Inc.", "Healthcare", 28.0, 0.058},
	"DIS":   {"Walt Disney Company", "Communication", 95.0, 0.0},
	"NFLX":  {"Netflix Inc.", "Communication", 485.0, 0.0},
	"INTC":  {"Intel Corporation", "Technology", 45.0, 0.011},
	"AMD":   {"AMD Inc.", "Technology", 145.0, 0.0},
	"ORCL":  {"Oracle Corporation", "Technology", 125.0, 0.013},
	"VTI":   {"Vanguard Total Stock Market ETF", "ETF", 240.0, 0.015},
	"VOO":   {"Vanguard S&P 500 ETF", "ETF", 435.0, 0.015},
	"QQQ":   {"Invesco QQQ Trust", "ETF", 405.0, 0.006},
	"SPY":   {"SPDR S&P 500 ETF", "ETF", 475.0, 0.014},
	"SCHD":  {"Schwab US Dividend Equity ETF", "ETF", 78.0, 0.035},
}

var sectors = []string{"Technology", "Healthcare", "Financial", "Consumer", "Industrial"}

// -----------------------------------------------------------------------------

// Source is the last-resort provider: realistic generated data so the
// dashboard stays functional with no network and no API key. Never fails.
//
// One instance is shared by the poller, the alert evaluator and request
// handlers, and *rand.Rand is not goroutine-safe, so every draw goes
// through the mutex-guarded helpers below.
type Source struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewSource() *Source {
	return &Source{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSourceWithSeed pins the random stream for tests.
func NewSourceWithSeed(seed int64) *Source {
	return &Source{rand: rand.New(rand.NewSource(seed))}
}

// -----------------------------------------------------------------------------

func (s *Source) Name() string {
	return "simulated"
}

// -----------------------------------------------------------------------------

func (s *Source) float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

func (s *Source) normFloat64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.NormFloat64()
}

func (s *Source) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Intn(n)
}

// -----------------------------------------------------------------------------

func (s *Source) FetchQuote(_ context.Context, symbol string) (*models.MQuote, error) {
	symbol = strings.ToUpper(symbol)
	info := s.lookup(symbol)

	// Daily variation of -3%..+3% around the base price.
	variation := s.float64()*0.06 - 0.03
	price := info.basePrice * (1 + variation)

	previousClose := info.basePrice
	change := price - previousClose

	return &models.MQuote{
		Symbol:        symbol,
		Price:         round2(price),
		Change:        round2(change),
		ChangePercent: round2(change / previousClose * 100),
		Volume:        int64(s.intn(49_000_000) + 1_000_000),
		High:          round2(price * (1.001 + s.float64()*0.019)),
		Low:           round2(price * (0.98 + s.float64()*0.019)),
		Open:          round2(previousClose * (0.995 + s.float64()*0.01)),
		PreviousClose: round2(previousClose),
		Name:          info.name,
		Source:        s.Name(),
		Timestamp:     time.Now().UTC(),
	}, nil
}

// -----------------------------------------------------------------------------

// FetchHistorical generates a random walk with a slight upward bias,
// roughly 7.5% annual return at 15% volatility.
func (s *Source) FetchHistorical(_ context.Context, symbol string, days int) ([]models.MHistoricalBar, error) {
	symbol = strings.ToUpper(symbol)
	info := s.lookup(symbol)

	// Start below the current price so the walk trends toward it.
	price := info.basePrice * (0.7 + s.float64()*0.2)

	bars := make([]models.MHistoricalBar, 0, days)
	for i := 0; i < days; i++ {
		date := time.Now().UTC().AddDate(0, 0, -(days - i)).Format("2006-01-02")

		dailyReturn := s.normFloat64()*0.015 + 0.0003
		price = math.Max(price*(1+dailyReturn), 1)

		bars = append(bars, models.MHistoricalBar{
			Symbol:        symbol,
			Date:          date,
			Open:          round2(price * (0.995 + s.float64()*0.01)),
			High:          round2(price * (1.001 + s.float64()*0.024)),
			Low:           round2(price * (0.975 + s.float64()*0.024)),
			Close:         round2(price),
			AdjustedClose: round2(price),
			Volume:        int64(s.intn(49_000_000) + 1_000_000),
		})
	}
	return bars, nil
}

// -----------------------------------------------------------------------------

func (s *Source) FetchProfile(_ context.Context, symbol string) (*models.MProfile, error) {
	symbol = strings.ToUpper(symbol)
	info := s.lookup(symbol)

	return &models.MProfile{
		Symbol:        symbol,
		Name:          info.name,
		Sector:        info.sector,
		DividendYield: info.dividendYield,
		Source:        s.Name(),
	}, nil
}

// -----------------------------------------------------------------------------

func (s *Source) lookup(symbol string) stockInfo {
	if info, ok := stockDatabase[symbol]; ok {
		return info
	}
	return stockInfo{
		name:          symbol + " Inc.",
		sector:        sectors[s.intn(len(sectors))],
		basePrice:     20 + s.float64()*280,
		dividendYield: s.float64() * 0.04,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
