package utils

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// MarketScheduler maps tracked symbols to their exchange calendars so the
// poller can stand down while every relevant market is closed.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *zap.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(log *zap.Logger) *MarketScheduler {
	return &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

// UpdateSymbols replaces the tracked symbol set. Called with the poller's
// snapshot each cycle, so the map follows live subscriptions.
func (ms *MarketScheduler) UpdateSymbols(symbols []string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.Calendars = make(map[string]*TradingCalendar, len(symbols))
	for _, symbol := range symbols {
		if cal := GetCalendar(symbol, ms.Logger); cal != nil {
			ms.Calendars[symbol] = cal
		}
	}
}

// -----------------------------------------------------------------------------

// AnyMarketOpen reports whether at least one tracked market is open now.
// With nothing tracked it returns false.
func (ms *MarketScheduler) AnyMarketOpen() bool {
	now := time.Now().UTC()

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	uniqueCals := make(map[*TradingCalendar]bool)
	for _, cal := range ms.Calendars {
		uniqueCals[cal] = true
	}

	for cal := range uniqueCals {
		if cal.IsOpenOnMinute(now) {
			return true
		}
	}
	return false
}
