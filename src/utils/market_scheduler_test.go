package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAnyMarketOpenEmpty(t *testing.T) {
	ms := NewMarketScheduler(zap.NewNop())
	assert.False(t, ms.AnyMarketOpen())
}

func TestUpdateSymbolsReplacesSet(t *testing.T) {
	ms := NewMarketScheduler(zap.NewNop())

	ms.UpdateSymbols([]string{"AAPL", "MSFT"})
	assert.Len(t, ms.Calendars, 2)

	ms.UpdateSymbols([]string{"TSLA"})
	assert.Len(t, ms.Calendars, 1)
	assert.Contains(t, ms.Calendars, "TSLA")

	ms.UpdateSymbols(nil)
	assert.Empty(t, ms.Calendars)
}

func TestGetCalendarSuffixMapping(t *testing.T) {
	log := zap.NewNop()

	for _, symbol := range []string{"AAPL", "VOD.L", "7203.T", "BMW.DE"} {
		cal := GetCalendar(symbol, log)
		require.NotNil(t, cal, "symbol %s", symbol)
		require.NotNil(t, cal.Timezone, "symbol %s", symbol)
	}
}

func TestTradingDayWeekend(t *testing.T) {
	cal := GetCalendar("AAPL", zap.NewNop())

	// 2026-08-29 is a Saturday, 2026-08-31 a regular Monday.
	saturday := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	assert.False(t, cal.IsTradingDay(saturday))
	assert.True(t, cal.IsTradingDay(monday))
}
