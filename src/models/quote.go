package models

import "time"

// MQuote is an immutable snapshot of the latest price for one symbol.
// A fresh fetch produces a new MQuote; cached copies are never mutated.
type MQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Open          float64   `json:"open"`
	Volume        int64     `json:"volume"`
	Name          string    `json:"name,omitempty"`
	MarketCap     float64   `json:"market_cap,omitempty"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
}

// MHistoricalBar is one daily OHLCV bar.
type MHistoricalBar struct {
	Symbol        string  `json:"symbol"`
	Date          string  `json:"date"` // YYYY-MM-DD
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// MProfile carries the slow-moving company metadata.
type MProfile struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Sector           string  `json:"sector"`
	Industry         string  `json:"industry,omitempty"`
	MarketCap        float64 `json:"market_cap"`
	PERatio          float64 `json:"pe_ratio"`
	DividendYield    float64 `json:"dividend_yield"`
	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low"`
	Description      string  `json:"description,omitempty"`
	Source           string  `json:"source"`
}
