package models

import "time"

// Alert rule kinds. PercentChange fires on a move beyond the threshold in
// either direction.
const (
	AlertPriceAbove    = "price_above"
	AlertPriceBelow    = "price_below"
	AlertPercentChange = "percent_change"
)

// MAlertCondition is one user-defined alert rule as persisted.
// Triggered conditions stay triggered until explicitly reset.
type MAlertCondition struct {
	ID              int64      `json:"id"`
	UserID          string     `json:"user_id"`
	Symbol          string     `json:"symbol"`
	Rule            string     `json:"rule"`
	Threshold       float64    `json:"threshold"`
	Active          bool       `json:"active"`
	Triggered       bool       `json:"triggered"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Satisfied evaluates the condition against a fresh quote.
func (c *MAlertCondition) Satisfied(q *MQuote) bool {
	switch c.Rule {
	case AlertPriceAbove:
		return q.Price >= c.Threshold
	case AlertPriceBelow:
		return q.Price <= c.Threshold
	case AlertPercentChange:
		pct := q.ChangePercent
		if pct < 0 {
			pct = -pct
		}
		return pct >= c.Threshold
	}
	return false
}

// MAlertEvent is the payload delivered to the owning user (and to the
// downstream event topic) when a condition fires.
type MAlertEvent struct {
	ConditionID  int64     `json:"condition_id"`
	UserID       string    `json:"user_id"`
	Symbol       string    `json:"symbol"`
	Rule         string    `json:"rule"`
	Message      string    `json:"message"`
	CurrentValue float64   `json:"current_value"`
	TriggeredAt  time.Time `json:"triggered_at"`
}
