package storage

import (
	"database/sql"

	"wealthpilot-market/src/models"
)

// scanConditions reads alert rows produced by either backend; both select
// the same column order.
func scanConditions(rows *sql.Rows) ([]models.MAlertCondition, error) {
	var out []models.MAlertCondition
	for rows.Next() {
		var c models.MAlertCondition
		var lastTriggered sql.NullTime
		if err := rows.Scan(&c.ID, &c.UserID, &c.Symbol, &c.Rule, &c.Threshold,
			&c.Active, &c.Triggered, &lastTriggered, &c.CreatedAt); err != nil {
			return nil, err
		}
		if lastTriggered.Valid {
			t := lastTriggered.Time
			c.LastTriggeredAt = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
