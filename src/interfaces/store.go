package interfaces

import (
	"context"
	"time"

	"wealthpilot-market/src/models"
)

// -----------------------------------------------------------------------------
// IStore is the persistence collaborator consumed by the core: alert
// conditions and the per-user held-symbol read path. The business CRUD API
// owns the rest of the schema.
// -----------------------------------------------------------------------------

type IStore interface {

	// Initialize sets up the tables the core reads and writes.
	Initialize() error

	// -----------------------------------------------------------------------------
	// Alert conditions
	// -----------------------------------------------------------------------------

	// ActiveConditions returns every condition with active=true and
	// triggered=false.
	ActiveConditions(ctx context.Context) ([]models.MAlertCondition, error)

	// MarkTriggered flips a condition to triggered and records when.
	MarkTriggered(ctx context.Context, id int64, at time.Time) error

	// ResetCondition re-arms a previously triggered condition.
	ResetCondition(ctx context.Context, id int64) error

	// InsertCondition stores a new condition and returns its id.
	InsertCondition(ctx context.Context, c *models.MAlertCondition) (int64, error)

	// -----------------------------------------------------------------------------
	// Holdings
	// -----------------------------------------------------------------------------

	// SymbolsForUser returns the distinct symbols a user holds, for the
	// auto-subscribe on auth.
	SymbolsForUser(ctx context.Context, userID string) ([]string, error)

	// AllHeldSymbols returns the distinct symbols across all holdings.
	AllHeldSymbols(ctx context.Context) ([]string, error)

	// UpdateHoldingPrice writes the latest price onto every holding row
	// for the symbol.
	UpdateHoldingPrice(ctx context.Context, symbol string, price float64) error

	// -----------------------------------------------------------------------------

	// Close the database connection.
	Close() error
}
