package interfaces

import "wealthpilot-market/src/models"

// -----------------------------------------------------------------------------
// IDispatcher fans events out to live connections. Delivery is best effort:
// a failed send evicts that connection and never blocks the others.
// -----------------------------------------------------------------------------

type IDispatcher interface {

	// BroadcastQuote delivers a quote to every connection subscribed to
	// its symbol.
	BroadcastQuote(q *models.MQuote)

	// -----------------------------------------------------------------------------

	// SendAlert delivers a triggered-alert event to every connection
	// authenticated as the owning user.
	SendAlert(ev *models.MAlertEvent)
}
