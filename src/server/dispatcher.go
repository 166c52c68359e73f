package server

import (
	"time"

	"wealthpilot-market/src/models"

	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// Broadcast Dispatcher
//
// Fan-out of quote updates to symbol subscribers and alert events to a
// user's connections. Delivery is per-connection best effort: one slow or
// dead client never blocks the others, it just gets dropped.
// -----------------------------------------------------------------------------

type Dispatcher struct {
	Registry *Registry
	Logger   *zap.Logger
}

// -----------------------------------------------------------------------------

func NewDispatcher(reg *Registry, log *zap.Logger) *Dispatcher {
	return &Dispatcher{Registry: reg, Logger: log}
}

// -----------------------------------------------------------------------------

// BroadcastQuote delivers a quote to every connection subscribed to its
// symbol.
func (d *Dispatcher) BroadcastQuote(q *models.MQuote) {
	msg := &models.MServerMessage{
		Type:      models.MsgQuote,
		Symbol:    q.Symbol,
		Data:      q,
		Timestamp: time.Now().Unix(),
	}
	for _, c := range d.Registry.SubscribersOf(q.Symbol) {
		d.deliver(c, msg)
	}
}

// -----------------------------------------------------------------------------

// SendAlert delivers an alert event to every connection of its user.
func (d *Dispatcher) SendAlert(ev *models.MAlertEvent) {
	msg := &models.MServerMessage{
		Type:      models.MsgAlert,
		Symbol:    ev.Symbol,
		Alert:     ev,
		Timestamp: time.Now().Unix(),
	}
	for _, c := range d.Registry.ConnectionsOf(ev.UserID) {
		d.deliver(c, msg)
	}
}

// -----------------------------------------------------------------------------

// deliver sends one message and evicts the connection on failure, the
// same path a missed heartbeat takes.
func (d *Dispatcher) deliver(c *Connection, msg *models.MServerMessage) {
	if err := c.transport.Send(msg); err != nil {
		d.Logger.Warn("dropping connection after send failure",
			zap.String("user_id", c.UserID()),
			zap.Error(err))
		d.Registry.Drop(c)
	}
}
