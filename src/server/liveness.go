package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// Liveness Monitor
//
// Periodic sweep over every connection. Each sweep consumes the alive
// flag and sends a ping; the pong handler sets the flag again. A
// connection whose flag is still clear at the next sweep has been silent
// for a full interval and is terminated. Detection latency is therefore
// bounded by two intervals.
// -----------------------------------------------------------------------------

type LivenessMonitor struct {
	Registry *Registry
	Interval time.Duration
	Logger   *zap.Logger
}

// -----------------------------------------------------------------------------

func NewLivenessMonitor(reg *Registry, interval time.Duration, log *zap.Logger) *LivenessMonitor {
	return &LivenessMonitor{Registry: reg, Interval: interval, Logger: log}
}

// -----------------------------------------------------------------------------

func (m *LivenessMonitor) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go m.runLoop(ctx, wg)
}

func (m *LivenessMonitor) runLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	m.Logger.Info("liveness monitor started", zap.Duration("interval", m.Interval))
	for {
		select {
		case <-ctx.Done():
			m.Logger.Info("liveness monitor stopped")
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// -----------------------------------------------------------------------------

// Sweep runs one heartbeat pass over all connections.
func (m *LivenessMonitor) Sweep() {
	for _, c := range m.Registry.Connections() {
		if !m.Registry.ClearAlive(c) {
			m.Logger.Warn("terminating unresponsive connection",
				zap.String("user_id", c.UserID()))
			m.Registry.Drop(c)
			continue
		}
		if err := c.transport.Ping(); err != nil {
			m.Logger.Warn("terminating connection after ping failure",
				zap.String("user_id", c.UserID()),
				zap.Error(err))
			m.Registry.Drop(c)
		}
	}
}
