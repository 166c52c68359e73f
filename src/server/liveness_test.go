package server

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSweepPingsResponsiveConnections(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	m := NewLivenessMonitor(r, time.Second, zap.NewNop())

	fc := &fakeConn{}
	c := r.Register(fc)

	m.Sweep()
	assert.True(t, r.IsRegistered(c))
	assert.Equal(t, 1, fc.pings)

	// Pong arrives before the next sweep.
	r.MarkAlive(c)
	m.Sweep()
	assert.True(t, r.IsRegistered(c))
	assert.Equal(t, 2, fc.pings)
}

func TestSweepTerminatesSilentConnection(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	m := NewLivenessMonitor(r, time.Second, zap.NewNop())

	fc := &fakeConn{}
	c := r.Register(fc)

	// First sweep clears the flag and pings; no pong follows.
	m.Sweep()
	assert.True(t, r.IsRegistered(c))

	m.Sweep()
	assert.False(t, r.IsRegistered(c))
	assert.True(t, fc.closed)
}

func TestSweepTerminatesOnPingFailure(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	m := NewLivenessMonitor(r, time.Second, zap.NewNop())

	fc := &fakeConn{pingErr: errors.New("use of closed connection")}
	c := r.Register(fc)

	m.Sweep()
	assert.False(t, r.IsRegistered(c))
	assert.True(t, fc.closed)
}

func TestSweepMixedPopulation(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	m := NewLivenessMonitor(r, time.Second, zap.NewNop())

	responsive := r.Register(&fakeConn{})
	silent := r.Register(&fakeConn{})

	m.Sweep()
	r.MarkAlive(responsive)
	m.Sweep()

	assert.True(t, r.IsRegistered(responsive))
	assert.False(t, r.IsRegistered(silent))
	assert.Equal(t, 1, r.Count())
}
