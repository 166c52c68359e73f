package server

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"wealthpilot-market/src/models"

	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// Connection Registry
//
// Owns every live connection, the per-connection subscription sets, and the
// two derived indexes used for fan-out: symbol -> connections and
// user -> connections. All mutation happens under one RWMutex with no I/O
// inside the critical section.
// -----------------------------------------------------------------------------

// Conn is the transport side of a connection. The registry never touches
// the wire directly.
type Conn interface {
	Send(msg *models.MServerMessage) error
	Ping() error
	Close() error
}

// Connection is the registry's handle for one client.
//
// userID is atomic because the dispatcher and the liveness monitor read
// it from their own goroutines while Authenticate writes it under the
// registry lock.
type Connection struct {
	transport Conn
	userID    atomic.Value
	symbols   map[string]struct{}
	alive     bool
}

// UserID returns the bound identity, empty when unauthenticated.
func (c *Connection) UserID() string {
	if v := c.userID.Load(); v != nil {
		return v.(string)
	}
	return ""
}

// -----------------------------------------------------------------------------

type Registry struct {
	conns    map[*Connection]struct{}
	bySymbol map[string]map[*Connection]struct{}
	byUser   map[string]map[*Connection]struct{}
	Logger   *zap.Logger
	mu       sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		conns:    make(map[*Connection]struct{}),
		bySymbol: make(map[string]map[*Connection]struct{}),
		byUser:   make(map[string]map[*Connection]struct{}),
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

// Register wraps a transport into a tracked connection. New connections
// start alive so they survive the first liveness sweep.
func (r *Registry) Register(t Conn) *Connection {
	c := &Connection{
		transport: t,
		symbols:   make(map[string]struct{}),
		alive:     true,
	}

	r.mu.Lock()
	r.conns[c] = struct{}{}
	total := len(r.conns)
	r.mu.Unlock()

	r.Logger.Info("connection registered", zap.Int("connections", total))
	return c
}

// -----------------------------------------------------------------------------

// Unregister removes the connection from every index. Idempotent.
func (r *Registry) Unregister(c *Connection) {
	r.mu.Lock()
	if _, ok := r.conns[c]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, c)

	for sym := range c.symbols {
		r.removeFromSymbol(sym, c)
	}
	if uid := c.UserID(); uid != "" {
		r.removeFromUser(uid, c)
	}
	total := len(r.conns)
	r.mu.Unlock()

	r.Logger.Info("connection unregistered", zap.Int("connections", total))
}

// -----------------------------------------------------------------------------

// Drop force-closes a connection and unregisters it. Used for send
// failures, slow consumers and missed heartbeats alike.
func (r *Registry) Drop(c *Connection) {
	c.transport.Close()
	r.Unregister(c)
}

// -----------------------------------------------------------------------------

// Authenticate binds a user identity to the connection. The binding is
// set-once; a second auth on the same connection is rejected.
func (r *Registry) Authenticate(c *Connection, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c]; !ok {
		return fmt.Errorf("connection is not registered")
	}
	if c.UserID() != "" {
		return fmt.Errorf("connection is already authenticated")
	}

	c.userID.Store(userID)
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[*Connection]struct{})
	}
	r.byUser[userID][c] = struct{}{}
	return nil
}

// -----------------------------------------------------------------------------

// Subscribe adds symbols to the connection's set. Idempotent; returns the
// symbols that were actually new.
func (r *Registry) Subscribe(c *Connection, symbols []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c]; !ok {
		return nil
	}

	var added []string
	for _, sym := range symbols {
		if sym == "" {
			continue
		}
		if _, ok := c.symbols[sym]; ok {
			continue
		}
		c.symbols[sym] = struct{}{}
		if r.bySymbol[sym] == nil {
			r.bySymbol[sym] = make(map[*Connection]struct{})
		}
		r.bySymbol[sym][c] = struct{}{}
		added = append(added, sym)
	}
	return added
}

// -----------------------------------------------------------------------------

// Unsubscribe removes symbols from the connection's set. Idempotent;
// returns the symbols that were actually removed.
func (r *Registry) Unsubscribe(c *Connection, symbols []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for _, sym := range symbols {
		if _, ok := c.symbols[sym]; !ok {
			continue
		}
		delete(c.symbols, sym)
		r.removeFromSymbol(sym, c)
		removed = append(removed, sym)
	}
	return removed
}

// -----------------------------------------------------------------------------

// AllSubscribedSymbols returns the union of every live connection's
// subscription set, sorted so poll batches keep a fixed order.
func (r *Registry) AllSubscribedSymbols() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.bySymbol))
	for sym := range r.bySymbol {
		out = append(out, sym)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

// -----------------------------------------------------------------------------

// SubscribersOf returns a snapshot of the connections subscribed to a
// symbol. Fan-out iterates the snapshot, so a concurrent disconnect is
// safe: delivery to a gone connection fails and drops it.
func (r *Registry) SubscribersOf(symbol string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.bySymbol[symbol])
}

// ConnectionsOf returns a snapshot of the connections authenticated as a
// user; one user may hold several (multiple browser tabs).
func (r *Registry) ConnectionsOf(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.byUser[userID])
}

// Connections returns a snapshot of every live connection.
func (r *Registry) Connections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.conns)
}

// -----------------------------------------------------------------------------

// SubscriptionsOf returns a copy of the connection's own symbol set.
func (r *Registry) SubscriptionsOf(c *Connection) []string {
	r.mu.RLock()
	out := make([]string, 0, len(c.symbols))
	for sym := range c.symbols {
		out = append(out, sym)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

// IsRegistered reports whether the connection is still tracked.
func (r *Registry) IsRegistered(c *Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[c]
	return ok
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// -----------------------------------------------------------------------------
// Liveness flags, driven by the monitor.
// -----------------------------------------------------------------------------

// MarkAlive records a heartbeat response.
func (r *Registry) MarkAlive(c *Connection) {
	r.mu.Lock()
	c.alive = true
	r.mu.Unlock()
}

// ClearAlive consumes the alive flag, returning its previous value. A
// connection whose flag was already clear has missed a full sweep.
func (r *Registry) ClearAlive(c *Connection) bool {
	r.mu.Lock()
	was := c.alive
	c.alive = false
	r.mu.Unlock()
	return was
}

// -----------------------------------------------------------------------------

// removeFromSymbol and removeFromUser require the write lock.

func (r *Registry) removeFromSymbol(symbol string, c *Connection) {
	if set, ok := r.bySymbol[symbol]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.bySymbol, symbol)
		}
	}
}

func (r *Registry) removeFromUser(userID string, c *Connection) {
	if set, ok := r.byUser[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}

func snapshot(set map[*Connection]struct{}) []*Connection {
	out := make([]*Connection, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
