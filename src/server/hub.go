package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wealthpilot-market/src/interfaces"
	"wealthpilot-market/src/models"
	"wealthpilot-market/src/provider"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// StreamServer
//
// HTTP surface of the service: the /ws streaming endpoint plus the REST
// market-data routes. The registry tracks connections; the dispatcher
// fans updates out to them.
// -----------------------------------------------------------------------------

type StreamServer struct {
	Config     *models.MConfig
	Logger     *zap.Logger
	Registry   *Registry
	Dispatcher *Dispatcher
	Fetcher    *provider.ResilientFetcher
	Store      interfaces.IStore
	Verifier   interfaces.ITokenVerifier

	engine *gin.Engine
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewStreamServer(
	cfg *models.MConfig,
	log *zap.Logger,
	fetcher *provider.ResilientFetcher,
	store interfaces.IStore,
	verifier interfaces.ITokenVerifier,
) *StreamServer {
	// Set Gin mode
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := NewRegistry(log)
	s := &StreamServer{
		Config:     cfg,
		Logger:     log,
		Registry:   registry,
		Dispatcher: NewDispatcher(registry, log),
		Fetcher:    fetcher,
		Store:      store,
		Verifier:   verifier,
		engine:     gin.New(),
	}
	s.engine.Use(gin.Recovery())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *StreamServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/market/quote/:symbol", s.getQuote)
	s.engine.POST("/api/market/quotes", s.getQuotes)
	s.engine.GET("/api/market/history/:symbol", s.getHistory)
	s.engine.GET("/api/market/profile/:symbol", s.getProfile)
	s.engine.GET("/api/health", s.getHealth)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *StreamServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("starting server", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *StreamServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// WebSocket upgrade
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *StreamServer) handleWebSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newWSClient(ws, s.Logger)
	conn := s.Registry.Register(client)

	client.Send(&models.MServerMessage{
		Type:      models.MsgConnected,
		Message:   "connected, authenticate to receive updates",
		Timestamp: time.Now().Unix(),
	})

	go client.writePump()
	go client.readPump(s, conn)
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *StreamServer) handleClientMessage(conn *Connection, raw []byte) {
	var msg models.MClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.Logger.Debug("unparseable client message", zap.Error(err))
		return
	}

	switch msg.Type {
	case models.MsgAuth:
		s.handleAuth(conn, &msg)
	case models.MsgSubscribe:
		s.handleSubscribe(conn, &msg)
	case models.MsgUnsubscribe:
		s.handleUnsubscribe(conn, &msg)
	case models.MsgPing:
		s.reply(conn, &models.MServerMessage{
			Type:      models.MsgPong,
			Timestamp: time.Now().Unix(),
		})
	default:
		s.Logger.Debug("unknown message type", zap.String("type", msg.Type))
	}
}

// -----------------------------------------------------------------------------

// handleAuth verifies the token, binds the identity and auto-subscribes
// the connection to the user's stored watchlist symbols.
func (s *StreamServer) handleAuth(conn *Connection, msg *models.MClientMessage) {
	userID, err := s.Verifier.Verify(msg.Token)
	if err != nil {
		s.Logger.Warn("authentication rejected", zap.Error(err))
		s.reply(conn, &models.MServerMessage{
			Type:      models.MsgAuthError,
			Message:   "invalid or expired token",
			Timestamp: time.Now().Unix(),
		})
		return
	}

	if err := s.Registry.Authenticate(conn, userID); err != nil {
		s.reply(conn, &models.MServerMessage{
			Type:      models.MsgAuthError,
			Message:   err.Error(),
			Timestamp: time.Now().Unix(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	symbols, err := s.Store.SymbolsForUser(ctx, userID)
	if err != nil {
		// The stream still works, the client just has to subscribe manually.
		s.Logger.Warn("watchlist lookup failed",
			zap.String("user_id", userID),
			zap.Error(err))
	} else {
		s.Registry.Subscribe(conn, symbols)
	}

	s.Logger.Info("connection authenticated",
		zap.String("user_id", userID),
		zap.Int("auto_subscribed", len(symbols)))

	s.reply(conn, &models.MServerMessage{
		Type:      models.MsgAuthenticated,
		UserID:    userID,
		Symbols:   s.Registry.SubscriptionsOf(conn),
		Timestamp: time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------

func (s *StreamServer) handleSubscribe(conn *Connection, msg *models.MClientMessage) {
	s.Registry.Subscribe(conn, normalizeSymbols(msg.Symbols))
	s.reply(conn, &models.MServerMessage{
		Type:      models.MsgSubscribed,
		Symbols:   s.Registry.SubscriptionsOf(conn),
		Timestamp: time.Now().Unix(),
	})
}

func (s *StreamServer) handleUnsubscribe(conn *Connection, msg *models.MClientMessage) {
	s.Registry.Unsubscribe(conn, normalizeSymbols(msg.Symbols))
	s.reply(conn, &models.MServerMessage{
		Type:      models.MsgUnsubscribed,
		Symbols:   s.Registry.SubscriptionsOf(conn),
		Timestamp: time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------

// reply sends a direct response; a failed reply evicts the connection
// just like a failed broadcast does.
func (s *StreamServer) reply(conn *Connection, msg *models.MServerMessage) {
	if err := conn.transport.Send(msg); err != nil {
		s.Registry.Drop(conn)
	}
}

// -----------------------------------------------------------------------------

func normalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym != "" {
			out = append(out, sym)
		}
	}
	return out
}
