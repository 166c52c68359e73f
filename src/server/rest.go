package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"wealthpilot-market/src/helpers"
	"wealthpilot-market/src/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// REST Handlers
//
// Pull-style access to the same fetcher the streaming path uses, so REST
// and stream clients share one cache and one provider budget.
// -----------------------------------------------------------------------------

const maxBulkQuotes = 50

// -----------------------------------------------------------------------------

func (s *StreamServer) getQuote(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		c.JSON(400, gin.H{"error": "symbol is required"})
		return
	}

	quote, err := s.Fetcher.Quote(c.Request.Context(), symbol)
	if err != nil {
		s.renderFetchError(c, symbol, err)
		return
	}
	c.JSON(200, quote)
}

// -----------------------------------------------------------------------------

// getQuotes resolves a batch of symbols in one call. Partial failure is
// fine: unknown symbols are simply absent from the response.
func (s *StreamServer) getQuotes(c *gin.Context) {
	var req struct {
		Symbols []string `json:"symbols"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "body must be {\"symbols\": [...]}"})
		return
	}

	symbols := normalizeSymbols(req.Symbols)
	if len(symbols) == 0 {
		c.JSON(400, gin.H{"error": "at least one symbol is required"})
		return
	}
	if len(symbols) > maxBulkQuotes {
		c.JSON(400, gin.H{"error": "too many symbols", "max": maxBulkQuotes})
		return
	}

	quotes := make(map[string]*models.MQuote, len(symbols))
	for _, sym := range symbols {
		quote, err := s.Fetcher.Quote(c.Request.Context(), sym)
		if err != nil {
			s.Logger.Warn("bulk quote miss", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		quotes[sym] = quote
	}
	c.JSON(200, gin.H{"quotes": quotes, "timestamp": time.Now().Unix()})
}

// -----------------------------------------------------------------------------

func (s *StreamServer) getHistory(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 || days > 3650 {
		c.JSON(400, gin.H{"error": "days must be between 1 and 3650"})
		return
	}

	bars, err := s.Fetcher.Historical(c.Request.Context(), symbol, days)
	if err != nil {
		s.renderFetchError(c, symbol, err)
		return
	}
	c.JSON(200, gin.H{"symbol": symbol, "days": days, "bars": bars})
}

// -----------------------------------------------------------------------------

func (s *StreamServer) getProfile(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))

	profile, err := s.Fetcher.Profile(c.Request.Context(), symbol)
	if err != nil {
		s.renderFetchError(c, symbol, err)
		return
	}
	c.JSON(200, profile)
}

// -----------------------------------------------------------------------------

func (s *StreamServer) getHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":      "ok",
		"connections": s.Registry.Count(),
		"symbols":     len(s.Registry.AllSubscribedSymbols()),
		"timestamp":   time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------

func (s *StreamServer) renderFetchError(c *gin.Context, symbol string, err error) {
	s.Logger.Warn("fetch failed", zap.String("symbol", symbol), zap.Error(err))
	switch {
	case errors.Is(err, helpers.ErrNoData):
		c.JSON(404, gin.H{"error": "no data for symbol", "symbol": symbol})
	case errors.Is(err, helpers.ErrUnavailable):
		c.JSON(503, gin.H{"error": "market data temporarily unavailable", "symbol": symbol})
	default:
		c.JSON(502, gin.H{"error": "upstream failure", "symbol": symbol})
	}
}
