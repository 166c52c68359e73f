package poller

import (
	"context"
	"sort"
	"sync"
	"time"

	"wealthpilot-market/src/interfaces"
	"wealthpilot-market/src/models"
	"wealthpilot-market/src/provider"
	"wealthpilot-market/src/utils"

	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// Quote Poller
//
// Periodically refreshes every symbol anyone cares about: the union of
// live subscriptions and stored holdings. Symbols are fetched in small
// batches with a pause between them so a large watchlist cannot burn the
// provider rate budget in one burst. Cycles never overlap; a slow cycle
// causes the next tick to be skipped rather than stacking up.
// -----------------------------------------------------------------------------

// SymbolSource yields the symbols with at least one live subscriber.
type SymbolSource interface {
	AllSubscribedSymbols() []string
}

// -----------------------------------------------------------------------------

type QuotePoller struct {
	Symbols    SymbolSource
	Store      interfaces.IStore
	Fetcher    *provider.ResilientFetcher
	Dispatcher interfaces.IDispatcher
	Logger     *zap.Logger

	Interval   time.Duration
	BatchSize  int
	BatchDelay time.Duration

	// Scheduler is optional; when set, a cycle is skipped while every
	// relevant exchange is closed.
	Scheduler *utils.MarketScheduler

	running sync.Mutex
}

// -----------------------------------------------------------------------------

func NewQuotePoller(
	cfg models.MStreamConfig,
	symbols SymbolSource,
	store interfaces.IStore,
	fetcher *provider.ResilientFetcher,
	dispatcher interfaces.IDispatcher,
	log *zap.Logger,
) *QuotePoller {
	p := &QuotePoller{
		Symbols:    symbols,
		Store:      store,
		Fetcher:    fetcher,
		Dispatcher: dispatcher,
		Logger:     log,
		Interval:   time.Duration(cfg.PollIntervalSeconds) * time.Second,
		BatchSize:  cfg.BatchSize,
		BatchDelay: time.Duration(cfg.BatchDelayMs) * time.Millisecond,
	}
	if cfg.RespectMarketHours {
		p.Scheduler = utils.NewMarketScheduler(log)
	}
	return p
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

func (p *QuotePoller) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go p.runLoop(ctx, wg)
}

func (p *QuotePoller) runLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.Logger.Info("quote poller started",
		zap.Duration("interval", p.Interval),
		zap.Int("batch_size", p.BatchSize))

	for {
		select {
		case <-ctx.Done():
			p.Logger.Info("quote poller stopped")
			return
		case <-ticker.C:
			if !p.running.TryLock() {
				p.Logger.Warn("previous poll cycle still running, skipping tick")
				continue
			}
			p.runCycle(ctx)
			p.running.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// One cycle
// -----------------------------------------------------------------------------

// RunCycle executes a single poll pass. Exposed for callers that drive
// the poller manually.
func (p *QuotePoller) RunCycle(ctx context.Context) {
	p.running.Lock()
	defer p.running.Unlock()
	p.runCycle(ctx)
}

func (p *QuotePoller) runCycle(ctx context.Context) {
	symbols, held := p.collectSymbols(ctx)
	if len(symbols) == 0 {
		return
	}

	if p.Scheduler != nil {
		p.Scheduler.UpdateSymbols(symbols)
		if !p.Scheduler.AnyMarketOpen() {
			p.Logger.Debug("all markets closed, skipping poll cycle")
			return
		}
	}

	start := time.Now()
	fetched := 0
	for i := 0; i < len(symbols); i += p.BatchSize {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.BatchDelay):
			}
		}

		end := i + p.BatchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		fetched += p.pollBatch(ctx, symbols[i:end], held)
	}

	p.Logger.Debug("poll cycle complete",
		zap.Int("symbols", len(symbols)),
		zap.Int("fetched", fetched),
		zap.Duration("elapsed", time.Since(start)))
}

// -----------------------------------------------------------------------------

// pollBatch fetches each symbol of one batch and broadcasts the hits. A
// failed symbol is logged and skipped; the rest of the batch still goes
// out.
func (p *QuotePoller) pollBatch(ctx context.Context, batch []string, held map[string]struct{}) int {
	fetched := 0
	for _, symbol := range batch {
		if ctx.Err() != nil {
			return fetched
		}

		quote, err := p.Fetcher.Quote(ctx, symbol)
		if err != nil {
			p.Logger.Warn("poll fetch failed",
				zap.String("symbol", symbol),
				zap.Error(err))
			continue
		}
		fetched++
		p.Dispatcher.BroadcastQuote(quote)

		if _, ok := held[symbol]; ok {
			if err := p.Store.UpdateHoldingPrice(ctx, symbol, quote.Price); err != nil {
				p.Logger.Warn("holding price update failed",
					zap.String("symbol", symbol),
					zap.Error(err))
			}
		}
	}
	return fetched
}

// -----------------------------------------------------------------------------

// collectSymbols merges live subscriptions with stored holdings so
// portfolio valuations stay fresh even when nobody is watching. The
// result is sorted to keep batch composition stable across cycles.
func (p *QuotePoller) collectSymbols(ctx context.Context) ([]string, map[string]struct{}) {
	set := make(map[string]struct{})
	for _, sym := range p.Symbols.AllSubscribedSymbols() {
		set[sym] = struct{}{}
	}

	held := make(map[string]struct{})
	heldSymbols, err := p.Store.AllHeldSymbols(ctx)
	if err != nil {
		p.Logger.Warn("held symbol lookup failed", zap.Error(err))
	}
	for _, sym := range heldSymbols {
		set[sym] = struct{}{}
		held[sym] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for sym := range set {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, held
}
