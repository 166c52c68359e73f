package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wealthpilot-market/src/events"
	"wealthpilot-market/src/interfaces"
	"wealthpilot-market/src/models"
	"wealthpilot-market/src/provider"

	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// Alert Evaluator
//
// Periodic pass over the active alert conditions. Quotes come from the
// same fetcher the streaming path uses, so an evaluation cycle mostly
// hits cache. A condition fires once and stays triggered until the user
// resets it; the cooldown guards against re-fires right after a reset
// while the market is still past the threshold.
// -----------------------------------------------------------------------------

type AlertEvaluator struct {
	Store      interfaces.IStore
	Fetcher    *provider.ResilientFetcher
	Dispatcher interfaces.IDispatcher
	Publisher  *events.AlertPublisher
	Logger     *zap.Logger

	Interval time.Duration
	Cooldown time.Duration

	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewAlertEvaluator(
	cfg models.MAlertsConfig,
	store interfaces.IStore,
	fetcher *provider.ResilientFetcher,
	dispatcher interfaces.IDispatcher,
	publisher *events.AlertPublisher,
	log *zap.Logger,
) *AlertEvaluator {
	return &AlertEvaluator{
		Store:      store,
		Fetcher:    fetcher,
		Dispatcher: dispatcher,
		Publisher:  publisher,
		Logger:     log,
		Interval:   time.Duration(cfg.IntervalSeconds) * time.Second,
		Cooldown:   time.Duration(cfg.CooldownMinutes) * time.Minute,
		now:        time.Now,
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

func (e *AlertEvaluator) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go e.runLoop(ctx, wg)
}

func (e *AlertEvaluator) runLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	e.Logger.Info("alert evaluator started", zap.Duration("interval", e.Interval))
	for {
		select {
		case <-ctx.Done():
			e.Logger.Info("alert evaluator stopped")
			return
		case <-ticker.C:
			e.RunCycle(ctx)
		}
	}
}

// -----------------------------------------------------------------------------
// One cycle
// -----------------------------------------------------------------------------

// RunCycle evaluates every active condition once.
func (e *AlertEvaluator) RunCycle(ctx context.Context) {
	conditions, err := e.Store.ActiveConditions(ctx)
	if err != nil {
		e.Logger.Error("loading alert conditions failed", zap.Error(err))
		return
	}
	if len(conditions) == 0 {
		return
	}

	bySymbol := make(map[string][]*models.MAlertCondition)
	for i := range conditions {
		cond := &conditions[i]
		bySymbol[cond.Symbol] = append(bySymbol[cond.Symbol], cond)
	}

	fired := 0
	for symbol, group := range bySymbol {
		if ctx.Err() != nil {
			return
		}

		quote, err := e.Fetcher.Quote(ctx, symbol)
		if err != nil {
			e.Logger.Warn("alert quote unavailable, skipping symbol",
				zap.String("symbol", symbol),
				zap.Error(err))
			continue
		}

		for _, cond := range group {
			if e.evaluate(ctx, cond, quote) {
				fired++
			}
		}
	}

	if fired > 0 {
		e.Logger.Info("alert cycle complete",
			zap.Int("conditions", len(conditions)),
			zap.Int("fired", fired))
	}
}

// -----------------------------------------------------------------------------

// evaluate checks one condition against a fresh quote and fires it when
// satisfied. Returns true when an event was dispatched.
func (e *AlertEvaluator) evaluate(ctx context.Context, cond *models.MAlertCondition, quote *models.MQuote) bool {
	if !cond.Satisfied(quote) {
		return false
	}

	now := e.now()
	if cond.LastTriggeredAt != nil && now.Sub(*cond.LastTriggeredAt) < e.Cooldown {
		return false
	}

	if err := e.Store.MarkTriggered(ctx, cond.ID, now); err != nil {
		// Without the persisted flag the condition would re-fire every
		// cycle, so dispatch nothing.
		e.Logger.Error("persisting trigger failed",
			zap.Int64("condition_id", cond.ID),
			zap.Error(err))
		return false
	}

	ev := &models.MAlertEvent{
		ConditionID:  cond.ID,
		UserID:       cond.UserID,
		Symbol:       cond.Symbol,
		Rule:         cond.Rule,
		Message:      describe(cond, quote),
		CurrentValue: currentValue(cond, quote),
		TriggeredAt:  now,
	}

	e.Logger.Info("alert triggered",
		zap.Int64("condition_id", cond.ID),
		zap.String("user_id", cond.UserID),
		zap.String("symbol", cond.Symbol),
		zap.String("rule", cond.Rule))

	e.Dispatcher.SendAlert(ev)
	if e.Publisher != nil {
		e.Publisher.PublishAlert(ctx, ev)
	}
	return true
}

// -----------------------------------------------------------------------------

func describe(cond *models.MAlertCondition, quote *models.MQuote) string {
	switch cond.Rule {
	case models.AlertPriceAbove:
		return fmt.Sprintf("%s rose above %.2f (now %.2f)", cond.Symbol, cond.Threshold, quote.Price)
	case models.AlertPriceBelow:
		return fmt.Sprintf("%s fell below %.2f (now %.2f)", cond.Symbol, cond.Threshold, quote.Price)
	case models.AlertPercentChange:
		return fmt.Sprintf("%s moved %.2f%% today (threshold %.2f%%)", cond.Symbol, quote.ChangePercent, cond.Threshold)
	default:
		return fmt.Sprintf("%s alert triggered", cond.Symbol)
	}
}

func currentValue(cond *models.MAlertCondition, quote *models.MQuote) float64 {
	if cond.Rule == models.AlertPercentChange {
		return quote.ChangePercent
	}
	return quote.Price
}
