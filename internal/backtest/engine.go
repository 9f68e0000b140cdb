package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"polysim/internal/logging"
	"polysim/internal/provider"
	"polysim/internal/strategy"
	"polysim/internal/types"

	"github.com/google/uuid"
)

// Config holds the parameters of one backtest run
type Config struct {
	Strategy   string                 `json:"strategy"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Markets    []string               `json:"markets"`

	// Zero times leave the corresponding bound open
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	InitialCapital float64 `json:"initial_capital"`
	MaxPositions   int     `json:"max_positions"`

	Slippage    float64 `json:"slippage"`
	FeeRate     float64 `json:"fee_rate"`
	MinNotional float64 `json:"min_notional"`

	RiskFreeRate   float64 `json:"risk_free_rate"`
	PeriodsPerYear float64 `json:"periods_per_year"`

	FetchWorkers int `json:"fetch_workers"`
}

// applyDefaults fills unset fields. A zero MinNotional is meaningful and
// stays as-is.
func (c *Config) applyDefaults() {
	if c.InitialCapital <= 0 {
		c.InitialCapital = 10000
	}
	if c.MaxPositions <= 0 {
		c.MaxPositions = 5
	}
	if c.PeriodsPerYear <= 0 {
		c.PeriodsPerYear = 365
	}
	if c.FetchWorkers <= 0 {
		c.FetchWorkers = 4
	}
}

// Engine replays snapshot history against a strategy. Frames are processed
// strictly in order on a single goroutine; only the initial history fetch
// runs concurrently.
type Engine struct {
	config   Config
	provider provider.MarketDataProvider
	strategy strategy.Strategy
	logger   *logging.Logger

	histories map[string][]types.Snapshot
	timeline  []Frame
	equity    *equityTracker
	positions map[string]*types.Position
	trades    []types.Trade
}

// NewEngine creates an engine for the given run configuration
func NewEngine(cfg Config, p provider.MarketDataProvider, s strategy.Strategy, logger *logging.Logger) *Engine {
	cfg.applyDefaults()
	if logger == nil {
		logger = logging.CreateBacktestLogger()
	}
	return &Engine{
		config:   cfg,
		provider: p,
		strategy: s,
		logger:   logger,
	}
}

// Run executes the backtest. The context is honored while history is being
// fetched; once the replay starts it runs to completion. Strategy errors
// from signal generation or execution callbacks abort the run.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	startedAt := time.Now()

	e.histories = make(map[string][]types.Snapshot)
	e.positions = make(map[string]*types.Position)
	e.trades = nil
	e.equity = newEquityTracker(e.config.InitialCapital)

	if err := e.strategy.Initialize(e.config.Parameters); err != nil {
		return nil, fmt.Errorf("strategy %s failed to initialize: %w", e.config.Strategy, err)
	}

	if err := e.fetchHistories(ctx); err != nil {
		return nil, err
	}

	e.timeline = BuildTimeline(e.histories)
	e.logger.Infof("Replaying %d frames across %d markets", len(e.timeline), len(e.histories))

	progress := newProgressTracker(e.logger, len(e.timeline))
	for i, frame := range e.timeline {
		if err := e.evaluateExits(frame); err != nil {
			return nil, err
		}
		if err := e.openPositions(frame); err != nil {
			return nil, err
		}
		e.equity.record(frame.Time)
		progress.step(i+1, e.equity.current, len(e.positions))
	}

	if err := e.closeRemaining(); err != nil {
		return nil, err
	}

	return e.buildResult(startedAt), nil
}

// fetchHistories loads every configured market through a bounded worker
// pool. A market whose fetch fails or returns nothing is logged and
// excluded; the run proceeds with whatever loaded.
func (e *Engine) fetchHistories(ctx context.Context) error {
	workers := e.config.FetchWorkers
	if workers > len(e.config.Markets) {
		workers = len(e.config.Markets)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for marketID := range jobs {
				if ctx.Err() != nil {
					return
				}
				snaps, err := e.provider.GetHistoricalData(ctx, marketID, e.config.StartTime, e.config.EndTime)
				if err != nil {
					e.logger.Warnf("Excluding market %s: %v", marketID, err)
					continue
				}
				if len(snaps) == 0 {
					e.logger.Warnf("Excluding market %s: no snapshots in window", marketID)
					continue
				}
				mu.Lock()
				e.histories[marketID] = snaps
				mu.Unlock()
			}
		}()
	}

	seen := make(map[string]bool)
send:
	for _, marketID := range e.config.Markets {
		if seen[marketID] {
			continue
		}
		seen[marketID] = true
		select {
		case jobs <- marketID:
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)
	wg.Wait()

	return ctx.Err()
}

// evaluateExits checks every open position against the frame. Positions
// whose market is absent from the frame are left untouched. Exit conditions
// are tested in a fixed order and only the first match fires.
func (e *Engine) evaluateExits(frame Frame) error {
	if len(e.positions) == 0 {
		return nil
	}

	ids := make([]string, 0, len(e.positions))
	for id := range e.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, marketID := range ids {
		snap, ok := frame.Snapshots[marketID]
		if !ok {
			continue
		}

		pos := e.positions[marketID]
		pos.Mark(snap.Price, snap.Timestamp)

		reason, triggered := exitReason(pos, snap, frame.Time)
		if !triggered {
			continue
		}

		if err := e.closePosition(pos, snap.Price, frame.Time, reason, e.config.Slippage); err != nil {
			return err
		}
	}
	return nil
}

// exitReason tests the exit conditions in priority order: stop loss, take
// profit, signal expiry, market resolution
func exitReason(pos *types.Position, snap types.Snapshot, now time.Time) (types.ExitReason, bool) {
	sig := pos.Signal
	price := snap.Price

	if sig.StopLoss > 0 {
		if (pos.Side == types.SideLong && price <= sig.StopLoss) ||
			(pos.Side == types.SideShort && price >= sig.StopLoss) {
			return types.ExitStopLoss, true
		}
	}
	if sig.TakeProfit > 0 {
		if (pos.Side == types.SideLong && price >= sig.TakeProfit) ||
			(pos.Side == types.SideShort && price <= sig.TakeProfit) {
			return types.ExitTakeProfit, true
		}
	}
	if sig.Expired(now) {
		return types.ExitExpired, true
	}
	if snap.Resolved {
		return types.ExitResolved, true
	}
	return "", false
}

// closePosition books the trade, updates equity, and notifies the strategy.
// The equity update happens before the callback so the strategy observes
// the post-trade account state.
func (e *Engine) closePosition(pos *types.Position, marketPrice float64, exitTime time.Time, reason types.ExitReason, slippage float64) error {
	exitPrice := applySlippage(marketPrice, pos.Side, false, slippage)

	var gross float64
	if pos.Side == types.SideLong {
		gross = (exitPrice - pos.EntryPrice) * pos.Size
	} else {
		gross = (pos.EntryPrice - exitPrice) * pos.Size
	}

	// Fees are charged per unit of size on both legs
	fees := 2 * e.config.FeeRate * pos.Size
	pnl := gross - fees

	pnlPct := 0.0
	if pos.EntryPrice*pos.Size > 0 {
		pnlPct = pnl / (pos.EntryPrice * pos.Size)
	}

	trade := types.Trade{
		ID:         pos.ID,
		MarketID:   pos.MarketID,
		Side:       pos.Side,
		Size:       pos.Size,
		EntryPrice: pos.EntryPrice,
		EntryTime:  pos.EntryTime,
		ExitPrice:  exitPrice,
		ExitTime:   exitTime,
		PnL:        pnl,
		PnLPercent: pnlPct,
		Fees:       fees,
		Slippage:   pos.EntrySlippage + math.Abs(exitPrice-marketPrice)*pos.Size,
		ExitReason: reason,
		Signal:     pos.Signal,
	}

	e.trades = append(e.trades, trade)
	delete(e.positions, pos.MarketID)
	e.equity.apply(pnl)

	e.logger.LogTrade(trade.MarketID, string(trade.Side), trade.Size, trade.EntryPrice, trade.ExitPrice, trade.PnL, string(reason))

	result := types.ExecutionResult{Trade: trade, Outcome: trade.Outcome()}
	if err := e.strategy.OnSignalExecuted(pos.Signal, result); err != nil {
		return fmt.Errorf("execution callback failed for %s: %w", trade.MarketID, err)
	}
	return nil
}

// openPositions asks the strategy for signals on the frame's tradable
// markets and opens positions for the ones that pass every check. Rejected
// signals are skipped without aborting the run.
func (e *Engine) openPositions(frame Frame) error {
	available := frame.Available()
	if len(available) == 0 {
		return nil
	}

	signals, err := e.strategy.GenerateSignals(available)
	if err != nil {
		return fmt.Errorf("signal generation failed at %s: %w", frame.Time.Format(time.RFC3339), err)
	}

	for _, sig := range signals {
		if len(e.positions) >= e.config.MaxPositions {
			e.logger.Debugf("Rejecting signal for %s: position cap reached", sig.MarketID)
			continue
		}
		if _, exists := e.positions[sig.MarketID]; exists {
			e.logger.Debugf("Rejecting signal for %s: position already open", sig.MarketID)
			continue
		}
		snap, ok := frame.Snapshots[sig.MarketID]
		if !ok || snap.Resolved {
			e.logger.Debugf("Rejecting signal for %s: market not tradable in this frame", sig.MarketID)
			continue
		}
		if sig.Side != types.SideLong && sig.Side != types.SideShort {
			e.logger.Debugf("Rejecting signal for %s: invalid side %q", sig.MarketID, sig.Side)
			continue
		}
		if !e.strategy.ValidateSignal(sig) {
			e.logger.Debugf("Rejecting signal for %s: failed strategy validation", sig.MarketID)
			continue
		}

		size := e.strategy.PositionSize(sig, e.equity.current)
		entryPrice := applySlippage(snap.Price, sig.Side, true, e.config.Slippage)
		if size <= 0 || size*entryPrice < e.config.MinNotional {
			e.logger.Debugf("Rejecting signal for %s: size %.4f below minimum", sig.MarketID, size)
			continue
		}

		pos := types.NewPosition(sig, size, entryPrice, frame.Time)
		pos.EntrySlippage = math.Abs(entryPrice-snap.Price) * size
		pos.Mark(snap.Price, snap.Timestamp)
		e.positions[sig.MarketID] = pos

		e.logger.LogPositionOpened(pos.MarketID, string(pos.Side), pos.Size, pos.EntryPrice)
	}
	return nil
}

// closeRemaining force-closes every position still open after the final
// frame, at the last price each market was seen at and with no slippage
func (e *Engine) closeRemaining() error {
	if len(e.positions) == 0 {
		return nil
	}

	ids := make([]string, 0, len(e.positions))
	for id := range e.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, marketID := range ids {
		pos := e.positions[marketID]
		if err := e.closePosition(pos, pos.LastPrice, pos.LastSeen, types.ExitEndOfData, 0); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) buildResult(startedAt time.Time) *Result {
	finishedAt := time.Now()
	summary := buildSummary(e.trades, e.config.InitialCapital, e.equity.current)
	metrics := computeMetrics(e.equity.curve, summary, e.config.RiskFreeRate, e.config.PeriodsPerYear)

	res := &Result{
		RunID:           uuid.New().String(),
		Config:          e.config,
		StartedAt:       startedAt,
		FinishedAt:      finishedAt,
		Elapsed:         finishedAt.Sub(startedAt),
		FramesProcessed: len(e.timeline),
		Summary:         summary,
		Metrics:         metrics,
		Trades:          e.trades,
		EquityCurve:     e.equity.curve,
		DrawdownPeriods: ExtractDrawdownPeriods(e.equity.curve),
		MonthlyReturns:  ComputeMonthlyReturns(e.equity.curve, e.trades),
	}

	e.logger.LogRun(res.RunID, e.config.Strategy, len(e.histories), res.FramesProcessed, summary.TotalTrades, summary.FinalEquity)
	e.logger.LogPerformance(summary.FinalEquity-summary.InitialCapital, summary.WinRate, summary.TotalTrades, metrics.SharpeRatio)

	return res
}

// applySlippage moves the fill price against the trader. Opening a long or
// closing a short buys and pays up; opening a short or closing a long sells
// and receives less.
func applySlippage(price float64, side types.Side, opening bool, slippage float64) float64 {
	if slippage == 0 {
		return price
	}
	buying := (side == types.SideLong) == opening
	if buying {
		return price * (1 + slippage)
	}
	return price * (1 - slippage)
}
