package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/internal/signal/repository"
	"crypto-signal-engine/pkg/logger"

	"github.com/google/uuid"
)

// SignalManagerService owns the trading-signal lifecycle: creation, the TP/SL
// state machine, manual close, expiry and batch price updates.
type SignalManagerService interface {
	Create(ctx context.Context, coin string, proposal *dto.SignalProposal, sizing *Sizing, snapshot *indicator.Snapshot) (*entity.TradingSignal, error)
	Advance(ctx context.Context, signalID string, currentPrice float64) (*entity.TradingSignal, error)
	Close(ctx context.Context, signalID, reason string) (*entity.TradingSignal, error)
	ListActive(ctx context.Context, coin string) ([]entity.TradingSignal, error)
	ListCompleted(ctx context.Context, limit int) ([]entity.TradingSignal, error)
	UpdateAll(ctx context.Context) (*dto.UpdatePricesResponse, error)
	HasActiveSignal(ctx context.Context, coin string) (bool, error)
}

type signalManagerService struct {
	cfg        *config.Config
	log        *logger.Logger
	signalRepo repository.TradingSignalRepository
	marketData repository.MarketDataRepository
	dispatcher Dispatcher

	// Serializes advance() per signal so a later price update cannot commit
	// before an earlier one and break TP-ladder monotonicity.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSignalManagerService creates a new SignalManagerService.
func NewSignalManagerService(cfg *config.Config, log *logger.Logger,
	signalRepo repository.TradingSignalRepository,
	marketData repository.MarketDataRepository,
	dispatcher Dispatcher) SignalManagerService {
	return &signalManagerService{
		cfg:        cfg,
		log:        log,
		signalRepo: signalRepo,
		marketData: marketData,
		dispatcher: dispatcher,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *signalManagerService) lockFor(signalID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[signalID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[signalID] = l
	return l
}

func (s *signalManagerService) releaseLock(signalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, signalID)
}

// Create inserts a funded signal with status ACTIVE. Callers on the
// auto-generation path must check HasActiveSignal first; the store does not
// enforce per-coin uniqueness itself.
func (s *signalManagerService) Create(ctx context.Context, coin string, proposal *dto.SignalProposal, sizing *Sizing, snapshot *indicator.Snapshot) (*entity.TradingSignal, error) {
	if err := proposal.Validate(); err != nil {
		return nil, err
	}
	if proposal.Action == dto.ActionHold {
		return nil, fmt.Errorf("cannot fund a HOLD proposal")
	}

	signalType := "LONG"
	if proposal.Action == dto.ActionSell {
		signalType = "SHORT"
	}

	now := time.Now()
	signal := &entity.TradingSignal{
		ID:               uuid.NewString(),
		Coin:             coin,
		Action:           proposal.Action,
		SignalType:       signalType,
		Confidence:       proposal.Confidence,
		Timeframe:        proposal.Timeframe,
		EntryPrice:       proposal.EntryPrice,
		CurrentPrice:     proposal.EntryPrice,
		StopLoss:         proposal.StopLoss,
		TakeProfit1:      proposal.TakeProfit1,
		TakeProfit2:      proposal.TakeProfit2,
		TakeProfit3:      proposal.TakeProfit3,
		CapitalAllocated: sizing.CapitalAllocated,
		PositionSize:     sizing.PositionSize,
		RiskRewardRatio:  sizing.RiskRewardRatio,
		RiskPercentage:   sizing.RiskPercentage,
		RSI:              snapshot.RSI,
		MACD:             snapshot.MACD,
		Volume24h:        snapshot.Volume,
		Reasoning:        proposal.Reasoning,
		KeyFactors:       proposal.KeyFactors,
		Status:           entity.StatusActive,
		SignalExpiresAt:  now.Add(entity.ExpiryDuration(proposal.Timeframe)),
	}

	if err := s.signalRepo.Create(ctx, signal); err != nil {
		return nil, fmt.Errorf("failed to persist signal: %w", err)
	}

	s.log.InfoContext(ctx, "Signal created",
		logger.StringField("signal_id", signal.ID),
		logger.StringField("coin", coin),
		logger.StringField("action", signal.Action),
		logger.Float64Field("entry_price", signal.EntryPrice),
	)

	s.dispatcher.Publish(Event{Type: EventSignalCreated, Signal: signal})

	return signal, nil
}

// Advance applies one price observation to the signal: recomputes P&L, walks
// the TP ladder marking every newly crossed level with its own timestamp and
// event, and checks the stop. When the stop and TP3 trigger in the same
// update, TP3 wins; the stop overrides any lower TP reached in the same pass.
func (s *signalManagerService) Advance(ctx context.Context, signalID string, currentPrice float64) (*entity.TradingSignal, error) {
	lock := s.lockFor(signalID)
	lock.Lock()
	defer lock.Unlock()

	signal, err := s.signalRepo.FindByID(ctx, signalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load signal %s: %w", signalID, err)
	}
	if signal.Status.IsTerminal() {
		return signal, nil
	}

	signal.CurrentPrice = currentPrice
	s.recomputePnl(signal)

	var newHits []int
	now := time.Now()

	crossed := func(level float64) bool {
		if signal.Action == dto.ActionBuy {
			return currentPrice >= level
		}
		return currentPrice <= level
	}
	stopBreached := func() bool {
		if signal.Action == dto.ActionBuy {
			return currentPrice <= signal.StopLoss
		}
		return currentPrice >= signal.StopLoss
	}

	// Ladder walk in ascending order; a gap move may cross several levels in
	// one pass and each newly crossed level is recorded separately.
	if !signal.TP1Hit && crossed(signal.TakeProfit1) {
		signal.TP1Hit = true
		t := now
		signal.TP1HitAt = &t
		newHits = append(newHits, 1)
	}
	if !signal.TP2Hit && crossed(signal.TakeProfit2) {
		signal.TP2Hit = true
		t := now
		signal.TP2HitAt = &t
		newHits = append(newHits, 2)
	}
	if !signal.TP3Hit && crossed(signal.TakeProfit3) {
		signal.TP3Hit = true
		t := now
		signal.TP3HitAt = &t
		newHits = append(newHits, 3)
	}

	slHit := stopBreached() && !signal.TP3Hit

	switch {
	case signal.TP3Hit:
		signal.Status = entity.StatusTP3Hit
	case slHit:
		signal.Status = entity.StatusSLHit
	case signal.TP2Hit:
		signal.Status = entity.StatusTP2Hit
	case signal.TP1Hit:
		signal.Status = entity.StatusTP1Hit
	}

	if signal.Status.IsTerminal() {
		t := now
		signal.ClosedAt = &t
	}

	if err := s.signalRepo.Update(ctx, signal); err != nil {
		return nil, fmt.Errorf("failed to persist signal %s: %w", signalID, err)
	}

	// Notifications only after the transition is committed; delivery failures
	// never roll state back.
	if slHit {
		s.dispatcher.Publish(Event{Type: EventSLHit, Signal: signal, Price: currentPrice})
	} else {
		for _, level := range newHits {
			s.dispatcher.Publish(Event{Type: EventTPHit, Signal: signal, TPLevel: level, Price: currentPrice})
		}
	}

	if signal.Status.IsTerminal() {
		s.releaseLock(signalID)
	}

	return signal, nil
}

// Close force-terminates the signal at the last observed price.
func (s *signalManagerService) Close(ctx context.Context, signalID, reason string) (*entity.TradingSignal, error) {
	lock := s.lockFor(signalID)
	lock.Lock()
	defer lock.Unlock()

	signal, err := s.signalRepo.FindByID(ctx, signalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load signal %s: %w", signalID, err)
	}
	if signal.Status.IsTerminal() {
		return nil, fmt.Errorf("signal %s is already terminal (%s)", signalID, signal.Status)
	}

	symbol := signal.Coin + s.cfg.Engine.QuoteAsset
	if price, err := s.marketData.GetCurrentPrice(ctx, symbol); err == nil {
		signal.CurrentPrice = price
	} else {
		s.log.ErrorContext(ctx, "Failed to fetch live price for close, using last observed",
			logger.StringField("signal_id", signalID),
			logger.ErrorField(err),
		)
	}
	s.recomputePnl(signal)

	now := time.Now()
	signal.Status = entity.StatusClosed
	signal.ClosedAt = &now

	if err := s.signalRepo.Update(ctx, signal); err != nil {
		return nil, fmt.Errorf("failed to persist signal %s: %w", signalID, err)
	}

	s.log.InfoContext(ctx, "Signal closed manually",
		logger.StringField("signal_id", signalID),
		logger.StringField("reason", reason),
		logger.Float64Field("pnl_usd", signal.PnlUSD),
	)

	s.releaseLock(signalID)

	return signal, nil
}

func (s *signalManagerService) ListActive(ctx context.Context, coin string) ([]entity.TradingSignal, error) {
	return s.signalRepo.FindActive(ctx, coin)
}

func (s *signalManagerService) ListCompleted(ctx context.Context, limit int) ([]entity.TradingSignal, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.signalRepo.FindCompleted(ctx, limit)
}

func (s *signalManagerService) HasActiveSignal(ctx context.Context, coin string) (bool, error) {
	count, err := s.signalRepo.CountActiveByCoin(ctx, coin)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateAll fetches a live price per coin with an active signal, advances each
// signal and expires those past their deadline. One failing signal does not
// abort the batch.
func (s *signalManagerService) UpdateAll(ctx context.Context) (*dto.UpdatePricesResponse, error) {
	signals, err := s.signalRepo.FindActive(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list active signals: %w", err)
	}

	response := &dto.UpdatePricesResponse{Checked: len(signals)}
	prices := s.prefetchPrices(ctx, signals)
	now := time.Now()

	for i := range signals {
		signal := &signals[i]

		if now.After(signal.SignalExpiresAt) {
			if err := s.expire(ctx, signal); err != nil {
				s.log.ErrorContext(ctx, "Failed to expire signal",
					logger.StringField("signal_id", signal.ID),
					logger.ErrorField(err),
				)
				continue
			}
			response.Expired++
			response.Transitions = append(response.Transitions, fmt.Sprintf("%s: %s", signal.Coin, entity.StatusExpired))
			continue
		}

		price, ok := prices[signal.Coin]
		if !ok {
			symbol := signal.Coin + s.cfg.Engine.QuoteAsset
			price, err = s.marketData.GetCurrentPrice(ctx, symbol)
			if err != nil {
				s.log.ErrorContext(ctx, "Failed to fetch price, skipping signal",
					logger.StringField("coin", signal.Coin),
					logger.ErrorField(err),
				)
				continue
			}
			prices[signal.Coin] = price
		}

		before := signal.Status
		updated, err := s.Advance(ctx, signal.ID, price)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to advance signal",
				logger.StringField("signal_id", signal.ID),
				logger.ErrorField(err),
			)
			continue
		}
		if updated.Status != before {
			response.Transitions = append(response.Transitions, fmt.Sprintf("%s: %s -> %s", signal.Coin, before, updated.Status))
		}
	}

	return response, nil
}

// prefetchPrices resolves every distinct coin with an active signal in one
// batch call; coins it misses fall back to per-symbol fetches.
func (s *signalManagerService) prefetchPrices(ctx context.Context, signals []entity.TradingSignal) map[string]float64 {
	symbols := make([]string, 0, len(signals))
	seen := make(map[string]bool, len(signals))
	for i := range signals {
		if !seen[signals[i].Coin] {
			seen[signals[i].Coin] = true
			symbols = append(symbols, signals[i].Coin+s.cfg.Engine.QuoteAsset)
		}
	}

	prices := make(map[string]float64, len(seen))
	batch, err := s.marketData.GetCurrentPrices(ctx, symbols)
	if err != nil {
		s.log.DebugContext(ctx, "Batch price fetch failed, falling back to per-symbol fetches", logger.ErrorField(err))
		return prices
	}
	for coin := range seen {
		if price, ok := batch[coin+s.cfg.Engine.QuoteAsset]; ok {
			prices[coin] = price
		}
	}
	return prices
}

func (s *signalManagerService) expire(ctx context.Context, signal *entity.TradingSignal) error {
	lock := s.lockFor(signal.ID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.signalRepo.FindByID(ctx, signal.ID)
	if err != nil {
		return err
	}
	if current.Status.IsTerminal() {
		return nil
	}

	now := time.Now()
	current.Status = entity.StatusExpired
	current.ClosedAt = &now
	s.recomputePnl(current)

	if err := s.signalRepo.Update(ctx, current); err != nil {
		return err
	}

	s.dispatcher.Publish(Event{Type: EventSignalExpired, Signal: current, Price: current.CurrentPrice})
	s.releaseLock(signal.ID)

	return nil
}

func (s *signalManagerService) recomputePnl(signal *entity.TradingSignal) {
	if signal.Action == dto.ActionBuy {
		signal.PnlUSD = (signal.CurrentPrice - signal.EntryPrice) * signal.PositionSize
		signal.PnlPercentage = (signal.CurrentPrice - signal.EntryPrice) / signal.EntryPrice * 100
	} else {
		signal.PnlUSD = (signal.EntryPrice - signal.CurrentPrice) * signal.PositionSize
		signal.PnlPercentage = (signal.EntryPrice - signal.CurrentPrice) / signal.EntryPrice * 100
	}
}
