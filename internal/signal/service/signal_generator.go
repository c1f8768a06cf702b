package service

import (
	"context"
	"fmt"
	"time"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/internal/signal/repository"
	"crypto-signal-engine/pkg/logger"
)

// SignalGeneratorService runs the full scoring pipeline for one coin: market
// data, indicators, scorer (with deterministic fallback), sizing, quality and
// prediction recording.
type SignalGeneratorService interface {
	Generate(ctx context.Context, coin, timeframe string, capital float64) (*dto.GenerateSignalResponse, error)
}

type signalGeneratorService struct {
	cfg        *config.Config
	log        *logger.Logger
	marketData repository.MarketDataRepository
	globalRepo repository.GlobalMetricsRepository
	aiRepo     repository.AIRepository
	tracker    PerformanceTrackerService
}

// NewSignalGeneratorService creates a new SignalGeneratorService.
func NewSignalGeneratorService(cfg *config.Config, log *logger.Logger,
	marketData repository.MarketDataRepository,
	globalRepo repository.GlobalMetricsRepository,
	aiRepo repository.AIRepository,
	tracker PerformanceTrackerService) SignalGeneratorService {
	return &signalGeneratorService{
		cfg:        cfg,
		log:        log,
		marketData: marketData,
		globalRepo: globalRepo,
		aiRepo:     aiRepo,
		tracker:    tracker,
	}
}

// Generate analyzes one coin and records the result as a prediction. It does
// not fund a position; the auto-generation path layers quality gating and
// persistence on top of this.
func (s *signalGeneratorService) Generate(ctx context.Context, coin, timeframe string, capital float64) (*dto.GenerateSignalResponse, error) {
	if coin == "" {
		return nil, fmt.Errorf("coin is required")
	}
	if timeframe == "" {
		timeframe = s.cfg.Engine.HistoryInterval
	}
	if capital <= 0 {
		capital = s.cfg.Engine.CapitalPerSignal
	}

	symbol := coin + s.cfg.Engine.QuoteAsset
	history, err := s.marketData.GetHistoricalData(ctx, symbol, s.cfg.Engine.HistoryInterval, s.cfg.Engine.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market data for %s: %w", symbol, err)
	}

	snapshot := indicator.Compute(history.Prices, history.Volumes)
	if snapshot == nil {
		return nil, fmt.Errorf("insufficient market data for %s", symbol)
	}

	metrics, err := s.globalRepo.GetGlobalMetrics(ctx)
	if err != nil {
		// The repository degrades to a static snapshot on its own; this is a
		// second line of defense.
		s.log.ErrorContext(ctx, "Failed to get global metrics", logger.ErrorField(err))
		metrics = dto.DefaultGlobalMetrics()
	}

	performance, err := s.tracker.Summarize(ctx, coin, s.cfg.Engine.PerformanceWindowDays, entity.Horizon(s.cfg.Engine.PerformanceHorizon))
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to summarize past performance, proceeding without it",
			logger.StringField("coin", coin),
			logger.ErrorField(err),
		)
		performance = dto.EmptyPerformanceSummary()
	}

	proposal, usedFallback := s.propose(ctx, coin, snapshot, metrics, performance)
	if proposal.Timeframe == "" {
		proposal.Timeframe = timeframe
	}

	response := &dto.GenerateSignalResponse{
		Coin:         coin,
		Indicators:   snapshot,
		Proposal:     proposal,
		Performance:  performance,
		UsedFallback: usedFallback,
		GeneratedAt:  time.Now(),
	}

	if proposal.Action != dto.ActionHold {
		sizing, err := SizeProposal(proposal, capital, s.cfg.Engine.RiskPercentage)
		if err != nil {
			return nil, fmt.Errorf("failed to size proposal for %s: %w", coin, err)
		}
		proposal.RiskPercentage = sizing.RiskPercentage
		response.Quality = EvaluateQuality(proposal.Action, proposal.Confidence, sizing.RiskRewardRatio, snapshot)
	}

	prediction, err := s.tracker.Record(ctx, coin, snapshot, metrics, proposal)
	if err != nil {
		return nil, err
	}
	response.PredictionID = prediction.ID

	s.log.InfoContext(ctx, "Signal generated",
		logger.StringField("coin", coin),
		logger.StringField("action", proposal.Action),
		logger.Float64Field("confidence", proposal.Confidence),
		logger.Field("used_fallback", usedFallback),
	)

	return response, nil
}

// propose calls the scorer and validates its output. Any failure resolves to
// the deterministic rule-based proposal; this step never errors.
func (s *signalGeneratorService) propose(ctx context.Context, coin string, snapshot *indicator.Snapshot, metrics *dto.GlobalMetrics, performance *dto.PerformanceSummary) (*dto.SignalProposal, bool) {
	proposal, err := s.aiRepo.ProposeSignal(ctx, coin, snapshot, metrics, performance)
	if err != nil {
		s.log.ErrorContext(ctx, "Scorer unavailable, using rule-based fallback",
			logger.StringField("coin", coin),
			logger.ErrorField(err),
		)
		return BuildFallbackProposal(snapshot, s.cfg.Engine.HistoryInterval, s.cfg.Engine.RiskPercentage), true
	}

	if err := proposal.Validate(); err != nil {
		s.log.ErrorContext(ctx, "Scorer returned invalid proposal, using rule-based fallback",
			logger.StringField("coin", coin),
			logger.ErrorField(err),
		)
		return BuildFallbackProposal(snapshot, s.cfg.Engine.HistoryInterval, s.cfg.Engine.RiskPercentage), true
	}

	return proposal, false
}
