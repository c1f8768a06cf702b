package service

import (
	"context"
	"fmt"
	"time"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/repository"
	"crypto-signal-engine/pkg/logger"
)

// OutcomeCheckResult is the aggregate of one grading pass.
type OutcomeCheckResult struct {
	Horizon entity.Horizon
	Due     int
	Graded  int
	Failed  int
}

// OutcomeCheckerService grades predictions whose horizon has just elapsed
// against the realized market price.
type OutcomeCheckerService interface {
	Check(ctx context.Context, horizon entity.Horizon) (*OutcomeCheckResult, error)
}

type outcomeCheckerService struct {
	cfg            *config.Config
	log            *logger.Logger
	predictionRepo repository.PredictionRepository
	marketData     repository.MarketDataRepository
	tracker        PerformanceTrackerService
}

// NewOutcomeCheckerService creates a new OutcomeCheckerService.
func NewOutcomeCheckerService(cfg *config.Config, log *logger.Logger,
	predictionRepo repository.PredictionRepository,
	marketData repository.MarketDataRepository,
	tracker PerformanceTrackerService) OutcomeCheckerService {
	return &outcomeCheckerService{
		cfg:            cfg,
		log:            log,
		predictionRepo: predictionRepo,
		marketData:     marketData,
		tracker:        tracker,
	}
}

// gradingBuffer widens the due window so a slightly late trigger still catches
// its predictions; ungraded leftovers are picked up by the next run.
func gradingBuffer(horizon entity.Horizon) time.Duration {
	switch horizon {
	case entity.Horizon1H:
		return 5 * time.Minute
	case entity.Horizon4H:
		return 15 * time.Minute
	case entity.Horizon24H:
		return 30 * time.Minute
	case entity.Horizon48H:
		return 45 * time.Minute
	case entity.Horizon7D:
		return 60 * time.Minute
	}
	return 30 * time.Minute
}

// Check grades one bounded page of due predictions. A failure on one record is
// isolated; the pass continues and reports aggregate counts.
func (s *outcomeCheckerService) Check(ctx context.Context, horizon entity.Horizon) (*OutcomeCheckResult, error) {
	offset := horizon.Offset()
	if offset == 0 {
		return nil, fmt.Errorf("invalid horizon: %q", horizon)
	}

	buffer := gradingBuffer(horizon)
	now := time.Now()
	createdFrom := now.Add(-offset - buffer)
	createdTo := now.Add(-offset + buffer)

	batchSize := s.cfg.Engine.OutcomeBatchSize
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}

	due, err := s.predictionRepo.FindDueForGrading(ctx, horizon, createdFrom, createdTo, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to find due predictions: %w", err)
	}

	result := &OutcomeCheckResult{Horizon: horizon, Due: len(due)}
	if len(due) == 0 {
		return result, nil
	}

	prices := s.prefetchPrices(ctx, due)
	gradedCoins := make(map[string]struct{})

	for i := range due {
		prediction := &due[i]

		price, ok := prices[prediction.Coin]
		if !ok {
			symbol := prediction.Coin + s.cfg.Engine.QuoteAsset
			price, err = s.marketData.GetCurrentPrice(ctx, symbol)
			if err != nil {
				s.log.ErrorContext(ctx, "Failed to fetch price for grading",
					logger.StringField("coin", prediction.Coin),
					logger.ErrorField(err),
				)
				result.Failed++
				continue
			}
			prices[prediction.Coin] = price
		}

		if err := s.tracker.Grade(ctx, prediction, horizon, price); err != nil {
			s.log.ErrorContext(ctx, "Failed to grade prediction",
				logger.StringField("prediction_id", prediction.ID),
				logger.ErrorField(err),
			)
			result.Failed++
			continue
		}
		result.Graded++
		gradedCoins[prediction.Coin] = struct{}{}
	}

	for coin := range gradedCoins {
		if err := s.tracker.RefreshMetrics(ctx, coin, horizon); err != nil {
			s.log.ErrorContext(ctx, "Failed to refresh performance metrics",
				logger.StringField("coin", coin),
				logger.StringField("horizon", string(horizon)),
				logger.ErrorField(err),
			)
		}
	}

	s.log.InfoContext(ctx, "Outcome check completed",
		logger.StringField("horizon", string(horizon)),
		logger.IntField("due", result.Due),
		logger.IntField("graded", result.Graded),
		logger.IntField("failed", result.Failed),
	)

	return result, nil
}

// prefetchPrices resolves every distinct coin in the page with one batch call.
// Coins it cannot resolve fall back to per-symbol fetches inside the loop.
func (s *outcomeCheckerService) prefetchPrices(ctx context.Context, due []entity.Prediction) map[string]float64 {
	symbols := make([]string, 0, len(due))
	seen := make(map[string]bool, len(due))
	for i := range due {
		if !seen[due[i].Coin] {
			seen[due[i].Coin] = true
			symbols = append(symbols, due[i].Coin+s.cfg.Engine.QuoteAsset)
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
