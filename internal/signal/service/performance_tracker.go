package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/internal/signal/repository"
	"crypto-signal-engine/pkg/logger"
	"crypto-signal-engine/pkg/utils"

	"github.com/google/uuid"
)

// PerformanceTrackerService records scoring calls as predictions, grades them
// against realized prices and derives the self-learning performance summary.
type PerformanceTrackerService interface {
	Record(ctx context.Context, coin string, snapshot *indicator.Snapshot, metrics *dto.GlobalMetrics, proposal *dto.SignalProposal) (*entity.Prediction, error)
	Grade(ctx context.Context, prediction *entity.Prediction, horizon entity.Horizon, actualPrice float64) error
	Summarize(ctx context.Context, coin string, windowDays int, horizon entity.Horizon) (*dto.PerformanceSummary, error)
	RefreshMetrics(ctx context.Context, coin string, horizon entity.Horizon) error
}

type performanceTrackerService struct {
	cfg            *config.Config
	log            *logger.Logger
	predictionRepo repository.PredictionRepository
	metricRepo     repository.PerformanceMetricRepository
}

// NewPerformanceTrackerService creates a new PerformanceTrackerService.
func NewPerformanceTrackerService(cfg *config.Config, log *logger.Logger,
	predictionRepo repository.PredictionRepository,
	metricRepo repository.PerformanceMetricRepository) PerformanceTrackerService {
	return &performanceTrackerService{
		cfg:            cfg,
		log:            log,
		predictionRepo: predictionRepo,
		metricRepo:     metricRepo,
	}
}

// Record saves one prediction row per scoring call, independent of whether a
// trading signal was also funded.
func (s *performanceTrackerService) Record(ctx context.Context, coin string, snapshot *indicator.Snapshot, metrics *dto.GlobalMetrics, proposal *dto.SignalProposal) (*entity.Prediction, error) {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal indicator snapshot: %w", err)
	}

	prediction := &entity.Prediction{
		ID:             uuid.NewString(),
		Coin:           coin,
		Price:          snapshot.CurrentPrice,
		Volume:         snapshot.Volume,
		RSI:            snapshot.RSI,
		MACD:           snapshot.MACD,
		BTCDominance:   metrics.BTCDominance,
		PriceChange24h: snapshot.PriceChange24h,
		Action:         proposal.Action,
		Confidence:     proposal.Confidence,
		EntryPrice:     proposal.EntryPrice,
		TargetPrice:    proposal.TakeProfit1,
		StopLoss:       proposal.StopLoss,
		Reasoning:      proposal.Reasoning,
		RiskLevel:      proposal.RiskLevel,
		Snapshot:       snapshotJSON,
	}

	if err := s.predictionRepo.Create(ctx, prediction); err != nil {
		return nil, fmt.Errorf("failed to save prediction: %w", err)
	}

	s.log.DebugContext(ctx, "Prediction recorded",
		logger.StringField("prediction_id", prediction.ID),
		logger.StringField("coin", coin),
		logger.StringField("action", proposal.Action),
	)

	return prediction, nil
}

// Grade writes the outcome for one horizon. Re-grading overwrites the horizon's
// fields and leaves the other horizons untouched.
func (s *performanceTrackerService) Grade(ctx context.Context, prediction *entity.Prediction, horizon entity.Horizon, actualPrice float64) error {
	entryPrice := prediction.EntryPrice
	if entryPrice == 0 {
		entryPrice = prediction.Price
	}
	if entryPrice == 0 {
		return fmt.Errorf("prediction %s has no usable entry price", prediction.ID)
	}

	var profitLoss float64
	switch prediction.Action {
	case dto.ActionBuy:
		profitLoss = (actualPrice - entryPrice) / entryPrice * 100
	case dto.ActionSell:
		profitLoss = (entryPrice - actualPrice) / entryPrice * 100
	default:
		profitLoss = (actualPrice - entryPrice) / entryPrice * 100
	}

	var isCorrect bool
	switch prediction.Action {
	case dto.ActionBuy:
		isCorrect = actualPrice > entryPrice
	case dto.ActionSell:
		isCorrect = actualPrice < entryPrice
	default:
		isCorrect = math.Abs(profitLoss) < 2
	}

	prediction.SetOutcome(horizon, entity.PredictionOutcome{
		ActualPrice: actualPrice,
		ProfitLoss:  utils.RoundTo(profitLoss, 2),
		IsCorrect:   isCorrect,
	})

	if err := s.predictionRepo.Update(ctx, prediction); err != nil {
		return fmt.Errorf("failed to update prediction %s: %w", prediction.ID, err)
	}

	s.log.DebugContext(ctx, "Prediction graded",
		logger.StringField("prediction_id", prediction.ID),
		logger.StringField("horizon", string(horizon)),
		logger.Float64Field("profit_loss", profitLoss),
		logger.Field("is_correct", isCorrect),
	)

	return nil
}

// Summarize aggregates the coin's graded predictions at the given horizon into
// the performance summary fed back to the scorer.
func (s *performanceTrackerService) Summarize(ctx context.Context, coin string, windowDays int, horizon entity.Horizon) (*dto.PerformanceSummary, error) {
	since := time.Now().AddDate(0, 0, -windowDays)
	predictions, err := s.predictionRepo.FindGradedSince(ctx, coin, horizon, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graded predictions: %w", err)
	}

	if len(predictions) == 0 {
		return dto.EmptyPerformanceSummary(), nil
	}

	var correct int
	var totalProfit, totalLoss float64
	var profitCount, lossCount int

	for i := range predictions {
		outcome, ok := predictions[i].Outcome(horizon)
		if !ok {
			continue
		}
		if outcome.IsCorrect {
			correct++
		}
		if outcome.ProfitLoss > 0 {
			totalProfit += outcome.ProfitLoss
			profitCount++
		} else if outcome.ProfitLoss < 0 {
			totalLoss += math.Abs(outcome.ProfitLoss)
			lossCount++
		}
	}

	total := len(predictions)
	winRate := float64(correct) / float64(total) * 100

	var avgProfit, avgLoss float64
	if profitCount > 0 {
		avgProfit = totalProfit / float64(profitCount)
	}
	if lossCount > 0 {
		avgLoss = totalLoss / float64(lossCount)
	}

	profitFactor := 0.0
	if totalLoss > 0 {
		profitFactor = totalProfit / totalLoss
	} else if totalProfit > 0 {
		profitFactor = 999
	}

	return &dto.PerformanceSummary{
		TotalPredictions:   total,
		CorrectPredictions: correct,
		WinRate:            utils.RoundTo(winRate, 2),
		AvgProfit:          utils.RoundTo(avgProfit, 2),
		AvgLoss:            utils.RoundTo(avgLoss, 2),
		TotalProfit:        utils.RoundTo(totalProfit, 2),
		TotalLoss:          utils.RoundTo(totalLoss, 2),
		ProfitFactor:       utils.RoundTo(profitFactor, 2),
		CommonMistakes:     mineMistakes(predictions, horizon),
		BestConditions:     mineBestConditions(predictions, horizon),
		RecentTrend:        analyzeRecentTrend(predictions, horizon),
	}, nil
}

// RefreshMetrics recomputes and upserts today's rollup row for the coin and
// horizon.
func (s *performanceTrackerService) RefreshMetrics(ctx context.Context, coin string, horizon entity.Horizon) error {
	summary, err := s.Summarize(ctx, coin, s.cfg.Engine.PerformanceWindowDays, horizon)
	if err != nil {
		return err
	}

	metric := &entity.PerformanceMetric{
		Date:               time.Now().Format("2006-01-02"),
		Coin:               coin,
		Horizon:            horizon,
		TotalPredictions:   summary.TotalPredictions,
		CorrectPredictions: summary.CorrectPredictions,
		WinRate:            summary.WinRate,
		TotalProfit:        summary.TotalProfit,
		TotalLoss:          summary.TotalLoss,
		AvgProfit:          summary.AvgProfit,
		AvgLoss:            summary.AvgLoss,
		ProfitFactor:       summary.ProfitFactor,
		CommonMistakes:     summary.CommonMistakes,
		BestConditions:     summary.BestConditions,
	}

	return s.metricRepo.Upsert(ctx, metric)
}

// mineMistakes scans incorrect predictions for recurring loss patterns. The
// output order follows the check sequence, truncated to 5.
func mineMistakes(predictions []entity.Prediction, horizon entity.Horizon) []string {
	var incorrect []entity.Prediction
	for i := range predictions {
		if outcome, ok := predictions[i].Outcome(horizon); ok && !outcome.IsCorrect {
			incorrect = append(incorrect, predictions[i])
		}
	}
	if len(incorrect) == 0 {
		return []string{}
	}

	mistakes := []string{}

	highRSIBuys := countMatching(incorrect, func(p *entity.Prediction) bool {
		return p.Action == dto.ActionBuy && p.RSI > 70
	})
	if highRSIBuys >= 2 {
		mistakes = append(mistakes, fmt.Sprintf("Bought %d times when RSI > 70 (overbought) - resulted in losses", highRSIBuys))
	}

	lowRSISells := countMatching(incorrect, func(p *entity.Prediction) bool {
		return p.Action == dto.ActionSell && p.RSI < 30
	})
	if lowRSISells >= 2 {
		mistakes = append(mistakes, fmt.Sprintf("Sold %d times when RSI < 30 (oversold) - missed rebounds", lowRSISells))
	}

	lowVolume := countMatching(incorrect, func(p *entity.Prediction) bool {
		return p.Volume < 1_000_000 && p.Action != dto.ActionHold
	})
	if lowVolume >= 3 {
		mistakes = append(mistakes, fmt.Sprintf("Made %d trades on low volume (< $1M) - low liquidity led to losses", lowVolume))
	}

	if predictions[0].Coin != "BTC" {
		btcDomBuys := countMatching(incorrect, func(p *entity.Prediction) bool {
			return p.BTCDominance > 60 && p.Action == dto.ActionBuy
		})
		if btcDomBuys >= 2 {
			mistakes = append(mistakes, fmt.Sprintf("Bought altcoins %d times when BTC dominance > 60%% - altcoins underperformed", btcDomBuys))
		}
	}

	overconfident := countMatching(incorrect, func(p *entity.Prediction) bool {
		return p.Confidence > 80
	})
	if overconfident >= 3 {
		mistakes = append(mistakes, fmt.Sprintf("Was overconfident (>80%%) %d times but still wrong - need to be more cautious", overconfident))
	}

	reversals := countMatching(incorrect, func(p *entity.Prediction) bool {
		return (p.Action == dto.ActionBuy && p.PriceChange24h < -10) ||
			(p.Action == dto.ActionSell && p.PriceChange24h > 10)
	})
	if reversals >= 2 {
		mistakes = append(mistakes, fmt.Sprintf("Tried to catch %d trend reversals too early - let trends establish first", reversals))
	}

	if len(mistakes) > 5 {
		mistakes = mistakes[:5]
	}
	return mistakes
}

// mineBestConditions is the mirror of mineMistakes over correct predictions.
// A condition is reported only when it accounts for a meaningful share of all
// wins.
func mineBestConditions(predictions []entity.Prediction, horizon entity.Horizon) []string {
	var wins []entity.Prediction
	for i := range predictions {
		if outcome, ok := predictions[i].Outcome(horizon); ok && outcome.IsCorrect {
			wins = append(wins, predictions[i])
		}
	}
	if len(wins) == 0 {
		return []string{}
	}

	conditions := []string{}
	totalWins := float64(len(wins))

	neutralRSI := countMatching(wins, func(p *entity.Prediction) bool {
		return p.RSI >= 35 && p.RSI <= 65
	})
	if float64(neutralRSI) > totalWins*0.5 {
		share := float64(neutralRSI) / totalWins * 100
		conditions = append(conditions, fmt.Sprintf("RSI between 35-65 (neutral zone): %d wins (%.0f%% of correct predictions)", neutralRSI, share))
	}

	highVolumeWins := filterMatching(wins, func(p *entity.Prediction) bool {
		return p.Volume > 5_000_000
	})
	if float64(len(highVolumeWins)) > totalWins*0.4 {
		conditions = append(conditions, fmt.Sprintf("High volume > $5M: %d wins, avg profit %.2f%%", len(highVolumeWins), avgOutcomeProfit(highVolumeWins, horizon)))
	}

	moderateConfidence := countMatching(wins, func(p *entity.Prediction) bool {
		return p.Confidence >= 60 && p.Confidence <= 80
	})
	if float64(moderateConfidence) > totalWins*0.4 {
		conditions = append(conditions, fmt.Sprintf("Moderate confidence (60-80%%): %d wins - sweet spot for accuracy", moderateConfidence))
	}

	clearTrends := countMatching(wins, func(p *entity.Prediction) bool {
		return math.Abs(p.PriceChange24h) > 3
	})
	if float64(clearTrends) > totalWins*0.5 {
		conditions = append(conditions, fmt.Sprintf("Clear trends (>3%% daily move): %d wins - easier to predict", clearTrends))
	}

	dipBuys := filterMatching(wins, func(p *entity.Prediction) bool {
		return p.Action == dto.ActionBuy && p.RSI < 40 && p.PriceChange24h < 0
	})
	if len(dipBuys) >= 3 {
		conditions = append(conditions, fmt.Sprintf("Buying dips (RSI<40, negative 24h): %d wins, avg profit %.2f%%", len(dipBuys), avgOutcomeProfit(dipBuys, horizon)))
	}

	if len(conditions) > 5 {
		conditions = conditions[:5]
	}
	return conditions
}

// analyzeRecentTrend compares the win rate of the 10 most recent graded
// predictions against the prior 10. Predictions must be ordered newest first.
func analyzeRecentTrend(predictions []entity.Prediction, horizon entity.Horizon) string {
	if len(predictions) < 10 {
		return dto.TrendStable
	}

	recent := predictions[:10]
	older := predictions[10:]
	if len(older) > 10 {
		older = older[:10]
	}
	if len(older) < 5 {
		return dto.TrendStable
	}

	recentWinRate := winRateOf(recent, horizon)
	olderWinRate := winRateOf(older, horizon)

	if recentWinRate > olderWinRate+0.15 {
		return dto.TrendImproving
	}
	if recentWinRate < olderWinRate-0.15 {
		return dto.TrendDeclining
	}
	return dto.TrendStable
}

func winRateOf(predictions []entity.Prediction, horizon entity.Horizon) float64 {
	if len(predictions) == 0 {
		return 0
	}
	var correct int
	for i := range predictions {
		if outcome, ok := predictions[i].Outcome(horizon); ok && outcome.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(predictions))
}

func countMatching(predictions []entity.Prediction, match func(*entity.Prediction) bool) int {
	var n int
	for i := range predictions {
		if match(&predictions[i]) {
			n++
		}
	}
	return n
}

func filterMatching(predictions []entity.Prediction, match func(*entity.Prediction) bool) []entity.Prediction {
	var out []entity.Prediction
	for i := range predictions {
		if match(&predictions[i]) {
			out = append(out, predictions[i])
		}
	}
	return out
}

func avgOutcomeProfit(predictions []entity.Prediction, horizon entity.Horizon) float64 {
	if len(predictions) == 0 {
		return 0
	}
	var sum float64
	for i := range predictions {
		if outcome, ok := predictions[i].Outcome(horizon); ok {
			sum += outcome.ProfitLoss
		}
	}
	return sum / float64(len(predictions))
}
