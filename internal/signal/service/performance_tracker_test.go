package service

import (
	"context"
	"testing"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackerFixture struct {
	tracker     PerformanceTrackerService
	predictions *fakePredictionRepo
	metrics     *fakeMetricRepo
}

func newTrackerFixture(t *testing.T) *trackerFixture {
	t.Helper()
	cfg := &config.Config{Engine: config.Engine{PerformanceWindowDays: 30}}
	predictions := &fakePredictionRepo{}
	metrics := &fakeMetricRepo{}

	return &trackerFixture{
		tracker:     NewPerformanceTrackerService(cfg, newTestLogger(t), predictions, metrics),
		predictions: predictions,
		metrics:     metrics,
	}
}

// graded24 builds a prediction already graded at the 24h horizon.
func graded24(correct bool, profitLoss float64) entity.Prediction {
	p := entity.Prediction{Coin: "ETH", Action: dto.ActionBuy, RSI: 50, Confidence: 65}
	p.SetOutcome(entity.Horizon24H, entity.PredictionOutcome{ActualPrice: 100, ProfitLoss: profitLoss, IsCorrect: correct})
	return p
}

func TestPerformanceTracker_Record(t *testing.T) {
	f := newTrackerFixture(t)

	proposal := buyProposal()
	metrics := &dto.GlobalMetrics{BTCDominance: 58.2}

	prediction, err := f.tracker.Record(context.Background(), "BTC", testSnapshot(), metrics, proposal)
	require.NoError(t, err)

	assert.NotEmpty(t, prediction.ID)
	assert.Equal(t, "BTC", prediction.Coin)
	assert.Equal(t, proposal.TakeProfit1, prediction.TargetPrice)
	assert.Equal(t, 58.2, prediction.BTCDominance)
	assert.NotEmpty(t, prediction.Snapshot)
	require.Len(t, f.predictions.created, 1)
}

func TestPerformanceTracker_Grade(t *testing.T) {
	f := newTrackerFixture(t)

	tests := []struct {
		name        string
		action      string
		actualPrice float64
		wantPL      float64
		wantCorrect bool
	}{
		{"buy up is correct", dto.ActionBuy, 105, 5, true},
		{"buy down is incorrect", dto.ActionBuy, 95, -5, false},
		{"sell down is correct", dto.ActionSell, 95, 5, true},
		{"sell up is incorrect", dto.ActionSell, 105, -5, false},
		{"hold small drift is correct", dto.ActionHold, 101, 1, true},
		{"hold large drift is incorrect", dto.ActionHold, 110, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prediction := &entity.Prediction{ID: "p1", Action: tt.action, EntryPrice: 100}

			err := f.tracker.Grade(context.Background(), prediction, entity.Horizon1H, tt.actualPrice)
			require.NoError(t, err)

			outcome, ok := prediction.Outcome(entity.Horizon1H)
			require.True(t, ok)
			assert.InDelta(t, tt.wantPL, outcome.ProfitLoss, 1e-9)
			assert.Equal(t, tt.wantCorrect, outcome.IsCorrect)
			assert.Equal(t, tt.actualPrice, outcome.ActualPrice)
		})
	}
}

func TestPerformanceTracker_GradeLeavesOtherHorizonsUntouched(t *testing.T) {
	f := newTrackerFixture(t)

	prediction := &entity.Prediction{ID: "p1", Action: dto.ActionBuy, EntryPrice: 100}
	require.NoError(t, f.tracker.Grade(context.Background(), prediction, entity.Horizon1H, 105))

	_, ok := prediction.Outcome(entity.Horizon4H)
	assert.False(t, ok)

	// re-grading the same horizon overwrites it
	require.NoError(t, f.tracker.Grade(context.Background(), prediction, entity.Horizon1H, 95))
	outcome, ok := prediction.Outcome(entity.Horizon1H)
	require.True(t, ok)
	assert.False(t, outcome.IsCorrect)
}

func TestPerformanceTracker_GradeFallsBackToObservedPrice(t *testing.T) {
	f := newTrackerFixture(t)

	prediction := &entity.Prediction{ID: "p1", Action: dto.ActionBuy, Price: 200}
	require.NoError(t, f.tracker.Grade(context.Background(), prediction, entity.Horizon1H, 210))

	outcome, ok := prediction.Outcome(entity.Horizon1H)
	require.True(t, ok)
	assert.InDelta(t, 5, outcome.ProfitLoss, 1e-9)

	empty := &entity.Prediction{ID: "p2", Action: dto.ActionBuy}
	err := f.tracker.Grade(context.Background(), empty, entity.Horizon1H, 210)
	assert.ErrorContains(t, err, "no usable entry price")
}

func TestPerformanceTracker_SummarizeEmpty(t *testing.T) {
	f := newTrackerFixture(t)

	summary, err := f.tracker.Summarize(context.Background(), "ETH", 30, entity.Horizon24H)
	require.NoError(t, err)
	assert.Equal(t, dto.EmptyPerformanceSummary(), summary)
}

func TestPerformanceTracker_Summarize(t *testing.T) {
	f := newTrackerFixture(t)
	f.predictions.graded = []entity.Prediction{
		graded24(true, 4),
		graded24(false, -2),
	}

	summary, err := f.tracker.Summarize(context.Background(), "ETH", 30, entity.Horizon24H)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalPredictions)
	assert.Equal(t, 1, summary.CorrectPredictions)
	assert.InDelta(t, 50, summary.WinRate, 1e-9)
	assert.InDelta(t, 4, summary.AvgProfit, 1e-9)
	assert.InDelta(t, 2, summary.AvgLoss, 1e-9)
	assert.InDelta(t, 2, summary.ProfitFactor, 1e-9)
	assert.Equal(t, dto.TrendStable, summary.RecentTrend)
}

func TestPerformanceTracker_SummarizeProfitFactorSentinel(t *testing.T) {
	f := newTrackerFixture(t)
	f.predictions.graded = []entity.Prediction{
		graded24(true, 3),
		graded24(true, 5),
	}

	summary, err := f.tracker.Summarize(context.Background(), "ETH", 30, entity.Horizon24H)
	require.NoError(t, err)
	assert.InDelta(t, 999, summary.ProfitFactor, 1e-9)
}

func TestAnalyzeRecentTrend(t *testing.T) {
	build := func(recentWins, olderWins int) []entity.Prediction {
		var predictions []entity.Prediction
		for i := 0; i < 10; i++ {
			predictions = append(predictions, graded24(i < recentWins, 1))
		}
		for i := 0; i < 10; i++ {
			predictions = append(predictions, graded24(i < olderWins, 1))
		}
		return predictions
	}

	assert.Equal(t, dto.TrendImproving, analyzeRecentTrend(build(8, 4), entity.Horizon24H))
	assert.Equal(t, dto.TrendDeclining, analyzeRecentTrend(build(4, 8), entity.Horizon24H))
	assert.Equal(t, dto.TrendStable, analyzeRecentTrend(build(5, 5), entity.Horizon24H))
	assert.Equal(t, dto.TrendStable, analyzeRecentTrend(build(8, 4)[:8], entity.Horizon24H))
}

func TestMineMistakes(t *testing.T) {
	overbought := func() entity.Prediction {
		p := entity.Prediction{Coin: "ETH", Action: dto.ActionBuy, RSI: 75}
		p.SetOutcome(entity.Horizon24H, entity.PredictionOutcome{ProfitLoss: -3, IsCorrect: false})
		return p
	}
	predictions := []entity.Prediction{overbought(), overbought(), graded24(true, 2)}

	mistakes := mineMistakes(predictions, entity.Horizon24H)
	require.NotEmpty(t, mistakes)
	assert.Contains(t, mistakes[0], "RSI > 70")
}

func TestPerformanceTracker_RefreshMetrics(t *testing.T) {
	f := newTrackerFixture(t)
	f.predictions.graded = []entity.Prediction{graded24(true, 4), graded24(false, -2)}

	require.NoError(t, f.tracker.RefreshMetrics(context.Background(), "ETH", entity.Horizon24H))

	require.Len(t, f.metrics.upserts, 1)
	metric := f.metrics.upserts[0]
	assert.Equal(t, "ETH", metric.Coin)
	assert.Equal(t, entity.Horizon24H, metric.Horizon)
	assert.Equal(t, 2, metric.TotalPredictions)
	assert.InDelta(t, 50, metric.WinRate, 1e-9)
}
