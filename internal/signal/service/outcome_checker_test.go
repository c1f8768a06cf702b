package service

import (
	"context"
	"errors"
	"testing"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeChecker_Check(t *testing.T) {
	cfg := &config.Config{Engine: config.Engine{
		QuoteAsset:            "USDT",
		OutcomeBatchSize:      100,
		PerformanceWindowDays: 30,
	}}
	log := newTestLogger(t)

	predictions := &fakePredictionRepo{
		due: []entity.Prediction{
			{ID: "p1", Coin: "BTC", Action: dto.ActionBuy, EntryPrice: 100},
			{ID: "p2", Coin: "ETH", Action: dto.ActionBuy, EntryPrice: 100},
		},
	}
	metrics := &fakeMetricRepo{}
	market := &fakeMarketData{
		prices: map[string]float64{"BTCUSDT": 105},
		errs:   map[string]error{"ETHUSDT": errors.New("upstream unavailable")},
	}
	tracker := NewPerformanceTrackerService(cfg, log, predictions, metrics)
	checker := NewOutcomeCheckerService(cfg, log, predictions, market, tracker)

	result, err := checker.Check(context.Background(), entity.Horizon1H)
	require.NoError(t, err)

	assert.Equal(t, entity.Horizon1H, result.Horizon)
	assert.Equal(t, 2, result.Due)
	assert.Equal(t, 1, result.Graded)
	assert.Equal(t, 1, result.Failed)

	require.Len(t, predictions.updated, 1)
	outcome, ok := predictions.updated[0].Outcome(entity.Horizon1H)
	require.True(t, ok)
	assert.True(t, outcome.IsCorrect)
	assert.InDelta(t, 5, outcome.ProfitLoss, 1e-9)

	// metrics refreshed only for the coin that actually graded
	require.Len(t, metrics.upserts, 1)
	assert.Equal(t, "BTC", metrics.upserts[0].Coin)
}

func TestOutcomeChecker_InvalidHorizon(t *testing.T) {
	cfg := &config.Config{Engine: config.Engine{QuoteAsset: "USDT"}}
	log := newTestLogger(t)
	predictions := &fakePredictionRepo{}
	tracker := NewPerformanceTrackerService(cfg, log, predictions, &fakeMetricRepo{})
	checker := NewOutcomeCheckerService(cfg, log, predictions, &fakeMarketData{}, tracker)

	_, err := checker.Check(context.Background(), entity.Horizon("2h"))
	assert.ErrorContains(t, err, "invalid horizon")
}

func TestOutcomeChecker_NothingDue(t *testing.T) {
	cfg := &config.Config{Engine: config.Engine{QuoteAsset: "USDT"}}
	log := newTestLogger(t)
	predictions := &fakePredictionRepo{}
	tracker := NewPerformanceTrackerService(cfg, log, predictions, &fakeMetricRepo{})
	checker := NewOutcomeCheckerService(cfg, log, predictions, &fakeMarketData{}, tracker)

	result, err := checker.Check(context.Background(), entity.Horizon24H)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Due)
	assert.Equal(t, 0, result.Graded)
}
