package service

import (
	"context"
	"testing"
	"time"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type portfolioFixture struct {
	portfolio  PortfolioService
	signals    *fakeSignalRepo
	stats      *fakePortfolioRepo
	dispatcher *fakeDispatcher
}

func newPortfolioFixture(t *testing.T) *portfolioFixture {
	t.Helper()
	signals := newFakeSignalRepo()
	stats := &fakePortfolioRepo{}
	dispatcher := &fakeDispatcher{}

	return &portfolioFixture{
		portfolio:  NewPortfolioService(&config.Config{}, newTestLogger(t), signals, stats, dispatcher),
		signals:    signals,
		stats:      stats,
		dispatcher: dispatcher,
	}
}

func seedSignal(t *testing.T, repo *fakeSignalRepo, id string, status entity.SignalStatus, pnl float64) {
	t.Helper()
	err := repo.Create(context.Background(), &entity.TradingSignal{
		ID:     id,
		Coin:   "BTC",
		Action: dto.ActionBuy,
		Status: status,
		PnlUSD: pnl,
	})
	require.NoError(t, err)
}

func TestPortfolio_Rollup(t *testing.T) {
	f := newPortfolioFixture(t)
	seedSignal(t, f.signals, "win", entity.StatusTP3Hit, 50)
	seedSignal(t, f.signals, "loss", entity.StatusSLHit, -25)
	seedSignal(t, f.signals, "live", entity.StatusActive, 3)

	stat, err := f.portfolio.Rollup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Now().Format("2006-01-02"), stat.Date)
	assert.InDelta(t, portfolioStartingCapital, stat.StartingCapital, 1e-9)
	assert.Equal(t, 2, stat.TotalTrades)
	assert.Equal(t, 1, stat.WinningTrades)
	assert.Equal(t, 1, stat.LosingTrades)
	assert.InDelta(t, 50, stat.WinRate, 1e-9)
	assert.InDelta(t, 50, stat.TotalProfit, 1e-9)
	assert.InDelta(t, 25, stat.TotalLoss, 1e-9)
	assert.InDelta(t, 25, stat.NetProfit, 1e-9)
	assert.InDelta(t, 1025, stat.CurrentCapital, 1e-9)
	assert.InDelta(t, 2, stat.ProfitFactor, 1e-9)
	assert.Equal(t, 1, stat.ActivePositions)

	// running the rollup again upserts the same date rather than accumulating
	again, err := f.portfolio.Rollup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stat.Date, again.Date)
	assert.InDelta(t, stat.NetProfit, again.NetProfit, 1e-9)
	require.Len(t, f.stats.upserts, 2)
}

func TestPortfolio_RollupProfitFactorSentinel(t *testing.T) {
	f := newPortfolioFixture(t)
	seedSignal(t, f.signals, "w1", entity.StatusTP3Hit, 10)
	seedSignal(t, f.signals, "w2", entity.StatusClosed, 5)

	stat, err := f.portfolio.Rollup(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 999, stat.ProfitFactor, 1e-9)
}

func TestPortfolio_SendDailySummary(t *testing.T) {
	f := newPortfolioFixture(t)
	seedSignal(t, f.signals, "win", entity.StatusTP3Hit, 50)
	seedSignal(t, f.signals, "live", entity.StatusActive, 0)

	require.NoError(t, f.portfolio.SendDailySummary(context.Background()))

	events := f.dispatcher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventDailySummary, events[0].Type)
	require.NotNil(t, events[0].Stat)
	assert.Len(t, events[0].Active, 1)
}
