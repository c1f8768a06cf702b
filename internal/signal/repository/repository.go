package repository

import (
	"context"
	"time"

	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/dto"

	"golang.org/x/time/rate"
)

// AIRepository scores one coin and proposes a directional signal.
type AIRepository interface {
	ProposeSignal(ctx context.Context, coin string, snapshot *indicator.Snapshot, metrics *dto.GlobalMetrics, performance *dto.PerformanceSummary) (*dto.SignalProposal, error)
}

// MarketDataRepository provides candle history and spot prices.
type MarketDataRepository interface {
	GetHistoricalData(ctx context.Context, symbol, interval string, limit int) (*dto.HistoricalData, error)
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
	GetCurrentPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// GlobalMetricsRepository provides market-wide metrics such as BTC dominance.
type GlobalMetricsRepository interface {
	GetGlobalMetrics(ctx context.Context) (*dto.GlobalMetrics, error)
}

// newRequestLimiter spaces outbound requests to honor a per-minute cap. A
// missing or non-positive cap falls back to the given default.
func newRequestLimiter(maxPerMinute, fallback int) *rate.Limiter {
	if maxPerMinute <= 0 {
		maxPerMinute = fallback
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxPerMinute)), 1)
}
