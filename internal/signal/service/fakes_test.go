package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/internal/signal/repository"
	"crypto-signal-engine/pkg/logger"
	redisPkg "crypto-signal-engine/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New("error", "json")
	if err != nil {
		t.Fatalf("failed to build test logger: %v", err)
	}
	return l
}

// newTestRedis returns a client pointed at an unreachable address. Commands
// fail fast with a dial error, which the services under test treat as a
// non-fatal cache miss.
func newTestRedis() *redisPkg.Client {
	return &redisPkg.Client{Client: goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})}
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []Event
}

func (d *fakeDispatcher) Publish(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *fakeDispatcher) Close() {}

func (d *fakeDispatcher) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

type fakeSignalRepo struct {
	mu      sync.Mutex
	signals map[string]*entity.TradingSignal
	order   []string
}

var _ repository.TradingSignalRepository = (*fakeSignalRepo)(nil)

func newFakeSignalRepo() *fakeSignalRepo {
	return &fakeSignalRepo{signals: make(map[string]*entity.TradingSignal)}
}

func (r *fakeSignalRepo) Create(_ context.Context, signal *entity.TradingSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *signal
	r.signals[signal.ID] = &cp
	r.order = append(r.order, signal.ID)
	return nil
}

func (r *fakeSignalRepo) Update(_ context.Context, signal *entity.TradingSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.signals[signal.ID]; !ok {
		return fmt.Errorf("signal %s not found", signal.ID)
	}
	cp := *signal
	r.signals[signal.ID] = &cp
	return nil
}

func (r *fakeSignalRepo) FindByID(_ context.Context, id string) (*entity.TradingSignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	signal, ok := r.signals[id]
	if !ok {
		return nil, fmt.Errorf("signal %s not found", id)
	}
	cp := *signal
	return &cp, nil
}

func (r *fakeSignalRepo) FindActive(_ context.Context, coin string) ([]entity.TradingSignal, error) {
	all := r.filter(entity.ActiveStatuses(), 0)
	if coin == "" {
		return all, nil
	}
	var out []entity.TradingSignal
	for _, signal := range all {
		if signal.Coin == coin {
			out = append(out, signal)
		}
	}
	return out, nil
}

func (r *fakeSignalRepo) FindCompleted(_ context.Context, limit int) ([]entity.TradingSignal, error) {
	return r.filter(entity.TerminalStatuses(), limit), nil
}

func (r *fakeSignalRepo) FindTerminal(_ context.Context) ([]entity.TradingSignal, error) {
	return r.filter(entity.TerminalStatuses(), 0), nil
}

func (r *fakeSignalRepo) CountActiveByCoin(_ context.Context, coin string) (int64, error) {
	var count int64
	for _, signal := range r.filter(entity.ActiveStatuses(), 0) {
		if signal.Coin == coin {
			count++
		}
	}
	return count, nil
}

func (r *fakeSignalRepo) filter(statuses []entity.SignalStatus, limit int) []entity.TradingSignal {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.TradingSignal
	for _, id := range r.order {
		signal := r.signals[id]
		for _, status := range statuses {
			if signal.Status == status {
				out = append(out, *signal)
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

type fakeMarketData struct {
	history *dto.HistoricalData
	prices  map[string]float64
	errs    map[string]error
}

var _ repository.MarketDataRepository = (*fakeMarketData)(nil)

func (m *fakeMarketData) GetHistoricalData(_ context.Context, symbol, _ string, _ int) (*dto.HistoricalData, error) {
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}
	if m.history == nil {
		return nil, fmt.Errorf("no history for %s", symbol)
	}
	return m.history, nil
}

func (m *fakeMarketData) GetCurrentPrice(_ context.Context, symbol string) (float64, error) {
	if err := m.errs[symbol]; err != nil {
		return 0, err
	}
	price, ok := m.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("no price for %s", symbol)
	}
	return price, nil
}

// GetCurrentPrices omits symbols configured to fail so callers exercise their
// per-symbol fallback paths.
func (m *fakeMarketData) GetCurrentPrices(_ context.Context, symbols []string) (map[string]float64, error) {
	out := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		if m.errs[symbol] != nil {
			continue
		}
		if price, ok := m.prices[symbol]; ok {
			out[symbol] = price
		}
	}
	return out, nil
}

type fakePredictionRepo struct {
	mu      sync.Mutex
	created []*entity.Prediction
	updated []*entity.Prediction
	due     []entity.Prediction
	graded  []entity.Prediction
}

var _ repository.PredictionRepository = (*fakePredictionRepo)(nil)

func (r *fakePredictionRepo) Create(_ context.Context, prediction *entity.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *prediction
	r.created = append(r.created, &cp)
	return nil
}

func (r *fakePredictionRepo) Update(_ context.Context, prediction *entity.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *prediction
	r.updated = append(r.updated, &cp)
	return nil
}

func (r *fakePredictionRepo) FindDueForGrading(_ context.Context, _ entity.Horizon, _, _ time.Time, limit int) ([]entity.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	due := r.due
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	out := make([]entity.Prediction, len(due))
	copy(out, due)
	return out, nil
}

func (r *fakePredictionRepo) FindGradedSince(_ context.Context, _ string, _ entity.Horizon, _ time.Time) ([]entity.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Prediction, len(r.graded))
	copy(out, r.graded)
	return out, nil
}

type fakePortfolioRepo struct {
	mu      sync.Mutex
	upserts []*entity.PortfolioStat
}

var _ repository.PortfolioRepository = (*fakePortfolioRepo)(nil)

func (r *fakePortfolioRepo) Upsert(_ context.Context, stat *entity.PortfolioStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *stat
	r.upserts = append(r.upserts, &cp)
	return nil
}

func (r *fakePortfolioRepo) FindByDate(_ context.Context, date string) (*entity.PortfolioStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.upserts) - 1; i >= 0; i-- {
		if r.upserts[i].Date == date {
			cp := *r.upserts[i]
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("no stat for %s", date)
}

func (r *fakePortfolioRepo) FindLatest(_ context.Context) (*entity.PortfolioStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.upserts) == 0 {
		return nil, fmt.Errorf("no stats")
	}
	cp := *r.upserts[len(r.upserts)-1]
	return &cp, nil
}

type fakeMetricRepo struct {
	mu      sync.Mutex
	upserts []*entity.PerformanceMetric
}

var _ repository.PerformanceMetricRepository = (*fakeMetricRepo)(nil)

func (r *fakeMetricRepo) Upsert(_ context.Context, metric *entity.PerformanceMetric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *metric
	r.upserts = append(r.upserts, &cp)
	return nil
}

func (r *fakeMetricRepo) Find(_ context.Context, _, _ string, _ entity.Horizon) (*entity.PerformanceMetric, error) {
	return nil, fmt.Errorf("not found")
}

func (r *fakeMetricRepo) FindByCoin(_ context.Context, _ string, _ int) ([]entity.PerformanceMetric, error) {
	return nil, nil
}

// buyProposal is a valid BUY ladder used across lifecycle tests.
func buyProposal() *dto.SignalProposal {
	return &dto.SignalProposal{
		Action:         dto.ActionBuy,
		Confidence:     72,
		Timeframe:      "1h",
		EntryPrice:     100,
		StopLoss:       97,
		TakeProfit1:    102,
		TakeProfit2:    105,
		TakeProfit3:    110,
		RiskPercentage: 2,
		RiskLevel:      "MEDIUM",
		Reasoning:      "test proposal",
		KeyFactors:     []string{"test"},
	}
}

func testSnapshot() *indicator.Snapshot {
	return &indicator.Snapshot{
		CurrentPrice:   100,
		PriceChange24h: 1.5,
		RSI:            45,
		MACD:           0.4,
		Support:        95,
		Resistance:     112,
		Volume:         8_000_000,
		VolumeTrend:    indicator.VolumeStable,
		VolumeRatio:    1.1,
	}
}

func testSizing() *Sizing {
	return &Sizing{
		CapitalAllocated: 100,
		PositionSize:     4,
		RiskRewardRatio:  10.0 / 3.0,
		RiskPercentage:   2,
	}
}
