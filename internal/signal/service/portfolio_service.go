package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/repository"
	"crypto-signal-engine/pkg/logger"
	"crypto-signal-engine/pkg/utils"
)

// portfolioStartingCapital is the fixed baseline every rollup measures against.
const portfolioStartingCapital = 1000

// PortfolioService rolls closed signals up into daily capital statistics.
type PortfolioService interface {
	Rollup(ctx context.Context) (*entity.PortfolioStat, error)
	GetLatest(ctx context.Context) (*entity.PortfolioStat, error)
	SendDailySummary(ctx context.Context) error
}

type portfolioService struct {
	cfg           *config.Config
	log           *logger.Logger
	signalRepo    repository.TradingSignalRepository
	portfolioRepo repository.PortfolioRepository
	dispatcher    Dispatcher
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(cfg *config.Config, log *logger.Logger,
	signalRepo repository.TradingSignalRepository,
	portfolioRepo repository.PortfolioRepository,
	dispatcher Dispatcher) PortfolioService {
	return &portfolioService{
		cfg:           cfg,
		log:           log,
		signalRepo:    signalRepo,
		portfolioRepo: portfolioRepo,
		dispatcher:    dispatcher,
	}
}

// Rollup scans all terminal signals and upserts today's row. Running it twice
// in the same day overwrites, never accumulates.
func (s *portfolioService) Rollup(ctx context.Context) (*entity.PortfolioStat, error) {
	terminal, err := s.signalRepo.FindTerminal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminal signals: %w", err)
	}

	active, err := s.signalRepo.FindActive(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list active signals: %w", err)
	}

	var totalProfit, totalLoss float64
	var winning, losing int
	for i := range terminal {
		pnl := terminal[i].PnlUSD
		if pnl > 0 {
			totalProfit += pnl
			winning++
		} else if pnl < 0 {
			totalLoss += math.Abs(pnl)
			losing++
		}
	}

	totalTrades := len(terminal)
	var winRate float64
	if totalTrades > 0 {
		winRate = float64(winning) / float64(totalTrades) * 100
	}

	profitFactor := 0.0
	if totalLoss > 0 {
		profitFactor = totalProfit / totalLoss
	} else if totalProfit > 0 {
		profitFactor = 999
	}

	netProfit := totalProfit - totalLoss

	stat := &entity.PortfolioStat{
		Date:            time.Now().Format("2006-01-02"),
		StartingCapital: portfolioStartingCapital,
		CurrentCapital:  utils.RoundTo(portfolioStartingCapital+netProfit, 2),
		TotalTrades:     totalTrades,
		WinningTrades:   winning,
		LosingTrades:    losing,
		WinRate:         utils.RoundTo(winRate, 2),
		TotalProfit:     utils.RoundTo(totalProfit, 2),
		TotalLoss:       utils.RoundTo(totalLoss, 2),
		NetProfit:       utils.RoundTo(netProfit, 2),
		ProfitFactor:    utils.RoundTo(profitFactor, 2),
		ActivePositions: len(active),
	}

	if err := s.portfolioRepo.Upsert(ctx, stat); err != nil {
		return nil, fmt.Errorf("failed to upsert portfolio stat: %w", err)
	}

	s.log.InfoContext(ctx, "Portfolio rolled up",
		logger.StringField("date", stat.Date),
		logger.Float64Field("net_profit", stat.NetProfit),
		logger.Float64Field("win_rate", stat.WinRate),
	)

	return stat, nil
}

func (s *portfolioService) GetLatest(ctx context.Context) (*entity.PortfolioStat, error) {
	return s.portfolioRepo.FindLatest(ctx)
}

// SendDailySummary recomputes the rollup and pushes it to the notification
// sink.
func (s *portfolioService) SendDailySummary(ctx context.Context) error {
	stat, err := s.Rollup(ctx)
	if err != nil {
		return err
	}

	active, err := s.signalRepo.FindActive(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list active signals: %w", err)
	}

	s.dispatcher.Publish(Event{Type: EventDailySummary, Stat: stat, Active: active})

	return nil
}
