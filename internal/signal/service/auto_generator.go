package service

import (
	"context"
	"fmt"
	"time"

	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/pkg/logger"
)

// AutoGeneratorService sweeps the configured coins, runs the scoring pipeline
// for each and funds only quality-gated proposals.
type AutoGeneratorService interface {
	Run(ctx context.Context) (*dto.AutoGenerateResponse, error)
}

type autoGeneratorService struct {
	cfg       *config.Config
	log       *logger.Logger
	generator SignalGeneratorService
	manager   SignalManagerService
}

// NewAutoGeneratorService creates a new AutoGeneratorService.
func NewAutoGeneratorService(cfg *config.Config, log *logger.Logger,
	generator SignalGeneratorService,
	manager SignalManagerService) AutoGeneratorService {
	return &autoGeneratorService{
		cfg:       cfg,
		log:       log,
		generator: generator,
		manager:   manager,
	}
}

// Run processes each coin independently; one failing coin never aborts the
// sweep. A coin is funded only when it has no live signal, the proposal is
// directional and the quality gate admits it (EXCELLENT or GOOD).
func (s *autoGeneratorService) Run(ctx context.Context) (*dto.AutoGenerateResponse, error) {
	started := time.Now()
	response := &dto.AutoGenerateResponse{StartedAt: started}

	for _, coin := range s.cfg.Engine.Coins {
		if err := ctx.Err(); err != nil {
			return response, err
		}

		skip := func(reason string) {
			response.Skipped = append(response.Skipped, dto.AutoGenerateSkip{Coin: coin, Reason: reason})
		}

		active, err := s.manager.HasActiveSignal(ctx, coin)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to check active signals", logger.StringField("coin", coin), logger.ErrorField(err))
			skip(fmt.Sprintf("active check failed: %v", err))
			continue
		}
		if active {
			skip("active signal exists")
			continue
		}

		result, err := s.generator.Generate(ctx, coin, "", s.cfg.Engine.CapitalPerSignal)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to generate signal", logger.StringField("coin", coin), logger.ErrorField(err))
			skip(fmt.Sprintf("generation failed: %v", err))
			continue
		}

		if result.Proposal.Action == dto.ActionHold {
			skip("proposal is HOLD")
			continue
		}
		if result.Quality == nil || !QualityAdmits(result.Quality.Rating) {
			rating := dto.RatingPoor
			if result.Quality != nil {
				rating = result.Quality.Rating
			}
			skip(fmt.Sprintf("quality gate rejected (%s)", rating))
			continue
		}

		sizing, err := SizeProposal(result.Proposal, s.cfg.Engine.CapitalPerSignal, s.cfg.Engine.RiskPercentage)
		if err != nil {
			skip(fmt.Sprintf("sizing failed: %v", err))
			continue
		}

		signal, err := s.manager.Create(ctx, coin, result.Proposal, sizing, result.Indicators)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to fund signal", logger.StringField("coin", coin), logger.ErrorField(err))
			skip(fmt.Sprintf("persist failed: %v", err))
			continue
		}

		response.SignalsCreated++
		response.SignalIDs = append(response.SignalIDs, signal.ID)
	}

	response.Duration = time.Since(started).Round(time.Millisecond).String()

	s.log.InfoContext(ctx, "Auto-generation sweep completed",
		logger.IntField("created", response.SignalsCreated),
		logger.IntField("skipped", len(response.Skipped)),
		logger.StringField("duration", response.Duration),
	)

	return response, nil
}
