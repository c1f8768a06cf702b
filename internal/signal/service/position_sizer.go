package service

import (
	"fmt"
	"math"

	"crypto-signal-engine/internal/signal/dto"
)

// Sizing is the funded view of a proposal.
type Sizing struct {
	CapitalAllocated float64
	PositionSize     float64
	RiskRewardRatio  float64
	RiskPercentage   float64
}

// SizeProposal converts a validated proposal into position sizing using fixed
// fractional risk: the amount at risk is capital x risk%, spread over the
// entry-to-stop distance.
func SizeProposal(p *dto.SignalProposal, capital, defaultRiskPercentage float64) (*Sizing, error) {
	if capital <= 0 {
		return nil, fmt.Errorf("capital must be positive, got %.2f", capital)
	}

	riskPercentage := p.RiskPercentage
	if riskPercentage <= 0 {
		riskPercentage = defaultRiskPercentage
	}

	stopDistance := math.Abs(p.EntryPrice - p.StopLoss)
	if stopDistance == 0 {
		return nil, fmt.Errorf("entry price equals stop loss")
	}

	riskAmount := capital * (riskPercentage / 100)
	positionSize := riskAmount / stopDistance

	tp3Distance := math.Abs(p.TakeProfit3 - p.EntryPrice)
	riskRewardRatio := tp3Distance / stopDistance

	return &Sizing{
		CapitalAllocated: capital,
		PositionSize:     positionSize,
		RiskRewardRatio:  riskRewardRatio,
		RiskPercentage:   riskPercentage,
	}, nil
}
