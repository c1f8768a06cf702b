package service

import (
	"math"
	"testing"

	"crypto-signal-engine/internal/signal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeProposal(t *testing.T) {
	p := &dto.SignalProposal{
		Action:         dto.ActionBuy,
		EntryPrice:     100,
		StopLoss:       95,
		TakeProfit3:    110,
		RiskPercentage: 2,
	}

	sizing, err := SizeProposal(p, 1000, 1)
	require.NoError(t, err)

	// risk amount 1000 * 2% = 20, spread over a stop distance of 5
	assert.InDelta(t, 4, sizing.PositionSize, 1e-9)
	assert.InDelta(t, 2, sizing.RiskRewardRatio, 1e-9)
	assert.InDelta(t, 1000, sizing.CapitalAllocated, 1e-9)
	assert.InDelta(t, 2, sizing.RiskPercentage, 1e-9)

	// the amount at risk equals capital x risk% regardless of levels
	stopDistance := math.Abs(p.EntryPrice - p.StopLoss)
	assert.InDelta(t, 1000*0.02, sizing.PositionSize*stopDistance, 1e-9)
}

func TestSizeProposal_DefaultRisk(t *testing.T) {
	p := &dto.SignalProposal{
		Action:      dto.ActionSell,
		EntryPrice:  100,
		StopLoss:    104,
		TakeProfit3: 90,
	}

	sizing, err := SizeProposal(p, 500, 3)
	require.NoError(t, err)

	assert.InDelta(t, 3, sizing.RiskPercentage, 1e-9)
	assert.InDelta(t, 500*0.03/4, sizing.PositionSize, 1e-9)
	assert.InDelta(t, 2.5, sizing.RiskRewardRatio, 1e-9)
}

func TestSizeProposal_Errors(t *testing.T) {
	p := &dto.SignalProposal{EntryPrice: 100, StopLoss: 100, RiskPercentage: 2}

	_, err := SizeProposal(p, 0, 2)
	assert.Error(t, err)

	_, err = SizeProposal(p, 1000, 2)
	assert.ErrorContains(t, err, "entry price equals stop loss")
}
