package service

import (
	"testing"

	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFallbackProposal_OversoldBuy(t *testing.T) {
	snapshot := &indicator.Snapshot{
		CurrentPrice: 100,
		RSI:          25,
		MACD:         1.5,
		Support:      80,
		Resistance:   120,
	}

	p := BuildFallbackProposal(snapshot, "1h", 2)

	assert.Equal(t, dto.ActionBuy, p.Action)
	assert.Equal(t, float64(fallbackConfidenceCap), p.Confidence)
	assert.Equal(t, "1h", p.Timeframe)
	assert.InDelta(t, 99.8, p.EntryPrice, 1e-9)
	assert.Contains(t, p.KeyFactors, "RSI < 30 (Oversold)")

	require.NoError(t, p.Validate())
	assert.Less(t, p.StopLoss, p.EntryPrice)
	assert.Less(t, p.EntryPrice, p.TakeProfit1)
	assert.Less(t, p.TakeProfit1, p.TakeProfit2)
	assert.Less(t, p.TakeProfit2, p.TakeProfit3)
}

func TestBuildFallbackProposal_OverboughtSell(t *testing.T) {
	snapshot := &indicator.Snapshot{
		CurrentPrice: 100,
		RSI:          75,
		MACD:         -0.5,
		Support:      80,
		Resistance:   120,
	}

	p := BuildFallbackProposal(snapshot, "4h", 2)

	assert.Equal(t, dto.ActionSell, p.Action)
	assert.Equal(t, float64(fallbackConfidenceCap), p.Confidence)
	assert.InDelta(t, 100.2, p.EntryPrice, 1e-9)

	require.NoError(t, p.Validate())
	assert.Greater(t, p.StopLoss, p.EntryPrice)
	assert.Greater(t, p.EntryPrice, p.TakeProfit1)
	assert.Greater(t, p.TakeProfit1, p.TakeProfit2)
	assert.Greater(t, p.TakeProfit2, p.TakeProfit3)
}

// Support and resistance sitting inside the percentage ladder must not break
// the ordering the validator enforces.
func TestBuildFallbackProposal_ClampsLevelsInsideLadder(t *testing.T) {
	snapshot := &indicator.Snapshot{
		CurrentPrice: 100,
		RSI:          25,
		MACD:         1,
		Support:      100.5,
		Resistance:   101,
	}

	p := BuildFallbackProposal(snapshot, "1h", 2)

	require.NoError(t, p.Validate())
	assert.InDelta(t, p.EntryPrice*0.97, p.StopLoss, 1e-9)
	assert.InDelta(t, p.EntryPrice*1.10, p.TakeProfit3, 1e-9)
}

func TestBuildFallbackProposal_NeutralDefaultsToBuy(t *testing.T) {
	snapshot := &indicator.Snapshot{
		CurrentPrice: 100,
		RSI:          50,
		MACD:         -1,
		Support:      80,
		Resistance:   120,
	}

	p := BuildFallbackProposal(snapshot, "1h", 2)

	assert.Equal(t, dto.ActionBuy, p.Action)
	assert.LessOrEqual(t, p.Confidence, float64(fallbackConfidenceCap))
	require.NoError(t, p.Validate())
}
