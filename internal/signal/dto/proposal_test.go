package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validBuy() *SignalProposal {
	return &SignalProposal{
		Action:      ActionBuy,
		Confidence:  70,
		EntryPrice:  100,
		StopLoss:    97,
		TakeProfit1: 102,
		TakeProfit2: 105,
		TakeProfit3: 110,
	}
}

func TestSignalProposalValidate(t *testing.T) {
	t.Run("valid buy", func(t *testing.T) {
		assert.NoError(t, validBuy().Validate())
	})

	t.Run("valid sell", func(t *testing.T) {
		p := &SignalProposal{
			Action:      ActionSell,
			Confidence:  70,
			EntryPrice:  100,
			StopLoss:    103,
			TakeProfit1: 98,
			TakeProfit2: 95,
			TakeProfit3: 90,
		}
		assert.NoError(t, p.Validate())
	})

	t.Run("hold needs no levels", func(t *testing.T) {
		p := &SignalProposal{Action: ActionHold, Confidence: 50}
		assert.NoError(t, p.Validate())
	})

	t.Run("unknown action", func(t *testing.T) {
		p := validBuy()
		p.Action = "SHORT"
		assert.ErrorContains(t, p.Validate(), "invalid action")
	})

	t.Run("confidence out of range", func(t *testing.T) {
		p := validBuy()
		p.Confidence = 140
		assert.ErrorContains(t, p.Validate(), "confidence out of range")
	})

	t.Run("missing levels", func(t *testing.T) {
		p := validBuy()
		p.TakeProfit2 = 0
		assert.ErrorContains(t, p.Validate(), "missing price levels")
	})

	t.Run("buy stop above entry", func(t *testing.T) {
		p := validBuy()
		p.StopLoss = 101
		assert.ErrorContains(t, p.Validate(), "invalid BUY price ordering")
	})

	t.Run("buy ladder out of order", func(t *testing.T) {
		p := validBuy()
		p.TakeProfit2 = 101
		assert.ErrorContains(t, p.Validate(), "invalid BUY price ordering")
	})

	t.Run("sell ladder out of order", func(t *testing.T) {
		p := &SignalProposal{
			Action:      ActionSell,
			Confidence:  70,
			EntryPrice:  100,
			StopLoss:    103,
			TakeProfit1: 98,
			TakeProfit2: 99,
			TakeProfit3: 90,
		}
		assert.ErrorContains(t, p.Validate(), "invalid SELL price ordering")
	})
}
