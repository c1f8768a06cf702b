package service

import (
	"fmt"
	"math"

	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/dto"
)

// fallbackConfidenceCap bounds rule-based proposals well below AI-backed ones
// so downstream consumers can tell degraded-mode signals apart by confidence.
const fallbackConfidenceCap = 45

// BuildFallbackProposal deterministically synthesizes a conservative proposal
// from the indicator snapshot alone. It is the method of last resort when the
// scorer is unavailable or returns an invalid proposal, so it never fails.
func BuildFallbackProposal(snapshot *indicator.Snapshot, timeframe string, riskPercentage float64) *dto.SignalProposal {
	currentPrice := snapshot.CurrentPrice

	action := dto.ActionBuy
	confidence := 50.0
	reasoning := ""
	keyFactors := []string{}

	if snapshot.RSI < 30 {
		action = dto.ActionBuy
		confidence += 15
		reasoning = "RSI indicates oversold conditions. "
		keyFactors = append(keyFactors, "RSI < 30 (Oversold)")
	} else if snapshot.RSI > 70 {
		action = dto.ActionSell
		confidence += 15
		reasoning = "RSI indicates overbought conditions. "
		keyFactors = append(keyFactors, "RSI > 70 (Overbought)")
	}

	if snapshot.MACD > 0 {
		if action == dto.ActionBuy {
			confidence += 10
		}
		reasoning += "MACD is positive (bullish). "
		keyFactors = append(keyFactors, "Positive MACD")
	} else {
		if action == dto.ActionSell {
			confidence += 10
		}
		reasoning += "MACD is negative (bearish). "
		keyFactors = append(keyFactors, "Negative MACD")
	}

	if priceRange := snapshot.Resistance - snapshot.Support; priceRange > 0 {
		pricePosition := (currentPrice - snapshot.Support) / priceRange
		if pricePosition < 0.3 {
			if action == dto.ActionBuy {
				confidence += 10
			}
			reasoning += "Price near support level. "
			keyFactors = append(keyFactors, "Near support")
		} else if pricePosition > 0.7 {
			if action == dto.ActionSell {
				confidence += 10
			}
			reasoning += "Price near resistance level. "
			keyFactors = append(keyFactors, "Near resistance")
		}
	}

	var entry, stop, tp1, tp2, tp3 float64
	if action == dto.ActionBuy {
		entry = currentPrice * 0.998
		stop = math.Max(snapshot.Support*0.995, entry*0.97)
		tp1 = entry * 1.02
		tp2 = entry * 1.05
		tp3 = math.Min(snapshot.Resistance*0.995, entry*1.10)

		// Detected levels can break the ladder when support/resistance sit
		// inside it; clamp to the percentage ladder.
		if stop >= entry {
			stop = entry * 0.97
		}
		if tp3 <= tp2 {
			tp3 = entry * 1.10
		}
	} else {
		entry = currentPrice * 1.002
		stop = math.Min(snapshot.Resistance*1.005, entry*1.03)
		tp1 = entry * 0.98
		tp2 = entry * 0.95
		tp3 = math.Max(snapshot.Support*1.005, entry*0.90)

		if stop <= entry {
			stop = entry * 1.03
		}
		if tp3 >= tp2 {
			tp3 = entry * 0.90
		}
	}

	confidence = math.Min(confidence, fallbackConfidenceCap)
	reasoning += fmt.Sprintf("Rule-based fallback analysis with %.0f%% confidence.", confidence)

	return &dto.SignalProposal{
		Action:         action,
		Confidence:     confidence,
		Timeframe:      timeframe,
		EntryPrice:     entry,
		StopLoss:       stop,
		TakeProfit1:    tp1,
		TakeProfit2:    tp2,
		TakeProfit3:    tp3,
		RiskPercentage: riskPercentage,
		RiskLevel:      "MEDIUM",
		Reasoning:      reasoning,
		KeyFactors:     keyFactors,
	}
}
