package repository

import (
	"fmt"
	"strings"

	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/dto"
)

// BuildSignalPrompt assembles the scoring prompt from the indicator snapshot,
// market-wide metrics and the coin's past prediction accuracy.
func BuildSignalPrompt(coin string, snapshot *indicator.Snapshot, metrics *dto.GlobalMetrics, performance *dto.PerformanceSummary) string {
	var perfBuilder strings.Builder
	if performance != nil && performance.TotalPredictions > 0 {
		perfBuilder.WriteString(fmt.Sprintf(
			"Total Predictions: %d\nCorrect: %d\nWin Rate: %.2f%%\nAvg Profit: %.2f%%\nAvg Loss: %.2f%%\nProfit Factor: %.2f\nRecent Trend: %s\n",
			performance.TotalPredictions, performance.CorrectPredictions, performance.WinRate,
			performance.AvgProfit, performance.AvgLoss, performance.ProfitFactor, performance.RecentTrend,
		))
		if len(performance.CommonMistakes) > 0 {
			perfBuilder.WriteString("Common Mistakes (avoid repeating these):\n")
			for _, m := range performance.CommonMistakes {
				perfBuilder.WriteString("- " + m + "\n")
			}
		}
		if len(performance.BestConditions) > 0 {
			perfBuilder.WriteString("Best Performing Conditions (favor these setups):\n")
			for _, c := range performance.BestConditions {
				perfBuilder.WriteString("- " + c + "\n")
			}
		}
	} else {
		perfBuilder.WriteString("No graded prediction history for this coin yet.\n")
	}

	promptTemplate := `You are an expert cryptocurrency trading analyst. Analyze the market data below for %s and propose a trading signal.

Technical Indicators:
- Current Price: %.4f
- 24h Price Change: %.2f%%
- RSI(14): %.2f
- MACD: %.4f (signal %.4f, histogram %.4f)
- Bollinger Bands: upper %.2f / middle %.2f / lower %.2f
- Support: %.2f
- Resistance: %.2f
- 24h Volume: %.2f
- Volume Trend: %s (ratio %.2f)

Global Market:
- BTC Dominance: %.2f%%
- ETH Dominance: %.2f%%
- Total Market Cap: %.2f
- 24h Volume: %.2f

Your Past Performance on %s:
%s
Rules:
- action must be one of BUY, SELL, HOLD.
- confidence is 0-100.
- For BUY: stop_loss < entry_price < take_profit_1 < take_profit_2 < take_profit_3.
- For SELL: stop_loss > entry_price > take_profit_1 > take_profit_2 > take_profit_3.
- For HOLD: leave all price levels at 0.
- risk_percentage is the fraction of capital to risk, between 0.5 and 3.0.
- key_factors lists the 3-5 factors that drove the decision.

Respond with JSON only, using exactly this structure:
{
  "action": "BUY | SELL | HOLD",
  "confidence": <float 0-100>,
  "timeframe": "1h | 4h | 24h",
  "entry_price": <float>,
  "stop_loss": <float>,
  "take_profit_1": <float>,
  "take_profit_2": <float>,
  "take_profit_3": <float>,
  "risk_percentage": <float>,
  "risk_level": "LOW | MEDIUM | HIGH",
  "reasoning": "<string>",
  "key_factors": ["<string>"]
}`

	return fmt.Sprintf(promptTemplate,
		coin,
		snapshot.CurrentPrice, snapshot.PriceChange24h, snapshot.RSI,
		snapshot.MACD, snapshot.MACDSignal, snapshot.MACDHistogram,
		snapshot.BollingerUpper, snapshot.BollingerMid, snapshot.BollingerLower,
		snapshot.Support, snapshot.Resistance,
		snapshot.Volume, snapshot.VolumeTrend, snapshot.VolumeRatio,
		metrics.BTCDominance, metrics.ETHDominance, metrics.TotalMarketCap, metrics.Volume24h,
		coin, perfBuilder.String(),
	)
}
