package telegram

import (
	"fmt"
	"strings"
	"time"

	"crypto-signal-engine/internal/entity"
)

// AlertType represents the type of alert
type AlertType string

const (
	TakeProfit1 AlertType = "TAKE_PROFIT_1"
	TakeProfit2 AlertType = "TAKE_PROFIT_2"
	TakeProfit3 AlertType = "TAKE_PROFIT_3"
	StopLoss    AlertType = "STOP_LOSS"
	Expired     AlertType = "EXPIRED"
)

// FormatSignalCreatedMessage formats a freshly funded signal into a Markdown
// string for Telegram.
func FormatSignalCreatedMessage(s *entity.TradingSignal) string {
	var sb strings.Builder

	var actionIcon string
	switch s.Action {
	case "BUY":
		actionIcon = "🟢"
	case "SELL":
		actionIcon = "🔴"
	default:
		actionIcon = "🟡"
	}

	sb.WriteString(fmt.Sprintf("%s **New Signal: %s %s**\n", actionIcon, s.Action, s.Coin))
	sb.WriteString(fmt.Sprintf("🎯 Confidence: %.0f%% | Timeframe: %s\n\n", s.Confidence, s.Timeframe))

	sb.WriteString("💡 **Levels:**\n")
	sb.WriteString(fmt.Sprintf("• 💵 Entry: $%.4f\n", s.EntryPrice))
	sb.WriteString(fmt.Sprintf("• 🛡 Stop Loss: $%.4f\n", s.StopLoss))
	sb.WriteString(fmt.Sprintf("• 🎯 TP1: $%.4f | TP2: $%.4f | TP3: $%.4f\n", s.TakeProfit1, s.TakeProfit2, s.TakeProfit3))
	sb.WriteString(fmt.Sprintf("• 🔁 Risk/Reward Ratio: %.2f\n\n", s.RiskRewardRatio))

	sb.WriteString("💰 **Position:**\n")
	sb.WriteString(fmt.Sprintf("• Capital: $%.2f | Size: %.6f %s\n", s.CapitalAllocated, s.PositionSize, s.Coin))
	sb.WriteString(fmt.Sprintf("• Risk: %.2f%% of capital\n\n", s.RiskPercentage))

	sb.WriteString(fmt.Sprintf("🧠 **Reasoning:**\n%s\n", s.Reasoning))
	if len(s.KeyFactors) > 0 {
		sb.WriteString("\n📌 **Key Factors:**\n")
		for _, f := range s.KeyFactors {
			sb.WriteString(fmt.Sprintf("• %s\n", f))
		}
	}

	sb.WriteString(fmt.Sprintf("\n⏳ _Expires: %s_\n", s.SignalExpiresAt.Format("2006-01-02 15:04:05")))

	return sb.String()
}

// FormatSignalAlertMessage formats a TP/SL/expiry transition into a Markdown
// string for Telegram.
func FormatSignalAlertMessage(alertType AlertType, s *entity.TradingSignal, triggerPrice float64) string {
	var title, emoji string
	var targetPrice float64

	switch alertType {
	case TakeProfit1:
		title, emoji, targetPrice = "Take Profit 1 Hit!", "🎯", s.TakeProfit1
	case TakeProfit2:
		title, emoji, targetPrice = "Take Profit 2 Hit!", "🎯", s.TakeProfit2
	case TakeProfit3:
		title, emoji, targetPrice = "Take Profit 3 Hit! Position Closed", "🏆", s.TakeProfit3
	case StopLoss:
		title, emoji, targetPrice = "Stop Loss Triggered!", "⚠️", s.StopLoss
	case Expired:
		title, emoji, targetPrice = "Signal Expired", "⌛", s.EntryPrice
	default:
		title, emoji, targetPrice = "Price Alert", "🔔", s.EntryPrice
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s [%s %s] %s\n", emoji, s.Action, s.Coin, title))
	sb.WriteString(fmt.Sprintf("💰 Price reached: $%.4f (target: $%.4f)\n", triggerPrice, targetPrice))
	sb.WriteString(fmt.Sprintf("📈 PnL: $%.2f (%.2f%%)\n", s.PnlUSD, s.PnlPercentage))
	sb.WriteString(fmt.Sprintf("%s\n", time.Now().Format("2006-01-02 15:04:05")))

	return sb.String()
}

// FormatDailySummaryMessage formats the day's portfolio rollup into a Markdown
// string for Telegram.
func FormatDailySummaryMessage(stat *entity.PortfolioStat, active []entity.TradingSignal) string {
	var sb strings.Builder

	sb.WriteString("📊 **Daily Portfolio Summary** 📊\n\n")
	sb.WriteString(fmt.Sprintf("📅 Date: %s\n", stat.Date))
	sb.WriteString(fmt.Sprintf("💰 Capital: $%.2f (start $%.2f)\n", stat.CurrentCapital, stat.StartingCapital))
	sb.WriteString(fmt.Sprintf("📈 Net Profit: $%.2f\n", stat.NetProfit))
	sb.WriteString(fmt.Sprintf("🎯 Win Rate: %.2f%% (%d/%d)\n", stat.WinRate, stat.WinningTrades, stat.TotalTrades))
	sb.WriteString(fmt.Sprintf("🔁 Profit Factor: %.2f\n\n", stat.ProfitFactor))

	sb.WriteString(fmt.Sprintf("📌 **Active Positions: %d**\n", len(active)))
	for _, s := range active {
		sb.WriteString(fmt.Sprintf("• %s %s @ $%.4f → $%.4f (%.2f%%)\n",
			s.Action, s.Coin, s.EntryPrice, s.CurrentPrice, s.PnlPercentage))
	}

	return sb.String()
}

// FormatJobSummaryMessage formats a completed job run into a short Markdown
// string for Telegram.
func FormatJobSummaryMessage(jobName, detail string, duration time.Duration) string {
	return fmt.Sprintf("✅ *Job Completed: %s*\n%s\n⏱ Duration: %s\n", jobName, detail, duration.Round(time.Millisecond))
}

// FormatErrorAlertMessage formats a job failure into a Markdown string for
// Telegram.
func FormatErrorAlertMessage(t time.Time, jobName string, errMsg string) string {
	return fmt.Sprintf(`📛 [ERROR ALERT]
%s
🔧 %s
⚠️ %s
`, t.Format("2006-01-02 15:04:05"), jobName, errMsg)
}
