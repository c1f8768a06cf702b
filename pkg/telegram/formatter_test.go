package telegram

import (
	"testing"
	"time"

	"crypto-signal-engine/internal/entity"

	"github.com/stretchr/testify/assert"
)

func sampleSignal() *entity.TradingSignal {
	return &entity.TradingSignal{
		ID:              "sig-1",
		Coin:            "BTC",
		Action:          "BUY",
		Confidence:      72,
		Timeframe:       "1h",
		EntryPrice:      100,
		CurrentPrice:    103,
		StopLoss:        97,
		TakeProfit1:     102,
		TakeProfit2:     105,
		TakeProfit3:     110,
		PositionSize:    4,
		RiskRewardRatio: 3.33,
		PnlUSD:          12,
		PnlPercentage:   3,
		Reasoning:       "momentum continuation",
		KeyFactors:      []string{"Positive MACD"},
		Status:          entity.StatusTP1Hit,
		SignalExpiresAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatSignalCreatedMessage(t *testing.T) {
	msg := FormatSignalCreatedMessage(sampleSignal())

	assert.Contains(t, msg, "New Signal: BUY BTC")
	assert.Contains(t, msg, "Entry: $100.0000")
	assert.Contains(t, msg, "TP1: $102.0000 | TP2: $105.0000 | TP3: $110.0000")
	assert.Contains(t, msg, "Positive MACD")
	assert.Contains(t, msg, "2026-08-31 12:00:00")
}

func TestFormatSignalAlertMessage(t *testing.T) {
	signal := sampleSignal()

	tests := []struct {
		alertType AlertType
		want      string
	}{
		{TakeProfit1, "Take Profit 1 Hit!"},
		{TakeProfit3, "Take Profit 3 Hit! Position Closed"},
		{StopLoss, "Stop Loss Triggered!"},
		{Expired, "Signal Expired"},
	}

	for _, tt := range tests {
		msg := FormatSignalAlertMessage(tt.alertType, signal, 103)
		assert.Contains(t, msg, tt.want)
		assert.Contains(t, msg, "Price reached: $103.0000")
		assert.Contains(t, msg, "PnL: $12.00 (3.00%)")
	}
}

func TestFormatDailySummaryMessage(t *testing.T) {
	stat := &entity.PortfolioStat{
		Date:           "2026-08-31",
		CurrentCapital: 1025,
		NetProfit:      25,
		WinRate:        50,
		WinningTrades:  1,
		TotalTrades:    2,
		ProfitFactor:   2,
	}

	msg := FormatDailySummaryMessage(stat, []entity.TradingSignal{*sampleSignal()})

	assert.Contains(t, msg, "Date: 2026-08-31")
	assert.Contains(t, msg, "Win Rate: 50.00% (1/2)")
	assert.Contains(t, msg, "Active Positions: 1")
	assert.Contains(t, msg, "BUY BTC @ $100.0000")
}

func TestFormatJobMessages(t *testing.T) {
	summary := FormatJobSummaryMessage("auto_generate", "Created 2 signal(s)", 1500*time.Millisecond)
	assert.Contains(t, summary, "Job Completed: auto_generate")
	assert.Contains(t, summary, "Created 2 signal(s)")

	alert := FormatErrorAlertMessage(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC), "update_prices", "boom")
	assert.Contains(t, alert, "ERROR ALERT")
	assert.Contains(t, alert, "update_prices")
	assert.Contains(t, alert, "boom")
}
