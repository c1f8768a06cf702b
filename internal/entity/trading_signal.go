package entity

import (
	"time"

	"github.com/lib/pq"
)

// SignalStatus is the lifecycle state of a trading signal.
type SignalStatus string

const (
	StatusActive  SignalStatus = "ACTIVE"
	StatusTP1Hit  SignalStatus = "TP1_HIT"
	StatusTP2Hit  SignalStatus = "TP2_HIT"
	StatusTP3Hit  SignalStatus = "TP3_HIT"
	StatusSLHit   SignalStatus = "SL_HIT"
	StatusClosed  SignalStatus = "CLOSED"
	StatusExpired SignalStatus = "EXPIRED"
)

// ActiveStatuses are the states in which a signal still tracks the market.
func ActiveStatuses() []SignalStatus {
	return []SignalStatus{StatusActive, StatusTP1Hit, StatusTP2Hit}
}

// TerminalStatuses are the states from which no further transition is possible.
func TerminalStatuses() []SignalStatus {
	return []SignalStatus{StatusTP3Hit, StatusSLHit, StatusClosed, StatusExpired}
}

// IsTerminal reports whether the status allows no further transitions.
func (s SignalStatus) IsTerminal() bool {
	switch s {
	case StatusTP3Hit, StatusSLHit, StatusClosed, StatusExpired:
		return true
	}
	return false
}

// TradingSignal is a funded directional signal with three take-profit levels
// and a stop loss. It is created once and mutated only by the signal manager.
type TradingSignal struct {
	ID         string  `gorm:"type:uuid;primaryKey" json:"id"`
	Coin       string  `gorm:"type:varchar(20);not null" json:"coin"`
	Action     string  `gorm:"type:varchar(10);not null" json:"action"`
	SignalType string  `gorm:"type:varchar(10);not null" json:"signal_type"`
	Confidence float64 `json:"confidence"`
	Timeframe  string  `gorm:"type:varchar(10)" json:"timeframe"`

	EntryPrice   float64 `gorm:"not null" json:"entry_price"`
	CurrentPrice float64 `json:"current_price"`
	StopLoss     float64 `gorm:"not null" json:"stop_loss"`
	TakeProfit1  float64 `gorm:"not null" json:"take_profit_1"`
	TakeProfit2  float64 `gorm:"not null" json:"take_profit_2"`
	TakeProfit3  float64 `gorm:"not null" json:"take_profit_3"`

	CapitalAllocated float64 `json:"capital_allocated"`
	PositionSize     float64 `json:"position_size"`
	RiskRewardRatio  float64 `json:"risk_reward_ratio"`
	RiskPercentage   float64 `json:"risk_percentage"`

	RSI       float64 `json:"rsi"`
	MACD      float64 `json:"macd"`
	Volume24h float64 `json:"volume_24h"`

	Reasoning  string         `gorm:"type:text" json:"reasoning"`
	KeyFactors pq.StringArray `gorm:"type:text[]" json:"key_factors"`

	PnlUSD        float64 `gorm:"column:pnl_usd" json:"pnl_usd"`
	PnlPercentage float64 `json:"pnl_percentage"`

	TP1Hit   bool       `gorm:"column:tp1_hit" json:"tp1_hit"`
	TP1HitAt *time.Time `gorm:"column:tp1_hit_at" json:"tp1_hit_at"`
	TP2Hit   bool       `gorm:"column:tp2_hit" json:"tp2_hit"`
	TP2HitAt *time.Time `gorm:"column:tp2_hit_at" json:"tp2_hit_at"`
	TP3Hit   bool       `gorm:"column:tp3_hit" json:"tp3_hit"`
	TP3HitAt *time.Time `gorm:"column:tp3_hit_at" json:"tp3_hit_at"`

	Status          SignalStatus `gorm:"type:varchar(20);not null" json:"status"`
	SignalExpiresAt time.Time    `json:"signal_expires_at"`
	ClosedAt        *time.Time   `json:"closed_at"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the TradingSignal model.
func (TradingSignal) TableName() string {
	return "trading_signals"
}

// ExpiryDuration returns how long a signal of the given timeframe stays live.
func ExpiryDuration(timeframe string) time.Duration {
	switch timeframe {
	case "15m":
		return 15 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	default:
		return 24 * time.Hour
	}
}
