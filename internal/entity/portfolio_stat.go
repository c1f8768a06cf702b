package entity

import "time"

// PortfolioStat is the rolled-up trading result for one accounting day.
// There is at most one row per date; rollup upserts it.
type PortfolioStat struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Date            string    `gorm:"type:date;uniqueIndex;not null" json:"date"`
	StartingCapital float64   `json:"starting_capital"`
	CurrentCapital  float64   `json:"current_capital"`
	TotalTrades     int       `json:"total_trades"`
	WinningTrades   int       `json:"winning_trades"`
	LosingTrades    int       `json:"losing_trades"`
	WinRate         float64   `json:"win_rate"`
	TotalProfit     float64   `json:"total_profit"`
	TotalLoss       float64   `json:"total_loss"`
	NetProfit       float64   `json:"net_profit"`
	ProfitFactor    float64   `json:"profit_factor"`
	ActivePositions int       `json:"active_positions"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the PortfolioStat model.
func (PortfolioStat) TableName() string {
	return "portfolio_stats"
}
