package entity

import (
	"time"

	"github.com/lib/pq"
)

// PerformanceMetric is the per-day, per-coin, per-horizon rollup of prediction
// accuracy, refreshed after every grading pass.
type PerformanceMetric struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Date               string         `gorm:"type:date;not null;uniqueIndex:idx_perf_date_coin_horizon" json:"date"`
	Coin               string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_perf_date_coin_horizon" json:"coin"`
	Horizon            Horizon        `gorm:"type:varchar(10);not null;uniqueIndex:idx_perf_date_coin_horizon" json:"horizon"`
	TotalPredictions   int            `json:"total_predictions"`
	CorrectPredictions int            `json:"correct_predictions"`
	WinRate            float64        `json:"win_rate"`
	TotalProfit        float64        `json:"total_profit"`
	TotalLoss          float64        `json:"total_loss"`
	AvgProfit          float64        `json:"avg_profit"`
	AvgLoss            float64        `json:"avg_loss"`
	ProfitFactor       float64        `json:"profit_factor"`
	CommonMistakes     pq.StringArray `gorm:"type:text[]" json:"common_mistakes"`
	BestConditions     pq.StringArray `gorm:"type:text[]" json:"best_conditions"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the PerformanceMetric model.
func (PerformanceMetric) TableName() string {
	return "performance_metrics"
}
