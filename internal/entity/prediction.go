package entity

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Horizon is a fixed offset at which a prediction is graded against the market.
type Horizon string

const (
	Horizon1H  Horizon = "1h"
	Horizon4H  Horizon = "4h"
	Horizon24H Horizon = "24h"
	Horizon48H Horizon = "48h"
	Horizon7D  Horizon = "7d"
)

// AllHorizons returns every grading horizon in ascending order.
func AllHorizons() []Horizon {
	return []Horizon{Horizon1H, Horizon4H, Horizon24H, Horizon48H, Horizon7D}
}

// ParseHorizon validates a horizon name.
func ParseHorizon(s string) (Horizon, error) {
	switch Horizon(s) {
	case Horizon1H, Horizon4H, Horizon24H, Horizon48H, Horizon7D:
		return Horizon(s), nil
	}
	return "", fmt.Errorf("invalid horizon: %q", s)
}

// Offset returns the duration after creation at which the horizon is due.
func (h Horizon) Offset() time.Duration {
	switch h {
	case Horizon1H:
		return time.Hour
	case Horizon4H:
		return 4 * time.Hour
	case Horizon24H:
		return 24 * time.Hour
	case Horizon48H:
		return 48 * time.Hour
	case Horizon7D:
		return 7 * 24 * time.Hour
	}
	return 0
}

// PredictionOutcome is the graded result of a prediction at one horizon.
type PredictionOutcome struct {
	ActualPrice float64 `json:"actual_price"`
	ProfitLoss  float64 `json:"profit_loss"`
	IsCorrect   bool    `json:"is_correct"`
}

// Prediction is a lightweight record of a single signal-generation call, graded
// independently at each horizon and used only by the self-learning loop.
type Prediction struct {
	ID             string  `gorm:"type:uuid;primaryKey" json:"id"`
	Coin           string  `gorm:"type:varchar(20);not null" json:"coin"`
	Price          float64 `json:"price"`
	Volume         float64 `json:"volume"`
	RSI            float64 `json:"rsi"`
	MACD           float64 `json:"macd"`
	BTCDominance   float64 `gorm:"column:btc_dominance" json:"btc_dominance"`
	PriceChange24h float64 `json:"price_change_24h"`

	Action      string  `gorm:"type:varchar(10);not null" json:"action"`
	Confidence  float64 `json:"confidence"`
	EntryPrice  float64 `json:"entry_price"`
	TargetPrice float64 `json:"target_price"`
	StopLoss    float64 `json:"stop_loss"`
	Reasoning   string  `gorm:"type:text" json:"reasoning"`
	RiskLevel   string  `gorm:"type:varchar(10)" json:"risk_level"`

	Snapshot datatypes.JSON `gorm:"type:jsonb" json:"snapshot"`

	ActualPrice1H  *float64 `gorm:"column:actual_price_1h" json:"actual_price_1h"`
	ProfitLoss1H   *float64 `gorm:"column:profit_loss_1h" json:"profit_loss_1h"`
	IsCorrect1H    *bool    `gorm:"column:is_correct_1h" json:"is_correct_1h"`
	ActualPrice4H  *float64 `gorm:"column:actual_price_4h" json:"actual_price_4h"`
	ProfitLoss4H   *float64 `gorm:"column:profit_loss_4h" json:"profit_loss_4h"`
	IsCorrect4H    *bool    `gorm:"column:is_correct_4h" json:"is_correct_4h"`
	ActualPrice24H *float64 `gorm:"column:actual_price_24h" json:"actual_price_24h"`
	ProfitLoss24H  *float64 `gorm:"column:profit_loss_24h" json:"profit_loss_24h"`
	IsCorrect24H   *bool    `gorm:"column:is_correct_24h" json:"is_correct_24h"`
	ActualPrice48H *float64 `gorm:"column:actual_price_48h" json:"actual_price_48h"`
	ProfitLoss48H  *float64 `gorm:"column:profit_loss_48h" json:"profit_loss_48h"`
	IsCorrect48H   *bool    `gorm:"column:is_correct_48h" json:"is_correct_48h"`
	ActualPrice7D  *float64 `gorm:"column:actual_price_7d" json:"actual_price_7d"`
	ProfitLoss7D   *float64 `gorm:"column:profit_loss_7d" json:"profit_loss_7d"`
	IsCorrect7D    *bool    `gorm:"column:is_correct_7d" json:"is_correct_7d"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Prediction model.
func (Prediction) TableName() string {
	return "predictions"
}

// Outcome returns the graded outcome at the given horizon, if any.
func (p *Prediction) Outcome(h Horizon) (PredictionOutcome, bool) {
	var price, pl *float64
	var correct *bool

	switch h {
	case Horizon1H:
		price, pl, correct = p.ActualPrice1H, p.ProfitLoss1H, p.IsCorrect1H
	case Horizon4H:
		price, pl, correct = p.ActualPrice4H, p.ProfitLoss4H, p.IsCorrect4H
	case Horizon24H:
		price, pl, correct = p.ActualPrice24H, p.ProfitLoss24H, p.IsCorrect24H
	case Horizon48H:
		price, pl, correct = p.ActualPrice48H, p.ProfitLoss48H, p.IsCorrect48H
	case Horizon7D:
		price, pl, correct = p.ActualPrice7D, p.ProfitLoss7D, p.IsCorrect7D
	}

	if price == nil || pl == nil || correct == nil {
		return PredictionOutcome{}, false
	}
	return PredictionOutcome{ActualPrice: *price, ProfitLoss: *pl, IsCorrect: *correct}, true
}

// SetOutcome writes the outcome for one horizon. Grading an already-graded
// horizon overwrites it; other horizons are untouched.
func (p *Prediction) SetOutcome(h Horizon, o PredictionOutcome) {
	price, pl, correct := o.ActualPrice, o.ProfitLoss, o.IsCorrect

	switch h {
	case Horizon1H:
		p.ActualPrice1H, p.ProfitLoss1H, p.IsCorrect1H = &price, &pl, &correct
	case Horizon4H:
		p.ActualPrice4H, p.ProfitLoss4H, p.IsCorrect4H = &price, &pl, &correct
	case Horizon24H:
		p.ActualPrice24H, p.ProfitLoss24H, p.IsCorrect24H = &price, &pl, &correct
	case Horizon48H:
		p.ActualPrice48H, p.ProfitLoss48H, p.IsCorrect48H = &price, &pl, &correct
	case Horizon7D:
		p.ActualPrice7D, p.ProfitLoss7D, p.IsCorrect7D = &price, &pl, &correct
	}
}
