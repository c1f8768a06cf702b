package dto

import "fmt"

// Signal actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// SignalProposal is a directional proposal produced by a scorer. It is
// ephemeral; the position sizer turns it into a funded signal.
type SignalProposal struct {
	Action         string   `json:"action"`
	Confidence     float64  `json:"confidence"`
	Timeframe      string   `json:"timeframe"`
	EntryPrice     float64  `json:"entry_price"`
	StopLoss       float64  `json:"stop_loss"`
	TakeProfit1    float64  `json:"take_profit_1"`
	TakeProfit2    float64  `json:"take_profit_2"`
	TakeProfit3    float64  `json:"take_profit_3"`
	RiskPercentage float64  `json:"risk_percentage"`
	RiskLevel      string   `json:"risk_level"`
	Reasoning      string   `json:"reasoning"`
	KeyFactors     []string `json:"key_factors"`
}

// Validate checks the proposal against the ordering invariants for its
// direction. HOLD proposals carry no actionable levels and always pass the
// ordering check.
func (p *SignalProposal) Validate() error {
	switch p.Action {
	case ActionBuy, ActionSell, ActionHold:
	default:
		return fmt.Errorf("invalid action: %q", p.Action)
	}

	if p.Confidence < 0 || p.Confidence > 100 {
		return fmt.Errorf("confidence out of range: %.2f", p.Confidence)
	}

	if p.Action == ActionHold {
		return nil
	}

	if p.EntryPrice <= 0 || p.StopLoss <= 0 || p.TakeProfit1 <= 0 || p.TakeProfit2 <= 0 || p.TakeProfit3 <= 0 {
		return fmt.Errorf("missing price levels")
	}

	switch p.Action {
	case ActionBuy:
		if !(p.StopLoss < p.EntryPrice && p.EntryPrice < p.TakeProfit1 && p.TakeProfit1 < p.TakeProfit2 && p.TakeProfit2 < p.TakeProfit3) {
			return fmt.Errorf("invalid BUY price ordering: sl=%.4f entry=%.4f tp=%.4f/%.4f/%.4f",
				p.StopLoss, p.EntryPrice, p.TakeProfit1, p.TakeProfit2, p.TakeProfit3)
		}
	case ActionSell:
		if !(p.StopLoss > p.EntryPrice && p.EntryPrice > p.TakeProfit1 && p.TakeProfit1 > p.TakeProfit2 && p.TakeProfit2 > p.TakeProfit3) {
			return fmt.Errorf("invalid SELL price ordering: sl=%.4f entry=%.4f tp=%.4f/%.4f/%.4f",
				p.StopLoss, p.EntryPrice, p.TakeProfit1, p.TakeProfit2, p.TakeProfit3)
		}
	}

	return nil
}

// PerformanceSummary is the derived view of past prediction accuracy fed back
// into the scorer.
type PerformanceSummary struct {
	TotalPredictions   int      `json:"total_predictions"`
	CorrectPredictions int      `json:"correct_predictions"`
	WinRate            float64  `json:"win_rate"`
	AvgProfit          float64  `json:"avg_profit"`
	AvgLoss            float64  `json:"avg_loss"`
	TotalProfit        float64  `json:"total_profit"`
	TotalLoss          float64  `json:"total_loss"`
	ProfitFactor       float64  `json:"profit_factor"`
	CommonMistakes     []string `json:"common_mistakes"`
	BestConditions     []string `json:"best_conditions"`
	RecentTrend        string   `json:"recent_trend"`
}

// Recent trend values.
const (
	TrendImproving = "IMPROVING"
	TrendDeclining = "DECLINING"
	TrendStable    = "STABLE"
)

// EmptyPerformanceSummary is the valid default for a coin with no graded
// history.
func EmptyPerformanceSummary() *PerformanceSummary {
	return &PerformanceSummary{
		RecentTrend:    TrendStable,
		CommonMistakes: []string{},
		BestConditions: []string{},
	}
}

// SignalQuality is the post-hoc rating of a funded signal.
type SignalQuality struct {
	Rating  string   `json:"rating"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Quality ratings.
const (
	RatingExcellent = "EXCELLENT"
	RatingGood      = "GOOD"
	RatingFair      = "FAIR"
	RatingPoor      = "POOR"
)
