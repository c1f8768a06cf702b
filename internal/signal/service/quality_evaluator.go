package service

import (
	"fmt"

	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/dto"
)

// EvaluateQuality scores a funded signal 0-100 across four independent checks:
// confidence tier (30), risk/reward tier (30), RSI positioning relative to
// direction (20) and volume tier (20). Pure function; the auto-generation path
// uses the rating to gate persistence.
func EvaluateQuality(action string, confidence, riskRewardRatio float64, snapshot *indicator.Snapshot) *dto.SignalQuality {
	score := 0
	var reasons []string

	switch {
	case confidence >= 80:
		score += 30
		reasons = append(reasons, fmt.Sprintf("High confidence (%.0f%%)", confidence))
	case confidence >= 70:
		score += 20
		reasons = append(reasons, fmt.Sprintf("Good confidence (%.0f%%)", confidence))
	case confidence >= 60:
		score += 10
		reasons = append(reasons, fmt.Sprintf("Moderate confidence (%.0f%%)", confidence))
	}

	switch {
	case riskRewardRatio >= 4:
		score += 30
		reasons = append(reasons, fmt.Sprintf("Excellent risk/reward (%.2f)", riskRewardRatio))
	case riskRewardRatio >= 3:
		score += 25
		reasons = append(reasons, fmt.Sprintf("Good risk/reward (%.2f)", riskRewardRatio))
	case riskRewardRatio >= 2:
		score += 15
		reasons = append(reasons, fmt.Sprintf("Acceptable risk/reward (%.2f)", riskRewardRatio))
	}

	switch action {
	case dto.ActionBuy:
		if snapshot.RSI < 35 {
			score += 20
			reasons = append(reasons, fmt.Sprintf("Oversold RSI favors entry (%.1f)", snapshot.RSI))
		} else if snapshot.RSI < 50 {
			score += 10
			reasons = append(reasons, fmt.Sprintf("RSI below midline favors entry (%.1f)", snapshot.RSI))
		}
	case dto.ActionSell:
		if snapshot.RSI > 65 {
			score += 20
			reasons = append(reasons, fmt.Sprintf("Overbought RSI favors entry (%.1f)", snapshot.RSI))
		} else if snapshot.RSI > 50 {
			score += 10
			reasons = append(reasons, fmt.Sprintf("RSI above midline favors entry (%.1f)", snapshot.RSI))
		}
	}

	switch {
	case snapshot.VolumeRatio >= 1.5:
		score += 20
		reasons = append(reasons, fmt.Sprintf("Strong volume (%.2fx average)", snapshot.VolumeRatio))
	case snapshot.VolumeRatio >= 1.0:
		score += 10
		reasons = append(reasons, fmt.Sprintf("Above-average volume (%.2fx)", snapshot.VolumeRatio))
	}

	rating := dto.RatingPoor
	switch {
	case score >= 80:
		rating = dto.RatingExcellent
	case score >= 65:
		rating = dto.RatingGood
	case score >= 50:
		rating = dto.RatingFair
	}

	return &dto.SignalQuality{
		Rating:  rating,
		Score:   score,
		Reasons: reasons,
	}
}

// QualityAdmits reports whether the auto-generation path should persist a
// signal of the given rating.
func QualityAdmits(rating string) bool {
	return rating == dto.RatingExcellent || rating == dto.RatingGood
}
