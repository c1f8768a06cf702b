package service

import (
	"testing"

	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/dto"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateQuality(t *testing.T) {
	tests := []struct {
		name        string
		action      string
		confidence  float64
		riskReward  float64
		rsi         float64
		volumeRatio float64
		wantScore   int
		wantRating  string
	}{
		{
			name:   "all checks maxed",
			action: dto.ActionBuy, confidence: 85, riskReward: 4.5, rsi: 30, volumeRatio: 1.6,
			wantScore: 100, wantRating: dto.RatingExcellent,
		},
		{
			name:   "excellent at the 80 boundary",
			action: dto.ActionBuy, confidence: 80, riskReward: 4, rsi: 55, volumeRatio: 1.5,
			wantScore: 80, wantRating: dto.RatingExcellent,
		},
		{
			name:   "good at the 65 boundary",
			action: dto.ActionBuy, confidence: 70, riskReward: 3, rsi: 45, volumeRatio: 1.2,
			wantScore: 65, wantRating: dto.RatingGood,
		},
		{
			name:   "fair",
			action: dto.ActionBuy, confidence: 60, riskReward: 3, rsi: 30, volumeRatio: 0.5,
			wantScore: 55, wantRating: dto.RatingFair,
		},
		{
			name:   "poor when nothing scores",
			action: dto.ActionBuy, confidence: 40, riskReward: 1, rsi: 55, volumeRatio: 0.5,
			wantScore: 0, wantRating: dto.RatingPoor,
		},
		{
			name:   "sell direction uses overbought rsi",
			action: dto.ActionSell, confidence: 85, riskReward: 4, rsi: 70, volumeRatio: 1.5,
			wantScore: 100, wantRating: dto.RatingExcellent,
		},
		{
			name:   "sell above midline gets the smaller rsi bonus",
			action: dto.ActionSell, confidence: 85, riskReward: 4, rsi: 55, volumeRatio: 1.5,
			wantScore: 90, wantRating: dto.RatingExcellent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := &indicator.Snapshot{RSI: tt.rsi, VolumeRatio: tt.volumeRatio}
			quality := EvaluateQuality(tt.action, tt.confidence, tt.riskReward, snapshot)

			assert.Equal(t, tt.wantScore, quality.Score)
			assert.Equal(t, tt.wantRating, quality.Rating)
		})
	}
}

func TestQualityAdmits(t *testing.T) {
	assert.True(t, QualityAdmits(dto.RatingExcellent))
	assert.True(t, QualityAdmits(dto.RatingGood))
	assert.False(t, QualityAdmits(dto.RatingFair))
	assert.False(t, QualityAdmits(dto.RatingPoor))
}
