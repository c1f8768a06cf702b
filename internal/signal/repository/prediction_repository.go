package repository

import (
	"context"
	"fmt"
	"time"

	"crypto-signal-engine/internal/entity"

	"gorm.io/gorm"
)

// PredictionRepository persists scoring records and their graded outcomes.
type PredictionRepository interface {
	Create(ctx context.Context, prediction *entity.Prediction) error
	Update(ctx context.Context, prediction *entity.Prediction) error
	FindDueForGrading(ctx context.Context, horizon entity.Horizon, createdFrom, createdTo time.Time, limit int) ([]entity.Prediction, error)
	FindGradedSince(ctx context.Context, coin string, horizon entity.Horizon, since time.Time) ([]entity.Prediction, error)
}

type predictionRepository struct {
	db *gorm.DB
}

// NewPredictionRepository creates a new PredictionRepository.
func NewPredictionRepository(db *gorm.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

func (r *predictionRepository) Create(ctx context.Context, prediction *entity.Prediction) error {
	return r.db.WithContext(ctx).Create(prediction).Error
}

func (r *predictionRepository) Update(ctx context.Context, prediction *entity.Prediction) error {
	return r.db.WithContext(ctx).Save(prediction).Error
}

// FindDueForGrading returns predictions created inside the window whose outcome
// at the given horizon has not been recorded yet, oldest first.
func (r *predictionRepository) FindDueForGrading(ctx context.Context, horizon entity.Horizon, createdFrom, createdTo time.Time, limit int) ([]entity.Prediction, error) {
	var predictions []entity.Prediction
	err := r.db.WithContext(ctx).
		Where("created_at BETWEEN ? AND ?", createdFrom, createdTo).
		Where(fmt.Sprintf("%s IS NULL", actualPriceColumn(horizon))).
		Order("created_at ASC").
		Limit(limit).
		Find(&predictions).Error
	return predictions, err
}

// FindGradedSince returns a coin's graded predictions at the given horizon
// since the cutoff, newest first. Trend analysis relies on this ordering.
func (r *predictionRepository) FindGradedSince(ctx context.Context, coin string, horizon entity.Horizon, since time.Time) ([]entity.Prediction, error) {
	var predictions []entity.Prediction
	err := r.db.WithContext(ctx).
		Where("coin = ?", coin).
		Where("created_at >= ?", since).
		Where(fmt.Sprintf("%s IS NOT NULL", actualPriceColumn(horizon))).
		Order("created_at DESC").
		Find(&predictions).Error
	return predictions, err
}

func actualPriceColumn(horizon entity.Horizon) string {
	switch horizon {
	case entity.Horizon1H:
		return "actual_price_1h"
	case entity.Horizon4H:
		return "actual_price_4h"
	case entity.Horizon24H:
		return "actual_price_24h"
	case entity.Horizon48H:
		return "actual_price_48h"
	case entity.Horizon7D:
		return "actual_price_7d"
	}
	return "actual_price_24h"
}
