package repository

import (
	"context"

	"crypto-signal-engine/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PerformanceMetricRepository persists per-day, per-coin, per-horizon accuracy
// rollups.
type PerformanceMetricRepository interface {
	Upsert(ctx context.Context, metric *entity.PerformanceMetric) error
	Find(ctx context.Context, date, coin string, horizon entity.Horizon) (*entity.PerformanceMetric, error)
	FindByCoin(ctx context.Context, coin string, limit int) ([]entity.PerformanceMetric, error)
}

type performanceMetricRepository struct {
	db *gorm.DB
}

// NewPerformanceMetricRepository creates a new PerformanceMetricRepository.
func NewPerformanceMetricRepository(db *gorm.DB) PerformanceMetricRepository {
	return &performanceMetricRepository{db: db}
}

func (r *performanceMetricRepository) Upsert(ctx context.Context, metric *entity.PerformanceMetric) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "coin"}, {Name: "horizon"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_predictions", "correct_predictions", "win_rate",
			"total_profit", "total_loss", "avg_profit", "avg_loss",
			"profit_factor", "common_mistakes", "best_conditions", "updated_at",
		}),
	}).Create(metric).Error
}

func (r *performanceMetricRepository) Find(ctx context.Context, date, coin string, horizon entity.Horizon) (*entity.PerformanceMetric, error) {
	var metric entity.PerformanceMetric
	err := r.db.WithContext(ctx).
		First(&metric, "date = ? AND coin = ? AND horizon = ?", date, coin, horizon).Error
	if err != nil {
		return nil, err
	}
	return &metric, nil
}

func (r *performanceMetricRepository) FindByCoin(ctx context.Context, coin string, limit int) ([]entity.PerformanceMetric, error) {
	var metrics []entity.PerformanceMetric
	err := r.db.WithContext(ctx).
		Where("coin = ?", coin).
		Order("date DESC").
		Limit(limit).
		Find(&metrics).Error
	return metrics, err
}
