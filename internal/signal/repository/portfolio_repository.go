package repository

import (
	"context"

	"crypto-signal-engine/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PortfolioRepository persists daily portfolio rollups.
type PortfolioRepository interface {
	Upsert(ctx context.Context, stat *entity.PortfolioStat) error
	FindByDate(ctx context.Context, date string) (*entity.PortfolioStat, error)
	FindLatest(ctx context.Context) (*entity.PortfolioStat, error)
}

type portfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository creates a new PortfolioRepository.
func NewPortfolioRepository(db *gorm.DB) PortfolioRepository {
	return &portfolioRepository{db: db}
}

// Upsert inserts the day's rollup or overwrites an existing row for the same
// date.
func (r *portfolioRepository) Upsert(ctx context.Context, stat *entity.PortfolioStat) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"starting_capital", "current_capital", "total_trades",
			"winning_trades", "losing_trades", "win_rate",
			"total_profit", "total_loss", "net_profit",
			"profit_factor", "active_positions", "updated_at",
		}),
	}).Create(stat).Error
}

func (r *portfolioRepository) FindByDate(ctx context.Context, date string) (*entity.PortfolioStat, error) {
	var stat entity.PortfolioStat
	if err := r.db.WithContext(ctx).First(&stat, "date = ?", date).Error; err != nil {
		return nil, err
	}
	return &stat, nil
}

func (r *portfolioRepository) FindLatest(ctx context.Context) (*entity.PortfolioStat, error) {
	var stat entity.PortfolioStat
	if err := r.db.WithContext(ctx).Order("date DESC").First(&stat).Error; err != nil {
		return nil, err
	}
	return &stat, nil
}
