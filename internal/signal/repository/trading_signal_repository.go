package repository

import (
	"context"

	"crypto-signal-engine/internal/entity"

	"gorm.io/gorm"
)

// TradingSignalRepository persists funded signals.
type TradingSignalRepository interface {
	Create(ctx context.Context, signal *entity.TradingSignal) error
	Update(ctx context.Context, signal *entity.TradingSignal) error
	FindByID(ctx context.Context, id string) (*entity.TradingSignal, error)
	FindActive(ctx context.Context, coin string) ([]entity.TradingSignal, error)
	FindCompleted(ctx context.Context, limit int) ([]entity.TradingSignal, error)
	FindTerminal(ctx context.Context) ([]entity.TradingSignal, error)
	CountActiveByCoin(ctx context.Context, coin string) (int64, error)
}

type tradingSignalRepository struct {
	db *gorm.DB
}

// NewTradingSignalRepository creates a new TradingSignalRepository.
func NewTradingSignalRepository(db *gorm.DB) TradingSignalRepository {
	return &tradingSignalRepository{db: db}
}

func (r *tradingSignalRepository) Create(ctx context.Context, signal *entity.TradingSignal) error {
	return r.db.WithContext(ctx).Create(signal).Error
}

func (r *tradingSignalRepository) Update(ctx context.Context, signal *entity.TradingSignal) error {
	return r.db.WithContext(ctx).Save(signal).Error
}

func (r *tradingSignalRepository) FindByID(ctx context.Context, id string) (*entity.TradingSignal, error) {
	var signal entity.TradingSignal
	if err := r.db.WithContext(ctx).First(&signal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &signal, nil
}

func (r *tradingSignalRepository) FindActive(ctx context.Context, coin string) ([]entity.TradingSignal, error) {
	var signals []entity.TradingSignal
	query := r.db.WithContext(ctx).Where("status IN ?", entity.ActiveStatuses())
	if coin != "" {
		query = query.Where("coin = ?", coin)
	}
	err := query.Order("created_at DESC").Find(&signals).Error
	return signals, err
}

func (r *tradingSignalRepository) FindCompleted(ctx context.Context, limit int) ([]entity.TradingSignal, error) {
	var signals []entity.TradingSignal
	err := r.db.WithContext(ctx).
		Where("status IN ?", entity.TerminalStatuses()).
		Order("closed_at DESC").
		Limit(limit).
		Find(&signals).Error
	return signals, err
}

func (r *tradingSignalRepository) FindTerminal(ctx context.Context) ([]entity.TradingSignal, error) {
	var signals []entity.TradingSignal
	err := r.db.WithContext(ctx).
		Where("status IN ?", entity.TerminalStatuses()).
		Find(&signals).Error
	return signals, err
}

func (r *tradingSignalRepository) CountActiveByCoin(ctx context.Context, coin string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.TradingSignal{}).
		Where("coin = ? AND status IN ?", coin, entity.ActiveStatuses()).
		Count(&count).Error
	return count, err
}
