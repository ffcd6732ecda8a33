package repository

import (
	"context"
	"errors"

	"github.com/wfunc/noodle-rush/internal/models"
	"gorm.io/gorm"
)

// DeliveryRunRepository 配送记录仓储接口
type DeliveryRunRepository interface {
	BaseRepository
	Create(ctx context.Context, run *models.DeliveryRun) error
	FindByRunID(ctx context.Context, runID string) (*models.DeliveryRun, error)
	List(ctx context.Context, p *Pagination) ([]*models.DeliveryRun, error)
	FindByPeriodRange(ctx context.Context, from, to int) ([]*models.DeliveryRun, error)
	GetSummary(ctx context.Context) (*RunSummary, error)
	DeleteAll(ctx context.Context) error
}

// RunSummary 配送记录汇总
type RunSummary struct {
	TotalRuns      int64   `json:"total_runs"`
	ProfitableRuns int64   `json:"profitable_runs"`
	TotalProfit    int64   `json:"total_profit"`
	BestProfit     int64   `json:"best_profit"`
	WorstProfit    int64   `json:"worst_profit"`
	AverageProfit  float64 `json:"average_profit"`
	TotalEvents    int64   `json:"total_events"`
}

// deliveryRunRepo 配送记录仓储实现
type deliveryRunRepo struct {
	*BaseRepo
}

// NewDeliveryRunRepository 创建配送记录仓储
func NewDeliveryRunRepository(db *gorm.DB) DeliveryRunRepository {
	return &deliveryRunRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建配送记录
func (r *deliveryRunRepo) Create(ctx context.Context, run *models.DeliveryRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// FindByRunID 根据运行ID查找
func (r *deliveryRunRepo) FindByRunID(ctx context.Context, runID string) (*models.DeliveryRun, error) {
	var run models.DeliveryRun
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List 分页查询，最新的在前
func (r *deliveryRunRepo) List(ctx context.Context, p *Pagination) ([]*models.DeliveryRun, error) {
	var runs []*models.DeliveryRun

	// 查询总数
	if err := r.db.WithContext(ctx).
		Model(&models.DeliveryRun{}).
		Count(&p.Total).Error; err != nil {
		return nil, err
	}

	err := r.db.WithContext(ctx).
		Order("period desc, id desc").
		Scopes(Paginate(p)).
		Find(&runs).Error
	return runs, err
}

// FindByPeriodRange 查询周期区间 [from, to] 内的记录
func (r *deliveryRunRepo) FindByPeriodRange(ctx context.Context, from, to int) ([]*models.DeliveryRun, error) {
	var runs []*models.DeliveryRun
	err := r.db.WithContext(ctx).
		Where("period >= ? AND period <= ?", from, to).
		Order("period asc").
		Find(&runs).Error
	return runs, err
}

// GetSummary 汇总所有配送记录
func (r *deliveryRunRepo) GetSummary(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{}

	err := r.db.WithContext(ctx).
		Model(&models.DeliveryRun{}).
		Select(`COUNT(*) as total_runs,
			COALESCE(SUM(CASE WHEN total_profit > 0 THEN 1 ELSE 0 END), 0) as profitable_runs,
			COALESCE(SUM(total_profit), 0) as total_profit,
			COALESCE(MAX(total_profit), 0) as best_profit,
			COALESCE(MIN(total_profit), 0) as worst_profit,
			COALESCE(SUM(event_count), 0) as total_events`).
		Scan(summary).Error
	if err != nil {
		return nil, err
	}

	if summary.TotalRuns > 0 {
		summary.AverageProfit = float64(summary.TotalProfit) / float64(summary.TotalRuns)
	}
	return summary, nil
}

// DeleteAll 删除所有记录（新游戏时调用）
func (r *deliveryRunRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Unscoped().
		Delete(&models.DeliveryRun{}).Error
}
