package game

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game/delivery"
	"github.com/wfunc/noodle-rush/internal/game/settlement"
	"github.com/wfunc/noodle-rush/internal/game/state"
	"github.com/wfunc/noodle-rush/internal/models"
	"github.com/wfunc/noodle-rush/internal/repository"
)

// BlobPersistence 基于存档槽位表的存档协作者，固定键：current_save、settings、backup
type BlobPersistence struct {
	slots    repository.SaveSlotRepository
	defaults state.Settings
	logger   *zap.Logger
}

// NewBlobPersistence 创建数据库存档
func NewBlobPersistence(slots repository.SaveSlotRepository, defaults state.Settings, logger *zap.Logger) *BlobPersistence {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlobPersistence{
		slots:    slots,
		defaults: defaults,
		logger:   logger,
	}
}

// Load 读取当前存档，不存在时返回 (nil, nil)
func (p *BlobPersistence) Load(ctx context.Context) (*state.Document, error) {
	return p.load(ctx, models.SaveKeyCurrent)
}

// LoadBackup 读取备份存档
func (p *BlobPersistence) LoadBackup(ctx context.Context) (*state.Document, error) {
	return p.load(ctx, models.SaveKeyBackup)
}

func (p *BlobPersistence) load(ctx context.Context, key string) (*state.Document, error) {
	slot, err := p.slots.Get(ctx, key)
	switch {
	case stderrors.Is(err, repository.ErrSlotNotFound):
		return nil, nil
	case stderrors.Is(err, repository.ErrChecksumMismatch):
		return nil, errors.Wrapf(err, errors.ErrSaveCorrupted, "存档 %s 校验失败", key)
	case err != nil:
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	doc, err := state.Unmarshal([]byte(slot.Data))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSaveCorrupted, "存档 %s 解析失败", key)
	}
	return doc, nil
}

// Save 写入当前存档
func (p *BlobPersistence) Save(ctx context.Context, doc *state.Document) error {
	data, err := state.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrPersistence)
	}
	if err := p.slots.Put(ctx, models.SaveKeyCurrent, data, doc.GameProgress.CurrentPeriod); err != nil {
		return errors.Wrap(err, errors.ErrPersistence)
	}
	return nil
}

// Backup 将当前存档复制到备份槽位，没有当前存档时不做任何事
func (p *BlobPersistence) Backup(ctx context.Context) error {
	err := p.slots.Copy(ctx, models.SaveKeyCurrent, models.SaveKeyBackup)
	if stderrors.Is(err, repository.ErrSlotNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrPersistence, "备份失败")
	}
	return nil
}

// HasSave 是否存在当前存档
func (p *BlobPersistence) HasSave(ctx context.Context) (bool, error) {
	return p.slots.Exists(ctx, models.SaveKeyCurrent)
}

// Delete 删除当前存档与备份
func (p *BlobPersistence) Delete(ctx context.Context) error {
	if err := p.slots.Delete(ctx, models.SaveKeyCurrent); err != nil {
		return err
	}
	return p.slots.Delete(ctx, models.SaveKeyBackup)
}

// LoadSettings 读取设置，未保存或损坏时返回默认值
func (p *BlobPersistence) LoadSettings(ctx context.Context) (state.Settings, error) {
	slot, err := p.slots.Get(ctx, models.SaveKeySettings)
	if stderrors.Is(err, repository.ErrSlotNotFound) {
		return p.defaults, nil
	}
	if err != nil {
		return p.defaults, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	s := p.defaults
	if err := json.Unmarshal([]byte(slot.Data), &s); err != nil {
		p.logger.Warn("设置解析失败，使用默认设置", zap.Error(err))
		return p.defaults, nil
	}
	return s, nil
}

// SaveSettings 保存设置
func (p *BlobPersistence) SaveSettings(ctx context.Context, s state.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, errors.ErrPersistence)
	}
	if err := p.slots.Put(ctx, models.SaveKeySettings, data, 0); err != nil {
		return errors.Wrap(err, errors.ErrPersistence)
	}
	return nil
}

// RunRecorder 将已结算的配送写入 delivery_runs 表
type RunRecorder struct {
	runs repository.DeliveryRunRepository
}

// NewRunRecorder 创建配送记录器
func NewRunRecorder(runs repository.DeliveryRunRepository) *RunRecorder {
	return &RunRecorder{runs: runs}
}

// Record 保存一次配送记录
func (r *RunRecorder) Record(ctx context.Context, result *delivery.Result, outcome settlement.Outcome) error {
	restaurants := make([]interface{}, 0, len(result.Restaurants))
	for _, rr := range result.Restaurants {
		restaurants = append(restaurants, map[string]interface{}{
			"id":                rr.ID,
			"name":              rr.Name,
			"forecasted_profit": rr.ForecastedProfit,
			"actual_profit":     rr.ActualProfit,
			"events":            len(rr.Events),
		})
	}

	run := &models.DeliveryRun{
		RunID:           result.RunID,
		Period:          outcome.Period,
		RestaurantCount: len(result.Restaurants),
		EventCount:      result.EventCount(),
		ForecastProfit:  result.TotalForecast,
		TotalProfit:     outcome.TotalProfit,
		RankBefore:      outcome.RankBefore,
		RankAfter:       outcome.RankAfter,
		BurnoutDelta:    outcome.BurnoutDelta,
		TotalBalance:    outcome.NewTotalBalance,
		Details: models.JSONMap{
			"restaurants":     restaurants,
			"positive_events": result.PositiveEvents,
			"negative_events": result.NegativeEvents,
			"burnout_after":   outcome.BurnoutAfter,
		},
		SettledAt: time.Now(),
	}
	if err := r.runs.Create(ctx, run); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert)
	}
	return nil
}
