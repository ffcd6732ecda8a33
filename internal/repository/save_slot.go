package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/wfunc/noodle-rush/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSlotNotFound 存档槽位不存在
var ErrSlotNotFound = errors.New("存档槽位不存在")

// ErrChecksumMismatch 存档内容与校验和不一致
var ErrChecksumMismatch = errors.New("存档校验和不一致")

// SaveSlotRepository 存档槽位仓储接口
type SaveSlotRepository interface {
	BaseRepository
	Get(ctx context.Context, key string) (*models.SaveSlot, error)
	Put(ctx context.Context, key string, data []byte, period int) error
	Exists(ctx context.Context, key string) (bool, error)
	Copy(ctx context.Context, fromKey, toKey string) error
	Delete(ctx context.Context, key string) error
}

// saveSlotRepo 存档槽位仓储实现
type saveSlotRepo struct {
	*BaseRepo
}

// NewSaveSlotRepository 创建存档槽位仓储
func NewSaveSlotRepository(db *gorm.DB) SaveSlotRepository {
	return &saveSlotRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Checksum 计算存档数据的校验和
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get 读取存档，校验和不一致时返回 ErrChecksumMismatch
func (r *saveSlotRepo) Get(ctx context.Context, key string) (*models.SaveSlot, error) {
	var slot models.SaveSlot
	err := r.db.WithContext(ctx).
		Where(&models.SaveSlot{Key: key}).
		First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}

	if slot.Checksum != "" && slot.Checksum != Checksum([]byte(slot.Data)) {
		return &slot, ErrChecksumMismatch
	}
	return &slot, nil
}

// Put 写入存档（创建或覆盖）
func (r *saveSlotRepo) Put(ctx context.Context, key string, data []byte, period int) error {
	slot := &models.SaveSlot{
		Key:      key,
		Data:     string(data),
		Checksum: Checksum(data),
		Period:   period,
	}

	// 使用 ON CONFLICT 策略
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "checksum", "period", "updated_at"}),
		}).
		Create(slot).Error
}

// Exists 判断存档是否存在
func (r *saveSlotRepo) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SaveSlot{}).
		Where(&models.SaveSlot{Key: key}).
		Count(&count).Error
	return count > 0, err
}

// Copy 复制存档到另一个槽位（用于备份）
func (r *saveSlotRepo) Copy(ctx context.Context, fromKey, toKey string) error {
	return r.withTx(ctx, func(tx *BaseRepo) error {
		txRepo := &saveSlotRepo{BaseRepo: tx}
		src, err := txRepo.Get(ctx, fromKey)
		if err != nil {
			return err
		}
		return txRepo.Put(ctx, toKey, []byte(src.Data), src.Period)
	})
}

// Delete 删除存档
func (r *saveSlotRepo) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where(&models.SaveSlot{Key: key}).
		Delete(&models.SaveSlot{}).Error
}
