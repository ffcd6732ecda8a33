package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/wfunc/noodle-rush/internal/game/state"
)

// RecoverySource 启动时文档的来源
type RecoverySource string

const (
	RecoveredCurrent RecoverySource = "current_save"
	RecoveredBackup  RecoverySource = "backup"
	RecoveredNewGame RecoverySource = "new_game"
)

// BackupLoader 可读取备份的存档协作者
type BackupLoader interface {
	state.Persistence
	LoadBackup(ctx context.Context) (*state.Document, error)
}

// RecoveryManager 存档恢复管理器：当前存档 → 备份 → 新游戏
type RecoveryManager struct {
	logger      *zap.Logger
	persistence BackupLoader
	store       *state.Store
}

// NewRecoveryManager 创建恢复管理器
func NewRecoveryManager(logger *zap.Logger, persistence BackupLoader, store *state.Store) *RecoveryManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecoveryManager{
		logger:      logger,
		persistence: persistence,
		store:       store,
	}
}

// Recover 载入存档到状态存储。当前存档损坏时回退到备份，都不可用时开始新游戏。
func (rm *RecoveryManager) Recover(ctx context.Context) RecoverySource {
	doc, err := rm.persistence.Load(ctx)
	if err != nil {
		rm.logger.Warn("当前存档不可用，尝试备份", zap.Error(err))
	} else if doc != nil {
		rm.store.Replace(ctx, doc)
		rm.logger.Info("存档恢复成功",
			zap.String("source", string(RecoveredCurrent)),
			zap.Int("period", doc.GameProgress.CurrentPeriod))
		return RecoveredCurrent
	}

	backup, berr := rm.persistence.LoadBackup(ctx)
	switch {
	case berr != nil:
		rm.logger.Warn("备份存档不可用", zap.Error(berr))
	case backup != nil:
		// 备份写回当前存档
		rm.store.Replace(ctx, backup)
		rm.logger.Info("存档恢复成功",
			zap.String("source", string(RecoveredBackup)),
			zap.Int("period", backup.GameProgress.CurrentPeriod))
		return RecoveredBackup
	}

	rm.store.Reset(ctx)
	rm.logger.Info("没有可用存档，开始新游戏")
	return RecoveredNewGame
}
