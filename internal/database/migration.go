package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/logger"
	"github.com/wfunc/noodle-rush/internal/models"
)

// Models 需要迁移的模型
func Models() []interface{} {
	return []interface{}{
		&models.SaveSlot{},
		&models.DeliveryRun{},
	}
}

// AutoMigrate 自动迁移数据库表结构；SQLite 文件库在迁移锁内执行
func AutoMigrate() error {
	if DB == nil {
		return errors.New(errors.ErrDatabaseConnect, "数据库未初始化")
	}

	if file := sqliteFile(DB); file != "" {
		lock := newMigrationLock(file)
		if err := lock.Acquire(); err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return err
		}
		defer lock.Release()
	}

	logger.Info("开始数据库迁移...")
	if err := Migrate(DB); err != nil {
		return err
	}

	createIndexes(DB)

	logger.Info("数据库迁移完成")
	return nil
}

// Migrate 在指定连接上迁移所有模型（测试使用内存数据库时直接调用）
func Migrate(db *gorm.DB) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}
	return nil
}

// createIndexes 创建数据库索引
func createIndexes(db *gorm.DB) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_delivery_runs_settled_at ON delivery_runs(settled_at)",
		"CREATE INDEX IF NOT EXISTS idx_delivery_runs_total_profit ON delivery_runs(total_profit)",
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", idx), zap.Error(err))
		}
	}
}

// DropAllTables 删除所有表（仅用于测试环境）
func DropAllTables() error {
	if DB == nil {
		return errors.New(errors.ErrDatabaseConnect, "数据库未初始化")
	}

	for _, model := range Models() {
		if err := DB.Migrator().DropTable(model); err != nil {
			logger.Error("删除表失败", zap.String("model", fmt.Sprintf("%T", model)), zap.Error(err))
			return err
		}
	}

	logger.Info("所有表已删除")
	return nil
}
