package database

import (
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/logger"
)

// migrationLock 存档数据库文件旁的迁移锁文件（<db>.migration.lock）
type migrationLock struct {
	path     string
	file     *os.File
	attempts int
	wait     time.Duration
	staleAge time.Duration
}

func newMigrationLock(dbPath string) *migrationLock {
	return &migrationLock{
		path:     dbPath + ".migration.lock",
		attempts: 30,
		wait:     time.Second,
		staleAge: 5 * time.Minute,
	}
}

// Acquire 独占创建锁文件；超过 staleAge 的遗留锁视为崩溃残留并删除
func (l *migrationLock) Acquire() error {
	for i := 0; i < l.attempts; i++ {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
		if err == nil {
			l.file = f
			logger.Debug("获取迁移锁成功", zap.String("lock", l.path))
			return nil
		}

		if info, statErr := os.Stat(l.path); statErr == nil && time.Since(info.ModTime()) > l.staleAge {
			logger.Warn("迁移锁文件过期，删除后重试", zap.String("lock", l.path))
			os.Remove(l.path)
			continue
		}

		logger.Debug("等待迁移锁...", zap.Int("attempt", i+1))
		time.Sleep(l.wait)
	}

	return errors.Newf(errors.ErrTimeout, "等待迁移锁 %s 超时，可能有其他进程正在迁移", l.path)
}

// Release 释放迁移锁
func (l *migrationLock) Release() {
	if l.file == nil {
		return
	}
	l.file.Close()
	os.Remove(l.path)
	l.file = nil
	logger.Debug("释放迁移锁", zap.String("lock", l.path))
}

// sqliteFile 返回 SQLite 主库文件路径；内存库和其他驱动返回空
func sqliteFile(db *gorm.DB) string {
	if db == nil {
		return ""
	}
	switch db.Dialector.Name() {
	case "sqlite", "sqlite3":
	default:
		return ""
	}

	sqlDB, err := db.DB()
	if err != nil {
		return ""
	}
	var seq int
	var name, file string
	if err := sqlDB.QueryRow("PRAGMA database_list").Scan(&seq, &name, &file); err != nil {
		return ""
	}
	return file
}
