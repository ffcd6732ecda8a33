package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/noodle-rush/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 创建测试数据库（内存SQLite，每个测试独立）
func TestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.SaveSlot{},
		&models.DeliveryRun{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		CleanupTestDB(db)
	})
	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// CreateTestDeliveryRun 创建测试配送记录
func CreateTestDeliveryRun(period int, profit int64, events int) *models.DeliveryRun {
	return &models.DeliveryRun{
		RunID:           uuid.NewString(),
		Period:          period,
		RestaurantCount: 1,
		EventCount:      events,
		ForecastProfit:  profit,
		TotalProfit:     profit,
		RankBefore:      200,
		RankAfter:       200,
		SettledAt:       time.Now(),
	}
}
