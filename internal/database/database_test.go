package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/noodle-rush/internal/config"
	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/models"
)

func TestInit_UnsupportedDriver(t *testing.T) {
	err := Init(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestInitAndAutoMigrate_SQLiteFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "data", "test.db")
	err := Init(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	defer Close()

	assert.True(t, IsConnected())
	require.NoError(t, AutoMigrate())

	assert.True(t, GetDB().Migrator().HasTable(&models.SaveSlot{}))
	assert.True(t, GetDB().Migrator().HasTable(&models.DeliveryRun{}))

	require.NoError(t, DropAllTables())
	assert.False(t, GetDB().Migrator().HasTable(&models.SaveSlot{}))
}

func TestMigrate_InMemory(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable("save_slots"))
	assert.True(t, db.Migrator().HasTable("delivery_runs"))
}

func TestGormLogger_LogModeReturnsCopy(t *testing.T) {
	l := NewGormLogger(nil, gormlogger.Warn)
	silent := l.LogMode(gormlogger.Silent)

	assert.Equal(t, gormlogger.Warn, l.logLevel)
	assert.Equal(t, gormlogger.Silent, silent.(*GormLogger).logLevel)
}

func TestMigrationLock_AcquireRelease(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "save.db")
	lock := newMigrationLock(dbPath)

	require.NoError(t, lock.Acquire())
	assert.FileExists(t, dbPath+".migration.lock")

	lock.Release()
	assert.NoFileExists(t, dbPath+".migration.lock")

	// 重复释放无副作用
	lock.Release()
}

func TestMigrationLock_ContentionTimesOut(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "save.db")
	holder := newMigrationLock(dbPath)
	require.NoError(t, holder.Acquire())
	defer holder.Release()

	waiter := newMigrationLock(dbPath)
	waiter.attempts = 2
	waiter.wait = 10 * time.Millisecond

	err := waiter.Acquire()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTimeout))
}

func TestMigrationLock_StaleLockRemoved(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "save.db")
	lockPath := dbPath + ".migration.lock"
	require.NoError(t, os.WriteFile(lockPath, nil, 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	lock := newMigrationLock(dbPath)
	lock.attempts = 2
	lock.wait = 10 * time.Millisecond
	require.NoError(t, lock.Acquire())
	lock.Release()
}

func TestSQLiteFile(t *testing.T) {
	assert.Empty(t, sqliteFile(nil))

	mem, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	assert.Empty(t, sqliteFile(mem))

	dbPath := filepath.Join(t.TempDir(), "file.db")
	fileDB, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	require.NoError(t, err)
	assert.Equal(t, dbPath, sqliteFile(fileDB))
}

func TestAutoMigrate_NotInitialized(t *testing.T) {
	saved := DB
	DB = nil
	defer func() { DB = saved }()

	err := AutoMigrate()
	assert.True(t, errors.Is(err, errors.ErrDatabaseConnect))
}
