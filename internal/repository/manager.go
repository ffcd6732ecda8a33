package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	// 仓储实例（使用懒加载）
	saveSlotOnce sync.Once
	saveSlot     SaveSlotRepository

	deliveryRunOnce sync.Once
	deliveryRun     DeliveryRunRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// GetDB 获取数据库实例
func (m *Manager) GetDB() *gorm.DB {
	return m.db
}

// SaveSlot 获取存档槽位仓储
func (m *Manager) SaveSlot() SaveSlotRepository {
	m.saveSlotOnce.Do(func() {
		m.saveSlot = NewSaveSlotRepository(m.db)
	})
	return m.saveSlot
}

// DeliveryRun 获取配送记录仓储
func (m *Manager) DeliveryRun() DeliveryRunRepository {
	m.deliveryRunOnce.Do(func() {
		m.deliveryRun = NewDeliveryRunRepository(m.db)
	})
	return m.deliveryRun
}
