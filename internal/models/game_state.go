package models

import (
	"time"
)

// 存档槽位的固定键
const (
	SaveKeyCurrent  = "current_save"
	SaveKeySettings = "settings"
	SaveKeyBackup   = "backup"
)

// SaveSlot 存档槽位（不透明的键值存储，Data 为 JSON 文档）
type SaveSlot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:64;not null" json:"key"`
	Data      string    `gorm:"type:text" json:"data"`
	Checksum  string    `gorm:"size:64" json:"checksum"` // Data 的 sha256
	Period    int       `gorm:"default:0" json:"period"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (SaveSlot) TableName() string {
	return "save_slots"
}
