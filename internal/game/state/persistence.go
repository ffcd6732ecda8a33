package state

import (
	"context"
	"encoding/json"
	"sync"
)

// Persistence 存档协作者（不透明的键值存储）
type Persistence interface {
	// Load 读取当前存档，不存在时返回 (nil, nil)
	Load(ctx context.Context) (*Document, error)
	// Save 写入当前存档
	Save(ctx context.Context, doc *Document) error
	// Backup 将当前存档复制到备份槽位
	Backup(ctx context.Context) error
	// HasSave 是否存在当前存档
	HasSave(ctx context.Context) (bool, error)
}

// Settings 玩家设置
type Settings struct {
	MasterVolume     float64 `json:"master_volume"`
	MusicVolume      float64 `json:"music_volume"`
	SfxVolume        float64 `json:"sfx_volume"`
	AutosaveEnabled  bool    `json:"autosave_enabled"`
	AutosaveInterval int     `json:"autosave_interval"`
}

// DefaultSettings 默认设置
func DefaultSettings() Settings {
	return Settings{
		MasterVolume:     0.8,
		MusicVolume:      0.6,
		SfxVolume:        0.7,
		AutosaveEnabled:  true,
		AutosaveInterval: 5,
	}
}

// SettingsStore 设置协作者
type SettingsStore interface {
	LoadSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}

// Marshal 序列化文档
func Marshal(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

// Unmarshal 反序列化并修复文档
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	Normalize(&doc)
	return &doc, nil
}

// MemoryPersistence 内存存档（用于测试）
type MemoryPersistence struct {
	mu       sync.Mutex
	current  []byte
	backup   []byte
	settings *Settings

	// SaveErr 不为 nil 时 Save 返回该错误
	SaveErr error
	// BackupErr 不为 nil 时 Backup 返回该错误
	BackupErr error

	saves   int
	backups int
}

// NewMemoryPersistence 创建内存存档
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

// Load 读取当前存档
func (p *MemoryPersistence) Load(ctx context.Context) (*Document, error) {
	p.mu.Lock()
	data := p.current
	p.mu.Unlock()

	if data == nil {
		return nil, nil
	}
	return Unmarshal(data)
}

// Save 写入当前存档
func (p *MemoryPersistence) Save(ctx context.Context, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SaveErr != nil {
		return p.SaveErr
	}
	p.current = data
	p.saves++
	return nil
}

// Backup 复制当前存档到备份
func (p *MemoryPersistence) Backup(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.BackupErr != nil {
		return p.BackupErr
	}
	if p.current == nil {
		return nil
	}
	p.backup = append([]byte(nil), p.current...)
	p.backups++
	return nil
}

// HasSave 是否存在当前存档
func (p *MemoryPersistence) HasSave(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil, nil
}

// LoadBackup 读取备份存档
func (p *MemoryPersistence) LoadBackup(ctx context.Context) (*Document, error) {
	p.mu.Lock()
	data := p.backup
	p.mu.Unlock()

	if data == nil {
		return nil, nil
	}
	return Unmarshal(data)
}

// SetRaw 直接写入当前存档原始数据（测试损坏存档）
func (p *MemoryPersistence) SetRaw(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = data
}

// LoadSettings 读取设置，未保存时返回默认值
func (p *MemoryPersistence) LoadSettings(ctx context.Context) (Settings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settings == nil {
		return DefaultSettings(), nil
	}
	return *p.settings, nil
}

// SaveSettings 保存设置
func (p *MemoryPersistence) SaveSettings(ctx context.Context, s Settings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = &s
	return nil
}

// Saves 成功保存次数
func (p *MemoryPersistence) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// Backups 成功备份次数
func (p *MemoryPersistence) Backups() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backups
}
