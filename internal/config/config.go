package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/wfunc/noodle-rush/internal/errors"
)

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Game      GameConfig      `mapstructure:"game"`
	Settings  SettingsConfig  `mapstructure:"settings"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	OpenAPIFile     string        `mapstructure:"openapi_file"` // /openapi 返回的文档文件
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// WebSocketConfig WebSocket配置
type WebSocketConfig struct {
	Path            string        `mapstructure:"path"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
}

// GameConfig 游戏规则配置
type GameConfig struct {
	StartingFunds         int64   `mapstructure:"starting_funds"`
	InvestorClashInterval int     `mapstructure:"investor_clash_interval"`
	EventChance           float64 `mapstructure:"event_chance"`
	LoanLimit             int64   `mapstructure:"loan_limit"`
	LoanInterestRate      float64 `mapstructure:"loan_interest_rate"`
	Seed                  int64   `mapstructure:"seed"` // 0 表示使用当前时间
}

// SettingsConfig 玩家设置默认值
type SettingsConfig struct {
	MasterVolume     float64 `mapstructure:"master_volume"`
	MusicVolume      float64 `mapstructure:"music_volume"`
	SfxVolume        float64 `mapstructure:"sfx_volume"`
	AutosaveEnabled  bool    `mapstructure:"autosave_enabled"`
	AutosaveInterval int     `mapstructure:"autosave_interval"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = viper.New()
		cfg, err = load(v, configPath)
	})

	return err
}

// Load 读取一份独立的配置（不影响全局实例，测试和命令行工具使用）
func Load(configPath string) (*Config, error) {
	return load(viper.New(), configPath)
}

func load(v *viper.Viper, configPath string) (*Config, error) {
	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 设置环境变量前缀
	v.SetEnvPrefix("NOODLE_RUSH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在，使用默认配置
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, errors.ErrConfigParse, "读取配置文件失败")
		}
	}

	out := &Config{}
	if err := v.Unmarshal(out); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.openapi_file", "docs/api/openapi.yaml")

	// 数据库默认配置
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/noodle-rush.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// WebSocket默认配置
	v.SetDefault("websocket.path", "/ws")
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.ping_interval", "30s")

	// 游戏规则默认配置
	v.SetDefault("game.starting_funds", 5000)
	v.SetDefault("game.investor_clash_interval", 10)
	v.SetDefault("game.event_chance", 0.35)
	v.SetDefault("game.loan_limit", 20000)
	v.SetDefault("game.loan_interest_rate", 0.02)
	v.SetDefault("game.seed", 0)

	// 玩家设置默认值
	v.SetDefault("settings.master_volume", 0.8)
	v.SetDefault("settings.music_volume", 0.6)
	v.SetDefault("settings.sfx_volume", 0.7)
	v.SetDefault("settings.autosave_enabled", true)
	v.SetDefault("settings.autosave_interval", 5)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "noodle-rush.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Game.InvestorClashInterval <= 0 {
		return errors.Newf(errors.ErrConfigValidate, "game.investor_clash_interval 必须大于0: %d", c.Game.InvestorClashInterval)
	}
	if c.Game.EventChance < 0 || c.Game.EventChance > 1 {
		return errors.Newf(errors.ErrConfigValidate, "game.event_chance 必须在[0,1]之间: %v", c.Game.EventChance)
	}
	if c.Settings.AutosaveInterval <= 0 {
		return errors.Newf(errors.ErrConfigValidate, "settings.autosave_interval 必须大于0: %d", c.Settings.AutosaveInterval)
	}
	if c.Game.LoanLimit < 0 {
		return errors.Newf(errors.ErrConfigValidate, "game.loan_limit 不能为负数: %d", c.Game.LoanLimit)
	}
	return nil
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	if v == nil {
		return
	}
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()

		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}
		if err := newCfg.Validate(); err != nil {
			fmt.Printf("配置校验失败，保留旧配置: %v\n", err)
			return
		}

		cfg = newCfg

		if callback != nil {
			callback(cfg)
		}

		fmt.Println("配置已重新加载")
	})
}

// GetString 获取字符串配置
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt 获取整数配置
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool 获取布尔配置
func GetBool(key string) bool {
	return v.GetBool(key)
}

// GetDuration 获取时间间隔配置
func GetDuration(key string) time.Duration {
	return v.GetDuration(key)
}
