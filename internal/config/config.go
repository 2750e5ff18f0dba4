package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Log       LogConfig       `mapstructure:"log"`
	Game      GameConfig      `mapstructure:"game"`
	Profile   ProfileConfig   `mapstructure:"profile"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Compression     string        `mapstructure:"compression"` // none / gzip / zstd
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
	Path              string        `mapstructure:"path"`
	ReadBufferSize    int           `mapstructure:"read_buffer_size"`
	WriteBufferSize   int           `mapstructure:"write_buffer_size"`
	MaxMessageSize    int64         `mapstructure:"max_message_size"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
	PongTimeout       time.Duration `mapstructure:"pong_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	SnapshotInterval  time.Duration `mapstructure:"snapshot_interval"`
	EnableCompression bool          `mapstructure:"enable_compression"`
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

// GameConfig 游戏调参
type GameConfig struct {
	TickRate     int               `mapstructure:"tick_rate"` // 每秒帧数
	MaxSessions  int               `mapstructure:"max_sessions"`
	SymbolsFile  string            `mapstructure:"symbols_file"`
	StripMode    string            `mapstructure:"strip_mode"`
	InitialCoins int               `mapstructure:"initial_coins"`
	MaxCoins     int               `mapstructure:"max_coins"`
	Speeds       SpeedConfig       `mapstructure:"speeds"`
	Snap         SnapConfig        `mapstructure:"snap"`
	Combo        map[string]string `mapstructure:"combo"`
	Bonus        BonusConfig       `mapstructure:"bonus"`
	Special      SpecialConfig     `mapstructure:"special"`
	Override     OverrideConfig    `mapstructure:"override"`
	Recorder     RecorderConfig    `mapstructure:"recorder"`
}

// SpeedConfig 各模式卷轴速度
type SpeedConfig struct {
	Main    []float64 `mapstructure:"main"`
	Bonus   []float64 `mapstructure:"bonus"`
	Special []float64 `mapstructure:"special"`
}

// SnapConfig 吸附参数
type SnapConfig struct {
	Duration      time.Duration `mapstructure:"duration"`
	ShortWayRatio float64       `mapstructure:"short_way_ratio"`
	MaxFrameDelta time.Duration `mapstructure:"max_frame_delta"`
}

// BonusConfig 奖励模式参数
type BonusConfig struct {
	FreeSpins          int           `mapstructure:"free_spins"`
	Multiplier         int           `mapstructure:"multiplier"`
	EnhancedMultiplier int           `mapstructure:"enhanced_multiplier"`
	StartDelay         time.Duration `mapstructure:"start_delay"`
}

// SpecialConfig 特殊事件参数
type SpecialConfig struct {
	Chance     float64       `mapstructure:"chance"`
	IntroDelay time.Duration `mapstructure:"intro_delay"`
	FlashDelay time.Duration `mapstructure:"flash_delay"`
	ReelLength int           `mapstructure:"reel_length"`
	Tiers      []RewardTier  `mapstructure:"tiers"`
}

// RewardTier 奖励档位
type RewardTier struct {
	Name            string  `mapstructure:"name"`
	Coins           int     `mapstructure:"coins"`
	Weight          float64 `mapstructure:"weight"`
	RequiresCatalog bool    `mapstructure:"requires_catalog"`
}

// OverrideConfig 暗号参数
type OverrideConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BufferSize int           `mapstructure:"buffer_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// RecorderConfig 旋转记录参数
type RecorderConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	BufferSize int  `mapstructure:"buffer_size"`
}

// ProfileConfig 玩家档案同步配置
type ProfileConfig struct {
	Secret        string        `mapstructure:"secret"`
	CookieName    string        `mapstructure:"cookie_name"`
	CookieMaxAge  time.Duration `mapstructure:"cookie_max_age"`
	SecureCookie  bool          `mapstructure:"secure_cookie"`
	MaxDelta      int           `mapstructure:"max_delta"`
	DefaultCoins  int           `mapstructure:"default_coins"`
	MaxCoins      int           `mapstructure:"max_coins"`
	SyncInterval  time.Duration `mapstructure:"sync_interval"`
	AuditDisabled bool          `mapstructure:"audit_disabled"`
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

		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath("./config")
			v.AddConfigPath(".")
		}

		// 环境变量 DEEPSEA_SERVER_PORT 覆盖 server.port
		v.SetEnvPrefix("DEEPSEA")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		setDefaults(v)

		if err = v.ReadInConfig(); err != nil {
			// 配置文件不存在时使用默认配置
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return
			}
			err = nil
		}

		loaded := &Config{}
		if err = v.Unmarshal(loaded); err != nil {
			return
		}
		if err = loaded.Validate(); err != nil {
			return
		}

		mu.Lock()
		cfg = loaded
		mu.Unlock()
	})

	return err
}

// Load 不经过全局单例加载配置（测试与子命令使用）
func Load(configPath string) (*Config, error) {
	lv := viper.New()
	lv.SetEnvPrefix("DEEPSEA")
	lv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	lv.AutomaticEnv()
	setDefaults(lv)

	if configPath != "" {
		lv.SetConfigFile(configPath)
		if err := lv.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	c := &Config{}
	if err := lv.Unmarshal(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate 基础校验，游戏调参的细节由引擎自行校验
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 无效: %d", c.Server.Port)
	}
	switch c.Server.Compression {
	case "", "none", "gzip", "zstd":
	default:
		return fmt.Errorf("server.compression 无效: %s", c.Server.Compression)
	}
	if c.Game.TickRate <= 0 {
		return fmt.Errorf("game.tick_rate 必须为正: %d", c.Game.TickRate)
	}
	if c.Profile.Secret == "" {
		return fmt.Errorf("profile.secret 不能为空")
	}
	if c.Profile.MaxDelta <= 0 {
		return fmt.Errorf("profile.max_delta 必须为正: %d", c.Profile.MaxDelta)
	}
	return nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.compression", "gzip")

	// 数据库
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/deepsea.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// WebSocket
	v.SetDefault("websocket.path", "/ws/play")
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 4096)
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.snapshot_interval", "50ms")
	v.SetDefault("websocket.enable_compression", true)

	// 日志
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "deepsea.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)

	// 游戏
	v.SetDefault("game.tick_rate", 60)
	v.SetDefault("game.max_sessions", 1000)
	v.SetDefault("game.strip_mode", "weighted")
	v.SetDefault("game.initial_coins", 100)
	v.SetDefault("game.max_coins", 9_999_999)
	v.SetDefault("game.speeds.main", []float64{0.32, 0.30, 0.28})
	v.SetDefault("game.speeds.bonus", []float64{0.30, 0.28, 0.26})
	v.SetDefault("game.speeds.special", []float64{0.22, 0.20, 0.18})
	v.SetDefault("game.snap.duration", "150ms")
	v.SetDefault("game.snap.short_way_ratio", 0.3)
	v.SetDefault("game.snap.max_frame_delta", "34ms")
	v.SetDefault("game.combo", map[string]string{"1": "1", "2": "1.5", "3": "2", "5": "4"})
	v.SetDefault("game.bonus.free_spins", 8)
	v.SetDefault("game.bonus.multiplier", 2)
	v.SetDefault("game.bonus.enhanced_multiplier", 4)
	v.SetDefault("game.bonus.start_delay", "500ms")
	v.SetDefault("game.special.chance", 0.01)
	v.SetDefault("game.special.intro_delay", "1500ms")
	v.SetDefault("game.special.flash_delay", "1200ms")
	v.SetDefault("game.special.reel_length", 6)
	v.SetDefault("game.override.enabled", true)
	v.SetDefault("game.override.buffer_size", 16)
	v.SetDefault("game.override.timeout", "1500ms")
	v.SetDefault("game.recorder.enabled", true)
	v.SetDefault("game.recorder.buffer_size", 256)

	// 档案同步
	v.SetDefault("profile.secret", "deepsea-dev-secret")
	v.SetDefault("profile.cookie_name", "dss_state")
	v.SetDefault("profile.cookie_max_age", "8760h")
	v.SetDefault("profile.secure_cookie", false)
	v.SetDefault("profile.max_delta", 5000)
	v.SetDefault("profile.default_coins", 100)
	v.SetDefault("profile.max_coins", 9_999_999)
	v.SetDefault("profile.sync_interval", "2s")
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化，新建的游戏会话使用重载后的调参
func Watch(callback func(*Config)) {
	if v == nil {
		return
	}
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}
		if err := newCfg.Validate(); err != nil {
			fmt.Printf("配置重载校验失败: %v\n", err)
			return
		}

		mu.Lock()
		cfg = newCfg
		mu.Unlock()

		if callback != nil {
			callback(newCfg)
		}
		fmt.Printf("配置已重新加载: %s\n", e.Name)
	})
}

// GetString 获取字符串配置
func GetString(key string) string {
	return v.GetString(key)
}

// GetDuration 获取时间间隔配置
func GetDuration(key string) time.Duration {
	return v.GetDuration(key)
}

// IsSet 检查配置项是否存在
func IsSet(key string) bool {
	return v.IsSet(key)
}
