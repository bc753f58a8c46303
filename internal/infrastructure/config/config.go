package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix is prepended to every environment override, e.g.
// RELAYBOT_HTTP_PORT.
const EnvPrefix = "RELAYBOT"

// Config 应用配置
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram" yaml:"telegram"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Broadcast BroadcastConfig `mapstructure:"broadcast" yaml:"broadcast"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Texts     TextsConfig     `mapstructure:"texts" yaml:"texts"`

	v *viper.Viper
}

// TelegramConfig Telegram 配置
type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token" yaml:"bot_token"`
	StaffChatID int64  `mapstructure:"staff_chat_id" yaml:"staff_chat_id"` // 管理群 ID
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
}

// HTTPConfig 统计面板 HTTP 配置
type HTTPConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	Mode string `mapstructure:"mode" yaml:"mode"` // debug, release, test
}

// Addr 返回监听地址
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type               string `mapstructure:"type" yaml:"type"` // json, sqlite, postgres
	Dir                string `mapstructure:"dir" yaml:"dir"`   // JSON 文档目录
	DSN                string `mapstructure:"dsn" yaml:"dsn"`
	MaxForwardMappings int    `mapstructure:"max_forward_mappings" yaml:"max_forward_mappings"` // 0 = 不限制
}

// BroadcastConfig 广播配置
type BroadcastConfig struct {
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// TextsConfig holds user-facing message overrides. Empty fields keep the
// built-in wording.
type TextsConfig struct {
	Welcome         string `mapstructure:"welcome" yaml:"welcome,omitempty"`
	Confirmation    string `mapstructure:"confirmation" yaml:"confirmation,omitempty"`
	Banned          string `mapstructure:"banned" yaml:"banned,omitempty"`
	Unbanned        string `mapstructure:"unbanned" yaml:"unbanned,omitempty"`
	StartButton     string `mapstructure:"start_button" yaml:"start_button,omitempty"`
	ReplyHeader     string `mapstructure:"reply_header" yaml:"reply_header,omitempty"`
	BroadcastHeader string `mapstructure:"broadcast_header" yaml:"broadcast_header,omitempty"`
}

// Load 加载配置
//
// 优先级 (低 → 高): 默认值 → config.yaml → .env → 环境变量。
// configFile 为空时依次搜索 ./config 和当前目录。
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare names kept for existing deployments.
	_ = v.BindEnv("telegram.bot_token", EnvPrefix+"_TELEGRAM_BOT_TOKEN", "BOT_TOKEN")
	_ = v.BindEnv("telegram.staff_chat_id", EnvPrefix+"_TELEGRAM_STAFF_CHAT_ID", "ADMIN_GROUP_ID")

	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// setDefaults 设置默认配置
func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.debug", false)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 5000)
	v.SetDefault("http.mode", "release")

	v.SetDefault("storage.type", "json")
	v.SetDefault("storage.dir", "data")
	v.SetDefault("storage.dsn", "relaybot.db")
	v.SetDefault("storage.max_forward_mappings", 0)

	v.SetDefault("broadcast.rate_per_second", 25)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	// Registered so env overrides like RELAYBOT_TEXTS_WELCOME are seen by
	// Unmarshal.
	for _, key := range []string{"welcome", "confirmation", "banned", "unbanned", "start_button", "reply_header", "broadcast_header"} {
		v.SetDefault("texts."+key, "")
	}
}

// Validate checks the settings needed to run the bot.
func (c *Config) Validate() error {
	var problems []string

	if c.Telegram.BotToken == "" {
		problems = append(problems, "telegram.bot_token (or BOT_TOKEN) is required")
	}
	if c.Telegram.StaffChatID == 0 {
		problems = append(problems, "telegram.staff_chat_id (or ADMIN_GROUP_ID) is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, fmt.Sprintf("http.port %d out of range", c.HTTP.Port))
	}
	switch c.Storage.Type {
	case "json":
		if c.Storage.Dir == "" {
			problems = append(problems, "storage.dir is required for json storage")
		}
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			problems = append(problems, "storage.dsn is required for "+c.Storage.Type)
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported storage.type %q", c.Storage.Type))
	}
	if c.Storage.MaxForwardMappings < 0 {
		problems = append(problems, "storage.max_forward_mappings must be >= 0")
	}
	if c.Broadcast.RatePerSecond < 0 {
		problems = append(problems, "broadcast.rate_per_second must be >= 0")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ConfigFileUsed returns the path of the loaded file, or "".
func (c *Config) ConfigFileUsed() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// Watch re-reads the config file on change and hands the new texts and log
// level to onChange. It returns false when no file is being used.
func (c *Config) Watch(logger *zap.Logger, onChange func(texts TextsConfig, logLevel string)) bool {
	if c.ConfigFileUsed() == "" {
		return false
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		var texts TextsConfig
		if err := c.v.UnmarshalKey("texts", &texts); err != nil {
			logger.Warn("Config reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		level := c.v.GetString("log.level")

		logger.Info("Config reloaded", zap.String("file", e.Name), zap.String("log_level", level))
		onChange(texts, level)
	})
	c.v.WatchConfig()

	logger.Info("Watching config file", zap.String("file", c.ConfigFileUsed()))
	return true
}
