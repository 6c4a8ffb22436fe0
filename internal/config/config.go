package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	Chat   ChatConfig
	Log    LogConfig
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Addr is derived from Port by Load.
	Addr string `env:"-"`
}

// AuthConfig holds the static credential pair and session token settings.
type AuthConfig struct {
	Email        string        `env:"STATIC_EMAIL"`
	Password     string        `env:"STATIC_PASSWORD"`
	Secret       string        `env:"AUTH_SECRET"`
	TokenTTL     time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"720h"`
	DisplayName  string        `env:"AUTH_DISPLAY_NAME" envDefault:"sundar"`
	CookieSecure bool          `env:"AUTH_COOKIE_SECURE" envDefault:"false"`
}

// Enabled 表示是否配置了登录凭证。
func (c AuthConfig) Enabled() bool {
	return c.Email != "" && c.Password != ""
}

// ChatConfig tunes the chat widget.
type ChatConfig struct {
	TickInterval  time.Duration `env:"CHAT_TICK_INTERVAL" envDefault:"10ms"`
	ResponsesFile string        `env:"CHAT_RESPONSES_FILE"`
	StorageQuota  int           `env:"CHAT_STORAGE_QUOTA" envDefault:"5242880"`
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	addr, err := serverAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	cfg.Auth.Email = strings.TrimSpace(cfg.Auth.Email)
	cfg.Auth.DisplayName = strings.TrimSpace(cfg.Auth.DisplayName)

	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_TTL value %q: must be positive", cfg.Auth.TokenTTL)
	}
	if cfg.Chat.TickInterval <= 0 {
		return nil, fmt.Errorf("invalid CHAT_TICK_INTERVAL value %q: must be positive", cfg.Chat.TickInterval)
	}
	if cfg.Chat.StorageQuota < 0 {
		return nil, fmt.Errorf("invalid CHAT_STORAGE_QUOTA value %d", cfg.Chat.StorageQuota)
	}

	return &cfg, nil
}

// serverAddr 解析服务器监听地址。
func serverAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	return ":" + port, nil
}
