package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Session SessionConfig
	Journal JournalConfig
	Log     LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := cfg.Journal.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Addr string
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey    string        `env:"ARK_API_KEY"`
	AccessKey string        `env:"ARK_ACCESS_KEY"`
	SecretKey string        `env:"ARK_SECRET_KEY"`
	Model     string        `env:"ARK_MODEL"`
	BaseURL   string        `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region    string        `env:"ARK_REGION" envDefault:"cn-beijing"`
	Timeout   time.Duration `env:"ARK_TIMEOUT" envDefault:"60s"`

	ReplyMaxTokens   int     `env:"AI_REPLY_MAX_TOKENS" envDefault:"300"`
	ReplyTemperature float32 `env:"AI_REPLY_TEMPERATURE" envDefault:"0.7"`
	TitleMaxTokens   int     `env:"AI_TITLE_MAX_TOKENS" envDefault:"20"`
	TitleTemperature float32 `env:"AI_TITLE_TEMPERATURE" envDefault:"0.3"`
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
	}
	if c.Timeout > 0 {
		timeout := c.Timeout
		cfg.Timeout = &timeout
	}

	return ark.NewChatModel(ctx, cfg)
}

// SessionConfig 描述访客会话 cookie。
type SessionConfig struct {
	CookieName string        `env:"SESSION_COOKIE" envDefault:"journal_session"`
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	Secure     bool          `env:"SESSION_SECURE" envDefault:"false"`
}

// JournalMode 决定日记条目是全局共享还是按用户隔离。
type JournalMode string

const (
	JournalShared   JournalMode = "shared"
	JournalPersonal JournalMode = "personal"
)

// JournalConfig 描述日记页面行为。
type JournalConfig struct {
	Mode JournalMode `env:"JOURNAL_MODE" envDefault:"personal"`
}

func (c *JournalConfig) validate() error {
	switch c.Mode {
	case "":
		c.Mode = JournalPersonal
		return nil
	case JournalShared, JournalPersonal:
		return nil
	default:
		return fmt.Errorf("invalid JOURNAL_MODE value: %q", c.Mode)
	}
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}
