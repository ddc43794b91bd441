package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Tipstrr  TipstrrConfig  `yaml:"tipstrr"`
	Export   ExportConfig   `yaml:"export"`
	Postgres PostgresConfig `yaml:"postgres"`
	Telegram TelegramConfig `yaml:"telegram"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type TipstrrConfig struct {
	BaseURL   string            `yaml:"base_url"`
	LoginURL  string            `yaml:"login_url"`
	Tipster   string            `yaml:"tipster"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	UserAgent string            `yaml:"user_agent"`
	Headers   map[string]string `yaml:"headers"`
	Timeout   time.Duration     `yaml:"timeout"`
	PageDelay time.Duration     `yaml:"page_delay"` // Delay between listing pages
	TipDelay  time.Duration     `yaml:"tip_delay"`  // Delay between per-tip detail fetches
}

type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: info)
	File  string `yaml:"file"`  // Optional JSON log file in addition to stdout
}

const (
	defaultBaseURL   = "https://tipstrr.com"
	defaultLoginURL  = "https://www.tipstrr.com/login"
	defaultTipster   = "freguli"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()
	return &config, nil
}

func (c *Config) applyDefaults() {
	t := &c.Tipstrr
	if t.BaseURL == "" {
		t.BaseURL = defaultBaseURL
	}
	if t.LoginURL == "" {
		t.LoginURL = defaultLoginURL
	}
	if t.Tipster == "" {
		t.Tipster = defaultTipster
	}
	if t.UserAgent == "" {
		t.UserAgent = defaultUserAgent
	}
	if t.Timeout <= 0 {
		t.Timeout = 30 * time.Second
	}
	if t.PageDelay <= 0 {
		t.PageDelay = 100 * time.Millisecond
	}
	if t.TipDelay <= 0 {
		t.TipDelay = 100 * time.Millisecond
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "."
	}
}

// Credentials and the tipster slug never belong in a committed yaml, so the
// environment takes precedence over the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("TIPSTRR_USERNAME"); v != "" {
		c.Tipstrr.Username = v
	}
	if v := os.Getenv("TIPSTRR_PASSWORD"); v != "" {
		c.Tipstrr.Password = v
	}
	if v := os.Getenv("TIPSTRR_TIPSTER"); v != "" {
		c.Tipstrr.Tipster = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
}
