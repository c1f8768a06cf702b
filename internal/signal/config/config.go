package config

import (
	"crypto-signal-engine/pkg/config"
)

// Engine holds the core signal-engine tunables.
type Engine struct {
	Coins                 []string `mapstructure:"coins"`
	QuoteAsset            string   `mapstructure:"quote_asset"`
	CapitalPerSignal      float64  `mapstructure:"capital_per_signal"`
	RiskPercentage        float64  `mapstructure:"risk_percentage"`
	HistoryInterval       string   `mapstructure:"history_interval"`
	HistoryLimit          int      `mapstructure:"history_limit"`
	PerformanceWindowDays int      `mapstructure:"performance_window_days"`
	PerformanceHorizon    string   `mapstructure:"performance_horizon"`
	OutcomeBatchSize      int      `mapstructure:"outcome_batch_size"`
	AlertResendThreshold  float64  `mapstructure:"alert_resend_threshold_percent"`
}

// Binance holds the configuration for the Binance market-data API.
type Binance struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	CacheTTL            string `mapstructure:"cache_ttl"`
}

// CoinGecko holds the configuration for the CoinGecko global-metrics API.
type CoinGecko struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	CacheTTL            string `mapstructure:"cache_ttl"`
}

// DeepSeek holds the configuration for the DeepSeek API.
type DeepSeek struct {
	APIKey              string `mapstructure:"api_key"`
	BaseURL             string `mapstructure:"base_url"`
	Model               string `mapstructure:"model"`
	Timeout             string `mapstructure:"timeout"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout string `mapstructure:"timeout"`
}

// AI holds configuration for AI providers.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Scheduler holds the cron expressions for the periodic jobs.
type Scheduler struct {
	AutoGenerate string `mapstructure:"auto_generate"`
	UpdatePrices string `mapstructure:"update_prices"`
	DailySummary string `mapstructure:"daily_summary"`
	Check1H      string `mapstructure:"check_1h"`
	Check4H      string `mapstructure:"check_4h"`
	Check24H     string `mapstructure:"check_24h"`
	Check48H     string `mapstructure:"check_48h"`
	Check7D      string `mapstructure:"check_7d"`
}

// Config holds the full configuration for the signal service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Engine    Engine          `mapstructure:"engine"`
	Binance   Binance         `mapstructure:"binance"`
	CoinGecko CoinGecko       `mapstructure:"coingecko"`
	DeepSeek  DeepSeek        `mapstructure:"deepseek"`
	Gemini    Gemini          `mapstructure:"gemini"`
	AI        AI              `mapstructure:"ai"`
	Telegram  Telegram        `mapstructure:"telegram"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
}

// Load loads the signal service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
