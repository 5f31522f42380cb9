package config

import (
	"time"

	"fund8r-engine/pkg/config"
)

// Engine holds rule-engine specific configuration.
type Engine struct {
	// Cron expression for the periodic sweep over all active challenges.
	MonitorCron string `mapstructure:"monitor_cron"`

	MonitorStreamTimeout time.Duration `mapstructure:"monitor_stream_timeout"`

	// Base URLs embedded in outbound notifications.
	DashboardBaseURL  string `mapstructure:"dashboard_base_url"`
	ResetOfferBaseURL string `mapstructure:"reset_offer_base_url"`
}

// Config holds the full configuration for the engine service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`
	SMTP     config.SMTP     `mapstructure:"smtp"`
	Telegram config.Telegram `mapstructure:"telegram"`
	Engine   Engine          `mapstructure:"engine"`
}

// Load loads the engine configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
