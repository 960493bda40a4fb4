package app

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "meatbot/core/config"
)

// FormConfig holds lead form settings.
type FormConfig struct {
	CSVPath         string `yaml:"csv_path" envconfig:"FORM_CSV_PATH"`
	CooldownSeconds int    `yaml:"cooldown_seconds" envconfig:"FORM_COOLDOWN_SECONDS"`
	LeadsPerPage    int    `yaml:"leads_per_page" envconfig:"FORM_LEADS_PER_PAGE"`
}

// Config extends the shared core configuration with the form section.
// This bot needs no database or cache.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Form FormConfig `yaml:"form"`
}

// CoreConfig exposes the embedded core section.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads the bot configuration from a YAML file and environment
// variables, mirroring the core loading order.
func LoadConfig(path string) (*Config, error) {
	if env := os.Getenv("APP_ENV"); env == "" || env == "development" {
		_ = godotenv.Load()
	}

	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if cfg.Form.CSVPath == "" {
		cfg.Form.CSVPath = "data/leads.csv"
	}
	if cfg.Form.CooldownSeconds <= 0 {
		cfg.Form.CooldownSeconds = 300
	}
	return &cfg, nil
}
