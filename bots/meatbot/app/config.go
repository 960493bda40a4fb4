package app

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	corecache "meatbot/core/cache"
	coreconfig "meatbot/core/config"
	coredatabase "meatbot/core/database"
)

// ShopConfig holds storefront tuning knobs.
type ShopConfig struct {
	Currency      string `yaml:"currency" envconfig:"SHOP_CURRENCY"`
	PageSize      int    `yaml:"page_size" envconfig:"SHOP_PAGE_SIZE"`
	OrdersPerPage int    `yaml:"orders_per_page" envconfig:"SHOP_ORDERS_PER_PAGE"`
}

// Config extends the shared core configuration with storefront sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Redis    corecache.Config    `yaml:"redis"`
	Shop     ShopConfig          `yaml:"shop"`
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
	if cfg.Shop.Currency == "" {
		cfg.Shop.Currency = "₽"
	}
	return &cfg, nil
}
