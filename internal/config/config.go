package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig
	Import    ImportConfig
	Analytics AnalyticsConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ImportConfig holds institution-specific normalization settings.
type ImportConfig struct {
	Workers             int
	AutoPaymentSentinel string `mapstructure:"auto_payment_sentinel"`
	TransferMarker      string `mapstructure:"transfer_marker"`
	BrokerageCard       string `mapstructure:"brokerage_card"`
}

// AnalyticsConfig holds category sets excluded from spending analytics.
type AnalyticsConfig struct {
	ExcludedCategories []string `mapstructure:"excluded_categories"`
}

// Load reads configuration from file and env. Env var overrides use prefix BUDGETEER_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "budgeteer", "budgeteer.db"))
	v.SetDefault("import.workers", 4)
	v.SetDefault("import.auto_payment_sentinel", "AUTOMATIC PAYMENT - THANK")
	v.SetDefault("import.transfer_marker", "CREDIT CRD")
	v.SetDefault("import.brokerage_card", "Brokerage")
	v.SetDefault("analytics.excluded_categories", []string{
		"Rental income",
		"Salary",
		"Monthly fixed cost",
		"Monthly mortgage expense",
		"Monthly property expense",
	})

	v.SetConfigType("toml")

	cfgPath := os.Getenv("BUDGETEER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "budgeteer"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BUDGETEER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
