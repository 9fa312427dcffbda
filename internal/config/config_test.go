package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.NotEmpty(t, cfg.Database.Path)
	require.Equal(t, 4, cfg.Import.Workers)
	require.Equal(t, "AUTOMATIC PAYMENT - THANK", cfg.Import.AutoPaymentSentinel)
	require.Equal(t, "CREDIT CRD", cfg.Import.TransferMarker)
	require.Equal(t, "Brokerage", cfg.Import.BrokerageCard)
	require.Contains(t, cfg.Analytics.ExcludedCategories, "Salary")
	require.Contains(t, cfg.Analytics.ExcludedCategories, "Monthly mortgage expense")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
[database]
path = "/tmp/other.db"

[import]
workers = 8
transfer_marker = "XFER"
`), 0o644))
	t.Setenv("BUDGETEER_CONFIG", cfgFile)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/other.db", cfg.Database.Path)
	require.Equal(t, 8, cfg.Import.Workers)
	require.Equal(t, "XFER", cfg.Import.TransferMarker)
	// untouched keys keep their defaults
	require.Equal(t, "Brokerage", cfg.Import.BrokerageCard)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BUDGETEER_DATABASE_PATH", "/tmp/env.db")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/env.db", cfg.Database.Path)
}
