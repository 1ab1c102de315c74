package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, uint64(150), cfg.Pool.CollateralizationRatio)
	require.Equal(t, uint64(80), cfg.Pool.LiquidationThreshold)
	require.Equal(t, "127.0.0.1:8787", cfg.ListenAddress)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lendingd.toml")
	data := `
ListenAddress = "0.0.0.0:9000"
DataDir = "/var/lib/lendvault"

[pool]
CollateralizationRatio = 200
LiquidationThreshold = 70

[pool.interest]
BaseRate = 1
Slope1 = 3
Slope2 = 50
OptimalUtilization = 75
Precision = 100

[oracle]
InitialPrice = "250000000"
Decimals = 8
MaxAgeSeconds = 300
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.ListenAddress)
	require.Equal(t, uint64(200), cfg.Pool.CollateralizationRatio)
	require.Equal(t, uint64(70), cfg.Pool.LiquidationThreshold)
	require.Equal(t, uint64(300), cfg.Oracle.MaxAgeSeconds)

	price, err := cfg.InitialPrice()
	require.NoError(t, err)
	require.Equal(t, "250000000", price.String())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Pool.CollateralizationRatio = 99
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Pool.LiquidationThreshold = 101
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Pool.Interest.Slope2 = cfg.Pool.Interest.Slope1
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Oracle.InitialPrice = "not-a-number"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Genesis = map[string]string{"bogus": "100"}
	require.Error(t, cfg.Validate())
}
