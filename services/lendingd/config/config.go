package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"lendvault/crypto"
)

// Config captures the lendingd runtime configuration.
type Config struct {
	ListenAddress string   `toml:"ListenAddress"`
	DataDir       string   `toml:"DataDir"`
	Environment   string   `toml:"Environment"`
	APITokens     []string `toml:"APITokens"`

	Pool    PoolConfig        `toml:"pool"`
	Oracle  OracleConfig      `toml:"oracle"`
	Genesis map[string]string `toml:"genesis"`
}

// PoolConfig holds the immutable risk parameters applied at construction.
type PoolConfig struct {
	CollateralizationRatio uint64         `toml:"CollateralizationRatio"`
	LiquidationThreshold   uint64         `toml:"LiquidationThreshold"`
	Interest               InterestConfig `toml:"interest"`
}

// InterestConfig parameterizes the utilization curve.
type InterestConfig struct {
	BaseRate           uint64 `toml:"BaseRate"`
	Slope1             uint64 `toml:"Slope1"`
	Slope2             uint64 `toml:"Slope2"`
	OptimalUtilization uint64 `toml:"OptimalUtilization"`
	Precision          uint64 `toml:"Precision"`
}

// OracleConfig seeds the manual price feed and its optional freshness bound.
type OracleConfig struct {
	InitialPrice  string `toml:"InitialPrice"`
	Decimals      uint8  `toml:"Decimals"`
	MaxAgeSeconds uint64 `toml:"MaxAgeSeconds"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		ListenAddress: "127.0.0.1:8787",
		Environment:   "dev",
		Pool: PoolConfig{
			CollateralizationRatio: 150,
			LiquidationThreshold:   80,
			Interest: InterestConfig{
				BaseRate:           2,
				Slope1:             4,
				Slope2:             75,
				OptimalUtilization: 80,
				Precision:          100,
			},
		},
		Oracle: OracleConfig{
			InitialPrice: "100000000",
			Decimals:     8,
		},
	}
}

// Load reads the configuration at path, falling back to defaults when the
// file does not exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, cfg.Validate()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, cfg.Validate()
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the pool cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("ListenAddress must not be empty")
	}
	if c.Pool.CollateralizationRatio < 100 {
		return fmt.Errorf("CollateralizationRatio must be at least 100, got %d", c.Pool.CollateralizationRatio)
	}
	if c.Pool.LiquidationThreshold == 0 || c.Pool.LiquidationThreshold > 100 {
		return fmt.Errorf("LiquidationThreshold must be within (0,100], got %d", c.Pool.LiquidationThreshold)
	}
	if c.Pool.Interest.Slope2 <= c.Pool.Interest.Slope1 {
		return fmt.Errorf("interest Slope2 must exceed Slope1")
	}
	if c.Pool.Interest.OptimalUtilization == 0 || c.Pool.Interest.OptimalUtilization > 100 {
		return fmt.Errorf("interest OptimalUtilization must be within (0,100]")
	}
	if c.Pool.Interest.Precision == 0 {
		return fmt.Errorf("interest Precision must be positive")
	}
	if _, err := c.InitialPrice(); err != nil {
		return err
	}
	for addr, amount := range c.Genesis {
		if _, err := crypto.DecodeAddress(addr); err != nil {
			return fmt.Errorf("genesis address %q: %w", addr, err)
		}
		if _, ok := new(big.Int).SetString(amount, 10); !ok {
			return fmt.Errorf("genesis amount %q for %s is not a base-10 integer", amount, addr)
		}
	}
	return nil
}

// InitialPrice parses the configured oracle seed price.
func (c Config) InitialPrice() (*big.Int, error) {
	raw := strings.TrimSpace(c.Oracle.InitialPrice)
	if raw == "" {
		return nil, nil
	}
	price, ok := new(big.Int).SetString(raw, 10)
	if !ok || price.Sign() < 0 {
		return nil, fmt.Errorf("oracle InitialPrice %q is not a non-negative base-10 integer", raw)
	}
	return price, nil
}
