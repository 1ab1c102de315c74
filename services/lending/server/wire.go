package server

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"lendvault/core/events"
	"lendvault/core/types"
	"lendvault/crypto"
	"lendvault/native/lending"
	"lendvault/native/token"
	"lendvault/services/lendingd/config"
	"lendvault/storage"
)

// AssetBridge moves the base asset between user accounts and the pool vault.
// Transfer satisfies the engine's asset interface for collateral payouts.
type AssetBridge struct {
	ledger *token.Ledger
	vault  crypto.Address
}

func NewAssetBridge(ledger *token.Ledger, vault crypto.Address) *AssetBridge {
	return &AssetBridge{ledger: ledger, vault: vault}
}

// Collect pulls collateral funding from the user into the vault account.
func (b *AssetBridge) Collect(from crypto.Address, amount *big.Int) error {
	return b.ledger.Transfer(from, b.vault, amount)
}

// Transfer pays collateral out of the vault to the recipient.
func (b *AssetBridge) Transfer(to crypto.Address, amount *big.Int) error {
	return b.ledger.Transfer(b.vault, to, amount)
}

func (b *AssetBridge) Vault() crypto.Address {
	return b.vault
}

// ModuleAddress derives a deterministic vault address from a label.
func ModuleAddress(label string) crypto.Address {
	digest := sha256.Sum256([]byte(label))
	return crypto.MustNewAddress(crypto.VaultPrefix, digest[:20])
}

// LogEmitter writes ledger events to the structured log.
type LogEmitter struct {
	logger *slog.Logger
}

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(ev events.Event) {
	if e == nil || e.logger == nil || ev == nil {
		return
	}
	attrs := []any{slog.String("event", ev.EventType())}
	if provider, ok := ev.(interface{ Event() *types.Event }); ok {
		if evt := provider.Event(); evt != nil {
			for key, value := range evt.Attributes {
				attrs = append(attrs, slog.String(key, value))
			}
		}
	}
	e.logger.Info("ledger event", attrs...)
}

// Deps bundles everything a running service needs.
type Deps struct {
	Engine *lending.Engine
	Bridge *AssetBridge
	Feed   *lending.ManualFeed
	Base   *token.Ledger
	Debt   *token.Ledger
	Close  func()
}

// Wire assembles storage, ledgers, oracle and engine from configuration.
func Wire(cfg config.Config, logger *slog.Logger) (*Deps, error) {
	var db storage.Database
	if cfg.DataDir != "" {
		ldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open state database: %w", err)
		}
		db = ldb
	} else {
		db = storage.NewMemDB()
	}

	base := token.NewLedger("VLT")
	debt := token.NewLedger("LEND")
	bridge := NewAssetBridge(base, ModuleAddress("lending/vault"))

	price, err := cfg.InitialPrice()
	if err != nil {
		db.Close()
		return nil, err
	}
	feed := lending.NewManualFeed(price, cfg.Oracle.Decimals)
	oracle := lending.NewFreshOracle(feed, time.Duration(cfg.Oracle.MaxAgeSeconds)*time.Second)

	model, err := lending.NewInterestModel(
		cfg.Pool.Interest.BaseRate,
		cfg.Pool.Interest.Slope1,
		cfg.Pool.Interest.Slope2,
		cfg.Pool.Interest.OptimalUtilization,
		cfg.Pool.Interest.Precision,
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	engine := lending.NewEngine(lending.RiskParameters{
		CollateralizationRatio: cfg.Pool.CollateralizationRatio,
		LiquidationThreshold:   cfg.Pool.LiquidationThreshold,
	})
	engine.SetState(storage.NewPositionStore(db))
	engine.SetDebtToken(debt.Operator())
	engine.SetOracle(oracle)
	engine.SetAssetTransfer(bridge)
	engine.SetEmitter(NewLogEmitter(logger))
	engine.SetInterestModel(model)

	operator := base.Operator()
	for account, raw := range cfg.Genesis {
		addr, err := crypto.DecodeAddress(account)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("genesis account %q: %w", account, err)
		}
		amount, ok := new(big.Int).SetString(raw, 10)
		if !ok || amount.Sign() <= 0 {
			db.Close()
			return nil, fmt.Errorf("genesis amount %q for %s", raw, account)
		}
		if err := operator.Mint(addr, amount); err != nil {
			db.Close()
			return nil, fmt.Errorf("mint genesis balance for %s: %w", account, err)
		}
	}

	return &Deps{
		Engine: engine,
		Bridge: bridge,
		Feed:   feed,
		Base:   base,
		Debt:   debt,
		Close:  db.Close,
	}, nil
}
