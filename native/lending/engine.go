package lending

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"lendvault/core/events"
	"lendvault/crypto"
	nativecommon "lendvault/native/common"
)

const moduleName = "lending"

var (
	// borrowPrecision scales the collateralization ratio: a ratio of 150
	// with precision 100 caps borrows at two thirds of collateral.
	borrowPrecision = big.NewInt(100)
	// liquidationPrecision scales the liquidation threshold percentage.
	liquidationPrecision = big.NewInt(100)
)

const (
	// DefaultCollateralizationRatio requires 150% collateral per unit of debt.
	DefaultCollateralizationRatio = 150
	// DefaultLiquidationThreshold counts 80% of collateral value towards the
	// health factor.
	DefaultLiquidationThreshold = 80
)

type engineState interface {
	GetPosition(addr crypto.Address) (*Position, error)
	PutPosition(p *Position) error
	GetPoolState() (*PoolState, error)
	PutPoolState(s *PoolState) error
}

// Engine orchestrates the collateral ledger, borrow issuance and liquidation
// flows for the single-asset pool. Every mutating operation either fully
// commits or leaves no trace: checks run up front, external effects are
// compensated on failure, and a call-in-progress latch rejects reentrant
// invocation. A whole-ledger mutex serializes mutations against readers so
// intermediate state is never externally visible; the latch additionally
// fails fast when a callback re-enters the engine on the mutating goroutine,
// where the mutex would deadlock.
type Engine struct {
	mu            sync.RWMutex
	state         engineState
	token         DebtToken
	oracle        PriceOracle
	assets        AssetTransfer
	params        RiskParameters
	interestModel *InterestModel
	emitter       events.Emitter
	pauses        nativecommon.PauseView
	latch         nativecommon.Latch
}

// NewEngine constructs an engine with the supplied risk parameters. Zero
// values fall back to the reference pool configuration.
func NewEngine(params RiskParameters) *Engine {
	if params.CollateralizationRatio == 0 {
		params.CollateralizationRatio = DefaultCollateralizationRatio
	}
	if params.LiquidationThreshold == 0 {
		params.LiquidationThreshold = DefaultLiquidationThreshold
	}
	return &Engine{
		params:        params,
		interestModel: DefaultInterestModel(),
	}
}

// SetState wires the engine to its persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetDebtToken installs the restricted mint/burn capability over the external
// debt-token ledger.
func (e *Engine) SetDebtToken(token DebtToken) {
	if e == nil {
		return
	}
	e.token = token
}

// SetOracle installs the price feed consulted on health-factor computations.
func (e *Engine) SetOracle(oracle PriceOracle) {
	if e == nil {
		return
	}
	e.oracle = oracle
}

// SetAssetTransfer installs the collateral return path used by withdrawals.
func (e *Engine) SetAssetTransfer(assets AssetTransfer) {
	if e == nil {
		return
	}
	e.assets = assets
}

// SetEmitter wires the engine's event stream.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	e.emitter = emitter
}

// SetInterestModel replaces the utilization curve used for rate queries.
func (e *Engine) SetInterestModel(model *InterestModel) {
	if e == nil || model == nil {
		return
	}
	e.interestModel = model
}

// SetPauses wires the administrative pause switchboard.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Params returns the immutable risk parameters.
func (e *Engine) Params() RiskParameters { return e.params }

func (e *Engine) begin() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := e.latch.Enter(); err != nil {
		return err
	}
	e.mu.Lock()
	return nil
}

func (e *Engine) end() {
	e.mu.Unlock()
	e.latch.Exit()
}

// beginRead gates query entry points. The latch is checked before the read
// lock: a query issued from inside a mutating callback would otherwise
// deadlock on the mutex while the mutation holds it.
func (e *Engine) beginRead() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.latch.Busy() {
		return nativecommon.ErrReentrantCall
	}
	e.mu.RLock()
	return nil
}

func (e *Engine) endRead() {
	e.mu.RUnlock()
}

// DepositCollateral credits amount of the base asset to the user's position.
// The caller must have transferred exactly paid units atomically with the
// call; any mismatch aborts the deposit.
func (e *Engine) DepositCollateral(user crypto.Address, amount, paid *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if paid == nil || paid.Cmp(amount) != 0 {
		return ErrAmountMismatch
	}

	pos, err := e.ensurePosition(user)
	if err != nil {
		return err
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	prevPos := pos.Clone()

	pos.Collateral = new(big.Int).Add(pos.Collateral, amount)
	pool.TotalCollateral = new(big.Int).Add(pool.TotalCollateral, amount)

	if err := e.state.PutPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutPoolState(pool); err != nil {
		if perr := e.state.PutPosition(prevPos); perr != nil {
			return errors.Join(err, perr)
		}
		return err
	}

	e.emit(events.CollateralDeposited{User: addr20(user), Amount: new(big.Int).Set(amount)})
	return nil
}

// WithdrawCollateral releases amount of the base asset back to the user. Any
// outstanding debt blocks the withdrawal regardless of the position's health.
// State is finalized before the external asset transfer; a failed transfer
// rolls the ledger back and surfaces ErrTransferFailed.
func (e *Engine) WithdrawCollateral(user crypto.Address, amount *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if e.token == nil {
		return errNilDebtToken
	}
	if e.assets == nil {
		return errNilCollateral
	}

	pos, err := e.ensurePosition(user)
	if err != nil {
		return err
	}
	if pos.Collateral.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	debt, err := e.token.BalanceOf(user)
	if err != nil {
		return fmt.Errorf("lending engine: debt balance lookup: %w", err)
	}
	if debt != nil && debt.Sign() != 0 {
		return ErrOutstandingDebt
	}

	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	prevPos := pos.Clone()
	prevPool := pool.Clone()

	pos.Collateral = new(big.Int).Sub(pos.Collateral, amount)
	pool.TotalCollateral = subClamped(pool.TotalCollateral, amount)

	if err := e.state.PutPosition(pos); err != nil {
		return err
	}
	if err := e.state.PutPoolState(pool); err != nil {
		if perr := e.state.PutPosition(prevPos); perr != nil {
			return errors.Join(err, perr)
		}
		return err
	}

	if err := e.assets.Transfer(user, amount); err != nil {
		if perr := e.state.PutPosition(prevPos); perr != nil {
			return errors.Join(ErrTransferFailed, perr)
		}
		if perr := e.state.PutPoolState(prevPool); perr != nil {
			return errors.Join(ErrTransferFailed, perr)
		}
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	e.emit(events.CollateralWithdrawn{User: addr20(user), Amount: new(big.Int).Set(amount)})
	return nil
}

// Borrow mints amount of the debt token to the user, capped by the
// collateralization ratio. After minting, the resulting health factor is
// re-checked; a failure burns the minted tokens back so the whole operation
// is all-or-nothing.
func (e *Engine) Borrow(user crypto.Address, amount *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if e.token == nil {
		return errNilDebtToken
	}
	if e.oracle == nil {
		return errNilOracle
	}

	pos, err := e.ensurePosition(user)
	if err != nil {
		return err
	}
	if pos.Collateral.Sign() == 0 {
		return ErrInsufficientBalance
	}

	ratio := new(big.Int).SetUint64(e.params.CollateralizationRatio)
	maxBorrow := mulDiv(pos.Collateral, borrowPrecision, ratio)
	if amount.Cmp(maxBorrow) > 0 {
		return ErrAmountTooHigh
	}

	if err := e.token.Mint(user, amount); err != nil {
		return fmt.Errorf("lending engine: debt token mint: %w", err)
	}

	debt, err := e.token.BalanceOf(user)
	if err != nil {
		return e.unmint(user, amount, fmt.Errorf("lending engine: debt balance lookup: %w", err))
	}
	hf, err := e.healthFactor(pos.Collateral, debt)
	if err != nil {
		return e.unmint(user, amount, err)
	}
	if hf.Cmp(MinHealthFactor) < 0 {
		return e.unmint(user, amount, ErrHealthFactorTooLow)
	}

	pool, err := e.ensurePool()
	if err != nil {
		return e.unmint(user, amount, err)
	}
	pool.TotalDebt = new(big.Int).Add(pool.TotalDebt, amount)
	if err := e.state.PutPoolState(pool); err != nil {
		return e.unmint(user, amount, err)
	}

	e.emit(events.LendTokenBorrowed{User: addr20(user), Amount: new(big.Int).Set(amount)})
	return nil
}

// Liquidate seizes collateral from an unhealthy position and burns the
// matching debt at the same ratio used for issuance. The seized amount is
// clamped to the target's balance; the call reports the collateral seized and
// tokens burned.
func (e *Engine) Liquidate(target crypto.Address, requested *big.Int) (*big.Int, *big.Int, error) {
	if err := e.begin(); err != nil {
		return nil, nil, err
	}
	defer e.end()

	if requested == nil || requested.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	if e.token == nil {
		return nil, nil, errNilDebtToken
	}
	if e.oracle == nil {
		return nil, nil, errNilOracle
	}

	pos, err := e.ensurePosition(target)
	if err != nil {
		return nil, nil, err
	}
	debt, err := e.token.BalanceOf(target)
	if err != nil {
		return nil, nil, fmt.Errorf("lending engine: debt balance lookup: %w", err)
	}
	if debt == nil {
		debt = big.NewInt(0)
	}

	hf, err := e.healthFactor(pos.Collateral, debt)
	if err != nil {
		return nil, nil, err
	}
	if hf.Cmp(MinHealthFactor) >= 0 {
		return nil, nil, ErrHealthFactorIsOk
	}

	seize := minBig(requested, pos.Collateral)
	ratio := new(big.Int).SetUint64(e.params.CollateralizationRatio)
	burn := mulDiv(seize, borrowPrecision, ratio)
	if debt.Cmp(burn) < 0 {
		return nil, nil, ErrInsufficientDebtTokens
	}

	pool, err := e.ensurePool()
	if err != nil {
		return nil, nil, err
	}
	prevPos := pos.Clone()
	prevPool := pool.Clone()

	pos.Collateral = new(big.Int).Sub(pos.Collateral, seize)
	pool.TotalCollateral = subClamped(pool.TotalCollateral, seize)
	pool.TotalDebt = subClamped(pool.TotalDebt, burn)

	if err := e.state.PutPosition(pos); err != nil {
		return nil, nil, err
	}
	if err := e.state.PutPoolState(pool); err != nil {
		if perr := e.state.PutPosition(prevPos); perr != nil {
			return nil, nil, errors.Join(err, perr)
		}
		return nil, nil, err
	}

	if burn.Sign() > 0 {
		if err := e.token.Burn(target, burn); err != nil {
			if perr := e.state.PutPosition(prevPos); perr != nil {
				return nil, nil, errors.Join(err, perr)
			}
			if perr := e.state.PutPoolState(prevPool); perr != nil {
				return nil, nil, errors.Join(err, perr)
			}
			return nil, nil, fmt.Errorf("lending engine: debt token burn: %w", err)
		}
	}

	e.emit(events.CollateralLiquidated{
		User:         addr20(target),
		Collateral:   new(big.Int).Set(seize),
		TokensBurned: new(big.Int).Set(burn),
	})
	return seize, burn, nil
}

// HealthFactor computes the risk score for the user's position against a
// fresh oracle read. Positions with no debt report the maximum sentinel and
// can never be liquidated.
func (e *Engine) HealthFactor(user crypto.Address) (*big.Int, error) {
	if err := e.beginRead(); err != nil {
		return nil, err
	}
	defer e.endRead()

	if e.token == nil {
		return nil, errNilDebtToken
	}
	pos, err := e.ensurePosition(user)
	if err != nil {
		return nil, err
	}
	debt, err := e.token.BalanceOf(user)
	if err != nil {
		return nil, fmt.Errorf("lending engine: debt balance lookup: %w", err)
	}
	return e.healthFactor(pos.Collateral, debt)
}

// CollateralOf returns the user's recorded collateral balance. Unknown users
// report zero.
func (e *Engine) CollateralOf(user crypto.Address) (*big.Int, error) {
	if err := e.beginRead(); err != nil {
		return nil, err
	}
	defer e.endRead()

	pos, err := e.ensurePosition(user)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(pos.Collateral), nil
}

// DebtOf proxies the external debt-token balance for the user.
func (e *Engine) DebtOf(user crypto.Address) (*big.Int, error) {
	if err := e.beginRead(); err != nil {
		return nil, err
	}
	defer e.endRead()

	if e.token == nil {
		return nil, errNilDebtToken
	}
	debt, err := e.token.BalanceOf(user)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(debt), nil
}

// Snapshot reports the advisory pool aggregates together with the derived
// utilization and borrow rate.
func (e *Engine) Snapshot() (*PoolSnapshot, error) {
	if err := e.beginRead(); err != nil {
		return nil, err
	}
	defer e.endRead()

	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	utilization := e.interestModel.Utilization(pool.TotalDebt, pool.TotalCollateral)
	return &PoolSnapshot{
		TotalCollateral: new(big.Int).Set(pool.TotalCollateral),
		TotalDebt:       new(big.Int).Set(pool.TotalDebt),
		Utilization:     utilization,
		BorrowRate:      e.interestModel.Rate(utilization),
	}, nil
}

// InterestRate evaluates the configured curve at the given utilization
// percentage.
func (e *Engine) InterestRate(utilization uint64) uint64 {
	return e.interestModel.Rate(utilization)
}

func (e *Engine) healthFactor(collateral, debt *big.Int) (*big.Int, error) {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(MaxHealthFactor), nil
	}
	if e.oracle == nil {
		return nil, errNilOracle
	}
	quote, err := e.oracle.LatestPrice()
	if err != nil {
		return nil, fmt.Errorf("lending engine: oracle read: %w", err)
	}
	if collateral == nil {
		collateral = big.NewInt(0)
	}
	collateralValue := mulDiv(collateral, quote.Value, pow10(quote.Decimals))

	threshold := new(big.Int).SetUint64(e.params.LiquidationThreshold)
	num := new(big.Int).Mul(collateralValue, threshold)
	num.Mul(num, hfPrecision)
	den := new(big.Int).Mul(liquidationPrecision, debt)
	return num.Quo(num, den), nil
}

func (e *Engine) unmint(user crypto.Address, amount *big.Int, cause error) error {
	if err := e.token.Burn(user, amount); err != nil {
		return errors.Join(cause, fmt.Errorf("lending engine: rollback burn: %w", err))
	}
	return cause
}

func (e *Engine) ensurePosition(addr crypto.Address) (*Position, error) {
	pos, err := e.state.GetPosition(addr)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &Position{Address: addr}
	}
	if pos.Collateral == nil {
		pos.Collateral = big.NewInt(0)
	}
	return pos, nil
}

func (e *Engine) ensurePool() (*PoolState, error) {
	pool, err := e.state.GetPoolState()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = &PoolState{}
	}
	if pool.TotalCollateral == nil {
		pool.TotalCollateral = big.NewInt(0)
	}
	if pool.TotalDebt == nil {
		pool.TotalDebt = big.NewInt(0)
	}
	return pool, nil
}

func (e *Engine) emit(event events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func subClamped(a, b *big.Int) *big.Int {
	out := new(big.Int).Sub(a, b)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}

func addr20(addr crypto.Address) [20]byte {
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out
}
