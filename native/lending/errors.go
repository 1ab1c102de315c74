package lending

import "errors"

var (
	// ErrAmountMismatch signals a deposit whose declared amount does not match
	// the value actually transferred alongside the call.
	ErrAmountMismatch = errors.New("lending engine: deposited amount does not match paid amount")
	// ErrInsufficientBalance signals a withdrawal or borrow attempted against
	// insufficient collateral.
	ErrInsufficientBalance = errors.New("lending engine: insufficient collateral balance")
	// ErrOutstandingDebt signals a withdrawal attempted while debt tokens
	// remain outstanding.
	ErrOutstandingDebt = errors.New("lending engine: outstanding debt blocks withdrawal")
	// ErrAmountTooHigh signals a borrow request above the collateralization
	// ceiling.
	ErrAmountTooHigh = errors.New("lending engine: requested amount exceeds borrow ceiling")
	// ErrHealthFactorTooLow signals a borrow that would leave the position
	// unhealthy.
	ErrHealthFactorTooLow = errors.New("lending engine: health factor below minimum")
	// ErrHealthFactorIsOk signals a liquidation attempted against a healthy
	// position.
	ErrHealthFactorIsOk = errors.New("lending engine: position is not liquidatable")
	// ErrInsufficientDebtTokens signals a liquidation that would burn more
	// debt than the target holds.
	ErrInsufficientDebtTokens = errors.New("lending engine: target holds fewer debt tokens than required burn")
	// ErrTransferFailed signals that the underlying asset transfer back to a
	// user did not complete.
	ErrTransferFailed = errors.New("lending engine: asset transfer failed")
	// ErrInvalidAmount signals a non-positive operation amount.
	ErrInvalidAmount = errors.New("lending engine: amount must be positive")

	errNilState      = errors.New("lending engine: state not configured")
	errNilDebtToken  = errors.New("lending engine: debt token not configured")
	errNilOracle     = errors.New("lending engine: price oracle not configured")
	errNilCollateral = errors.New("lending engine: asset transfer not configured")
)
