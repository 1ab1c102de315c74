package server

import (
	"errors"
	"net/http"

	nativecommon "lendvault/native/common"
	"lendvault/native/lending"
	"lendvault/native/token"
)

// apiError is the JSON error envelope returned to callers.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps ledger errors onto HTTP statuses and stable error codes.
func classify(err error) (int, apiError) {
	switch {
	case errors.Is(err, lending.ErrInvalidAmount):
		return http.StatusBadRequest, apiError{Code: "invalid_amount", Message: err.Error()}
	case errors.Is(err, lending.ErrAmountMismatch):
		return http.StatusBadRequest, apiError{Code: "amount_mismatch", Message: err.Error()}
	case errors.Is(err, lending.ErrInsufficientBalance):
		return http.StatusConflict, apiError{Code: "insufficient_balance", Message: err.Error()}
	case errors.Is(err, lending.ErrOutstandingDebt):
		return http.StatusConflict, apiError{Code: "outstanding_debt", Message: err.Error()}
	case errors.Is(err, lending.ErrAmountTooHigh):
		return http.StatusUnprocessableEntity, apiError{Code: "amount_too_high", Message: err.Error()}
	case errors.Is(err, lending.ErrHealthFactorTooLow):
		return http.StatusUnprocessableEntity, apiError{Code: "health_factor_too_low", Message: err.Error()}
	case errors.Is(err, lending.ErrHealthFactorIsOk):
		return http.StatusConflict, apiError{Code: "health_factor_ok", Message: err.Error()}
	case errors.Is(err, lending.ErrInsufficientDebtTokens):
		return http.StatusConflict, apiError{Code: "insufficient_debt_tokens", Message: err.Error()}
	case errors.Is(err, lending.ErrTransferFailed):
		return http.StatusBadGateway, apiError{Code: "transfer_failed", Message: err.Error()}
	case errors.Is(err, lending.ErrNoPrice), errors.Is(err, lending.ErrStalePrice):
		return http.StatusServiceUnavailable, apiError{Code: "oracle_unavailable", Message: err.Error()}
	case errors.Is(err, token.ErrInsufficientBalance):
		return http.StatusConflict, apiError{Code: "insufficient_funds", Message: err.Error()}
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable, apiError{Code: "module_paused", Message: err.Error()}
	case errors.Is(err, nativecommon.ErrReentrantCall):
		return http.StatusConflict, apiError{Code: "call_in_progress", Message: err.Error()}
	default:
		return http.StatusInternalServerError, apiError{Code: "internal", Message: err.Error()}
	}
}
