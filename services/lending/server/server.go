package server

import (
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lendvault/crypto"
	"lendvault/native/lending"
	"lendvault/observability/metrics"
)

// Server exposes the lending engine over HTTP.
type Server struct {
	engine  *lending.Engine
	bridge  *AssetBridge
	feed    *lending.ManualFeed
	logger  *slog.Logger
	metrics *metrics.LendingMetrics
	auth    *TokenAuth
}

func New(deps *Deps, logger *slog.Logger, auth *TokenAuth) *Server {
	return &Server{
		engine:  deps.Engine,
		bridge:  deps.Bridge,
		feed:    deps.Feed,
		logger:  logger,
		metrics: metrics.Lending(),
		auth:    auth,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Group(func(pr chi.Router) {
		pr.Use(s.auth.Middleware)
		pr.Post("/v1/collateral/deposit", s.handleDeposit)
		pr.Post("/v1/collateral/withdraw", s.handleWithdraw)
		pr.Post("/v1/borrow", s.handleBorrow)
		pr.Post("/v1/liquidate", s.handleLiquidate)
		pr.Post("/v1/oracle/price", s.handleSetPrice)
		pr.Get("/v1/positions/{account}", s.handlePosition)
		pr.Get("/v1/pool", s.handlePool)
		pr.Get("/v1/rates/{utilization}", s.handleRate)
	})
	return r
}

type amountRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type liquidateRequest struct {
	Target string `json:"target"`
	Amount string `json:"amount"`
}

type priceRequest struct {
	Value    string `json:"value"`
	Decimals uint8  `json:"decimals"`
}

type positionResponse struct {
	Account      string `json:"account"`
	Collateral   string `json:"collateral"`
	Debt         string `json:"debt"`
	HealthFactor string `json:"healthFactor"`
	Liquidatable bool   `json:"liquidatable"`
}

type poolResponse struct {
	TotalCollateral string `json:"totalCollateral"`
	TotalDebt       string `json:"totalDebt"`
	Utilization     uint64 `json:"utilization"`
	BorrowRate      uint64 `json:"borrowRate"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	user, amount, ok := decodeAmountRequest(w, r)
	if !ok {
		return
	}
	if err := s.bridge.Collect(user, amount); err != nil {
		s.fail(w, "deposit", err)
		return
	}
	if err := s.engine.DepositCollateral(user, amount, amount); err != nil {
		if refundErr := s.bridge.Transfer(user, amount); refundErr != nil {
			s.logger.Error("refund after failed deposit", "account", user.String(), "error", refundErr)
		}
		s.fail(w, "deposit", err)
		return
	}
	s.metrics.ObserveOperation("deposit", true)
	s.updateGauges()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	user, amount, ok := decodeAmountRequest(w, r)
	if !ok {
		return
	}
	if err := s.engine.WithdrawCollateral(user, amount); err != nil {
		s.fail(w, "withdraw", err)
		return
	}
	s.metrics.ObserveOperation("withdraw", true)
	s.updateGauges()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	user, amount, ok := decodeAmountRequest(w, r)
	if !ok {
		return
	}
	if err := s.engine.Borrow(user, amount); err != nil {
		s.fail(w, "borrow", err)
		return
	}
	s.metrics.ObserveOperation("borrow", true)
	s.updateGauges()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	var req liquidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_request", Message: "malformed JSON body"})
		return
	}
	target, err := crypto.DecodeAddress(strings.TrimSpace(req.Target))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_account", Message: err.Error()})
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_amount", Message: "amount must be a positive base-10 integer"})
		return
	}
	seized, burned, err := s.engine.Liquidate(target, amount)
	if err != nil {
		s.fail(w, "liquidate", err)
		return
	}
	s.metrics.ObserveOperation("liquidate", true)
	s.metrics.ObserveLiquidation()
	s.updateGauges()
	writeJSON(w, http.StatusOK, map[string]string{
		"seized": seized.String(),
		"burned": burned.String(),
	})
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_request", Message: "malformed JSON body"})
		return
	}
	value, ok := new(big.Int).SetString(strings.TrimSpace(req.Value), 10)
	if !ok || value.Sign() < 0 {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_price", Message: "value must be a non-negative base-10 integer"})
		return
	}
	s.feed.SetPrice(value, req.Decimals)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	account, err := crypto.DecodeAddress(chi.URLParam(r, "account"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_account", Message: err.Error()})
		return
	}
	collateral, err := s.engine.CollateralOf(account)
	if err != nil {
		s.fail(w, "position", err)
		return
	}
	debt, err := s.engine.DebtOf(account)
	if err != nil {
		s.fail(w, "position", err)
		return
	}
	hf, err := s.engine.HealthFactor(account)
	if err != nil {
		s.fail(w, "position", err)
		return
	}
	writeJSON(w, http.StatusOK, positionResponse{
		Account:      account.String(),
		Collateral:   collateral.String(),
		Debt:         debt.String(),
		HealthFactor: hf.String(),
		Liquidatable: hf.Cmp(lending.MinHealthFactor) < 0,
	})
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		s.fail(w, "pool", err)
		return
	}
	writeJSON(w, http.StatusOK, poolResponse{
		TotalCollateral: snap.TotalCollateral.String(),
		TotalDebt:       snap.TotalDebt.String(),
		Utilization:     snap.Utilization,
		BorrowRate:      snap.BorrowRate,
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	utilization, err := strconv.ParseUint(chi.URLParam(r, "utilization"), 10, 64)
	if err != nil || utilization > 100 {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_utilization", Message: "utilization must be an integer within [0,100]"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{
		"utilization": utilization,
		"borrowRate":  s.engine.InterestRate(utilization),
	})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.metrics.ObserveOperation(op, false)
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("lending operation failed", "op", op, "error", err)
	}
	writeJSON(w, status, body)
}

func (s *Server) updateGauges() {
	snap, err := s.engine.Snapshot()
	if err != nil {
		return
	}
	s.metrics.SetUtilization(snap.Utilization)
	total, _ := new(big.Float).SetInt(snap.TotalCollateral).Float64()
	s.metrics.SetTotalCollateral(total)
}

func decodeAmountRequest(w http.ResponseWriter, r *http.Request) (crypto.Address, *big.Int, bool) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_request", Message: "malformed JSON body"})
		return crypto.Address{}, nil, false
	}
	account, err := crypto.DecodeAddress(strings.TrimSpace(req.Account))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_account", Message: err.Error()})
		return crypto.Address{}, nil, false
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_amount", Message: "amount must be a positive base-10 integer"})
		return crypto.Address{}, nil, false
	}
	return account, amount, true
}

func parseAmount(raw string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || amount.Sign() <= 0 {
		return nil, false
	}
	return amount, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
