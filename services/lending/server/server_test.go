package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"lendvault/crypto"
	"lendvault/services/lendingd/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAddress(t *testing.T, last byte) crypto.Address {
	t.Helper()
	var raw [20]byte
	raw[19] = last
	return crypto.MustNewAddress(crypto.VaultPrefix, raw[:])
}

func newTestServer(t *testing.T, tokens []string) (*httptest.Server, *Deps) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = ""
	deps, err := Wire(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(deps.Close)
	srv := httptest.NewServer(New(deps, testLogger(), NewTokenAuth(tokens)).Router())
	t.Cleanup(srv.Close)
	return srv, deps
}

func postJSON(t *testing.T, srv *httptest.Server, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestDepositBorrowPositionFlow(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	user := testAddress(t, 1)
	require.NoError(t, deps.Base.Operator().Mint(user, big.NewInt(5_000)))

	resp := postJSON(t, srv, "/v1/collateral/deposit", amountRequest{Account: user.String(), Amount: "1500"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv, "/v1/borrow", amountRequest{Account: user.String(), Amount: "1000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/v1/positions/" + user.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pos := decodeBody[positionResponse](t, resp)
	require.Equal(t, "1500", pos.Collateral)
	require.Equal(t, "1000", pos.Debt)
	require.Equal(t, "1200000000000000000", pos.HealthFactor)
	require.False(t, pos.Liquidatable)

	require.Equal(t, "3500", deps.Base.BalanceOf(user).String())
	require.Equal(t, "1500", deps.Base.BalanceOf(deps.Bridge.Vault()).String())
	require.Equal(t, "1000", deps.Debt.BalanceOf(user).String())

	resp, err = http.Get(srv.URL + "/v1/pool")
	require.NoError(t, err)
	pool := decodeBody[poolResponse](t, resp)
	require.Equal(t, "1500", pool.TotalCollateral)
	require.Equal(t, "1000", pool.TotalDebt)
}

func TestDepositWithoutFunds(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	user := testAddress(t, 2)

	resp := postJSON(t, srv, "/v1/collateral/deposit", amountRequest{Account: user.String(), Amount: "100"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "insufficient_funds", decodeBody[apiError](t, resp).Code)
}

func TestWithdrawBlockedByDebt(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	user := testAddress(t, 3)
	require.NoError(t, deps.Base.Operator().Mint(user, big.NewInt(2_000)))

	resp := postJSON(t, srv, "/v1/collateral/deposit", amountRequest{Account: user.String(), Amount: "1500"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = postJSON(t, srv, "/v1/borrow", amountRequest{Account: user.String(), Amount: "500"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv, "/v1/collateral/withdraw", amountRequest{Account: user.String(), Amount: "100"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "outstanding_debt", decodeBody[apiError](t, resp).Code)
}

func TestLiquidationAfterPriceDrop(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	user := testAddress(t, 4)
	require.NoError(t, deps.Base.Operator().Mint(user, big.NewInt(2_000)))

	resp := postJSON(t, srv, "/v1/collateral/deposit", amountRequest{Account: user.String(), Amount: "1500"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = postJSON(t, srv, "/v1/borrow", amountRequest{Account: user.String(), Amount: "1000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv, "/v1/liquidate", liquidateRequest{Target: user.String(), Amount: "600"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "health_factor_ok", decodeBody[apiError](t, resp).Code)

	resp = postJSON(t, srv, "/v1/oracle/price", priceRequest{Value: "50000000", Decimals: 8})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/v1/positions/" + user.String())
	require.NoError(t, err)
	require.True(t, decodeBody[positionResponse](t, resp).Liquidatable)

	resp = postJSON(t, srv, "/v1/liquidate", liquidateRequest{Target: user.String(), Amount: "600"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[map[string]string](t, resp)
	require.Equal(t, "600", result["seized"])
	require.Equal(t, "400", result["burned"])
	require.Equal(t, "600", deps.Debt.BalanceOf(user).String())
}

func TestBorrowCeilingRejected(t *testing.T) {
	srv, deps := newTestServer(t, nil)
	user := testAddress(t, 5)
	require.NoError(t, deps.Base.Operator().Mint(user, big.NewInt(2_000)))

	resp := postJSON(t, srv, "/v1/collateral/deposit", amountRequest{Account: user.String(), Amount: "1500"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv, "/v1/borrow", amountRequest{Account: user.String(), Amount: "1001"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, "amount_too_high", decodeBody[apiError](t, resp).Code)
	require.Equal(t, "0", deps.Debt.BalanceOf(user).String())
}

func TestInvalidRequests(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	user := testAddress(t, 6)

	resp := postJSON(t, srv, "/v1/collateral/deposit", amountRequest{Account: user.String(), Amount: "-5"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_amount", decodeBody[apiError](t, resp).Code)

	resp = postJSON(t, srv, "/v1/borrow", amountRequest{Account: "not-an-address", Amount: "10"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_account", decodeBody[apiError](t, resp).Code)
}

func TestRateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/v1/rates/90")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rates := decodeBody[map[string]uint64](t, resp)
	require.Equal(t, uint64(12), rates["borrowRate"])

	resp, err = http.Get(srv.URL + "/v1/rates/101")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_utilization", decodeBody[apiError](t, resp).Code)

	resp, err = http.Get(srv.URL + "/v1/rates/18446744073709551615")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_utilization", decodeBody[apiError](t, resp).Code)
}

func TestBearerTokenAuth(t *testing.T) {
	srv, _ := newTestServer(t, []string{"secret-token"})

	resp, err := http.Get(srv.URL + "/v1/pool")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/pool", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", "secret-token"))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Health stays open for probes.
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
