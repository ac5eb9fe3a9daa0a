package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldapp/internal/database"
	"yieldapp/internal/model"
)

const testJWTSecret = "test-secret"
const testAdminKey = "test-admin-key"

type testEnv struct {
	db     *database.Database
	server *httptest.Server
}

func testConfig() model.Config {
	return model.Config{
		InvestmentPlans: map[string]model.InvestmentPlanConfig{
			"starter": {WeeklyPercent: 2.5, MinAmount: 100, LockPeriod: 0},
			"growth":  {WeeklyPercent: 4.0, MinAmount: 1000, LockPeriod: 30},
		},
		Fees: model.FeeScheduleConfig{
			NetworkPercent:   1.5,
			NetworkMinimum:   5,
			CollectionWallet: "FEE_WALLET_ADDRESS_000000000000",
		},
		AdminAPIKey: testAdminKey,
		RateLimit:   model.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000},
	}
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.New(fmt.Sprintf("file:h_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	db.DB().SetMaxIdleConns(1)

	h, err := NewHandlerWithConfig(db, testConfig())
	require.NoError(t, err)

	server := httptest.NewServer(NewRouter(h, testJWTSecret))
	t.Cleanup(func() {
		server.Close()
		db.Close()
	})

	return &testEnv{db: db, server: server}
}

func (e *testEnv) seedUser(t *testing.T, balance float64) (*model.User, string) {
	t.Helper()

	// CreateUser returns the existing account for a known pub key, so every
	// seeded user needs a fresh one.
	user, err := e.db.CreateUser("pk-" + uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, e.db.UpdateUserBalance(user.ID, balance))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	return user, token
}

func (e *testEnv) request(t *testing.T, method, path, token, body string) (*http.Response, model.Response) {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope model.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func (e *testEnv) adminRequest(t *testing.T, method, path, body string) (*http.Response, model.Response) {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", testAdminKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope model.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func (e *testEnv) setPin(t *testing.T, token, pin string) {
	t.Helper()
	resp, _ := e.request(t, http.MethodPost, "/api/withdrawal/set-withdrawal-pin", token, fmt.Sprintf(`{"pin":%q}`, pin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	env := setupTest(t)

	resp, envelope := env.request(t, http.MethodGet, "/api/user/withdrawals", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, envelope.Success)
	assert.Equal(t, "unauthorized", envelope.Error)
}

func TestWithdrawalHistoryEmptyIsArray(t *testing.T) {
	env := setupTest(t)
	_, token := env.seedUser(t, 0)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/user/withdrawals", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, "[]", strings.TrimSpace(string(raw.Data)))
}

func TestSubmitWithdrawalFlow(t *testing.T) {
	env := setupTest(t)
	user, token := env.seedUser(t, 1000)
	env.setPin(t, token, "1234")

	// Wrong PIN is refused before any balance moves.
	resp, envelope := env.request(t, http.MethodPost, "/api/withdrawal", token,
		`{"amount":200,"currency":"USDT","network":"TRC20","address":"TXk3mYEWk2cCVHYGpoqyhGEC5nDXbocdyz","pin":"9999"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, envelope.Success)

	resp, envelope = env.request(t, http.MethodPost, "/api/withdrawal", token,
		`{"amount":200,"currency":"USDT","network":"TRC20","address":"TXk3mYEWk2cCVHYGpoqyhGEC5nDXbocdyz","pin":"1234"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, envelope.Success)

	updated, err := env.db.GetUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 800.0, updated.Balance)

	// Bad destination address never reaches the database.
	resp, _ = env.request(t, http.MethodPost, "/api/withdrawal", token,
		`{"amount":50,"currency":"TON","network":"TON","address":"nope","pin":"1234"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitWithdrawalRequiresPin(t *testing.T) {
	env := setupTest(t)
	_, token := env.seedUser(t, 1000)

	resp, envelope := env.request(t, http.MethodPost, "/api/withdrawal", token,
		`{"amount":200,"currency":"USDT","network":"TRC20","address":"TXk3mYEWk2cCVHYGpoqyhGEC5nDXbocdyz","pin":"1234"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "withdrawal pin not set", envelope.Error)
}

// The full fee-gating scenario: a processing withdrawal with an unpaid fee is
// listed as payable, the payment claim transitions it, and the response
// carries the withdrawal ID with the fixed post-payment status.
func TestNetworkFeePaymentScenario(t *testing.T) {
	env := setupTest(t)
	user, token := env.seedUser(t, 1000)
	env.setPin(t, token, "1234")

	resp, _ := env.request(t, http.MethodPost, "/api/withdrawal", token,
		`{"amount":50,"currency":"USDT","network":"TRC20","address":"TXk3mYEWk2cCVHYGpoqyhGEC5nDXbocdyz","pin":"1234"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	list, err := env.db.GetUserWithdrawals(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	withdrawalID := list[0].ID

	// Not payable while pending.
	resp, _ = env.request(t, http.MethodPost, "/api/withdrawal/"+withdrawalID+"/pay-network-fee", token,
		`{"transaction_id":"abc123"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	_, adminResp := env.adminRequest(t, http.MethodPut, "/api/admin/withdrawals/status",
		fmt.Sprintf(`{"ids":%q,"status":"processing"}`, withdrawalID))
	require.True(t, adminResp.Success)

	// Listed as fee-payable now.
	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/user/withdrawals", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer listResp.Body.Close()

	var listEnvelope struct {
		Data []model.WithdrawalView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listEnvelope))
	require.Len(t, listEnvelope.Data, 1)
	assert.True(t, listEnvelope.Data[0].FeePayable)
	assert.Equal(t, "refresh", listEnvelope.Data[0].StatusInfo.Icon)

	resp, envelope := env.request(t, http.MethodPost, "/api/withdrawal/"+withdrawalID+"/pay-network-fee", token,
		`{"transaction_id":"abc123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, withdrawalID, data["withdrawal_id"])
	assert.Equal(t, string(model.WithdrawalPending), data["status"])

	// Second claim is rejected, not re-applied.
	resp, envelope = env.request(t, http.MethodPost, "/api/withdrawal/"+withdrawalID+"/pay-network-fee", token,
		`{"transaction_id":"abc124"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "fee already paid", envelope.Error)
}

func TestPayNetworkFeeValidation(t *testing.T) {
	env := setupTest(t)
	user, token := env.seedUser(t, 1000)

	// Empty transaction ID fails fast.
	resp, _ := env.request(t, http.MethodPost, "/api/withdrawal/some-id/pay-network-fee", token,
		`{"transaction_id":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Generic route without a withdrawal ID fails fast with no side effects.
	resp, envelope := env.request(t, http.MethodPost, "/api/fees/pay-network", token,
		`{"transaction_id":"abc123"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "withdrawal_id is required for network fee payments", envelope.Error)

	n, err := env.db.OperationCount(user.ID, model.OperationTypeFeePayment)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAssessedFeeFlow(t *testing.T) {
	env := setupTest(t)
	user, token := env.seedUser(t, 1000)

	// Nothing outstanding yet.
	resp, _ := env.request(t, http.MethodPost, "/api/fees/pay-activation", token, `{"transaction_id":"t1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, adminResp := env.adminRequest(t, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/fees", user.ID),
		`{"type":"activation","amount":50,"reason":"Account activation required before withdrawals"}`)
	require.True(t, adminResp.Success)

	resp, envelope := env.request(t, http.MethodPost, "/api/fees/pay-activation", token, `{"transaction_id":"t1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "Account Activation Fee", data["title"])

	// Paying again is an error, not a silent success.
	resp, _ = env.request(t, http.MethodPost, "/api/fees/pay-activation", token, `{"transaction_id":"t2"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWithdrawROIGatedByFees(t *testing.T) {
	env := setupTest(t)
	user, token := env.seedUser(t, 1000)

	resp, envelope := env.request(t, http.MethodPost, "/api/investment", token,
		`{"plan":"starter","amount":500}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, envelope.Success)

	investments, err := env.db.GetUserInvestments(user.ID)
	require.NoError(t, err)
	require.Len(t, investments, 1)
	invID := investments[0].ID

	// Backdate the investment four weeks and assess a tax-clearance fee.
	_, err = env.db.DB().Exec("UPDATE investments SET created_at = ? WHERE id = ?",
		time.Now().AddDate(0, 0, -28).Unix(), invID)
	require.NoError(t, err)
	_, err = env.db.AssessFee(user.ID, model.FeeTaxClearance, 25, "Clearance required on accumulated profit")
	require.NoError(t, err)

	resp, envelope = env.request(t, http.MethodPost, fmt.Sprintf("/api/investment/withdraw-roi/%d", invID), token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, envelope.Success)

	data := envelope.Data.(map[string]interface{})
	tax := data["tax_clearance_fee"].(map[string]interface{})
	assert.Equal(t, true, tax["required"])
	assert.Equal(t, 25.0, tax["amount"])
	activation := data["activation_fee"].(map[string]interface{})
	_, hasRequired := activation["required"]
	assert.False(t, hasRequired && activation["required"] == true)

	// Pay the fee, then the ROI withdrawal goes through.
	resp, _ = env.request(t, http.MethodPost, "/api/fees/pay-tax-clearance", token, `{"transaction_id":"t1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope = env.request(t, http.MethodPost, fmt.Sprintf("/api/investment/withdraw-roi/%d", invID), token, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, envelope.Success)

	view := envelope.Data.(map[string]interface{})
	assert.Equal(t, "roi", view["type"])
	assert.Equal(t, 50.0, view["amount"]) // 500 * 2.5% * 4 weeks
	assert.Equal(t, "ROI Withdrawal", view["label"])

	// Accrued ROI is now consumed.
	resp, envelope = env.request(t, http.MethodPost, fmt.Sprintf("/api/investment/withdraw-roi/%d", invID), token, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient accrued ROI", envelope.Error)
}

func TestGetInvestmentSnapshot(t *testing.T) {
	env := setupTest(t)
	user, token := env.seedUser(t, 1000)

	inv, err := env.db.CreateInvestment(user.ID, "starter", 500)
	require.NoError(t, err)
	_, err = env.db.DB().Exec("UPDATE investments SET created_at = ? WHERE id = ?",
		time.Now().AddDate(0, 0, -14).Unix(), inv.ID)
	require.NoError(t, err)

	resp, envelope := env.request(t, http.MethodGet, fmt.Sprintf("/api/portfolio/investment/%d", inv.ID), token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, 25.0, data["accrued_roi"]) // 500 * 2.5% * 2 weeks
	assert.Equal(t, false, data["locked"])

	// Another user's investment reads as not found.
	other, otherToken := env.seedUser(t, 0)
	require.NotEqual(t, user.ID, other.ID)
	resp, _ = env.request(t, http.MethodGet, fmt.Sprintf("/api/portfolio/investment/%d", inv.ID), otherToken, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminBulkUpdateAcceptsScalarAndArray(t *testing.T) {
	env := setupTest(t)
	user, token := env.seedUser(t, 1000)
	env.setPin(t, token, "1234")

	for i := 0; i < 2; i++ {
		resp, _ := env.request(t, http.MethodPost, "/api/withdrawal", token,
			`{"amount":50,"currency":"USDT","network":"TRC20","address":"TXk3mYEWk2cCVHYGpoqyhGEC5nDXbocdyz","pin":"1234"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	list, err := env.db.GetUserWithdrawals(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Scalar id.
	_, envelope := env.adminRequest(t, http.MethodPut, "/api/admin/withdrawals/status",
		fmt.Sprintf(`{"ids":%q,"status":"processing"}`, list[0].ID))
	require.True(t, envelope.Success)

	// Array with one record that cannot make the transition.
	_, envelope = env.adminRequest(t, http.MethodPut, "/api/admin/withdrawals/status",
		fmt.Sprintf(`{"ids":[%q,%q],"status":"confirmed"}`, list[0].ID, list[1].ID))
	require.True(t, envelope.Success)

	data := envelope.Data.(map[string]interface{})
	updated := data["updated"].([]interface{})
	rejected := data["rejected"].([]interface{})
	assert.Len(t, updated, 1)
	assert.Len(t, rejected, 1)
	assert.Equal(t, list[0].ID, updated[0])
}

func TestAdminAuthRequired(t *testing.T) {
	env := setupTest(t)

	req, err := http.NewRequest(http.MethodPut, env.server.URL+"/api/admin/withdrawals/status",
		strings.NewReader(`{"ids":[],"status":"processing"}`))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "wrong")
	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOperationHistory(t *testing.T) {
	env := setupTest(t)
	_, token := env.seedUser(t, 1000)
	env.setPin(t, token, "1234")

	resp, _ := env.request(t, http.MethodPost, "/api/withdrawal", token,
		`{"amount":100,"currency":"USDT","network":"TRC20","address":"TXk3mYEWk2cCVHYGpoqyhGEC5nDXbocdyz","pin":"1234"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, envelope := env.request(t, http.MethodGet, "/api/user/operations?page=1&page_size=10", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, 1.0, data["total"])
	ops := data["operations"].([]interface{})
	require.Len(t, ops, 1)
	op := ops[0].(map[string]interface{})
	assert.Equal(t, string(model.OperationTypeWithdrawal), op["type"])
	assert.Equal(t, 100.0, op["amount"])
}

func TestPinResetFlow(t *testing.T) {
	env := setupTest(t)
	user, token := env.seedUser(t, 0)
	env.setPin(t, token, "1234")

	resp, _ := env.request(t, http.MethodPost, "/api/withdrawal/request-pin-reset", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The code is delivered out of band; read it from storage for the test.
	var code string
	require.NoError(t, env.db.DB().QueryRow("SELECT pin_reset_code FROM users WHERE id = ?", user.ID).Scan(&code))
	require.NotEmpty(t, code)

	resp, _ = env.request(t, http.MethodPost, "/api/withdrawal/reset-pin", token,
		fmt.Sprintf(`{"reset_code":%q,"new_pin":"5678"}`, code))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.request(t, http.MethodPost, "/api/withdrawal/verify-pin", token, `{"pin":"5678"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.request(t, http.MethodPost, "/api/withdrawal/verify-pin", token, `{"pin":"1234"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
