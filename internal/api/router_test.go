package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game"
	"github.com/wfunc/noodle-rush/internal/game/rng"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    errors.ErrorCode `json:"code"`
		Message string           `json:"message"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return NewRouter(RouterConfig{Service: newTestService(t)}).GetEngine()
}

func newTestService(t *testing.T) *game.GameService {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := state.NewMemoryPersistence()
	store := state.NewStore(state.WithPersistence(mem))
	service := game.NewGameService(&game.GameServiceConfig{
		Store:       store,
		Persistence: mem,
		Settings:    mem,
		Random:      rng.NewScriptedRandomGenerator(),
	})
	service.Recover(context.Background())
	t.Cleanup(service.Close)
	return service
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestGetState(t *testing.T) {
	router := newTestRouter(t)

	code, resp := do(t, router, http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	var doc state.Document
	require.NoError(t, json.Unmarshal(resp.Data, &doc))
	assert.Equal(t, int64(5000), doc.Finances.Funds)
	assert.Equal(t, 1, doc.GameProgress.CurrentPeriod)
}

func TestDeliveryFlow(t *testing.T) {
	router := newTestRouter(t)

	code, resp := do(t, router, http.MethodPost, "/api/v1/delivery/run", nil)
	require.Equal(t, http.StatusOK, code)

	var report game.DeliveryReport
	require.NoError(t, json.Unmarshal(resp.Data, &report))
	assert.Equal(t, int64(1050), report.Result.TotalProfit)

	// 结果阶段不能经营
	code, resp = do(t, router, http.MethodPost, "/api/v1/employees/hire", game.HireRequest{CandidateID: "cand-01"})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrGameStateError, resp.Error.Code)

	code, _ = do(t, router, http.MethodPost, "/api/v1/delivery/return", nil)
	require.Equal(t, http.StatusOK, code)

	code, resp = do(t, router, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, code)
	var status game.StatusInfo
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.Equal(t, int64(6050), status.Funds)
	assert.Equal(t, game.PhaseHub, status.Phase)
}

func TestHireAndFire(t *testing.T) {
	router := newTestRouter(t)

	code, _ := do(t, router, http.MethodPost, "/api/v1/employees/hire", game.HireRequest{CandidateID: "cand-02"})
	require.Equal(t, http.StatusOK, code)

	code, resp := do(t, router, http.MethodPost, "/api/v1/employees/fire", game.EmployeeRequest{EmployeeID: "emp-founder-cook"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, errors.ErrEmployeeProtected, resp.Error.Code)

	code, resp = do(t, router, http.MethodPost, "/api/v1/employees/train", game.EmployeeRequest{EmployeeID: "nobody"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, errors.ErrEmployeeNotFound, resp.Error.Code)
}

func TestValidation(t *testing.T) {
	router := newTestRouter(t)

	code, resp := do(t, router, http.MethodPost, "/api/v1/restaurants/upgrade", map[string]string{
		"restaurant_id": "bar-0",
		"category":      "roof",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errors.ErrInvalidParam, resp.Error.Code)

	code, resp = do(t, router, http.MethodPost, "/api/v1/personal-time", map[string]string{"location": "moon"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errors.ErrInvalidParam, resp.Error.Code)

	code, _ = do(t, router, http.MethodPost, "/api/v1/finances/loan", map[string]int{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSettingsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	settings := state.DefaultSettings()
	settings.SfxVolume = 2
	code, _ := do(t, router, http.MethodPut, "/api/v1/settings", settings)
	assert.Equal(t, http.StatusBadRequest, code)

	settings.SfxVolume = 0.25
	code, _ = do(t, router, http.MethodPut, "/api/v1/settings", settings)
	require.Equal(t, http.StatusOK, code)

	code, resp := do(t, router, http.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, code)
	var loaded state.Settings
	require.NoError(t, json.Unmarshal(resp.Data, &loaded))
	assert.Equal(t, 0.25, loaded.SfxVolume)
}

func TestRunHistoryWithoutRepository(t *testing.T) {
	router := newTestRouter(t)

	code, resp := do(t, router, http.MethodGet, "/api/v1/history/runs", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, errors.ErrNotImplemented, resp.Error.Code)
}

func TestLoanLimitNotBypassedByHugeAmount(t *testing.T) {
	router := newTestRouter(t)

	code, _ := do(t, router, http.MethodPost, "/api/v1/finances/loan", map[string]int64{"amount": 1})
	require.Equal(t, http.StatusOK, code)

	code, resp := do(t, router, http.MethodPost, "/api/v1/finances/loan", map[string]int64{"amount": math.MaxInt64})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, errors.ErrLoanLimitExceeded, resp.Error.Code)

	code, resp = do(t, router, http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusOK, code)
	var doc state.Document
	require.NoError(t, json.Unmarshal(resp.Data, &doc))
	assert.Equal(t, int64(1), doc.Finances.Debt)
	assert.Equal(t, int64(5001), doc.Finances.Funds)
}
