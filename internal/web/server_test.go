package web

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtf-simulator/internal/simulator"
	"mtf-simulator/internal/simulator/simulatorobs"
	"mtf-simulator/internal/store"
	"mtf-simulator/internal/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := store.DefaultConfig()
	reg := prometheus.NewRegistry()

	s, err := New(Config{
		Simulator: simulatorobs.Wrap(simulator.FromConfig(cfg), simulatorobs.NewMetrics(reg)),
		Defaults:  cfg.DefaultParameters(),
		Gatherer:  reg,
	})
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndexShowsDefaultScenario(t *testing.T) {
	rec := do(t, newTestServer(t), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="NSE:ITC"`)
	assert.Contains(t, body, "416.01")
	assert.Contains(t, body, `data-mode="MTF"`)
	assert.Contains(t, body, "Ideal Holding Days to Breakeven: 39")
	assert.Equal(t, 2, strings.Count(body, `<div class="chart"><svg`))
	assert.NotContains(t, body, "no data")
}

func TestIndexFormSubmission(t *testing.T) {
	form := url.Values{
		"symbol":       {"NSE:TCS"},
		"ltp":          {"100"},
		"investment":   {"100000"},
		"exposure":     {"1"},
		"target_price": {"110"},
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := do(t, newTestServer(t), req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="NSE:TCS"`)
	assert.Contains(t, body, `data-mode="CNC"`)
	assert.Contains(t, body, "Ideal Holding Days to Breakeven: undefined")
}

func TestIndexValidationErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?ltp=0&holding_days=-4", nil)
	rec := do(t, newTestServer(t), req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ltp: must be greater than 0")
	assert.Contains(t, body, "holding_days: must not be negative")
	assert.NotContains(t, body, `class="chart"`)
}

func TestAPIDefaults(t *testing.T) {
	rec := do(t, newTestServer(t), httptest.NewRequest(http.MethodGet, "/api/defaults", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var p types.TradeParameters
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, store.DefaultConfig().DefaultParameters(), p)
}

func TestAPISimulate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(`{"holding_days": 30}`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, newTestServer(t), req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res types.SimulationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	assert.InDelta(t, 1_000_000, res.Economics.TotalPosition, 1e-6)
	require.NotNil(t, res.Economics.BreakevenPriceLeveraged)
	assert.InDelta(t, 416.0073768, *res.Economics.BreakevenPriceLeveraged, 1e-6)
	assert.Equal(t, types.ModeLeveraged, res.Recommendation.Mode)
	assert.Len(t, res.Sweep, 41)
}

func TestAPISimulateUndefinedFieldsAreNull(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(`{"exposure": 1}`))
	rec := do(t, newTestServer(t), req)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Economics map[string]any `json:"economics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw.Economics, "ideal_breakeven_days")
	assert.Nil(t, raw.Economics["ideal_breakeven_days"])
}

func TestAPISimulateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative ltp", `{"ltp": -1}`},
		{"unknown field", `{"price": 1}`},
		{"malformed", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(tt.body))
			rec := do(t, newTestServer(t), req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestAPISimulateRejectsOverflowingResult(t *testing.T) {
	// A valid but tiny LTP makes quantity and P&L overflow to infinity.
	req := httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(`{"ltp": 1e-300}`))
	rec := do(t, newTestServer(t), req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errNonFinite, resp.Error)
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]float64{"roi": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to encode response"}`, rec.Body.String())
}

func TestAPISweepCSV(t *testing.T) {
	rec := do(t, newTestServer(t), httptest.NewRequest(http.MethodGet, "/api/sweep.csv?ltp=100&investment=1000&exposure=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 42)
	assert.Equal(t, "80.00", records[1][0])
	assert.Equal(t, "120.00", records[41][0])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mtf_simulations_total{recommendation="MTF"} 1`)
}

type failingSimulator struct{}

func (failingSimulator) Simulate(context.Context, types.TradeParameters) (*types.SimulationResult, error) {
	return nil, errors.New("boom")
}

func TestSimulatorFailure(t *testing.T) {
	s, err := New(Config{Simulator: failingSimulator{}, Defaults: store.DefaultConfig().DefaultParameters()})
	require.NoError(t, err)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics are off without a gatherer")
}
