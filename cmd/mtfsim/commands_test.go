package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtf-simulator/internal/collector"
	"mtf-simulator/internal/types"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_TRACING_ENABLED", "false")
	out, _, err := executeWithDiag(t, args...)
	return out, err
}

func executeWithDiag(t *testing.T, args ...string) (out, diag string, err error) {
	t.Helper()
	t.Setenv("MTF_SERVER_ADDR", "")

	var outBuf, diagBuf bytes.Buffer
	cmd := newRootCmd(&outBuf, &diagBuf)
	cmd.SetErr(&bytes.Buffer{})
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	cmd.SetArgs(append(args, "--config", missing))
	err = cmd.Execute()
	return outBuf.String(), diagBuf.String(), err
}

func TestSimulateText(t *testing.T) {
	out, err := execute(t, "simulate")
	require.NoError(t, err)

	assert.Contains(t, out, "NSE:ITC @ 412.80")
	assert.Contains(t, out, "416.01")
	assert.Contains(t, out, "[MTF]")
}

func TestSimulateJSONWithOverrides(t *testing.T) {
	out, err := execute(t, "simulate", "--json",
		"--symbol", "NSE:TCS", "--ltp", "100", "--investment", "100000", "--exposure", "1", "--target_price", "110")
	require.NoError(t, err)

	var res types.SimulationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "NSE:TCS", res.Parameters.Symbol)
	assert.Equal(t, 30, res.Parameters.HoldingDays, "unset flags keep config defaults")
	assert.InDelta(t, 185.2, res.Economics.CostsCashMode, 1e-9)
	assert.Nil(t, res.Economics.IdealBreakevenDays)
	assert.Equal(t, types.ModeCash, res.Recommendation.Mode)
}

func TestSimulateRejectsInvalidFlags(t *testing.T) {
	_, err := execute(t, "simulate", "--ltp", "0", "--holding_days", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, collector.ErrInvalidInput)
	assert.Contains(t, err.Error(), "holding_days")
}

func TestSimulateJSONRejectsOverflow(t *testing.T) {
	_, err := execute(t, "simulate", "--json", "--ltp", "1e-300")
	assert.ErrorIs(t, err, errNonFinite)
}

func TestFailedCommandStillFlushesSpans(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "true")
	t.Setenv("LOG_TRACE_SAMPLE_RATIO", "1")

	_, diag, err := executeWithDiag(t, "simulate", "--ltp", "-1")
	require.Error(t, err)
	assert.Contains(t, diag, `"Name": "cli.simulate"`)
	assert.Contains(t, diag, "Operation failed")
}

func TestSweepToStdout(t *testing.T) {
	out, err := execute(t, "sweep", "--ltp", "100")
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewBufferString(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 42)
	assert.Equal(t, []string{"price", "pnl_cnc", "pnl_mtf", "roi_cnc_pct", "roi_mtf_pct"}, records[0])
	assert.Equal(t, "100.00", records[21][0])
}

func TestSweepToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.csv")
	out, err := execute(t, "sweep", "--out", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 42, bytes.Count(b, []byte("\n")))
}

func TestBadConfigFails(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "false")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sweep:\n  low_pct: 120\n  high_pct: 80\n  step_pct: 1\n"), 0o644))

	cmd := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"simulate", "--config", path})
	assert.Error(t, cmd.Execute())
}
