package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"mtf-simulator/internal/chart"
	"mtf-simulator/internal/collector"
	"mtf-simulator/internal/logger"
	"mtf-simulator/internal/report"
	"mtf-simulator/internal/types"
)

const maxBodyBytes = 64 << 10

const errNonFinite = "inputs produce values too large to represent; check ltp and investment"

type indexPage struct {
	Params    types.TradeParameters
	Errors    []collector.FieldError
	Result    *types.SimulationResult
	Tiles     []report.Tile
	Summary   []report.Row
	PnLChart  template.HTML
	ROIChart  template.HTML
	IdealDays string
}

// errorResponse is the JSON body of every API failure.
type errorResponse struct {
	Error  string                 `json:"error"`
	Fields []collector.FieldError `json:"fields,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIndex renders the form and, for valid input, the full result.
// A request without form values shows the configured default scenario.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	params, err := s.collector.FromForm(r.Form, s.defaults)
	page := indexPage{Params: params}
	if err != nil {
		page.Errors = fieldErrors(err)
		logger.Warn(r.Context(), "Rejected form input", "fields", len(page.Errors), "error", err.Error())
		s.renderIndex(w, r, http.StatusUnprocessableEntity, page)
		return
	}

	res, err := s.sim.Simulate(r.Context(), params)
	if err != nil {
		logger.ErrorWithErr(r.Context(), "Simulation failed", err, "symbol", params.Symbol)
		http.Error(w, "simulation failed", http.StatusInternalServerError)
		return
	}

	page.Result = res
	page.Tiles = report.Tiles(res)
	page.Summary = report.Summary(res)
	if page.PnLChart, err = chart.PnL(res.Sweep); err != nil {
		logger.Warn(r.Context(), "P&L chart unavailable", "error", err.Error(), "symbol", params.Symbol)
	}
	if page.ROIChart, err = chart.ROI(res.Sweep); err != nil {
		logger.Warn(r.Context(), "ROI chart unavailable", "error", err.Error(), "symbol", params.Symbol)
	}
	page.IdealDays = report.IdealDays(res.Economics)

	s.renderIndex(w, r, http.StatusOK, page)
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, page indexPage) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, page); err != nil {
		logger.ErrorWithErr(r.Context(), "Failed to render page", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.defaults)
}

// handleSimulate accepts a JSON TradeParameters object. Omitted fields
// take the configured defaults.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	params, err := s.collector.FromJSON(r.Body, s.defaults)
	if err != nil {
		writeInputError(w, r, err)
		return
	}

	res, err := s.sim.Simulate(r.Context(), params)
	if err != nil {
		logger.ErrorWithErr(r.Context(), "Simulation failed", err, "symbol", params.Symbol)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "simulation failed"})
		return
	}
	if !res.Finite() {
		logger.Warn(r.Context(), "Simulation overflowed", "symbol", params.Symbol, "ltp", params.LastTradedPrice)
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Error: errNonFinite})
		return
	}

	writeJSON(w, r, http.StatusOK, res)
}

// handleSweepCSV returns the chart series for the query-string scenario.
func (s *Server) handleSweepCSV(w http.ResponseWriter, r *http.Request) {
	params, err := s.collector.FromForm(r.URL.Query(), s.defaults)
	if err != nil {
		writeInputError(w, r, err)
		return
	}

	res, err := s.sim.Simulate(r.Context(), params)
	if err != nil {
		logger.ErrorWithErr(r.Context(), "Simulation failed", err, "symbol", params.Symbol)
		http.Error(w, "simulation failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteSweepCSV(&buf, res.Sweep); err != nil {
		logger.ErrorWithErr(r.Context(), "Failed to write sweep CSV", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sweep.csv"`)
	_, _ = buf.WriteTo(w)
}

func fieldErrors(err error) []collector.FieldError {
	var verr *collector.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return []collector.FieldError{{Field: "form", Message: err.Error()}}
}

func writeInputError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error()}
	var verr *collector.ValidationError
	if errors.As(err, &verr) {
		resp.Error = collector.ErrInvalidInput.Error()
		resp.Fields = verr.Fields
	}
	writeJSON(w, r, http.StatusBadRequest, resp)
}

// writeJSON encodes v before touching the response so an encoding failure
// can still be reported with an error status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error(r.Context(), "Failed to encode JSON response", "error", err.Error(), "status", status)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
