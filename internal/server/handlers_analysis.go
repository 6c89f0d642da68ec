package server

import (
	"net/http"

	"alphatalk/internal/models"
)

// routeAnalyses dispatches /api/analyses/{ticker} and
// /api/analyses/{ticker}/refresh.
func (s *Server) routeAnalyses(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/analyses/")

	switch {
	case len(segments) == 1:
		s.handleAnalysisGet(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "refresh":
		s.handleAnalysisRefresh(w, r, segments[0])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// handleAnalysisGet handles GET /api/analyses/{ticker}. A fresh record
// (error records included) returns 200; a scheduled or running refresh
// returns 202 with the state to poll on.
func (s *Server) handleAnalysisGet(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if models.NormalizeTicker(ticker) == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	status, err := s.app.Coordinator.Status(r.Context(), ticker)
	if err != nil {
		s.logger.Error().Str("ticker", ticker).Err(err).Msg("Status lookup failed")
		WriteError(w, http.StatusInternalServerError, "Failed to resolve analysis status")
		return
	}

	code := http.StatusOK
	if status.Record == nil {
		code = http.StatusAccepted
	}
	WriteJSON(w, code, status)
}

// handleAnalysisRefresh handles POST /api/analyses/{ticker}/refresh.
func (s *Server) handleAnalysisRefresh(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	normalized := models.NormalizeTicker(ticker)
	if normalized == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	state, err := s.app.Coordinator.Request(r.Context(), ticker)
	if err != nil {
		s.logger.Error().Str("ticker", ticker).Err(err).Msg("Refresh request failed")
		WriteError(w, http.StatusInternalServerError, "Failed to request refresh")
		return
	}

	code := http.StatusAccepted
	if state == models.RefreshStateFresh {
		code = http.StatusOK
	}
	WriteJSON(w, code, map[string]string{
		"ticker": normalized,
		"state":  string(state),
	})
}
