package server

import (
	"net/http"
)

// handleTickers handles GET and POST /api/tickers. GET returns the
// union the sweep operates on; POST registers a ticker with no owner.
func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		tickers, err := s.app.Watch.WatchedTickers(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("Ticker union failed")
			WriteError(w, http.StatusInternalServerError, "Failed to list tickers")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"tickers": tickers})

	case http.MethodPost:
		var req tickerRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if err := s.app.Watch.AddGlobalTicker(r.Context(), req.Ticker); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.WriteHeader(http.StatusCreated)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleTickerDelete handles DELETE /api/tickers/{ticker}. Removing a
// global ticker is the explicit cleanup for entries no watchlist
// references anymore.
func (s *Server) handleTickerDelete(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	segments := pathSegments(r.URL.Path, "/api/tickers/")
	if len(segments) != 1 {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	if err := s.app.Watch.RemoveGlobalTicker(r.Context(), segments[0]); err != nil {
		s.logger.Error().Str("ticker", segments[0]).Err(err).Msg("Ticker remove failed")
		WriteError(w, http.StatusInternalServerError, "Failed to remove ticker")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
