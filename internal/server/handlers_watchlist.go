package server

import (
	"net/http"
)

// tickerRequest is the body for watchlist and global ticker adds.
type tickerRequest struct {
	Ticker string `json:"ticker"`
}

// routeWatchlists dispatches /api/watchlists/{user} and
// /api/watchlists/{user}/tickers[/{ticker}].
func (s *Server) routeWatchlists(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/watchlists/")

	switch {
	case len(segments) == 1:
		s.handleWatchlistGet(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "tickers":
		s.handleWatchlistAdd(w, r, segments[0])
	case len(segments) == 3 && segments[1] == "tickers":
		s.handleWatchlistRemove(w, r, segments[0], segments[2])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// handleWatchlistGet handles GET /api/watchlists/{user}.
func (s *Server) handleWatchlistGet(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tickers, err := s.app.Watch.GetTickers(r.Context(), userID)
	if err != nil {
		s.logger.Error().Str("user_id", userID).Err(err).Msg("Watchlist lookup failed")
		WriteError(w, http.StatusInternalServerError, "Failed to load watchlist")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"tickers": tickers,
	})
}

// handleWatchlistAdd handles POST /api/watchlists/{user}/tickers.
func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req tickerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := s.app.Watch.AddTicker(r.Context(), userID, req.Ticker); err != nil {
		s.logger.Error().Str("user_id", userID).Str("ticker", req.Ticker).Err(err).Msg("Watchlist add failed")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tickers, err := s.app.Watch.GetTickers(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to load watchlist")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"tickers": tickers,
	})
}

// handleWatchlistRemove handles DELETE /api/watchlists/{user}/tickers/{ticker}.
func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request, userID, ticker string) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	if err := s.app.Watch.RemoveTicker(r.Context(), userID, ticker); err != nil {
		s.logger.Error().Str("user_id", userID).Str("ticker", ticker).Err(err).Msg("Watchlist remove failed")
		WriteError(w, http.StatusInternalServerError, "Failed to update watchlist")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
