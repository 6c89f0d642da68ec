package server

import (
	"net/http"
	"time"

	"alphatalk/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Analyses
	mux.HandleFunc("/api/analyses/", s.routeAnalyses)

	// Watchlists
	mux.HandleFunc("/api/watchlists/", s.routeWatchlists)

	// Global tickers
	mux.HandleFunc("/api/tickers", s.handleTickers)
	mux.HandleFunc("/api/tickers/", s.handleTickerDelete)

	// Admin
	mux.HandleFunc("/api/admin/purge", s.handleAdminPurge)
	mux.HandleFunc("/api/admin/sweep", s.handleAdminSweep)

	// Refresh event stream
	mux.HandleFunc("/api/ws/refresh", s.app.Hub.ServeWS)
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"uptime":     time.Since(s.app.StartupTime).Round(time.Second).String(),
		"ws_clients": s.app.Hub.ClientCount(),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
