package server

import (
	"context"
	"net/http"
)

// purgeRequest optionally overrides the configured TTL.
type purgeRequest struct {
	Days int `json:"days"`
}

// handleAdminPurge handles POST /api/admin/purge. Deletes analysis
// records older than the TTL and reports how many went.
func (s *Server) handleAdminPurge(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	days := s.app.Config.Refresh.GetPurgeDays()
	if r.ContentLength > 0 {
		var req purgeRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if req.Days > 0 {
			days = req.Days
		}
	}

	count, err := s.app.Storage.AnalysisStore().PurgeOlderThan(r.Context(), days)
	if err != nil {
		s.logger.Error().Err(err).Msg("Purge failed")
		WriteError(w, http.StatusInternalServerError, "Failed to purge records")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int{
		"purged": count,
		"days":   days,
	})
}

// handleAdminSweep handles POST /api/admin/sweep: kick the periodic
// sweep off-schedule. Runs detached; the response only acknowledges
// the start.
func (s *Server) handleAdminSweep(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	go s.runSweep()
	WriteJSON(w, http.StatusAccepted, map[string]string{"state": "sweeping"})
}

func (s *Server) runSweep() {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().Interface("panic", rec).Msg("Manual sweep panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.app.Config.Refresh.GetSweepTimeout())
	defer cancel()

	if err := s.app.Coordinator.Sweep(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Manual sweep ended early")
	}
}
