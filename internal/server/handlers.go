package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, common.GetBuildInfo())
}

// handleGetDashboard returns the active snapshot, building the first one on demand.
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dashboard.Current()
	if errors.Is(err, models.ErrNoSnapshot) {
		snap, err = s.dashboard.Refresh(r.Context())
		if errors.Is(err, models.ErrSuperseded) {
			snap, err = s.dashboard.Current()
		}
	}
	if err != nil {
		s.logger.Error().Err(err).Str("correlation_id", CorrelationID(r.Context())).Msg("Dashboard unavailable")
		WriteError(w, http.StatusServiceUnavailable, "Dashboard unavailable: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// handleRefreshDashboard runs a refresh. A refresh overtaken by a newer one
// answers 409 since its snapshot was discarded.
func (s *Server) handleRefreshDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dashboard.Refresh(r.Context())
	if errors.Is(err, models.ErrSuperseded) {
		WriteErrorWithCode(w, http.StatusConflict, "Refresh superseded by a newer refresh", "superseded")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Refresh failed: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

type historyResponse struct {
	Count     int                      `json:"count"`
	Snapshots []*models.DashboardModel `json:"snapshots"`
}

func (s *Server) handleDashboardHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := QueryInt(w, r, "limit", 0)
	if !ok {
		return
	}

	snaps, err := s.dashboard.History(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list snapshot history")
		WriteError(w, http.StatusInternalServerError, "Failed to list history: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, historyResponse{Count: len(snaps), Snapshots: snaps})
}

// handleRawTool proxies one tool's raw payload.
func (s *Server) handleRawTool(w http.ResponseWriter, r *http.Request) {
	tool := chi.URLParam(r, "tool")
	if !models.ValidToolName(tool) {
		WriteError(w, http.StatusBadRequest, "Unknown tool: "+tool)
		return
	}

	raw, err := s.dashboard.RawTool(r.Context(), models.ToolName(tool))
	if err != nil {
		code := "source_unavailable"
		if errors.Is(err, models.ErrNoSession) {
			code = "login_required"
		}
		WriteErrorWithCode(w, http.StatusBadGateway, err.Error(), code)
		return
	}
	WriteRawJSON(w, http.StatusOK, raw)
}
