// Package handler exposes the sanity checker over HTTP. Read and repair
// surfaces are gated by separate roles so reporting accounts cannot mutate.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rosterd/internal/platform/middleware"
	"rosterd/internal/sanity"
	"rosterd/internal/transport/http/shared"
	id "rosterd/pkg/domain"
	derrors "rosterd/pkg/domain-errors"
)

const (
	RoleRead   = "sanity:read"
	RoleRepair = "sanity:repair"
)

type Handler struct {
	engine *sanity.Engine
	logger *slog.Logger
}

func New(engine *sanity.Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Register mounts the sanity routes. The caller is expected to have applied
// RequireAuth already; role gates are applied here per surface.
func (h *Handler) Register(r chi.Router) {
	r.Route("/sanity-checker", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(RoleRead, h.logger))
			r.Get("/checks", h.handleListChecks)
			r.Get("/issues", h.handleScanAll)
			r.Get("/checks/{name}/issues", h.handleIssues)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(RoleRepair, h.logger))
			r.Post("/checks/{name}/repair", h.handleRepair)
		})
	})
}

func (h *Handler) handleListChecks(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"checks": h.engine.ListChecks(),
	})
}

func (h *Handler) handleScanAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	results, err := h.engine.ScanAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "scan all failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) handleIssues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	issues, err := h.engine.Issues(ctx, name)
	if err != nil {
		if !derrors.Is(err, derrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "issue scan failed", "check", name, "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	if issues == nil {
		issues = []sanity.Issue{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"check":  name,
		"issues": issues,
	})
}

// repairRequest is the repair payload. Options are flattened into the body
// alongside the ids.
type repairRequest struct {
	IDs             []id.PersonID                   `json:"ids"`
	TeamID          *id.TeamID                      `json:"team_id,omitempty"`
	PersonTeams     map[id.PersonID][]id.TeamID     `json:"person_teams,omitempty"`
	PersonPositions map[id.PersonID][]id.PositionID `json:"person_positions,omitempty"`
}

func (h *Handler) handleRepair(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	var req repairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	results, err := h.engine.Repair(ctx, name, req.IDs, sanity.Options{
		TeamID:          req.TeamID,
		PersonTeams:     req.PersonTeams,
		PersonPositions: req.PersonPositions,
	})
	if err != nil {
		if derrors.Is(err, derrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "repair aborted", "check", name, "error", err)
			// Completed repairs are reported alongside the failure.
			shared.WriteJSON(w, http.StatusInternalServerError, map[string]any{
				"check":   name,
				"results": results,
				"error":   derrors.MessageOf(err),
			})
			return
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"check":   name,
		"results": results,
	})
}
