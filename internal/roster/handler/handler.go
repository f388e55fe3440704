// Package handler exposes the read-only roster API.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rosterd/internal/platform/middleware"
	"rosterd/internal/roster/service"
	"rosterd/internal/transport/http/shared"
	id "rosterd/pkg/domain"
	derrors "rosterd/pkg/domain-errors"
)

type Handler struct {
	roster *service.Service
	logger *slog.Logger
}

func New(roster *service.Service, logger *slog.Logger) *Handler {
	return &Handler{roster: roster, logger: logger}
}

// Register mounts the roster routes. Auth is applied by the caller; the
// listing surface shares the sanity read role.
func (h *Handler) Register(r chi.Router) {
	r.Route("/roster", func(r chi.Router) {
		r.Use(middleware.RequireRole("sanity:read", h.logger))
		r.Get("/people", h.handleListPeople)
		r.Get("/people/{id}", h.handlePerson)
		r.Get("/positions", h.handleListPositions)
		r.Get("/teams", h.handleListTeams)
		r.Get("/roles", h.handleListRoles)
	})
}

func (h *Handler) handleListPeople(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := id.PersonStatus(r.URL.Query().Get("status"))

	people, err := h.roster.People(ctx, status)
	if err != nil {
		h.logger.ErrorContext(ctx, "list people failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"people": people})
}

func (h *Handler) handlePerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid, err := id.ParsePersonID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid person id"))
		return
	}

	detail, err := h.roster.Person(ctx, pid)
	if err != nil {
		if !derrors.Is(err, derrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "person lookup failed", "person_id", pid, "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleListPositions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	positions, err := h.roster.Positions(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list positions failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teams, err := h.roster.Teams(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roles, err := h.roster.Roles(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list roles failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"roles": roles})
}
