// Package handler exposes the audit trail for review.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rosterd/internal/audit"
	"rosterd/internal/platform/middleware"
	"rosterd/internal/transport/http/shared"
	id "rosterd/pkg/domain"
	derrors "rosterd/pkg/domain-errors"
)

const defaultRecentLimit = 100

type Handler struct {
	store  audit.Store
	logger *slog.Logger
}

func New(store audit.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequireRole("sanity:read", h.logger))
		r.Get("/events", h.handleRecent)
		r.Get("/people/{id}", h.handleByPerson)
	})
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			shared.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid limit"))
			return
		}
		limit = parsed
	}

	events, err := h.store.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list audit events failed", "error", err)
		shared.WriteError(w, derrors.Wrap(err, derrors.CodeInternal, "list audit events"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleByPerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid, err := id.ParsePersonID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid person id"))
		return
	}

	events, err := h.store.ListByPerson(ctx, pid)
	if err != nil {
		h.logger.ErrorContext(ctx, "list person audit events failed", "person_id", pid, "error", err)
		shared.WriteError(w, derrors.Wrap(err, derrors.CodeInternal, "list audit events"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
