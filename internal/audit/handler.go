// Package audit exposes recorded audit events to operators.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"agrifin/pkg/platform/audit"
	"agrifin/pkg/platform/audit/publisher"
	"agrifin/pkg/platform/httputil"
	"agrifin/pkg/requestcontext"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// Lister reads back recorded events, either those emitted while serving one
// request or the latest ones.
type Lister interface {
	List(ctx context.Context, requestID string) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler serves GET /admin/audit.
type Handler struct {
	lister Lister
	logger *slog.Logger
}

func NewHandler(lister Lister, logger *slog.Logger) *Handler {
	return &Handler{lister: lister, logger: logger}
}

// RegisterAdmin mounts the operator routes. Callers are expected to guard r.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/audit", h.handleList)
}

// handleList serves the trail of one request with ?request_id=, or the
// latest events (?limit=, default 50, at most 500) without it.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	requestID := strings.TrimSpace(query.Get("request_id"))

	var (
		events []audit.Event
		err    error
	)
	if requestID != "" {
		events, err = h.lister.List(ctx, requestID)
	} else {
		limit, ok := parseLimit(query.Get("limit"))
		if !ok {
			writeFailure(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		events, err = h.lister.Recent(ctx, limit)
	}
	switch {
	case errors.Is(err, publisher.ErrListUnsupported):
		writeFailure(w, http.StatusNotImplemented, "audit sink does not support queries")
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"queried_request_id", requestID,
			"error", err,
		)
		writeFailure(w, http.StatusInternalServerError, "internal error")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": events})
}

func parseLimit(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultRecentLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxRecentLimit {
		return 0, false
	}
	return n, true
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	httputil.WriteJSON(w, status, map[string]any{"success": false, "error": msg})
}
