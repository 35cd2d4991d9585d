package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"agrifin/pkg/platform/httputil"
	"agrifin/pkg/platform/privacy"
	"agrifin/pkg/requestcontext"
)

// Service is the subset of the rate limit service exposed to operators.
type Service interface {
	CurrentCount(ctx context.Context, ip string) (int, error)
	ResetIP(ctx context.Context, ip string) error
}

// Handler serves the operator rate limit endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// ClientStatus is the current usage of one client IP.
type ClientStatus struct {
	IP       string `json:"ip"`
	Requests int    `json:"requests"`
}

// RegisterAdmin mounts the operator routes. Callers are expected to guard r.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/rate-limit/ip/{ip}", h.handleGetIP)
	r.Delete("/admin/rate-limit/ip/{ip}", h.handleResetIP)
}

func (h *Handler) handleGetIP(w http.ResponseWriter, r *http.Request) {
	ip, ok := h.ipParam(w, r)
	if !ok {
		return
	}
	count, err := h.service.CurrentCount(r.Context(), ip)
	if err != nil {
		h.fail(r.Context(), w, "failed to read rate limit usage", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    ClientStatus{IP: ip, Requests: count},
	})
}

func (h *Handler) handleResetIP(w http.ResponseWriter, r *http.Request) {
	ip, ok := h.ipParam(w, r)
	if !ok {
		return
	}
	if err := h.service.ResetIP(r.Context(), ip); err != nil {
		h.fail(r.Context(), w, "failed to reset rate limit", err)
		return
	}
	h.logger.InfoContext(r.Context(), "rate limit reset",
		"request_id", requestcontext.RequestID(r.Context()),
		"ip_prefix", privacy.AnonymizeIP(ip),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ipParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	addr, err := netip.ParseAddr(chi.URLParam(r, "ip"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid ip address",
		})
		return "", false
	}
	return addr.String(), true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   "internal error",
	})
}
