package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agrifin/internal/credit"
	"agrifin/internal/credit/metrics"
	"agrifin/internal/platform/middleware"
	dErrors "agrifin/pkg/domain-errors"
	"agrifin/pkg/platform/httputil"
)

// Service defines the interface for credit scoring operations.
type Service interface {
	Score(ctx context.Context, profile credit.ApplicantProfile) (*credit.ScoreResult, error)
	ScoreBatch(ctx context.Context, profiles []credit.ApplicantProfile) ([]credit.ScoreResult, error)
	Model(ctx context.Context) (credit.Weights, []credit.Tier)
}

// Handler serves the credit scoring endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	metrics *metrics.Metrics
}

// New creates a new credit Handler.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		metrics: metrics,
	}
}

// Register registers the credit routes with the chi router. guards wrap the
// scoring routes only, typically the rate limiter.
func (h *Handler) Register(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(guards...)
		r.Post("/credit/score", h.handleScore)
		r.Post("/credit/score/batch", h.handleScoreBatch)
	})
	r.Get("/credit/model", h.handleModel)
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req ScoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.reject(ctx, w, "invalid_body", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.reject(ctx, w, "missing_fields", err)
		return
	}

	result, err := h.service.Score(ctx, req.ToProfile())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to score applicant",
			"request_id", requestID,
			"error", err,
		)
		writeError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &Envelope{Success: true, Data: result})
}

func (h *Handler) handleScoreBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req BatchScoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.reject(ctx, w, "invalid_body", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.reject(ctx, w, "missing_fields", err)
		return
	}

	results, err := h.service.ScoreBatch(ctx, req.ToProfiles())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			h.reject(ctx, w, "batch_limit", err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to score batch",
			"request_id", requestID,
			"applicants", len(req.Applicants),
			"error", err,
		)
		writeError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &Envelope{Success: true, Data: results})
}

func (h *Handler) handleModel(w http.ResponseWriter, r *http.Request) {
	weights, tiers := h.service.Model(r.Context())
	httputil.WriteJSON(w, http.StatusOK, &Envelope{Success: true, Data: toModelResponse(weights, tiers)})
}

func (h *Handler) reject(ctx context.Context, w http.ResponseWriter, reason string, err error) {
	h.metrics.IncrementRejected(reason)
	h.logger.WarnContext(ctx, "rejected credit request",
		"request_id", middleware.GetRequestID(ctx),
		"reason", reason,
		"error", err.Error(),
	)
	writeError(w, err)
}

// decodeBody treats an empty body as an empty object so that it is reported
// as missing fields rather than a malformed request.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	err := httputil.DecodeJSON(w, r, dst)
	if err != nil && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeError renders err in the scoring envelope. Internal details are not
// exposed.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = dErrors.Wrap(err, dErrors.CodeTimeout, "request cancelled")
	}

	code := dErrors.CodeInternal
	message := "internal error"
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		code = de.Code
		message = de.Message
	}
	httputil.WriteJSON(w, dErrors.ToHTTPStatus(code), &Envelope{Success: false, Error: message})
}
