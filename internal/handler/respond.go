package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"

	"github.com/fonnet/fonnetapp/internal/model"
	"github.com/fonnet/fonnetapp/internal/telemetry"
)

var tracer = otel.Tracer("github.com/fonnet/fonnetapp/internal/handler")

const keyInvalidBody = "invalidBody"
const keyInternal = "internal"

// Localizer turns message keys into user-facing text.
type Localizer interface {
	Message(key, acceptLanguage string) string
}

// base carries what every handler needs to answer a request.
type base struct {
	logger     *slog.Logger
	metrics    *telemetry.Metrics
	translator Localizer
}

// Health returns a health check response.
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// decode reads a JSON body into dst, answering 400 itself on failure.
func (h *base) decode(w http.ResponseWriter, r *http.Request, start time.Time, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body", slog.Any("error", err))
		h.respondMessage(w, r, http.StatusBadRequest, keyInvalidBody)
		h.recordMetrics(r, http.StatusBadRequest, start)
		return false
	}
	return true
}

func (h *base) respondMessage(w http.ResponseWriter, r *http.Request, status int, key string) {
	msg := h.translator.Message(key, r.Header.Get("Accept-Language"))
	respondJSON(w, status, map[string]string{"error": msg})
}

// fail answers with the status and localized message for err.
func (h *base) fail(w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	ctx := r.Context()
	status, key := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed", slog.Int("status", status), slog.Any("error", err))
	} else {
		h.logger.WarnContext(ctx, "request rejected", slog.Int("status", status), slog.String("reason", key))
	}
	h.respondMessage(w, r, status, key)
	h.recordMetrics(r, status, start)
}

func (h *base) ok(w http.ResponseWriter, r *http.Request, status int, data any, start time.Time) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
	} else {
		respondJSON(w, status, data)
	}
	h.recordMetrics(r, status, start)
}

func (h *base) recordMetrics(r *http.Request, status int, start time.Time) {
	h.metrics.RecordRequest(r.Context(), r.Method, routePattern(r), status, time.Since(start))
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// statusFor maps a service error to an HTTP status and message key.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrDepthLimitExceeded):
		return http.StatusUnprocessableEntity, model.ErrDepthLimitExceeded.Key
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized, model.ErrUnauthenticated.Key
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, model.ErrForbidden.Key
	case errors.Is(err, model.ErrProvisioningFailed):
		return http.StatusBadGateway, model.ErrProvisioningFailed.Key
	case errors.Is(err, model.ErrUploadFailed):
		return http.StatusBadGateway, model.ErrUploadFailed.Key
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, keyInternal
	}

	var domainErr model.Error
	if errors.As(err, &domainErr) {
		if model.IsNotFound(err) {
			return http.StatusNotFound, domainErr.Key
		}
		return http.StatusBadRequest, domainErr.Key
	}
	return http.StatusInternalServerError, keyInternal
}
