package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/yijiasang/glamap/authorization"
	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
	application "github.com/yijiasang/glamap/service"
)

func jsonResponse(payload interface{}, writer http.ResponseWriter) {
	writer.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		http.Error(writer, "internal server error", http.StatusInternalServerError)
	}
}

type errorResponse struct {
	Message  string `json:"message"`
	DaysLeft int    `json:"daysLeft,omitempty"`
}

// writeError maps the error taxonomy onto status codes in one place, so
// every handler reports failures the same way. Anything unclassified is an
// internal error: logged in full, reported generically.
func writeError(writer http.ResponseWriter, logger *logrus.Logger, err error) {
	var rateLimited *errs.RateLimitedError
	if errors.As(err, &rateLimited) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(writer).Encode(errorResponse{
			Message:  rateLimited.Error(),
			DaysLeft: rateLimited.DaysLeft,
		})
		return
	}

	var status int
	switch {
	case errors.Is(err, errs.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrInvalidOperation):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrUnavailable):
		status = http.StatusBadGateway
	default:
		logger.Errorf("internal error: %s", err)
		writeJSONError(writer, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSONError(writer, status, err.Error())
}

// writeValidationError hides validator internals behind a generic message;
// hand-written field errors are safe to show.
func writeValidationError(writer http.ResponseWriter, err error) {
	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		writeJSONError(writer, http.StatusBadRequest, fieldErr.Message)
		return
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		writeJSONError(writer, http.StatusBadRequest, "invalid request")
		return
	}
	writeJSONError(writer, http.StatusBadRequest, "invalid request")
}

func writeJSONError(writer http.ResponseWriter, status int, message string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(errorResponse{Message: message})
}

// resolveProfile authenticates the request and loads the caller's profile.
func resolveProfile(r *http.Request, profiles *application.ProfileService) (*domain.Profile, error) {
	principal, err := authorization.ExtractPrincipal(r)
	if err != nil {
		return nil, err
	}
	return profiles.GetByExternalID(r.Context(), principal.ExternalID)
}

// multiValue reads a query parameter that may be repeated or comma
// separated.
func multiValue(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func ExtractTraceInfoMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware tags every response so log lines and client reports
// can be matched up.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r)
	})
}
