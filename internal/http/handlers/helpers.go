package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/http/middleware/auth"
	"service-job-assignment/internal/logx"
)

const bodyLimit = 1 << 20

func reqID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return "-"
}

func writeJSON(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Warn("json encode failed", logx.String("request_id", reqID(r.Context())), logx.Err(err))
	}
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeError(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeErrorReason(logger, w, r, status, msg, "")
}

func writeErrorReason(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, msg, reason string) {
	fields := []logx.Field{
		logx.String("request_id", reqID(r.Context())),
		logx.Int("status", status),
		logx.String("msg", msg),
	}
	if reason != "" {
		fields = append(fields, logx.String("reason", reason))
	}
	if status >= http.StatusInternalServerError {
		logger.Error("http error", fields...)
	} else {
		logger.Debug("http error", fields...)
	}
	writeJSON(logger, w, r, status, ErrorResponse{Error: msg, Reason: reason})
}

// writeDomainError maps a service error onto the HTTP taxonomy.
func writeDomainError(logger logx.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		writeError(logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrUnauthorized):
		writeError(logger, w, r, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, apperr.ErrForbidden):
		reason, _ := apperr.ForbiddenReason(err)
		writeErrorReason(logger, w, r, http.StatusForbidden, "forbidden", string(reason))
	case errors.Is(err, apperr.ErrNotFound):
		writeError(logger, w, r, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrAlreadyClaimed):
		writeError(logger, w, r, http.StatusConflict, "job no longer available")
	case errors.Is(err, apperr.ErrDuplicateStep):
		writeError(logger, w, r, http.StatusConflict, "step already recorded")
	case errors.Is(err, apperr.ErrExpired):
		writeError(logger, w, r, http.StatusConflict, "offer expired")
	case errors.Is(err, apperr.ErrInvalidState):
		writeError(logger, w, r, http.StatusConflict, "invalid state")
	case errors.Is(err, apperr.ErrConflict):
		writeError(logger, w, r, http.StatusConflict, "conflict")
	default:
		logger.Error("unhandled service error",
			logx.String("request_id", reqID(r.Context())),
			logx.String("path", r.URL.Path),
			logx.Err(err),
		)
		writeError(logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON[T any](logger logx.Logger, w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json: trailing data")
		return false
	}
	return true
}

// caller returns the authenticated principal or answers 401.
func caller(logger logx.Logger, w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(logger, w, r, http.StatusUnauthorized, "unauthorized")
		return auth.Principal{}, false
	}
	return p, true
}

func pathParam(logger logx.Logger, w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	if v == "" {
		writeError(logger, w, r, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return v, true
}
