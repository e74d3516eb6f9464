package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Freeeeeet/studentia/internal/apperr"
	"github.com/Freeeeeet/studentia/internal/ctxutil"
	"github.com/Freeeeeet/studentia/internal/observability"
)

type envelope map[string]any

func ok(fields envelope) envelope {
	fields["ok"] = true
	return fields
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("Failed to write response", zap.Error(err))
	}
}

// writeError переводит ошибку сервиса в HTTP-ответ
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()

	if status >= http.StatusInternalServerError {
		reqID, _ := ctxutil.RequestID(r.Context())
		h.logger.Error("Request failed",
			zap.String("request_id", reqID),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
		if status == http.StatusInternalServerError {
			observability.CaptureErrCtx(r.Context(), err, map[string]string{"request_id": reqID, "path": r.URL.Path})
			msg = "internal server error"
		}
	}

	h.writeJSON(w, status, envelope{"error": msg})
}

// decodeJSON читает тело запроса в dst
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body required", apperr.ErrValidation)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", apperr.ErrValidation, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", apperr.ErrValidation, err)
	}
	return nil
}
