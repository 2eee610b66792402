package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"tasklist-app/internal/logger"
)

var (
	ErrInternal = errors.New("internal error")
	// ErrBadClientData покрывает и битый ввод, и отсутствующую задачу (ответ 400 в обоих случаях)
	ErrBadClientData = errors.New("bad request")
	ErrTimeout       = errors.New("timeout")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadClientData):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(ctx context.Context, w http.ResponseWriter, err error) {
	code := statusFor(err)

	msg := ErrInternal.Error()
	switch code {
	case http.StatusBadRequest:
		msg = ErrBadClientData.Error()
		logger.Debug(ctx, "rejecting request", "error", err)
	case http.StatusGatewayTimeout:
		msg = ErrTimeout.Error()
		logger.Warn(ctx, "request timed out", "error", err)
	default:
		logger.Error(ctx, err, "request failed")
	}

	writeJSON(w, map[string]any{"error": msg}, code)
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeRaw отдает уже сериализованный JSON как есть
func writeRaw(w http.ResponseWriter, body string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}
