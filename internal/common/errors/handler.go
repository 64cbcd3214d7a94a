// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"
)

// ErrorHandler writes errors as JSON responses with standardized logging
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Response is the JSON body returned for every error.
type Response struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Write normalizes err, logs it and writes the JSON error body.
func (h *ErrorHandler) Write(w http.ResponseWriter, err error) *StandardError {
	stdErr := Normalize(err)
	h.logError(stdErr)
	WriteJSON(w, stdErr.HTTPStatus(), Response{Error: stdErr.Message, Code: stdErr.Code})
	return stdErr
}

// Normalize ensures we always have a StandardError
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   MsgInternal,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *ErrorHandler) logError(stdErr *StandardError) {
	if h.logger == nil {
		return
	}
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        stdErr.HTTPStatus(),
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}

	if stdErr.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
