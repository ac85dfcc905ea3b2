package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rushteam/docrank/core"
	"github.com/rushteam/docrank/logging"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// statusFor 把领域错误映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsInvalidInput(err):
		return http.StatusBadRequest
	case core.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := core.ErrorCodeInternalError
	message := "internal server error"
	if de := core.GetDomainError(err); de != nil && status != http.StatusInternalServerError {
		code = de.Code
		message = de.Message
	}
	if status == http.StatusGatewayTimeout {
		code = core.ErrorCodeUnavailable
		message = "request timed out"
	}
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context(), s.logger).Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeError(w, status, code, message)
}
