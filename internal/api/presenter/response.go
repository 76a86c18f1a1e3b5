package presenter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rainier-MSFT/ID360Model/internal/api/middleware"
	"github.com/Rainier-MSFT/ID360Model/internal/core"
	"github.com/Rainier-MSFT/ID360Model/internal/service"
)

type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id"`

	// RequiredRoles is included on role denials so callers can see what
	// they are missing.
	RequiredRoles []string `json:"required_roles,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write json response")
	}
}

func Error(w http.ResponseWriter, r *http.Request, msg string, status int) {
	resp := ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.CorrelationCtx(r.Context()),
	}
	JSON(w, r, resp, status)
}

// Err maps a service error to a response. HTTPError status codes are
// honored; role denials carry the required-role set for diagnosability.
func Err(w http.ResponseWriter, r *http.Request, err error, short string) {
	status := http.StatusBadRequest // generic default status
	var httpError *service.HTTPError
	if errors.As(err, &httpError) {
		status = httpError.StatusCode
	}

	resp := ErrorResponse{
		Error:         short + ": " + err.Error(),
		CorrelationID: middleware.CorrelationCtx(r.Context()),
	}

	var roleErr *core.InsufficientRoleError
	if errors.As(err, &roleErr) {
		resp.RequiredRoles = roleErr.Required
	}

	JSON(w, r, resp, status)
}
