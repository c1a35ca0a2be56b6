package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordtales/internal/api"
	"github.com/wordtales/internal/domain"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// statusFor maps an error to the HTTP status the console answers with. Backend statuses pass
// through; transport failures become 502.
func statusFor(err error) int {
	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.StatusCode
	case errors.Is(err, domain.ErrNetworkOperation):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRouteNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. message is the user-facing text; when empty
// the error's public message is used.
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if message == "" {
		if detail, ok := api.ErrorDetail(err); ok {
			message = detail
		} else {
			message = domain.PublicMessage(err)
		}
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(c.Request.Context(), level, "request failed",
		"path", c.Request.URL.Path,
		"status", status,
		"request_id", c.GetString(ctxRequestID),
		"error", err,
	)

	c.JSON(status, ErrorResponse{Error: message})
}

func respondBadRequest(c *gin.Context, err error) {
	slog.WarnContext(c.Request.Context(), "invalid request", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format", Details: err.Error()})
}
