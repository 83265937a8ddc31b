package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anzclass/anzclass/internal/httputil"
	"github.com/anzclass/anzclass/internal/metrics"
	"github.com/anzclass/anzclass/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeUpstreamError  = "upstream_error"
	ErrCodeInternalError  = "internal_error"
	ErrCodeRateLimited    = "rate_limited"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondDomainError maps the classifier error taxonomy to HTTP statuses:
// configuration failures are the caller's fault, authentication maps to 401,
// provider and datastore outages to 503, pipeline failures to 500.
func respondDomainError(c *gin.Context, err error) {
	switch models.KindOf(err) {
	case models.KindConfiguration:
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case models.KindAuthentication:
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "provider credentials rejected")
	case models.KindEmbedding, models.KindLLM, models.KindDatabase:
		respondError(c, http.StatusServiceUnavailable, ErrCodeUpstreamError, "upstream provider unavailable")
	default:
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
