// Package api provides HTTP handlers for the classifier.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anzclass/anzclass/internal/db"
	"github.com/anzclass/anzclass/internal/dbpool"
)

// CatalogueHealth reports whether the catalogue is reachable and populated.
type CatalogueHealth interface {
	HealthCheck(ctx context.Context) bool
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	pool       *dbpool.Pool
	catalogue  CatalogueHealth
	log        *logrus.Logger
	version    string
	startTime  time.Time
	embedModel string
	embedDim   int
	llmModel   string
}

// NewHealthHandler creates a HealthHandler with the given dependencies.
func NewHealthHandler(pool *dbpool.Pool, catalogue CatalogueHealth, log *logrus.Logger, version, embedModel string, embedDim int, llmModel string) *HealthHandler {
	return &HealthHandler{
		pool:       pool,
		catalogue:  catalogue,
		log:        log,
		version:    version,
		startTime:  time.Now(),
		embedModel: embedModel,
		embedDim:   embedDim,
		llmModel:   llmModel,
	}
}

// healthResponse is the JSON payload returned by the health/liveness endpoint.
type healthResponse struct {
	Status              string  `json:"status"`
	Version             string  `json:"version"`
	Database            string  `json:"database"`
	EmbedModel          string  `json:"embed_model"`
	EmbeddingDimensions int     `json:"embedding_dimensions"`
	LLMModel            string  `json:"llm_model"`
	UptimeSeconds       float64 `json:"uptime_seconds"`
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status        string            `json:"status"`
	SchemaVersion int               `json:"schema_version"`
	Checks        map[string]string `json:"checks"`
}

// Liveness handles GET /api/v1/health — status plus db and model info.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:              "ok",
		Version:             h.version,
		Database:            "connected",
		EmbedModel:          h.embedModel,
		EmbeddingDimensions: h.embedDim,
		LLMModel:            h.llmModel,
		UptimeSeconds:       time.Since(h.startTime).Seconds(),
	}

	// Best-effort database ping (non-fatal for liveness).
	if h.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pool.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}
	} else {
		resp.Database = "not_configured"
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready — checks DB and catalogue contents.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{
		"database":  "ok",
		"catalogue": "ok",
	}
	status := "ready"
	statusCode := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.pool.HealthCheck(ctx); err != nil {
		h.log.WithError(err).Error("readiness: database health check failed")
		checks["database"] = "error"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	// A reachable but unpopulated catalogue cannot serve classifications.
	if checks["database"] == "ok" && !h.catalogue.HealthCheck(ctx) {
		checks["catalogue"] = "empty"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, readinessResponse{
		Status:        status,
		SchemaVersion: db.SchemaVersion(),
		Checks:        checks,
	})
}
