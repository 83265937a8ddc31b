package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anzclass/anzclass/internal/models"
)

// ClassifierService is the pipeline capability the handler depends on.
type ClassifierService interface {
	Classify(ctx context.Context, req models.SearchRequest) (*models.ClassifyResponse, error)
}

// ClassifyHandler serves the classification endpoint.
type ClassifyHandler struct {
	classifier ClassifierService
	log        *logrus.Logger
}

// NewClassifyHandler creates a ClassifyHandler.
func NewClassifyHandler(classifier ClassifierService, log *logrus.Logger) *ClassifyHandler {
	return &ClassifyHandler{classifier: classifier, log: log}
}

// classifyRequest is the wire shape of POST /classify.
type classifyRequest struct {
	Query    string `json:"query"`
	Mode     string `json:"mode"`
	TopK     int    `json:"top_k"`
	PoolSize int    `json:"pool_size"`
}

// Classify handles POST /api/v1/classify.
func (h *ClassifyHandler) Classify(c *gin.Context) {
	var body classifyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")

		return
	}

	mode, err := models.ParseMode(body.Mode)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	req := models.SearchRequest{
		Query:    body.Query,
		Mode:     mode,
		TopK:     body.TopK,
		PoolSize: body.PoolSize,
	}

	resp, err := h.classifier.Classify(c.Request.Context(), req)
	if err != nil {
		h.log.WithError(err).WithField("kind", models.KindOf(err)).Error("classify")
		respondDomainError(c, err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":  "classify",
		"mode":    resp.Mode,
		"results": len(resp.Results),
	}).Info("audit")

	c.JSON(http.StatusOK, resp)
}
