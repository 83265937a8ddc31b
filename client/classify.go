package client

import (
	"context"
	"net/http"
	"time"
)

// ClassifyRequest is the wire shape of POST /api/v1/classify.
type ClassifyRequest struct {
	Query    string `json:"query"`
	Mode     string `json:"mode,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
	PoolSize int    `json:"pool_size,omitempty"`
}

// ClassifyResult is one ranked classification.
type ClassifyResult struct {
	Rank         int     `json:"rank"`
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	ClassDesc    string  `json:"class_desc"`
	DivisionDesc string  `json:"division_desc"`
	Reason       string  `json:"reason"`
	RRFScore     float64 `json:"rrf_score"`
}

// ClassifyResponse is the full classification outcome.
type ClassifyResponse struct {
	Query               string           `json:"query"`
	Mode                string           `json:"mode"`
	TopKRequested       int              `json:"top_k_requested"`
	CandidatesRetrieved int              `json:"candidates_retrieved"`
	Results             []ClassifyResult `json:"results"`
	GeneratedAt         time.Time        `json:"generated_at"`
	EmbedModel          string           `json:"embed_model"`
	LLMModel            string           `json:"llm_model"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status              string  `json:"status"`
	Version             string  `json:"version"`
	Database            string  `json:"database"`
	EmbedModel          string  `json:"embed_model"`
	EmbeddingDimensions int     `json:"embedding_dimensions"`
	LLMModel            string  `json:"llm_model"`
	UptimeSeconds       float64 `json:"uptime_seconds"`
}

// ReadyResponse is the readiness payload.
type ReadyResponse struct {
	Status        string            `json:"status"`
	SchemaVersion int               `json:"schema_version"`
	Checks        map[string]string `json:"checks"`
}

// Classify submits an occupation description for classification.
func (c *Client) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	var resp ClassifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/classify", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
