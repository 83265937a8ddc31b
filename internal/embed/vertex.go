// Package embed provides the Vertex AI embedding adapter.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anzclass/anzclass/internal/httpretry"
	"github.com/anzclass/anzclass/internal/models"
)

const embeddingTimeout = 5 * time.Second

// Vertex asymmetric embedding task types.
const (
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// TokenSource supplies bearer tokens and accepts 401-driven invalidation.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Config describes the Vertex embedding endpoint.
type Config struct {
	Project    string
	Location   string
	Model      string
	Dimensions int
	BatchSize  int
	Retries    int

	// RetryDelay overrides the initial backoff delay; zero means 2s.
	RetryDelay time.Duration

	// BaseURL overrides the regional endpoint; used by tests.
	BaseURL string
}

// Vertex calls the Vertex AI prediction endpoint for text embeddings. A
// circuit breaker fails fast when the provider is down.
type Vertex struct {
	cfg     Config
	tokens  TokenSource
	client  *http.Client
	breaker *httpretry.Breaker
	log     *logrus.Logger
}

// New creates a Vertex embedding adapter.
func New(cfg Config, tokens TokenSource, log *logrus.Logger) *Vertex {
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.Location)
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}

	return &Vertex{
		cfg:     cfg,
		tokens:  tokens,
		client:  &http.Client{Timeout: embeddingTimeout},
		breaker: httpretry.NewBreaker(httpretry.DefaultFailureThreshold, httpretry.DefaultCooldown),
		log:     log,
	}
}

// ModelName reports the effective embedding model.
func (v *Vertex) ModelName() string { return v.cfg.Model }

// Dimensions reports the configured output dimensionality.
func (v *Vertex) Dimensions() int { return v.cfg.Dimensions }

type instance struct {
	Content  string `json:"content"`
	TaskType string `json:"task_type"`
	Title    string `json:"title,omitempty"`
}

type predictRequest struct {
	Instances  []instance `json:"instances"`
	Parameters struct {
		OutputDimensionality int `json:"outputDimensionality"`
	} `json:"parameters"`
}

type predictResponse struct {
	Predictions []struct {
		Embeddings struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	} `json:"predictions"`
}

// EmbedQuery embeds a search query with the retrieval-query orientation.
func (v *Vertex) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := v.predict(ctx, []instance{{Content: text, TaskType: taskRetrievalQuery}})
	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

// EmbedDocument embeds catalogue text with the retrieval-document
// orientation. An optional title steers the document representation.
func (v *Vertex) EmbedDocument(ctx context.Context, text, title string) ([]float32, error) {
	vectors, err := v.predict(ctx, []instance{{Content: text, TaskType: taskRetrievalDocument, Title: title}})
	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

// EmbedDocumentsBatch embeds many documents, chunking to the provider batch
// limit. Output order matches input order.
func (v *Vertex) EmbedDocumentsBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += v.cfg.BatchSize {
		end := min(start+v.cfg.BatchSize, len(texts))

		instances := make([]instance, 0, end-start)
		for _, t := range texts[start:end] {
			instances = append(instances, instance{Content: t, TaskType: taskRetrievalDocument})
		}

		vectors, err := v.predict(ctx, instances)
		if err != nil {
			return nil, err
		}

		out = append(out, vectors...)
	}

	return out, nil
}

// predict issues one prediction call through the circuit breaker.
func (v *Vertex) predict(ctx context.Context, instances []instance) ([][]float32, error) {
	if err := v.breaker.Allow(); err != nil {
		return nil, models.EmbeddingError(err, "embedding provider unavailable")
	}

	vectors, err := v.doPredict(ctx, instances)
	if err != nil {
		v.breaker.RecordFailure()

		return nil, err
	}

	v.breaker.RecordSuccess()

	return vectors, nil
}

// doPredict performs the HTTP call and validates the returned vectors.
func (v *Vertex) doPredict(ctx context.Context, instances []instance) ([][]float32, error) {
	reqBody := predictRequest{Instances: instances}
	reqBody.Parameters.OutputDimensionality = v.cfg.Dimensions

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, models.EmbeddingError(err, "marshaling predict request")
	}

	url := fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		v.cfg.BaseURL, v.cfg.Project, v.cfg.Location, v.cfg.Model)

	delay := v.cfg.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	resp, err := httpretry.Do(ctx, v.client, func(ctx context.Context) (*http.Request, error) {
		tok, err := v.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tok)

		return req, nil
	}, httpretry.Options{
		Policy:         httpretry.Policy{MaxAttempts: v.cfg.Retries, InitialDelay: delay, Multiplier: 2},
		OnUnauthorized: v.tokens.Invalidate,
		Log:            v.log,
	})
	if err != nil {
		return nil, mapError(err, "calling embedding endpoint")
	}
	defer resp.Body.Close()

	var result predictResponse

	limited := io.LimitReader(resp.Body, 10<<20) // 10 MB
	if err := json.NewDecoder(limited).Decode(&result); err != nil {
		return nil, models.EmbeddingError(err, "decoding predict response")
	}

	if len(result.Predictions) != len(instances) {
		return nil, models.EmbeddingError(nil, "predict returned %d embeddings for %d instances",
			len(result.Predictions), len(instances))
	}

	vectors := make([][]float32, len(result.Predictions))
	for i, p := range result.Predictions {
		if len(p.Embeddings.Values) != v.cfg.Dimensions {
			return nil, models.EmbeddingError(nil, "embedding %d has %d dimensions, expected %d",
				i, len(p.Embeddings.Values), v.cfg.Dimensions)
		}

		vectors[i] = p.Embeddings.Values
	}

	return vectors, nil
}

// mapError translates retry-layer failures into the taxonomy: 401 after the
// forced-reauth retry is an authentication failure, anything else an
// embedding provider failure. Errors already carrying a kind pass through.
func mapError(err error, msg string) error {
	if models.KindOf(err) != "" {
		return err
	}

	// Cancellation and timeout stay distinguishable from provider failures.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var se *httpretry.StatusError
	if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
		return models.AuthError(err, "%s", msg)
	}

	return models.EmbeddingError(err, "%s", msg)
}
