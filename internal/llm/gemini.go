// Package llm provides the Gemini generation adapter.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anzclass/anzclass/internal/httpretry"
	"github.com/anzclass/anzclass/internal/models"
)

const generateTimeout = 30 * time.Second

// rerankTemperature keeps the ranking near-deterministic.
const rerankTemperature = 0.1

// TokenSource supplies bearer tokens and accepts 401-driven invalidation.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Config describes the Gemini generateContent endpoint.
type Config struct {
	Project  string
	Location string
	Model    string
	Retries  int

	// RetryDelay overrides the initial backoff delay; zero means 2s.
	RetryDelay time.Duration

	// BaseURL overrides the regional endpoint; used by tests.
	BaseURL string
}

// Gemini calls generateContent in structured-JSON response mode. A circuit
// breaker fails fast when the provider is down.
type Gemini struct {
	cfg     Config
	tokens  TokenSource
	client  *http.Client
	breaker *httpretry.Breaker
	log     *logrus.Logger
}

// New creates a Gemini adapter.
func New(cfg Config, tokens TokenSource, log *logrus.Logger) *Gemini {
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.Location)
	}

	return &Gemini{
		cfg:     cfg,
		tokens:  tokens,
		client:  &http.Client{Timeout: generateTimeout},
		breaker: httpretry.NewBreaker(httpretry.DefaultFailureThreshold, httpretry.DefaultCooldown),
		log:     log,
	}
}

// ModelName reports the effective generation model.
func (g *Gemini) ModelName() string { return g.cfg.Model }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
	GenerationConfig  struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"responseMimeType"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateJSON sends the prompts with the provider's JSON response mode and
// returns the raw reply text. Parsing belongs to the caller.
func (g *Gemini) GenerateJSON(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if err := g.breaker.Allow(); err != nil {
		return "", models.LLMError(err, "generation provider unavailable")
	}

	out, err := g.doGenerate(ctx, systemPrompt, userMessage)
	if err != nil {
		g.breaker.RecordFailure()

		return "", err
	}

	g.breaker.RecordSuccess()

	return out, nil
}

// doGenerate performs the HTTP call and extracts the reply text.
func (g *Gemini) doGenerate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	reqBody := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: userMessage}}}},
	}
	reqBody.GenerationConfig.Temperature = rerankTemperature
	reqBody.GenerationConfig.ResponseMimeType = "application/json"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", models.LLMError(err, "marshaling generate request")
	}

	url := fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		g.cfg.BaseURL, g.cfg.Project, g.cfg.Location, g.cfg.Model)

	delay := g.cfg.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	resp, err := httpretry.Do(ctx, g.client, func(ctx context.Context) (*http.Request, error) {
		tok, err := g.tokens.Token(ctx)
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
		Policy:         httpretry.Policy{MaxAttempts: g.cfg.Retries, InitialDelay: delay, Multiplier: 2},
		OnUnauthorized: g.tokens.Invalidate,
		Log:            g.log,
	})
	if err != nil {
		return "", mapError(err, "calling generation endpoint")
	}
	defer resp.Body.Close()

	var result generateResponse

	limited := io.LimitReader(resp.Body, 10<<20) // 10 MB
	if err := json.NewDecoder(limited).Decode(&result); err != nil {
		return "", models.LLMError(err, "decoding generate response")
	}

	if len(result.Candidates) == 0 {
		return "", models.LLMError(nil, "generate returned no candidates")
	}

	var b strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}

	return b.String(), nil
}

// mapError translates retry-layer failures into the taxonomy.
func mapError(err error, msg string) error {
	if models.KindOf(err) != "" {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var se *httpretry.StatusError
	if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
		return models.AuthError(err, "%s", msg)
	}

	return models.LLMError(err, "%s", msg)
}
