// Package service provides the classification pipeline orchestrating
// retrieval and re-ranking.
package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anzclass/anzclass/internal/metrics"
	"github.com/anzclass/anzclass/internal/models"
)

// Retriever is the Stage 1 capability the pipeline depends on.
type Retriever interface {
	Retrieve(ctx context.Context, query string, poolSize int) ([]models.Candidate, error)
}

// Reranker is the Stage 2 capability the pipeline depends on.
type Reranker interface {
	ModelName() string
	Rerank(ctx context.Context, query string, candidates []models.Candidate, topK int) ([]models.ClassifyResult, error)
}

// ModelInfo reports an adapter's effective model name for provenance.
type ModelInfo interface {
	ModelName() string
}

// Classifier routes classify calls through the two-stage pipeline. It is
// stateless per call; share one instance across callers when the wrapped
// adapters tolerate the same concurrency.
type Classifier struct {
	retriever Retriever
	reranker  Reranker
	embedder  ModelInfo
	log       *logrus.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(retriever Retriever, reranker Reranker, embedder ModelInfo, log *logrus.Logger) *Classifier {
	return &Classifier{retriever: retriever, reranker: reranker, embedder: embedder, log: log}
}

// Classify validates the request, retrieves the candidate pool, and adapts
// or re-ranks it according to the requested mode. Domain errors propagate
// unchanged.
func (s *Classifier) Classify(ctx context.Context, req models.SearchRequest) (*models.ClassifyResponse, error) {
	req.Normalize()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	candidates, err := s.retriever.Retrieve(ctx, req.Query, req.PoolSize)
	if err != nil {
		return nil, err
	}

	var results []models.ClassifyResult

	switch req.Mode {
	case models.ModeFast:
		results = adaptCandidates(candidates, req.TopK)
	case models.ModeHighFidelity:
		if len(candidates) == 0 {
			s.log.WithField("query_len", len(req.Query)).Info("empty candidate pool, skipping rerank")

			break
		}

		results, err = s.reranker.Rerank(ctx, req.Query, candidates, req.TopK)
		if err != nil {
			return nil, err
		}
	}

	metrics.ClassificationsTotal.WithLabelValues(string(req.Mode)).Inc()
	metrics.StageDuration.WithLabelValues("classify").Observe(time.Since(start).Seconds())

	s.log.WithFields(logrus.Fields{
		"mode":       req.Mode,
		"candidates": len(candidates),
		"results":    len(results),
		"duration":   time.Since(start).String(),
	}).Info("classified")

	return &models.ClassifyResponse{
		Query:               req.Query,
		Mode:                req.Mode,
		TopKRequested:       req.TopK,
		CandidatesRetrieved: len(candidates),
		Results:             results,
		GeneratedAt:         time.Now().UTC(),
		EmbedModel:          s.embedder.ModelName(),
		LLMModel:            s.reranker.ModelName(),
	}, nil
}

// adaptCandidates converts the leading candidates into FAST-mode results
// with deterministic machine reasons.
func adaptCandidates(candidates []models.Candidate, topK int) []models.ClassifyResult {
	n := min(topK, len(candidates))
	results := make([]models.ClassifyResult, 0, n)

	for i := range n {
		results = append(results, models.ResultFromCandidate(candidates[i], i+1))
	}

	return results
}
