// Package rerank implements Stage 2 of the classification pipeline: LLM
// re-ranking of the Stage 1 candidate pool with natural-language reasons.
package rerank

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/anzclass/anzclass/internal/metrics"
	"github.com/anzclass/anzclass/internal/models"
)

// Generator is the LLM capability the reranker consumes. GenerateJSON returns
// a string the adapter believes to be JSON; parsing is the reranker's job.
type Generator interface {
	ModelName() string
	GenerateJSON(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// CatalogueLister supplies the compact full-catalogue reference used by the
// wide-context fallback.
type CatalogueLister interface {
	ListCatalogue(ctx context.Context) ([]models.CatalogueEntry, error)
}

// Reranker drives the two-attempt LLM call policy.
type Reranker struct {
	llm       Generator
	catalogue CatalogueLister
	log       *logrus.Logger
}

// New creates a Reranker.
func New(llm Generator, catalogue CatalogueLister, log *logrus.Logger) *Reranker {
	return &Reranker{llm: llm, catalogue: catalogue, log: log}
}

// ModelName reports the effective model of the wrapped generator.
func (r *Reranker) ModelName() string { return r.llm.ModelName() }

// Rerank returns up to topK results chosen by the LLM from the candidate
// pool, falling back to the full-catalogue reference when the first attempt
// parses to a ranking with no usable entries (an empty list, or only codes
// outside the pool). An empty return with nil error is a legal outcome;
// transport and parse failures surface as LLM errors and never trigger the
// fallback.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []models.Candidate, topK int) ([]models.ClassifyResult, error) {
	byCode := make(map[string]models.Candidate, len(candidates))
	for _, c := range candidates {
		byCode[c.Code] = c
	}

	userMessage := buildUserMessage(query, candidates)

	raw, err := r.llm.GenerateJSON(ctx, buildSystemPrompt(topK), userMessage)
	if err != nil {
		return nil, err
	}

	entries, err := parseRanking(raw)
	if err != nil {
		return nil, models.LLMError(err, "parsing rerank response")
	}

	kept, dropped := filterEntries(entries, func(code string) bool {
		_, ok := byCode[code]
		return ok
	}, topK)
	r.logDropped(dropped)

	if len(kept) > 0 {
		return r.enrich(kept, byCode, nil), nil
	}

	// The model answered with a syntactically valid ranking that is empty
	// once unknown codes are dropped. Retry once with the full catalogue as
	// reference.
	return r.fallback(ctx, userMessage, byCode, topK)
}

// fallback reissues the call with the catalogue CSV appended to the system
// prompt. Codes outside the candidate pool are accepted when the catalogue
// knows them.
func (r *Reranker) fallback(
	ctx context.Context, userMessage string, byCode map[string]models.Candidate, topK int,
) ([]models.ClassifyResult, error) {
	metrics.RerankFallbacks.Inc()
	r.log.Info("first rerank attempt empty, retrying with catalogue reference")

	listing, err := r.catalogue.ListCatalogue(ctx)
	if err != nil {
		return nil, err
	}

	catalogueDesc := make(map[string]string, len(listing))
	for _, entry := range listing {
		catalogueDesc[entry.Code] = entry.Description
	}

	raw, err := r.llm.GenerateJSON(ctx, buildFallbackSystemPrompt(topK, listing), userMessage)
	if err != nil {
		return nil, err
	}

	entries, err := parseRanking(raw)
	if err != nil {
		return nil, models.LLMError(err, "parsing fallback rerank response")
	}

	kept, dropped := filterEntries(entries, func(code string) bool {
		if _, ok := byCode[code]; ok {
			return true
		}
		_, ok := catalogueDesc[code]
		return ok
	}, topK)
	r.logDropped(dropped)

	if len(kept) == 0 {
		// Empty after both attempts is a legal business outcome; record it
		// but let the caller decide.
		metrics.RerankEmpty.Inc()
		r.log.WithError(models.RerankError(nil, "empty ranking after fallback")).Warn("rerank produced no results")

		return nil, nil
	}

	return r.enrich(kept, byCode, catalogueDesc), nil
}

// enrich joins kept entries with candidate fields, or with catalogue fields
// (and a zero fusion score) for fallback-only codes.
func (r *Reranker) enrich(
	entries []rankedEntry, byCode map[string]models.Candidate, catalogueDesc map[string]string,
) []models.ClassifyResult {
	results := make([]models.ClassifyResult, 0, len(entries))

	for _, e := range entries {
		res := models.ClassifyResult{
			Rank:   e.Rank,
			Code:   e.Code,
			Reason: e.Reason,
		}

		if c, ok := byCode[e.Code]; ok {
			res.Description = c.Description
			res.ClassDesc = c.ClassDesc
			res.DivisionDesc = c.DivisionDesc
			res.RRFScore = c.RRFScore
		} else {
			res.Description = catalogueDesc[e.Code]
		}

		results = append(results, res)
	}

	return results
}

func (r *Reranker) logDropped(dropped []string) {
	if len(dropped) == 0 {
		return
	}

	r.log.WithFields(logrus.Fields{
		"count": len(dropped),
		"codes": dropped,
	}).Warn("dropped unknown or invalid codes from rerank response")
}
