// Package retrieval implements Stage 1 of the classification pipeline:
// hybrid dense + lexical retrieval fused with RRF.
package retrieval

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/anzclass/anzclass/internal/fusion"
	"github.com/anzclass/anzclass/internal/metrics"
	"github.com/anzclass/anzclass/internal/models"
)

// Embedder produces query embeddings. The retriever uses the retrieval-query
// task orientation; document embedding belongs to offline ingestion.
type Embedder interface {
	ModelName() string
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SearchStore defines the datastore methods the retriever depends on. Both
// search methods return ordered (code, rank) lists with ranks starting at 1;
// FetchByCodes returns an unordered mapping and may omit codes.
type SearchStore interface {
	VectorSearch(ctx context.Context, embedding []float32, n int) ([]models.RankedCode, error)
	FTSSearch(ctx context.Context, query string, n int) ([]models.RankedCode, error)
	FetchByCodes(ctx context.Context, codes []string) (map[string]models.CatalogueRecord, error)
}

// Options configures retriever behavior.
type Options struct {
	// RRFK is the fusion constant; must be positive.
	RRFK int

	// Strict surfaces a RetrievalError when exactly one search stream fails.
	// When false the surviving stream is used alone, at a documented
	// precision cost.
	Strict bool
}

// HybridRetriever orchestrates embed → concurrent dual search → fuse →
// hydrate. It is stateless per call and safe for concurrent use when its
// collaborators are.
type HybridRetriever struct {
	embedder Embedder
	store    SearchStore
	opts     Options
	log      *logrus.Logger
}

// New creates a HybridRetriever. A zero RRFK falls back to fusion.DefaultK.
func New(embedder Embedder, store SearchStore, opts Options, log *logrus.Logger) *HybridRetriever {
	if opts.RRFK == 0 {
		opts.RRFK = fusion.DefaultK
	}

	return &HybridRetriever{embedder: embedder, store: store, opts: opts, log: log}
}

// Retrieve returns up to poolSize candidates for the query, ordered by fused
// relevance. An empty result is legal; errors follow the taxonomy.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, poolSize int) ([]models.Candidate, error) {
	start := time.Now()

	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	metrics.StageDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())

	vecList, ftsList, err := r.dualSearch(ctx, query, embedding, poolSize)
	if err != nil {
		return nil, err
	}

	fused, err := fusion.Fuse(vecList, ftsList, r.opts.RRFK)
	if err != nil {
		return nil, models.ConfigErrorf("rrf fusion: %v", err)
	}

	if len(fused) > poolSize {
		fused = fused[:poolSize]
	}

	if len(fused) == 0 {
		r.log.WithField("query_len", len(query)).Debug("both search streams empty")

		return nil, nil
	}

	candidates, err := r.hydrate(ctx, fused)
	if err != nil {
		return nil, err
	}

	metrics.StageDuration.WithLabelValues("retrieve").Observe(time.Since(start).Seconds())

	return candidates, nil
}

// dualSearch issues the vector and FTS searches concurrently. Each stream
// records its own error so the strict policy can distinguish a partial
// failure from a total one; the sibling is never cancelled early.
func (r *HybridRetriever) dualSearch(
	ctx context.Context, query string, embedding []float32, n int,
) (vecList, ftsList []models.RankedCode, err error) {
	var (
		g      errgroup.Group
		vecErr error
		ftsErr error
	)

	g.Go(func() error {
		vecList, vecErr = r.store.VectorSearch(ctx, embedding, n)

		return nil
	})
	g.Go(func() error {
		ftsList, ftsErr = r.store.FTSSearch(ctx, query, n)

		return nil
	})

	g.Wait() //nolint:errcheck // goroutines report through vecErr/ftsErr.

	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	switch {
	case vecErr != nil && ftsErr != nil:
		return nil, nil, vecErr
	case vecErr != nil:
		if r.opts.Strict {
			return nil, nil, models.RetrievalError(vecErr, "vector search failed while fts succeeded")
		}

		r.log.WithError(vecErr).Warn("vector search failed, continuing with fts only")

		return nil, ftsList, nil
	case ftsErr != nil:
		if r.opts.Strict {
			return nil, nil, models.RetrievalError(ftsErr, "fts search failed while vector succeeded")
		}

		r.log.WithError(ftsErr).Warn("fts search failed, continuing with vector only")

		return vecList, nil, nil
	}

	return vecList, ftsList, nil
}

// hydrate expands fused codes into full candidates with a single lookup,
// restoring the fusion order. FetchByCodes does not guarantee input order.
func (r *HybridRetriever) hydrate(ctx context.Context, fused []fusion.Entry) ([]models.Candidate, error) {
	codes := make([]string, len(fused))
	for i, e := range fused {
		codes[i] = e.Code
	}

	records, err := r.store.FetchByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(fused))
	missing := 0

	for _, e := range fused {
		rec, ok := records[e.Code]
		if !ok {
			missing++

			continue
		}

		candidates = append(candidates, models.Candidate{
			CatalogueRecord: rec,
			RRFScore:        e.Score,
			InVector:        e.InVector,
			InFTS:           e.InFTS,
			VectorRank:      e.VectorRank,
			FTSRank:         e.FTSRank,
		})
	}

	if missing > 0 {
		metrics.HydrateMissing.Add(float64(missing))
		r.log.WithFields(logrus.Fields{
			"missing":   missing,
			"requested": len(fused),
		}).Warn("hydrate returned fewer records than requested")
	}

	if len(candidates) == 0 {
		return nil, models.RetrievalError(nil, "hydrate returned no records for %d fused codes", len(fused))
	}

	return candidates, nil
}
