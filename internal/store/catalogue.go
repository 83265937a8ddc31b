package store

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/anzclass/anzclass/internal/models"
)

// CatalogueStore serves vector, lexical, and key lookups over the catalogue.
type CatalogueStore struct {
	Base
}

// NewCatalogueStore creates a CatalogueStore.
func NewCatalogueStore(base Base) *CatalogueStore {
	return &CatalogueStore{Base: base}
}

const catalogueColumns = `code, description, class_desc, group_desc,
	subdivision_desc, division_desc, class_exclusions, enriched_text`

// VectorSearch returns up to n codes ordered by cosine distance to the given
// embedding, ranks starting at 1.
func (s *CatalogueStore) VectorSearch(ctx context.Context, embedding []float32, n int) ([]models.RankedCode, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sql := `SELECT code
		FROM anzsic_codes
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`

	rows, err := s.Pool.Query(ctx, sql, pgvector.NewVector(embedding), n)
	if err != nil {
		return nil, models.DatabaseError(err, "executing vector search")
	}
	defer rows.Close()

	return collectRanked(rows)
}

// FTSSearch returns up to n codes ordered by lexical relevance against the
// indexed enriched text and description, ranks starting at 1. Queries with no matching terms
// yield an empty list.
func (s *CatalogueStore) FTSSearch(ctx context.Context, query string, n int) ([]models.RankedCode, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sql := `SELECT code
		FROM anzsic_codes
		WHERE search_tsv @@ websearch_to_tsquery('english', $1)
		ORDER BY ts_rank(search_tsv, websearch_to_tsquery('english', $1)) DESC, code
		LIMIT $2`

	rows, err := s.Pool.Query(ctx, sql, query, n)
	if err != nil {
		return nil, models.DatabaseError(err, "executing fts search")
	}
	defer rows.Close()

	return collectRanked(rows)
}

// FetchByCodes hydrates catalogue records for the given codes in one query.
// The returned mapping is unordered and may omit codes the catalogue does
// not know.
func (s *CatalogueStore) FetchByCodes(ctx context.Context, codes []string) (map[string]models.CatalogueRecord, error) {
	if len(codes) == 0 {
		return map[string]models.CatalogueRecord{}, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sql := `SELECT ` + catalogueColumns + `
		FROM anzsic_codes
		WHERE code = ANY($1)`

	rows, err := s.Pool.Query(ctx, sql, codes)
	if err != nil {
		return nil, models.DatabaseError(err, "fetching records by code")
	}
	defer rows.Close()

	records := make(map[string]models.CatalogueRecord, len(codes))

	for rows.Next() {
		var r models.CatalogueRecord
		if err := rows.Scan(
			&r.Code, &r.Description, &r.ClassDesc, &r.GroupDesc,
			&r.SubdivisionDesc, &r.DivisionDesc, &r.ClassExclusions, &r.EnrichedText,
		); err != nil {
			return nil, models.DatabaseError(err, "scanning catalogue record")
		}

		records[r.Code] = r
	}

	if err := rows.Err(); err != nil {
		return nil, models.DatabaseError(err, "iterating catalogue records")
	}

	return records, nil
}

// ListCatalogue returns every code with its short description, ordered by
// code, for the reranker's wide-context reference.
func (s *CatalogueStore) ListCatalogue(ctx context.Context) ([]models.CatalogueEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `SELECT code, description FROM anzsic_codes ORDER BY code`)
	if err != nil {
		return nil, models.DatabaseError(err, "listing catalogue")
	}
	defer rows.Close()

	var entries []models.CatalogueEntry

	for rows.Next() {
		var e models.CatalogueEntry
		if err := rows.Scan(&e.Code, &e.Description); err != nil {
			return nil, models.DatabaseError(err, "scanning catalogue entry")
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, models.DatabaseError(err, "iterating catalogue entries")
	}

	return entries, nil
}

// HealthCheck verifies the catalogue is reachable and populated.
func (s *CatalogueStore) HealthCheck(ctx context.Context) bool {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM anzsic_codes`).Scan(&count); err != nil {
		s.Log.WithError(err).Warn("catalogue health check failed")

		return false
	}

	return count > 0
}
