package db

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/anzclass/anzclass/internal/dbpool"
)

// VerifyVectorDimensions checks that the anzsic_codes.embedding column
// matches the configured dimension. The catalogue is ingested offline with
// precomputed vectors, so a mismatch is a deployment error: querying with a
// differently-sized vector would fail on every call.
func VerifyVectorDimensions(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, dimensions int) error {
	if dimensions < 1 || dimensions > 4096 {
		return fmt.Errorf("embedding dimensions must be between 1 and 4096, got %d", dimensions)
	}

	var currentType string
	err := pool.QueryRow(ctx,
		`SELECT format_type(a.atttypid, a.atttypmod)
		 FROM pg_attribute a
		 JOIN pg_class c ON c.oid = a.attrelid
		 WHERE c.relname = 'anzsic_codes' AND a.attname = 'embedding' AND NOT a.attisdropped`,
	).Scan(&currentType)
	if err != nil {
		return fmt.Errorf("querying embedding column type: %w", err)
	}

	expectedType := fmt.Sprintf("vector(%d)", dimensions)
	if currentType != expectedType {
		return fmt.Errorf("embedding column is %s but EMBED_DIM expects %s; re-ingest the catalogue or fix the config",
			currentType, expectedType)
	}

	log.WithField("dimensions", dimensions).Debug("embedding column dimensions match config")

	return nil
}
