// Package store provides data access to the ANZSIC catalogue.
//
// The catalogue is a read-only, pre-ingested table: codes, their hierarchy
// descriptions, enriched text, and precomputed embeddings. Stores embed
// shared helpers (Pool, logger) via the Base struct.
package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anzclass/anzclass/internal/dbpool"
)

const defaultQueryTimeout = 5 * time.Second

// Base contains shared dependencies for all stores.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}
