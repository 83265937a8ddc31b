package models

import (
	"fmt"
	"strings"
)

// Mode selects the classification pipeline routing.
type Mode string

// Pipeline modes.
const (
	// ModeFast returns Stage 1 candidates directly, skipping the LLM.
	ModeFast Mode = "FAST"

	// ModeHighFidelity re-ranks Stage 1 candidates with the LLM.
	ModeHighFidelity Mode = "HIGH_FIDELITY"
)

// Request parameter bounds.
const (
	MaxQueryLen = 2000

	MinTopK = 1
	MaxTopK = 20

	MinPoolSize = 5
	MaxPoolSize = 100
)

// Request defaults, applied by Normalize.
const (
	DefaultTopK     = 5
	DefaultPoolSize = 20
)

// SearchRequest describes a single classification query.
// Construct via NewSearchRequest or call Normalize before use.
type SearchRequest struct {
	Query    string `json:"query"`
	Mode     Mode   `json:"mode,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
	PoolSize int    `json:"pool_size,omitempty"`
}

// NewSearchRequest builds a normalized, validated request. Zero-valued
// parameters receive their defaults.
func NewSearchRequest(query string, mode Mode, topK, poolSize int) (SearchRequest, error) {
	r := SearchRequest{Query: query, Mode: mode, TopK: topK, PoolSize: poolSize}
	r.Normalize()

	if err := r.Validate(); err != nil {
		return SearchRequest{}, err
	}

	return r, nil
}

// Normalize trims the query and fills unset fields with defaults.
func (r *SearchRequest) Normalize() {
	r.Query = strings.TrimSpace(r.Query)

	if r.Mode == "" {
		r.Mode = ModeHighFidelity
	}

	if r.TopK == 0 {
		r.TopK = DefaultTopK
	}

	if r.PoolSize == 0 {
		r.PoolSize = DefaultPoolSize
	}
}

// Validate checks the request invariants. Violations are reported as
// configuration errors per the taxonomy.
func (r SearchRequest) Validate() error {
	if r.Query == "" {
		return ConfigErrorf("query must not be empty")
	}

	if len(r.Query) > MaxQueryLen {
		return ConfigErrorf("query exceeds maximum length of %d", MaxQueryLen)
	}

	if r.Mode != ModeFast && r.Mode != ModeHighFidelity {
		return ConfigErrorf("mode must be %s or %s, got %q", ModeFast, ModeHighFidelity, r.Mode)
	}

	if r.TopK < MinTopK || r.TopK > MaxTopK {
		return ConfigErrorf("top_k must be between %d and %d, got %d", MinTopK, MaxTopK, r.TopK)
	}

	if r.PoolSize < MinPoolSize || r.PoolSize > MaxPoolSize {
		return ConfigErrorf("pool_size must be between %d and %d, got %d", MinPoolSize, MaxPoolSize, r.PoolSize)
	}

	if r.PoolSize < r.TopK {
		return ConfigErrorf("pool_size (%d) must not be smaller than top_k (%d)", r.PoolSize, r.TopK)
	}

	return nil
}

// ParseMode converts a wire string to a Mode, accepting any casing.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeFast:
		return ModeFast, nil
	case ModeHighFidelity, "":
		return ModeHighFidelity, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}
