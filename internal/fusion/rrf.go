// Package fusion implements Reciprocal Rank Fusion over independent ranked
// search result lists.
package fusion

import (
	"fmt"
	"sort"

	"github.com/anzclass/anzclass/internal/models"
)

// DefaultK is the conventional RRF constant; a single k applies to both
// lists (equal weighting).
const DefaultK = 60

// Entry is one fused result with its provenance.
type Entry struct {
	Code       string
	Score      float64
	InVector   bool
	InFTS      bool
	VectorRank int // 0 when not surfaced by vector search
	FTSRank    int // 0 when not surfaced by FTS
}

// BestRank is the smaller of the entry's per-stream ranks, used as the
// deterministic tie-break key.
func (e Entry) BestRank() int {
	switch {
	case e.VectorRank > 0 && e.FTSRank > 0:
		return min(e.VectorRank, e.FTSRank)
	case e.VectorRank > 0:
		return e.VectorRank
	default:
		return e.FTSRank
	}
}

// Fuse merges a vector result list and an FTS result list with RRF: each
// occurrence of a code at rank r contributes 1/(k+r) to its cumulative score.
//
// Ordering is descending by score, ties broken by best per-stream rank then
// code, so identical inputs always produce identical output regardless of
// map iteration order. Duplicate codes within one list keep their best rank.
func Fuse(vectorList, ftsList []models.RankedCode, k int) ([]Entry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("rrf k must be positive, got %d", k)
	}

	entries := make(map[string]*Entry, len(vectorList)+len(ftsList))

	for _, rc := range vectorList {
		e := entries[rc.Code]
		if e == nil {
			e = &Entry{Code: rc.Code}
			entries[rc.Code] = e
		}

		if e.VectorRank == 0 || rc.Rank < e.VectorRank {
			e.VectorRank = rc.Rank
		}
		e.InVector = true
	}

	for _, rc := range ftsList {
		e := entries[rc.Code]
		if e == nil {
			e = &Entry{Code: rc.Code}
			entries[rc.Code] = e
		}

		if e.FTSRank == 0 || rc.Rank < e.FTSRank {
			e.FTSRank = rc.Rank
		}
		e.InFTS = true
	}

	fused := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.VectorRank > 0 {
			e.Score += 1 / float64(k+e.VectorRank)
		}
		if e.FTSRank > 0 {
			e.Score += 1 / float64(k+e.FTSRank)
		}
		fused = append(fused, *e)
	}

	sort.Slice(fused, func(i, j int) bool {
		a, b := fused[i], fused[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if ar, br := a.BestRank(), b.BestRank(); ar != br {
			return ar < br
		}
		return a.Code < b.Code
	})

	return fused, nil
}
