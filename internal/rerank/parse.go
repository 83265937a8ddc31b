package rerank

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// rankedEntry is one element of the model's JSON array reply.
type rankedEntry struct {
	Rank   int    `json:"rank"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// parseRanking decodes the model reply into an ordered entry list. It accepts
// a bare JSON array, or an object carrying a single top-level array field
// (the first well-formed array by key order wins). A decode failure at both
// shapes is a parse error; an empty array is a valid, empty ranking.
func parseRanking(raw string) ([]rankedEntry, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty response body")
	}

	var entries []rankedEntry
	if err := json.Unmarshal([]byte(trimmed), &entries); err == nil {
		return normalizeEntries(entries), nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
		return nil, fmt.Errorf("response is neither a JSON array nor an object: %w", err)
	}

	keys := make([]string, 0, len(wrapper))
	for k := range wrapper {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := json.Unmarshal(wrapper[k], &entries); err == nil {
			return normalizeEntries(entries), nil
		}
	}

	return nil, fmt.Errorf("no array field found in response object")
}

// normalizeEntries fills missing ranks by position and orders by rank.
func normalizeEntries(entries []rankedEntry) []rankedEntry {
	for i := range entries {
		if entries[i].Rank == 0 {
			entries[i].Rank = i + 1
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Rank < entries[j].Rank
	})

	return entries
}

// filterEntries drops entries without a code, entries outside the allowed
// code set, and duplicates (first occurrence wins), then truncates to topK
// and renumbers ranks 1..N.
func filterEntries(entries []rankedEntry, allowed func(code string) bool, topK int) (kept []rankedEntry, dropped []string) {
	seen := make(map[string]bool, len(entries))

	for _, e := range entries {
		e.Code = strings.TrimSpace(e.Code)

		switch {
		case e.Code == "":
			dropped = append(dropped, "<missing code>")
		case !allowed(e.Code):
			dropped = append(dropped, e.Code)
		case seen[e.Code]:
			// Duplicate: keep the first.
		default:
			seen[e.Code] = true
			kept = append(kept, e)
		}
	}

	if len(kept) > topK {
		kept = kept[:topK]
	}

	for i := range kept {
		kept[i].Rank = i + 1
	}

	return kept, dropped
}
