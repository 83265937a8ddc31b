package retrieval

import (
	"context"
	"sync"

	"github.com/anzclass/anzclass/internal/models"
)

// mockEmbedder records calls and returns configured responses.
type mockEmbedder struct {
	mu    sync.Mutex
	calls []string

	embedQuery func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.record("EmbedQuery")
	if m.embedQuery == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return m.embedQuery(ctx, text)
}

// mockSearchStore records calls and returns configured responses.
type mockSearchStore struct {
	mu    sync.Mutex
	calls []string

	vectorSearch func(ctx context.Context, embedding []float32, n int) ([]models.RankedCode, error)
	ftsSearch    func(ctx context.Context, query string, n int) ([]models.RankedCode, error)
	fetchByCodes func(ctx context.Context, codes []string) (map[string]models.CatalogueRecord, error)
}

func (m *mockSearchStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockSearchStore) called(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockSearchStore) VectorSearch(ctx context.Context, embedding []float32, n int) ([]models.RankedCode, error) {
	m.record("VectorSearch")
	if m.vectorSearch == nil {
		return nil, nil
	}
	return m.vectorSearch(ctx, embedding, n)
}

func (m *mockSearchStore) FTSSearch(ctx context.Context, query string, n int) ([]models.RankedCode, error) {
	m.record("FTSSearch")
	if m.ftsSearch == nil {
		return nil, nil
	}
	return m.ftsSearch(ctx, query, n)
}

func (m *mockSearchStore) FetchByCodes(ctx context.Context, codes []string) (map[string]models.CatalogueRecord, error) {
	m.record("FetchByCodes")
	if m.fetchByCodes == nil {
		return nil, nil
	}
	return m.fetchByCodes(ctx, codes)
}

// recordsFor builds a hydrate result covering every given code.
func recordsFor(codes ...string) map[string]models.CatalogueRecord {
	out := make(map[string]models.CatalogueRecord, len(codes))
	for _, c := range codes {
		out[c] = models.CatalogueRecord{Code: c, Description: "desc " + c}
	}
	return out
}
