package rerank

import (
	"context"
	"sync"

	"github.com/anzclass/anzclass/internal/models"
)

// mockGenerator returns queued responses in order and records prompts.
type mockGenerator struct {
	mu        sync.Mutex
	calls     int
	systems   []string
	users     []string
	responses []string
	errs      []error
}

func (m *mockGenerator) ModelName() string { return "mock-llm" }

func (m *mockGenerator) GenerateJSON(_ context.Context, systemPrompt, userMessage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++
	m.systems = append(m.systems, systemPrompt)
	m.users = append(m.users, userMessage)

	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return "[]", nil
}

// mockCatalogue serves a fixed listing.
type mockCatalogue struct {
	mu      sync.Mutex
	calls   int
	entries []models.CatalogueEntry
	err     error
}

func (m *mockCatalogue) ListCatalogue(_ context.Context) ([]models.CatalogueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.entries, m.err
}

func candidateFixture(code string, score float64) models.Candidate {
	return models.Candidate{
		CatalogueRecord: models.CatalogueRecord{
			Code:         code,
			Description:  "desc " + code,
			ClassDesc:    "class " + code,
			GroupDesc:    "group " + code,
			DivisionDesc: "division " + code,
		},
		RRFScore: score,
		InVector: true,
		VectorRank: 1,
	}
}
