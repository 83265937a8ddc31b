package rerank

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/anzclass/anzclass/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testCandidates() []models.Candidate {
	return []models.Candidate{
		candidateFixture("X", 0.5),
		candidateFixture("Y", 0.3),
		candidateFixture("Z", 0.1),
	}
}

func TestRerankHappyPath(t *testing.T) {
	llm := &mockGenerator{responses: []string{
		`[{"rank":1,"code":"Y","reason":"exact domain match"},{"rank":2,"code":"X","reason":"adjacent"}]`,
	}}
	cat := &mockCatalogue{}

	r := New(llm, cat, testLogger())

	results, err := r.Rerank(context.Background(), "runs a cafe", testCandidates(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Code != "Y" || results[0].Reason != "exact domain match" {
		t.Errorf("result[0] = %+v", results[0])
	}
	if results[1].Code != "X" || results[1].Reason != "adjacent" {
		t.Errorf("result[1] = %+v", results[1])
	}

	// Enriched from the candidate pool, score carried through.
	if results[0].Description != "desc Y" || results[0].RRFScore != 0.3 {
		t.Errorf("enrichment wrong: %+v", results[0])
	}

	if llm.calls != 1 {
		t.Errorf("llm called %d times, want 1", llm.calls)
	}
	if cat.calls != 0 {
		t.Error("catalogue listed without fallback")
	}
}

func TestRerankPromptContents(t *testing.T) {
	llm := &mockGenerator{responses: []string{`[{"rank":1,"code":"X","reason":"r"}]`}}

	r := New(llm, &mockCatalogue{}, testLogger())

	cands := testCandidates()
	cands[0].ClassExclusions = "except bakeries"

	if _, err := r.Rerank(context.Background(), "mobile mechanic", cands, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(llm.systems[0], "JSON") {
		t.Error("system prompt missing the literal token JSON")
	}

	user := llm.users[0]
	for _, want := range []string{"mobile mechanic", "1. code: X", "2. code: Y", "3. code: Z", "exclusions: except bakeries", "division X"} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q", want)
		}
	}
	if strings.Contains(user, "exclusions: \n") {
		t.Error("empty exclusions should be omitted")
	}
}

func TestRerankEmptyToFallback(t *testing.T) {
	llm := &mockGenerator{responses: []string{
		`[]`,
		`[{"rank":1,"code":"Q","reason":"CSV hit"}]`,
	}}
	cat := &mockCatalogue{entries: []models.CatalogueEntry{
		{Code: "Q", Description: "Quarrying Services"},
		{Code: "X", Description: "desc X"},
	}}

	r := New(llm, cat, testLogger())

	results, err := r.Rerank(context.Background(), "quarry operator", testCandidates(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 || results[0].Code != "Q" || results[0].Rank != 1 {
		t.Fatalf("results = %+v", results)
	}

	// Q is not a candidate: catalogue description, zero fusion score.
	if results[0].Description != "Quarrying Services" || results[0].RRFScore != 0 {
		t.Errorf("fallback enrichment wrong: %+v", results[0])
	}

	if llm.calls != 2 || cat.calls != 1 {
		t.Errorf("calls: llm=%d cat=%d", llm.calls, cat.calls)
	}

	// Second system prompt embeds the catalogue listing.
	if !strings.Contains(llm.systems[1], "Q,Quarrying Services") {
		t.Error("fallback system prompt missing catalogue CSV")
	}
	if strings.Contains(llm.systems[0], "Quarrying Services") {
		t.Error("first attempt must not carry the catalogue CSV")
	}
}

func TestRerankEmptyAfterFallback(t *testing.T) {
	llm := &mockGenerator{responses: []string{`[]`, `[]`}}
	cat := &mockCatalogue{entries: []models.CatalogueEntry{{Code: "Q", Description: "Q desc"}}}

	r := New(llm, cat, testLogger())

	results, err := r.Rerank(context.Background(), "unclassifiable", testCandidates(), 5)
	if err != nil {
		t.Fatalf("empty-after-fallback must not error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want empty", results)
	}
	if llm.calls != 2 {
		t.Errorf("llm called %d times, want 2", llm.calls)
	}
}

func TestRerankTransportFailureSkipsFallback(t *testing.T) {
	llmErr := models.LLMError(errors.New("504"), "generate")
	llm := &mockGenerator{errs: []error{llmErr}}
	cat := &mockCatalogue{}

	r := New(llm, cat, testLogger())

	_, err := r.Rerank(context.Background(), "welder", testCandidates(), 5)
	if !models.IsKind(err, models.KindLLM) {
		t.Fatalf("expected llm error, got %v", err)
	}
	if llm.calls != 1 || cat.calls != 0 {
		t.Errorf("fallback ran after transport failure: llm=%d cat=%d", llm.calls, cat.calls)
	}
}

func TestRerankMalformedJSON(t *testing.T) {
	llm := &mockGenerator{responses: []string{"I think the best code is 451100"}}

	r := New(llm, &mockCatalogue{}, testLogger())

	_, err := r.Rerank(context.Background(), "welder", testCandidates(), 5)
	if !models.IsKind(err, models.KindLLM) {
		t.Fatalf("expected llm error, got %v", err)
	}
	if llm.calls != 1 {
		t.Errorf("fallback must not run on malformed JSON; llm calls = %d", llm.calls)
	}
}

func TestRerankUnknownAndDuplicateCodes(t *testing.T) {
	llm := &mockGenerator{responses: []string{
		`[{"rank":1,"code":"X","reason":"a"},
		  {"rank":2,"code":"NOPE","reason":"hallucinated"},
		  {"rank":3,"code":"X","reason":"dup"},
		  {"rank":4,"code":"Z","reason":"b"}]`,
	}}

	r := New(llm, &mockCatalogue{}, testLogger())

	results, err := r.Rerank(context.Background(), "welder", testCandidates(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Code != "X" || results[0].Reason != "a" {
		t.Errorf("duplicate did not keep first: %+v", results[0])
	}
	if results[1].Code != "Z" || results[1].Rank != 2 {
		t.Errorf("ranks not contiguous after filtering: %+v", results[1])
	}
}

func TestRerankTruncatesToTopK(t *testing.T) {
	llm := &mockGenerator{responses: []string{
		`[{"rank":1,"code":"X","reason":"a"},{"rank":2,"code":"Y","reason":"b"},{"rank":3,"code":"Z","reason":"c"}]`,
	}}

	r := New(llm, &mockCatalogue{}, testLogger())

	results, err := r.Rerank(context.Background(), "welder", testCandidates(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Code != "X" || results[1].Code != "Y" {
		t.Errorf("unexpected order: %+v", results)
	}
}

func TestRerankAcceptsWrappedArray(t *testing.T) {
	llm := &mockGenerator{responses: []string{
		`{"results":[{"rank":1,"code":"Y","reason":"wrapped"}]}`,
	}}

	r := New(llm, &mockCatalogue{}, testLogger())

	results, err := r.Rerank(context.Background(), "welder", testCandidates(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Code != "Y" {
		t.Errorf("results = %+v", results)
	}
}

func TestRerankFillsMissingRankAndReason(t *testing.T) {
	llm := &mockGenerator{responses: []string{
		`[{"code":"Z"},{"code":"X","reason":"has reason"}]`,
	}}

	r := New(llm, &mockCatalogue{}, testLogger())

	results, err := r.Rerank(context.Background(), "welder", testCandidates(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Code != "Z" || results[0].Rank != 1 || results[0].Reason != "" {
		t.Errorf("result[0] = %+v", results[0])
	}
	if results[1].Code != "X" || results[1].Rank != 2 || results[1].Reason != "has reason" {
		t.Errorf("result[1] = %+v", results[1])
	}
}

func TestRerankCatalogueListFailurePropagates(t *testing.T) {
	dbErr := models.DatabaseError(errors.New("down"), "list catalogue")
	llm := &mockGenerator{responses: []string{`[]`}}
	cat := &mockCatalogue{err: dbErr}

	r := New(llm, cat, testLogger())

	_, err := r.Rerank(context.Background(), "welder", testCandidates(), 5)
	if !models.IsKind(err, models.KindDatabase) {
		t.Fatalf("expected database error, got %v", err)
	}
}
