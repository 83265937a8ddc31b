package models

import (
	"errors"
	"strings"
	"testing"
)

func TestSearchRequestNormalize(t *testing.T) {
	r := SearchRequest{Query: "  mobile mechanic  "}
	r.Normalize()

	if r.Query != "mobile mechanic" {
		t.Errorf("query not trimmed: %q", r.Query)
	}
	if r.Mode != ModeHighFidelity {
		t.Errorf("default mode = %q, want %q", r.Mode, ModeHighFidelity)
	}
	if r.TopK != DefaultTopK || r.PoolSize != DefaultPoolSize {
		t.Errorf("defaults not applied: top_k=%d pool_size=%d", r.TopK, r.PoolSize)
	}
}

func TestSearchRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SearchRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(*SearchRequest) {}},
		{name: "empty query", mutate: func(r *SearchRequest) { r.Query = "   " }, wantErr: true},
		{name: "query too long", mutate: func(r *SearchRequest) { r.Query = strings.Repeat("x", MaxQueryLen+1) }, wantErr: true},
		{name: "bad mode", mutate: func(r *SearchRequest) { r.Mode = "TURBO" }, wantErr: true},
		{name: "top_k too small", mutate: func(r *SearchRequest) { r.TopK = -1 }, wantErr: true},
		{name: "top_k too large", mutate: func(r *SearchRequest) { r.TopK = MaxTopK + 1 }, wantErr: true},
		{name: "pool_size too small", mutate: func(r *SearchRequest) { r.PoolSize = MinPoolSize - 1 }, wantErr: true},
		{name: "pool_size too large", mutate: func(r *SearchRequest) { r.PoolSize = MaxPoolSize + 1 }, wantErr: true},
		{name: "top_k above pool_size", mutate: func(r *SearchRequest) { r.TopK = 20; r.PoolSize = 10 }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := SearchRequest{Query: "runs a cafe", Mode: ModeHighFidelity, TopK: 5, PoolSize: 20}
			tc.mutate(&r)
			r.Query = strings.TrimSpace(r.Query)

			err := r.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !IsKind(err, KindConfiguration) {
					t.Errorf("kind = %q, want configuration", KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewSearchRequestRejectsTopKAbovePool(t *testing.T) {
	_, err := NewSearchRequest("welder", ModeFast, 10, 5)
	if !IsKind(err, KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "fast", want: ModeFast},
		{in: "FAST", want: ModeFast},
		{in: " high_fidelity ", want: ModeHighFidelity},
		{in: "", want: ModeHighFidelity},
		{in: "medium", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestCandidateSourceLabel(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
		want string
	}{
		{name: "both", c: Candidate{InVector: true, InFTS: true, VectorRank: 1, FTSRank: 2}, want: SourceBoth},
		{name: "vector only", c: Candidate{InVector: true, VectorRank: 3}, want: SourceVector},
		{name: "fts only", c: Candidate{InFTS: true, FTSRank: 1}, want: SourceFTS},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.SourceLabel(); got != tc.want {
				t.Errorf("SourceLabel() = %q, want %q", got, tc.want)
			}
			if err := tc.c.Validate(); err != nil {
				t.Errorf("unexpected invariant violation: %v", err)
			}
		})
	}
}

func TestCandidateValidateRejectsOrphans(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
	}{
		{name: "no stream", c: Candidate{}},
		{name: "flag without rank", c: Candidate{InVector: true}},
		{name: "rank without flag", c: Candidate{InFTS: true, FTSRank: 1, VectorRank: 4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.c.Validate(); err == nil {
				t.Error("expected invariant violation")
			}
		})
	}
}

func TestFastReason(t *testing.T) {
	c := Candidate{RRFScore: 0.5, InVector: true, VectorRank: 1}
	got := FastReason(c)
	if !strings.Contains(got, "RRF score 0.5") || !strings.Contains(got, "sources: vector") {
		t.Errorf("unexpected reason: %q", got)
	}
}

func TestResultFromCandidatePreservesFields(t *testing.T) {
	c := Candidate{
		CatalogueRecord: CatalogueRecord{
			Code:         "451100",
			Description:  "Cafes and Restaurants",
			ClassDesc:    "Cafes and Restaurants",
			DivisionDesc: "Accommodation and Food Services",
		},
		RRFScore: 0.032,
		InVector: true, InFTS: true, VectorRank: 1, FTSRank: 1,
	}

	res := ResultFromCandidate(c, 3)
	if res.Rank != 3 || res.Code != c.Code || res.Description != c.Description ||
		res.ClassDesc != c.ClassDesc || res.DivisionDesc != c.DivisionDesc || res.RRFScore != c.RRFScore {
		t.Errorf("field mapping lost data: %+v", res)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection refused")
	err := DatabaseError(cause, "vector search")

	if !IsKind(err, KindDatabase) {
		t.Errorf("kind = %q, want database", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable via errors.Is")
	}

	var ce *ClassifierError
	if !errors.As(err, &ce) {
		t.Fatal("not a ClassifierError")
	}
	if ce.Kind != KindDatabase {
		t.Errorf("ce.Kind = %q", ce.Kind)
	}

	if KindOf(errors.New("plain")) != "" {
		t.Error("plain error should have no kind")
	}
}
