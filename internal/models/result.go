package models

import (
	"fmt"
	"time"
)

// ClassifyResult is one ranked classification with its justification.
type ClassifyResult struct {
	Rank         int     `json:"rank"`
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	ClassDesc    string  `json:"class_desc"`
	DivisionDesc string  `json:"division_desc"`
	Reason       string  `json:"reason"`
	RRFScore     float64 `json:"rrf_score"`
}

// ClassifyResponse is the full outcome of one classify call.
type ClassifyResponse struct {
	Query               string           `json:"query"`
	Mode                Mode             `json:"mode"`
	TopKRequested       int              `json:"top_k_requested"`
	CandidatesRetrieved int              `json:"candidates_retrieved"`
	Results             []ClassifyResult `json:"results"`
	GeneratedAt         time.Time        `json:"generated_at"`
	EmbedModel          string           `json:"embed_model"`
	LLMModel            string           `json:"llm_model"`
}

// FastReason synthesises the deterministic FAST-mode justification for a
// candidate, encoding its fusion score and provenance.
func FastReason(c Candidate) string {
	return fmt.Sprintf("RRF score %.5g; sources: %s", c.RRFScore, c.SourceLabel())
}

// ResultFromCandidate adapts a Stage 1 candidate into a ClassifyResult at the
// given 1-based rank, carrying the catalogue fields and fusion score through.
func ResultFromCandidate(c Candidate, rank int) ClassifyResult {
	return ClassifyResult{
		Rank:         rank,
		Code:         c.Code,
		Description:  c.Description,
		ClassDesc:    c.ClassDesc,
		DivisionDesc: c.DivisionDesc,
		Reason:       FastReason(c),
		RRFScore:     c.RRFScore,
	}
}
