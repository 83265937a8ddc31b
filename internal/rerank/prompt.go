package rerank

import (
	"fmt"
	"strings"

	"github.com/anzclass/anzclass/internal/models"
)

// systemPromptBase instructs the model to pick the best ANZSIC codes and
// reply with a bare JSON array. The literal word "JSON" is required by
// providers that gate structured-output mode on its presence.
const systemPromptBase = `You are an expert in the Australian and New Zealand Standard Industrial Classification (ANZSIC).
Given a free-text occupation or business description and a numbered list of candidate ANZSIC codes, select the codes that best classify the description.

Respond with a JSON array only. Each element must be an object of the form {"rank": <int>, "code": "<string>", "reason": "<string>"}.
Ranks are 1-based and ascending. Return at most the requested number of entries. Do not wrap the JSON in markdown fences or add any other text.`

// fallbackReferenceHeader introduces the catalogue listing appended to the
// system prompt on the wide-context retry.
const fallbackReferenceHeader = `

None of the candidates may fit. The full ANZSIC catalogue is listed below as code,description lines; you may rank any code from it. The numbered candidates in the user message remain hints.`

// buildSystemPrompt returns the compact first-attempt system prompt.
func buildSystemPrompt(topK int) string {
	return fmt.Sprintf("%s\n\nReturn at most %d entries.", systemPromptBase, topK)
}

// buildFallbackSystemPrompt extends the system prompt with the catalogue
// reference listing.
func buildFallbackSystemPrompt(topK int, catalogue []models.CatalogueEntry) string {
	var b strings.Builder
	b.WriteString(buildSystemPrompt(topK))
	b.WriteString(fallbackReferenceHeader)
	b.WriteString("\n\n")

	for _, entry := range catalogue {
		b.WriteString(entry.Code)
		b.WriteByte(',')
		// Keep the listing one-entry-per-line.
		b.WriteString(strings.ReplaceAll(entry.Description, "\n", " "))
		b.WriteByte('\n')
	}

	return b.String()
}

// buildUserMessage composes the verbatim query and the numbered candidate
// block.
func buildUserMessage(query string, candidates []models.Candidate) string {
	var b strings.Builder
	b.WriteString("Description to classify:\n")
	b.WriteString(query)
	b.WriteString("\n\nCandidate ANZSIC codes:\n")

	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. code: %s\n   description: %s\n   class: %s\n   group: %s\n   division: %s\n",
			i+1, c.Code, c.Description, c.ClassDesc, c.GroupDesc, c.DivisionDesc)

		if c.ClassExclusions != "" {
			fmt.Fprintf(&b, "   exclusions: %s\n", c.ClassExclusions)
		}
	}

	return b.String()
}
