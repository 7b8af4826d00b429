// Package resolve picks a single display name from the candidate set the
// parser produces, using a generative model when more than one candidate
// survives.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// MaxContextLines bounds how many name-block lines are sent with the prompt
const MaxContextLines = 15

// maxLineLength truncates individual context lines
const maxLineLength = 200

// Generator produces a text completion for a prompt
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// NameResolver chooses the most plausible person name among candidates
type NameResolver struct {
	gen    Generator
	logger *slog.Logger
}

// NewNameResolver creates a resolver backed by gen
func NewNameResolver(gen Generator) *NameResolver {
	return &NameResolver{
		gen:    gen,
		logger: slog.Default(),
	}
}

type nameAnswer struct {
	Name string `json:"name"`
}

// Resolve returns the chosen candidate, or "" when nothing can be chosen.
// Answers that are not one of the candidates are discarded.
func (r *NameResolver) Resolve(ctx context.Context, candidates, header []string) (string, error) {
	switch len(candidates) {
	case 0:
		return "", nil
	case 1:
		return candidates[0], nil
	}

	prompt := r.buildPrompt(candidates, header)

	response, err := r.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to get LLM response: %w", err)
	}

	answer, err := r.parseAnswer(response)
	if err != nil {
		return "", fmt.Errorf("failed to parse answer: %w", err)
	}

	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(answer.Name), c) {
			return c, nil
		}
	}

	r.logger.Debug("model answer is not a candidate", "answer", answer.Name, "candidates", len(candidates))
	return "", nil
}

// buildPrompt lists the candidates and the top lines of the resume
func (r *NameResolver) buildPrompt(candidates, header []string) string {
	var sb strings.Builder

	sb.WriteString("You are reading the header of a resume. Decide which of the candidate strings is the full name of the person the resume belongs to.\n\n")

	sb.WriteString("## CANDIDATES\n")
	for _, c := range candidates {
		sb.WriteString(fmt.Sprintf("- %s\n", sanitizeUTF8(c)))
	}

	if len(header) > 0 {
		sb.WriteString("\n## RESUME HEADER\n")
		for i, line := range header {
			if i == MaxContextLines {
				break
			}
			sb.WriteString(truncate(sanitizeUTF8(line), maxLineLength))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nAnswer with one of the candidates copied exactly, in the following JSON format:\n")
	sb.WriteString(`{"name": "<candidate>"}` + "\n")
	sb.WriteString(`If none of the candidates is a person name, answer {"name": ""}.` + "\n")
	sb.WriteString("Return ONLY the JSON object, no additional text.\n")

	return sb.String()
}

// parseAnswer extracts the JSON object from the model response
func (r *NameResolver) parseAnswer(response string) (nameAnswer, error) {
	// Find JSON in response (in case there's extra text)
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return nameAnswer{}, fmt.Errorf("no JSON found in response")
	}

	var answer nameAnswer
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &answer); err != nil {
		return nameAnswer{}, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return answer, nil
}

// sanitizeUTF8 replaces invalid byte sequences with U+FFFD
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// truncate shortens s to at most maxLen bytes on a rune boundary, followed by an ellipsis
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
