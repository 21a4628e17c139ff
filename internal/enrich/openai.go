package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// extractTimeout bounds the enrichment call so a slow upstream can never
// stall a recommendation request.
const extractTimeout = 10 * time.Second

const extractPrompt = `Return ONLY JSON for the text below:
{
  "technical_skills": [],
  "soft_skills": [],
  "focus": "K | P | A | MIX"
}
focus meaning: K = knowledge/technical, P = personality/behavior, A = aptitude, MIX = mixed.
Text:
%s`

type openAIEnricher struct {
	client *openai.Client
	model  string
}

// NewOpenAI returns an Enricher that asks a chat model to extract skills and
// a focus classification from the query text.
func NewOpenAI(apiKey, model string) Enricher {
	return &openAIEnricher{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (e *openAIEnricher) Extract(ctx context.Context, text string) (Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(extractPrompt, text)},
		},
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("enrichment request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Analysis{}, fmt.Errorf("enrichment response has no choices")
	}

	return parseAnalysis(text, resp.Choices[0].Message.Content)
}

// parseAnalysis extracts the JSON object from a model reply, which may be
// wrapped in prose or code fences.
func parseAnalysis(original, raw string) (Analysis, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Analysis{}, fmt.Errorf("enrichment response is not JSON")
	}

	var parsed struct {
		TechnicalSkills []string `json:"technical_skills"`
		SoftSkills      []string `json:"soft_skills"`
		Focus           string   `json:"focus"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return Analysis{}, fmt.Errorf("cannot parse enrichment response: %w", err)
	}

	focus := strings.ToUpper(strings.TrimSpace(parsed.Focus))
	switch focus {
	case FocusKnowledge, FocusPersonal, FocusAptitude:
	default:
		focus = FocusMix
	}

	skills := append(append([]string{}, parsed.TechnicalSkills...), parsed.SoftSkills...)
	query := original
	if len(skills) > 0 {
		query = original + "\nskills: " + strings.Join(skills, ", ")
	}

	return Analysis{Query: query, Focus: focus, Skills: skills}, nil
}
