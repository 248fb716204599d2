package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/pfennig-app/pfennig/internal/common"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// DefaultTimeout bounds a single suggestion call. The timeout is applied
// caller-side so a slow model never blocks the CLI indefinitely.
const DefaultTimeout = 15 * time.Second

// GeminiClient implements Client against the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini-backed suggestion client. Credentials
// come from the environment (GEMINI_API_KEY).
func NewGeminiClient(ctx context.Context, model string, timeout time.Duration) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &GeminiClient{client: client, model: model, timeout: timeout}, nil
}

// SuggestCategory asks the model for ranked category suggestions.
func (g *GeminiClient) SuggestCategory(ctx context.Context, req Request) ([]Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(req)}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSuggestionUnavailable, err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response from model", common.ErrSuggestionUnavailable)
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &suggestions); err != nil {
		return nil, fmt.Errorf("%w: unparseable model response: %v", common.ErrSuggestionUnavailable, err)
	}

	return suggestions, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are a personal finance categorization assistant.\n\n")
	b.WriteString("Task: suggest the most likely spending categories for one bank transaction.\n")
	b.WriteString("Output STRICT JSON only: a JSON array of at most 3 objects, each with\n")
	b.WriteString("fields \"category\" (string), \"confidence\" (number between 0 and 1)\n")
	b.WriteString("and \"reasoning\" (short string). No Markdown, no code fences.\n\n")

	fmt.Fprintf(&b, "Transaction description: %s\n", req.Description)
	fmt.Fprintf(&b, "Amount (negative = expense): %s\n", req.Amount.String())
	if req.Details != "" {
		fmt.Fprintf(&b, "Details: %s\n", req.Details)
	}
	if len(req.CategoryNames) > 0 {
		fmt.Fprintf(&b, "\nPrefer these existing categories when one fits: %s\n",
			strings.Join(req.CategoryNames, ", "))
	}

	return b.String()
}

// cleanModelJSON strips Markdown fences and surrounding prose when the
// model ignores the strict-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
