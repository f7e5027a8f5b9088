package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"cycle-planner/internal/config"
	"cycle-planner/internal/models"
)

// Summarizer produces a narrative summary of extracted technical content.
// It is optional: a nil *Summarizer is a valid no-op collaborator and the
// planner falls back to showing raw extracted sections.
type Summarizer struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewSummarizer creates a summarizer, or nil when no API key is configured.
func NewSummarizer(cfg *config.AnthropicConfig) *Summarizer {
	if cfg.APIKey == "" {
		return nil
	}
	return &Summarizer{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     anthropic.Model(cfg.Model),
		maxTokens: int64(cfg.MaxTokens),
	}
}

// Summarize writes a short non-technical summary of the discovery data for
// one root item. Returns "" when there is nothing to summarize or the
// summarizer is absent.
func (s *Summarizer) Summarize(ctx context.Context, key, title string, discovery models.DiscoveryData) (string, error) {
	if s == nil || len(discovery.TechnicalComplexity) == 0 {
		return "", nil
	}

	var content strings.Builder
	fmt.Fprintf(&content, "Item: %s - %s\n\n", key, title)
	content.WriteString("Technical details from child items:\n\n")
	for i, entry := range discovery.TechnicalComplexity {
		fmt.Fprintf(&content, "\n--- Item %d: %s (%s) ---\n", i+1, entry.Source, entry.IssueType)
		content.WriteString(entry.Content)
		content.WriteString("\n")
	}

	prompt := fmt.Sprintf(`You are analyzing a software project's planning item and its technical implementation details.

Below are technical details extracted from various user stories, bugs, and tasks that are part of this item. Please create a concise, non-technical summary that explains:

1. What technical changes or implementations are required
2. Which services or components are affected
3. What makes this work complex (if anything)
4. Any notable technical challenges or considerations

Write this for a non-technical audience (product managers, stakeholders) who want to understand the engineering effort and complexity.

Keep it to 2-4 paragraphs maximum. Reference specific ticket numbers when mentioning implementation details.

%s

Please provide a clear, concise summary:`, content.String())

	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("summary request failed: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return message.Content[0].Text, nil
}
