package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cycle-planner/internal/models"
)

// classifyFields are the issue fields requested for ticket classification.
var classifyFields = []string{
	"summary",
	"description",
	"issuetype",
	"resolution",
	"resolutiondate",
}

// contextRadius is how many characters around a keyword hit are kept.
const contextRadius = 30

// Classifier buckets resolved tickets into keyword categories by scanning
// their summaries, descriptions and comments.
type Classifier struct {
	querier    IssueQuerier
	categories []models.KeywordCategory
}

// NewClassifier creates a classifier over the given querier and categories.
func NewClassifier(querier IssueQuerier, categories []models.KeywordCategory) *Classifier {
	return &Classifier{querier: querier, categories: categories}
}

// ClassifyResolved fetches the project's bugs and tickets resolved on or
// after since and buckets them by keyword. A ticket can land in several
// categories; within one category the first keyword found wins, checking
// the summary before the description before the comments.
func (c *Classifier) ClassifyResolved(ctx context.Context, project string, since time.Time) (*models.ClassificationReport, error) {
	jql := fmt.Sprintf(`project = %s AND issuetype in (Bug, Ticket) AND resolved >= "%s" ORDER BY created DESC`,
		project, since.Format("2006-01-02"))

	items, err := c.querier.FetchByQuery(ctx, jql, classifyFields)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch resolved tickets: %w", err)
	}

	report := &models.ClassificationReport{Total: len(items)}
	buckets := make([][]models.ClassifiedTicket, len(c.categories))

	for _, item := range items {
		texts := c.itemTexts(ctx, item)
		for i, category := range c.categories {
			ticket, ok := matchCategory(texts, category)
			if !ok {
				continue
			}
			ticket.Key = item.Key
			ticket.Title = item.Title
			ticket.URL = item.URL
			ticket.Kind = item.Kind
			buckets[i] = append(buckets[i], ticket)
		}
	}

	for i, category := range c.categories {
		breakdown := models.CategoryBreakdown{
			Category: category,
			Count:    len(buckets[i]),
			Tickets:  buckets[i],
		}
		if report.Total > 0 {
			breakdown.Percent = float64(breakdown.Count) / float64(report.Total) * 100
		}
		report.Categories = append(report.Categories, breakdown)
	}

	return report, nil
}

// sourceText is one searchable field of a ticket.
type sourceText struct {
	Source string
	Text   string
}

// itemTexts gathers the ticket's searchable text per field. A comment fetch
// failure just leaves that field empty.
func (c *Classifier) itemTexts(ctx context.Context, item models.WorkItem) []sourceText {
	texts := []sourceText{
		{Source: "Summary", Text: item.Title},
		{Source: "Description", Text: NormalizeBody(item.Description)},
	}

	comments, err := c.querier.FetchComments(ctx, item.Key)
	if err == nil && len(comments) > 0 {
		var parts []string
		for _, comment := range comments {
			if body := NormalizeBody(comment.Body); body != "" {
				parts = append(parts, body)
			}
		}
		texts = append(texts, sourceText{Source: "Comments", Text: strings.Join(parts, " ")})
	}

	return texts
}

// matchCategory finds the first keyword occurrence across the ticket's
// fields, in field order.
func matchCategory(texts []sourceText, category models.KeywordCategory) (models.ClassifiedTicket, bool) {
	for _, text := range texts {
		lower := strings.ToLower(text.Text)
		for _, keyword := range category.Keywords {
			if !strings.Contains(lower, strings.ToLower(keyword)) {
				continue
			}
			return models.ClassifiedTicket{
				Keyword: keyword,
				Context: keywordContext(text.Text, keyword, 80),
				Source:  text.Source,
			}, true
		}
	}
	return models.ClassifiedTicket{}, false
}

// keywordContext returns up to max characters around the first occurrence
// of keyword in text, case-insensitive, with ellipses marking truncation.
func keywordContext(text, keyword string, max int) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(keyword))
	if idx < 0 {
		return ""
	}

	// ToLower maps rune for rune, so a rune offset in the lowered text is
	// valid in the original even when byte offsets drift.
	runes := []rune(text)
	start := len([]rune(lower[:idx]))
	end := start + len([]rune(keyword))

	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(runes) {
		to = len(runes)
	}

	context := string(runes[from:to])
	if from > 0 {
		context = "..." + context
	}
	if to < len(runes) {
		context += "..."
	}
	if cr := []rune(context); len(cr) > max {
		context = string(cr[:max-3]) + "..."
	}
	return context
}
