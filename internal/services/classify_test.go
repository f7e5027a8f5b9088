package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycle-planner/internal/models"
)

func classifyCategories() []models.KeywordCategory {
	return []models.KeywordCategory{
		{Name: "Voice", Keywords: []string{"voice"}},
		{Name: "Analytics/CIP", Keywords: []string{"analytics", "cip"}},
	}
}

func classifyQuery(project string) string {
	return fmt.Sprintf(`project = %s AND issuetype in (Bug, Ticket) AND resolved >= "2026-01-01" ORDER BY created DESC`, project)
}

func TestClassifyResolved(t *testing.T) {
	querier := newFakeQuerier()
	querier.byQuery[classifyQuery("DSH")] = []models.WorkItem{
		{Key: "DSH-1", Kind: models.KindBug, Title: "Voice call drops after transfer"},
		{Key: "DSH-2", Kind: models.KindTicket, Title: "Dashboard widget empty",
			Description: &models.Body{Text: "The analytics pipeline lags behind ingestion."}},
		{Key: "DSH-3", Kind: models.KindTicket, Title: "Export broken"},
		{Key: "DSH-4", Kind: models.KindBug, Title: "Login page typo"},
	}
	querier.comments["DSH-3"] = []models.Comment{
		{Author: "Dana", Body: &models.Body{Text: "Root cause sits in the CIP consumer."}},
	}

	classifier := NewClassifier(querier, classifyCategories())
	report, err := classifier.ClassifyResolved(context.Background(), "DSH",
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	require.Len(t, report.Categories, 2)

	voice := report.Categories[0]
	assert.Equal(t, "Voice", voice.Category.Name)
	assert.Equal(t, 1, voice.Count)
	assert.InDelta(t, 25.0, voice.Percent, 1e-9)
	require.Len(t, voice.Tickets, 1)
	assert.Equal(t, "DSH-1", voice.Tickets[0].Key)
	assert.Equal(t, "Summary", voice.Tickets[0].Source)
	assert.Equal(t, "voice", voice.Tickets[0].Keyword)
	assert.Contains(t, voice.Tickets[0].Context, "Voice call drops")

	analytics := report.Categories[1]
	assert.Equal(t, 2, analytics.Count)
	assert.InDelta(t, 50.0, analytics.Percent, 1e-9)
	require.Len(t, analytics.Tickets, 2)
	assert.Equal(t, "DSH-2", analytics.Tickets[0].Key)
	assert.Equal(t, "Description", analytics.Tickets[0].Source)
	assert.Equal(t, "DSH-3", analytics.Tickets[1].Key)
	assert.Equal(t, "Comments", analytics.Tickets[1].Source)
	assert.Equal(t, "cip", analytics.Tickets[1].Keyword)
}

func TestClassifyTicketInSeveralCategories(t *testing.T) {
	querier := newFakeQuerier()
	querier.byQuery[classifyQuery("DSH")] = []models.WorkItem{
		{Key: "DSH-9", Kind: models.KindBug, Title: "Voice analytics mismatch"},
	}

	classifier := NewClassifier(querier, classifyCategories())
	report, err := classifier.ClassifyResolved(context.Background(), "DSH",
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Categories[0].Count)
	assert.Equal(t, 1, report.Categories[1].Count)
}

func TestClassifySearchFailure(t *testing.T) {
	querier := newFakeQuerier()
	querier.queryErr[classifyQuery("DSH")] = fmt.Errorf("jql rejected")

	classifier := NewClassifier(querier, classifyCategories())
	_, err := classifier.ClassifyResolved(context.Background(), "DSH",
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestClassifyNoTickets(t *testing.T) {
	classifier := NewClassifier(newFakeQuerier(), classifyCategories())
	report, err := classifier.ClassifyResolved(context.Background(), "DSH",
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 0, report.Total)
	for _, breakdown := range report.Categories {
		assert.Equal(t, 0, breakdown.Count)
		assert.Equal(t, 0.0, breakdown.Percent)
	}
}

func TestKeywordContext(t *testing.T) {
	// Short texts come back whole, without ellipses.
	assert.Equal(t, "Voice call drops", keywordContext("Voice call drops", "voice", 80))

	// A hit in the middle of a long text keeps 30 characters either side.
	long := strings.Repeat("a", 100) + "voice" + strings.Repeat("b", 100)
	got := keywordContext(long, "voice", 80)
	assert.Equal(t, "..."+strings.Repeat("a", 30)+"voice"+strings.Repeat("b", 30)+"...", got)

	// Multibyte neighborhoods are cut on rune boundaries.
	accented := strings.Repeat("é", 100) + "voice" + strings.Repeat("é", 100)
	got = keywordContext(accented, "voice", 80)
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "voice")

	assert.Equal(t, "", keywordContext("nothing here", "voice", 80))
}
