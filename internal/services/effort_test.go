package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"cycle-planner/internal/models"
)

func TestItemEffortExplicitWins(t *testing.T) {
	querier := newFakeQuerier()
	querier.byQuery[epicLinkQuery("EPIC-1")] = []models.WorkItem{
		{Key: "ST-1", Kind: models.KindStory, Effort: 5},
		{Key: "ST-2", Kind: models.KindStory, Effort: 8},
	}

	agg := NewAggregator(NewWalker(querier, WalkerOptions{}))

	epic := models.WorkItem{Key: "EPIC-1", Kind: models.KindEpic, Effort: 20}
	assert.Equal(t, 20.0, agg.ItemEffort(context.Background(), epic))
	// The explicit value means the children were never consulted.
	assert.Empty(t, querier.queriesRun)
}

func TestItemEffortContainerSumsChildren(t *testing.T) {
	querier := newFakeQuerier()
	querier.byQuery[epicLinkQuery("EPIC-1")] = []models.WorkItem{
		{Key: "ST-1", Kind: models.KindStory, Effort: 5},
		{Key: "ST-2", Kind: models.KindStory, Effort: 8},
		{Key: "ST-3", Kind: models.KindStory}, // unestimated
	}

	agg := NewAggregator(NewWalker(querier, WalkerOptions{}))

	epic := models.WorkItem{Key: "EPIC-1", Kind: models.KindEpic}
	assert.Equal(t, 13.0, agg.ItemEffort(context.Background(), epic))
}

func TestItemEffortLeafWithoutValue(t *testing.T) {
	agg := NewAggregator(NewWalker(newFakeQuerier(), WalkerOptions{}))

	story := models.WorkItem{Key: "ST-1", Kind: models.KindStory}
	assert.Equal(t, 0.0, agg.ItemEffort(context.Background(), story))
}

func TestTotalEffortSumsOwnValues(t *testing.T) {
	items := []models.WorkItem{
		{Key: "EPIC-1", Kind: models.KindEpic},
		{Key: "ST-1", Kind: models.KindStory, Effort: 5, ParentKey: "EPIC-1"},
		{Key: "ST-2", Kind: models.KindStory, Effort: 8, ParentKey: "EPIC-1"},
		{Key: "ST-3", Kind: models.KindStory, ParentKey: "EPIC-1"},
	}
	assert.Equal(t, 13.0, TotalEffort(items))
}

func TestTotalEffortExplicitContainerMasksDescendants(t *testing.T) {
	items := []models.WorkItem{
		{Key: "EPIC-1", Kind: models.KindEpic, Effort: 20},
		{Key: "ST-1", Kind: models.KindStory, Effort: 5, ParentKey: "EPIC-1"},
		{Key: "SUB-1", Kind: models.KindSubtask, Effort: 2, ParentKey: "ST-1"},
		{Key: "ST-9", Kind: models.KindStory, Effort: 3},
	}
	// The epic's hand-rolled estimate covers everything beneath it, however
	// deep; the unparented story still counts.
	assert.Equal(t, 23.0, TotalEffort(items))
}

func TestTotalEffortIdempotent(t *testing.T) {
	items := []models.WorkItem{
		{Key: "EPIC-1", Kind: models.KindEpic, Effort: 20},
		{Key: "ST-1", Kind: models.KindStory, Effort: 5, ParentKey: "EPIC-1"},
		{Key: "ST-9", Kind: models.KindStory, Effort: 3},
	}
	first := TotalEffort(items)
	assert.Equal(t, first, TotalEffort(items))
}

func TestTotalEffortEmpty(t *testing.T) {
	assert.Equal(t, 0.0, TotalEffort(nil))
}
