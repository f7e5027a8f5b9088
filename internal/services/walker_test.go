package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycle-planner/internal/models"
)

// fakeQuerier serves canned work items for walker and planner tests.
type fakeQuerier struct {
	items      map[string]models.WorkItem
	byQuery    map[string][]models.WorkItem
	byEpic     map[string][]models.WorkItem
	comments   map[string][]models.Comment
	queryErr   map[string]error
	queriesRun []string
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		items:    make(map[string]models.WorkItem),
		byQuery:  make(map[string][]models.WorkItem),
		byEpic:   make(map[string][]models.WorkItem),
		comments: make(map[string][]models.Comment),
		queryErr: make(map[string]error),
	}
}

func (f *fakeQuerier) FetchByQuery(ctx context.Context, query string, fields []string) ([]models.WorkItem, error) {
	f.queriesRun = append(f.queriesRun, query)
	if err, ok := f.queryErr[query]; ok {
		return nil, err
	}
	return f.byQuery[query], nil
}

func (f *fakeQuerier) FetchByID(ctx context.Context, key string, fields []string) (*models.WorkItem, error) {
	item, ok := f.items[key]
	if !ok {
		return nil, fmt.Errorf("issue %s not found", key)
	}
	return &item, nil
}

func (f *fakeQuerier) FetchChildren(ctx context.Context, containerKey string, fields []string) ([]models.WorkItem, error) {
	return f.byEpic[containerKey], nil
}

func (f *fakeQuerier) FetchComments(ctx context.Context, key string) ([]models.Comment, error) {
	return f.comments[key], nil
}

func epicLinkQuery(key string) string { return fmt.Sprintf(`"Epic Link" = %s`, key) }
func parentQuery(key string) string   { return fmt.Sprintf(`parent = %s`, key) }

func linkedRoot(key string, targets ...string) models.WorkItem {
	root := models.WorkItem{Key: key, Kind: models.KindIdea}
	for _, target := range targets {
		root.Links = append(root.Links, models.LinkRelation{
			Type:      "Polaris work item link",
			Direction: models.LinkOutward,
			TargetKey: target,
		})
	}
	return root
}

func TestDiscoverLinkedAndChildren(t *testing.T) {
	querier := newFakeQuerier()
	querier.items["EPIC-1"] = models.WorkItem{Key: "EPIC-1", Kind: models.KindEpic}
	querier.byQuery[epicLinkQuery("EPIC-1")] = []models.WorkItem{
		{Key: "ST-1", Kind: models.KindStory, Effort: 5},
		{Key: "ST-2", Kind: models.KindStory, Effort: 8},
	}

	root := linkedRoot("RD-1", "EPIC-1")
	root.Links = append(root.Links, models.LinkRelation{Type: "Relates", TargetKey: "OTHER-9"})

	walker := NewWalker(querier, WalkerOptions{})
	result := walker.Discover(context.Background(), root)

	assert.Equal(t, 1, result.LinkedCount)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "EPIC-1", result.Items[0].Key)
	assert.Equal(t, "RD-1", result.Items[0].ParentKey)
	assert.Equal(t, "EPIC-1", result.Items[1].ParentKey)
	assert.Equal(t, "EPIC-1", result.Items[2].ParentKey)
}

func TestDiscoverDepthBound(t *testing.T) {
	querier := newFakeQuerier()
	querier.items["L-0"] = models.WorkItem{Key: "L-0", Kind: models.KindEpic}
	// A containment chain longer than any sane hierarchy.
	for i := 0; i < 8; i++ {
		parent := fmt.Sprintf("L-%d", i)
		child := fmt.Sprintf("L-%d", i+1)
		querier.byQuery[epicLinkQuery(parent)] = []models.WorkItem{{Key: child, Kind: models.KindEpic}}
	}

	walker := NewWalker(querier, WalkerOptions{MaxDepth: 3})
	result := walker.Discover(context.Background(), linkedRoot("RD-1", "L-0"))

	// The linked item plus three levels of containment beneath it.
	keys := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		keys = append(keys, item.Key)
	}
	assert.Equal(t, []string{"L-0", "L-1", "L-2", "L-3"}, keys)
}

func TestDiscoverDeadLinkAbsorbed(t *testing.T) {
	querier := newFakeQuerier()
	querier.items["EPIC-1"] = models.WorkItem{Key: "EPIC-1", Kind: models.KindEpic}

	walker := NewWalker(querier, WalkerOptions{})
	result := walker.Discover(context.Background(), linkedRoot("RD-1", "GONE-1", "EPIC-1"))

	assert.Equal(t, 2, result.LinkedCount)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "EPIC-1", result.Items[0].Key)
}

func TestDiscoverCycleTerminates(t *testing.T) {
	querier := newFakeQuerier()
	querier.items["EPIC-1"] = models.WorkItem{Key: "EPIC-1", Kind: models.KindEpic}
	querier.byQuery[epicLinkQuery("EPIC-1")] = []models.WorkItem{{Key: "EPIC-2", Kind: models.KindEpic}}
	querier.byQuery[epicLinkQuery("EPIC-2")] = []models.WorkItem{{Key: "EPIC-1", Kind: models.KindEpic}}

	walker := NewWalker(querier, WalkerOptions{})
	result := walker.Discover(context.Background(), linkedRoot("RD-1", "EPIC-1"))

	require.Len(t, result.Items, 2)
}

func TestDiscoverExcludeResolved(t *testing.T) {
	querier := newFakeQuerier()
	querier.items["EPIC-1"] = models.WorkItem{Key: "EPIC-1", Kind: models.KindEpic}
	querier.byQuery[epicLinkQuery("EPIC-1")] = []models.WorkItem{
		{Key: "ST-1", Kind: models.KindStory, Effort: 5},
		{Key: "ST-2", Kind: models.KindStory, Effort: 8, Resolved: true},
	}

	walker := NewWalker(querier, WalkerOptions{ExcludeResolved: true})
	result := walker.Discover(context.Background(), linkedRoot("RD-1", "EPIC-1"))

	assert.Equal(t, 1, result.ExcludedResolved)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "EPIC-1", result.Items[0].Key)
	assert.Equal(t, "ST-1", result.Items[1].Key)
}

func TestDirectChildrenStrategyFallback(t *testing.T) {
	querier := newFakeQuerier()
	querier.queryErr[epicLinkQuery("EPIC-1")] = fmt.Errorf(`field "Epic Link" does not exist`)
	querier.byQuery[parentQuery("EPIC-1")] = []models.WorkItem{{Key: "ST-1", Kind: models.KindStory}}

	walker := NewWalker(querier, WalkerOptions{})
	children := walker.DirectChildren(context.Background(), "EPIC-1")

	require.Len(t, children, 1)
	assert.Equal(t, "ST-1", children[0].Key)
	assert.Equal(t, []string{epicLinkQuery("EPIC-1"), parentQuery("EPIC-1")}, querier.queriesRun)
}

func TestDirectChildrenHierarchyAPILast(t *testing.T) {
	querier := newFakeQuerier()
	querier.byEpic["EPIC-1"] = []models.WorkItem{{Key: "ST-1", Kind: models.KindStory}}

	walker := NewWalker(querier, WalkerOptions{})
	children := walker.DirectChildren(context.Background(), "EPIC-1")

	require.Len(t, children, 1)
	assert.Equal(t, "ST-1", children[0].Key)
}

func TestDirectChildrenNone(t *testing.T) {
	walker := NewWalker(newFakeQuerier(), WalkerOptions{})
	assert.Nil(t, walker.DirectChildren(context.Background(), "ST-1"))
}
