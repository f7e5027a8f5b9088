package services

import (
	"context"
	"fmt"

	"cycle-planner/internal/models"
)

// DiscoveryFields are the issue fields the walker requests while traversing.
var DiscoveryFields = []string{
	"summary",
	"description",
	"issuetype",
	"customfield_10124",
	"resolution",
	"resolutiondate",
}

// IssueQuerier is the walker's view of the issue tracker.
type IssueQuerier interface {
	// FetchByQuery runs a query expression and returns matching items.
	FetchByQuery(ctx context.Context, query string, fields []string) ([]models.WorkItem, error)
	// FetchByID fetches one item by key.
	FetchByID(ctx context.Context, key string, fields []string) (*models.WorkItem, error)
	// FetchChildren fetches a container's items via the dedicated
	// hierarchy API.
	FetchChildren(ctx context.Context, containerKey string, fields []string) ([]models.WorkItem, error)
	// FetchComments fetches all comments on an item.
	FetchComments(ctx context.Context, key string) ([]models.Comment, error)
}

// WalkerOptions tune a hierarchy walk.
type WalkerOptions struct {
	LinkType        string // relation type to follow; default "Polaris work item link"
	MaxDepth        int    // containment recursion bound; default 3
	ExcludeResolved bool   // drop resolved items from the result
}

// Walker discovers all work items related to a root item: linked items one
// level out, then parent/child containment beneath each, bounded in depth.
// A walker holds no per-walk state; each Discover call owns its own visited
// set, so results never bleed across root items.
type Walker struct {
	querier IssueQuerier
	opts    WalkerOptions
}

// NewWalker creates a walker over the given querier.
func NewWalker(querier IssueQuerier, opts WalkerOptions) *Walker {
	if opts.LinkType == "" {
		opts.LinkType = "Polaris work item link"
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = 3
	}
	return &Walker{querier: querier, opts: opts}
}

// DiscoveryResult is the outcome of one root-item walk.
type DiscoveryResult struct {
	Items            []models.WorkItem // linked items plus all reachable descendants
	LinkedCount      int
	ExcludedResolved int
}

// Discover walks the hierarchy beneath a root item. Query failures on
// individual nodes yield zero children for that node and never abort the
// walk; the walk itself cannot fail once the root is in hand.
func (w *Walker) Discover(ctx context.Context, root models.WorkItem) *DiscoveryResult {
	linked := w.LinkedKeys(root)

	visited := map[string]bool{root.Key: true}
	var items []models.WorkItem

	for _, key := range linked {
		if visited[key] {
			continue
		}
		visited[key] = true

		item, err := w.querier.FetchByID(ctx, key, DiscoveryFields)
		if err != nil {
			// Absorbed: a dead link yields nothing, the walk goes on.
			continue
		}
		linkedItem := *item
		linkedItem.ParentKey = root.Key
		items = append(items, linkedItem)
		w.descend(ctx, key, 1, visited, &items)
	}

	result := &DiscoveryResult{LinkedCount: len(linked)}
	if w.opts.ExcludeResolved {
		for _, item := range items {
			if item.Resolved {
				result.ExcludedResolved++
				continue
			}
			result.Items = append(result.Items, item)
		}
	} else {
		result.Items = items
	}
	return result
}

// LinkedKeys returns the keys referenced by the root's links of the
// configured relation type. Both directions are followed.
func (w *Walker) LinkedKeys(item models.WorkItem) []string {
	var keys []string
	for _, link := range item.Links {
		if link.Type == w.opts.LinkType {
			keys = append(keys, link.TargetKey)
		}
	}
	return keys
}

// DirectChildren finds an item's direct children, trying each query
// strategy in order and stopping at the first that returns results. All
// strategies empty or failing means no children, not an error.
func (w *Walker) DirectChildren(ctx context.Context, key string) []models.WorkItem {
	strategies := []func() ([]models.WorkItem, error){
		func() ([]models.WorkItem, error) {
			return w.querier.FetchByQuery(ctx, fmt.Sprintf(`"Epic Link" = %s`, key), DiscoveryFields)
		},
		func() ([]models.WorkItem, error) {
			return w.querier.FetchByQuery(ctx, fmt.Sprintf(`parent = %s`, key), DiscoveryFields)
		},
		func() ([]models.WorkItem, error) {
			return w.querier.FetchChildren(ctx, key, DiscoveryFields)
		},
	}

	for _, strategy := range strategies {
		children, err := strategy()
		if err == nil && len(children) > 0 {
			return children
		}
	}
	return nil
}

func (w *Walker) descend(ctx context.Context, key string, depth int, visited map[string]bool, items *[]models.WorkItem) {
	if depth > w.opts.MaxDepth {
		return
	}

	for _, child := range w.DirectChildren(ctx, key) {
		if visited[child.Key] {
			continue
		}
		visited[child.Key] = true
		child.ParentKey = key
		*items = append(*items, child)
		w.descend(ctx, child.Key, depth+1, visited, items)
	}
}
