package services

import (
	"context"

	"cycle-planner/internal/models"
)

// Aggregator rolls effort values up across discovered work items.
type Aggregator struct {
	walker *Walker
}

// NewAggregator creates an aggregator backed by the given walker.
func NewAggregator(walker *Walker) *Aggregator {
	return &Aggregator{walker: walker}
}

// ItemEffort returns the effort for a single item. An explicit value always
// wins over a derived sum, even when children also carry values, so a
// hand-rolled container estimate is never double counted. A container with
// no value of its own sums the values of its direct children instead.
// The result is never negative.
func (a *Aggregator) ItemEffort(ctx context.Context, item models.WorkItem) float64 {
	if item.Effort > 0 {
		return item.Effort
	}

	if item.Kind.IsContainer() {
		var total float64
		for _, child := range a.walker.DirectChildren(ctx, item.Key) {
			if child.Effort > 0 {
				total += child.Effort
			}
		}
		return total
	}

	return 0
}

// TotalEffort sums the items' own effort values, treating absent values as
// zero. Items sitting beneath a container that carries an explicit value are
// skipped, since the container's value already accounts for them.
func TotalEffort(items []models.WorkItem) float64 {
	parentOf := make(map[string]string, len(items))
	explicit := make(map[string]bool)
	for _, item := range items {
		parentOf[item.Key] = item.ParentKey
		if item.Kind.IsContainer() && item.Effort > 0 {
			explicit[item.Key] = true
		}
	}

	covered := func(item models.WorkItem) bool {
		for key := item.ParentKey; key != ""; key = parentOf[key] {
			if explicit[key] {
				return true
			}
		}
		return false
	}

	var total float64
	for _, item := range items {
		if item.Effort > 0 && !covered(item) {
			total += item.Effort
		}
	}
	return total
}
