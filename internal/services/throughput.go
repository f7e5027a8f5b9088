package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cycle-planner/internal/models"
	"cycle-planner/internal/repositories"
)

const (
	// Cycle-time bounds; rows outside them are measurement noise.
	minCycleHours = 1
	maxCycleHours = 24 * 7 * 3

	jiraTimestampFormat = "2006-01-02T15:04:05.000-0700"
)

// ThroughputService computes hours-per-story-point stats from resolved
// issues and their status history.
type ThroughputService struct {
	repo *repositories.JiraRepository
}

// NewThroughputService creates a new throughput service.
func NewThroughputService(repo *repositories.JiraRepository) *ThroughputService {
	return &ThroughputService{repo: repo}
}

// ResolvedIssueCycles fetches issues resolved since the given date and
// derives one row per issue that has story points, an in-progress
// transition and a resolution date, with its cycle time in hours.
func (s *ThroughputService) ResolvedIssueCycles(ctx context.Context, project string, since time.Time) ([]models.VelocityRow, error) {
	jql := fmt.Sprintf(`project = "%s" AND resolved >= %s ORDER BY created DESC`, project, since.Format("2006-01-02"))

	issues, err := s.repo.SearchJQL(ctx, models.SearchRequest{
		JQL:    jql,
		Fields: []string{"*all"},
		Expand: []string{"changelog"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch resolved issues: %w", err)
	}

	var rows []models.VelocityRow
	for _, issue := range issues {
		if issue.Fields.StoryPoints == nil || *issue.Fields.StoryPoints == 0 {
			continue
		}

		inProgress, ok := firstInProgress(issue.Changelog)
		if !ok {
			continue
		}

		resolved, err := time.Parse(jiraTimestampFormat, issue.Fields.ResolutionDate)
		if err != nil {
			continue
		}

		hours := resolved.Sub(inProgress).Hours()
		if hours < minCycleHours || hours > maxCycleHours {
			continue
		}

		assignee := "Unassigned"
		if issue.Fields.Assignee != nil && issue.Fields.Assignee.DisplayName != "" {
			assignee = issue.Fields.Assignee.DisplayName
		}

		rows = append(rows, models.VelocityRow{
			Key:         issue.Key,
			URL:         s.repo.BrowseURL(issue.Key),
			StoryPoints: *issue.Fields.StoryPoints,
			Assignee:    assignee,
			InProgress:  inProgress,
			Resolved:    resolved,
			Hours:       hours,
		})
	}

	return rows, nil
}

// firstInProgress finds the earliest transition to "In Progress" in an
// issue's changelog.
func firstInProgress(changelog *models.Changelog) (time.Time, bool) {
	if changelog == nil {
		return time.Time{}, false
	}

	var earliest time.Time
	for _, history := range changelog.Histories {
		for _, item := range history.Items {
			if item.Field != "status" || item.ToString != "In Progress" {
				continue
			}
			t, err := time.Parse(jiraTimestampFormat, history.Created)
			if err != nil {
				continue
			}
			if earliest.IsZero() || t.Before(earliest) {
				earliest = t
			}
		}
	}

	return earliest, !earliest.IsZero()
}

// AverageHoursPerPoint buckets rows by story-point value and averages their
// cycle hours. An empty assignee aggregates everyone.
func AverageHoursPerPoint(rows []models.VelocityRow, assignee string) []models.StoryPointStat {
	buckets := make(map[float64][]float64)
	for _, row := range rows {
		if assignee != "" && row.Assignee != assignee {
			continue
		}
		buckets[row.StoryPoints] = append(buckets[row.StoryPoints], row.Hours)
	}

	stats := make([]models.StoryPointStat, 0, len(buckets))
	for points, hours := range buckets {
		var sum float64
		for _, h := range hours {
			sum += h
		}
		stats = append(stats, models.StoryPointStat{
			Points:   points,
			Count:    len(hours),
			AvgHours: sum / float64(len(hours)),
		})
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Points < stats[j].Points })
	return stats
}

// Assignees lists the distinct assignees present in the rows, sorted.
func Assignees(rows []models.VelocityRow) []string {
	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		if !seen[row.Assignee] {
			seen[row.Assignee] = true
			names = append(names, row.Assignee)
		}
	}
	sort.Strings(names)
	return names
}
