package repositories

import (
	"context"
	"strings"
	"time"

	"cycle-planner/internal/models"
)

// FetchByQuery runs a JQL query and returns matching work items.
func (r *JiraRepository) FetchByQuery(ctx context.Context, query string, fields []string) ([]models.WorkItem, error) {
	issues, err := r.SearchJQL(ctx, models.SearchRequest{JQL: query, Fields: fields})
	if err != nil {
		return nil, err
	}
	return ToWorkItems(issues, r.config.BaseURL), nil
}

// FetchByID fetches one work item by key.
func (r *JiraRepository) FetchByID(ctx context.Context, key string, fields []string) (*models.WorkItem, error) {
	issue, err := r.GetIssue(ctx, key, fields)
	if err != nil {
		return nil, err
	}
	item := ToWorkItem(*issue, r.config.BaseURL)
	return &item, nil
}

// FetchChildren fetches a container's items via the agile hierarchy API.
func (r *JiraRepository) FetchChildren(ctx context.Context, containerKey string, fields []string) ([]models.WorkItem, error) {
	issues, err := r.GetEpicIssues(ctx, containerKey, fields)
	if err != nil {
		return nil, err
	}
	return ToWorkItems(issues, r.config.BaseURL), nil
}

// FetchComments fetches all comments on a work item.
func (r *JiraRepository) FetchComments(ctx context.Context, key string) ([]models.Comment, error) {
	raw, err := r.GetComments(ctx, key)
	if err != nil {
		return nil, err
	}
	comments := make([]models.Comment, 0, len(raw))
	for _, c := range raw {
		comments = append(comments, ToComment(c))
	}
	return comments, nil
}

// ToWorkItem converts a raw JIRA issue into the planner's work item model.
// The planner services never see raw payloads; anything the API omits maps
// to a zero value here.
func ToWorkItem(issue models.Issue, baseURL string) models.WorkItem {
	item := models.WorkItem{
		Key:      issue.Key,
		Kind:     kindFromName(issue.Fields.IssueType.Name),
		Title:    issue.Fields.Summary,
		Resolved: issue.Fields.Resolution != nil,
		URL:      strings.TrimSuffix(baseURL, "/") + "/browse/" + issue.Key,
	}

	if issue.Fields.Description != nil && !issue.Fields.Description.IsEmpty() {
		item.Description = issue.Fields.Description
	}
	if issue.Fields.StoryPoints != nil {
		item.Effort = *issue.Fields.StoryPoints
	}
	if issue.Fields.DiscoveryBallpark != nil {
		item.DiscoveryBallpark = *issue.Fields.DiscoveryBallpark
	}
	if issue.Fields.LeadTeam != nil {
		item.Team = issue.Fields.LeadTeam.Value
	}
	if issue.Fields.ResolutionDate != "" {
		if t, err := time.Parse("2006-01-02T15:04:05.000-0700", issue.Fields.ResolutionDate); err == nil {
			item.ResolvedAt = &t
		}
	}

	for _, opt := range issue.Fields.CommittedIn {
		item.CommittedIn = append(item.CommittedIn, opt.Value)
	}
	for _, opt := range issue.Fields.RoadmapCycle {
		item.RoadmapCycles = append(item.RoadmapCycles, opt.Value)
	}

	for _, link := range issue.Fields.IssueLinks {
		if link.InwardIssue != nil {
			item.Links = append(item.Links, models.LinkRelation{
				Type:      link.Type.Name,
				Direction: models.LinkInward,
				TargetKey: link.InwardIssue.Key,
			})
		}
		if link.OutwardIssue != nil {
			item.Links = append(item.Links, models.LinkRelation{
				Type:      link.Type.Name,
				Direction: models.LinkOutward,
				TargetKey: link.OutwardIssue.Key,
			})
		}
	}

	return item
}

// ToWorkItems converts a slice of raw issues.
func ToWorkItems(issues []models.Issue, baseURL string) []models.WorkItem {
	items := make([]models.WorkItem, 0, len(issues))
	for _, issue := range issues {
		items = append(items, ToWorkItem(issue, baseURL))
	}
	return items
}

// ToComment converts a raw issue comment.
func ToComment(comment models.IssueComment) models.Comment {
	out := models.Comment{Author: "Unknown", Body: comment.Body}
	if comment.Author != nil && comment.Author.DisplayName != "" {
		out.Author = comment.Author.DisplayName
	}
	return out
}

func kindFromName(name string) models.ItemKind {
	switch strings.ToLower(name) {
	case "idea":
		return models.KindIdea
	case "epic":
		return models.KindEpic
	case "story", "user story":
		return models.KindStory
	case "sub-task", "subtask":
		return models.KindSubtask
	case "bug":
		return models.KindBug
	default:
		return models.KindTicket
	}
}
