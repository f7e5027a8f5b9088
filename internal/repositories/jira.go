package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"cycle-planner/internal/config"
	"cycle-planner/internal/models"
)

const searchPageSize = 100

// JiraRepository handles JIRA API interactions
type JiraRepository struct {
	config *config.JiraConfig
	client *http.Client
	delay  time.Duration
}

// NewJiraRepository creates a new JIRA repository
func NewJiraRepository(jiraConfig *config.JiraConfig, requestDelay time.Duration) *JiraRepository {
	return &JiraRepository{
		config: jiraConfig,
		client: &http.Client{
			Timeout: time.Duration(jiraConfig.Timeout) * time.Second,
		},
		delay: requestDelay,
	}
}

// SearchJQL runs a JQL query and returns all pages of results.
func (r *JiraRepository) SearchJQL(ctx context.Context, req models.SearchRequest) ([]models.Issue, error) {
	if req.MaxResults == 0 {
		req.MaxResults = searchPageSize
	}

	var issues []models.Issue
	for {
		var page models.SearchResponse
		if err := r.post(ctx, "/rest/api/3/search/jql", req, &page); err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		issues = append(issues, page.Issues...)

		if page.IsLast || page.NextPageToken == "" {
			return issues, nil
		}
		req.NextPageToken = page.NextPageToken

		// Pause between pages to respect upstream rate limits.
		if r.delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.delay):
			}
		}
	}
}

// GetIssue fetches a single issue by key.
func (r *JiraRepository) GetIssue(ctx context.Context, key string, fields []string) (*models.Issue, error) {
	params := url.Values{}
	if len(fields) > 0 {
		params.Set("fields", joinFields(fields))
	}

	var issue models.Issue
	if err := r.get(ctx, "/rest/api/3/issue/"+key, params, &issue); err != nil {
		return nil, fmt.Errorf("failed to fetch issue %s: %w", key, err)
	}
	return &issue, nil
}

// GetEpicIssues fetches an epic's issues via the agile hierarchy API.
func (r *JiraRepository) GetEpicIssues(ctx context.Context, epicKey string, fields []string) ([]models.Issue, error) {
	params := url.Values{}
	params.Set("maxResults", strconv.Itoa(searchPageSize))
	if len(fields) > 0 {
		params.Set("fields", joinFields(fields))
	}

	var page models.SearchResponse
	if err := r.get(ctx, "/rest/agile/1.0/epic/"+epicKey+"/issue", params, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch epic issues for %s: %w", epicKey, err)
	}
	return page.Issues, nil
}

// GetComments fetches all comments on an issue.
func (r *JiraRepository) GetComments(ctx context.Context, key string) ([]models.IssueComment, error) {
	var page models.CommentPage
	if err := r.get(ctx, "/rest/api/3/issue/"+key+"/comment", nil, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch comments for %s: %w", key, err)
	}
	return page.Comments, nil
}

// GetBoardVelocity fetches completed-effort values per sprint from the board
// velocity chart, ordered oldest first.
func (r *JiraRepository) GetBoardVelocity(ctx context.Context, boardID int) ([]float64, error) {
	params := url.Values{}
	params.Set("rapidViewId", strconv.Itoa(boardID))

	var chart models.VelocityChart
	if err := r.get(ctx, "/rest/greenhopper/1.0/rapid/charts/velocity", params, &chart); err != nil {
		return nil, fmt.Errorf("failed to fetch velocity for board %d: %w", boardID, err)
	}

	// Entries are keyed by numeric sprint ID; sort to recover sprint order.
	ids := make([]int, 0, len(chart.Entries))
	for id := range chart.Entries {
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		ids = append(ids, n)
	}
	sort.Ints(ids)

	values := make([]float64, 0, len(ids))
	for _, id := range ids {
		values = append(values, chart.Entries[strconv.Itoa(id)].Completed.Value)
	}
	return values, nil
}

// BrowseURL returns the human-facing URL for an issue key.
func (r *JiraRepository) BrowseURL(key string) string {
	return r.config.BaseURL + "/browse/" + key
}

func (r *JiraRepository) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := r.config.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	return r.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}, out)
}

func (r *JiraRepository) post(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := r.config.BaseURL + path
	return r.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, out)
}

// do executes a request with exponential backoff. Client errors other than
// 429 are permanent; server errors and transport failures are retried.
func (r *JiraRepository) do(ctx context.Context, build func() (*http.Request, error), out interface{}) error {
	operation := func() error {
		req, err := build()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		req.SetBasicAuth(r.config.Email, r.config.APIToken)
		req.Header.Set("Accept", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			statusErr := fmt.Errorf("JIRA API returned status %d: %s", resp.StatusCode, string(respBody))
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(operation, policy)
}

func joinFields(fields []string) string {
	return strings.Join(fields, ",")
}
