package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"cycle-planner/internal/config"
	"cycle-planner/internal/models"
)

// TimeOffRepository fetches approved time-off records from the HR API.
type TimeOffRepository struct {
	config *config.HRConfig
	client *http.Client
}

// NewTimeOffRepository creates a new time-off repository. Returns nil when
// the HR API is not configured; callers treat a nil repository as an empty
// record source.
func NewTimeOffRepository(hrConfig *config.HRConfig) *TimeOffRepository {
	if hrConfig.Subdomain == "" || hrConfig.APIKey == "" {
		return nil
	}
	return &TimeOffRepository{
		config: hrConfig,
		client: &http.Client{
			Timeout: time.Duration(hrConfig.Timeout) * time.Second,
		},
	}
}

// timeOffEntry is the wire shape of one time-off request.
type timeOffEntry struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
	Type  struct {
		Name string `json:"name"`
	} `json:"type"`
	Status struct {
		Status string `json:"status"`
	} `json:"status"`
}

// FetchTimeOff returns approved time-off records overlapping the date range.
// A nil repository yields no records.
func (r *TimeOffRepository) FetchTimeOff(ctx context.Context, start, end time.Time) ([]models.TimeOffRecord, error) {
	if r == nil {
		return nil, nil
	}
	endpoint := fmt.Sprintf("https://api.bamboohr.com/api/gateway.php/%s/v1/time_off/requests/", r.config.Subdomain)
	params := url.Values{}
	params.Set("start", start.Format("2006-01-02"))
	params.Set("end", end.Format("2006-01-02"))
	params.Set("status", "approved")

	var entries []timeOffEntry
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.SetBasicAuth(r.config.APIKey, "x")
		req.Header.Set("Accept", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			statusErr := fmt.Errorf("HR API returned status %d: %s", resp.StatusCode, string(body))
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	var records []models.TimeOffRecord
	for _, entry := range entries {
		entryStart, err := time.Parse("2006-01-02", entry.Start)
		if err != nil {
			continue
		}
		entryEnd, err := time.Parse("2006-01-02", entry.End)
		if err != nil {
			continue
		}
		records = append(records, models.TimeOffRecord{
			Member:   entry.Name,
			Start:    entryStart,
			End:      entryEnd,
			Category: entry.Type.Name,
		})
	}
	return records, nil
}
