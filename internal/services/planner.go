package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"cycle-planner/internal/config"
	"cycle-planner/internal/helpers"
	"cycle-planner/internal/models"
)

// rootFields are the issue fields requested for top-level Ideas.
var rootFields = []string{
	"summary",
	"description",
	"customfield_10124",
	"customfield_11155",
	"issuelinks",
	"project",
	"customfield_10596",
	"issuetype",
	"customfield_10620",
	"customfield_10621",
}

// TimeOffFetcher is the planner's view of the HR system.
type TimeOffFetcher interface {
	FetchTimeOff(ctx context.Context, start, end time.Time) ([]models.TimeOffRecord, error)
}

// BoardVelocityFetcher looks up completed-effort history for a scrum board.
type BoardVelocityFetcher interface {
	GetBoardVelocity(ctx context.Context, boardID int) ([]float64, error)
}

// PlanOptions tune one planning run.
type PlanOptions struct {
	// Quarters are the planning-period labels the run was scoped to; they
	// drive the (team, period) grouping.
	Quarters []string
	// WithDiscovery gathers engineering-discovery sections from item
	// descriptions and comments.
	WithDiscovery bool
	// WithAISummary asks the summarizer for a narrative per root item.
	WithAISummary bool
}

// Planner orchestrates hierarchy discovery, effort rollup and capacity
// estimation per root item, and assembles the run report.
type Planner struct {
	querier    IssueQuerier
	boards     BoardVelocityFetcher
	walker     *Walker
	aggregator *Aggregator
	estimator  *Estimator
	timeOff    TimeOffFetcher
	summarizer *Summarizer
	cfg        *config.Config
}

// NewPlanner wires a planner from its collaborators. boards, timeOff and
// summarizer may be nil; the planner degrades gracefully without them.
func NewPlanner(querier IssueQuerier, boards BoardVelocityFetcher, timeOff TimeOffFetcher, summarizer *Summarizer, cfg *config.Config) *Planner {
	walker := NewWalker(querier, WalkerOptions{
		LinkType:        cfg.Planning.LinkType,
		MaxDepth:        cfg.Planning.MaxDepth,
		ExcludeResolved: cfg.Planning.ExcludeResolved,
	})
	return &Planner{
		querier:    querier,
		boards:     boards,
		walker:     walker,
		aggregator: NewAggregator(walker),
		estimator:  NewEstimator(cfg.Planning.DefaultVelocity, cfg.Planning.SprintsPerCycle),
		timeOff:    timeOff,
		summarizer: summarizer,
		cfg:        cfg,
	}
}

// Walker exposes the planner's hierarchy walker for narrower callers.
func (p *Planner) Walker() *Walker {
	return p.walker
}

// Aggregator exposes the planner's effort aggregator.
func (p *Planner) Aggregator() *Aggregator {
	return p.aggregator
}

// FetchIdeasByQuarters enumerates root Ideas whose committed or roadmap
// cycle matches any of the quarter labels, filtered by lead team. A search
// failure here is fatal: without roots there is no run.
func (p *Planner) FetchIdeasByQuarters(ctx context.Context, quarters, teams []string) ([]models.WorkItem, error) {
	var conditions []string
	for _, q := range quarters {
		conditions = append(conditions, fmt.Sprintf(`customfield_10620 in ("%s")`, q))
		conditions = append(conditions, fmt.Sprintf(`customfield_10621 in ("%s")`, q))
	}
	jql := fmt.Sprintf(`issuetype = "Idea" AND (%s) ORDER BY rank ASC`, strings.Join(conditions, " OR "))

	items, err := p.querier.FetchByQuery(ctx, jql, rootFields)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate root items: %w", err)
	}

	return filterByTeams(items, teams), nil
}

// FetchIdeasByKeys fetches specific root Ideas. Per-key failures are
// returned alongside the successes; one bad key never sinks the batch.
func (p *Planner) FetchIdeasByKeys(ctx context.Context, keys, teams []string) ([]models.WorkItem, []models.RootFailure) {
	var roots []models.WorkItem
	var failures []models.RootFailure

	for _, key := range keys {
		item, err := p.querier.FetchByID(ctx, key, rootFields)
		if err != nil {
			failures = append(failures, models.RootFailure{Key: key, Reason: err.Error()})
			continue
		}
		if item.Kind != models.KindIdea {
			failures = append(failures, models.RootFailure{Key: key, Reason: fmt.Sprintf("not an Idea (%s)", item.Kind)})
			continue
		}
		if len(teams) > 0 && !matchesTeam(*item, teams) {
			continue
		}
		roots = append(roots, *item)
	}

	return roots, failures
}

// PlanCycle runs the full pipeline over the given root items and assembles
// the report. Root fetch failures recorded upstream are carried through so
// the final summary reports processed vs. failed counts; failures of
// individual roots are never fatal.
func (p *Planner) PlanCycle(ctx context.Context, roots []models.WorkItem, failures []models.RootFailure, opts PlanOptions) *models.PlanReport {
	report := &models.PlanReport{
		Failures: failures,
		Failed:   len(failures),
	}

	timeOffByPeriod := p.loadTimeOff(ctx, opts.Quarters)

	for i, root := range roots {
		helpers.PrintProgress(i+1, len(roots), fmt.Sprintf("Processing %s: %s", root.Key, root.Title))

		result := p.processRoot(ctx, i, root, opts, timeOffByPeriod)
		report.Results = append(report.Results, result)
		report.Processed++
	}

	report.Groups = p.groupResults(report.Results, opts.Quarters, timeOffByPeriod)

	return report
}

func (p *Planner) processRoot(ctx context.Context, index int, root models.WorkItem, opts PlanOptions, timeOffByPeriod map[string][]models.TimeOffRecord) models.EstimateResult {
	discovered := p.walker.Discover(ctx, root)

	result := models.EstimateResult{
		Key:               root.Key,
		Title:             root.Title,
		Summary:           summaryExcerpt(NormalizeBody(root.Description)),
		URL:               root.URL,
		Team:              teamName(root),
		CommittedIn:       root.CommittedIn,
		RoadmapCycles:     root.RoadmapCycles,
		LinkedCount:       discovered.LinkedCount,
		DiscoveredCount:   len(discovered.Items),
		ExcludedResolved:  discovered.ExcludedResolved,
		DiscoveryBallpark: root.DiscoveryBallpark,
	}

	result.TotalEffort = TotalEffort(discovered.Items)
	if result.TotalEffort == 0 && root.Effort > 0 {
		// A hand-estimated Idea with no delivery items yet.
		result.TotalEffort = root.Effort
	}

	team := p.teamProfile(ctx, result.Team)
	period, timeOff := p.periodFor(root, opts.Quarters, timeOffByPeriod)
	result.Estimate = p.estimator.Estimate(result.TotalEffort, team, period, timeOff)
	result.ETA = p.releaseETA(index, result.TotalEffort, result.Estimate.Velocity, period)

	if opts.WithDiscovery {
		result.Discovery = p.gatherDiscovery(ctx, discovered.Items)
		if opts.WithAISummary {
			summary, err := p.summarizer.Summarize(ctx, root.Key, root.Title, result.Discovery)
			if err != nil {
				helpers.PrintWarning("AI summary for %s failed: %v", root.Key, err)
			}
			result.Discovery.AISummary = summary
		}
	}

	return result
}

// gatherDiscovery mines extracted sections from every discovered item's
// description and comments. Comment fetch failures just skip that item's
// comments.
func (p *Planner) gatherDiscovery(ctx context.Context, items []models.WorkItem) models.DiscoveryData {
	var data models.DiscoveryData

	for _, item := range items {
		source := fmt.Sprintf("%s: %s", item.Key, item.Title)
		p.collectSections(&data, NormalizeBody(item.Description), source, string(item.Kind))

		comments, err := p.querier.FetchComments(ctx, item.Key)
		if err != nil {
			continue
		}
		for _, comment := range comments {
			commentSource := fmt.Sprintf("%s (comment by %s)", item.Key, comment.Author)
			p.collectSections(&data, NormalizeBody(comment.Body), commentSource, string(item.Kind))
		}
	}

	return data
}

func (p *Planner) collectSections(data *models.DiscoveryData, text, source, issueType string) {
	section := ExtractSections(text)
	if section == nil {
		return
	}
	if section.TechnicalComplexity != "" {
		data.TechnicalComplexity = append(data.TechnicalComplexity, models.SectionEntry{
			Source:    source,
			IssueType: issueType,
			Content:   section.TechnicalComplexity,
		})
	}
	if section.Dependencies != "" {
		data.Dependencies = append(data.Dependencies, models.SectionEntry{
			Source:    source,
			IssueType: issueType,
			Content:   section.Dependencies,
		})
	}
}

// teamProfile resolves the team config, topping up empty velocity history
// from the team's board when one is configured.
func (p *Planner) teamProfile(ctx context.Context, name string) models.TeamCapacityProfile {
	team, ok := p.cfg.TeamProfile(name)
	if !ok {
		return team
	}

	if len(team.VelocitySamples) == 0 && team.BoardID > 0 && p.boards != nil {
		samples, err := p.boards.GetBoardVelocity(ctx, team.BoardID)
		if err == nil {
			team.VelocitySamples = samples
		}
	}
	return team
}

// periodFor picks the planning period a root item belongs to: the first
// scoped quarter it is committed to or roadmapped for, else the first
// scoped quarter, else none.
func (p *Planner) periodFor(root models.WorkItem, quarters []string, timeOffByPeriod map[string][]models.TimeOffRecord) (models.DateRange, []models.TimeOffRecord) {
	pick := func(label string) (models.DateRange, []models.TimeOffRecord) {
		r, _ := p.cfg.QuarterRange(label)
		return r, timeOffByPeriod[label]
	}

	for _, label := range quarters {
		for _, committed := range root.CommittedIn {
			if strings.Contains(committed, label) {
				return pick(label)
			}
		}
		for _, roadmap := range root.RoadmapCycles {
			if strings.Contains(roadmap, label) {
				return pick(label)
			}
		}
	}
	if len(quarters) > 0 {
		return pick(quarters[0])
	}
	return models.DateRange{}, nil
}

// loadTimeOff fetches time-off once per scoped period. Absent or failing HR
// access degrades to no records and a zero PTO reduction.
func (p *Planner) loadTimeOff(ctx context.Context, quarters []string) map[string][]models.TimeOffRecord {
	out := make(map[string][]models.TimeOffRecord, len(quarters))
	if p.timeOff == nil {
		return out
	}

	for _, label := range quarters {
		period, ok := p.cfg.QuarterRange(label)
		if !ok {
			continue
		}
		records, err := p.timeOff.FetchTimeOff(ctx, period.Start, period.End)
		if err != nil {
			helpers.PrintWarning("Time-off lookup for %s failed: %v", label, err)
			continue
		}
		out[label] = records
	}
	return out
}

// releaseETA projects a completion sprint and date from the item's position
// in the cycle, its effort and the team velocity.
func (p *Planner) releaseETA(index int, totalEffort, velocity float64, period models.DateRange) models.ReleaseETA {
	sprintsNeeded := int(math.Ceil(totalEffort / velocity))

	// Earlier items in the cycle occupy earlier sprints.
	cumulative := index * 2
	totalSprints := cumulative + sprintsNeeded

	start := period.Start
	if start.IsZero() {
		start = time.Now()
	}
	weeks := totalSprints * p.cfg.Planning.SprintWeeks

	return models.ReleaseETA{
		Sprint:        totalSprints,
		Date:          start.AddDate(0, 0, weeks*7),
		SprintsNeeded: sprintsNeeded,
	}
}

// groupResults aggregates result totals per (team, period, commitment) key
// and finalizes one capacity estimate per group from the summed effort.
func (p *Planner) groupResults(results []models.EstimateResult, quarters []string, timeOffByPeriod map[string][]models.TimeOffRecord) []models.GroupSummary {
	type key struct {
		team       string
		period     string
		commitment string
	}

	groups := make(map[key]*models.GroupSummary)

	add := func(k key, r models.EstimateResult) {
		g, ok := groups[k]
		if !ok {
			g = &models.GroupSummary{Team: k.team, Period: k.period, Commitment: k.commitment}
			groups[k] = g
		}
		g.Items++
		g.TotalEffort += r.TotalEffort
		g.TotalPeriods += r.Estimate.PeriodsNeeded
		if r.Estimate.PersonPeriodsValid {
			g.TotalPersonPeriods += r.Estimate.PersonPeriods
			g.PersonPeriodsValid = true
		}
	}

	for _, r := range results {
		for _, label := range quarters {
			for _, committed := range r.CommittedIn {
				if strings.Contains(committed, label) {
					add(key{r.Team, label, "Committed"}, r)
					break
				}
			}
			for _, roadmap := range r.RoadmapCycles {
				if strings.Contains(roadmap, label) {
					add(key{r.Team, label, "Roadmap"}, r)
					break
				}
			}
		}
	}

	out := make([]models.GroupSummary, 0, len(groups))
	for k, g := range groups {
		team, _ := p.cfg.TeamProfile(k.team)
		period, _ := p.cfg.QuarterRange(k.period)
		g.Estimate = p.estimator.Estimate(g.TotalEffort, team, period, timeOffByPeriod[k.period])
		out = append(out, *g)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		if out[i].Period != out[j].Period {
			return out[i].Period < out[j].Period
		}
		return out[i].Commitment < out[j].Commitment
	})

	return out
}

// summaryExcerpt trims a description to a short overview for reports.
// Truncation happens on rune boundaries so multibyte titles stay valid.
func summaryExcerpt(text string) string {
	const limit = 500
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func teamName(item models.WorkItem) string {
	if item.Team != "" {
		return item.Team
	}
	return "Unknown"
}

func filterByTeams(items []models.WorkItem, teams []string) []models.WorkItem {
	if len(teams) == 0 {
		return items
	}

	var out []models.WorkItem
	for _, item := range items {
		if matchesTeam(item, teams) {
			out = append(out, item)
		}
	}
	return out
}

func matchesTeam(item models.WorkItem, teams []string) bool {
	for _, team := range teams {
		if strings.EqualFold(item.Team, team) {
			return true
		}
	}
	return false
}
