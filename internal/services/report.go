package services

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"cycle-planner/internal/helpers"
	"cycle-planner/internal/models"
)

// RenderIdeaTable prints the per-root-item results as a console table.
func RenderIdeaTable(results []models.EstimateResult) {
	if len(results) == 0 {
		helpers.PrintInfo("No results to display.")
		return
	}

	sorted := make([]models.EstimateResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Team != sorted[j].Team {
			return sorted[i].Team < sorted[j].Team
		}
		return sorted[i].Key < sorted[j].Key
	})

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Team", "Committed", "Roadmap", "Key", "Summary", "Linked", "SP", "Team Sprints", "Person Sprints"})
	for _, r := range sorted {
		tw.AppendRow(table.Row{
			r.Team,
			dashIfEmpty(strings.Join(r.CommittedIn, ", ")),
			dashIfEmpty(strings.Join(r.RoadmapCycles, ", ")),
			r.Key,
			truncate(r.Title, 40),
			r.LinkedCount,
			formatPoints(r.TotalEffort),
			fmt.Sprintf("%.2f", r.Estimate.PeriodsNeeded),
			formatPersonPeriods(r.Estimate),
		})
	}
	tw.Render()
}

// RenderGroupTable prints the per-(team, period, commitment) summary.
func RenderGroupTable(groups []models.GroupSummary) {
	if len(groups) == 0 {
		helpers.PrintInfo("No team summary data available.")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Team & Quarter", "Items", "SP", "Team Sprints", "Person Sprints", "Target", "Buffer %"})
	for _, g := range groups {
		personPeriods := "n/a"
		if g.PersonPeriodsValid {
			personPeriods = fmt.Sprintf("%.2f", g.TotalPersonPeriods)
		}
		tw.AppendRow(table.Row{
			fmt.Sprintf("%s (%s %s)", g.Team, g.Period, g.Commitment),
			g.Items,
			formatPoints(g.TotalEffort),
			fmt.Sprintf("%.2f", g.TotalPeriods),
			personPeriods,
			fmt.Sprintf("%.2f", g.Estimate.TargetPersonPeriods),
			fmt.Sprintf("%+.0f%%", g.Estimate.BufferPercent),
		})
	}
	tw.Render()
}

// RenderVelocityTable prints resolved-issue cycle times.
func RenderVelocityTable(rows []models.VelocityRow) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Key", "SP", "Assignee", "In Progress", "Resolved", "Hours"})
	for _, row := range rows {
		tw.AppendRow(table.Row{
			row.Key,
			formatPoints(row.StoryPoints),
			row.Assignee,
			row.InProgress.Format("2006-01-02 15:04"),
			row.Resolved.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.1f", row.Hours),
		})
	}
	tw.Render()
}

// RenderPointStatsTable prints hours-per-story-point aggregates.
func RenderPointStatsTable(stats []models.StoryPointStat) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"SP", "Count", "Avg Hours"})
	for _, stat := range stats {
		tw.AppendRow(table.Row{formatPoints(stat.Points), stat.Count, fmt.Sprintf("%.2f", stat.AvgHours)})
	}
	tw.Render()
}

// RenderClassificationReport prints category counts followed by a ticket
// breakdown per non-empty category.
func RenderClassificationReport(report *models.ClassificationReport) {
	helpers.PrintInfo("Analyzed %d resolved tickets", report.Total)

	for _, breakdown := range report.Categories {
		helpers.PrintSeparator()
		helpers.PrintTitle("%s: %d tickets (%.1f%%)", breakdown.Category.Name, breakdown.Count, breakdown.Percent)
		if len(breakdown.Tickets) == 0 {
			continue
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Key", "Summary", "Keyword", "Context", "Source"})
		for _, ticket := range breakdown.Tickets {
			tw.AppendRow(table.Row{
				ticket.Key,
				truncate(ticket.Title, 35),
				ticket.Keyword,
				truncate(ticket.Context, 45),
				ticket.Source,
			})
		}
		tw.Render()
	}
}

// WriteClassificationCSV exports the classified tickets for spreadsheet use.
func WriteClassificationCSV(report *models.ClassificationReport, path string) error {
	records := [][]string{
		{"category", "key", "type", "summary", "keyword", "context", "source", "url"},
	}
	for _, breakdown := range report.Categories {
		for _, ticket := range breakdown.Tickets {
			records = append(records, []string{
				breakdown.Category.Name,
				ticket.Key,
				string(ticket.Kind),
				ticket.Title,
				ticket.Keyword,
				ticket.Context,
				ticket.Source,
				ticket.URL,
			})
		}
	}
	return helpers.WriteCSV(path, records)
}

// RenderRunSummary prints the processed/failed outcome of a run.
func RenderRunSummary(report *models.PlanReport) {
	helpers.PrintSuccess("Processed %d root items (%d failed)", report.Processed, report.Failed)
	for _, failure := range report.Failures {
		helpers.PrintWarning("  %s: %s", failure.Key, failure.Reason)
	}
}

// PlanMarkdown renders one root item's planning document.
func PlanMarkdown(result models.EstimateResult) string {
	var md strings.Builder

	fmt.Fprintf(&md, "# %s\n\n", result.Title)
	fmt.Fprintf(&md, "**ID:** [%s](%s)\n\n", result.Key, result.URL)
	md.WriteString("---\n\n")

	md.WriteString("## Summary\n\n")
	if result.Summary != "" {
		fmt.Fprintf(&md, "%s\n\n", result.Summary)
	} else {
		md.WriteString("No summary available.\n\n")
	}

	md.WriteString("## Effort\n\n")
	fmt.Fprintf(&md, "**Story Points:** %s\n\n", formatPoints(result.TotalEffort))
	fmt.Fprintf(&md, "**Estimated Sprints:** %d\n\n", result.ETA.SprintsNeeded)
	if result.ExcludedResolved > 0 {
		fmt.Fprintf(&md, "*(%d resolved items excluded from the total)*\n\n", result.ExcludedResolved)
	}

	md.WriteString("## Discovery Ballpark\n\n")
	if result.DiscoveryBallpark > 0 {
		fmt.Fprintf(&md, "%s\n\n", formatPoints(result.DiscoveryBallpark))
	} else {
		md.WriteString("Not specified\n\n")
	}

	md.WriteString("## Release ETA\n\n")
	fmt.Fprintf(&md, "**Target Sprint:** Sprint %d\n\n", result.ETA.Sprint)
	fmt.Fprintf(&md, "**Estimated Date:** %s\n\n", result.ETA.Date.Format("2006-01-02"))

	md.WriteString("## Technical Complexity\n\n")
	switch {
	case result.Discovery.AISummary != "":
		fmt.Fprintf(&md, "%s\n\n", result.Discovery.AISummary)
		md.WriteString("<details>\n<summary>View detailed technical breakdown</summary>\n\n")
		writeSectionEntries(&md, result.Discovery.TechnicalComplexity, result.URL)
		md.WriteString("</details>\n\n")
	case len(result.Discovery.TechnicalComplexity) > 0:
		md.WriteString("*AI summary not available. Showing raw technical details below:*\n\n")
		writeSectionEntries(&md, result.Discovery.TechnicalComplexity, result.URL)
	default:
		md.WriteString("*No technical complexity information found. This may indicate that Engineering Discovery is still in progress.*\n\n")
	}

	md.WriteString("## Dependencies\n\n")
	if len(result.Discovery.Dependencies) > 0 {
		writeSectionEntries(&md, result.Discovery.Dependencies, result.URL)
	} else {
		md.WriteString("*No external dependencies identified yet.*\n\n")
	}

	return md.String()
}

// WritePlanFiles writes one markdown document per result under outputDir.
func WritePlanFiles(report *models.PlanReport, outputDir string) error {
	if err := helpers.EnsureDir(outputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, result := range report.Results {
		filename := fmt.Sprintf("%s-%s.md", result.Key, slugify(result.Title))
		path := filepath.Join(outputDir, filename)
		if err := helpers.WriteText(path, PlanMarkdown(result)); err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
		helpers.PrintSuccess("Generated: %s", filename)
	}
	return nil
}

// WriteResultsCSV exports the per-item results for spreadsheet use.
func WriteResultsCSV(results []models.EstimateResult, path string) error {
	records := [][]string{
		{"team", "key", "summary", "linked", "story_points", "team_sprints", "person_sprints", "buffer_percent"},
	}
	for _, r := range results {
		records = append(records, []string{
			r.Team,
			r.Key,
			r.Title,
			fmt.Sprintf("%d", r.LinkedCount),
			formatPoints(r.TotalEffort),
			fmt.Sprintf("%.2f", r.Estimate.PeriodsNeeded),
			formatPersonPeriods(r.Estimate),
			fmt.Sprintf("%.2f", r.Estimate.BufferPercent),
		})
	}
	return helpers.WriteCSV(path, records)
}

func writeSectionEntries(md *strings.Builder, entries []models.SectionEntry, baseURL string) {
	// Entry sources start with the issue key; link them next to the root
	// item under the same browse path.
	browseBase := baseURL[:strings.LastIndex(baseURL, "/")+1]
	for _, entry := range entries {
		key := entry.Source
		if idx := strings.IndexAny(key, ": ("); idx > 0 {
			key = key[:idx]
		}
		issueURL := browseBase + strings.TrimSpace(key)
		fmt.Fprintf(md, "### [%s](%s)\n\n", entry.Source, issueURL)
		fmt.Fprintf(md, "**Type:** %s\n\n", entry.IssueType)
		fmt.Fprintf(md, "%s\n\n", entry.Content)
		md.WriteString("---\n\n")
	}
}

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func slugify(title string) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(title, "-"), "-")
	if len(slug) > 50 {
		slug = strings.Trim(slug[:50], "-")
	}
	return slug
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatPoints(points float64) string {
	if points == float64(int64(points)) {
		return fmt.Sprintf("%.0f", points)
	}
	return fmt.Sprintf("%.1f", points)
}

func formatPersonPeriods(est models.Estimate) string {
	if !est.PersonPeriodsValid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", est.PersonPeriods)
}
