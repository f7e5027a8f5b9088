package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cycle-planner/internal/config"
	"cycle-planner/internal/helpers"
	"cycle-planner/internal/models"
	"cycle-planner/internal/repositories"
	"cycle-planner/internal/services"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "cycle-planner",
		Short: "Cycle Planner - work-item discovery and capacity estimation for cycle planning",
		Long: `Cycle Planner walks the delivery hierarchy beneath product Ideas,
rolls up effort estimates and compares them against team capacity for a
planning cycle.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")

	// Plan command
	var planCmd = &cobra.Command{
		Use:   "plan <cycle> <team>",
		Short: "Plan a cycle for one team",
		Long:  "Enumerate the team's Ideas for a cycle, roll up effort, estimate capacity and write per-Idea markdown reports",
		Args:  cobra.ExactArgs(2),
		RunE:  runPlan,
	}
	planCmd.Flags().Bool("no-ai", false, "Skip AI summaries of engineering discovery")
	planCmd.Flags().StringP("output", "o", "", "Output directory (default derived from cycle and team)")
	rootCmd.AddCommand(planCmd)

	// Ideas command
	var ideasCmd = &cobra.Command{
		Use:   "ideas",
		Short: "Analyze specific Ideas or an entire quarter",
		Long:  "Walk the hierarchy beneath the given Ideas (or every Idea scoped to the given quarters) and report effort and capacity estimates",
		RunE:  runIdeas,
	}
	ideasCmd.Flags().StringSlice("ids", nil, "Idea keys, issue numbers or browse URLs")
	ideasCmd.Flags().StringSlice("quarters", nil, "Cycle labels to enumerate (26'Q1.C1 or q126c1)")
	ideasCmd.Flags().StringSlice("teams", nil, "Restrict to these lead teams")
	ideasCmd.Flags().StringP("project", "p", "", "Project key for bare issue numbers")
	ideasCmd.Flags().Bool("discovery", false, "Gather engineering-discovery sections from descriptions and comments")
	ideasCmd.Flags().String("csv", "", "Write results to this CSV file")
	ideasCmd.Flags().String("json", "", "Write the full report to this JSON file")
	rootCmd.AddCommand(ideasCmd)

	// Classify command
	var classifyCmd = &cobra.Command{
		Use:   "classify <project>",
		Short: "Categorize resolved tickets by keyword",
		Long:  "Scan summaries, descriptions and comments of the project's resolved bugs and tickets and bucket them into the configured keyword categories",
		Args:  cobra.ExactArgs(1),
		RunE:  runClassify,
	}
	classifyCmd.Flags().String("since", "", "Only tickets resolved on or after this date (YYYY-MM-DD, default start of year)")
	classifyCmd.Flags().Bool("csv", false, "Also write the classified tickets to a timestamped CSV file")
	rootCmd.AddCommand(classifyCmd)

	// Velocity command
	var velocityCmd = &cobra.Command{
		Use:   "velocity <project>",
		Short: "Report in-progress-to-resolved cycle times",
		Long:  "List resolved issues with story points and the hours they spent in progress, with hours-per-point averages",
		Args:  cobra.ExactArgs(1),
		RunE:  runVelocity,
	}
	velocityCmd.Flags().String("since", "", "Only issues resolved on or after this date (YYYY-MM-DD, default 90 days ago)")
	velocityCmd.Flags().StringP("assignee", "a", "", "Restrict averages to one assignee")
	velocityCmd.Flags().Bool("by-assignee", false, "Also print hours-per-point averages per assignee")
	rootCmd.AddCommand(velocityCmd)

	if err := rootCmd.Execute(); err != nil {
		helpers.PrintError("Error: %v", err)
		os.Exit(1)
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	noAI, _ := cmd.Flags().GetBool("no-ai")
	outputDir, _ := cmd.Flags().GetString("output")

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	label := services.FormatCycleLabel(args[0])
	team := args[1]
	if profile, ok := cfg.TeamProfile(team); ok {
		team = profile.Name
	}

	helpers.PrintTitle("Planning cycle %s for %s", label, team)

	planner, summarizer := buildPlanner(cfg)
	ctx := context.Background()

	roots, err := planner.FetchIdeasByQuarters(ctx, []string{label}, []string{team})
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		return fmt.Errorf("no Ideas found for %s in %s", team, label)
	}
	helpers.PrintInfo("Found %d Ideas", len(roots))

	report := planner.PlanCycle(ctx, roots, nil, services.PlanOptions{
		Quarters:      []string{label},
		WithDiscovery: true,
		WithAISummary: summarizer != nil && !noAI,
	})

	services.RenderIdeaTable(report.Results)
	services.RenderGroupTable(report.Groups)

	if outputDir == "" {
		outputDir = filepath.Join(cfg.Planning.OutputDir, dirName(label, team))
	}
	if err := services.WritePlanFiles(report, outputDir); err != nil {
		return err
	}
	if err := services.WriteResultsCSV(report.Results, filepath.Join(outputDir, "results.csv")); err != nil {
		return err
	}

	services.RenderRunSummary(report)
	return nil
}

func runIdeas(cmd *cobra.Command, args []string) error {
	ids, _ := cmd.Flags().GetStringSlice("ids")
	quarters, _ := cmd.Flags().GetStringSlice("quarters")
	teams, _ := cmd.Flags().GetStringSlice("teams")
	project, _ := cmd.Flags().GetString("project")
	discovery, _ := cmd.Flags().GetBool("discovery")
	csvPath, _ := cmd.Flags().GetString("csv")
	jsonPath, _ := cmd.Flags().GetString("json")

	if len(ids) == 0 && len(quarters) == 0 {
		return fmt.Errorf("either --ids or --quarters is required")
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	labels := make([]string, 0, len(quarters))
	for _, q := range quarters {
		labels = append(labels, services.FormatCycleLabel(q))
	}

	planner, summarizer := buildPlanner(cfg)
	ctx := context.Background()

	var roots []models.WorkItem
	var failures []models.RootFailure

	if len(ids) > 0 {
		keys := make([]string, 0, len(ids))
		for _, id := range ids {
			key, err := services.ExtractIssueKey(id, project)
			if err != nil {
				failures = append(failures, models.RootFailure{Key: id, Reason: err.Error()})
				continue
			}
			keys = append(keys, key)
		}
		fetched, fetchFailures := planner.FetchIdeasByKeys(ctx, keys, teams)
		roots = fetched
		failures = append(failures, fetchFailures...)
	} else {
		roots, err = planner.FetchIdeasByQuarters(ctx, labels, teams)
		if err != nil {
			return err
		}
	}

	if len(roots) == 0 {
		for _, f := range failures {
			helpers.PrintWarning("%s: %s", f.Key, f.Reason)
		}
		return fmt.Errorf("no Ideas to process")
	}
	helpers.PrintInfo("Processing %d Ideas", len(roots))

	report := planner.PlanCycle(ctx, roots, failures, services.PlanOptions{
		Quarters:      labels,
		WithDiscovery: discovery,
		WithAISummary: discovery && summarizer != nil,
	})

	services.RenderIdeaTable(report.Results)
	if len(report.Groups) > 0 {
		services.RenderGroupTable(report.Groups)
	}

	if csvPath != "" {
		if err := services.WriteResultsCSV(report.Results, csvPath); err != nil {
			return err
		}
	}
	if jsonPath != "" {
		if err := helpers.SaveJSON(report, jsonPath); err != nil {
			return err
		}
		helpers.PrintSuccess("Report saved to %s", jsonPath)
	}

	services.RenderRunSummary(report)
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	sinceFlag, _ := cmd.Flags().GetString("since")
	writeCSV, _ := cmd.Flags().GetBool("csv")

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	now := time.Now()
	since := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if sinceFlag != "" {
		since, err = time.Parse("2006-01-02", sinceFlag)
		if err != nil {
			return fmt.Errorf("invalid --since date: %w", err)
		}
	}

	project := args[0]
	helpers.PrintTitle("Keyword analysis for %s since %s", project, since.Format("2006-01-02"))

	repo := repositories.NewJiraRepository(&cfg.Jira, requestDelay(cfg))
	classifier := services.NewClassifier(repo, cfg.KeywordCategories())

	report, err := classifier.ClassifyResolved(context.Background(), project, since)
	if err != nil {
		return err
	}

	services.RenderClassificationReport(report)

	if writeCSV {
		filename := helpers.GenerateOutputFilename(strings.ToLower(project)+"-tickets", "csv")
		path := helpers.GetOutputPath(cfg.Planning.OutputDir, filename)
		if err := services.WriteClassificationCSV(report, path); err != nil {
			return err
		}
		helpers.PrintSuccess("Data saved to %s", path)
	}

	return nil
}

func runVelocity(cmd *cobra.Command, args []string) error {
	sinceFlag, _ := cmd.Flags().GetString("since")
	assignee, _ := cmd.Flags().GetString("assignee")
	byAssignee, _ := cmd.Flags().GetBool("by-assignee")

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	since := time.Now().AddDate(0, 0, -90)
	if sinceFlag != "" {
		since, err = time.Parse("2006-01-02", sinceFlag)
		if err != nil {
			return fmt.Errorf("invalid --since date: %w", err)
		}
	}

	repo := repositories.NewJiraRepository(&cfg.Jira, requestDelay(cfg))
	throughput := services.NewThroughputService(repo)

	helpers.PrintTitle("Cycle times for %s since %s", args[0], since.Format("2006-01-02"))

	ctx := context.Background()
	rows, err := throughput.ResolvedIssueCycles(ctx, args[0], since)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		helpers.PrintWarning("No resolved issues with story points found")
		return nil
	}

	services.RenderVelocityTable(rows)

	helpers.PrintInfo("Hours per story point")
	services.RenderPointStatsTable(services.AverageHoursPerPoint(rows, assignee))

	if byAssignee {
		for _, name := range services.Assignees(rows) {
			helpers.PrintInfo("Hours per story point: %s", name)
			services.RenderPointStatsTable(services.AverageHoursPerPoint(rows, name))
		}
	}

	return nil
}

// buildPlanner wires the planner from configured collaborators. The HR client
// and summarizer are optional; a nil interface keeps the planner on its
// degraded paths.
func buildPlanner(cfg *config.Config) (*services.Planner, *services.Summarizer) {
	repo := repositories.NewJiraRepository(&cfg.Jira, requestDelay(cfg))

	var timeOff services.TimeOffFetcher
	if hr := repositories.NewTimeOffRepository(&cfg.HR); hr != nil {
		timeOff = hr
	}

	summarizer := services.NewSummarizer(&cfg.Anthropic)

	return services.NewPlanner(repo, repo, timeOff, summarizer, cfg), summarizer
}

func requestDelay(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Planning.RequestDelayMs) * time.Millisecond
}

// dirName builds a filesystem-friendly directory name from a cycle label and
// team name, e.g. q126c1-platform-services.
func dirName(label, team string) string {
	team = strings.ToLower(strings.Join(strings.Fields(team), "-"))
	return config.CycleKey(label) + "-" + team
}
