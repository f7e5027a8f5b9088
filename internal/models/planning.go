package models

import "time"

// ItemKind is the closed set of work item kinds the planner distinguishes.
type ItemKind string

const (
	KindIdea    ItemKind = "Idea"
	KindEpic    ItemKind = "Epic"
	KindStory   ItemKind = "Story"
	KindSubtask ItemKind = "Sub-task"
	KindBug     ItemKind = "Bug"
	KindTicket  ItemKind = "Ticket"
)

// IsContainer reports whether items of this kind organize child items and
// conventionally roll their effort up from them.
func (k ItemKind) IsContainer() bool {
	return k == KindIdea || k == KindEpic
}

// LinkDirection records which side of an issue link a related item sits on.
type LinkDirection string

const (
	LinkInward  LinkDirection = "inward"
	LinkOutward LinkDirection = "outward"
)

// LinkRelation is a typed, directional edge to another work item.
type LinkRelation struct {
	Type      string
	Direction LinkDirection
	TargetKey string
}

// WorkItem is the planner's view of a JIRA issue. It is populated by the
// repository adapter so the services never touch raw payloads.
type WorkItem struct {
	Key               string
	Kind              ItemKind
	Title             string
	Description       *Body
	Effort            float64 // story points; 0 when the field is unset
	DiscoveryBallpark float64
	Resolved          bool
	ResolvedAt        *time.Time
	Team              string
	CommittedIn       []string
	RoadmapCycles     []string
	Links             []LinkRelation
	ParentKey         string // containing item's key, when discovered via containment
	URL               string
}

// Comment is a work item comment with its author resolved.
type Comment struct {
	Author string
	Body   *Body
}

// ExtractedSection is the engineering-discovery content mined from one body
// of text. It is non-nil only if at least one of the two sub-fields (or the
// raw fallback feeding TechnicalComplexity) is non-empty.
type ExtractedSection struct {
	TechnicalComplexity string
	Dependencies        string
	RawContent          string
	HasExplicitMarker   bool
}

// SectionEntry attributes extracted content to the item (or comment) that
// carried it.
type SectionEntry struct {
	Source    string
	IssueType string
	Content   string
}

// DiscoveryData collects all extracted sections under one root item.
type DiscoveryData struct {
	TechnicalComplexity []SectionEntry
	Dependencies        []SectionEntry
	AISummary           string
}

// TeamCapacityProfile is the per-team planning configuration, loaded once at
// job start and read-only thereafter.
type TeamCapacityProfile struct {
	Name            string
	Aliases         []string
	Headcount       int
	Roster          []string
	BoardID         int
	VelocitySamples []float64 // completed effort per period, most recent last
}

// TimeOffRecord is one approved absence for a team member.
type TimeOffRecord struct {
	Member   string
	Start    time.Time
	End      time.Time
	Category string
}

// DateRange is a named planning period.
type DateRange struct {
	Label string
	Start time.Time
	End   time.Time
}

// Estimate is the capacity math for one effort total against one team.
type Estimate struct {
	Velocity            float64
	PeriodsNeeded       float64
	PersonPeriods       float64
	PersonPeriodsValid  bool // false when the team has no configured headcount
	TargetPersonPeriods float64
	PTOReduction        float64
	BufferPercent       float64
}

// ReleaseETA projects a completion sprint and date for one item based on its
// position in the cycle.
type ReleaseETA struct {
	Sprint        int
	Date          time.Time
	SprintsNeeded int
}

// EstimateResult is the structured record produced per root item.
type EstimateResult struct {
	Key               string
	Title             string
	Summary           string // plain-text description excerpt
	URL               string
	Team              string
	CommittedIn       []string
	RoadmapCycles     []string
	LinkedCount       int
	DiscoveredCount   int
	ExcludedResolved  int
	TotalEffort       float64
	DiscoveryBallpark float64
	Estimate          Estimate
	ETA               ReleaseETA
	Discovery         DiscoveryData
}

// GroupSummary aggregates results sharing a (team, period, commitment) key.
type GroupSummary struct {
	Team               string
	Period             string
	Commitment         string // "Committed" or "Roadmap"
	Items              int
	TotalEffort        float64
	TotalPeriods       float64
	TotalPersonPeriods float64
	PersonPeriodsValid bool
	Estimate           Estimate
}

// RootFailure records a root item that could not be processed.
type RootFailure struct {
	Key    string
	Reason string
}

// PlanReport is the full output of one planning run.
type PlanReport struct {
	Results   []EstimateResult
	Groups    []GroupSummary
	Processed int
	Failed    int
	Failures  []RootFailure
}

// KeywordCategory names a ticket category and the keywords that select it.
type KeywordCategory struct {
	Name     string
	Keywords []string
}

// ClassifiedTicket is one resolved ticket matched to a category, with the
// first keyword occurrence and the field that carried it.
type ClassifiedTicket struct {
	Key     string
	Title   string
	URL     string
	Kind    ItemKind
	Keyword string
	Context string
	Source  string // "Summary", "Description" or "Comments"
}

// CategoryBreakdown is one category's share of the classified tickets.
type CategoryBreakdown struct {
	Category KeywordCategory
	Count    int
	Percent  float64
	Tickets  []ClassifiedTicket
}

// ClassificationReport is the full output of one classification run. A
// ticket can appear under several categories.
type ClassificationReport struct {
	Total      int
	Categories []CategoryBreakdown
}

// VelocityRow is one resolved issue in the throughput report.
type VelocityRow struct {
	Key         string
	URL         string
	StoryPoints float64
	Assignee    string
	InProgress  time.Time
	Resolved    time.Time
	Hours       float64
}

// StoryPointStat is the hours-per-point aggregate for one point value.
type StoryPointStat struct {
	Points   float64
	Count    int
	AvgHours float64
}
