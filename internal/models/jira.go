package models

import "encoding/json"

// SearchRequest is the request body for the JQL search endpoint
type SearchRequest struct {
	JQL           string   `json:"jql"`
	Fields        []string `json:"fields,omitempty"`
	MaxResults    int      `json:"maxResults,omitempty"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
	Expand        []string `json:"expand,omitempty"`
}

// SearchResponse is one page of JQL search results
type SearchResponse struct {
	Issues        []Issue `json:"issues"`
	NextPageToken string  `json:"nextPageToken"`
	IsLast        bool    `json:"isLast"`
}

// Issue represents a JIRA issue as returned by the REST API
type Issue struct {
	ID        string      `json:"id"`
	Key       string      `json:"key"`
	Fields    IssueFields `json:"fields"`
	Changelog *Changelog  `json:"changelog,omitempty"`
}

// IssueFields represents JIRA issue fields
type IssueFields struct {
	Summary           string         `json:"summary"`
	Description       *Body          `json:"description,omitempty"`
	IssueType         IssueType      `json:"issuetype"`
	Project           Project        `json:"project"`
	StoryPoints       *float64       `json:"customfield_10124,omitempty"` // Story Points
	DiscoveryBallpark *float64       `json:"customfield_11155,omitempty"` // Discovery Ballpark
	LeadTeam          *SelectOption  `json:"customfield_10596,omitempty"` // Lead Team
	CommittedIn       []SelectOption `json:"customfield_10620,omitempty"` // Committed In
	RoadmapCycle      []SelectOption `json:"customfield_10621,omitempty"` // Roadmap Cycle
	IssueLinks        []IssueLink    `json:"issuelinks,omitempty"`
	Resolution        *Resolution    `json:"resolution,omitempty"`
	ResolutionDate    string         `json:"resolutiondate,omitempty"`
	Assignee          *User          `json:"assignee,omitempty"`
}

// IssueType represents a JIRA issue type
type IssueType struct {
	Name string `json:"name"`
}

// Project represents a JIRA project reference
type Project struct {
	Key string `json:"key"`
}

// SelectOption is the value object JIRA returns for select custom fields
type SelectOption struct {
	Value string `json:"value"`
}

// Resolution marks an issue as resolved
type Resolution struct {
	Name string `json:"name"`
}

// User represents a JIRA user reference
type User struct {
	DisplayName string `json:"displayName"`
}

// IssueLink is a typed, directional edge between two issues
type IssueLink struct {
	Type         LinkType     `json:"type"`
	InwardIssue  *LinkedIssue `json:"inwardIssue,omitempty"`
	OutwardIssue *LinkedIssue `json:"outwardIssue,omitempty"`
}

// LinkType names the link relation (e.g. "Polaris work item link")
type LinkType struct {
	Name string `json:"name"`
}

// LinkedIssue is the minimal issue reference inside an issue link
type LinkedIssue struct {
	Key string `json:"key"`
}

// CommentPage is the response of the issue comment endpoint
type CommentPage struct {
	Comments []IssueComment `json:"comments"`
}

// IssueComment represents a single issue comment
type IssueComment struct {
	Author *User `json:"author,omitempty"`
	Body   *Body `json:"body,omitempty"`
}

// Changelog carries issue history entries when expanded
type Changelog struct {
	Histories []ChangeHistory `json:"histories"`
}

// ChangeHistory is one changelog entry
type ChangeHistory struct {
	Created string       `json:"created"`
	Items   []ChangeItem `json:"items"`
}

// ChangeItem is a single field transition inside a changelog entry
type ChangeItem struct {
	Field    string `json:"field"`
	ToString string `json:"toString"`
}

// VelocityChart is the board velocity report
type VelocityChart struct {
	Entries map[string]VelocityEntry `json:"velocityStatEntries"`
}

// VelocityEntry holds per-sprint velocity stats
type VelocityEntry struct {
	Completed VelocityStat `json:"completed"`
}

// VelocityStat wraps a single velocity value
type VelocityStat struct {
	Value float64 `json:"value"`
}

// Body holds rich-text content. JIRA serves it either as a plain string or
// as an Atlassian Document Format tree, depending on API version and field.
type Body struct {
	Text string
	Doc  *DocNode
}

// UnmarshalJSON accepts both the string and the document form. An
// unrecognized shape decodes to an empty body rather than failing.
func (b *Body) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Text = s
		return nil
	}

	var doc DocNode
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	b.Doc = &doc
	return nil
}

// IsEmpty reports whether the body carries no content at all.
func (b *Body) IsEmpty() bool {
	return b == nil || (b.Text == "" && b.Doc == nil)
}

// DocNode is one node of an Atlassian Document Format tree
type DocNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Attrs   *DocAttrs `json:"attrs,omitempty"`
	Content []DocNode `json:"content,omitempty"`
}

// DocAttrs carries node attributes; only the heading level is used
type DocAttrs struct {
	Level int `json:"level,omitempty"`
}
