package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyUnmarshalString(t *testing.T) {
	var body Body
	require.NoError(t, json.Unmarshal([]byte(`"plain description"`), &body))
	assert.Equal(t, "plain description", body.Text)
	assert.Nil(t, body.Doc)
	assert.False(t, body.IsEmpty())
}

func TestBodyUnmarshalDocument(t *testing.T) {
	payload := `{
		"type": "doc",
		"content": [
			{"type": "paragraph", "content": [{"type": "text", "text": "hello"}]},
			{"type": "heading", "attrs": {"level": 2}, "content": [{"type": "text", "text": "ED"}]}
		]
	}`

	var body Body
	require.NoError(t, json.Unmarshal([]byte(payload), &body))
	require.NotNil(t, body.Doc)
	require.Len(t, body.Doc.Content, 2)
	assert.Equal(t, "paragraph", body.Doc.Content[0].Type)
	assert.Equal(t, "hello", body.Doc.Content[0].Content[0].Text)
	assert.Equal(t, 2, body.Doc.Content[1].Attrs.Level)
}

func TestBodyUnmarshalUnknownShape(t *testing.T) {
	// Unknown shapes decode to an empty body instead of failing the whole
	// issue payload.
	var body Body
	require.NoError(t, json.Unmarshal([]byte(`42`), &body))
	assert.True(t, body.IsEmpty())
}

func TestIssueFieldsDecoding(t *testing.T) {
	payload := `{
		"key": "RD-1",
		"fields": {
			"summary": "Unified search",
			"issuetype": {"name": "Idea"},
			"customfield_10124": 13,
			"customfield_10596": {"value": "Platform"},
			"customfield_10620": [{"value": "26'Q1.C1"}],
			"resolution": {"name": "Done"},
			"issuelinks": [
				{"type": {"name": "Polaris work item link"}, "outwardIssue": {"key": "EPIC-1"}}
			]
		}
	}`

	var issue Issue
	require.NoError(t, json.Unmarshal([]byte(payload), &issue))
	assert.Equal(t, "RD-1", issue.Key)
	assert.Equal(t, "Idea", issue.Fields.IssueType.Name)
	require.NotNil(t, issue.Fields.StoryPoints)
	assert.Equal(t, 13.0, *issue.Fields.StoryPoints)
	assert.Equal(t, "Platform", issue.Fields.LeadTeam.Value)
	require.Len(t, issue.Fields.CommittedIn, 1)
	assert.NotNil(t, issue.Fields.Resolution)
	require.Len(t, issue.Fields.IssueLinks, 1)
	assert.Equal(t, "EPIC-1", issue.Fields.IssueLinks[0].OutwardIssue.Key)
}

func TestItemKindIsContainer(t *testing.T) {
	assert.True(t, KindIdea.IsContainer())
	assert.True(t, KindEpic.IsContainer())
	assert.False(t, KindStory.IsContainer())
	assert.False(t, KindBug.IsContainer())
}
