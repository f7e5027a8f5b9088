package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIssueKey(t *testing.T) {
	tests := []struct {
		input   string
		project string
		want    string
	}{
		{"RD-123", "", "RD-123"},
		{"rd-123", "", "RD-123"},
		{"  RD-123  ", "", "RD-123"},
		{"https://example.atlassian.net/browse/RD-123", "", "RD-123"},
		{"https://example.atlassian.net/jira/polaris/projects/RD/ideas/view/12?selectedIssue=RD-456", "", "RD-456"},
		{"123", "rd", "RD-123"},
	}

	for _, tt := range tests {
		got, err := ExtractIssueKey(tt.input, tt.project)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestExtractIssueKeyErrors(t *testing.T) {
	_, err := ExtractIssueKey("123", "")
	assert.Error(t, err)

	_, err = ExtractIssueKey("not an issue", "RD")
	assert.Error(t, err)
}

func TestFormatCycleLabel(t *testing.T) {
	assert.Equal(t, "26'Q1.C1", FormatCycleLabel("q126c1"))
	assert.Equal(t, "25'Q4.C2", FormatCycleLabel("Q425C2"))
	assert.Equal(t, "26'Q1.C1", FormatCycleLabel("26'Q1.C1"))
	assert.Equal(t, "whatever", FormatCycleLabel(" whatever "))
}
