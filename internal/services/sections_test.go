package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSectionsEmpty(t *testing.T) {
	assert.Nil(t, ExtractSections(""))
}

func TestExtractSectionsNonTechnical(t *testing.T) {
	assert.Nil(t, ExtractSections("Customers want a nicer landing experience with warmer colors."))
}

func TestExtractSectionsShortTechnicalSkipped(t *testing.T) {
	// Technical keyword but too short to carry usable detail.
	assert.Nil(t, ExtractSections("Fix the api."))
}

func TestExtractSectionsHeuristicFallback(t *testing.T) {
	text := "We need to update the api endpoint for user profiles and add schema validation."

	section := ExtractSections(text)
	require.NotNil(t, section)
	assert.False(t, section.HasExplicitMarker)
	assert.Equal(t, text, section.RawContent)
	assert.Equal(t, text, section.TechnicalComplexity)
	assert.Empty(t, section.Dependencies)
}

func TestExtractSectionsExplicitHeading(t *testing.T) {
	text := "Some intro.\n\n## ED\nBE:\nbuild the sync endpoint\nFE:\nupdate the settings page\nDependencies:\nplatform team sign-off\n\n## Rollout\nlater"

	section := ExtractSections(text)
	require.NotNil(t, section)
	assert.True(t, section.HasExplicitMarker)
	assert.Equal(t, "build the sync endpoint\n\nupdate the settings page", section.TechnicalComplexity)
	assert.Equal(t, "platform team sign-off", section.Dependencies)
}

func TestExtractSectionsAtEndOfText(t *testing.T) {
	// A section with no terminator still extracts.
	section := ExtractSections("## ED\nimplement the new architecture")
	require.NotNil(t, section)
	assert.True(t, section.HasExplicitMarker)
	assert.Equal(t, "implement the new architecture", section.TechnicalComplexity)
}

func TestExtractSectionsHeadingWinsOverInlineMarker(t *testing.T) {
	text := "## ED\nheading content\n---\nED note: inline content"

	section := ExtractSections(text)
	require.NotNil(t, section)
	assert.Equal(t, "heading content", section.RawContent)
}

func TestExtractSectionsBoldMarker(t *testing.T) {
	text := "**ED**\ndatabase migration for the orders table\n\n**Rollout**\nlater"

	section := ExtractSections(text)
	require.NotNil(t, section)
	assert.True(t, section.HasExplicitMarker)
	assert.Equal(t, "database migration for the orders table", section.RawContent)
}

func TestIsTechnicalContent(t *testing.T) {
	assert.True(t, IsTechnicalContent("needs a database migration"))
	assert.True(t, IsTechnicalContent("BACKEND work required"))
	assert.False(t, IsTechnicalContent("just a marketing update"))
	assert.False(t, IsTechnicalContent(""))
}
