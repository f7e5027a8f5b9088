package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cycle-planner/internal/models"
)

func TestNormalizeBodyNil(t *testing.T) {
	assert.Equal(t, "", NormalizeBody(nil))
	assert.Equal(t, "", NormalizeBody(&models.Body{}))
}

func TestNormalizeBodyPlainText(t *testing.T) {
	body := &models.Body{Text: "already plain text"}
	assert.Equal(t, "already plain text", NormalizeBody(body))
}

func TestNormalizeDocumentParagraphs(t *testing.T) {
	doc := &models.DocNode{
		Type: "doc",
		Content: []models.DocNode{
			{Type: "paragraph", Content: []models.DocNode{{Type: "text", Text: "first"}}},
			{Type: "paragraph", Content: []models.DocNode{{Type: "text", Text: "second"}}},
		},
	}
	assert.Equal(t, "first\nsecond\n", NormalizeDocument(doc))
}

func TestNormalizeDocumentHeadings(t *testing.T) {
	doc := &models.DocNode{
		Type: "doc",
		Content: []models.DocNode{
			{Type: "heading", Attrs: &models.DocAttrs{Level: 2}, Content: []models.DocNode{{Type: "text", Text: "ED"}}},
			{Type: "paragraph", Content: []models.DocNode{{Type: "text", Text: "details"}}},
		},
	}
	assert.Equal(t, "## ED\ndetails\n", NormalizeDocument(doc))
}

func TestNormalizeDocumentHeadingLevelClamped(t *testing.T) {
	doc := &models.DocNode{
		Type: "doc",
		Content: []models.DocNode{
			{Type: "heading", Attrs: &models.DocAttrs{Level: 9}, Content: []models.DocNode{{Type: "text", Text: "title"}}},
			{Type: "heading", Content: []models.DocNode{{Type: "text", Text: "untagged"}}},
		},
	}
	assert.Equal(t, "# title\n# untagged\n", NormalizeDocument(doc))
}

func TestNormalizeDocumentLists(t *testing.T) {
	doc := &models.DocNode{
		Type: "doc",
		Content: []models.DocNode{
			{Type: "bulletList", Content: []models.DocNode{
				{Type: "listItem", Content: []models.DocNode{
					{Type: "paragraph", Content: []models.DocNode{{Type: "text", Text: "one"}}},
				}},
				{Type: "listItem", Content: []models.DocNode{
					{Type: "paragraph", Content: []models.DocNode{{Type: "text", Text: "two"}}},
				}},
			}},
		},
	}
	assert.Equal(t, "- one\n- two\n", NormalizeDocument(doc))
}

func TestNormalizeDocumentHardBreak(t *testing.T) {
	doc := &models.DocNode{
		Type: "doc",
		Content: []models.DocNode{
			{Type: "paragraph", Content: []models.DocNode{
				{Type: "text", Text: "line one"},
				{Type: "hardBreak"},
				{Type: "text", Text: "line two"},
			}},
		},
	}
	assert.Equal(t, "line one\nline two\n", NormalizeDocument(doc))
}

func TestNormalizeDocumentUnknownNodes(t *testing.T) {
	doc := &models.DocNode{
		Type: "doc",
		Content: []models.DocNode{
			// Unknown branch nodes are recursed into.
			{Type: "panel", Content: []models.DocNode{
				{Type: "paragraph", Content: []models.DocNode{{Type: "text", Text: "inside"}}},
			}},
			// Unknown leaf nodes emit nothing.
			{Type: "mediaSingle"},
		},
	}
	assert.Equal(t, "inside\n", NormalizeDocument(doc))
}
