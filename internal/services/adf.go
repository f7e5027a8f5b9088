package services

import (
	"strings"

	"cycle-planner/internal/models"
)

// NormalizeBody flattens a rich-text body to plain text. Plain-string bodies
// pass through unchanged; document bodies are walked node by node. A nil or
// empty body yields an empty string.
func NormalizeBody(body *models.Body) string {
	if body == nil {
		return ""
	}
	if body.Text != "" {
		return body.Text
	}
	if body.Doc != nil {
		return NormalizeDocument(body.Doc)
	}
	return ""
}

// NormalizeDocument converts an Atlassian Document Format tree to plain
// text, keeping block boundaries as newlines and list items as bulleted
// lines. Unknown leaf nodes emit nothing; unknown branch nodes are recursed
// into. It never fails.
func NormalizeDocument(doc *models.DocNode) string {
	if doc == nil || len(doc.Content) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, node := range doc.Content {
		sb.WriteString(renderNode(node))
	}
	return sb.String()
}

func renderNode(node models.DocNode) string {
	switch node.Type {
	case "text":
		return node.Text

	case "paragraph":
		return renderChildren(node) + "\n"

	case "heading":
		level := 1
		if node.Attrs != nil && node.Attrs.Level >= 1 && node.Attrs.Level <= 6 {
			level = node.Attrs.Level
		}
		return strings.Repeat("#", level) + " " + renderChildren(node) + "\n"

	case "bulletList", "orderedList":
		return renderChildren(node)

	case "listItem":
		return "- " + renderChildren(node)

	case "hardBreak":
		return "\n"

	default:
		if len(node.Content) > 0 {
			return renderChildren(node)
		}
		return ""
	}
}

func renderChildren(node models.DocNode) string {
	var sb strings.Builder
	for _, child := range node.Content {
		sb.WriteString(renderNode(child))
	}
	return sb.String()
}
