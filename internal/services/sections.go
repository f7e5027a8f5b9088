package services

import (
	"regexp"
	"strings"

	"cycle-planner/internal/models"
)

// minTechnicalLength is the shortest text the keyword heuristic will accept.
const minTechnicalLength = 50

// Explicit engineering-discovery markers, in priority order: heading forms
// first, then the bold form, then bare labels, then the loose inline form.
// The first pattern that matches wins. Boundaries include end-of-string, so
// a section at the end of a description needs no terminator.
var edPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)## ED\s*\n(.*?)(\n##|\n---|$)`),
	regexp.MustCompile(`(?is)## Engineering Discovery\s*\n(.*?)(\n##|\n---|$)`),
	regexp.MustCompile(`(?is)\*\*ED\*\*\s*\n(.*?)(\n\*\*|\n---|$)`),
	regexp.MustCompile(`(?is)Engineering Discovery:?\s*\n(.*?)(\n##|\n\*\*|\n---|$)`),
	regexp.MustCompile(`(?is)ED Section:?\s*\n(.*?)(\n##|\n\*\*|\n---|$)`),
	regexp.MustCompile(`(?is)\bED\b.*?:(.*?)(\n\n|$)`),
}

var dependencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(?:Dependencies|Dependency|Depends on|Blocked by|Blockers):?\s*\n(.*?)(\n(?:Technical|Implementation|Test|BE:|FE:)|\n\n|$)`),
	regexp.MustCompile(`(?i)blockers?:?\s*([^\n]+)`),
}

var technicalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(?:BE|Backend):?\s*(?:\(rough estimate[^)]*\):?)?\s*\n(.*?)(\n(?:FE|Frontend|Dependencies|Test)|$)`),
	regexp.MustCompile(`(?is)(?:FE|Frontend):?\s*(?:\(rough estimate[^)]*\):?)?\s*\n(.*?)(\n(?:BE|Backend|Dependencies|Test)|$)`),
	regexp.MustCompile(`(?is)(?:Technical|Implementation|Architecture):?\s*\n(.*?)(\n(?:Dependencies|Test)|$)`),
}

var technicalKeywords = []string{
	"tbd", "todo", "rough estimate", "sp:", "story points",
	"be:", "fe:", "backend", "frontend", "api", "endpoint",
	"database", "mongodb", "redis", "postgresql", "mysql",
	"service", "microservice", "implementation", "architecture",
	"schema", "validation", "query", "index",
	"test", "unit test", "e2e test", "integration test",
	"dependency", "dependencies", "blocker", "blocked by",
	"technical", "performance", "scalability", "security",
	"migration", "refactor", "optimization",
}

// IsTechnicalContent reports whether the text reads like engineering
// content, by case-insensitive keyword containment.
func IsTechnicalContent(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, keyword := range technicalKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// ExtractSections mines engineering-discovery content from plain text. It
// prefers explicit section markers; without one it falls back to keyword
// classification of the whole text. Returns nil when nothing was found.
func ExtractSections(text string) *models.ExtractedSection {
	if text == "" {
		return nil
	}

	section := &models.ExtractedSection{}

	for _, pattern := range edPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			section.RawContent = strings.TrimSpace(match[1])
			section.HasExplicitMarker = true
			break
		}
	}

	if section.RawContent == "" && IsTechnicalContent(text) {
		// Skip very short descriptions; they carry no usable detail.
		if len(text) > minTechnicalLength {
			section.RawContent = text
			section.HasExplicitMarker = false
		}
	}

	if section.RawContent == "" {
		return nil
	}

	for _, pattern := range dependencyPatterns {
		for _, match := range pattern.FindAllStringSubmatch(section.RawContent, -1) {
			if body := strings.TrimSpace(match[1]); body != "" {
				if section.Dependencies != "" {
					section.Dependencies += "\n"
				}
				section.Dependencies += body
			}
		}
	}

	for _, pattern := range technicalPatterns {
		if match := pattern.FindStringSubmatch(section.RawContent); match != nil {
			if body := strings.TrimSpace(match[1]); body != "" {
				if section.TechnicalComplexity != "" {
					section.TechnicalComplexity += "\n\n"
				}
				section.TechnicalComplexity += body
			}
		}
	}

	// No labeled sub-sections: the whole raw content is the complexity text.
	if section.TechnicalComplexity == "" && section.Dependencies == "" {
		section.TechnicalComplexity = section.RawContent
	}

	return section
}
