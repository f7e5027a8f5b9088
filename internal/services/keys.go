package services

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	issueKeyPattern = regexp.MustCompile(`[A-Z][A-Z0-9]+-\d+`)
	issueNumPattern = regexp.MustCompile(`^\d+$`)
	cycleKeyShort   = regexp.MustCompile(`^q([1-4])(\d{2})c(\d+)$`)
)

// ExtractIssueKey resolves a user-supplied issue reference to a key. Accepted
// forms are a browse or board URL containing the key, a bare key, or a bare
// issue number scoped to defaultProject.
func ExtractIssueKey(input, defaultProject string) (string, error) {
	trimmed := strings.TrimSpace(input)

	if key := issueKeyPattern.FindString(strings.ToUpper(trimmed)); key != "" {
		return key, nil
	}

	if issueNumPattern.MatchString(trimmed) {
		if defaultProject == "" {
			return "", fmt.Errorf("bare issue number %q needs a project prefix", trimmed)
		}
		return strings.ToUpper(defaultProject) + "-" + trimmed, nil
	}

	return "", fmt.Errorf("could not extract an issue key from %q", input)
}

// FormatCycleLabel expands the short cycle form (q126c1) to the label the
// tracker stores (26'Q1.C1). Labels already in the long form pass through
// unchanged.
func FormatCycleLabel(input string) string {
	trimmed := strings.TrimSpace(input)
	m := cycleKeyShort.FindStringSubmatch(strings.ToLower(trimmed))
	if m == nil {
		return trimmed
	}
	return fmt.Sprintf("%s'Q%s.C%s", m[2], m[1], m[3])
}
