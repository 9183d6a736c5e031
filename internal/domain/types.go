package domain

import "strings"

// Severity is a SonarQube issue severity, ordered from least to most severe.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityMinor    Severity = "MINOR"
	SeverityMajor    Severity = "MAJOR"
	SeverityCritical Severity = "CRITICAL"
	SeverityBlocker  Severity = "BLOCKER"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityMinor:    1,
	SeverityMajor:    2,
	SeverityCritical: 3,
	SeverityBlocker:  4,
}

// AtLeast reports whether s is at or above min in severity order.
// Unknown severities are treated as meeting any threshold so that
// server-defined levels are never silently dropped.
func (s Severity) AtLeast(min Severity) bool {
	rank, ok := severityRank[s]
	if !ok {
		return true
	}
	minRank, ok := severityRank[min]
	if !ok {
		return true
	}
	return rank >= minRank
}

// Finding represents a single unresolved issue reported by the quality server.
// Immutable once fetched; processed in isolation, never persisted.
type Finding struct {
	Rule      string
	Severity  Severity
	Component string
	Line      int
	Message   string
}

// HasLine reports whether the finding carries a line-level location.
func (f Finding) HasLine() bool {
	return f.Line > 0
}

// FilePath extracts the file path from the component key.
// Component keys have the form "<projectKey>:<filePath>"; when no colon is
// present the whole component is returned.
func (f Finding) FilePath() string {
	if idx := strings.Index(f.Component, ":"); idx >= 0 {
		return f.Component[idx+1:]
	}
	return f.Component
}

// CommentLine returns the line to attach a review comment to, defaulting to
// line 1 for findings without a line-level location.
func (f Finding) CommentLine() int {
	if f.HasLine() {
		return f.Line
	}
	return 1
}

// EnrichedComment is the text derived from a Finding: either the model's
// trimmed output or, when enrichment fell back, the original message verbatim.
type EnrichedComment struct {
	Body     string
	Fallback bool
}
