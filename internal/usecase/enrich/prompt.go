package enrich

import (
	"fmt"
	"strings"

	"github.com/mdekker/sonarlens/internal/domain"
)

// noLineSentinel is rendered for findings without a line-level location.
const noLineSentinel = "N/A"

// PromptBuilder renders a finding into a chat prompt.
type PromptBuilder struct{}

// NewPromptBuilder creates a prompt builder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build produces the enrichment prompt for one finding. The structure is
// fixed: finding facts first, then the writing instructions.
func (b *PromptBuilder) Build(finding domain.Finding) string {
	line := noLineSentinel
	if finding.HasLine() {
		line = fmt.Sprintf("%d", finding.Line)
	}

	var sb strings.Builder
	sb.WriteString("You are reviewing a static-analysis finding from SonarQube.\n\n")
	sb.WriteString(fmt.Sprintf("Rule: %s\n", finding.Rule))
	sb.WriteString(fmt.Sprintf("Severity: %s\n", finding.Severity))
	sb.WriteString(fmt.Sprintf("Component: %s\n", finding.Component))
	sb.WriteString(fmt.Sprintf("Line: %s\n", line))
	sb.WriteString(fmt.Sprintf("Message: %s\n\n", finding.Message))
	sb.WriteString("Explain the issue in plain language, give the reasoning behind the rule, ")
	sb.WriteString("and suggest a concrete fix. Write it as prose ready to post as a ")
	sb.WriteString("pull request review comment. Be concise.")
	return sb.String()
}
