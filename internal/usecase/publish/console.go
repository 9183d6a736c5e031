package publish

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mdekker/sonarlens/internal/domain"
)

const blockDelimiter = "--------------------------------------------------------------------------------"

// ConsolePublisher writes a human-readable block per finding. It never fails.
type ConsolePublisher struct {
	out io.Writer
}

// NewConsolePublisher creates a console publisher writing to out.
func NewConsolePublisher(out io.Writer) *ConsolePublisher {
	return &ConsolePublisher{out: out}
}

// Name identifies the strategy.
func (p *ConsolePublisher) Name() string {
	return "console"
}

// Publish writes one delimited block for the finding.
func (p *ConsolePublisher) Publish(ctx context.Context, comment domain.EnrichedComment, finding domain.Finding) error {
	location := finding.FilePath()
	if finding.HasLine() {
		location = fmt.Sprintf("%s:%d", location, finding.Line)
	}

	var sb strings.Builder
	sb.WriteString(blockDelimiter + "\n")
	sb.WriteString(fmt.Sprintf("File:     %s\n", location))
	sb.WriteString(fmt.Sprintf("Severity: %s\n", finding.Severity))
	sb.WriteString(fmt.Sprintf("Rule:     %s\n", finding.Rule))
	sb.WriteString(fmt.Sprintf("Message:  %s\n", finding.Message))
	sb.WriteString("\n")
	sb.WriteString(comment.Body + "\n")
	sb.WriteString(blockDelimiter + "\n")

	// Best effort only; stdout write failures are not actionable here
	_, _ = fmt.Fprint(p.out, sb.String())
	return nil
}
