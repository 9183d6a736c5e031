// Package run orchestrates the fetch, enrich, publish pipeline.
package run

import (
	"context"
	"fmt"
	"io"

	"github.com/mdekker/sonarlens/internal/adapter/httpclient"
	"github.com/mdekker/sonarlens/internal/domain"
	"github.com/mdekker/sonarlens/internal/usecase/publish"
)

// FindingSource defines the dependency on the quality server.
type FindingSource interface {
	FetchFindings(ctx context.Context) ([]domain.Finding, error)
}

// Enricher defines the dependency on the enrichment service. It is total:
// failures degrade to the original message inside the implementation.
type Enricher interface {
	Enrich(ctx context.Context, finding domain.Finding) domain.EnrichedComment
}

// Deps captures the collaborators for the pipeline.
type Deps struct {
	Source    FindingSource
	Enricher  Enricher
	Publisher publish.Publisher
	Logger    httpclient.Logger

	// MinSeverity drops findings below this level before enrichment.
	// Empty means no filtering.
	MinSeverity domain.Severity

	// Out receives the final summary line.
	Out io.Writer
}

// Summary reports what one run did.
type Summary struct {
	Processed       int
	Fallbacks       int
	PublishFailures int
	Skipped         int
}

// Runner executes the pipeline strictly sequentially: findings are processed
// one at a time in server order, and enrichment always completes before
// publishing for the same finding.
type Runner struct {
	deps Deps
}

// NewRunner creates a pipeline runner.
func NewRunner(deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = httpclient.NopLogger{}
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	return &Runner{deps: deps}
}

// Run fetches all findings once and processes each in turn. A fetch failure
// is fatal; per-finding enrichment and publish failures are contained and
// reflected in the summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	findings, err := r.deps.Source.FetchFindings(ctx)
	if err != nil {
		return Summary{}, err
	}

	if len(findings) == 0 {
		r.deps.Logger.LogInfo(ctx, "no unresolved findings, nothing to do")
		_, _ = fmt.Fprintln(r.deps.Out, "Processed 0 findings.")
		return Summary{}, nil
	}

	r.deps.Logger.LogInfo(ctx, fmt.Sprintf("processing %d findings via %s", len(findings), r.deps.Publisher.Name()))

	var summary Summary
	for i, finding := range findings {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if r.deps.MinSeverity != "" && !finding.Severity.AtLeast(r.deps.MinSeverity) {
			summary.Skipped++
			continue
		}

		r.deps.Logger.LogInfo(ctx, fmt.Sprintf("[%d/%d] %s %s", i+1, len(findings), finding.Rule, finding.FilePath()))

		comment := r.deps.Enricher.Enrich(ctx, finding)
		if comment.Fallback {
			summary.Fallbacks++
		}

		if err := r.deps.Publisher.Publish(ctx, comment, finding); err != nil {
			r.deps.Logger.LogWarning(ctx, fmt.Sprintf("publish failed for %s, continuing: %v", finding.FilePath(), err))
			summary.PublishFailures++
		}

		summary.Processed++
	}

	_, _ = fmt.Fprintln(r.deps.Out, summaryLine(summary))
	return summary, nil
}

func summaryLine(s Summary) string {
	line := fmt.Sprintf("Processed %d findings.", s.Processed)
	if s.Fallbacks > 0 {
		line += fmt.Sprintf(" %d used the original message.", s.Fallbacks)
	}
	if s.PublishFailures > 0 {
		line += fmt.Sprintf(" %d failed to publish.", s.PublishFailures)
	}
	if s.Skipped > 0 {
		line += fmt.Sprintf(" %d below severity threshold.", s.Skipped)
	}
	return line
}
