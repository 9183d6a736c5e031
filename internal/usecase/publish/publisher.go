// Package publish delivers enriched comments to their sink: standard output
// or inline pull-request review comments.
package publish

import (
	"context"

	"github.com/mdekker/sonarlens/internal/domain"
)

// Publisher is the common seam for the two delivery strategies. A returned
// error covers one finding only; callers log it and move on, a failed
// comment never aborts the remaining findings.
type Publisher interface {
	Publish(ctx context.Context, comment domain.EnrichedComment, finding domain.Finding) error

	// Name identifies the strategy in progress output.
	Name() string
}
