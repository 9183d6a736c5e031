// Package enrich turns raw findings into explanatory, fix-suggesting
// comments via a chat-completion model.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/mdekker/sonarlens/internal/adapter/httpclient"
	"github.com/mdekker/sonarlens/internal/domain"
)

// CompletionClient defines the dependency on the chat-completion API.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service enriches findings. Enrich is total: a completion failure is logged
// and degrades to the finding's original message, never an error. The
// fallback is visible in the returned EnrichedComment so callers and tests
// can tell the two outcomes apart.
type Service struct {
	client CompletionClient
	prompt *PromptBuilder
	logger httpclient.Logger
}

// NewService creates an enrichment service.
func NewService(client CompletionClient, logger httpclient.Logger) *Service {
	if logger == nil {
		logger = httpclient.NopLogger{}
	}
	return &Service{
		client: client,
		prompt: NewPromptBuilder(),
		logger: logger,
	}
}

// Enrich produces the comment text for one finding.
func (s *Service) Enrich(ctx context.Context, finding domain.Finding) domain.EnrichedComment {
	prompt := s.prompt.Build(finding)

	content, err := s.client.Complete(ctx, prompt)
	if err != nil {
		s.logger.LogWarning(ctx, fmt.Sprintf("enrichment failed for %s, falling back to original message: %v", finding.Rule, err))
		return domain.EnrichedComment{Body: finding.Message, Fallback: true}
	}

	return domain.EnrichedComment{Body: strings.TrimSpace(content)}
}
