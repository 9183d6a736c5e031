package publish

import (
	"context"
	"fmt"

	"github.com/mdekker/sonarlens/internal/adapter/github"
	"github.com/mdekker/sonarlens/internal/domain"
)

// CommentClient defines the dependency on the GitHub API client.
type CommentClient interface {
	CreateReviewComment(ctx context.Context, input github.CreateCommentInput) (*github.CreateCommentResponse, error)
}

// Target locates the pull request receiving the comments.
type Target struct {
	Owner      string
	Repo       string
	PullNumber int
	CommitSHA  string
}

// GitHubPublisher posts each enriched comment as an inline review comment.
type GitHubPublisher struct {
	client CommentClient
	target Target
}

// NewGitHubPublisher creates a review-comment publisher for one pull request.
func NewGitHubPublisher(client CommentClient, target Target) *GitHubPublisher {
	return &GitHubPublisher{client: client, target: target}
}

// Name identifies the strategy.
func (p *GitHubPublisher) Name() string {
	return fmt.Sprintf("github (%s/%s#%d)", p.target.Owner, p.target.Repo, p.target.PullNumber)
}

// Publish posts one inline comment at the finding's file and line, line 1
// when the finding has no line-level location.
func (p *GitHubPublisher) Publish(ctx context.Context, comment domain.EnrichedComment, finding domain.Finding) error {
	_, err := p.client.CreateReviewComment(ctx, github.CreateCommentInput{
		Owner:      p.target.Owner,
		Repo:       p.target.Repo,
		PullNumber: p.target.PullNumber,
		CommitSHA:  p.target.CommitSHA,
		Path:       finding.FilePath(),
		Line:       finding.CommentLine(),
		Body:       comment.Body,
	})
	if err != nil {
		return fmt.Errorf("post comment for %s: %w", finding.FilePath(), err)
	}
	return nil
}
