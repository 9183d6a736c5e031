// Package github is an HTTP client for the GitHub pull-request review
// comments API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mdekker/sonarlens/internal/adapter/httpclient"
)

const (
	serviceName    = "github"
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second
)

// Client is an HTTP client for the GitHub API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  httpclient.RetryConfig
	logger     httpclient.Logger
}

// NewClient creates a new GitHub API client with the given token.
// The token should be a personal access token or GITHUB_TOKEN from Actions.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf:  httpclient.DefaultRetryConfig(),
		logger:     httpclient.NopLogger{},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetRetryConfig overrides the retry policy.
func (c *Client) SetRetryConfig(conf httpclient.RetryConfig) {
	c.retryConf = conf
}

// SetLogger wires structured call logging.
func (c *Client) SetLogger(logger httpclient.Logger) {
	c.logger = logger
}

// CreateCommentInput contains all data needed to post one inline comment.
type CreateCommentInput struct {
	Owner      string
	Repo       string
	PullNumber int
	CommitSHA  string
	Path       string
	Line       int
	Body       string
}

// CreateReviewComment posts an inline review comment on a pull request.
// Transient failures are retried; a terminal failure is returned to the
// caller, which decides whether it aborts anything (the publisher does not).
func (c *Client) CreateReviewComment(ctx context.Context, input CreateCommentInput) (*CreateCommentResponse, error) {
	reqBody := CreateCommentRequest{
		Body:     input.Body,
		CommitID: input.CommitSHA,
		Path:     input.Path,
		Line:     input.Line,
		Side:     "RIGHT",
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/comments",
		c.baseURL, input.Owner, input.Repo, input.PullNumber)

	var commentResp CreateCommentResponse
	err = httpclient.RetryWithBackoff(ctx, func(ctx context.Context) error {
		start := time.Now()

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return &httpclient.Error{
				Kind:    httpclient.KindUnknown,
				Message: reqErr.Error(),
				Service: serviceName,
			}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			transportErr := httpclient.NewTimeoutError(serviceName, httpclient.SanitizeMessage(callErr.Error(), c.token))
			c.logErr(ctx, start, transportErr)
			return transportErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("read response: %w", readErr)
		}

		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			apiErr := httpclient.MapStatus(serviceName, resp.StatusCode, errorMessage(resp.StatusCode, body))
			c.logErr(ctx, start, apiErr)
			return apiErr
		}

		if err := json.Unmarshal(body, &commentResp); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}

		c.logger.LogCall(ctx, httpclient.CallLog{
			Service:    serviceName,
			Operation:  "create review comment",
			Timestamp:  start,
			Duration:   time.Since(start),
			StatusCode: resp.StatusCode,
		})
		return nil
	}, c.retryConf)
	if err != nil {
		return nil, err
	}

	return &commentResp, nil
}

func (c *Client) logErr(ctx context.Context, start time.Time, apiErr *httpclient.Error) {
	c.logger.LogError(ctx, httpclient.ErrorLog{
		Service:    serviceName,
		Operation:  "create review comment",
		Timestamp:  start,
		Duration:   time.Since(start),
		Err:        apiErr,
		StatusCode: apiErr.StatusCode,
		Retryable:  apiErr.Retryable,
	})
}

func errorMessage(statusCode int, body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		msg := errResp.Message
		for _, detail := range errResp.Errors {
			msg += fmt.Sprintf("; %s.%s: %s", detail.Resource, detail.Field, detail.Code)
		}
		return msg
	}
	if len(body) > 0 && len(body) < 200 {
		return string(body)
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}
