// Package sonarqube queries a SonarQube-compatible server for unresolved
// issues.
package sonarqube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mdekker/sonarlens/internal/adapter/httpclient"
	"github.com/mdekker/sonarlens/internal/domain"
)

const (
	serviceName    = "sonarqube"
	defaultTimeout = 60 * time.Second

	// maxPageSize is the server-side ceiling for the ps parameter. One run
	// processes at most one page; there is no pagination loop.
	maxPageSize = 500
)

// Client is an HTTP client for the SonarQube issue-search API.
type Client struct {
	baseURL    string
	projectKey string
	token      string
	httpClient *http.Client
	retryConf  httpclient.RetryConfig
	logger     httpclient.Logger
}

// NewClient creates a client for one project on one server. The token is
// sent as the Basic auth username with an empty password.
func NewClient(baseURL, projectKey, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		projectKey: projectKey,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf:  httpclient.DefaultRetryConfig(),
		logger:     httpclient.NopLogger{},
	}
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

// FetchFindings returns the project's unresolved issues in server order.
// Transient failures are retried; a terminal failure is fatal to the run
// since there is nothing to process without findings.
func (c *Client) FetchFindings(ctx context.Context) ([]domain.Finding, error) {
	query := url.Values{}
	query.Set("componentKeys", c.projectKey)
	query.Set("resolved", "false")
	query.Set("ps", fmt.Sprintf("%d", maxPageSize))
	searchURL := fmt.Sprintf("%s/api/issues/search?%s", c.baseURL, query.Encode())

	var parsed searchResponse
	err := httpclient.RetryWithBackoff(ctx, func(ctx context.Context) error {
		start := time.Now()

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if reqErr != nil {
			return &httpclient.Error{
				Kind:    httpclient.KindUnknown,
				Message: reqErr.Error(),
				Service: serviceName,
			}
		}
		req.SetBasicAuth(c.token, "")

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			// Connection refused, DNS failure, or timeout
			transportErr := httpclient.NewTimeoutError(serviceName, httpclient.SanitizeMessage(callErr.Error(), c.token))
			c.logErr(ctx, start, transportErr)
			return transportErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("read response: %w", readErr)
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := httpclient.MapStatus(serviceName, resp.StatusCode, errorMessage(resp.StatusCode, body))
			c.logErr(ctx, start, apiErr)
			return apiErr
		}

		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("parse issue search response: %w", err)
		}

		c.logger.LogCall(ctx, httpclient.CallLog{
			Service:    serviceName,
			Operation:  "issue search",
			Timestamp:  start,
			Duration:   time.Since(start),
			StatusCode: resp.StatusCode,
		})
		return nil
	}, c.retryConf)
	if err != nil {
		return nil, fmt.Errorf("fetch findings for %s: %w", c.projectKey, err)
	}

	findings := make([]domain.Finding, 0, len(parsed.Issues))
	for _, iss := range parsed.Issues {
		findings = append(findings, iss.toDomain())
	}
	return findings, nil
}

func (c *Client) logErr(ctx context.Context, start time.Time, apiErr *httpclient.Error) {
	c.logger.LogError(ctx, httpclient.ErrorLog{
		Service:    serviceName,
		Operation:  "issue search",
		Timestamp:  start,
		Duration:   time.Since(start),
		Err:        apiErr,
		StatusCode: apiErr.StatusCode,
		Retryable:  apiErr.Retryable,
	})
}

func errorMessage(statusCode int, body []byte) string {
	// SonarQube error payloads carry an errors array of {msg}
	var errResp struct {
		Errors []struct {
			Msg string `json:"msg"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Errors) > 0 && errResp.Errors[0].Msg != "" {
		return errResp.Errors[0].Msg
	}
	if len(body) > 0 && len(body) < 200 {
		return string(body)
	}
	return http.StatusText(statusCode)
}
