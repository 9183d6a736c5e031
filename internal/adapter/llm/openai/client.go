// Package openai is an HTTP client for OpenAI-compatible chat-completion
// APIs, including Azure OpenAI deployments.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mdekker/sonarlens/internal/adapter/httpclient"
)

const (
	serviceName    = "openai"
	defaultTimeout = 60 * time.Second
)

// Settings selects the endpoint and model. A non-empty Deployment switches
// the client to Azure-style addressing: the deployment path replaces the
// model field and the credential moves to the api-key header.
type Settings struct {
	Endpoint   string
	APIKey     string
	Model      string
	Deployment string
	APIVersion string
	MaxTokens  int
}

// Client is an HTTP client for a chat-completion API.
type Client struct {
	settings   Settings
	httpClient *http.Client
	retryConf  httpclient.RetryConfig
	logger     httpclient.Logger
}

// NewClient creates a chat-completion client.
func NewClient(settings Settings) *Client {
	return &Client{
		settings:   settings,
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

func (c *Client) isAzure() bool {
	return c.settings.Deployment != ""
}

func (c *Client) completionURL() string {
	base := strings.TrimSuffix(c.settings.Endpoint, "/")
	if c.isAzure() {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			base, c.settings.Deployment, c.settings.APIVersion)
	}
	return base + "/v1/chat/completions"
}

// Complete sends the prompt as a single user message and returns the first
// choice's message content. Transient failures are retried; auth, quota, and
// validation failures are returned on the first attempt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := ChatCompletionRequest{
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens: c.settings.MaxTokens,
	}
	if !c.isAzure() {
		reqBody.Model = c.settings.Model
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var content string
	err = httpclient.RetryWithBackoff(ctx, func(ctx context.Context) error {
		start := time.Now()

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.completionURL(), bytes.NewReader(jsonData))
		if reqErr != nil {
			return &httpclient.Error{
				Kind:    httpclient.KindUnknown,
				Message: reqErr.Error(),
				Service: serviceName,
			}
		}

		req.Header.Set("Content-Type", "application/json")
		if c.isAzure() {
			req.Header.Set("api-key", c.settings.APIKey)
		} else {
			req.Header.Set("Authorization", "Bearer "+c.settings.APIKey)
		}

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			transportErr := httpclient.NewTimeoutError(serviceName, httpclient.SanitizeMessage(callErr.Error(), c.settings.APIKey))
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

		var chatResp ChatCompletionResponse
		if err := json.Unmarshal(body, &chatResp); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
		if len(chatResp.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}

		content = chatResp.Choices[0].Message.Content

		c.logger.LogCall(ctx, httpclient.CallLog{
			Service:    serviceName,
			Operation:  "chat completion",
			Timestamp:  start,
			Duration:   time.Since(start),
			StatusCode: resp.StatusCode,
		})
		return nil
	}, c.retryConf)
	if err != nil {
		return "", err
	}

	return content, nil
}

func (c *Client) logErr(ctx context.Context, start time.Time, apiErr *httpclient.Error) {
	c.logger.LogError(ctx, httpclient.ErrorLog{
		Service:    serviceName,
		Operation:  "chat completion",
		Timestamp:  start,
		Duration:   time.Since(start),
		Err:        apiErr,
		StatusCode: apiErr.StatusCode,
		Retryable:  apiErr.Retryable,
	})
}

func errorMessage(statusCode int, body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	if len(body) > 0 && len(body) < 200 {
		return string(body)
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}
