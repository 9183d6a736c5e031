package sonarqube_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdekker/sonarlens/internal/adapter/httpclient"
	"github.com/mdekker/sonarlens/internal/adapter/sonarqube"
	"github.com/mdekker/sonarlens/internal/domain"
)

func fastRetry() httpclient.RetryConfig {
	return httpclient.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestFetchFindings_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/issues/search", r.URL.Path)
		assert.Equal(t, "myproj", r.URL.Query().Get("componentKeys"))
		assert.Equal(t, "false", r.URL.Query().Get("resolved"))
		assert.Equal(t, "500", r.URL.Query().Get("ps"))

		// Token as Basic auth username, empty password
		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("sq-token:"))
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total": 2,
			"issues": [
				{"key": "AX1", "rule": "go:S1005", "severity": "MAJOR", "component": "myproj:src/a/b.go", "line": 42, "message": "Fix this."},
				{"key": "AX2", "rule": "go:S2093", "severity": "MINOR", "component": "myproj", "message": "Project-level issue."}
			]
		}`))
	}))
	defer server.Close()

	client := sonarqube.NewClient(server.URL, "myproj", "sq-token")

	findings, err := client.FetchFindings(context.Background())

	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, domain.Finding{
		Rule:      "go:S1005",
		Severity:  domain.SeverityMajor,
		Component: "myproj:src/a/b.go",
		Line:      42,
		Message:   "Fix this.",
	}, findings[0])
	assert.False(t, findings[1].HasLine())
}

func TestFetchFindings_MissingIssuesArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total": 0}`))
	}))
	defer server.Close()

	client := sonarqube.NewClient(server.URL, "myproj", "sq-token")

	findings, err := client.FetchFindings(context.Background())

	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestFetchFindings_PreservesServerOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"issues": [
			{"rule": "r3", "severity": "INFO", "component": "p:c.go", "message": "third rule first"},
			{"rule": "r1", "severity": "BLOCKER", "component": "p:a.go", "message": "first rule second"}
		]}`))
	}))
	defer server.Close()

	client := sonarqube.NewClient(server.URL, "p", "tok")

	findings, err := client.FetchFindings(context.Background())

	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, "r3", findings[0].Rule)
	assert.Equal(t, "r1", findings[1].Rule)
}

func TestFetchFindings_AuthFailureNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors": [{"msg": "Invalid token"}]}`))
	}))
	defer server.Close()

	client := sonarqube.NewClient(server.URL, "myproj", "bad-token")
	client.SetRetryConfig(fastRetry())

	_, err := client.FetchFindings(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, calls, "auth failures must not be retried")

	var apiErr *httpclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, httpclient.KindAuthentication, apiErr.Kind)
	assert.Contains(t, apiErr.Message, "Invalid token")
}

func TestFetchFindings_TransientFailureRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"issues": []}`))
	}))
	defer server.Close()

	client := sonarqube.NewClient(server.URL, "myproj", "sq-token")
	client.SetRetryConfig(fastRetry())

	findings, err := client.FetchFindings(context.Background())

	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Equal(t, 3, calls)
}

func TestFetchFindings_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := sonarqube.NewClient(server.URL, "myproj", "sq-token")
	client.SetRetryConfig(httpclient.RetryConfig{
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	})

	_, err := client.FetchFindings(context.Background())

	require.Error(t, err)
	var apiErr *httpclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, httpclient.KindTimeout, apiErr.Kind)
}
