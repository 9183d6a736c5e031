package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdekker/sonarlens/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Sonar: config.SonarConfig{
			URL:        "https://sonar.example.com",
			ProjectKey: "myproj",
			Token:      "sq-token",
		},
		LLM: config.LLMConfig{
			Endpoint: "https://api.openai.com",
			APIKey:   "sk-test",
			Model:    "gpt-4o-mini",
		},
		Publisher: config.PublisherConsole,
	}
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_ReportsAllMissingKeys(t *testing.T) {
	cfg := config.Config{}

	err := cfg.Validate()

	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "missing required configuration")
	assert.Contains(t, msg, "sonar.url (SONARLENS_SONAR_URL)")
	assert.Contains(t, msg, "sonar.projectKey (SONARLENS_SONAR_PROJECTKEY)")
	assert.Contains(t, msg, "sonar.token (SONARLENS_SONAR_TOKEN)")
	assert.Contains(t, msg, "llm.endpoint (SONARLENS_LLM_ENDPOINT)")
	assert.Contains(t, msg, "llm.apiKey (SONARLENS_LLM_APIKEY)")
	assert.Contains(t, msg, "llm.model (SONARLENS_LLM_MODEL)")
}

func TestValidate_ModelOrDeployment(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Model = ""
	cfg.LLM.Deployment = "gpt-4o-mini"
	cfg.LLM.APIVersion = "2024-06-01"

	assert.NoError(t, cfg.Validate())

	cfg.LLM.APIVersion = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.apiVersion")
}

func TestValidate_GitHubPublisherRequirements(t *testing.T) {
	cfg := validConfig()
	cfg.Publisher = config.PublisherGitHub

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "github.token")
	assert.Contains(t, err.Error(), "github.pullNumber")
	assert.Contains(t, err.Error(), "github.repository")
	assert.Contains(t, err.Error(), "github.commitSHA")

	cfg.GitHub = config.GitHubConfig{
		Token:      "gh-token",
		PullNumber: 12,
	}
	err = cfg.Validate()
	require.Error(t, err, "repository and commit must be resolved before a review run")
	assert.Contains(t, err.Error(), "github.repository (SONARLENS_GITHUB_REPOSITORY)")
	assert.Contains(t, err.Error(), "github.commitSHA (SONARLENS_GITHUB_COMMITSHA)")

	cfg.GitHub = config.GitHubConfig{
		Token:      "gh-token",
		Repository: "octocat/hello",
		PullNumber: 12,
		CommitSHA:  "abc123",
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_InvalidRepositorySlug(t *testing.T) {
	cfg := validConfig()
	cfg.Publisher = config.PublisherGitHub
	cfg.GitHub = config.GitHubConfig{
		Token:      "gh-token",
		Repository: "not-a-slug",
		PullNumber: 12,
	}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid github.repository")
}

func TestValidate_InvalidPublisher(t *testing.T) {
	cfg := validConfig()
	cfg.Publisher = "carrier-pigeon"

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid publisher")
}

func TestSplitRepository(t *testing.T) {
	g := config.GitHubConfig{Repository: "octocat/hello-world"}
	owner, repo := g.SplitRepository()
	assert.Equal(t, "octocat", owner)
	assert.Equal(t, "hello-world", repo)

	g = config.GitHubConfig{Repository: "incomplete"}
	owner, repo = g.SplitRepository()
	assert.Empty(t, owner)
	assert.Empty(t, repo)
}

func TestHTTPConfigRetryConfig(t *testing.T) {
	h := config.HTTPConfig{
		MaxRetries:        4,
		InitialBackoff:    "1s",
		MaxBackoff:        "16s",
		BackoffMultiplier: 3.0,
	}

	conf := h.RetryConfig()

	assert.Equal(t, 4, conf.MaxRetries)
	assert.Equal(t, time.Second, conf.InitialBackoff)
	assert.Equal(t, 16*time.Second, conf.MaxBackoff)
	assert.Equal(t, 3.0, conf.Multiplier)
}

func TestHTTPConfigDefaults(t *testing.T) {
	h := config.HTTPConfig{InitialBackoff: "not-a-duration"}

	conf := h.RetryConfig()

	assert.Equal(t, 2, conf.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, conf.InitialBackoff)
	assert.Equal(t, 60*time.Second, h.ClientTimeout())
}
