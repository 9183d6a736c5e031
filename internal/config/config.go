package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mdekker/sonarlens/internal/adapter/httpclient"
)

// Publisher strategy names.
const (
	PublisherConsole = "console"
	PublisherGitHub  = "github"
)

// Config represents the full application configuration. It is constructed
// once at process entry and passed by parameter; no component reads the
// process environment directly.
type Config struct {
	Sonar     SonarConfig   `mapstructure:"sonar"`
	LLM       LLMConfig     `mapstructure:"llm"`
	GitHub    GitHubConfig  `mapstructure:"github"`
	Publisher string        `mapstructure:"publisher"`
	Review    ReviewConfig  `mapstructure:"review"`
	HTTP      HTTPConfig    `mapstructure:"http"`
	Logging   LoggingConfig `mapstructure:"logging"`
}

// SonarConfig locates the quality server and the project to query.
type SonarConfig struct {
	URL        string `mapstructure:"url" validate:"required"`
	ProjectKey string `mapstructure:"projectKey" validate:"required"`
	Token      string `mapstructure:"token" validate:"required"`
}

// LLMConfig configures the chat-completion endpoint. When Deployment is set
// the client uses Azure-style addressing (deployment path + api-version query
// + api-key header); otherwise it uses OpenAI-style addressing with Model.
type LLMConfig struct {
	Endpoint   string `mapstructure:"endpoint" validate:"required"`
	APIKey     string `mapstructure:"apiKey" validate:"required"`
	Model      string `mapstructure:"model"`
	Deployment string `mapstructure:"deployment"`
	APIVersion string `mapstructure:"apiVersion"`
	MaxTokens  int    `mapstructure:"maxTokens"`
}

// GitHubConfig configures the review-comment publisher. Repository and
// CommitSHA may be left empty to be auto-detected from the local checkout.
type GitHubConfig struct {
	Token      string `mapstructure:"token"`
	Repository string `mapstructure:"repository"` // owner/repo
	PullNumber int    `mapstructure:"pullNumber"`
	CommitSHA  string `mapstructure:"commitSHA"`
}

// ReviewConfig configures finding selection.
type ReviewConfig struct {
	// MinSeverity drops findings below this severity before enrichment.
	MinSeverity string `mapstructure:"minSeverity"`
}

// HTTPConfig holds shared HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `mapstructure:"timeout"`
	MaxRetries        int     `mapstructure:"maxRetries"`
	InitialBackoff    string  `mapstructure:"initialBackoff"`
	MaxBackoff        string  `mapstructure:"maxBackoff"`
	BackoffMultiplier float64 `mapstructure:"backoffMultiplier"`
}

// LoggingConfig configures structured call logging.
type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`  // debug, info, error
	Format  string `mapstructure:"format"` // json, human
}

// SplitRepository splits the owner/repo slug. Empty strings when unset or
// malformed; Validate catches the malformed case for the github publisher.
func (g GitHubConfig) SplitRepository() (owner, repo string) {
	parts := strings.SplitN(g.Repository, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ""
	}
	return parts[0], parts[1]
}

// RetryConfig converts the HTTP settings into a retry policy, falling back to
// defaults for unset or unparseable values.
func (h HTTPConfig) RetryConfig() httpclient.RetryConfig {
	conf := httpclient.DefaultRetryConfig()
	if h.MaxRetries > 0 {
		conf.MaxRetries = h.MaxRetries
	}
	if d, err := time.ParseDuration(h.InitialBackoff); err == nil && d > 0 {
		conf.InitialBackoff = d
	}
	if d, err := time.ParseDuration(h.MaxBackoff); err == nil && d > 0 {
		conf.MaxBackoff = d
	}
	if h.BackoffMultiplier > 1 {
		conf.Multiplier = h.BackoffMultiplier
	}
	return conf
}

// ClientTimeout returns the per-request HTTP timeout.
func (h HTTPConfig) ClientTimeout() time.Duration {
	if d, err := time.ParseDuration(h.Timeout); err == nil && d > 0 {
		return d
	}
	return 60 * time.Second
}

// Validate checks the configuration before any network call is made.
// Every missing key is reported at once, with its environment variable name,
// so a misconfigured run fails fast with a complete picture.
func (cfg Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		tag := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return field.Name
		}
		return tag
	})

	var missing []string

	if err := v.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			// Namespace is like "Config.sonar.url"; drop the root.
			key := fe.Namespace()
			if idx := strings.Index(key, "."); idx >= 0 {
				key = key[idx+1:]
			}
			missing = append(missing, key)
		}
	}

	if cfg.LLM.Model == "" && cfg.LLM.Deployment == "" {
		missing = append(missing, "llm.model")
	}
	if cfg.LLM.Deployment != "" && cfg.LLM.APIVersion == "" {
		missing = append(missing, "llm.apiVersion")
	}

	if cfg.Publisher != "" && cfg.Publisher != PublisherConsole && cfg.Publisher != PublisherGitHub {
		return fmt.Errorf("invalid publisher %q (expected %q or %q)", cfg.Publisher, PublisherConsole, PublisherGitHub)
	}

	if cfg.Publisher == PublisherGitHub {
		if cfg.GitHub.Token == "" {
			missing = append(missing, "github.token")
		}
		if cfg.GitHub.PullNumber <= 0 {
			missing = append(missing, "github.pullNumber")
		}
		if cfg.GitHub.Repository == "" {
			missing = append(missing, "github.repository")
		} else if owner, repo := cfg.GitHub.SplitRepository(); owner == "" || repo == "" {
			return fmt.Errorf("invalid github.repository %q (expected owner/repo)", cfg.GitHub.Repository)
		}
		if cfg.GitHub.CommitSHA == "" {
			missing = append(missing, "github.commitSHA")
		}
	}

	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)
	withEnv := make([]string, 0, len(missing))
	for _, key := range missing {
		withEnv = append(withEnv, fmt.Sprintf("%s (%s)", key, EnvVarName(key)))
	}
	return fmt.Errorf("missing required configuration: %s", strings.Join(withEnv, ", "))
}

// EnvVarName maps a dotted config key to its environment variable.
func EnvVarName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
