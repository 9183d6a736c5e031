package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "SONARLENS"

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "sonarlens"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = envPrefix
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)
	bindKeys(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Expand environment variables in config values
	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// DefaultConfigPaths returns the search path for the config file.
func DefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "sonarlens"))
	}
	return paths
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("publisher", PublisherConsole)
	v.SetDefault("review.minSeverity", "INFO")

	// HTTP defaults
	v.SetDefault("http.timeout", "60s")
	v.SetDefault("http.maxRetries", 2)
	v.SetDefault("http.initialBackoff", "500ms")
	v.SetDefault("http.maxBackoff", "8s")
	v.SetDefault("http.backoffMultiplier", 2.0)

	// LLM defaults
	v.SetDefault("llm.maxTokens", 200)

	// Logging defaults
	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "human")
}

// bindKeys registers every config key with viper so AutomaticEnv can see
// values that appear only in the environment, not in a config file.
func bindKeys(v *viper.Viper) {
	keys := []string{
		"sonar.url", "sonar.projectKey", "sonar.token",
		"llm.endpoint", "llm.apiKey", "llm.model", "llm.deployment", "llm.apiVersion", "llm.maxTokens",
		"github.token", "github.repository", "github.pullNumber", "github.commitSHA",
		"publisher",
	}
	for _, key := range keys {
		// BindEnv only errors on an empty key
		_ = v.BindEnv(key)
	}
}

func locateConfigFile(name string, paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{"yaml", "yml", "json", "toml"} {
			candidate := filepath.Join(dir, name+"."+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.Sonar.URL = expandEnvString(cfg.Sonar.URL)
	cfg.Sonar.ProjectKey = expandEnvString(cfg.Sonar.ProjectKey)
	cfg.Sonar.Token = expandEnvString(cfg.Sonar.Token)

	cfg.LLM.Endpoint = expandEnvString(cfg.LLM.Endpoint)
	cfg.LLM.APIKey = expandEnvString(cfg.LLM.APIKey)
	cfg.LLM.Model = expandEnvString(cfg.LLM.Model)
	cfg.LLM.Deployment = expandEnvString(cfg.LLM.Deployment)
	cfg.LLM.APIVersion = expandEnvString(cfg.LLM.APIVersion)

	cfg.GitHub.Token = expandEnvString(cfg.GitHub.Token)
	cfg.GitHub.Repository = expandEnvString(cfg.GitHub.Repository)
	cfg.GitHub.CommitSHA = expandEnvString(cfg.GitHub.CommitSHA)

	cfg.HTTP.Timeout = expandEnvString(cfg.HTTP.Timeout)
	cfg.HTTP.InitialBackoff = expandEnvString(cfg.HTTP.InitialBackoff)
	cfg.HTTP.MaxBackoff = expandEnvString(cfg.HTTP.MaxBackoff)

	cfg.Review.MinSeverity = expandEnvString(cfg.Review.MinSeverity)

	return cfg
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvString replaces ${VAR} and $VAR references with their environment
// values; unset variables expand to the empty string.
func expandEnvString(value string) string {
	if value == "" || !strings.Contains(value, "$") {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		name = strings.TrimPrefix(name, "{")
		name = strings.TrimSuffix(name, "}")
		return os.Getenv(name)
	})
}
