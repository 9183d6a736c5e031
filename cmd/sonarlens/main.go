package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdekker/sonarlens/internal/adapter/cli"
	gitinfo "github.com/mdekker/sonarlens/internal/adapter/git"
	githubadapter "github.com/mdekker/sonarlens/internal/adapter/github"
	"github.com/mdekker/sonarlens/internal/adapter/httpclient"
	"github.com/mdekker/sonarlens/internal/adapter/llm/openai"
	"github.com/mdekker/sonarlens/internal/adapter/sonarqube"
	"github.com/mdekker/sonarlens/internal/config"
	"github.com/mdekker/sonarlens/internal/domain"
	"github.com/mdekker/sonarlens/internal/usecase/enrich"
	"github.com/mdekker/sonarlens/internal/usecase/publish"
	"github.com/mdekker/sonarlens/internal/usecase/run"
	"github.com/mdekker/sonarlens/internal/version"
)

func main() {
	if err := runMain(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func runMain() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: config.DefaultConfigPaths(),
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:  pipelineRunner(cfg),
		Version: version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// pipelineRunner builds the pipeline for one invocation. Construction is
// deferred until the run command executes so flag overrides participate in
// validation and wiring.
func pipelineRunner(base config.Config) cli.PipelineRunner {
	return func(ctx context.Context, opts cli.RunOptions) (run.Summary, error) {
		cfg := applyOverrides(base, opts)

		if cfg.Publisher == config.PublisherGitHub {
			fillFromLocalCheckout(&cfg)
		}

		if err := cfg.Validate(); err != nil {
			return run.Summary{}, err
		}

		logger := buildLogger(cfg.Logging)
		retryConf := cfg.HTTP.RetryConfig()
		timeout := cfg.HTTP.ClientTimeout()

		source := sonarqube.NewClient(cfg.Sonar.URL, cfg.Sonar.ProjectKey, cfg.Sonar.Token)
		source.SetTimeout(timeout)
		source.SetRetryConfig(retryConf)
		source.SetLogger(logger)

		llmClient := openai.NewClient(openai.Settings{
			Endpoint:   cfg.LLM.Endpoint,
			APIKey:     cfg.LLM.APIKey,
			Model:      cfg.LLM.Model,
			Deployment: cfg.LLM.Deployment,
			APIVersion: cfg.LLM.APIVersion,
			MaxTokens:  cfg.LLM.MaxTokens,
		})
		llmClient.SetTimeout(timeout)
		llmClient.SetRetryConfig(retryConf)
		llmClient.SetLogger(logger)

		publisher := buildPublisher(cfg, timeout, retryConf, logger)

		runner := run.NewRunner(run.Deps{
			Source:      source,
			Enricher:    enrich.NewService(llmClient, logger),
			Publisher:   publisher,
			Logger:      logger,
			MinSeverity: domain.Severity(cfg.Review.MinSeverity),
			Out:         os.Stdout,
		})

		return runner.Run(ctx)
	}
}

// applyOverrides folds flag values into the loaded configuration. Flags win;
// dry-run forces the console strategy regardless of other settings.
func applyOverrides(cfg config.Config, opts cli.RunOptions) config.Config {
	if opts.Publisher != "" {
		cfg.Publisher = opts.Publisher
	}
	if opts.Repository != "" {
		cfg.GitHub.Repository = opts.Repository
	}
	if opts.PullNumber > 0 {
		cfg.GitHub.PullNumber = opts.PullNumber
	}
	if opts.CommitSHA != "" {
		cfg.GitHub.CommitSHA = opts.CommitSHA
	}
	if opts.MinSeverity != "" {
		cfg.Review.MinSeverity = opts.MinSeverity
	}
	if opts.DryRun {
		cfg.Publisher = config.PublisherConsole
	}
	if cfg.Publisher == "" {
		cfg.Publisher = config.PublisherConsole
	}
	return cfg
}

// fillFromLocalCheckout resolves the repository slug and head commit from the
// working directory when configuration leaves them empty. Failures are left
// for Validate to report as missing keys.
func fillFromLocalCheckout(cfg *config.Config) {
	if cfg.GitHub.Repository != "" && cfg.GitHub.CommitSHA != "" {
		return
	}

	info := gitinfo.NewInfo(".")
	if cfg.GitHub.Repository == "" {
		if slug, err := info.OriginSlug(); err == nil {
			cfg.GitHub.Repository = slug
		}
	}
	if cfg.GitHub.CommitSHA == "" {
		if sha, err := info.HeadSHA(); err == nil {
			cfg.GitHub.CommitSHA = sha
		}
	}
}

func buildPublisher(cfg config.Config, timeout time.Duration, retryConf httpclient.RetryConfig, logger httpclient.Logger) publish.Publisher {
	if cfg.Publisher != config.PublisherGitHub {
		return publish.NewConsolePublisher(os.Stdout)
	}

	client := githubadapter.NewClient(cfg.GitHub.Token)
	client.SetTimeout(timeout)
	client.SetRetryConfig(retryConf)
	client.SetLogger(logger)

	owner, repo := cfg.GitHub.SplitRepository()
	return publish.NewGitHubPublisher(client, publish.Target{
		Owner:      owner,
		Repo:       repo,
		PullNumber: cfg.GitHub.PullNumber,
		CommitSHA:  cfg.GitHub.CommitSHA,
	})
}

func buildLogger(cfg config.LoggingConfig) httpclient.Logger {
	if !cfg.Enabled {
		return httpclient.NopLogger{}
	}

	level := httpclient.LogLevelInfo
	switch cfg.Level {
	case "debug":
		level = httpclient.LogLevelDebug
	case "error":
		level = httpclient.LogLevelError
	}

	format := httpclient.LogFormatHuman
	if cfg.Format == "json" {
		format = httpclient.LogFormatJSON
	}

	return httpclient.NewDefaultLogger(level, format)
}

// Compile-time interface compliance checks
var _ run.FindingSource = (*sonarqube.Client)(nil)
var _ enrich.CompletionClient = (*openai.Client)(nil)
var _ publish.CommentClient = (*githubadapter.Client)(nil)
var _ publish.Publisher = (*publish.ConsolePublisher)(nil)
var _ publish.Publisher = (*publish.GitHubPublisher)(nil)
