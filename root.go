package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/scipunch/issuesync/config"
	"github.com/scipunch/issuesync/fetcher"
	"github.com/scipunch/issuesync/fetcher/types"
	"github.com/scipunch/issuesync/filter"
	"github.com/scipunch/issuesync/format"
	"github.com/scipunch/issuesync/ghclient"
	"github.com/scipunch/issuesync/pipeline"
	"github.com/scipunch/issuesync/publisher/gist"
	"github.com/scipunch/issuesync/publisher/telegram"
)

var (
	version = "dev"
	commit  = "none"
)

// errRunFailed makes the process exit 1 without printing anything more;
// the pipeline has already logged the details.
var errRunFailed = errors.New("run failed")

var rootCmd = &cobra.Command{
	Use:     "issuesync",
	Short:   "Mirror the latest GitHub issues to Telegram and gists",
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	Args:    cobra.NoArgs,
	RunE:    run,
}

func init() {
	rootCmd.Flags().String("config", "", "path to a TOML config (default $XDG_CONFIG_HOME/issuesync/config.toml)")
	rootCmd.Flags().String("profile", "", "publishing profile, overrides the config")
	rootCmd.Flags().Bool("debug", false, "enable debug logging")
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func run(cmd *cobra.Command, _ []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	debug = debug || os.Getenv("DEBUG") != ""
	if debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfgFlag, _ := cmd.Flags().GetString("config")
	profile, _ := cmd.Flags().GetString("profile")

	cfgPath, isDefault, err := configPath(cfgFlag)
	if err != nil {
		return err
	}

	settings, err := loadSettings(cfgPath, isDefault, profile)
	if err != nil {
		return err
	}
	slog.Debug("settings resolved",
		"profile", settings.Profile,
		"owner", settings.Owner,
		"repo", settings.Repo,
		"count", settings.Count)

	p, err := buildPipeline(cmd.Context(), settings, debug)
	if err != nil {
		return err
	}

	report, err := p.Run(cmd.Context())
	if err != nil {
		slog.Error("run aborted", "error", err)
	}
	if (err != nil || report.Failed()) && settings.ExitOnFailure {
		return errRunFailed
	}
	return nil
}

// configPath returns the --config value, or the default location when the
// flag is empty. isDefault reports the latter.
func configPath(flag string) (path string, isDefault bool, err error) {
	if flag != "" {
		return flag, false, nil
	}
	path, err = config.DefaultPath()
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

// loadSettings reads the config, writing the defaults out when the default
// config is missing, and binds it to the credentials.
func loadSettings(cfgPath string, isDefault bool, profile string) (config.Settings, error) {
	conf, err := config.Read(cfgPath)
	if errors.Is(err, os.ErrNotExist) && isDefault {
		if err := config.Write(cfgPath, conf); err != nil {
			slog.Warn("failed to write default config", "error", err)
		}
	} else if err != nil {
		return config.Settings{}, fmt.Errorf("failed to read config with %w", err)
	}

	creds, err := config.LoadCredentials(config.CredentialsPath(cfgPath), os.Getenv)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load credentials with %w", err)
	}

	settings, err := conf.Resolve(profile, creds)
	if err != nil {
		return config.Settings{}, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return settings, nil
}

func buildPipeline(ctx context.Context, s config.Settings, debug bool) (*pipeline.Pipeline, error) {
	formatter, err := format.New(s.FooterURL, s.Locale, s.Location)
	if err != nil {
		return nil, err
	}

	var (
		issues    types.IssueFetcher
		documents pipeline.DocumentPublisher
	)
	if s.Credentials.GitHub.IsValid() {
		client, err := ghclient.New(ctx, s.Credentials.GitHub.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub client with %w", err)
		}
		issues = fetcher.NewGitHubFetcher(client)
		if s.PublishGists {
			documents = gist.New(client)
		}
	}

	var transport telegram.Transport
	if s.Credentials.Telegram.IsValid() {
		transport = telegram.NewBotTransport(s.Credentials.Telegram, telegram.ClientOptions{
			SessionPath: s.SessionPath,
			Logger:      telegram.NewLogger(debug),
		})
	}

	var checker filter.ImageChecker
	if s.CheckImageType {
		checker = filter.HeadChecker{Client: &http.Client{Timeout: ghclient.DefaultTimeout}}
	}

	chat := telegram.New(transport, s.ChatID, formatter, checker)

	return pipeline.New(s, issues, chat, documents, formatter), nil
}
