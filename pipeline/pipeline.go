package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/scipunch/issuesync/config"
	"github.com/scipunch/issuesync/fetcher/types"
	"github.com/scipunch/issuesync/filter"
	"github.com/scipunch/issuesync/format"
)

// ErrMissingCredential is returned before any network call when the GitHub
// token is absent.
var ErrMissingCredential = errors.New("GitHub personal access token is not set")

// ChatPublisher posts a single issue to the chat
type ChatPublisher interface {
	Publish(ctx context.Context, issue types.Issue) bool
}

// DocumentPublisher overwrites one gist, returning nil on failure
type DocumentPublisher interface {
	Publish(ctx context.Context, documentID, content, title string) *types.Document
}

// Report summarizes one run
type Report struct {
	Fetched          int
	ChatAttempted    bool
	ChatSent         bool
	NoDocumentIDs    bool     // the profile publishes gists but none are configured
	DocumentsUpdated []string // gist IDs, in publish order
	DocumentsFailed  []string
}

// Failed reports whether any attempted publish did not go through
func (r Report) Failed() bool {
	return (r.ChatAttempted && !r.ChatSent) || r.NoDocumentIDs || len(r.DocumentsFailed) > 0
}

type Pipeline struct {
	settings  config.Settings
	fetcher   types.IssueFetcher
	chat      ChatPublisher
	documents DocumentPublisher
	formatter format.Formatter
}

// New wires a pipeline. fetcher and documents are not used when the GitHub
// token is missing, and documents is not used unless the profile publishes
// gists, so both may be nil in those cases.
func New(settings config.Settings, fetcher types.IssueFetcher, chat ChatPublisher, documents DocumentPublisher, formatter format.Formatter) *Pipeline {
	return &Pipeline{
		settings:  settings,
		fetcher:   fetcher,
		chat:      chat,
		documents: documents,
		formatter: formatter,
	}
}

// Run performs one fetch and publish pass. Publish failures are logged and
// recorded in the report; only a missing token or a failed fetch is
// returned as an error.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	var report Report
	s := p.settings

	if !s.Credentials.GitHub.IsValid() {
		slog.Error("GitHub token is not set", "env", config.EnvGitHubToken)
		return report, ErrMissingCredential
	}

	issues, err := p.fetcher.FetchLatestIssues(ctx, s.Owner, s.Repo, s.Count)
	if err != nil {
		return report, fmt.Errorf("failed to fetch issues with %w", err)
	}
	report.Fetched = len(issues)
	if len(issues) == 0 {
		slog.Error("no issues found, exiting")
		return report, nil
	}

	report.ChatAttempted = s.Credentials.Telegram.BotToken != ""

	var (
		chatSent bool
		gists    gistResult
	)
	publishChat := func(ctx context.Context) {
		chatSent = p.chat.Publish(ctx, issues[0])
	}
	publishGists := func(ctx context.Context) {
		if s.PublishGists {
			gists = p.publishGists(ctx, issues)
		}
	}

	if s.ParallelPublish {
		var g errgroup.Group
		g.Go(func() error { publishChat(ctx); return nil })
		g.Go(func() error { publishGists(ctx); return nil })
		_ = g.Wait()
	} else {
		publishChat(ctx)
		publishGists(ctx)
	}

	report.ChatSent = chatSent
	report.NoDocumentIDs = gists.noIDs
	report.DocumentsUpdated = gists.updated
	report.DocumentsFailed = gists.failed

	slog.Info("run finished",
		"fetched", report.Fetched,
		"chat_sent", report.ChatSent,
		"gists_updated", len(report.DocumentsUpdated),
		"gists_failed", len(report.DocumentsFailed))
	return report, nil
}

type gistResult struct {
	noIDs   bool
	updated []string
	failed  []string
}

// publishGists writes issues[i] into gist i for as many pairs as exist
func (p *Pipeline) publishGists(ctx context.Context, issues []types.Issue) gistResult {
	var res gistResult

	ids := filter.ActiveDocumentIDs(p.settings.Credentials.GitHub.GistIDs)
	if len(ids) == 0 {
		slog.Error("no valid gist IDs provided, skipping gist update", "env", config.EnvGistIDs)
		res.noIDs = true
		return res
	}

	n := min(len(issues), len(ids))
	slog.Info("updating gists with issue content", "count", n)

	for i := 0; i < n; i++ {
		issue, id := issues[i], ids[i]
		doc := p.documents.Publish(ctx, id, p.formatter.Content(issue), p.formatter.Title(issue))
		if doc == nil {
			res.failed = append(res.failed, id)
			continue
		}
		res.updated = append(res.updated, id)
	}

	return res
}
