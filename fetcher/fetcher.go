package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/scipunch/issuesync/fetcher/types"
	"github.com/scipunch/issuesync/ghclient"
)

// QueryError is returned when the GraphQL call fails or reports errors.
// It is never retried.
type QueryError struct {
	Messages []string // upstream error messages, in response order
	Err      error    // transport failure, if any
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GraphQL request failed: %s", e.Err)
	}
	return fmt.Sprintf("GraphQL request failed: %s", strings.Join(e.Messages, ", "))
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// GitHubFetcher fetches issues through the GitHub GraphQL API
type GitHubFetcher struct {
	client *gh.Client
}

// NewGitHubFetcher creates a new fetcher on top of an authenticated client
func NewGitHubFetcher(client *gh.Client) *GitHubFetcher {
	return &GitHubFetcher{client: client}
}

var _ types.IssueFetcher = (*GitHubFetcher)(nil)

// FetchLatestIssues returns up to count open issues created by owner in
// owner/repo, newest first.
func (f *GitHubFetcher) FetchLatestIssues(ctx context.Context, owner, repo string, count int) ([]types.Issue, error) {
	slog.Info("fetching latest issues", "owner", owner, "repo", repo, "count", count)

	var resp latestIssuesResponse
	err := f.query(ctx, latestIssuesQuery, map[string]any{
		"owner": owner,
		"repo":  repo,
		"count": count,
	}, &resp)
	if err != nil {
		return nil, err
	}

	nodes, ok := resp.Data.nodes()
	if !ok {
		slog.Error("failed to retrieve issues data", "owner", owner, "repo", repo)
		return []types.Issue{}, nil
	}

	issues := make([]types.Issue, 0, len(nodes))
	for _, node := range nodes {
		issues = append(issues, toIssue(node))
	}
	slog.Info("issues found", "count", len(issues))

	return issues, nil
}

func (f *GitHubFetcher) query(ctx context.Context, query string, variables map[string]any, out *latestIssuesResponse) error {
	req, err := f.client.NewRequest(http.MethodPost, "graphql", graphQLRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return &QueryError{Err: fmt.Errorf("failed to build request with %w", err)}
	}

	if _, err := f.client.Do(ctx, req, out); err != nil {
		slog.Error("graphql transport failed",
			"status", ghclient.StatusCode(err),
			"message", ghclient.ResponseMessage(err),
			"error", err)
		return &QueryError{Err: err}
	}

	if len(out.Errors) > 0 {
		messages := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			messages = append(messages, e.Message)
		}
		slog.Error("graphql errors", "errors", messages)
		return &QueryError{Messages: messages}
	}

	return nil
}

func toIssue(node issueNode) types.Issue {
	issue := types.Issue{
		Title:     node.Title,
		Body:      node.Body,
		CreatedAt: node.CreatedAt,
		URL:       node.URL,
		Labels:    []string{},
	}
	if node.Labels != nil {
		for _, label := range node.Labels.Nodes {
			issue.Labels = append(issue.Labels, label.Name)
		}
	}
	return issue
}
