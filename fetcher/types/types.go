package types

import (
	"context"
	"time"
)

// Issue is a single issue pulled from the source repository
type Issue struct {
	Title     string
	Body      string // Markdown, may embed ![alt](url) images
	CreatedAt time.Time
	URL       string
	Labels    []string // In the order returned by the API
}

// Document is the metadata of a gist after a successful update
type Document struct {
	ID          string
	URL         string
	Description string
	UpdatedAt   time.Time
}

// IssueFetcher is an interface for fetching the newest issues of a repository
type IssueFetcher interface {
	FetchLatestIssues(ctx context.Context, owner, repo string, count int) ([]Issue, error)
}
