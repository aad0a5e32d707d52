package gist

import (
	"context"
	"log/slog"

	gh "github.com/google/go-github/v80/github"

	"github.com/scipunch/issuesync/fetcher/types"
	"github.com/scipunch/issuesync/ghclient"
)

// FileName is the single file slot every gist carries
const FileName = "content.md"

// Publisher overwrites pre-created gists
type Publisher struct {
	client *gh.Client
}

func New(client *gh.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish sets the gist description to title and replaces content.md with
// content. It returns nil when the gist was not updated.
func (p *Publisher) Publish(ctx context.Context, documentID, content, title string) *types.Document {
	slog.Info("updating gist", "gist_id", documentID)

	updated, _, err := p.client.Gists.Edit(ctx, documentID, &gh.Gist{
		Description: gh.Ptr(title),
		Files: map[gh.GistFilename]gh.GistFile{
			FileName: {Content: gh.Ptr(content)},
		},
	})
	if err != nil {
		attrs := []any{"gist_id", documentID, "error", err}
		if status := ghclient.StatusCode(err); status != 0 {
			attrs = append(attrs, "status", status, "response", ghclient.ResponseMessage(err))
		}
		slog.Error("error updating gist", attrs...)
		return nil
	}

	slog.Info("gist updated", "gist_id", documentID)
	return &types.Document{
		ID:          updated.GetID(),
		URL:         updated.GetHTMLURL(),
		Description: updated.GetDescription(),
		UpdatedAt:   updated.GetUpdatedAt().Time,
	}
}
