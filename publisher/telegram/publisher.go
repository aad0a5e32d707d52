package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scipunch/issuesync/fetcher/types"
	"github.com/scipunch/issuesync/filter"
	"github.com/scipunch/issuesync/format"
)

// Publisher posts an issue to one chat: a text message, then one photo per
// image embedded in the issue body.
type Publisher struct {
	transport Transport
	chatID    int64
	formatter format.Formatter
	checker   filter.ImageChecker
}

// New creates a publisher. A nil transport means the bot credentials are
// missing and Publish does nothing. checker may be nil.
func New(transport Transport, chatID int64, formatter format.Formatter, checker filter.ImageChecker) *Publisher {
	return &Publisher{
		transport: transport,
		chatID:    chatID,
		formatter: formatter,
		checker:   checker,
	}
}

// Publish reports whether the text and every photo were sent. Errors are
// logged, never returned.
func (p *Publisher) Publish(ctx context.Context, issue types.Issue) bool {
	if p.transport == nil {
		slog.Info("telegram bot credentials not set, skipping Telegram notification")
		return false
	}

	slog.Info("sending issue to telegram", "chat_id", p.chatID, "title", issue.Title)

	content := p.formatter.Content(issue)
	err := p.transport.WithChat(ctx, p.chatID, func(ctx context.Context, s Sender) error {
		if err := s.SendText(ctx, issue.Title, content); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}

		images := filter.ImageURLs(ctx, issue.Body, p.checker)
		if len(images) > 0 {
			slog.Info("sending images to telegram", "count", len(images))
		}
		for _, url := range images {
			if err := s.SendPhoto(ctx, url); err != nil {
				return fmt.Errorf("failed to send photo %s: %w", url, err)
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("error sending to telegram", "error", err)
		return false
	}

	slog.Info("successfully sent issue to telegram")
	return true
}
