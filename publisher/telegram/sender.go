package telegram

import (
	"context"
	"log/slog"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/scipunch/issuesync/config"
)

// Sender delivers messages to a single chat
type Sender interface {
	// SendText sends the title in bold, a blank line and the body rendered
	// from Markdown
	SendText(ctx context.Context, title, body string) error
	// SendPhoto sends a photo that Telegram downloads from url
	SendPhoto(ctx context.Context, url string) error
}

// Transport opens a session bound to chatID and hands fn a Sender for it
type Transport interface {
	WithChat(ctx context.Context, chatID int64, fn func(ctx context.Context, s Sender) error) error
}

// BotTransport sends through an MTProto client logged in as a bot
type BotTransport struct {
	creds config.TelegramCredentials
	opts  ClientOptions
}

func NewBotTransport(creds config.TelegramCredentials, opts ClientOptions) *BotTransport {
	return &BotTransport{creds: creds, opts: opts}
}

func (t *BotTransport) WithChat(ctx context.Context, chatID int64, fn func(ctx context.Context, s Sender) error) error {
	return RunAsBot(ctx, t.creds, t.opts, func(ctx context.Context, client *telegram.Client) error {
		api := client.API()

		peer, err := resolvePeer(ctx, api, chatID)
		if err != nil {
			return err
		}
		slog.Debug("telegram peer resolved", "chat_id", chatID)

		return fn(ctx, &peerSender{sender: message.NewSender(api), peer: peer})
	})
}

type peerSender struct {
	sender *message.Sender
	peer   tg.InputPeerClass
}

func (s *peerSender) SendText(ctx context.Context, title, body string) error {
	_, err := s.sender.To(s.peer).StyledText(ctx, messageText(title, body)...)
	if isEntityError(err) {
		slog.Warn("telegram rejected message formatting, resending as plain text", "error", err)
		_, err = s.sender.To(s.peer).StyledText(ctx, plainText(title, body)...)
	}
	return err
}

// isEntityError reports whether Telegram refused the message because of its
// formatting entities.
func isEntityError(err error) bool {
	return tgerr.Is(err,
		"ENTITY_BOUNDS_INVALID",
		"ENTITY_TEXTURL_INVALID",
		"ENTITIES_TOO_LONG",
		"ENTITY_MENTION_USER_INVALID",
	)
}

func (s *peerSender) SendPhoto(ctx context.Context, url string) error {
	_, err := s.sender.To(s.peer).PhotoExternal(ctx, url)
	return err
}
