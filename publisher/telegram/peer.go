package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/tg"
)

// Bot API chat IDs of channels and supergroups are -(1e12 + id).
const channelIDOffset int64 = 1_000_000_000_000

type peerKind int

const (
	peerUser peerKind = iota
	peerChat
	peerChannel
)

var errZeroChatID = errors.New("telegram: chat id is zero")

// decodeChatID splits a Bot API style chat ID into its peer kind and MTProto ID
func decodeChatID(chatID int64) (peerKind, int64, error) {
	switch {
	case chatID == 0:
		return 0, 0, errZeroChatID
	case chatID <= -channelIDOffset:
		return peerChannel, -chatID - channelIDOffset, nil
	case chatID < 0:
		return peerChat, -chatID, nil
	default:
		return peerUser, chatID, nil
	}
}

// resolvePeer turns a chat ID into an input peer. Channels are looked up to
// obtain their access hash.
func resolvePeer(ctx context.Context, api *tg.Client, chatID int64) (tg.InputPeerClass, error) {
	kind, id, err := decodeChatID(chatID)
	if err != nil {
		return nil, err
	}

	switch kind {
	case peerChat:
		return &tg.InputPeerChat{ChatID: id}, nil
	case peerUser:
		return &tg.InputPeerUser{UserID: id}, nil
	}

	chats, err := api.ChannelsGetChannels(ctx, []tg.InputChannelClass{
		&tg.InputChannel{ChannelID: id},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel %d: %w", id, err)
	}
	for _, chat := range chats.GetChats() {
		if ch, ok := chat.(*tg.Channel); ok && ch.ID == id {
			return ch.AsInputPeer(), nil
		}
	}
	return nil, fmt.Errorf("channel %d not found in resolved chats", id)
}
