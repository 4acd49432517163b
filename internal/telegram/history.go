package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"
)

// Album sibling lookup window: a fixed slice of history around the anchor
// message, wide enough to cover the 10-item album maximum in both directions.
const (
	groupWindowBack = 10
	groupWindowSize = 20
)

// History fetches the most recent messages of the channel, newest first.
func (a *Account) History(ctx context.Context, ch *Channel, limit int) ([]*tg.Message, error) {
	if limit > 100 {
		limit = 100 // telegram api limit
	}
	return a.history(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  inputPeer(ch),
		Limit: limit,
	})
}

// GroupWindow fetches the neighborhood of the anchor message, used to
// collect all siblings of a grouped album.
func (a *Account) GroupWindow(ctx context.Context, ch *Channel, anchorID int) ([]*tg.Message, error) {
	return a.history(ctx, &tg.MessagesGetHistoryRequest{
		Peer:      inputPeer(ch),
		OffsetID:  anchorID,
		AddOffset: -groupWindowBack,
		Limit:     groupWindowSize,
	})
}

func (a *Account) history(ctx context.Context, req *tg.MessagesGetHistoryRequest) ([]*tg.Message, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	res, err := a.api().MessagesGetHistory(ctx, req)
	if err != nil {
		a.noteFloodWait(err)
		return nil, fmt.Errorf("get history: %w", err)
	}

	return extractMessages(res), nil
}

// extractMessages keeps plain messages in the order the API returned them.
func extractMessages(res tg.MessagesMessagesClass) []*tg.Message {
	var raw []tg.MessageClass
	switch h := res.(type) {
	case *tg.MessagesChannelMessages:
		raw = h.Messages
	case *tg.MessagesMessages:
		raw = h.Messages
	case *tg.MessagesMessagesSlice:
		raw = h.Messages
	}

	var out []*tg.Message
	for _, m := range raw {
		if msg, ok := m.(*tg.Message); ok {
			out = append(out, msg)
		}
	}
	return out
}

func inputPeer(ch *Channel) tg.InputPeerClass {
	return &tg.InputPeerChannel{
		ChannelID:  ch.ID,
		AccessHash: ch.AccessHash,
	}
}
