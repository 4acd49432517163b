package telegram

import (
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMessages(t *testing.T) {
	res := &tg.MessagesChannelMessages{
		Messages: []tg.MessageClass{
			&tg.Message{ID: 3, Message: "newest"},
			&tg.MessageService{ID: 2},
			&tg.Message{ID: 1, Message: "oldest"},
			&tg.MessageEmpty{ID: 0},
		},
	}

	msgs := extractMessages(res)
	require.Len(t, msgs, 2)
	assert.Equal(t, 3, msgs[0].ID)
	assert.Equal(t, 1, msgs[1].ID)
}

func TestExtractMessages_SliceVariant(t *testing.T) {
	res := &tg.MessagesMessagesSlice{
		Messages: []tg.MessageClass{&tg.Message{ID: 5}},
	}
	assert.Len(t, extractMessages(res), 1)
}

func TestExtractMessages_NotModified(t *testing.T) {
	assert.Empty(t, extractMessages(&tg.MessagesMessagesNotModified{}))
}

func TestInputPeer(t *testing.T) {
	peer := inputPeer(&Channel{ID: 10, AccessHash: 20})
	ch, ok := peer.(*tg.InputPeerChannel)
	require.True(t, ok)
	assert.Equal(t, int64(10), ch.ChannelID)
	assert.Equal(t, int64(20), ch.AccessHash)
}
