package harvest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maneralab/parsbot/internal/config"
	"github.com/maneralab/parsbot/internal/telegram"
)

type fakeFetcher struct {
	history   []*tg.Message
	windows   map[int][]*tg.Message
	downloads int
}

func (f *fakeFetcher) History(_ context.Context, _ *telegram.Channel, _ int) ([]*tg.Message, error) {
	return f.history, nil
}

func (f *fakeFetcher) GroupWindow(_ context.Context, _ *telegram.Channel, anchorID int) ([]*tg.Message, error) {
	return f.windows[anchorID], nil
}

func (f *fakeFetcher) DownloadMedia(_ context.Context, m *tg.Message) ([]byte, string, error) {
	f.downloads++
	if telegram.HasVideo(m) {
		return []byte("video"), "mp4", nil
	}
	return []byte("photo"), "jpg", nil
}

type fakeStore struct {
	uploads []string
}

func (s *fakeStore) Upload(_ context.Context, name string, _ []byte) (string, error) {
	s.uploads = append(s.uploads, name)
	return "obj://test/" + name, nil
}

func (s *fakeStore) Download(_ context.Context, _ string) ([]byte, error) {
	return nil, errors.New("not found")
}

func textMsg(id int, text string) *tg.Message {
	return &tg.Message{ID: id, Message: text}
}

func photoMsg(id int, text string) *tg.Message {
	m := textMsg(id, text)
	m.SetMedia(&tg.MessageMediaPhoto{})
	return m
}

func videoMsg(id int, text string) *tg.Message {
	m := textMsg(id, text)
	media := &tg.MessageMediaDocument{}
	media.SetDocument(&tg.Document{
		Attributes: []tg.DocumentAttributeClass{&tg.DocumentAttributeVideo{}},
	})
	m.SetMedia(media)
	return m
}

func docMsg(id int, text string) *tg.Message {
	m := textMsg(id, text)
	media := &tg.MessageMediaDocument{}
	media.SetDocument(&tg.Document{
		Attributes: []tg.DocumentAttributeClass{&tg.DocumentAttributeFilename{FileName: "report.pdf"}},
	})
	m.SetMedia(media)
	return m
}

func grouped(m *tg.Message, groupID int64) *tg.Message {
	m.SetGroupedID(groupID)
	return m
}

func testHarvester(t *testing.T, f *fakeFetcher) (*Harvester, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	h := New(f, store, config.DefaultHarvest())
	h.SetPacer(func(context.Context) error { return nil })
	h.SetMediaNamer(func(index int, ext string) string {
		return fmt.Sprintf("media/m_%d.%s", index, ext)
	})
	return h, store
}

func pubChannel() *telegram.Channel {
	return &telegram.Channel{ID: 100, AccessHash: 7, Username: "somechan"}
}

func TestHarvest_CapsAcceptedPostsOldestFirst(t *testing.T) {
	f := &fakeFetcher{}
	// newest first, like wire order
	for id := 10; id >= 1; id-- {
		f.history = append(f.history, textMsg(id, fmt.Sprintf("post %d", id)))
	}
	h, _ := testHarvester(t, f)

	posts, err := h.Harvest(context.Background(), pubChannel(), "https://t.me/somechan")
	require.NoError(t, err)
	require.Len(t, posts, 5)

	assert.Equal(t, "post 1", posts[0].OriginalText)
	assert.Equal(t, "https://t.me/somechan/1", posts[0].PostLink)
	assert.Equal(t, "post 5", posts[4].OriginalText)
}

func TestHarvest_SkipsNonContent(t *testing.T) {
	withMarkup := textMsg(1, "buy now")
	withMarkup.SetReplyMarkup(&tg.ReplyInlineMarkup{})

	f := &fakeFetcher{history: []*tg.Message{
		withMarkup,
		textMsg(2, ""),          // service or empty
		docMsg(3, "see file"),   // document without video
		textMsg(4, "real post"),
	}}
	h, _ := testHarvester(t, f)

	posts, err := h.Harvest(context.Background(), pubChannel(), "https://t.me/somechan")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "real post", posts[0].OriginalText)
}

func TestHarvest_AlbumCollapsesIntoOnePost(t *testing.T) {
	first := grouped(photoMsg(4, "подпись @author"), 77)
	second := grouped(photoMsg(5, ""), 77)
	mention := &tg.MessageEntityMention{Offset: 8, Length: 7}
	first.SetEntities([]tg.MessageEntityClass{mention})

	f := &fakeFetcher{
		history: []*tg.Message{second, first},
		windows: map[int][]*tg.Message{4: {first, second}},
	}
	h, store := testHarvester(t, f)

	posts, err := h.Harvest(context.Background(), pubChannel(), "https://t.me/somechan")
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "подпись @author", posts[0].OriginalText)
	assert.Equal(t, "подпись", posts[0].CleanedText)
	assert.Len(t, posts[0].MediaRefs, 2)
	assert.Equal(t, []string{"media/m_1.jpg", "media/m_2.jpg"}, store.uploads)
}

func TestHarvest_AlbumEntityOffsetsShift(t *testing.T) {
	first := grouped(photoMsg(4, "intro"), 9)
	second := grouped(photoMsg(5, "see @chan"), 9)
	mention := &tg.MessageEntityMention{Offset: 4, Length: 5}
	second.SetEntities([]tg.MessageEntityClass{mention})

	f := &fakeFetcher{
		history: []*tg.Message{first},
		windows: map[int][]*tg.Message{4: {first, second}},
	}
	h, _ := testHarvester(t, f)

	posts, err := h.Harvest(context.Background(), pubChannel(), "https://t.me/somechan")
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "intro\nsee @chan", posts[0].OriginalText)
	assert.Equal(t, "intro\nsee", posts[0].CleanedText)
}

func TestHarvest_MediaCapPerPost(t *testing.T) {
	var window []*tg.Message
	anchor := grouped(photoMsg(1, "big album"), 3)
	window = append(window, anchor)
	for id := 2; id <= 12; id++ {
		window = append(window, grouped(photoMsg(id, ""), 3))
	}

	f := &fakeFetcher{
		history: []*tg.Message{anchor},
		windows: map[int][]*tg.Message{1: window},
	}
	h, _ := testHarvester(t, f)

	posts, err := h.Harvest(context.Background(), pubChannel(), "https://t.me/somechan")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Len(t, posts[0].MediaRefs, 10)
	assert.Equal(t, 10, f.downloads)
}

func TestHarvest_VideoExtension(t *testing.T) {
	f := &fakeFetcher{history: []*tg.Message{videoMsg(1, "clip")}}
	h, _ := testHarvester(t, f)

	posts, err := h.Harvest(context.Background(), pubChannel(), "https://t.me/somechan")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"obj://test/media/m_1.mp4"}, posts[0].MediaRefs)
}

func TestHarvest_PrivateChannelPostLink(t *testing.T) {
	f := &fakeFetcher{history: []*tg.Message{textMsg(8, "hidden")}}
	h, _ := testHarvester(t, f)

	ch := &telegram.Channel{ID: 200, AccessHash: 9}
	posts, err := h.Harvest(context.Background(), ch, "https://t.me/+abc")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "https://t.me/c/200/8", posts[0].PostLink)
}

func TestHarvest_SecondAlbumMemberSkipped(t *testing.T) {
	first := grouped(photoMsg(1, "album"), 5)
	second := grouped(photoMsg(2, ""), 5)
	after := textMsg(3, "next")

	f := &fakeFetcher{
		history: []*tg.Message{after, second, first},
		windows: map[int][]*tg.Message{1: {first, second}},
	}
	h, _ := testHarvester(t, f)

	posts, err := h.Harvest(context.Background(), pubChannel(), "https://t.me/somechan")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "album", posts[0].OriginalText)
	assert.Equal(t, "next", posts[1].OriginalText)
}
