package harvest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/maneralab/parsbot/internal/config"
	"github.com/maneralab/parsbot/internal/logger"
	"github.com/maneralab/parsbot/internal/objstore"
	"github.com/maneralab/parsbot/internal/telegram"
)

// Fetcher defines the protocol operations the harvester needs.
type Fetcher interface {
	History(ctx context.Context, ch *telegram.Channel, limit int) ([]*tg.Message, error)
	GroupWindow(ctx context.Context, ch *telegram.Channel, anchorID int) ([]*tg.Message, error)
	DownloadMedia(ctx context.Context, m *tg.Message) ([]byte, string, error)
}

// Post is one finalized unit of harvested content.
type Post struct {
	ChannelLink  string
	PostLink     string
	OriginalText string
	CleanedText  string
	MediaRefs    []string
}

// Harvester scans channel history and produces post records.
type Harvester struct {
	fetcher Fetcher
	store   objstore.Store
	cfg     config.Harvest
	log     *logger.Logger

	pace      func(ctx context.Context) error
	mediaName func(index int, ext string) string
}

// New creates a harvester with production pacing and naming.
func New(fetcher Fetcher, store objstore.Store, cfg config.Harvest) *Harvester {
	h := &Harvester{
		fetcher:   fetcher,
		store:     store,
		cfg:       cfg,
		log:       logger.Get(),
		mediaName: objstore.MediaName,
	}
	h.pace = h.randomPace
	return h
}

// SetPacer overrides the inter-item delay (e.g. for testing).
func (h *Harvester) SetPacer(pace func(ctx context.Context) error) {
	h.pace = pace
}

// SetMediaNamer overrides media object naming (e.g. for testing).
func (h *Harvester) SetMediaNamer(name func(index int, ext string) string) {
	h.mediaName = name
}

// Harvest scans up to the configured number of raw messages, oldest first,
// and returns at most the configured number of accepted posts. Albums
// sharing a group identifier collapse into a single post. The mandatory
// randomized delay between accepted posts and between media items throttles
// request rate and is never parallelized.
func (h *Harvester) Harvest(ctx context.Context, ch *telegram.Channel, channelLink string) ([]Post, error) {
	msgs, err := h.fetcher.History(ctx, ch, h.cfg.ScanLimit)
	if err != nil {
		return nil, err
	}

	ordered := make([]*tg.Message, len(msgs))
	copy(ordered, msgs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var posts []Post
	seenGroups := make(map[int64]bool)

	for _, m := range ordered {
		if len(posts) >= h.cfg.PostCap {
			break
		}
		if _, hasMarkup := m.GetReplyMarkup(); hasMarkup {
			continue // interactive controls mean ads or menus, not content
		}

		displayable := telegram.HasPhoto(m) || telegram.HasVideo(m)
		if m.Message == "" && !displayable {
			continue
		}

		var (
			text      string
			entities  []Entity
			mediaMsgs []*tg.Message
		)

		if groupID, grouped := m.GetGroupedID(); grouped {
			if seenGroups[groupID] {
				continue
			}
			seenGroups[groupID] = true

			window, err := h.fetcher.GroupWindow(ctx, ch, m.ID)
			if err != nil {
				return nil, fmt.Errorf("group window of message %d: %w", m.ID, err)
			}
			text, entities, mediaMsgs = combineGroup(window, groupID)
			if text == "" {
				continue
			}
		} else {
			if m.Message == "" {
				continue
			}
			if telegram.HasDocument(m) && !telegram.HasVideo(m) {
				continue // documents-only posts are dropped
			}
			text = m.Message
			entities = entitiesOf(m)
			if displayable {
				mediaMsgs = []*tg.Message{m}
			}
		}

		post := Post{
			ChannelLink:  channelLink,
			PostLink:     postLink(ch, m.ID),
			OriginalText: text,
			CleanedText:  Clean(text, entities),
		}

		for i, mm := range mediaMsgs {
			if i >= h.cfg.MediaCap {
				break
			}
			data, ext, err := h.fetcher.DownloadMedia(ctx, mm)
			if err != nil {
				return nil, fmt.Errorf("media of message %d: %w", mm.ID, err)
			}
			ref, err := h.store.Upload(ctx, h.mediaName(i+1, ext), data)
			if err != nil {
				return nil, fmt.Errorf("upload media of message %d: %w", mm.ID, err)
			}
			post.MediaRefs = append(post.MediaRefs, ref)

			if err := h.pace(ctx); err != nil {
				return nil, err
			}
		}

		posts = append(posts, post)
		h.log.Debug().
			Str("post_link", post.PostLink).
			Int("media", len(post.MediaRefs)).
			Msg("harvest: accepted post")

		if len(posts) >= h.cfg.PostCap {
			break
		}
		if err := h.pace(ctx); err != nil {
			return nil, err
		}
	}

	return posts, nil
}

// combineGroup collects all window messages sharing the group identifier,
// concatenating their texts with newlines and shifting entity offsets by
// the cumulative length of earlier parts so positions stay valid in the
// combined string. Media references are collected separately.
func combineGroup(window []*tg.Message, groupID int64) (string, []Entity, []*tg.Message) {
	var (
		parts    []string
		entities []Entity
		media    []*tg.Message
		shift    int
	)

	for _, msg := range window {
		gid, ok := msg.GetGroupedID()
		if !ok || gid != groupID {
			continue
		}
		if msg.Message != "" {
			for _, e := range entitiesOf(msg) {
				e.Offset += shift
				entities = append(entities, e)
			}
			parts = append(parts, msg.Message)
			shift += utf16Len(msg.Message) + 1 // the joining newline
		}
		if telegram.HasPhoto(msg) || telegram.HasVideo(msg) {
			media = append(media, msg)
		}
	}

	return strings.Join(parts, "\n"), entities, media
}

// postLink derives the public reference link of a message.
func postLink(ch *telegram.Channel, msgID int) string {
	if ch.Username != "" {
		return fmt.Sprintf("https://t.me/%s/%d", ch.Username, msgID)
	}
	return fmt.Sprintf("https://t.me/c/%d/%d", ch.ID, msgID)
}

// randomPace sleeps a uniform random duration within the configured bounds.
func (h *Harvester) randomPace(ctx context.Context) error {
	minD := time.Duration(h.cfg.PaceMinSeconds) * time.Second
	maxD := time.Duration(h.cfg.PaceMaxSeconds) * time.Second
	d := minD
	if maxD > minD {
		d += rand.N(maxD - minD)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
