package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/gotd/td/tg"
)

// LinkPrefix is the canonical channel link prefix accepted from users.
const LinkPrefix = "https://t.me/"

// Resolve resolves a channel link to a joinable entity. Public usernames go
// through username resolution; links that cannot be resolved that way are
// retried as private invites, importing the hash.
func (a *Account) Resolve(ctx context.Context, link string) (*Channel, error) {
	username, invite := parseLink(link)

	if !invite {
		ch, err := a.resolveUsername(ctx, username)
		if err == nil {
			return ch, nil
		}
		if !IsUsernameUnresolvable(err) {
			return nil, err
		}
		a.log.Debug().Str("link", link).Msg("telegram: username unresolvable, trying invite import")
	}

	return a.importInvite(ctx, username)
}

// Join joins the resolved channel. Being a participant already is a success.
func (a *Account) Join(ctx context.Context, ch *Channel) (JoinOutcome, error) {
	if err := a.wait(ctx); err != nil {
		return 0, err
	}

	_, err := a.api().ChannelsJoinChannel(ctx, &tg.InputChannel{
		ChannelID:  ch.ID,
		AccessHash: ch.AccessHash,
	})
	switch {
	case err == nil:
		return Joined, nil
	case isAlreadyParticipant(err):
		return AlreadyMember, nil
	default:
		a.noteFloodWait(err)
		return 0, fmt.Errorf("join channel: %w", err)
	}
}

func (a *Account) resolveUsername(ctx context.Context, username string) (*Channel, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	resolved, err := a.api().ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		a.noteFloodWait(err)
		return nil, fmt.Errorf("resolve username %s: %w", username, err)
	}

	ch, err := channelFromChats(resolved.Chats)
	if err != nil {
		return nil, fmt.Errorf("resolve username %s: %w", username, err)
	}
	return ch, nil
}

func (a *Account) importInvite(ctx context.Context, hash string) (*Channel, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	updates, err := a.api().MessagesImportChatInvite(ctx, hash)
	if err == nil {
		upd, ok := updates.(*tg.Updates)
		if !ok {
			return nil, fmt.Errorf("import invite: unexpected updates type %T", updates)
		}
		ch, err := channelFromChats(upd.Chats)
		if err != nil {
			return nil, fmt.Errorf("import invite: %w", err)
		}
		return ch, nil
	}

	if !isAlreadyParticipant(err) {
		a.noteFloodWait(err)
		return nil, fmt.Errorf("import invite: %w", err)
	}

	// already a member: the invite check still yields the chat entity
	invite, err := a.api().MessagesCheckChatInvite(ctx, hash)
	if err != nil {
		a.noteFloodWait(err)
		return nil, fmt.Errorf("check invite: %w", err)
	}
	already, ok := invite.(*tg.ChatInviteAlready)
	if !ok {
		return nil, fmt.Errorf("check invite: unexpected invite type %T", invite)
	}
	ch, err := channelFromChats([]tg.ChatClass{already.Chat})
	if err != nil {
		return nil, fmt.Errorf("check invite: %w", err)
	}
	return ch, nil
}

func channelFromChats(chats []tg.ChatClass) (*Channel, error) {
	for _, c := range chats {
		ch, ok := c.(*tg.Channel)
		if !ok {
			continue
		}
		return &Channel{
			ID:         ch.ID,
			AccessHash: ch.AccessHash,
			Username:   ch.Username,
			Title:      ch.Title,
		}, nil
	}
	return nil, fmt.Errorf("no channel in response")
}

// parseLink splits a t.me link into its trailing slug. invite is true when
// the link is an explicit private invite form (+hash or joinchat).
func parseLink(link string) (slug string, invite bool) {
	path := strings.TrimPrefix(strings.TrimSpace(link), LinkPrefix)
	path = strings.Trim(path, "/")
	segs := strings.Split(path, "/")
	last := segs[len(segs)-1]

	switch {
	case strings.HasPrefix(last, "+"):
		return strings.TrimPrefix(last, "+"), true
	case len(segs) > 1 && segs[0] == "joinchat":
		return last, true
	default:
		return strings.TrimPrefix(segs[0], "@"), false
	}
}
