// Package bot wires the chat frontend: commands, text routing and replies.
package bot

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/maneralab/parsbot/internal/flow"
	"github.com/maneralab/parsbot/internal/logger"
)

// Bot wraps the telegram bot and routes updates into the flow service.
type Bot struct {
	tb   *tele.Bot
	flow *flow.Service
	log  *logger.Logger
}

// New builds the bot with long polling and registers its handlers. The
// flow service is attached with SetFlow before Start, which lets the bot
// double as the service's reply channel.
func New(token string) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}

	b := &Bot{
		tb:  tb,
		log: logger.Get(),
	}
	b.registerHandlers()

	return b, nil
}

// SetFlow attaches the flow service. Must be called before Start.
func (b *Bot) SetFlow(svc *flow.Service) {
	b.flow = svc
}

func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle("/newpars", b.handleNewPars)
	b.tb.Handle(tele.OnText, b.handleText)
}

func (b *Bot) handleStart(c tele.Context) error {
	b.log.Info().Int64("user_id", c.Sender().ID).Msg("bot: /start")
	return c.Send(flow.MsgGreeting)
}

func (b *Bot) handleNewPars(c tele.Context) error {
	userID := c.Sender().ID
	b.log.Info().Int64("user_id", userID).Msg("bot: /newpars")
	b.flow.Begin(context.Background(), userID)
	return nil
}

func (b *Bot) handleText(c tele.Context) error {
	b.flow.HandleText(context.Background(), c.Sender().ID, c.Text())
	return nil
}

// Reply sends a plain text message to the user. Satisfies flow.Replier.
func (b *Bot) Reply(_ context.Context, userID int64, text string) error {
	_, err := b.tb.Send(&tele.User{ID: userID}, text)
	return err
}

// Start runs the bot event loop. Blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info().Msg("bot: starting long polling")
	b.tb.Start()
}

// Stop gracefully stops the bot event loop.
func (b *Bot) Stop() {
	b.tb.Stop()
}
