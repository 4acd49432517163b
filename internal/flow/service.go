package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maneralab/parsbot/internal/config"
	"github.com/maneralab/parsbot/internal/harvest"
	"github.com/maneralab/parsbot/internal/logger"
	"github.com/maneralab/parsbot/internal/objstore"
	"github.com/maneralab/parsbot/internal/repository"
	"github.com/maneralab/parsbot/internal/telegram"
)

// Account is the protocol client surface the flow drives. Implemented by
// telegram.Account, replaced in tests.
type Account interface {
	Run(ctx context.Context, f func(ctx context.Context) error) error
	Authorized(ctx context.Context) (bool, error)
	SendCode(ctx context.Context, phone string) (string, error)
	SignIn(ctx context.Context, phone, code, codeHash string) (telegram.SignInOutcome, error)
	SignInPassword(ctx context.Context, password string) error
	SessionBlob(ctx context.Context) ([]byte, error)
	Resolve(ctx context.Context, link string) (*telegram.Channel, error)
	Join(ctx context.Context, ch *telegram.Channel) (telegram.JoinOutcome, error)
	harvest.Fetcher
}

// AccountFactory creates an account client for one authorize attempt.
type AccountFactory func(apiID int, apiHash string, sessionBlob []byte) (Account, error)

// Harvester produces post records from a resolved channel.
type Harvester interface {
	Harvest(ctx context.Context, ch *telegram.Channel, channelLink string) ([]harvest.Post, error)
}

// HarvesterFactory builds a harvester over an authenticated connection.
type HarvesterFactory func(fetcher harvest.Fetcher) Harvester

// Accounts is the credential store surface the flow needs.
type Accounts interface {
	Get(ctx context.Context) (*repository.Account, error)
	SetSessionRef(ctx context.Context, id uint, ref string) error
}

// Posts appends harvested rows.
type Posts interface {
	Append(ctx context.Context, row *repository.PostRow) error
}

// Replier sends a text reply to a user through the dispatch layer.
type Replier interface {
	Reply(ctx context.Context, userID int64, text string) error
}

// fatalAuthError marks auth failures that must not trigger the
// clear-and-retry path: a wrong second code or a wrong 2FA password.
type fatalAuthError struct{ err error }

func (e *fatalAuthError) Error() string { return e.err.Error() }
func (e *fatalAuthError) Unwrap() error { return e.err }

// Service runs the per-user conversation: auth state machine, channel
// resolution and the harvesting pipeline.
type Service struct {
	baseCtx   context.Context
	registry  *Registry
	manager   *Manager
	accounts  Accounts
	posts     Posts
	store     objstore.Store
	publisher EventPublisher
	replier   Replier
	cfg       config.Harvest
	log       *logger.Logger

	accountFactory   AccountFactory
	harvesterFactory HarvesterFactory
	sessionName      func() string
}

// NewService creates a flow service. publisher may be nil.
func NewService(
	baseCtx context.Context,
	registry *Registry,
	manager *Manager,
	accounts Accounts,
	posts Posts,
	store objstore.Store,
	publisher EventPublisher,
	replier Replier,
	cfg config.Harvest,
) *Service {
	s := &Service{
		baseCtx:   baseCtx,
		registry:  registry,
		manager:   manager,
		accounts:  accounts,
		posts:     posts,
		store:     store,
		publisher: publisher,
		replier:   replier,
		cfg:       cfg,
		log:       logger.Get(),
	}
	s.accountFactory = func(apiID int, apiHash string, blob []byte) (Account, error) {
		return telegram.NewAccount(apiID, apiHash, blob)
	}
	s.harvesterFactory = func(fetcher harvest.Fetcher) Harvester {
		return harvest.New(fetcher, store, cfg)
	}
	s.sessionName = objstore.SessionName
	return s
}

// SetAccountFactory overrides account client creation (e.g. for testing).
func (s *Service) SetAccountFactory(f AccountFactory) { s.accountFactory = f }

// SetHarvesterFactory overrides harvester creation (e.g. for testing).
func (s *Service) SetHarvesterFactory(f HarvesterFactory) { s.harvesterFactory = f }

// SetSessionNamer overrides session blob naming (e.g. for testing).
func (s *Service) SetSessionNamer(f func() string) { s.sessionName = f }

// Manager exposes the flow manager for the status endpoint.
func (s *Service) Manager() *Manager { return s.manager }

// Begin starts a fresh conversation for the user, replacing any previous
// one, and asks for the channel link.
func (s *Service) Begin(ctx context.Context, userID int64) {
	s.registry.Create(userID)
	s.reply(ctx, userID, MsgAskLink)
}

// HandleText consumes one inbound text event for the user: either a state
// transition or the answer to the pending question. Input with no session
// or no pending question is ignored.
func (s *Service) HandleText(ctx context.Context, userID int64, text string) {
	sess, ok := s.registry.Get(userID)
	if !ok {
		return
	}

	switch sess.State() {
	case AwaitingLink:
		link := strings.TrimSpace(text)
		if !strings.HasPrefix(link, telegram.LinkPrefix) {
			s.reply(ctx, userID, MsgBadLink)
			return
		}
		sess.SetLink(link)
		sess.SetState(Authenticating)
		s.reply(ctx, userID, MsgChecking)
		go s.runFlow(s.baseCtx, sess)
	case AwaitingCode, Awaiting2FA:
		sess.Deliver(strings.TrimSpace(text))
	default:
	}
}

// runFlow drives one complete authorize-and-harvest run. The session entry
// and the flow slot are released on every exit path.
func (s *Service) runFlow(ctx context.Context, sess *Session) {
	userID := sess.UserID

	job, err := s.manager.Begin(userID, sess.ChannelLink())
	if err != nil {
		s.reply(ctx, userID, MsgBusy)
		s.registry.RemoveIf(userID, sess)
		return
	}
	defer s.manager.Finish(job.ID)
	defer s.registry.RemoveIf(userID, sess)

	log := s.log.With().Str("flow_id", job.ID.String()).Int64("user_id", userID).Logger()
	log.Info().Str("channel", sess.ChannelLink()).Msg("flow: starting")

	// one full-flow retry with a credential reset, then surface
	for attempt := 0; ; attempt++ {
		err := s.attempt(ctx, sess, job)
		if err == nil {
			log.Info().Msg("flow: finished")
			return
		}
		if errors.Is(err, ErrInputTimeout) {
			s.reply(ctx, userID, MsgTimeExpired)
			log.Info().Msg("flow: input timed out")
			return
		}
		var fatal *fatalAuthError
		if errors.As(err, &fatal) {
			s.reply(ctx, userID, fmt.Sprintf("Ошибка авторизации: %s", fatal))
			log.Error().Err(fatal.err).Msg("flow: auth failed")
			return
		}
		if attempt == 0 {
			log.Warn().Err(err).Msg("flow: authorize failed, resetting session and retrying")
			s.reply(ctx, userID, fmt.Sprintf("Ошибка авторизации: %s. Создаю новую сессию.", err))
			s.clearSessionRef(ctx)
			continue
		}
		s.reply(ctx, userID, fmt.Sprintf("Ошибка авторизации: %s", err))
		log.Error().Err(err).Msg("flow: authorize failed after retry")
		return
	}
}

// attempt performs one authorize attempt and, on success, the harvesting
// run. The protocol connection lives exactly as long as the callback.
func (s *Service) attempt(ctx context.Context, sess *Session, job *Job) error {
	acc, err := s.accounts.Get(ctx)
	if err != nil {
		return err
	}

	var blob []byte
	hadRef := acc.SessionRef != ""
	if hadRef {
		blob, err = s.store.Download(ctx, acc.SessionRef)
		if err != nil {
			// stale or missing blob: proceed as a fresh session
			s.log.Warn().Err(err).Msg("flow: session blob fetch failed, starting fresh")
			blob = nil
			hadRef = false
		}
	}

	acct, err := s.accountFactory(acc.APIID, acc.APIHash, blob)
	if err != nil {
		return err
	}

	return acct.Run(ctx, func(ctx context.Context) error {
		if err := s.signIn(ctx, sess, acct, acc); err != nil {
			return err
		}
		if !hadRef {
			if err := s.persistSession(ctx, acct, acc); err != nil {
				return err
			}
		}
		s.reply(ctx, sess.UserID, MsgAuthorized)
		sess.SetState(JoiningChannel)
		s.joinAndHarvest(ctx, sess, job, acct)
		return nil
	})
}

// signIn runs the interactive code/2FA exchange. A wrong code is retried
// exactly once; a second wrong code and a wrong password are fatal.
func (s *Service) signIn(ctx context.Context, sess *Session, acct Account, acc *repository.Account) error {
	authorized, err := acct.Authorized(ctx)
	if err != nil {
		return err
	}
	if authorized {
		return nil
	}

	codeHash, err := acct.SendCode(ctx, acc.Phone)
	if err != nil {
		return err
	}

	sess.SetState(AwaitingCode)
	code, err := s.askAndWait(ctx, sess, MsgAskCode)
	if err != nil {
		return err
	}

	outcome, err := acct.SignIn(ctx, acc.Phone, code, codeHash)
	if err != nil {
		return err
	}

	if outcome == telegram.SignInInvalidCode {
		code, err = s.askAndWait(ctx, sess, MsgBadCode)
		if err != nil {
			return err
		}
		outcome, err = acct.SignIn(ctx, acc.Phone, code, codeHash)
		if err != nil {
			return err
		}
		if outcome == telegram.SignInInvalidCode {
			return &fatalAuthError{errors.New("invalid login code")}
		}
	}

	if outcome == telegram.SignInNeedsPassword {
		sess.SetState(Awaiting2FA)
		password, err := s.askAndWait(ctx, sess, MsgAskPassword)
		if err != nil {
			return err
		}
		if err := acct.SignInPassword(ctx, password); err != nil {
			return &fatalAuthError{err}
		}
	}

	return nil
}

// persistSession uploads the freshly created session blob and writes its
// reference back into the account record.
func (s *Service) persistSession(ctx context.Context, acct Account, acc *repository.Account) error {
	blob, err := acct.SessionBlob(ctx)
	if err != nil {
		return err
	}
	ref, err := s.store.Upload(ctx, s.sessionName(), blob)
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := s.accounts.SetSessionRef(ctx, acc.ID, ref); err != nil {
		return err
	}
	s.log.Info().Str("ref", ref).Msg("flow: session persisted")
	return nil
}

// joinAndHarvest resolves and joins the channel, harvests posts, appends
// rows and reports the outcome. All failures end in a user reply; nothing
// propagates back into the authorize retry loop.
func (s *Service) joinAndHarvest(ctx context.Context, sess *Session, job *Job, acct Account) {
	userID := sess.UserID
	link := sess.ChannelLink()

	ch, err := acct.Resolve(ctx, link)
	if err == nil {
		_, err = acct.Join(ctx, ch)
	}
	if err != nil {
		s.replyFailure(ctx, userID, err)
		return
	}

	s.reply(ctx, userID, joinedMessage(s.cfg.PostCap, s.cfg.PaceMinSeconds, s.cfg.PaceMaxSeconds))

	posts, err := s.harvesterFactory(acct).Harvest(ctx, ch, link)
	if err != nil {
		s.replyFailure(ctx, userID, err)
		return
	}

	for _, p := range posts {
		row := &repository.PostRow{
			ChannelLink:  p.ChannelLink,
			PostLink:     p.PostLink,
			OriginalText: p.OriginalText,
			CleanedText:  p.CleanedText,
			MediaRefs:    p.MediaRefs,
		}
		if err := s.posts.Append(ctx, row); err != nil {
			s.replyFailure(ctx, userID, err)
			return
		}
		if s.publisher != nil {
			event := PostHarvestedEvent{
				FlowID:      job.ID,
				ChannelLink: p.ChannelLink,
				PostLink:    p.PostLink,
				CleanedText: p.CleanedText,
				MediaCount:  len(p.MediaRefs),
				HarvestedAt: time.Now(),
			}
			if err := s.publisher.PublishPostHarvested(ctx, event); err != nil {
				s.log.Warn().Err(err).Msg("flow: failed to publish post event")
			}
		}
	}

	sess.SetState(Done)
	s.reply(ctx, userID, resultMessage(len(posts)))
}

// replyFailure maps the failure to its user-facing message.
func (s *Service) replyFailure(ctx context.Context, userID int64, err error) {
	if telegram.IsPrivateOrExpired(err) {
		s.reply(ctx, userID, MsgPrivate)
		return
	}
	s.reply(ctx, userID, "Ошибка: "+err.Error())
}

// askAndWait sends one question and waits for the answer under the input
// timeout. The prompt is armed before the question goes out, so an
// immediate answer is never lost.
func (s *Service) askAndWait(ctx context.Context, sess *Session, question string) (string, error) {
	p := sess.Ask()
	s.reply(ctx, sess.UserID, question)
	return p.Wait(ctx, time.Duration(s.cfg.InputTimeoutSec)*time.Second)
}

func (s *Service) reply(ctx context.Context, userID int64, text string) {
	if err := s.replier.Reply(ctx, userID, text); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("flow: reply failed")
	}
}

// clearSessionRef drops the stored session reference so the next attempt
// authorizes from scratch.
func (s *Service) clearSessionRef(ctx context.Context) {
	acc, err := s.accounts.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("flow: cannot load account for session reset")
		return
	}
	if err := s.accounts.SetSessionRef(ctx, acc.ID, ""); err != nil {
		s.log.Warn().Err(err).Msg("flow: cannot reset session reference")
	}
}
