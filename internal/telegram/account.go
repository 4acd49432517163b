package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/maneralab/parsbot/internal/logger"
)

// Account is a user-account MTProto client. Protocol calls are only valid
// inside the callback passed to Run, while the connection is alive.
type Account struct {
	client  *telegram.Client
	storage *session.StorageMemory
	limiter *RateLimiter
	log     *logger.Logger
}

// NewAccount creates an account client. sessionBlob, when non-nil, seeds the
// in-memory session storage with a previously persisted session; nil starts
// a fresh session that will require interactive sign-in.
func NewAccount(apiID int, apiHash string, sessionBlob []byte) (*Account, error) {
	storage := new(session.StorageMemory)
	if len(sessionBlob) > 0 {
		if err := storage.StoreSession(context.Background(), sessionBlob); err != nil {
			return nil, fmt.Errorf("seed session storage: %w", err)
		}
	}

	client := telegram.NewClient(apiID, apiHash, telegram.Options{
		SessionStorage: storage,
	})

	return &Account{
		client:  client,
		storage: storage,
		limiter: DefaultRateLimiter(),
		log:     logger.Get(),
	}, nil
}

// Run connects the client and executes f. The connection is closed when f
// returns, on every path.
func (a *Account) Run(ctx context.Context, f func(ctx context.Context) error) error {
	return a.client.Run(ctx, f)
}

// Authorized reports whether the current session is already signed in.
func (a *Account) Authorized(ctx context.Context) (bool, error) {
	status, err := a.client.Auth().Status(ctx)
	if err != nil {
		return false, fmt.Errorf("auth status: %w", err)
	}
	return status.Authorized, nil
}

// SendCode requests a login code for the phone number and returns the code
// hash needed for the subsequent sign-in.
func (a *Account) SendCode(ctx context.Context, phone string) (string, error) {
	sent, err := a.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", fmt.Errorf("send code: %w", err)
	}
	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("unexpected sent code type %T", sent)
	}
	return code.PhoneCodeHash, nil
}

// SignIn submits a login code. Invalid codes and a pending second factor are
// reported as outcomes, not errors.
func (a *Account) SignIn(ctx context.Context, phone, code, codeHash string) (SignInOutcome, error) {
	_, err := a.client.Auth().SignIn(ctx, phone, code, codeHash)
	switch {
	case err == nil:
		return SignInSuccess, nil
	case errors.Is(err, auth.ErrPasswordAuthNeeded):
		return SignInNeedsPassword, nil
	case tgerr.Is(err, "PHONE_CODE_INVALID", "PHONE_CODE_EXPIRED", "PHONE_CODE_EMPTY"):
		return SignInInvalidCode, nil
	default:
		return 0, fmt.Errorf("sign in: %w", err)
	}
}

// SignInPassword submits the 2FA password.
func (a *Account) SignInPassword(ctx context.Context, password string) error {
	if _, err := a.client.Auth().Password(ctx, password); err != nil {
		return fmt.Errorf("sign in with password: %w", err)
	}
	return nil
}

// SessionBlob returns the serialized session suitable for later restore.
func (a *Account) SessionBlob(ctx context.Context) ([]byte, error) {
	data, err := a.storage.LoadSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return data, nil
}

// api returns the raw protocol client.
func (a *Account) api() *tg.Client {
	return a.client.API()
}

// wait blocks on the rate limiter and records FLOOD_WAIT feedback from the
// previous call when present.
func (a *Account) wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

func (a *Account) noteFloodWait(err error) {
	if wait := floodWaitSeconds(err); wait > 0 {
		a.log.Warn().Int("wait_seconds", wait).Msg("telegram: FLOOD_WAIT detected, backing off")
		a.limiter.SetFloodWait(wait)
	}
}
