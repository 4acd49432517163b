// Package telegram wraps the MTProto client used for the shared account:
// interactive sign-in, channel resolution and join, history scanning and
// media download.
package telegram

// Channel is a resolved, joinable channel entity.
type Channel struct {
	ID         int64  // channel id
	AccessHash int64  // access hash for api calls
	Username   string // public username, empty for private channels
	Title      string // channel title
}

// SignInOutcome is the result of a code sign-in attempt.
type SignInOutcome int

const (
	// SignInSuccess means the account is authorized.
	SignInSuccess SignInOutcome = iota
	// SignInNeedsPassword means the account has 2FA enabled and a
	// password sign-in must follow.
	SignInNeedsPassword
	// SignInInvalidCode means the submitted code was rejected.
	SignInInvalidCode
)

// JoinOutcome is the result of a channel join attempt.
type JoinOutcome int

const (
	// Joined means the account became a new member.
	Joined JoinOutcome = iota
	// AlreadyMember means the account was a participant before the call.
	AlreadyMember
)
