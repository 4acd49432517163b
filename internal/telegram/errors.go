package telegram

import (
	"fmt"
	"strings"

	"github.com/gotd/td/tgerr"
)

// IsUsernameUnresolvable reports whether the error means the channel link
// cannot be resolved as a public username. Such links are retried as
// invite hashes.
func IsUsernameUnresolvable(err error) bool {
	return tgerr.Is(err, "USERNAME_NOT_OCCUPIED", "USERNAME_INVALID")
}

// IsPrivateOrExpired reports whether the channel is private or the invite
// hash is no longer valid. These get a dedicated user-facing message.
func IsPrivateOrExpired(err error) bool {
	return tgerr.Is(err, "CHANNEL_PRIVATE", "INVITE_HASH_EXPIRED", "INVITE_HASH_INVALID", "INVITE_REQUEST_SENT")
}

// isAlreadyParticipant reports whether a join or import failed only because
// the account is a member already.
func isAlreadyParticipant(err error) bool {
	return tgerr.Is(err, "USER_ALREADY_PARTICIPANT")
}

// floodWaitSeconds extracts the wait time from a FLOOD_WAIT error, or 0.
func floodWaitSeconds(err error) int {
	if err == nil {
		return 0
	}
	str := err.Error()
	idx := strings.Index(str, "FLOOD_WAIT_")
	if idx < 0 {
		return 0
	}
	var seconds int
	_, _ = fmt.Sscanf(str[idx+len("FLOOD_WAIT_"):], "%d", &seconds)
	return seconds
}
