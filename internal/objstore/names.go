package objstore

import (
	"fmt"
	"math/rand/v2"
)

// Logical prefixes inside the bucket.
const (
	SessionPrefix = "sessions/"
	MediaPrefix   = "media/"
)

const (
	digits  = "0123456789"
	letters = "abcdefghijklmnopqrstuvwxyz"
)

// SessionName generates a durable session blob name: 16 random digits
// plus the fixed extension, under the sessions/ prefix.
func SessionName() string {
	return SessionPrefix + randomString(digits, 16) + ".session"
}

// MediaName generates a media object name: 7 random lowercase letters,
// an underscore, the 1-based item index and the original extension.
func MediaName(index int, ext string) string {
	return fmt.Sprintf("%s%s_%d.%s", MediaPrefix, randomString(letters, 7), index, ext)
}

func randomString(alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}
