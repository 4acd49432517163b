package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/celestix/gotgproto/storage"
	"github.com/gotd/td/session"
)

// SessionBlobFromStorage converts a gotgproto storage.Session into the raw
// blob that seeds an account client. gotgproto keeps the raw JSON of gotd's
// session.Data in its Data field; the blob re-wraps it in gotd's own
// versioned storage format.
func SessionBlobFromStorage(s *storage.Session) ([]byte, error) {
	if s == nil || len(s.Data) == 0 {
		return nil, fmt.Errorf("session is empty")
	}

	var data session.Data
	if err := json.Unmarshal(s.Data, &data); err != nil {
		return nil, fmt.Errorf("unmarshal session data: %w", err)
	}

	mem := new(session.StorageMemory)
	loader := session.Loader{Storage: mem}
	if err := loader.Save(context.Background(), &data); err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	return mem.LoadSession(context.Background())
}
