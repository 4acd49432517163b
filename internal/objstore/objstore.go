// Package objstore stores opaque blobs (session tokens, media files) by name.
package objstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

// Store is the blob storage interface used by the auth flow and the harvester.
// Upload returns a durable reference that Download accepts back.
type Store interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
	Download(ctx context.Context, ref string) ([]byte, error)
}

// JetStreamStore implements Store on top of a NATS JetStream object store bucket.
type JetStreamStore struct {
	bucket string
	store  jetstream.ObjectStore
}

// NewJetStreamStore creates a store bound to the given bucket handle.
func NewJetStreamStore(bucket string, store jetstream.ObjectStore) *JetStreamStore {
	return &JetStreamStore{bucket: bucket, store: store}
}

// Upload stores data under name and returns its reference.
func (s *JetStreamStore) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if _, err := s.store.PutBytes(ctx, name, data); err != nil {
		return "", fmt.Errorf("put %s: %w", name, err)
	}
	return fmt.Sprintf("obj://%s/%s", s.bucket, name), nil
}

// Download fetches a blob by reference or bare object name.
func (s *JetStreamStore) Download(ctx context.Context, ref string) ([]byte, error) {
	name := s.objectName(ref)
	data, err := s.store.GetBytes(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return data, nil
}

// objectName strips the reference prefix if present.
func (s *JetStreamStore) objectName(ref string) string {
	return strings.TrimPrefix(ref, fmt.Sprintf("obj://%s/", s.bucket))
}
