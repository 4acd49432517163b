package flow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PostHarvestedEvent is published for every appended post row.
type PostHarvestedEvent struct {
	FlowID      uuid.UUID `json:"flow_id"`
	ChannelLink string    `json:"channel_link"`
	PostLink    string    `json:"post_link"`
	CleanedText string    `json:"cleaned_text"`
	MediaCount  int       `json:"media_count"`
	HarvestedAt time.Time `json:"harvested_at"`
}

// EventPublisher publishes harvest events.
type EventPublisher interface {
	PublishPostHarvested(ctx context.Context, event PostHarvestedEvent) error
}
