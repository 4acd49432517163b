package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MediaSlots is the fixed number of media columns in a harvested post row.
// Extra media references beyond this are discarded; unused slots stay blank.
const MediaSlots = 10

// PostRow is one harvested post ready to append to the results table.
type PostRow struct {
	ChannelLink  string
	PostLink     string
	OriginalText string
	CleanedText  string
	MediaRefs    []string
	CreatedAt    time.Time
}

// PostsRepository appends harvested post rows.
type PostsRepository struct {
	db *pgxpool.Pool
}

// NewPostsRepository creates a repository over the given pool.
func NewPostsRepository(db *pgxpool.Pool) *PostsRepository {
	return &PostsRepository{db: db}
}

// Append inserts one row. Media references fill the fixed slots in order.
func (r *PostsRepository) Append(ctx context.Context, row *PostRow) error {
	media := fillMediaSlots(row.MediaRefs)

	createdAt := row.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO harvested_posts (
			channel_link, post_link, original_text, cleaned_text,
			media_1, media_2, media_3, media_4, media_5,
			media_6, media_7, media_8, media_9, media_10,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	args := []any{row.ChannelLink, row.PostLink, row.OriginalText, row.CleanedText}
	for _, m := range media {
		args = append(args, m)
	}
	args = append(args, createdAt)

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("append post row: %w", err)
	}
	return nil
}

// fillMediaSlots pads or truncates media references to the fixed slot count.
func fillMediaSlots(refs []string) []string {
	media := make([]string, MediaSlots)
	for i, ref := range refs {
		if i >= MediaSlots {
			break
		}
		media[i] = ref
	}
	return media
}
