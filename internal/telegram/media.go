package telegram

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
)

// HasPhoto reports whether the message carries a photo.
func HasPhoto(m *tg.Message) bool {
	media, ok := m.GetMedia()
	if !ok {
		return false
	}
	_, ok = media.(*tg.MessageMediaPhoto)
	return ok
}

// HasVideo reports whether the message carries a video document.
func HasVideo(m *tg.Message) bool {
	doc := messageDocument(m)
	if doc == nil {
		return false
	}
	for _, attr := range doc.Attributes {
		if _, ok := attr.(*tg.DocumentAttributeVideo); ok {
			return true
		}
	}
	return false
}

// HasDocument reports whether the message carries any document attachment.
func HasDocument(m *tg.Message) bool {
	return messageDocument(m) != nil
}

func messageDocument(m *tg.Message) *tg.Document {
	media, ok := m.GetMedia()
	if !ok {
		return nil
	}
	md, ok := media.(*tg.MessageMediaDocument)
	if !ok {
		return nil
	}
	docClass, ok := md.GetDocument()
	if !ok {
		return nil
	}
	doc, ok := docClass.(*tg.Document)
	if !ok {
		return nil
	}
	return doc
}

// DownloadMedia downloads the message's photo or video into a transient
// buffer and returns the bytes with the target file extension.
func (a *Account) DownloadMedia(ctx context.Context, m *tg.Message) ([]byte, string, error) {
	if err := a.wait(ctx); err != nil {
		return nil, "", err
	}

	var (
		loc tg.InputFileLocationClass
		ext string
	)
	switch {
	case HasVideo(m):
		doc := messageDocument(m)
		loc = &tg.InputDocumentFileLocation{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
		}
		ext = "mp4"
	case HasPhoto(m):
		media, _ := m.GetMedia()
		photoClass, ok := media.(*tg.MessageMediaPhoto).GetPhoto()
		if !ok {
			return nil, "", fmt.Errorf("photo media without photo")
		}
		photo, ok := photoClass.(*tg.Photo)
		if !ok {
			return nil, "", fmt.Errorf("unexpected photo type %T", photoClass)
		}
		loc = &tg.InputPhotoFileLocation{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
			ThumbSize:     largestPhotoSize(photo.Sizes),
		}
		ext = "jpg"
	default:
		return nil, "", fmt.Errorf("message %d has no downloadable media", m.ID)
	}

	var buf bytes.Buffer
	if _, err := downloader.NewDownloader().Download(a.api(), loc).Stream(ctx, &buf); err != nil {
		a.noteFloodWait(err)
		return nil, "", fmt.Errorf("download media of message %d: %w", m.ID, err)
	}
	return buf.Bytes(), ext, nil
}

// largestPhotoSize picks the thumb type of the biggest available size.
func largestPhotoSize(sizes []tg.PhotoSizeClass) string {
	best := ""
	bestBytes := -1
	for _, s := range sizes {
		switch sz := s.(type) {
		case *tg.PhotoSize:
			if sz.Size > bestBytes {
				bestBytes = sz.Size
				best = sz.Type
			}
		case *tg.PhotoSizeProgressive:
			total := 0
			for _, n := range sz.Sizes {
				if n > total {
					total = n
				}
			}
			if total > bestBytes {
				bestBytes = total
				best = sz.Type
			}
		}
	}
	if best == "" && len(sizes) > 0 {
		best = sizes[len(sizes)-1].GetType()
	}
	return best
}
