// Package media maps photo images, thumbnails and voice-memo audio onto the
// blob layer. Documents in the object store carry only payload sizes; the
// bytes themselves live under well-known blob keys.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"clinicalsnap/internal/blob"
	"clinicalsnap/pkg/domain"
)

const (
	imageKeyFmt     = "photos/%s/image"
	thumbnailKeyFmt = "photos/%s/thumbnail"
	audioKeyFmt     = "memos/%s/audio"
)

// Library reads and writes media payloads for photos and voice memos.
type Library struct {
	blobs blob.Store
}

// NewLibrary wraps a blob store.
func NewLibrary(blobs blob.Store) *Library { return &Library{blobs: blobs} }

// ImageKey returns the blob key holding the full-resolution image of a photo.
func ImageKey(photoID string) string { return fmt.Sprintf(imageKeyFmt, photoID) }

// ThumbnailKey returns the blob key holding the thumbnail of a photo.
func ThumbnailKey(photoID string) string { return fmt.Sprintf(thumbnailKeyFmt, photoID) }

// AudioKey returns the blob key holding the audio payload of a voice memo.
func AudioKey(memoID string) string { return fmt.Sprintf(audioKeyFmt, memoID) }

// SavePhoto writes the photo's image and thumbnail payloads and records their
// sizes on the document. Existing payloads under the same keys are replaced.
func (l *Library) SavePhoto(ctx context.Context, photo *domain.Photo) error {
	if err := l.write(ctx, ImageKey(photo.ID), photo.ImageData, "image/jpeg"); err != nil {
		return fmt.Errorf("save photo %s image: %w", photo.ID, err)
	}
	photo.ImageSize = int64(len(photo.ImageData))
	if len(photo.ThumbnailData) > 0 {
		if err := l.write(ctx, ThumbnailKey(photo.ID), photo.ThumbnailData, "image/jpeg"); err != nil {
			return fmt.Errorf("save photo %s thumbnail: %w", photo.ID, err)
		}
		photo.ThumbnailSize = int64(len(photo.ThumbnailData))
	}
	return nil
}

// LoadPhoto populates the photo's image and thumbnail payloads from the blob
// layer. A missing thumbnail is not an error; photos captured before
// thumbnail generation have none.
func (l *Library) LoadPhoto(ctx context.Context, photo *domain.Photo) error {
	img, err := l.read(ctx, ImageKey(photo.ID))
	if err != nil {
		return fmt.Errorf("load photo %s image: %w", photo.ID, err)
	}
	photo.ImageData = img
	if thumb, err := l.read(ctx, ThumbnailKey(photo.ID)); err == nil {
		photo.ThumbnailData = thumb
	}
	return nil
}

// DeletePhoto removes both payloads of a photo. Missing blobs are ignored.
func (l *Library) DeletePhoto(ctx context.Context, photoID string) error {
	if _, err := l.blobs.Delete(ctx, ImageKey(photoID)); err != nil {
		return fmt.Errorf("delete photo %s image: %w", photoID, err)
	}
	if _, err := l.blobs.Delete(ctx, ThumbnailKey(photoID)); err != nil {
		return fmt.Errorf("delete photo %s thumbnail: %w", photoID, err)
	}
	return nil
}

// SaveAudio writes the memo's audio payload, sniffing the MIME type from the
// leading bytes when the document does not carry one, and records the size.
func (l *Library) SaveAudio(ctx context.Context, memo *domain.VoiceMemo) error {
	if memo.MIMEType == "" {
		memo.MIMEType = domain.DetectAudioMIME(memo.AudioData)
	}
	if err := l.write(ctx, AudioKey(memo.ID), memo.AudioData, memo.MIMEType); err != nil {
		return fmt.Errorf("save memo %s audio: %w", memo.ID, err)
	}
	memo.AudioSize = int64(len(memo.AudioData))
	return nil
}

// LoadAudio populates the memo's audio payload from the blob layer.
func (l *Library) LoadAudio(ctx context.Context, memo *domain.VoiceMemo) error {
	audio, err := l.read(ctx, AudioKey(memo.ID))
	if err != nil {
		return fmt.Errorf("load memo %s audio: %w", memo.ID, err)
	}
	memo.AudioData = audio
	return nil
}

// DeleteAudio removes the memo's audio payload. A missing blob is ignored.
func (l *Library) DeleteAudio(ctx context.Context, memoID string) error {
	if _, err := l.blobs.Delete(ctx, AudioKey(memoID)); err != nil {
		return fmt.Errorf("delete memo %s audio: %w", memoID, err)
	}
	return nil
}

// write replaces any existing blob under key in place, so a failed re-save
// never loses the previous payload.
func (l *Library) write(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := l.blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{ContentType: contentType, Overwrite: true})
	return err
}

func (l *Library) read(ctx context.Context, key string) ([]byte, error) {
	_, r, err := l.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}
