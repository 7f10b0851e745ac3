package state

import (
	"context"

	"clinicalsnap/pkg/domain"
)

// CreatePhoto stores the image and thumbnail payloads in the blob layer, then
// persists the metadata record and mirrors it with payloads hydrated. The
// capture collaborator supplies bytes, dimensions and the capture timestamp;
// nothing is decoded here.
func (s *Store) CreatePhoto(ctx context.Context, photo domain.Photo) (domain.Photo, error) {
	err := s.instrument(ctx, "create_photo", func(ctx context.Context) error {
		photo.ID = s.newID()
		if photo.CapturedAt == 0 {
			photo.CapturedAt = s.now()
		}
		if err := s.media.SavePhoto(ctx, &photo); err != nil {
			return err
		}
		if err := s.db.Put(ctx, domain.CollectionPhotos, photo); err != nil {
			return err
		}
		s.mu.Lock()
		s.photos[photo.ID] = photo
		s.mu.Unlock()
		return nil
	})
	return photo, err
}

// UpdatePhoto mutates photo metadata (view template, dimensions). Payload
// bytes are immutable after capture; mutations to them are ignored by
// persisting the record as-is and re-mirroring the stored payloads.
func (s *Store) UpdatePhoto(ctx context.Context, id string, mutate func(*domain.Photo)) (domain.Photo, bool, error) {
	var (
		updated domain.Photo
		found   bool
	)
	err := s.instrument(ctx, "update_photo", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		current, ok := s.photos[id]
		if !ok {
			return nil
		}
		payload, thumbnail := current.ImageData, current.ThumbnailData
		mutate(&current)
		current.ID = id
		current.ImageData, current.ThumbnailData = payload, thumbnail
		if err := s.db.Put(ctx, domain.CollectionPhotos, current); err != nil {
			return err
		}
		s.photos[id] = current
		updated, found = current, true
		return nil
	})
	return updated, found, err
}

// DeletePhoto removes the photo, its annotations, any pairing referencing it,
// and both blob payloads.
func (s *Store) DeletePhoto(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_photo", func(ctx context.Context) error {
		s.mu.RLock()
		_, ok := s.photos[id]
		var set cascadeSet
		if ok {
			set = s.collectPhotoCascade(id)
		}
		s.mu.RUnlock()
		if !ok {
			return nil
		}
		return s.applyCascade(ctx, set)
	})
}
