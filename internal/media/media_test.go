package media_test

import (
	"bytes"
	"context"
	"testing"

	"clinicalsnap/internal/blob"
	"clinicalsnap/internal/media"
	"clinicalsnap/pkg/domain"
)

func TestPhotoRoundTrip(t *testing.T) {
	lib := media.NewLibrary(blob.NewMemory())
	ctx := context.Background()

	photo := domain.Photo{
		ID:            "ph1",
		SessionID:     "s1",
		PatientID:     "p1",
		ImageData:     []byte("full-resolution-bytes"),
		ThumbnailData: []byte("thumb"),
	}
	if err := lib.SavePhoto(ctx, &photo); err != nil {
		t.Fatalf("save: %v", err)
	}
	if photo.ImageSize != 21 || photo.ThumbnailSize != 5 {
		t.Fatalf("sizes not recorded: image=%d thumb=%d", photo.ImageSize, photo.ThumbnailSize)
	}

	loaded := domain.Photo{ID: "ph1"}
	if err := lib.LoadPhoto(ctx, &loaded); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(loaded.ImageData, photo.ImageData) || !bytes.Equal(loaded.ThumbnailData, photo.ThumbnailData) {
		t.Fatalf("payload mismatch after round trip")
	}

	// saving again replaces, not duplicates
	photo.ImageData = []byte("retaken")
	if err := lib.SavePhoto(ctx, &photo); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	if err := lib.LoadPhoto(ctx, &loaded); err != nil {
		t.Fatalf("re-load: %v", err)
	}
	if string(loaded.ImageData) != "retaken" {
		t.Fatalf("image not replaced: %q", loaded.ImageData)
	}

	if err := lib.DeletePhoto(ctx, "ph1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := lib.LoadPhoto(ctx, &loaded); err == nil {
		t.Fatal("expected load error after delete")
	}
	if err := lib.DeletePhoto(ctx, "ph1"); err != nil {
		t.Fatalf("delete of absent photo must be a no-op: %v", err)
	}
}

func TestPhotoWithoutThumbnail(t *testing.T) {
	lib := media.NewLibrary(blob.NewMemory())
	ctx := context.Background()

	photo := domain.Photo{ID: "ph1", ImageData: []byte("img")}
	if err := lib.SavePhoto(ctx, &photo); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded := domain.Photo{ID: "ph1"}
	if err := lib.LoadPhoto(ctx, &loaded); err != nil {
		t.Fatalf("load must tolerate missing thumbnail: %v", err)
	}
	if loaded.ThumbnailData != nil {
		t.Fatalf("unexpected thumbnail %q", loaded.ThumbnailData)
	}
}

func TestAudioRoundTripSniffsMIME(t *testing.T) {
	lib := media.NewLibrary(blob.NewMemory())
	ctx := context.Background()

	memo := domain.VoiceMemo{
		ID:        "v1",
		SessionID: "s1",
		AudioData: append([]byte{0x1A, 0x45, 0xDF, 0xA3}, []byte("webm-payload")...),
		Duration:  3.5,
	}
	if err := lib.SaveAudio(ctx, &memo); err != nil {
		t.Fatalf("save: %v", err)
	}
	if memo.MIMEType != "audio/webm" {
		t.Fatalf("sniffed mime = %q", memo.MIMEType)
	}
	if memo.AudioSize != int64(len(memo.AudioData)) {
		t.Fatalf("audio size = %d", memo.AudioSize)
	}

	loaded := domain.VoiceMemo{ID: "v1"}
	if err := lib.LoadAudio(ctx, &loaded); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(loaded.AudioData, memo.AudioData) {
		t.Fatalf("audio mismatch after round trip")
	}

	if err := lib.DeleteAudio(ctx, "v1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := lib.LoadAudio(ctx, &loaded); err == nil {
		t.Fatal("expected load error after delete")
	}
}

func TestAudioKeepsExplicitMIME(t *testing.T) {
	lib := media.NewLibrary(blob.NewMemory())
	memo := domain.VoiceMemo{ID: "v1", MIMEType: "audio/mp4", AudioData: []byte("x")}
	if err := lib.SaveAudio(context.Background(), &memo); err != nil {
		t.Fatalf("save: %v", err)
	}
	if memo.MIMEType != "audio/mp4" {
		t.Fatalf("explicit mime overwritten: %q", memo.MIMEType)
	}
}
