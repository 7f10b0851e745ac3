package domain_test

import (
	"clinicalsnap/pkg/domain"
	"testing"
)

func TestDetectAudioMIME(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"webm ebml header", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00, 0x00}, "audio/webm"},
		{"mp4 ftyp box", []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'M', '4', 'A', ' '}, "audio/mp4"},
		{"mp3 with id3", []byte{'I', 'D', '3', 0x04, 0x00, 0x00}, "audio/mpeg"},
		{"mp3 raw frame header", []byte{0xFF, 0xFB, 0x90, 0x64}, "audio/mpeg"},
		{"ogg", []byte{'O', 'g', 'g', 'S', 0x00}, "audio/ogg"},
		{"wav riff", []byte{'R', 'I', 'F', 'F', 0x24, 0x08, 0x00, 0x00, 'W', 'A', 'V', 'E'}, "audio/wav"},
		{"unrecognized", []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B}, domain.DefaultAudioMIME},
		{"empty payload", nil, domain.DefaultAudioMIME},
		{"riff without wave", []byte{'R', 'I', 'F', 'F', 0, 0, 0, 0, 'A', 'V', 'I', ' '}, domain.DefaultAudioMIME},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.DetectAudioMIME(tc.data); got != tc.want {
				t.Fatalf("DetectAudioMIME = %q, want %q", got, tc.want)
			}
		})
	}
}
