package domain

// DefaultAudioMIME is recorded when no container signature matches; the
// original capture path produced WebM, so it is the safest assumption for
// unlabeled legacy payloads.
const DefaultAudioMIME = "audio/webm"

// DetectAudioMIME sniffs the audio container from magic bytes. It recognizes
// WebM (EBML), MP4/M4A, MP3 with or without an ID3 header, OGG, and WAV, and
// falls back to DefaultAudioMIME when nothing matches.
func DetectAudioMIME(data []byte) string {
	if len(data) >= 4 && data[0] == 0x1A && data[1] == 0x45 && data[2] == 0xDF && data[3] == 0xA3 {
		return "audio/webm"
	}
	if len(data) >= 8 && string(data[4:8]) == "ftyp" {
		return "audio/mp4"
	}
	if len(data) >= 3 && string(data[:3]) == "ID3" {
		return "audio/mpeg"
	}
	// Raw MPEG audio frame sync: 11 set bits.
	if len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		return "audio/mpeg"
	}
	if len(data) >= 4 && string(data[:4]) == "OggS" {
		return "audio/ogg"
	}
	if len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE" {
		return "audio/wav"
	}
	return DefaultAudioMIME
}
