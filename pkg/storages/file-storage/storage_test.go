package storage_files

import "testing"

func TestAudioObjectKey(t *testing.T) {
	tests := []struct {
		name      string
		userId    string
		sessionId string
		extension string
		expected  string
	}{
		{"webm upload", "u1", "s1", "webm", "sessions/u1/s1/audio.webm"},
		{"wav upload", "user-42", "9f3b", "wav", "sessions/user-42/9f3b/audio.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AudioObjectKey(tt.userId, tt.sessionId, tt.extension); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestContentTypeForExtension(t *testing.T) {
	tests := []struct {
		extension string
		expected  string
	}{
		{"webm", "audio/webm"},
		{"wav", "audio/wav"},
		{"mp3", "audio/mpeg"},
		{"m4a", "audio/mp4"},
		{"ogg", "audio/ogg"},
		{"flac", "audio/flac"},
		{"bin", "application/octet-stream"},
		{"", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.extension, func(t *testing.T) {
			if got := ContentTypeForExtension(tt.extension); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
