package utils

import "testing"

func TestExtensionFromFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"audio.webm", "webm"},
		{"recording.WAV", "wav"},
		{"clip.final.mp3", "mp3"},
		{"noextension", ""},
		{"trailingdot.", ""},
		{"", ""},
		{"path/with.dot/file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := ExtensionFromFilename(tt.input); result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}
