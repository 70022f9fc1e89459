// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package storage_files

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Retrieve when the key holds no object.
var ErrNotFound = errors.New("storage: object not found")

// Storage is the narrow object-store contract the pipeline depends on.
type Storage interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
	// Retrieve returns the object bytes, or an error wrapping ErrNotFound
	// when the key is absent.
	Retrieve(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// AudioObjectKey builds the canonical location of a session's raw audio:
// sessions/{userId}/{sessionId}/audio.{ext}
func AudioObjectKey(userId, sessionId, extension string) string {
	return fmt.Sprintf("sessions/%s/%s/audio.%s", userId, sessionId, extension)
}

// ContentTypeForExtension maps an audio file extension (no dot) to its MIME
// type, falling back to a generic binary type.
func ContentTypeForExtension(extension string) string {
	switch extension {
	case "webm":
		return "audio/webm"
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "m4a", "mp4":
		return "audio/mp4"
	case "ogg", "opus":
		return "audio/ogg"
	case "flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
