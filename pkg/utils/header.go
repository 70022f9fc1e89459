package utils

// Canonical header names used across the HTTP surface.
const (
	HEADER_SIGNATURE_KEY  = "X-Speakwise-Signature"
	HEADER_REQUEST_ID_KEY = "X-Request-Id"
	HEADER_RETRIED_KEY    = "X-Speakwise-Retried"
	HEADER_SOURCE_KEY     = "X-Speakwise-Source"
)
