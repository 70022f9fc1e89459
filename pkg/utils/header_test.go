package utils

import "testing"

func TestHeaderConstants(t *testing.T) {
	// Just test that constants are not empty
	if HEADER_SIGNATURE_KEY == "" {
		t.Error("HEADER_SIGNATURE_KEY should not be empty")
	}
	if HEADER_REQUEST_ID_KEY == "" {
		t.Error("HEADER_REQUEST_ID_KEY should not be empty")
	}
	if HEADER_RETRIED_KEY == "" {
		t.Error("HEADER_RETRIED_KEY should not be empty")
	}
	if HEADER_SOURCE_KEY == "" {
		t.Error("HEADER_SOURCE_KEY should not be empty")
	}
}
