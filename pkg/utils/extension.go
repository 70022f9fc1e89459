package utils

import "strings"

// ExtensionFromFilename returns the lowercase extension of a filename hint
// without the dot, or "" when the hint carries none. Used to derive audio
// encodings and object keys from uploaded filenames.
func ExtensionFromFilename(hint string) string {
	hint = strings.TrimSpace(hint)
	idx := strings.LastIndex(hint, ".")
	if idx < 0 || idx == len(hint)-1 {
		return ""
	}
	ext := strings.ToLower(hint[idx+1:])
	if strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
