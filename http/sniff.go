package http

import (
	"bytes"
	"strings"
)

// sniffWindow is how much of the body participates in type sniffing.
const sniffWindow = 1024

// SniffContentType normalizes a declared content type against the body.
// A plausible HTML signature in the first 1 KB overrides an absent,
// octet-stream, or text/plain declaration; PDF magic and JSON shapes are
// also recognized.
func SniffContentType(declared string, body []byte) string {
	mediaType := declared
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	window := body
	if len(window) > sniffWindow {
		window = window[:sniffWindow]
	}

	indeterminate := mediaType == "" || mediaType == "application/octet-stream" || mediaType == "text/plain"

	if indeterminate {
		lower := bytes.ToLower(window)
		if bytes.Contains(lower, []byte("<!doctype html")) || bytes.Contains(lower, []byte("<html")) {
			return "text/html"
		}
		if bytes.HasPrefix(window, []byte("%PDF-")) {
			return "application/pdf"
		}
	}

	if mediaType == "text/plain" || mediaType == "" {
		trimmed := bytes.TrimLeft(window, " \t\r\n")
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			return "application/json"
		}
	}

	if mediaType == "" {
		return "application/octet-stream"
	}
	return mediaType
}
