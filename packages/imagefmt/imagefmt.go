// Package imagefmt identifies image container formats from their leading
// magic bytes.
package imagefmt

import (
	"bytes"
	"encoding/hex"
)

// Format is a detected image container format.
type Format string

const (
	PNG     Format = "PNG"
	JPEG    Format = "JPEG"
	GIF     Format = "GIF"
	WebP    Format = "WebP"
	Unknown Format = "unknown"
)

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8}
	gifMagic  = []byte("GIF8")
	riffMagic = []byte("RIFF")
)

// Detect classifies data by its magic-byte prefix. Matching is done in
// priority order: PNG, JPEG, GIF, then RIFF (WebP). Anything else, including
// empty input, is Unknown.
func Detect(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return PNG
	case bytes.HasPrefix(data, jpegMagic):
		return JPEG
	case bytes.HasPrefix(data, gifMagic):
		return GIF
	case bytes.HasPrefix(data, riffMagic):
		return WebP
	default:
		return Unknown
	}
}

// HexPrefix returns a hex dump of the first n bytes of data, used to report
// unrecognized formats.
func HexPrefix(data []byte, n int) string {
	if len(data) < n {
		n = len(data)
	}
	return hex.EncodeToString(data[:n])
}
