// Package classify decides whether an uploaded file is playable video or an
// opaque attachment. Classification is total: anything unrecognized is an
// attachment, never an error.
package classify

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".avi":  {},
	".mov":  {},
	".wmv":  {},
	".flv":  {},
	".webm": {},
	".m4v":  {},
	".ts":   {},
	".m2ts": {},
}

// IsVideo reports whether filename carries a recognized video container
// extension.
func IsVideo(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := videoExtensions[ext]
	return ok
}

// Extensions returns the recognized video container extensions, dot included.
func Extensions() []string {
	exts := make([]string, 0, len(videoExtensions))
	for ext := range videoExtensions {
		exts = append(exts, ext)
	}
	return exts
}

var (
	ebmlMagic = []byte{0x1a, 0x45, 0xdf, 0xa3} // mkv, webm
	riffMagic = []byte("RIFF")                 // avi
	ftypMagic = []byte("ftyp")                 // mp4, mov, m4v at offset 4
)

// Sniff peeks at the first bytes of r and reports whether they look like a
// known video container signature. It reads at most 12 bytes; a short or
// failed read reports false.
func Sniff(r io.ReaderAt) bool {
	header := make([]byte, 12)
	n, err := r.ReadAt(header, 0)
	if err != nil && err != io.EOF {
		return false
	}
	header = header[:n]

	if bytes.HasPrefix(header, ebmlMagic) {
		return true
	}

	if bytes.HasPrefix(header, riffMagic) && len(header) >= 12 && bytes.Equal(header[8:11], []byte("AVI")) {
		return true
	}

	return len(header) >= 8 && bytes.Equal(header[4:8], ftypMagic)
}
