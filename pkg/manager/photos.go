package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

var photoExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
	".bmp":  {},
	".heic": {},
}

// Photos returns a flat listing of the images in the photo directory,
// sorted by name. A missing directory is an empty gallery, not an error.
func (m MediaManager) Photos(ctx context.Context) ([]Entry, error) {
	entries, err := m.fileIO.ReadDir(m.photoDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing photos: %w", err)
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isPhoto(e.Name()) {
			continue
		}

		relPath, err := filepath.Rel(m.root, filepath.Join(m.photoDir, e.Name()))
		if err != nil {
			return nil, err
		}

		entry := Entry{
			Name: e.Name(),
			Path: filepath.ToSlash(relPath),
		}
		if info, err := e.Info(); err == nil {
			entry.Size = humanize.IBytes(uint64(info.Size()))
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func isPhoto(name string) bool {
	_, ok := photoExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
