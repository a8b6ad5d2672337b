package manager

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hartfelt/mediakeep/pkg/logger"
)

// Entry is one row in a directory listing.
type Entry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"isDir"`
	Size  string `json:"size,omitempty"`
}

// ErrOutsideRoot is returned when a requested path escapes the media root.
var ErrOutsideRoot = fmt.Errorf("path is outside the media root")

// resolvePath joins a client-supplied relative path onto the media root,
// rejecting anything that would climb out of it.
func (m MediaManager) resolvePath(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	abs := filepath.Join(m.root, filepath.FromSlash(rel))

	cleanRoot := filepath.Clean(m.root)
	if abs != cleanRoot && !strings.HasPrefix(abs, cleanRoot+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return abs, nil
}

// Browse lists the directory at rel, directories first, each group sorted by
// name. Paths in entries are relative to the media root using forward
// slashes so clients can feed them straight back in.
func (m MediaManager) Browse(ctx context.Context, rel string) ([]Entry, error) {
	dir, err := m.resolvePath(rel)
	if err != nil {
		return nil, err
	}

	entries, err := m.fileIO.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", rel, err)
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		relPath, err := filepath.Rel(m.root, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}

		entry := Entry{
			Name:  e.Name(),
			Path:  filepath.ToSlash(relPath),
			IsDir: e.IsDir(),
		}
		if !e.IsDir() {
			info, err := e.Info()
			if err == nil {
				entry.Size = humanize.IBytes(uint64(info.Size()))
			}
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return out[i].Name < out[j].Name
	})

	return out, nil
}

// Mkdir creates a directory under the media root, parents included.
func (m MediaManager) Mkdir(ctx context.Context, rel string) error {
	dir, err := m.resolvePath(rel)
	if err != nil {
		return err
	}
	if dir == filepath.Clean(m.root) {
		return fmt.Errorf("refusing to create the media root itself")
	}

	if err := m.fileIO.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", rel, err)
	}

	logger.FromCtx(ctx).Infow("created directory", "path", rel)
	return nil
}

// Delete removes a file or directory tree under the media root. Deleting
// the root itself is refused.
func (m MediaManager) Delete(ctx context.Context, rel string) error {
	target, err := m.resolvePath(rel)
	if err != nil {
		return err
	}
	if target == filepath.Clean(m.root) {
		return fmt.Errorf("refusing to delete the media root")
	}

	if _, err := m.fileIO.Stat(target); err != nil {
		return fmt.Errorf("stat %s: %w", rel, err)
	}

	if err := m.fileIO.RemoveAll(target); err != nil {
		return fmt.Errorf("deleting %s: %w", rel, err)
	}

	m.library.Invalidate()
	logger.FromCtx(ctx).Infow("deleted", "path", rel)
	return nil
}
