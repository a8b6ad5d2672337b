package library

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hartfelt/mediakeep/pkg/classify"
	"github.com/hartfelt/mediakeep/pkg/logger"
)

// Index returns the gallery items for both category roots. Results may come
// from a cache bounded by the configured TTL; the scan itself is read-only
// and stateless, so a fresh call after the TTL always reflects the disk.
func (l *Library) Index(ctx context.Context) ([]Item, error) {
	if items, ok := l.index.Get(indexKey); ok {
		return items, nil
	}

	log := logger.FromCtx(ctx)

	items := []Item{}
	for _, root := range []struct {
		dir      string
		category Category
	}{
		{l.movieDir, CategoryMovies},
		{l.showDir, CategoryShows},
	} {
		scanned, err := l.scan(os.DirFS(root.dir), root.category)
		if err != nil {
			return nil, err
		}
		items = append(items, scanned...)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Title < items[j].Title
	})

	log.Debugw("library scan", "items", len(items))
	l.index.Set(indexKey, items)
	return items, nil
}

// Invalidate drops the cached index. The organizer calls this after every
// move so a gallery query never waits a full TTL to see a new item.
func (l *Library) Invalidate() {
	l.index.Delete(indexKey)
}

// scan enumerates the immediate subfolders of a category root. For each
// folder it collects playable files (one season level deep for shows), the
// first poster image, and sidecars. Folders without any playable file are
// omitted from the result.
func (l *Library) scan(fsys fs.FS, category Category) ([]Item, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	items := []Item{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		item := Item{
			Category:   category,
			Folder:     entry.Name(),
			MediaFiles: []string{},
		}
		item.Title, item.Year = splitFolderName(entry.Name())

		var totalSize uint64
		if err := l.collectFolder(fsys, entry.Name(), entry.Name(), &item, &totalSize, true); err != nil {
			return nil, err
		}

		if len(item.MediaFiles) == 0 {
			// empty or corrupted folder, keep it out of the gallery
			continue
		}

		item.Size = humanize.IBytes(totalSize)
		items = append(items, item)
	}

	return items, nil
}

func (l *Library) collectFolder(fsys fs.FS, root, dir string, item *Item, totalSize *uint64, descend bool) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if descend {
				// season folders live one level beneath a show folder
				if err := l.collectFolder(fsys, root, entryPath, item, totalSize, false); err != nil {
					return err
				}
			}
			continue
		}

		rel, err := filepath.Rel(root, entryPath)
		if err != nil {
			rel = entry.Name()
		}

		ext := strings.ToLower(path.Ext(entry.Name()))
		switch {
		case classify.IsVideo(entry.Name()):
			item.MediaFiles = append(item.MediaFiles, rel)
			if info, err := entry.Info(); err == nil {
				*totalSize += uint64(info.Size())
			}
		case isPosterFile(ext):
			if item.Poster == "" {
				item.Poster = rel
			}
		case l.isSidecar(ext):
			item.Sidecars = append(item.Sidecars, rel)
		}
	}

	return nil
}

func (l *Library) isSidecar(ext string) bool {
	_, ok := l.sidecars[ext]
	return ok
}

func isPosterFile(ext string) bool {
	_, ok := posterExtensions[ext]
	return ok
}
