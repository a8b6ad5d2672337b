package library

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/hartfelt/mediakeep/pkg/logger"
)

const posterFileName = "poster.jpg"

// FetchPoster downloads cover art for folder unless the folder already has a
// poster image. It runs decoupled from the move; callers treat a returned
// error as log-only since a missing poster only degrades the gallery.
func (l *Library) FetchPoster(ctx context.Context, posterURL, folder string) error {
	if posterURL == "" {
		return nil
	}

	log := logger.FromCtx(ctx)

	// the folder lock makes concurrent same-show uploads download at most once
	mu := l.folders.lock(folder)
	defer mu.Unlock()

	if l.hasPoster(folder) {
		log.Debugw("poster already present", "folder", folder)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, posterURL, nil)
	if err != nil {
		return fmt.Errorf("building poster request: %w", err)
	}

	res, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("downloading poster: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading poster: unexpected status %s", res.Status)
	}

	tmp, err := l.fileIO.CreateTemp(folder, ".poster-*")
	if err != nil {
		return fmt.Errorf("staging poster: %w", err)
	}

	if _, err := io.Copy(tmp, res.Body); err != nil {
		tmp.Close()
		l.fileIO.Remove(tmp.Name())
		return fmt.Errorf("writing poster: %w", err)
	}

	if err := tmp.Close(); err != nil {
		l.fileIO.Remove(tmp.Name())
		return fmt.Errorf("closing poster: %w", err)
	}

	target := filepath.Join(folder, posterFileName)
	if err := l.fileIO.Rename(tmp.Name(), target); err != nil {
		l.fileIO.Remove(tmp.Name())
		return fmt.Errorf("placing poster: %w", err)
	}

	l.Invalidate()
	log.Infow("fetched poster", "folder", folder)
	return nil
}

// hasPoster reports whether folder already contains any poster image file.
func (l *Library) hasPoster(folder string) bool {
	entries, err := l.fileIO.ReadDir(folder)
	if err != nil {
		return false
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isPosterFile(strings.ToLower(filepath.Ext(entry.Name()))) {
			return true
		}
	}

	return false
}
