package library

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hartfelt/mediakeep/pkg/logger"
)

// AddMovie moves a staged upload into the canonical movie folder for the
// matched title and year, returning the final path.
func (l *Library) AddMovie(ctx context.Context, sourcePath, ext, title string, year int) (string, error) {
	dir := filepath.Join(l.movieDir, MovieFolder(title, year))
	return l.place(ctx, dir, MovieFileName(title, year, ext), sourcePath)
}

// AddEpisode moves a staged upload into the season folder beneath the
// canonical show folder, returning the final path.
func (l *Library) AddEpisode(ctx context.Context, sourcePath, ext, title string, year, season, episode int) (string, error) {
	dir := filepath.Join(l.showDir, ShowFolder(title, year), SeasonFolder(season))
	return l.place(ctx, dir, EpisodeFileName(title, season, episode, ext), sourcePath)
}

// AddUnmatched moves a staged upload into the flat unmatched bucket with its
// original name preserved. This is a terminal success state, not an error.
func (l *Library) AddUnmatched(ctx context.Context, sourcePath, originalName string) (string, error) {
	return l.place(ctx, l.unmatchedDir, filepath.Base(originalName), sourcePath)
}

// place stages sourcePath into dir under a hidden temporary name and then
// renames it to name, so a crash mid-copy never leaves a truncated file at
// the final path. Name collisions get a counter suffix; the existing file is
// never overwritten. The source file is removed once the move succeeded.
func (l *Library) place(ctx context.Context, dir, name, sourcePath string) (string, error) {
	log := logger.FromCtx(ctx)

	mu := l.folders.lock(dir)
	defer mu.Unlock()

	// creating an existing folder is success, not failure
	if err := l.fileIO.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	staged, err := l.stage(dir, sourcePath)
	if err != nil {
		return "", err
	}

	target := l.resolveCollision(filepath.Join(dir, name))
	if err := l.fileIO.Rename(staged, target); err != nil {
		l.fileIO.Remove(staged)
		return "", fmt.Errorf("moving %s into place: %w", name, err)
	}

	if err := l.fileIO.Remove(sourcePath); err != nil {
		log.Warnw("could not remove upload staging file", "path", sourcePath, "error", err)
	}

	l.Invalidate()
	log.Infow("organized file", "target", target)
	return target, nil
}

// stage copies the source into a temporary file inside the destination
// directory, which guarantees the later rename stays on one filesystem.
func (l *Library) stage(dir, sourcePath string) (string, error) {
	src, err := l.fileIO.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("opening upload %s: %w", sourcePath, err)
	}
	defer src.Close()

	tmp, err := l.fileIO.CreateTemp(dir, ".staging-*")
	if err != nil {
		return "", fmt.Errorf("staging in %s: %w", dir, err)
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		l.fileIO.Remove(tmp.Name())
		return "", fmt.Errorf("staging %s: %w", sourcePath, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		l.fileIO.Remove(tmp.Name())
		return "", fmt.Errorf("syncing staged file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		l.fileIO.Remove(tmp.Name())
		return "", fmt.Errorf("closing staged file: %w", err)
	}

	return tmp.Name(), nil
}

// resolveCollision returns path when it is free, otherwise the first
// "name (n).ext" variant that is.
func (l *Library) resolveCollision(path string) string {
	if !l.fileIO.FileExists(path) {
		return path
	}

	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if !l.fileIO.FileExists(candidate) {
			return candidate
		}
	}
}

// MovieDir is the root of the movie category.
func (l *Library) MovieDir() string { return l.movieDir }

// ShowDir is the root of the show category.
func (l *Library) ShowDir() string { return l.showDir }

// UnmatchedDir is the flat holding area outside the canonical tree.
func (l *Library) UnmatchedDir() string { return l.unmatchedDir }

// EnsureRoots creates the category roots and the unmatched bucket if needed.
func (l *Library) EnsureRoots() error {
	for _, dir := range []string{l.movieDir, l.showDir, l.unmatchedDir} {
		if err := l.fileIO.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating library root %s: %w", dir, err)
		}
	}
	return nil
}
