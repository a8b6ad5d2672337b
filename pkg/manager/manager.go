// Package manager wires the ingestion pipeline together: classify an upload,
// parse its name, resolve it against the metadata provider, organize it into
// the library tree, and kick off the poster fetch.
package manager

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hartfelt/mediakeep/pkg/classify"
	mio "github.com/hartfelt/mediakeep/pkg/io"
	"github.com/hartfelt/mediakeep/pkg/library"
	"github.com/hartfelt/mediakeep/pkg/logger"
	"github.com/hartfelt/mediakeep/pkg/metadata"
	"github.com/hartfelt/mediakeep/pkg/parse"
)

// MediaManager houses the pipeline dependencies. The zero value is not
// usable; construct with New.
type MediaManager struct {
	searcher metadata.Searcher
	library  *library.Library
	fileIO   mio.FileIO
	root     string
	photoDir string

	posters *sync.WaitGroup
}

// New creates a MediaManager. root is the media root directory that the file
// manager operations are confined to; photoDir holds the flat photo gallery.
func New(searcher metadata.Searcher, lib *library.Library, fileIO mio.FileIO, root, photoDir string) MediaManager {
	return MediaManager{
		searcher: searcher,
		library:  lib,
		fileIO:   fileIO,
		root:     root,
		photoDir: photoDir,
		posters:  &sync.WaitGroup{},
	}
}

// IngestRequest is a fully assembled upload handed over by the transport
// layer: a file on disk plus the name the uploader gave it.
type IngestRequest struct {
	Path         string
	OriginalName string
}

// IngestResult reports where an upload ended up.
type IngestResult struct {
	StoredPath string           `json:"storedPath"`
	Category   library.Category `json:"category"`
	Matched    bool             `json:"matched"`
	Title      string           `json:"title,omitempty"`
	Year       int              `json:"year,omitempty"`
}

// IngestUpload stages the byte stream to a temporary file and runs the
// pipeline on it. A read error (for example the client disconnecting
// mid-upload) discards the partial file instead of promoting it.
func (m MediaManager) IngestUpload(ctx context.Context, r io.Reader, originalName string) (IngestResult, error) {
	tmp, err := m.fileIO.CreateTemp("", "mediakeep-upload-*")
	if err != nil {
		return IngestResult{}, fmt.Errorf("staging upload: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		m.fileIO.Remove(tmp.Name())
		return IngestResult{}, fmt.Errorf("receiving upload %s: %w", originalName, err)
	}

	if err := tmp.Close(); err != nil {
		m.fileIO.Remove(tmp.Name())
		return IngestResult{}, fmt.Errorf("closing upload %s: %w", originalName, err)
	}

	result, err := m.Ingest(ctx, IngestRequest{Path: tmp.Name(), OriginalName: originalName})
	if err != nil {
		m.fileIO.Remove(tmp.Name())
	}
	return result, err
}

// Ingest runs the pipeline for one upload. Classification and match
// failures are not errors, they only route the file to the unmatched
// bucket; an error means the filesystem itself failed and the caller may
// retry.
func (m MediaManager) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	log := logger.FromCtx(ctx, "upload", req.OriginalName)
	ctx = logger.WithCtx(ctx, log)

	if !classify.IsVideo(req.OriginalName) && !m.sniffVideo(req.Path) {
		log.Debug("not a video, storing as attachment")
		return m.storeUnmatched(ctx, req)
	}

	ext := filepath.Ext(req.OriginalName)
	parsed := parse.ParseFilename(strings.TrimSuffix(filepath.Base(req.OriginalName), ext))

	match := m.resolve(ctx, parsed)
	if !match.OK {
		return m.storeUnmatched(ctx, req)
	}

	candidate := match.Candidate
	var stored string
	var err error

	// the provider's kind wins over the filename heuristic
	switch {
	case candidate.Kind == metadata.KindShow && parsed.Season != nil:
		stored, err = m.library.AddEpisode(ctx, req.Path, ext, candidate.Title, candidate.Year, *parsed.Season, *parsed.Episode)
	case candidate.Kind == metadata.KindShow:
		// a show match without episode numbers cannot be named canonically
		log.Infow("matched a show but found no episode marker", "title", candidate.Title)
		return m.storeUnmatched(ctx, req)
	default:
		stored, err = m.library.AddMovie(ctx, req.Path, ext, candidate.Title, candidate.Year)
	}
	if err != nil {
		return IngestResult{}, err
	}

	m.fetchPosterAsync(ctx, candidate)

	return IngestResult{
		StoredPath: stored,
		Category:   categoryFor(candidate.Kind),
		Matched:    true,
		Title:      candidate.Title,
		Year:       candidate.Year,
	}, nil
}

// sniffVideo peeks at the file's leading bytes for a known container
// signature, so a video with a misleading extension still enters the
// pipeline.
func (m MediaManager) sniffVideo(path string) bool {
	f, err := m.fileIO.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	return classify.Sniff(f)
}

// resolve queries the provider and selects the best candidate. Provider
// unavailability is deliberately indistinguishable from no-match: the upload
// must never fail because the catalog is down.
func (m MediaManager) resolve(ctx context.Context, parsed parse.Parsed) metadata.Match {
	log := logger.FromCtx(ctx)

	candidates, err := m.searcher.Search(ctx, parsed.Title, parsed.Year, parsed.Kind)
	if err != nil {
		log.Warnw("metadata search failed, treating as no match", "error", err)
		return metadata.Match{}
	}

	match := metadata.Select(parsed.Title, parsed.Year, candidates)
	if !match.OK {
		log.Infow("no confident metadata match", "title", parsed.Title)
	}
	return match
}

func (m MediaManager) storeUnmatched(ctx context.Context, req IngestRequest) (IngestResult, error) {
	stored, err := m.library.AddUnmatched(ctx, req.Path, req.OriginalName)
	if err != nil {
		return IngestResult{}, err
	}

	return IngestResult{
		StoredPath: stored,
		Category:   library.CategoryUnmatched,
	}, nil
}

// posterFetchTimeout bounds a single poster download so a hung image host
// cannot pin the goroutine or stall shutdown.
const posterFetchTimeout = 30 * time.Second

// fetchPosterAsync downloads cover art without blocking or failing the
// ingest. The fetch inherits the request logger but not its cancellation.
func (m MediaManager) fetchPosterAsync(ctx context.Context, candidate metadata.Candidate) {
	if candidate.PosterURL == "" {
		return
	}

	folder := m.itemFolder(candidate)
	log := logger.FromCtx(ctx)
	detached := logger.WithCtx(context.WithoutCancel(ctx), log)

	m.posters.Add(1)
	go func() {
		defer m.posters.Done()

		fetchCtx, cancel := context.WithTimeout(detached, posterFetchTimeout)
		defer cancel()

		if err := m.library.FetchPoster(fetchCtx, candidate.PosterURL, folder); err != nil {
			log.Warnw("poster fetch failed", "folder", folder, "error", err)
		}
	}()
}

func (m MediaManager) itemFolder(candidate metadata.Candidate) string {
	if candidate.Kind == metadata.KindShow {
		return filepath.Join(m.library.ShowDir(), library.ShowFolder(candidate.Title, candidate.Year))
	}
	return filepath.Join(m.library.MovieDir(), library.MovieFolder(candidate.Title, candidate.Year))
}

func categoryFor(kind metadata.Kind) library.Category {
	if kind == metadata.KindShow {
		return library.CategoryShows
	}
	return library.CategoryMovies
}

// WaitPosters blocks until every in-flight poster download has finished.
// Used on shutdown so downloads are not cut off mid-write.
func (m MediaManager) WaitPosters() {
	m.posters.Wait()
}

// Gallery returns the derived library index for rendering.
func (m MediaManager) Gallery(ctx context.Context) ([]library.Item, error) {
	return m.library.Index(ctx)
}

// Movies returns the movie entries of the index.
func (m MediaManager) Movies(ctx context.Context) ([]library.Item, error) {
	return m.galleryFor(ctx, library.CategoryMovies)
}

// Shows returns the show entries of the index.
func (m MediaManager) Shows(ctx context.Context) ([]library.Item, error) {
	return m.galleryFor(ctx, library.CategoryShows)
}

func (m MediaManager) galleryFor(ctx context.Context, category library.Category) ([]library.Item, error) {
	items, err := m.library.Index(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]library.Item, 0, len(items))
	for _, item := range items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out, nil
}
