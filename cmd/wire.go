package cmd

import (
	"net/url"
	"path/filepath"

	"github.com/hartfelt/mediakeep/config"
	mhttp "github.com/hartfelt/mediakeep/pkg/http"
	mio "github.com/hartfelt/mediakeep/pkg/io"
	"github.com/hartfelt/mediakeep/pkg/library"
	"github.com/hartfelt/mediakeep/pkg/manager"
	"github.com/hartfelt/mediakeep/pkg/metadata/tmdb"
)

// buildManager assembles the pipeline from configuration. The category
// directories default to subdirectories of the media root.
func buildManager(cfg config.Config) (manager.MediaManager, *library.Library) {
	movieDir := cfg.Library.MovieDir
	if movieDir == "" {
		movieDir = filepath.Join(cfg.Library.Root, "movies")
	}
	showDir := cfg.Library.ShowDir
	if showDir == "" {
		showDir = filepath.Join(cfg.Library.Root, "shows")
	}
	unmatchedDir := cfg.Library.UnmatchedDir
	if unmatchedDir == "" {
		unmatchedDir = filepath.Join(cfg.Library.Root, "unmatched")
	}
	photoDir := cfg.Library.PhotoDir
	if photoDir == "" {
		photoDir = filepath.Join(cfg.Library.Root, "photos")
	}

	retryClient := mhttp.NewRetryClient(
		mhttp.WithMaxRetries(cfg.TMDB.MaxRetries),
		mhttp.WithBaseBackoff(cfg.TMDB.BaseBackoff),
	)

	fileIO := &mio.MediaFileSystem{}

	libOpts := []library.Option{
		library.WithFileIO(fileIO),
		library.WithHTTPClient(retryClient),
	}
	if len(cfg.Library.SidecarExtensions) > 0 {
		libOpts = append(libOpts, library.WithSidecarExtensions(cfg.Library.SidecarExtensions))
	}
	if cfg.Index.TTL > 0 {
		libOpts = append(libOpts, library.WithIndexTTL(cfg.Index.TTL))
	}

	lib := library.New(movieDir, showDir, unmatchedDir, libOpts...)

	tmdbURL := url.URL{
		Scheme: cfg.TMDB.Scheme,
		Host:   cfg.TMDB.Host,
	}
	searcher := tmdb.New(
		tmdbURL.String(),
		cfg.TMDB.APIKey,
		tmdb.WithHTTPClient(retryClient),
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithImageHost(cfg.TMDB.ImageHost),
	)

	return manager.New(searcher, lib, fileIO, cfg.Library.Root, photoDir), lib
}
