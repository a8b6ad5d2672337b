// Package library owns the on-disk media tree: computing canonical
// destinations, moving uploads into place, fetching posters, and serving a
// derived, rebuildable index over the folders. The filesystem is the only
// source of truth; everything here can be recomputed from a fresh scan.
package library

import (
	"sync"
	"time"

	"github.com/hartfelt/mediakeep/pkg/cache"
	mhttp "github.com/hartfelt/mediakeep/pkg/http"
	mio "github.com/hartfelt/mediakeep/pkg/io"
)

// Category is a top-level library grouping.
type Category string

const (
	CategoryMovies    Category = "movies"
	CategoryShows     Category = "shows"
	CategoryUnmatched Category = "unmatched"
)

// DefaultSidecarExtensions are companion-file extensions that are associated
// with an item but never counted as playable content.
var DefaultSidecarExtensions = []string{
	".srt", ".sub", ".idx", ".ssa", ".ass", ".vtt",
	".nfo", ".txt", ".json", ".xml", ".sfv",
}

var posterExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {},
}

const indexKey = "library"

// Library manages the canonical media tree rooted at a movie dir, a show
// dir, and a flat unmatched bucket beside them.
type Library struct {
	movieDir     string
	showDir      string
	unmatchedDir string

	fileIO   mio.FileIO
	http     mhttp.HTTPClient
	sidecars map[string]struct{}
	index    *cache.Cache[string, []Item]

	// folders serializes work on a single destination folder so concurrent
	// uploads of the same show cannot race on creation or poster writes
	folders keyedMutex
}

// Option configures a Library
type Option func(*Library)

// WithFileIO substitutes the file io implementation
func WithFileIO(fileIO mio.FileIO) Option {
	return func(l *Library) {
		l.fileIO = fileIO
	}
}

// WithHTTPClient sets the client used for poster downloads
func WithHTTPClient(client mhttp.HTTPClient) Option {
	return func(l *Library) {
		l.http = client
	}
}

// WithSidecarExtensions overrides the sidecar denylist
func WithSidecarExtensions(exts []string) Option {
	return func(l *Library) {
		l.sidecars = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			l.sidecars[ext] = struct{}{}
		}
	}
}

// WithIndexTTL bounds how stale a cached index may be. Zero disables
// caching and every gallery query rescans.
func WithIndexTTL(ttl time.Duration) Option {
	return func(l *Library) {
		l.index = cache.NewTTL[string, []Item](ttl)
	}
}

// New creates a Library over the given roots.
func New(movieDir, showDir, unmatchedDir string, opts ...Option) *Library {
	l := &Library{
		movieDir:     movieDir,
		showDir:      showDir,
		unmatchedDir: unmatchedDir,
		fileIO:       &mio.MediaFileSystem{},
		http:         mhttp.NewRetryClient(),
		index:        cache.NewTTL[string, []Item](time.Minute),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.sidecars == nil {
		WithSidecarExtensions(DefaultSidecarExtensions)(l)
	}

	return l
}

// keyedMutex hands out one mutex per key. Entries are never evicted; the
// map holds one mutex per destination folder ever written, which stays
// small next to the files those folders contain.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) *sync.Mutex {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l
}
