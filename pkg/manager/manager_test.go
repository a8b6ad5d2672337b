package manager

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mio "github.com/hartfelt/mediakeep/pkg/io"
	"github.com/hartfelt/mediakeep/pkg/library"
	"github.com/hartfelt/mediakeep/pkg/metadata"
	"github.com/hartfelt/mediakeep/pkg/metadata/mocks"
	"github.com/hartfelt/mediakeep/pkg/parse"
)

func testManager(t *testing.T, searcher metadata.Searcher) (MediaManager, string) {
	t.Helper()

	root := t.TempDir()
	fileIO := &mio.MediaFileSystem{}
	lib := library.New(
		filepath.Join(root, "movies"),
		filepath.Join(root, "shows"),
		filepath.Join(root, "unmatched"),
		library.WithFileIO(fileIO),
	)
	require.NoError(t, lib.EnsureRoots())

	return New(searcher, lib, fileIO, root, filepath.Join(root, "photos")), root
}

func writeUpload(t *testing.T, dir, content string) string {
	t.Helper()

	f, err := os.CreateTemp(dir, "upload-*")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestIngest_MatchedMovie(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().
		Search(gomock.Any(), "The Heist", ptr(2021), parse.KindMovie).
		Return([]metadata.Candidate{
			{ID: 7, Title: "The Heist", Year: 2021, Kind: metadata.KindMovie},
		}, nil)

	m, root := testManager(t, searcher)
	staging := t.TempDir()
	src := writeUpload(t, staging, "movie bytes")

	res, err := m.Ingest(context.Background(), IngestRequest{
		Path:         src,
		OriginalName: "The.Heist.2021.1080p.WEB-DL.mkv",
	})
	require.NoError(t, err)

	assert.True(t, res.Matched)
	assert.Equal(t, library.CategoryMovies, res.Category)
	assert.Equal(t, filepath.Join(root, "movies", "The Heist (2021)", "The Heist (2021).mkv"), res.StoredPath)

	got, err := os.ReadFile(res.StoredPath)
	require.NoError(t, err)
	assert.Equal(t, "movie bytes", string(got))

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "staged upload should be removed after organize")
}

func TestIngest_MatchedEpisode(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().
		Search(gomock.Any(), "Night Watch", nil, parse.KindEpisode).
		Return([]metadata.Candidate{
			{ID: 12, Title: "Night Watch", Year: 2019, Kind: metadata.KindShow},
		}, nil)

	m, root := testManager(t, searcher)
	src := writeUpload(t, t.TempDir(), "ep")

	res, err := m.Ingest(context.Background(), IngestRequest{
		Path:         src,
		OriginalName: "Night.Watch.S03E07.720p.mkv",
	})
	require.NoError(t, err)

	want := filepath.Join(root, "shows", "Night Watch (2019)", "Season 03", "Night Watch - S03E07.mkv")
	assert.Equal(t, want, res.StoredPath)
	assert.Equal(t, library.CategoryShows, res.Category)
}

func TestIngest_ShowWithoutEpisodeMarkerGoesUnmatched(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]metadata.Candidate{
			{ID: 3, Title: "Night Watch", Year: 2019, Kind: metadata.KindShow},
		}, nil)

	m, root := testManager(t, searcher)
	src := writeUpload(t, t.TempDir(), "x")

	res, err := m.Ingest(context.Background(), IngestRequest{
		Path:         src,
		OriginalName: "Night.Watch.1080p.mkv",
	})
	require.NoError(t, err)

	assert.Equal(t, library.CategoryUnmatched, res.Category)
	assert.False(t, res.Matched)
	assert.Equal(t, filepath.Join(root, "unmatched", "Night.Watch.1080p.mkv"), res.StoredPath)
}

func TestIngest_SearchErrorRoutesToUnmatched(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("provider down"))

	m, root := testManager(t, searcher)
	src := writeUpload(t, t.TempDir(), "x")

	res, err := m.Ingest(context.Background(), IngestRequest{
		Path:         src,
		OriginalName: "Some.Movie.2020.mkv",
	})
	require.NoError(t, err, "a provider outage must not fail the upload")
	assert.Equal(t, library.CategoryUnmatched, res.Category)
	assert.FileExists(t, filepath.Join(root, "unmatched", "Some.Movie.2020.mkv"))
}

func TestIngest_NonVideoSkipsPipeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	// no Search expectation: the provider must not be called

	m, root := testManager(t, searcher)
	src := writeUpload(t, t.TempDir(), "notes")

	res, err := m.Ingest(context.Background(), IngestRequest{
		Path:         src,
		OriginalName: "readme.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, library.CategoryUnmatched, res.Category)
	assert.FileExists(t, filepath.Join(root, "unmatched", "readme.txt"))
}

func TestIngest_FetchesPoster(t *testing.T) {
	var calls int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.Write([]byte("jpegdata"))
	}))
	defer srv.Close()

	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]metadata.Candidate{
			{ID: 1, Title: "The Heist", Year: 2021, Kind: metadata.KindMovie, PosterURL: srv.URL + "/poster.jpg"},
		}, nil)

	m, root := testManager(t, searcher)
	src := writeUpload(t, t.TempDir(), "movie")

	_, err := m.Ingest(context.Background(), IngestRequest{
		Path:         src,
		OriginalName: "The.Heist.2021.mkv",
	})
	require.NoError(t, err)

	m.WaitPosters()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	assert.FileExists(t, filepath.Join(root, "movies", "The Heist (2021)", "poster.jpg"))
}

func TestIngest_ConcurrentEpisodesSameShow(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]metadata.Candidate{
			{ID: 5, Title: "Night Watch", Year: 2019, Kind: metadata.KindShow},
		}, nil).
		Times(2)

	m, root := testManager(t, searcher)
	staging := t.TempDir()
	srcA := writeUpload(t, staging, "a")
	srcB := writeUpload(t, staging, "b")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = m.Ingest(context.Background(), IngestRequest{Path: srcA, OriginalName: "Night.Watch.S01E01.mkv"})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = m.Ingest(context.Background(), IngestRequest{Path: srcB, OriginalName: "Night.Watch.S01E02.mkv"})
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	shows, err := os.ReadDir(filepath.Join(root, "shows"))
	require.NoError(t, err)
	require.Len(t, shows, 1, "both episodes must share a single show folder")

	season := filepath.Join(root, "shows", shows[0].Name(), "Season 01")
	entries, err := os.ReadDir(season)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestIngestUpload_ReaderFailureLeavesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)

	m, root := testManager(t, searcher)

	r := &failingReader{data: "partial data", failAfter: 4}
	_, err := m.IngestUpload(context.Background(), r, "Broken.Movie.2020.mkv")
	require.Error(t, err)

	for _, dir := range []string{"movies", "shows", "unmatched"} {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		require.NoError(t, err)
		assert.Empty(t, entries, "no partial files in %s", dir)
	}
}

func TestIngestUpload_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]metadata.Candidate{
			{ID: 2, Title: "The Heist", Year: 2021, Kind: metadata.KindMovie},
		}, nil)

	m, _ := testManager(t, searcher)

	res, err := m.IngestUpload(context.Background(), strings.NewReader("streamed bytes"), "The.Heist.2021.mkv")
	require.NoError(t, err)

	got, err := os.ReadFile(res.StoredPath)
	require.NoError(t, err)
	assert.Equal(t, "streamed bytes", string(got))
}

func TestIngestUpload_OrganizeFailureCleansStaging(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]metadata.Candidate{
			{ID: 4, Title: "The Heist", Year: 2021, Kind: metadata.KindMovie},
		}, nil)

	root := t.TempDir()
	fileIO := &mio.MediaFileSystem{}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "shows"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "unmatched"), 0o755))
	// a file where the movie root should be makes the organize step fail
	require.NoError(t, os.WriteFile(filepath.Join(root, "movies"), []byte("x"), 0o644))

	lib := library.New(
		filepath.Join(root, "movies"),
		filepath.Join(root, "shows"),
		filepath.Join(root, "unmatched"),
		library.WithFileIO(fileIO),
	)
	m := New(searcher, lib, fileIO, root, filepath.Join(root, "photos"))

	_, err := m.IngestUpload(context.Background(), strings.NewReader("movie bytes"), "The.Heist.2021.mkv")
	require.Error(t, err)

	staged, err := filepath.Glob(filepath.Join(os.TempDir(), "mediakeep-upload-*"))
	require.NoError(t, err)
	assert.Empty(t, staged, "staging temp must be removed when organizing fails")
}

type deadlineCaptureClient struct {
	mu          sync.Mutex
	hasDeadline bool
}

func (c *deadlineCaptureClient) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	_, c.hasDeadline = req.Context().Deadline()
	c.mu.Unlock()

	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Body:       io.NopCloser(strings.NewReader("jpegdata")),
	}, nil
}

func TestIngest_PosterFetchIsBounded(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]metadata.Candidate{
			{ID: 9, Title: "The Heist", Year: 2021, Kind: metadata.KindMovie, PosterURL: "http://posters.invalid/p.jpg"},
		}, nil)

	capture := &deadlineCaptureClient{}
	root := t.TempDir()
	fileIO := &mio.MediaFileSystem{}
	lib := library.New(
		filepath.Join(root, "movies"),
		filepath.Join(root, "shows"),
		filepath.Join(root, "unmatched"),
		library.WithFileIO(fileIO),
		library.WithHTTPClient(capture),
	)
	require.NoError(t, lib.EnsureRoots())
	m := New(searcher, lib, fileIO, root, filepath.Join(root, "photos"))

	src := writeUpload(t, t.TempDir(), "movie")
	_, err := m.Ingest(context.Background(), IngestRequest{Path: src, OriginalName: "The.Heist.2021.mkv"})
	require.NoError(t, err)

	m.WaitPosters()

	capture.mu.Lock()
	defer capture.mu.Unlock()
	assert.True(t, capture.hasDeadline, "poster download must carry a deadline so a hung host cannot stall shutdown")
}

func TestIngest_SniffsMislabeledVideo(t *testing.T) {
	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().
		Search(gomock.Any(), "The Heist", ptr(2021), gomock.Any()).
		Return([]metadata.Candidate{
			{ID: 8, Title: "The Heist", Year: 2021, Kind: metadata.KindMovie},
		}, nil)

	m, root := testManager(t, searcher)
	content := string([]byte{0x1a, 0x45, 0xdf, 0xa3}) + "matroska body"
	src := writeUpload(t, t.TempDir(), content)

	res, err := m.Ingest(context.Background(), IngestRequest{
		Path:         src,
		OriginalName: "The.Heist.2021.bin",
	})
	require.NoError(t, err)

	assert.Equal(t, library.CategoryMovies, res.Category)
	assert.Equal(t, filepath.Join(root, "movies", "The Heist (2021)", "The Heist (2021).bin"), res.StoredPath)
}

type failingReader struct {
	data      string
	failAfter int
	read      int
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.read >= f.failAfter {
		return 0, errors.New("connection reset")
	}
	n := copy(p, f.data[f.read:f.failAfter])
	f.read += n
	return n, nil
}

func ptr(i int) *int { return &i }
