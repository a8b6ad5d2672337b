package library

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPoster(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("poster image bytes"))
	}))
	defer server.Close()

	l := testLibrary(t)
	folder := filepath.Join(l.MovieDir(), "The Movie (2020)")
	require.NoError(t, os.MkdirAll(folder, 0o755))

	require.NoError(t, l.FetchPoster(ctx, server.URL+"/t/p/w500/abc.jpg", folder))

	b, err := os.ReadFile(filepath.Join(folder, "poster.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "poster image bytes", string(b))
}

func TestFetchPoster_SkipsWhenPresent(t *testing.T) {
	ctx := context.Background()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("new poster"))
	}))
	defer server.Close()

	l := testLibrary(t)
	folder := filepath.Join(l.MovieDir(), "The Movie (2020)")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "cover.png"), []byte("existing"), 0o644))

	require.NoError(t, l.FetchPoster(ctx, server.URL, folder))

	assert.Zero(t, calls.Load(), "no download when any poster image exists")
	assert.NoFileExists(t, filepath.Join(folder, "poster.jpg"))
}

func TestFetchPoster_ConcurrentSingleDownload(t *testing.T) {
	ctx := context.Background()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("poster"))
	}))
	defer server.Close()

	l := testLibrary(t)
	folder := filepath.Join(l.MovieDir(), "The Movie (2020)")
	require.NoError(t, os.MkdirAll(folder, 0o755))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.FetchPoster(ctx, server.URL, folder))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "only one concurrent caller downloads")
}

func TestFetchPoster_FailureLeavesNothing(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	l := testLibrary(t)
	folder := filepath.Join(l.MovieDir(), "The Movie (2020)")
	require.NoError(t, os.MkdirAll(folder, 0o755))

	assert.Error(t, l.FetchPoster(ctx, server.URL, folder))
	assert.NoFileExists(t, filepath.Join(folder, "poster.jpg"))
}

func TestFetchPoster_NoURLIsNoop(t *testing.T) {
	l := testLibrary(t)
	assert.NoError(t, l.FetchPoster(context.Background(), "", "anywhere"))
}
