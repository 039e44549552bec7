package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aferox "github.com/clara-assistant/modelpull/pkg/afero"
	"github.com/clara-assistant/modelpull/pkg/logging"
)

func newTestEngine(t *testing.T, fs aferox.Fs, chunkSize int64) (*Engine, *TransferRegistry) {
	t.Helper()

	config := &Config{
		Logger:    logging.NewTestLogger(),
		ChunkSize: chunkSize,
	}
	registry := NewTransferRegistry(config.Logger)
	return NewEngine(config, fs, registry), registry
}

func TestDownloadSuccess(t *testing.T) {
	body := "hello, weights"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	fs := aferox.NewMemMapFs()
	engine, registry := newTestEngine(t, fs, 4)

	var events []ProgressEvent
	err := engine.Download(context.Background(), server.URL, "/models/model.gguf", func(ev ProgressEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	content, err := aferox.ReadFile(fs, "/models/model.gguf")
	require.NoError(t, err)
	assert.Equal(t, body, string(content))

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, int64(len(body)), last.DownloadedSize)
	assert.Equal(t, int64(len(body)), last.TotalSize)
	assert.InDelta(t, 100.0, last.Progress, 0.01)
	assert.Equal(t, "model.gguf", last.FileName)

	// The transfer unregisters itself on completion.
	assert.Equal(t, 0, registry.Len())
}

func TestDownloadRejectsExistingFileBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	fs := aferox.NewMemMapFs()
	require.NoError(t, aferox.WriteFile(fs, "/models/model.gguf", []byte("old"), 0o644))

	engine, _ := newTestEngine(t, fs, 4)

	err := engine.Download(context.Background(), server.URL, "/models/model.gguf", nil)
	require.Error(t, err)
	assert.True(t, IsAlreadyExists(err))
	assert.Equal(t, int32(0), hits.Load())

	// The existing file is untouched.
	content, err := aferox.ReadFile(fs, "/models/model.gguf")
	require.NoError(t, err)
	assert.Equal(t, "old", string(content))
}

func TestDownloadFollowsOneRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/real", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("redirected body"))
	})
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/real", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fs := aferox.NewMemMapFs()
	engine, _ := newTestEngine(t, fs, 64)

	err := engine.Download(context.Background(), server.URL+"/start", "/models/model.gguf", nil)
	require.NoError(t, err)

	content, err := aferox.ReadFile(fs, "/models/model.gguf")
	require.NoError(t, err)
	assert.Equal(t, "redirected body", string(content))
}

func TestDownloadRedirectWithoutLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	fs := aferox.NewMemMapFs()
	engine, _ := newTestEngine(t, fs, 64)

	err := engine.Download(context.Background(), server.URL, "/models/model.gguf", nil)
	require.Error(t, err)

	var redirectErr *RedirectWithoutLocationError
	assert.ErrorAs(t, err, &redirectErr)

	exists, _ := aferox.Exists(fs, "/models/model.gguf")
	assert.False(t, exists)
}

func TestDownloadSecondRedirectFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/c", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fs := aferox.NewMemMapFs()
	engine, _ := newTestEngine(t, fs, 64)

	err := engine.Download(context.Background(), server.URL+"/a", "/models/model.gguf", nil)
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusFound, statusErr.StatusCode)
}

func TestDownloadNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fs := aferox.NewMemMapFs()
	engine, _ := newTestEngine(t, fs, 64)

	err := engine.Download(context.Background(), server.URL, "/models/model.gguf", nil)
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	exists, _ := aferox.Exists(fs, "/models/model.gguf")
	assert.False(t, exists)
}

func TestDownloadUnknownLengthReportsZeroPercent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flush before writing so no Content-Length is set.
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		w.Write([]byte("stream of unknown size"))
	}))
	defer server.Close()

	fs := aferox.NewMemMapFs()
	engine, _ := newTestEngine(t, fs, 4)

	var events []ProgressEvent
	err := engine.Download(context.Background(), server.URL, "/models/model.gguf", func(ev ProgressEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.Equal(t, float64(0), ev.Progress)
		assert.Equal(t, int64(0), ev.TotalSize)
	}
	last := events[len(events)-1]
	assert.Equal(t, int64(len("stream of unknown size")), last.DownloadedSize)
}

func TestDownloadCancelRemovesPartialFile(t *testing.T) {
	firstChunk := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.WriteHeader(http.StatusOK)
		w.Write(make([]byte, 1024))
		w.(http.Flusher).Flush()
		close(firstChunk)
		<-release
	}))
	defer server.Close()
	defer close(release)

	fs := aferox.NewMemMapFs()
	engine, registry := newTestEngine(t, fs, 512)

	done := make(chan error, 1)
	go func() {
		done <- engine.Download(context.Background(), server.URL, "/models/model.gguf", nil)
	}()

	<-firstChunk
	assert.True(t, registry.Cancel("model.gguf"))

	err := <-done
	require.Error(t, err)
	assert.True(t, IsCancelled(err))

	exists, _ := aferox.Exists(fs, "/models/model.gguf")
	assert.False(t, exists)
	assert.Equal(t, 0, registry.Len())
}

func TestDownloadCancelAfterFinalChunkPrefersCompletion(t *testing.T) {
	body := "complete payload"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	fs := aferox.NewMemMapFs()
	engine, registry := newTestEngine(t, fs, 1024)

	// Cancel from inside the progress callback once every byte is written:
	// the transfer is still registered, but the file is already complete.
	var cancelled bool
	err := engine.Download(context.Background(), server.URL, "/models/model.gguf", func(ev ProgressEvent) {
		if ev.DownloadedSize == int64(len(body)) {
			cancelled = registry.Cancel("model.gguf")
		}
	})
	require.NoError(t, err)
	assert.True(t, cancelled)

	content, err := aferox.ReadFile(fs, "/models/model.gguf")
	require.NoError(t, err)
	assert.Equal(t, body, string(content))
}

func TestDownloadDuplicateTransferRejected(t *testing.T) {
	firstChunk := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.WriteHeader(http.StatusOK)
		w.Write(make([]byte, 1024))
		w.(http.Flusher).Flush()
		close(firstChunk)
		<-release
	}))
	defer server.Close()

	fs := aferox.NewMemMapFs()
	engine, registry := newTestEngine(t, fs, 512)

	done := make(chan error, 1)
	go func() {
		done <- engine.Download(context.Background(), server.URL, "/models/model.gguf", nil)
	}()
	<-firstChunk

	// Same filename into a different directory still collides in the
	// registry while the first transfer is active.
	err := engine.Download(context.Background(), server.URL, "/other/model.gguf", nil)
	require.Error(t, err)
	assert.True(t, IsAlreadyExists(err))

	registry.Cancel("model.gguf")
	close(release)
	<-done
}
