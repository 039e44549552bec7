package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	aferox "github.com/clara-assistant/modelpull/pkg/afero"
	"github.com/clara-assistant/modelpull/pkg/logging"
)

// Engine streams single files from the hub to local disk. It never overwrites:
// an existing target rejects the request before any network I/O. Redirects are
// followed for exactly one hop, and cancellation is cooperative between
// chunks, deleting the partial file.
type Engine struct {
	fs        aferox.Fs
	registry  *TransferRegistry
	client    *http.Client
	chunkSize int64
	headers   map[string]string
	logger    logging.Interface
}

// NewEngine builds a download engine from the client configuration.
func NewEngine(config *Config, fs aferox.Fs, registry *TransferRegistry) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	chunkSize := config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Engine{
		fs:        fs,
		registry:  registry,
		client:    newTransferClient(),
		chunkSize: chunkSize,
		headers:   BuildHeaders(config.Token, config.UserAgent, nil),
		logger:    logger,
	}
}

// Download streams remoteURL into targetPath, invoking onProgress after every
// chunk. The transfer is registered under the target's base name for the
// duration of the call so it can be cancelled out of band.
//
// A cancel observed mid-stream deletes the partial file and returns
// CancelledError. A cancel arriving once the final chunk is already written
// loses the race: the completed file stays on disk.
func (e *Engine) Download(ctx context.Context, remoteURL, targetPath string, onProgress ProgressFunc) error {
	logger := e.logger.WithField("target", targetPath)

	if exists, err := aferox.Exists(e.fs, targetPath); err != nil {
		return NewIOError(targetPath, err)
	} else if exists {
		return NewAlreadyExistsError(targetPath)
	}

	dir := filepath.Dir(targetPath)
	if err := e.fs.MkdirAll(dir, 0o755); err != nil {
		return NewDirectoryCreateError(dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fileName := filepath.Base(targetPath)
	state := NewTransferState(targetPath, cancel)
	if err := e.registry.Register(fileName, state); err != nil {
		return err
	}
	defer e.registry.Unregister(fileName)

	resp, err := e.fetch(ctx, remoteURL)
	if err != nil {
		if state.Cancelled() {
			return NewCancelledError(targetPath)
		}
		return err
	}
	defer resp.Body.Close()

	totalSize := resp.ContentLength
	if totalSize < 0 {
		totalSize = 0
	}

	file, err := e.fs.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return NewIOError(targetPath, err)
	}

	cleanup := func() {
		file.Close()
		if removeErr := e.fs.Remove(targetPath); removeErr != nil {
			logger.WithError(removeErr).Warn("Failed to remove partial file")
		}
	}

	var downloaded int64
	buf := make([]byte, e.chunkSize)

	for {
		// Cooperative cancel point between chunks. A cancel that lands after
		// every expected byte is already on disk loses the race: the file is
		// complete, deleting it would destroy a finished download.
		if state.Cancelled() {
			if totalSize > 0 && downloaded >= totalSize {
				break
			}
			cleanup()
			logger.Info("Download cancelled, partial file removed")
			return NewCancelledError(targetPath)
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				cleanup()
				return NewIOError(targetPath, writeErr)
			}

			downloaded += int64(n)
			if onProgress != nil {
				onProgress(ProgressEvent{
					FileName:       fileName,
					Progress:       progressPercent(downloaded, totalSize),
					DownloadedSize: downloaded,
					TotalSize:      totalSize,
				})
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			cleanup()
			if state.Cancelled() || ctx.Err() != nil {
				logger.Info("Download cancelled, partial file removed")
				return NewCancelledError(targetPath)
			}
			return NewIOError(targetPath, readErr)
		}
	}

	if err := file.Close(); err != nil {
		if removeErr := e.fs.Remove(targetPath); removeErr != nil {
			logger.WithError(removeErr).Warn("Failed to remove partial file")
		}
		return NewIOError(targetPath, err)
	}

	logger.WithField("bytes", downloaded).Info("Download completed")
	return nil
}

// fetch performs the GET for a transfer, following at most one redirect hop.
// A redirect without a Location header, a second redirect, and any other
// non-200 status are all terminal.
func (e *Engine) fetch(ctx context.Context, remoteURL string) (*http.Response, error) {
	resp, err := e.doGet(ctx, remoteURL)
	if err != nil {
		return nil, err
	}

	if !isRedirect(resp.StatusCode) {
		if resp.StatusCode != http.StatusOK {
			drainAndClose(resp)
			return nil, NewHTTPStatusError(remoteURL, resp.StatusCode)
		}
		return resp, nil
	}

	location := resp.Header.Get("Location")
	drainAndClose(resp)
	if location == "" {
		return nil, NewRedirectWithoutLocationError(remoteURL)
	}
	location = resolveLocation(remoteURL, location)

	e.logger.WithField("location", location).Debug("Following redirect")

	resp, err = e.doGet(ctx, location)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		drainAndClose(resp)
		return nil, NewHTTPStatusError(location, resp.StatusCode)
	}
	return resp, nil
}

func (e *Engine) doGet(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &AcquireError{Message: fmt.Sprintf("invalid download URL '%s'", url), Cause: err}
	}
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &AcquireError{Message: fmt.Sprintf("request to %s failed", url), Cause: err}
	}
	return resp, nil
}

// resolveLocation resolves a possibly-relative Location header against the
// URL that produced the redirect.
func resolveLocation(base, location string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return location
	}
	locURL, err := url.Parse(location)
	if err != nil {
		return location
	}
	return baseURL.ResolveReference(locURL).String()
}

func isRedirect(statusCode int) bool {
	switch statusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func drainAndClose(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	resp.Body.Close()
}

func progressPercent(downloaded, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(downloaded) / float64(total) * 100
}
