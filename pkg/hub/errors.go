package hub

import (
	"errors"
	"fmt"
)

// AcquireError is the base error for the acquisition engine.
type AcquireError struct {
	Message string
	Cause   error
}

func (e *AcquireError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AcquireError) Unwrap() error {
	return e.Cause
}

// AlreadyExistsError is returned when a download target already exists on
// disk, or the same filename is already being transferred. No overwrite
// semantics exist; the request is rejected before any network I/O.
type AlreadyExistsError struct {
	*AcquireError
	Path string
}

func NewAlreadyExistsError(path string) *AlreadyExistsError {
	return &AlreadyExistsError{
		AcquireError: &AcquireError{Message: fmt.Sprintf("file '%s' already exists", path)},
		Path:         path,
	}
}

// DirectoryCreateError is returned when the target's parent directory cannot
// be created. It is fatal for that file only, not for siblings in the set.
type DirectoryCreateError struct {
	*AcquireError
	Dir string
}

func NewDirectoryCreateError(dir string, cause error) *DirectoryCreateError {
	return &DirectoryCreateError{
		AcquireError: &AcquireError{Message: fmt.Sprintf("failed to create directory '%s'", dir), Cause: cause},
		Dir:          dir,
	}
}

// HTTPStatusError is returned for any non-redirect, non-200 response, and for
// a second redirect (the engine follows exactly one hop).
type HTTPStatusError struct {
	*AcquireError
	StatusCode int
	URL        string
}

func NewHTTPStatusError(url string, statusCode int) *HTTPStatusError {
	return &HTTPStatusError{
		AcquireError: &AcquireError{Message: fmt.Sprintf("HTTP %d from %s", statusCode, url)},
		StatusCode:   statusCode,
		URL:          url,
	}
}

// RedirectWithoutLocationError is returned when a 301/302 response carries no
// Location header.
type RedirectWithoutLocationError struct {
	*AcquireError
	URL string
}

func NewRedirectWithoutLocationError(url string) *RedirectWithoutLocationError {
	return &RedirectWithoutLocationError{
		AcquireError: &AcquireError{Message: fmt.Sprintf("redirect from %s carried no Location header", url)},
		URL:          url,
	}
}

// IOError is returned for stream or filesystem failures mid-transfer. The
// partial file has been deleted by the time this error is returned.
type IOError struct {
	*AcquireError
	Path string
}

func NewIOError(path string, cause error) *IOError {
	return &IOError{
		AcquireError: &AcquireError{Message: fmt.Sprintf("I/O error while downloading '%s'", path), Cause: cause},
		Path:         path,
	}
}

// CancelledError is returned when a transfer was cancelled cooperatively.
// The partial file has been deleted from disk.
type CancelledError struct {
	*AcquireError
	Path string
}

func NewCancelledError(path string) *CancelledError {
	return &CancelledError{
		AcquireError: &AcquireError{Message: fmt.Sprintf("download of '%s' was cancelled", path)},
		Path:         path,
	}
}

// IsCancelled reports whether err wraps a CancelledError.
func IsCancelled(err error) bool {
	var cancelled *CancelledError
	return errors.As(err, &cancelled)
}

// IsAlreadyExists reports whether err wraps an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var exists *AlreadyExistsError
	return errors.As(err, &exists)
}
