package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrInvalidToken = errors.New("invalid or missing access token")
	ErrPageBounds   = errors.New("pages out of allowed range")
	ErrNoProxies    = errors.New("no proxy URLs configured")
)

// FetchError wraps errors that occur while fetching a catalogue page.
// It is returned after the retry budget is exhausted so the caller can
// skip the page instead of aborting the crawl.
type FetchError struct {
	URL        string
	StatusCode int // last status seen, 0 if the failure was transport-level
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch failed for %s after %d attempt(s) (status %d): %v", e.URL, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch failed for %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur while parsing page content.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DownloadError wraps errors that occur while downloading a product image.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("image download failed for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("image download failed for %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// StorageError wraps errors raised by a record store backend.
type StorageError struct {
	Backend string
	Op      string // "load", "save", "close"
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s %s): %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
