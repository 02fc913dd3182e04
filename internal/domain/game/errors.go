// Package game defines the failure taxonomy shared by the blind-test pipeline.
package game

import (
	"github.com/cockroachdb/errors"
)

// Domain failures. Components mark their wrapped causes with these so callers
// can match them with errors.Is while the message keeps the underlying detail.
var (
	ErrEmptyCatalog       = errors.New("playlist is empty or not accessible")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrNoMediaFound       = errors.New("no media found")
	ErrAuthRequired       = errors.New("download credentials required")
	ErrDownloadFailed     = errors.New("download failed")
	ErrClipTooShort       = errors.New("clip too short")
)

// Error codes reported alongside failure messages.
const (
	CodeEmptyCatalog       = "empty_catalog"
	CodeCatalogUnavailable = "catalog_unavailable"
	CodeNoMediaFound       = "no_media_found"
	CodeAuthRequired       = "auth_required"
	CodeDownloadFailed     = "download_failed"
	CodeClipTooShort       = "clip_too_short"
	CodeInternal           = "internal"
)

// Code returns the code of the domain failure carried by err.
// Unclassified errors map to CodeInternal.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyCatalog):
		return CodeEmptyCatalog
	case errors.Is(err, ErrCatalogUnavailable):
		return CodeCatalogUnavailable
	case errors.Is(err, ErrNoMediaFound):
		return CodeNoMediaFound
	case errors.Is(err, ErrAuthRequired):
		return CodeAuthRequired
	case errors.Is(err, ErrDownloadFailed):
		return CodeDownloadFailed
	case errors.Is(err, ErrClipTooShort):
		return CodeClipTooShort
	default:
		return CodeInternal
	}
}
