package store

import "errors"

var (
	ErrStoreUnavailable = errors.New("document store unavailable")
	ErrDocumentNotFound = errors.New("document not found")
)
