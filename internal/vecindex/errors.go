package vecindex

import "errors"

var (
	ErrIndexUnavailable  = errors.New("vector index unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
