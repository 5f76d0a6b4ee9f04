package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInputNotFound       = errors.New("input file not found")
	ErrInvalidJSON         = errors.New("invalid JSON")
	ErrUnsupportedShape    = errors.New("unsupported input shape")
	ErrNoValidComments     = errors.New("no valid comments after filtering")
	ErrEmbedderUnavailable = errors.New("embedder unavailable")
	ErrInvalidConfig       = errors.New("invalid configuration")
)
