package embedding

import "errors"

var (
	// ErrModelUnavailable means the embedding model has not finished loading.
	ErrModelUnavailable = errors.New("embedding model is not yet loaded")

	// ErrEmbedFailed wraps any failure raised while encoding text.
	ErrEmbedFailed = errors.New("embedding generation failed")
)
