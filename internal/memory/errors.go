package memory

import "errors"

var (
	// ErrQueryFailed wraps any failure reported by the storage engine.
	ErrQueryFailed = errors.New("query execution failed")

	// ErrInvalidRecord is returned for records that cannot be embedded or stored.
	ErrInvalidRecord = errors.New("invalid memory record")

	// ErrInvalidTopK is returned when a similarity search asks for a non-positive result count.
	ErrInvalidTopK = errors.New("top_k must be a positive integer")
)
