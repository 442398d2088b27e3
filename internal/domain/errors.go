package domain

import "errors"

var (
	// ErrIngestion covers a missing document directory or an unreadable PDF.
	ErrIngestion = errors.New("ingestion failed")

	// ErrConfig covers invalid chunk parameters and unknown personas.
	ErrConfig = errors.New("invalid configuration")

	// ErrIndexCorrupt means the persisted index could not be read back, or was
	// built with a different embedding dimension.
	ErrIndexCorrupt = errors.New("index corrupt")

	ErrIndexNotFound = errors.New("index not found")

	// ErrEmptyIndex is returned by a search against an index with no entries.
	ErrEmptyIndex = errors.New("index is empty")

	ErrGeneration = errors.New("generation failed")
	ErrEmbedding  = errors.New("embedding failed")
)
