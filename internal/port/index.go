package port

import "docchat/internal/domain"

// VectorIndex is a searchable set of embedded chunks.
type VectorIndex interface {
	// Search returns up to k entries ordered by descending similarity.
	Search(query []float32, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of entries in the index.
	Count() int

	// Dimension returns the vector dimension of the index.
	Dimension() int
}
