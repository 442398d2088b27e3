package port

import "docchat/internal/domain"

type Chunker interface {
	Split(units []domain.RawDocumentUnit) ([]domain.Chunk, error)
}
