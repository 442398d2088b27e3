package port

import (
	"context"

	"docchat/internal/domain"
)

// PageExtractor pulls per-page text out of a single document file.
type PageExtractor interface {
	// ExtractPages returns one string per page, in page order. Pages without
	// extractable text are returned as empty strings.
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

type Loader interface {
	Load(ctx context.Context, dir string) ([]domain.RawDocumentUnit, error)
}

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}
