package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"docchat/internal/domain"
	"docchat/internal/logger"
	"docchat/internal/port"
)

// DirectoryLoader turns every matching file under a directory into one unit
// per page.
type DirectoryLoader struct {
	walker    port.FileWalker
	extractor port.PageExtractor
	log       *slog.Logger
}

func NewDirectoryLoader(walker port.FileWalker, extractor port.PageExtractor, log *slog.Logger) *DirectoryLoader {
	if log == nil {
		log = logger.Discard()
	}
	return &DirectoryLoader{
		walker:    walker,
		extractor: extractor,
		log:       log,
	}
}

// Load returns the pages of every file in discovery order. Pages without text
// are kept as empty units. A directory with no matching files yields an empty
// result.
func (l *DirectoryLoader) Load(ctx context.Context, dir string) ([]domain.RawDocumentUnit, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: documents directory: %v", domain.ErrIngestion, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", domain.ErrIngestion, dir)
	}

	files, err := l.walker.Walk(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %v", domain.ErrIngestion, dir, err)
	}

	var units []domain.RawDocumentUnit
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pages, err := l.extractor.ExtractPages(ctx, file.Path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrIngestion, file.Path, err)
		}

		for i, text := range pages {
			units = append(units, domain.RawDocumentUnit{
				SourcePath: file.Path,
				PageNumber: i + 1,
				Text:       text,
			})
		}
		l.log.Debug("loaded document", "path", file.Path, "pages", len(pages))
	}

	l.log.Info("documents loaded", "dir", dir, "files", len(files), "pages", len(units))
	return units, nil
}
