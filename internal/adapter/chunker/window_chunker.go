package chunker

import (
	"fmt"

	"docchat/internal/domain"
)

// WindowChunker splits text with a forward sliding window measured in
// characters (runes). Chunk i starts at i*(size-overlap).
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunker requires 0 <= overlap < size (got size=%d overlap=%d)",
			domain.ErrConfig, size, overlap)
	}
	return &WindowChunker{
		size:    size,
		overlap: overlap,
	}, nil
}

func (c *WindowChunker) Size() int    { return c.size }
func (c *WindowChunker) Overlap() int { return c.overlap }

// Split chunks every unit in order. Empty units produce no chunks.
func (c *WindowChunker) Split(units []domain.RawDocumentUnit) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, u := range units {
		chunks = append(chunks, c.splitUnit(u)...)
	}
	return chunks, nil
}

func (c *WindowChunker) splitUnit(u domain.RawDocumentUnit) []domain.Chunk {
	runes := []rune(u.Text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []domain.Chunk

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, domain.Chunk{
			Text:       string(runes[start:end]),
			SourcePath: u.SourcePath,
			PageNumber: u.PageNumber,
			CharStart:  start,
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// Reconstruct reverses Split for the chunks of a single unit by dropping the
// part of each chunk that overlaps its predecessor.
func Reconstruct(chunks []domain.Chunk) string {
	var out []rune
	for _, ch := range chunks {
		runes := []rune(ch.Text)
		skip := len(out) - ch.CharStart
		if skip < 0 {
			skip = 0
		}
		if skip > len(runes) {
			skip = len(runes)
		}
		out = append(out, runes[skip:]...)
	}
	return string(out)
}
