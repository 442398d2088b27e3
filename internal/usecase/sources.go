package usecase

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"docchat/internal/domain"
)

// Sources groups retrieved chunks by document. Documents keep the rank of
// their best chunk; pages are listed in ascending order without repeats.
func Sources(chunks []domain.ScoredChunk) []domain.Source {
	if len(chunks) == 0 {
		return nil
	}

	byPath := make(map[string]int)
	out := make([]domain.Source, 0, len(chunks))
	seenPage := make(map[string]map[int]bool)

	for _, c := range chunks {
		path := c.Chunk.SourcePath
		i, ok := byPath[path]
		if !ok {
			i = len(out)
			byPath[path] = i
			out = append(out, domain.Source{Path: path, Score: c.Score})
			seenPage[path] = make(map[int]bool)
		}
		if c.Score > out[i].Score {
			out[i].Score = c.Score
		}
		if p := c.Chunk.PageNumber; p > 0 && !seenPage[path][p] {
			seenPage[path][p] = true
			out[i].Pages = append(out[i].Pages, p)
		}
	}

	for i := range out {
		sort.Ints(out[i].Pages)
	}
	return out
}

// FormatSource renders a source as "name.pdf (p. 1, 3)".
func FormatSource(s domain.Source) string {
	name := filepath.Base(s.Path)
	if len(s.Pages) == 0 {
		return name
	}
	pages := make([]string, len(s.Pages))
	for i, p := range s.Pages {
		pages[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("%s (p. %s)", name, strings.Join(pages, ", "))
}
