// Package pdf extracts per-page plain text from PDF files.
package pdf

import (
	"context"
	"fmt"

	lpdf "github.com/ledongthuc/pdf"
)

// NativeExtractor reads PDFs in-process.
type NativeExtractor struct{}

func NewNativeExtractor() *NativeExtractor {
	return &NativeExtractor{}
}

// ExtractPages returns the text of every page in order. A page with no
// content stream yields an empty string so that page numbers stay aligned.
func (e *NativeExtractor) ExtractPages(ctx context.Context, path string) (pages []string, err error) {
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf %s: %v", path, r)
		}
	}()

	f, r, err := lpdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}
