package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docchat/internal/domain"
	"docchat/internal/usecase"
)

var (
	searchText string
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show the chunks retrieved for a question",
	Long: `Embed the question and print the nearest chunks from the index, with scores.

Examples:
  docchat search -q "refund policy"
  docchat search -q "setup fee" --top-k 10 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

// SearchResult is a retrieved chunk for CLI output.
type SearchResult struct {
	Path      string  `json:"path"`
	Page      int     `json:"page"`
	CharStart int     `json:"char_start"`
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := newApp(cmd.Context(), cfg, GetRootDir(), appOptions{})
	if err != nil {
		return err
	}
	if !a.indexer.Exists() {
		return fmt.Errorf("no index found. Run 'docchat index' first")
	}

	idx, err := a.indexer.Load()
	if err != nil {
		return err
	}
	a.retriever.SetIndex(idx)

	topK := cfg.Retrieve.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	chunks, err := a.retriever.Search(cmd.Context(), searchText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, SearchResult{
			Path:      c.Chunk.SourcePath,
			Page:      c.Chunk.PageNumber,
			CharStart: c.Chunk.CharStart,
			Score:     c.Score,
			Text:      c.Chunk.Text,
		})
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Fprintln(out(cmd), string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Fprintln(out(cmd), "No results found.")
		return nil
	}
	fmt.Fprintf(out(cmd), "Found %d results for: %s\n\n", len(results), searchText)
	for i, r := range results {
		fmt.Fprintf(out(cmd), "--- [%d] %s (score: %.3f) ---\n", i+1, usecase.FormatSource(sourceOf(r)), r.Score)
		fmt.Fprintln(out(cmd), truncate(r.Text, 500))
		fmt.Fprintln(out(cmd))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func sourceOf(r SearchResult) domain.Source {
	s := domain.Source{Path: r.Path, Score: r.Score}
	if r.Page > 0 {
		s.Pages = []int{r.Page}
	}
	return s
}
