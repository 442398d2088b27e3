package cli

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docchat/internal/adapter/store"
)

var (
	indexRebuild bool
	infoJSON     bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or load the vector index",
	Long: `Build the vector index from every PDF in the documents directory.
If an index already exists it is loaded and left alone unless --rebuild is given.
The index is stored in <index_dir>/index.db under the root directory.

Examples:
  docchat index              # Build if missing
  docchat index --rebuild    # Re-embed every document`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show metadata of the persisted index",
	Args:  cobra.NoArgs,
	RunE:  runIndexInfo,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexInfoCmd)
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "rebuild even if an index exists")
	indexInfoCmd.Flags().BoolVar(&infoJSON, "json", false, "output as JSON")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	a, err := newApp(cmd.Context(), cfg, root, appOptions{progress: newProgress(cmd)})
	if err != nil {
		return err
	}

	if a.indexer.Exists() && !indexRebuild {
		idx, err := a.indexer.Load()
		if err != nil {
			return fmt.Errorf("failed to load index (run with --rebuild to replace it): %w", err)
		}
		fmt.Fprintf(out(cmd), "Index is present with %d entries, use --rebuild to recompute it.\n", idx.Count())
		return nil
	}

	if err := cfg.EnsureIndexDir(root); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	docsDir := cfg.DocumentsDir(root)
	fmt.Fprintf(out(cmd), "Scanning %s...\n", docsDir)

	result, err := a.pipeline.IngestAndRebuild(cmd.Context(), nil)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintf(out(cmd), "\nIndexing complete:\n")
	fmt.Fprintf(out(cmd), "  Documents:  %d\n", result.Sources)
	fmt.Fprintf(out(cmd), "  Pages:      %d\n", result.Pages)
	fmt.Fprintf(out(cmd), "  Chunks:     %d\n", result.Chunks)
	fmt.Fprintf(out(cmd), "  Duration:   %s\n", formatDuration(result.Duration))
	fmt.Fprintf(out(cmd), "\nIndex stored at: %s\n", a.indexer.Path())
	return nil
}

func runIndexInfo(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	path := cfg.IndexPath(GetRootDir())

	idx, err := store.Load(path, 0)
	if err != nil {
		return err
	}
	info := idx.Info()

	if infoJSON {
		data, _ := json.MarshalIndent(info, "", "  ")
		fmt.Fprintln(out(cmd), string(data))
		return nil
	}

	fmt.Fprintf(out(cmd), "Index:         %s\n", path)
	fmt.Fprintf(out(cmd), "Build:         %s\n", info.BuildID)
	fmt.Fprintf(out(cmd), "Built at:      %s\n", info.BuiltAt.Local().Format(time.RFC1123))
	fmt.Fprintf(out(cmd), "Model:         %s (%d dims)\n", info.Model, info.Dimension)
	fmt.Fprintf(out(cmd), "Entries:       %d\n", info.Entries)
	fmt.Fprintf(out(cmd), "Chunking:      %d chars, %d overlap\n", info.ChunkSize, info.ChunkOverlap)

	reason := store.StaleReason(info, store.BuildParams{
		Model:        cfg.Embedding.Model,
		ChunkSize:    cfg.Chunking.ChunkSize,
		ChunkOverlap: cfg.Chunking.ChunkOverlap,
	})
	if reason != "" {
		fmt.Fprintf(out(cmd), "\nStale: %s. Run 'docchat index --rebuild'.\n", reason)
	}
	return nil
}

// newProgress returns a callback that draws an embedding progress bar once
// the total is known.
func newProgress(cmd *cobra.Command) func(done, total int) {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)

	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
		}

		bar.Set(done)

		if done > 0 {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
