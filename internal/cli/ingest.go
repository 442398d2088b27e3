package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"docchat/internal/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf>...",
	Short: "Copy PDFs into the documents directory and rebuild the index",
	Long: `Copy the given PDFs into the documents directory under their base names and
rebuild the whole index. A file with the same name as an existing document
replaces it.

Examples:
  docchat ingest ~/Downloads/handbook.pdf
  docchat ingest a.pdf b.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	uploads, err := readUploads(args)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), GetConfig(), GetRootDir(), appOptions{progress: newProgress(cmd)})
	if err != nil {
		return err
	}

	result, err := a.pipeline.IngestAndRebuild(cmd.Context(), uploads)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Fprintf(out(cmd), "Ingested %d file(s). Index now holds %d chunks from %d documents.\n",
		len(uploads), result.Chunks, result.Sources)
	return nil
}

func readUploads(paths []string) ([]domain.Upload, error) {
	uploads := make([]domain.Upload, 0, len(paths))
	for _, p := range paths {
		if !strings.EqualFold(filepath.Ext(p), ".pdf") {
			return nil, fmt.Errorf("%w: %s is not a PDF", domain.ErrIngestion, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrIngestion, err)
		}
		uploads = append(uploads, domain.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads, nil
}
