package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docchat/config"
	"docchat/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
	log     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with a folder of PDF documents",
	Long: `docchat indexes the PDFs in a documents directory into a local vector index
and answers questions about them with a language model, citing the pages it used.

Example usage:
  docchat index                       # Build the index from ./data
  docchat ingest manual.pdf           # Add a document and rebuild
  docchat ask -q "What is covered?"   # One-shot question
  docchat chat                        # Interactive session`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}
		rootDir, err = filepath.Abs(rootDir)
		if err != nil {
			return fmt.Errorf("invalid root directory: %w", err)
		}

		// a missing .env is fine; variables may come from the environment
		_ = godotenv.Load(filepath.Join(rootDir, ".env"))

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		log, err = logger.New(level, cfg.Logging.Format, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docchat.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
