package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"docchat/internal/usecase"
)

var (
	askText    string
	askPersona string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a single question from the documents",
	Long: `Retrieve the most relevant chunks, build the persona prompt and ask the model.

Examples:
  docchat ask -q "What does the warranty cover?"
  docchat ask -q "Summarise the pricing" --persona sales`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question (required)")
	askCmd.Flags().StringVarP(&askPersona, "persona", "p", "", "persona to answer as (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), GetConfig(), GetRootDir(), appOptions{
		withGenerator: true,
		progress:      newProgress(cmd),
	})
	if err != nil {
		return err
	}

	if err := a.pipeline.Start(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	res, err := a.pipeline.Answer(cmd.Context(), askText, askPersona)
	if err != nil {
		return err
	}

	if askJSON {
		output, _ := json.MarshalIndent(res, "", "  ")
		fmt.Fprintln(out(cmd), string(output))
		return nil
	}
	printAnswer(out(cmd), res)
	return nil
}

func printAnswer(w io.Writer, res *usecase.AnswerResult) {
	fmt.Fprintln(w, res.Answer)
	if len(res.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for _, s := range res.Sources {
			fmt.Fprintf(w, "  - %s\n", usecase.FormatSource(s))
		}
	}
	if res.Degraded {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "(no index available: answered without document context)")
	}
}
