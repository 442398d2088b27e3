package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	promptText    string
	promptPersona string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the prompt that would be sent to the model",
	Long: `Retrieve context for the question and print the rendered persona prompt
without calling the model. Useful for inspecting retrieval and templates or for
pasting into another tool.

Examples:
  docchat prompt -q "How do I reset the device?"
  docchat prompt -q "What is included?" --persona technical`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptText, "query", "q", "", "question (required)")
	promptCmd.Flags().StringVarP(&promptPersona, "persona", "p", "", "persona template (default from config)")
	promptCmd.MarkFlagRequired("query")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), GetConfig(), GetRootDir(), appOptions{progress: newProgress(cmd)})
	if err != nil {
		return err
	}

	if err := a.pipeline.Start(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	text, _, err := a.pipeline.Prompt(cmd.Context(), promptText, promptPersona)
	if err != nil {
		return err
	}
	fmt.Fprintln(out(cmd), text)
	return nil
}
