package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docchat/internal/prompt"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the available personas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		active, err := prompt.ParsePersona(GetConfig().Persona)
		if err != nil {
			return err
		}
		for _, p := range prompt.All() {
			marker := " "
			if p == active {
				marker = "*"
			}
			fmt.Fprintf(out(cmd), "%s %-10s %s\n", marker, p.String(), p.DisplayName())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(personasCmd)
}
