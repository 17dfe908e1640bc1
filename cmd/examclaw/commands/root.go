// Package commands implements the examclaw CLI commands using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the root command with every subcommand registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "examclaw",
		Short: "Exam ticket answer generator powered by Gemini",
		Long: `examclaw answers the three questions of an exam ticket with Gemini.
Questions are typed in or read off a photo of the ticket; the answer is
printed and can be copied or saved as TXT, DOCX or HTML.

Examples:
  examclaw generate -t 5 -q "Что такое TCP?" -q "Что такое UDP?" -q "Что такое IP?"
  examclaw generate --image ticket.jpg --export docx
  examclaw extract ticket.jpg
  examclaw shell
  examclaw config set-key`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newGenerateCmd(),
		newExtractCmd(),
		newShellCmd(),
		newConfigCmd(),
		newCompletionCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logs")
	rootCmd.PersistentFlags().String("api-key", "", "Gemini API key (overrides every stored key)")

	return rootCmd
}
