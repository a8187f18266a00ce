package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flashclev",
		Short: "Book discovery and deep-reading companion powered by LLMs",
		Long: `Flashclev turns a self-improvement goal or a book name into guided reading.

It suggests books for a stated goal, resolves cover art through a chain of
public catalog lookups and generative fallbacks, and hosts turn-based tutor
conversations that deepen understanding of a chosen book or chapter.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())

	return cmd
}
