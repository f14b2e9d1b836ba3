package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhitsian/claude-session-manager/continuation"
)

var (
	contextNoFiles  bool
	contextNoTodos  bool
	contextMessages int
)

func init() {
	rootCmd.AddCommand(contextCmd)

	defaults := continuation.DefaultOptions()
	contextCmd.Flags().BoolVar(&contextNoFiles, "no-files", false, "leave out key files")
	contextCmd.Flags().BoolVar(&contextNoTodos, "no-todos", false, "leave out pending todos")
	contextCmd.Flags().IntVarP(&contextMessages, "messages", "m", defaults.MaxRecentMessages, "recent messages to include")
}

var contextCmd = &cobra.Command{
	Use:   "context <session-id>",
	Short: "Print a continuation document for resuming a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if contextMessages < 0 {
			return fmt.Errorf("--messages must not be negative")
		}

		srv, err := newServer(cmd)
		if err != nil {
			return err
		}

		ctx, err := srv.Synthesizer().Generate(args[0], continuation.Options{
			IncludeFiles:      !contextNoFiles,
			IncludeTodos:      !contextNoTodos,
			MaxRecentMessages: contextMessages,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), ctx)
		}
		fmt.Fprint(cmd.OutOrStdout(), ctx.ContinuationPrompt)
		fmt.Fprintf(cmd.ErrOrStderr(), "\n# ~%d tokens · resume with: %s\n", ctx.EstimatedTokens, ctx.ResumeCommand)
		return nil
	},
}
