package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhitsian/claude-session-manager/claude/models"
)

const timeLayout = "2006-01-02 15:04"

var (
	listLimit      int
	listActiveOnly bool
	messagesLimit  int
	messagesOffset int
	searchContent  bool
)

func init() {
	rootCmd.AddCommand(sessionsCmd, searchCmd, statsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsMessagesCmd, sessionsActiveCmd)

	sessionsListCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum number of sessions (0 for all)")
	sessionsListCmd.Flags().BoolVar(&listActiveOnly, "active", false, "only show active sessions")
	sessionsMessagesCmd.Flags().IntVarP(&messagesLimit, "limit", "n", 20, "maximum number of messages")
	sessionsMessagesCmd.Flags().IntVar(&messagesOffset, "offset", 0, "messages to skip")
	searchCmd.Flags().BoolVar(&searchContent, "content", false, "also search the full session logs")
}

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "Inspect Claude Code sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recently active first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newServer(cmd)
		if err != nil {
			return err
		}

		sessions := srv.Store().List()
		snapshot := srv.Activity().Snapshot()
		for _, s := range sessions {
			s.IsActive = snapshot.IsActive(s.SessionID)
		}
		if listActiveOnly {
			sessions = slices.DeleteFunc(sessions, func(s *models.SessionMetadata) bool { return !s.IsActive })
		}
		if listLimit > 0 && len(sessions) > listLimit {
			sessions = sessions[:listLimit]
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), sessions)
		}
		return printSessionTable(cmd.OutOrStdout(), sessions)
	},
}

var sessionsActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "List sessions Claude Code is currently running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newServer(cmd)
		if err != nil {
			return err
		}

		sessions := []*models.SessionMetadata{}
		for _, id := range srv.Activity().ActiveSessions() {
			meta, err := srv.Store().Get(id)
			if err != nil {
				continue
			}
			meta.IsActive = true
			sessions = append(sessions, meta)
		}
		slices.SortStableFunc(sessions, func(a, b *models.SessionMetadata) int {
			return b.LastActivity.Compare(a.LastActivity)
		})

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), sessions)
		}
		return printSessionTable(cmd.OutOrStdout(), sessions)
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session and its todo list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newServer(cmd)
		if err != nil {
			return err
		}

		id := args[0]
		meta, err := srv.Store().Get(id)
		if err != nil {
			return err
		}
		meta.IsActive = srv.Activity().IsSessionActive(id)
		todos := srv.Store().Todos(id)

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"session": meta, "todos": todos})
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Session:\t%s\n", meta.SessionID)
		fmt.Fprintf(w, "Project:\t%s\n", meta.ProjectPath)
		fmt.Fprintf(w, "Started:\t%s\n", meta.StartTime.Local().Format(timeLayout))
		fmt.Fprintf(w, "Last activity:\t%s\n", meta.LastActivity.Local().Format(timeLayout))
		fmt.Fprintf(w, "Duration:\t%dm\n", meta.DurationMinutes())
		fmt.Fprintf(w, "Messages:\t%d (%d user, %d assistant)\n",
			meta.MessageCount, meta.UserMessageCount, meta.AssistantMessageCount)
		fmt.Fprintf(w, "Tokens:\t%d in, %d out\n", meta.TotalInputTokens, meta.TotalOutputTokens)
		if meta.ModelUsed != "" {
			fmt.Fprintf(w, "Model:\t%s\n", meta.ModelUsed)
		}
		fmt.Fprintf(w, "Active:\t%t\n", meta.IsActive)
		if err := w.Flush(); err != nil {
			return err
		}

		if len(meta.Summaries) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "\nSummaries:")
			for _, s := range meta.Summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", s)
			}
		}
		if len(todos) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "\nTodos:")
			for _, todo := range todos {
				fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s\n", todo.Status, todo.Content)
			}
		}
		return nil
	},
}

var sessionsMessagesCmd = &cobra.Command{
	Use:   "messages <session-id>",
	Short: "Print the conversation of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newServer(cmd)
		if err != nil {
			return err
		}

		messages, err := srv.Store().Messages(args[0], messagesLimit, messagesOffset)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), messages)
		}

		for _, msg := range messages {
			fmt.Fprintf(cmd.OutOrStdout(), "── %s · %s\n", msg.Type, msg.Timestamp.Local().Format(timeLayout))
			if msg.Content != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg.Content)
			}
			for _, call := range msg.ToolCalls {
				fmt.Fprintf(cmd.OutOrStdout(), "[tool: %s]\n", call.Name)
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search sessions by summary and project path",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		if len([]rune(strings.TrimSpace(query))) < 2 {
			return fmt.Errorf("query must be at least 2 characters")
		}

		srv, err := newServer(cmd)
		if err != nil {
			return err
		}

		results := srv.Store().Search(query, searchContent)
		snapshot := srv.Activity().Snapshot()
		for _, s := range results {
			s.IsActive = snapshot.IsActive(s.SessionID)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), results)
		}
		return printSessionTable(cmd.OutOrStdout(), results)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newServer(cmd)
		if err != nil {
			return err
		}

		stats := srv.Store().Stats()
		stats.ActiveSessions = len(srv.Activity().ActiveSessions())
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), stats)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Sessions:\t%d\n", stats.TotalSessions)
		fmt.Fprintf(w, "Messages:\t%d\n", stats.TotalMessages)
		fmt.Fprintf(w, "Active:\t%d\n", stats.ActiveSessions)
		if stats.FirstSessionDate != nil {
			fmt.Fprintf(w, "First session:\t%s\n", *stats.FirstSessionDate)
		}
		if !stats.FromCache {
			fmt.Fprintf(w, "Source:\t%s\n", "recomputed (stats cache unavailable)")
		}
		return w.Flush()
	},
}

func printSessionTable(out io.Writer, sessions []*models.SessionMetadata) error {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROJECT\tMESSAGES\tLAST ACTIVITY\tACTIVE\tSUMMARY")
	for _, s := range sessions {
		active := ""
		if s.IsActive {
			active = "*"
		}
		summary := ""
		if len(s.Summaries) > 0 {
			summary = clip(s.Summaries[0], 60)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			s.SessionID,
			s.ProjectPath,
			s.MessageCount,
			s.LastActivity.Local().Format(timeLayout),
			active,
			summary,
		)
	}
	return w.Flush()
}

// clip shortens s to at most n runes for table cells.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
