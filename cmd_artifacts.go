package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhitsian/claude-session-manager/claude/models"
)

var artifactsLimit int

func init() {
	rootCmd.AddCommand(artifactsCmd)
	artifactsCmd.AddCommand(artifactsListCmd, artifactsStatsCmd, artifactsShowCmd)

	artifactsListCmd.Flags().IntVarP(&artifactsLimit, "limit", "n", 0, "maximum number of artifacts (default from config)")
	artifactsListCmd.Flags().String("session", "", "only list files touched by this session")
}

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Inspect files created and edited in sessions",
}

var artifactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently created or edited files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newServer(cmd)
		if err != nil {
			return err
		}

		limit := artifactsLimit
		if limit <= 0 {
			limit = srv.Config().MaxArtifacts
		}

		var artifacts []*models.Artifact
		if session, _ := cmd.Flags().GetString("session"); session != "" {
			if artifacts, err = srv.Artifacts().SessionArtifacts(session); err != nil {
				return err
			}
		} else {
			artifacts = srv.Artifacts().All(limit)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), artifacts)
		}
		if len(artifacts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No artifacts found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PATH\tTYPE\tOP\tSIZE\tSESSION\tWHEN\tEXISTS")
		for _, a := range artifacts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%t\n",
				a.FilePath,
				a.FileType,
				a.Operation,
				a.SizeBytes,
				a.SessionID,
				a.Timestamp.Local().Format(timeLayout),
				a.Exists,
			)
		}
		return w.Flush()
	},
}

var artifactsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recent artifacts by type and session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newServer(cmd)
		if err != nil {
			return err
		}

		stats := srv.Artifacts().Stats()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), stats)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Artifacts:\t%d\n", stats.TotalArtifacts)
		fmt.Fprintf(w, "Sessions:\t%d\n", stats.SessionsWithArtifacts)
		fmt.Fprintf(w, "Total size:\t%d bytes\n", stats.TotalSizeBytes)

		types := make([]string, 0, len(stats.ByType))
		for t := range stats.ByType {
			types = append(types, t)
		}
		slices.Sort(types)
		for _, t := range types {
			fmt.Fprintf(w, "  %s\t%d\n", t, stats.ByType[t])
		}
		return w.Flush()
	},
}

var artifactsShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print the current contents of an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newServer(cmd)
		if err != nil {
			return err
		}

		path := args[0]
		artifact, ok := srv.Artifacts().Lookup(path)
		if !ok {
			return fmt.Errorf("no session created or edited %s", path)
		}
		content, err := srv.Artifacts().Content(path)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"file_path": artifact.FilePath,
				"file_type": artifact.FileType,
				"mime_type": artifact.MimeType,
				"content":   content,
			})
		}
		fmt.Fprint(cmd.OutOrStdout(), content)
		if !strings.HasSuffix(content, "\n") {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}
