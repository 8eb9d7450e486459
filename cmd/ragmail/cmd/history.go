package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ragmail/internal/common"
	"ragmail/internal/runlog"
)

var historyN int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent entries of the run log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := runlog.New(cfg.RunLog.Path).Tail(historyN)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintf(out, "No runs logged in %s.\n", cfg.RunLog.Path)
			return nil
		}
		label := color.New(color.FgCyan, color.Bold).SprintFunc()
		for _, e := range entries {
			note := "no context"
			if e.RetrievedContext != nil {
				note = fmt.Sprintf("%d chars of context", len([]rune(*e.RetrievedContext)))
			}
			fmt.Fprintf(out, "%s  %s  %s  %s\n", label(e.Timestamp.Format("2006-01-02 15:04:05")), e.ID, e.Model, note)
			fmt.Fprintf(out, "  Q: %s\n", common.Preview(oneLine(e.QueryEmail), 100))
			fmt.Fprintf(out, "  A: %s\n\n", common.Preview(oneLine(e.GeneratedReply), 100))
		}
		return nil
	},
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	historyCmd.Flags().IntVarP(&historyN, "limit", "n", 10, "number of most recent entries to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
