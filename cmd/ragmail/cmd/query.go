package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ragmail/internal/common"
	"ragmail/internal/vectorstore/sqlite"
)

var queryK int

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Search the index for passages similar to text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(serviceOptions{noLog: true})
		if err != nil {
			return err
		}
		defer svc.Close()

		results, err := svc.Search(cmd.Context(), strings.Join(args, " "), common.ClampInt(queryK, 1, 50))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if cfg.VectorStore.Type == "sqlite" {
			meta, err := sqlite.NewStorage(sqlite.Config{Path: cfg.VectorStore.Path}).Stat(cmd.Context())
			if err != nil {
				return err
			}
			color.New(color.Faint).Fprintf(out, "Index %s: %d chunks, embedder %s, built %s\n\n",
				cfg.VectorStore.Path, meta.Count, meta.Embedder, meta.BuiltAt.Local().Format("2006-01-02 15:04"))
		}
		label := color.New(color.FgCyan, color.Bold).SprintFunc()
		for i, r := range results {
			fmt.Fprintf(out, "%s chunk=%d score=%.3f\n", label(fmt.Sprintf("#%d", i+1)), r.Chunk.Index, r.Score)
			fmt.Fprintln(out, common.Preview(strings.TrimSpace(r.Chunk.Content), 300))
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "top-k", "k", 4, "number of passages to return")
	rootCmd.AddCommand(queryCmd)
}
