package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index <document>",
	Short: "Build the retrieval index from a document",
	Long: `Chunk, embed and index a document, replacing any previous index.
Later runs of "reply --use-index" and "query" search this index.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(serviceOptions{noLog: true})
		if err != nil {
			return err
		}
		defer svc.Close()

		res, err := svc.IndexPath(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "Indexed %d chunks from %s (%d pages).\n", res.Chunks, res.Source, res.Pages)
		if res.Summary != "" {
			color.New(color.FgCyan, color.Bold).Fprintln(out, "\nSummary:")
			fmt.Fprintln(out, res.Summary)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
