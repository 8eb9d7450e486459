package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragmail/internal/common"
	"ragmail/internal/config"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.AppConfig
	logger *common.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ragmail",
	Short: "Draft email replies grounded in a reference document",
	Long: `ragmail drafts a reply to the newest message of an email thread in a fixed
persona voice. When a reference document is given, it is chunked, embedded and
indexed, and the passages most relevant to the message are added to the prompt.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		logger = common.NewLogger(verbose)
		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
			return err
		}
		var path string
		cfg, path, err = config.LoadDefault()
		if err == nil {
			logger.Debugf("using config %s", path)
		}
		return err
	},
}

// Execute runs the CLI. Errors are printed with an "Error:" prefix and the process still exits 0.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(rootCmd.OutOrStdout(), err)
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "\n%s %v\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./ragmail.yaml, ./ragmail.toml or ~/.config/ragmail/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages to stderr")
}
