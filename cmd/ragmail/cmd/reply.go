package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ragmail/internal/common"
	"ragmail/internal/document"
	"ragmail/internal/domain"
	"ragmail/internal/service"
	"ragmail/internal/thread"
	"ragmail/internal/tui"
)

const previewRunes = 500

var (
	replyPDF      string
	replyPersona  string
	replyModel    string
	replyReview   bool
	replyNoLog    bool
	replyEML      bool
	replyUseIndex bool
)

var replyCmd = &cobra.Command{
	Use:   "reply [thread-file|-]",
	Short: "Draft a reply to the newest message of a thread",
	Long: `Draft a reply to the newest message of an email thread.

The thread is read from the given file, or from stdin when the argument is "-"
or missing. Files ending in .eml (or stdin with --eml) are parsed as MIME
messages; their first PDF attachment is used as the reference document unless
--pdf is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		req, err := readThread(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		req.PersonaPath = replyPersona
		req.Model = replyModel
		req.NoLog = replyNoLog
		req.UseIndex = replyUseIndex
		if replyPDF != "" {
			req.DocumentPath = replyPDF
			req.Document = nil
		}

		svc, err := newService(serviceOptions{generate: true, personaPath: replyPersona, noLog: replyNoLog})
		if err != nil {
			return err
		}
		defer svc.Close()

		if req.Document != nil || req.DocumentPath != "" {
			fmt.Fprintln(out, "\nChunking and indexing document...")
		}
		res, err := svc.Reply(cmd.Context(), req)
		if err != nil {
			return err
		}
		printReply(out, res)

		if replyReview {
			review := tui.Review{Thread: res.Thread, Context: res.Context, Reply: res.Reply}
			if res.Index != nil {
				review.Summary = res.Index.Summary
			}
			p := tea.NewProgram(tui.New(cmd.Context(), svc, review), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("review: %w", err)
			}
		}
		return nil
	},
}

// readThread builds a reply request from the thread file or stdin.
func readThread(stdin io.Reader, args []string) (service.ReplyRequest, error) {
	var req service.ReplyRequest
	r, name := stdin, "stdin"
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return req, fmt.Errorf("%w: thread file: %v", domain.ErrConfiguration, err)
		}
		defer f.Close()
		r, name = f, args[0]
	}
	if replyEML || strings.EqualFold(filepath.Ext(name), ".eml") {
		msg, err := thread.ReadMIME(r)
		if err != nil {
			return req, err
		}
		req.RawThread, req.Subject, req.From = msg.Body, msg.Subject, msg.From
		if att, ok := msg.FirstPDF(); ok {
			doc, err := document.LoadPDFBytes(att.FileName, att.Content)
			if err != nil {
				logger.Warnf("skipping attachment %s: %v", att.FileName, err)
			} else {
				req.Document = &doc
			}
		}
		return req, nil
	}
	doc, err := document.ReadText(name, r)
	if err != nil {
		return req, fmt.Errorf("read thread: %w", err)
	}
	req.RawThread = doc.Text
	return req, nil
}

func printReply(w io.Writer, res *service.ReplyResult) {
	heading := color.New(color.FgCyan, color.Bold)
	if res.Index != nil {
		fmt.Fprintf(w, "Indexed %d chunks from %s (%d pages).\n", res.Index.Chunks, res.Index.Source, res.Index.Pages)
	}
	heading.Fprintln(w, "\nCurrent email for context search:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, common.Preview(res.Thread.CurrentMessage, previewRunes))
	fmt.Fprintln(w)
	if res.Context != nil {
		color.New(color.FgGreen).Fprintf(w, "Retrieved %d characters of document context.\n", len([]rune(*res.Context)))
	} else {
		color.New(color.FgYellow).Fprintln(w, "No document context, replying from the thread alone.")
	}
	heading.Fprintln(w, "\n--- GENERATED EMAIL RESPONSE ---")
	fmt.Fprintln(w)
	fmt.Fprintln(w, res.Reply)
	if res.Entry != nil {
		logger.Debugf("logged run %s", res.Entry.ID)
	}
}

func init() {
	replyCmd.Flags().StringVar(&replyPDF, "pdf", "", "reference document to index and retrieve from (.pdf, .txt, .md)")
	replyCmd.Flags().StringVar(&replyPersona, "persona", "", "persona file (default from config)")
	replyCmd.Flags().StringVar(&replyModel, "model", "", "language model (default from config)")
	replyCmd.Flags().BoolVar(&replyReview, "review", false, "open the review screen after drafting")
	replyCmd.Flags().BoolVar(&replyNoLog, "no-log", false, "do not append this run to the run log")
	replyCmd.Flags().BoolVar(&replyEML, "eml", false, "parse the input as a MIME message")
	replyCmd.Flags().BoolVar(&replyUseIndex, "use-index", false, "retrieve from the existing index when no document is given")
	rootCmd.AddCommand(replyCmd)
}
