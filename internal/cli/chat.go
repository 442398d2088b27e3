package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"docchat/internal/prompt"
	"docchat/internal/usecase"
)

var chatMetricsAddr string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat over the documents",
	Long: `Start an interactive session. Each line is a question; the conversation so far
is included in every prompt.

Commands:
  /persona [name]    show or switch the persona
  /history           print the conversation so far
  /ingest <file>...  add PDFs and rebuild the index
  /reset             forget the conversation
  /quit              leave`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, GetConfig(), GetRootDir(), appOptions{
		withGenerator: true,
		progress:      newProgress(cmd),
	})
	if err != nil {
		return err
	}

	if chatMetricsAddr != "" {
		go func() {
			if err := serveMetrics(ctx, chatMetricsAddr, a); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	if err := a.pipeline.Start(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\nAnswers will not use document context until documents are ingested.\n", err)
	}

	s := &chatSession{pipeline: a.pipeline, out: out(cmd), errOut: cmd.ErrOrStderr()}
	return s.run(ctx, cmd.InOrStdin())
}

type chatSession struct {
	pipeline *usecase.Pipeline
	out      io.Writer
	errOut   io.Writer
}

func (s *chatSession) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(s.out, "Chatting as %s. Type /quit to leave.\n", s.pipeline.ActivePersona().DisplayName())

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := s.command(ctx, line); quit {
				return nil
			}
			continue
		}

		res, err := s.pipeline.Answer(ctx, line, "")
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(s.errOut, "Error: %v\n", err)
			continue
		}
		printAnswer(s.out, res)
		fmt.Fprintln(s.out)
	}
}

// command handles a slash command and reports whether the session should end.
func (s *chatSession) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/persona":
		if len(fields) == 1 {
			active := s.pipeline.ActivePersona()
			for _, p := range prompt.All() {
				marker := " "
				if p == active {
					marker = "*"
				}
				fmt.Fprintf(s.out, "%s %-10s %s\n", marker, p.String(), p.DisplayName())
			}
			return false
		}
		name := strings.Join(fields[1:], " ")
		if err := s.pipeline.SelectPersona(name); err != nil {
			fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(s.out, "Now answering as %s.\n", s.pipeline.ActivePersona().DisplayName())

	case "/history":
		turns := s.pipeline.History()
		if len(turns) == 0 {
			fmt.Fprintln(s.out, "No conversation yet.")
		}
		for _, t := range turns {
			fmt.Fprintf(s.out, "%s: %s\n", t.Role, t.Content)
		}

	case "/reset":
		s.pipeline.ResetHistory()
		fmt.Fprintln(s.out, "Conversation cleared.")

	case "/ingest":
		if len(fields) == 1 {
			fmt.Fprintln(s.errOut, "Usage: /ingest <file.pdf>...")
			return false
		}
		uploads, err := readUploads(fields[1:])
		if err != nil {
			fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return false
		}
		result, err := s.pipeline.IngestAndRebuild(ctx, uploads)
		if err != nil {
			fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(s.out, "Index rebuilt: %d chunks from %d documents.\n", result.Chunks, result.Sources)

	default:
		fmt.Fprintf(s.errOut, "Unknown command %s\n", fields[0])
	}
	return false
}
