package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"medrag/internal/adapter/httpapi"
	"medrag/internal/domain"
	"medrag/internal/port"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive medical chat",
	Long: `Start an interactive chat. Each answer sees the earlier turns of the
conversation. Transcripts are saved so a session can be resumed.

Commands inside the chat:
  /clear   start a fresh conversation
  /exit    leave

Examples:
  medrag chat
  medrag chat --session 6f1c...   # resume a saved session`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatSession, "session", "", "resume a saved session by id")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := buildApp(cfg, log)
	if err != nil {
		return err
	}

	st, err := openHistory(cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer st.Close()

	r := &chatREPL{
		answerer: a.pipeline,
		store:    st,
		out:      cmd.OutOrStdout(),
		spinner:  os.Stderr,
		session:  chatSession,
	}
	return r.run(cmd.Context(), cmd.InOrStdin())
}

type chatREPL struct {
	answerer httpapi.Answerer
	store    port.TranscriptStore
	out      io.Writer
	// spinner receives the "Thinking..." indicator; nil disables it.
	spinner io.Writer

	session string
	history []domain.ConversationTurn
}

func (r *chatREPL) run(ctx context.Context, in io.Reader) error {
	if r.session == "" {
		r.session = uuid.NewString()
	} else {
		turns, err := r.store.LoadTurns(r.session)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		r.history = turns
	}

	fmt.Fprintf(r.out, "Medical Assistant (session %s)\n", r.session)
	fmt.Fprintln(r.out, "Ask me anything about medical conditions, treatments, and health information!")
	if len(r.history) > 0 {
		fmt.Fprintf(r.out, "Resumed with %d earlier messages.\n", len(r.history))
	}

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "\n> ")
		if !sc.Scan() {
			fmt.Fprintln(r.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())

		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			r.session = uuid.NewString()
			r.history = nil
			fmt.Fprintf(r.out, "Chat cleared. New session %s\n", r.session)
			continue
		}

		if err := r.ask(ctx, line); err != nil {
			return err
		}
	}
}

func (r *chatREPL) ask(ctx context.Context, query string) error {
	var (
		result domain.PipelineResult
		err    error
	)
	process := func() {
		result, err = r.answerer.Process(ctx, query, r.history)
	}
	if r.spinner != nil {
		withSpinner(r.spinner, "Thinking...", process)
	} else {
		process()
	}
	if err != nil {
		fmt.Fprintln(r.out, describeError(err))
		return nil
	}

	if err := renderResult(r.out, result, false); err != nil {
		return err
	}

	turns := []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: query},
		{Role: domain.RoleAssistant, Content: result.Answer},
	}
	r.history = append(r.history, turns...)
	if err := r.store.AppendTurns(r.session, turns...); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}
