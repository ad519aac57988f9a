package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
)

var watchCmd = &cobra.Command{
	Use:   "watch [doc-id]",
	Short: "Follow document processing live",
	Long: `Follow a document's OCR processing over the notification channel.

Prints every status change, progress update and connection change. Exits
once processing completes or fails, unless --follow is given, in which case
it keeps printing until interrupted (including answers to questions asked
from other clients).`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var askCmd = &cobra.Command{
	Use:   "ask [doc-id] [question]",
	Short: "Ask a question about a document",
	Long: `Ask a question about the extracted text of a document.

If the document is still processing, ask waits for processing to finish
(see --wait) before submitting the question. The answer is printed once it
arrives.

Examples:
  ocrchat ask 4f1c "What is the invoice total?"
  ocrchat ask 4f1c who signed this`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

// Flags for session commands.
var (
	watchFollow bool
	askWait     time.Duration
)

func init() {
	watchCmd.Flags().BoolVarP(&watchFollow, "follow", "f", false, "Keep watching after processing finishes")
	askCmd.Flags().DurationVar(&askWait, "wait", 5*time.Minute, "How long to wait for processing to finish")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(askCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	return followDocument(cmd, args[0], watchFollow)
}

// followDocument prints lifecycle changes until processing ends, or until
// interrupted when follow is set.
func followDocument(cmd *cobra.Command, documentID string, follow bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	session, err := openSession(ctx, documentID)
	if err != nil {
		return err
	}
	defer session.Close()

	p := &lifecyclePrinter{cmd: cmd}
	view := session.View()
	p.print(view)
	if !follow && view.Document.Status.IsTerminal() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-session.Deleted():
			cmd.Println("Document was deleted.")
			return domain.ErrDocumentDeleted
		case v, ok := <-session.Updates():
			if !ok {
				return sessionEnded(session.View())
			}
			p.print(v)
			if v.Err != nil {
				return v.Err
			}
			if !follow && v.Loaded && v.Document.Status.IsTerminal() {
				return nil
			}
		}
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	documentID := args[0]
	question := strings.TrimSpace(strings.Join(args[1:], " "))
	if question == "" {
		return fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	session, err := openSession(ctx, documentID)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := waitForCompleted(ctx, cmd, session, askWait); err != nil {
		return err
	}

	answer, err := session.Ask(ctx, question)
	if err != nil {
		return fmt.Errorf("failed to ask: %w", err)
	}

	cmd.Println(answer.Content)
	return nil
}

func openSession(ctx context.Context, documentID string) (driving.DocumentSession, error) {
	if sessionFactory == nil {
		return nil, errors.New("session factory not configured")
	}

	watchConfig(ctx)

	session := sessionFactory.Open(documentID)
	if err := session.Start(ctx); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return session, nil
}

// waitForCompleted blocks until the document can be asked about.
func waitForCompleted(ctx context.Context, cmd *cobra.Command, session driving.DocumentSession, limit time.Duration) error {
	if session.View().Document.Status != domain.StatusCompleted {
		cmd.Println("Waiting for processing to finish...")
	}

	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	view, err := session.WaitSettled(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: document still processing after %s", domain.ErrTimeout, limit)
	}
	if err != nil {
		return err
	}
	if view.Document.Status == domain.StatusFailed {
		return fmt.Errorf("document processing failed: %s", failureText(view.Document))
	}
	return nil
}

func sessionEnded(v domain.SessionView) error {
	if v.Err != nil {
		return v.Err
	}
	if v.Deleted {
		return domain.ErrDocumentDeleted
	}
	return domain.ErrSessionClosed
}

func failureText(doc domain.Document) string {
	if doc.FailureReason != "" {
		return doc.FailureReason
	}
	return "unknown error"
}

// lifecyclePrinter prints only what changed between two views.
type lifecyclePrinter struct {
	cmd      *cobra.Command
	started  bool
	status   domain.DocumentStatus
	progress float64
	conn     domain.ConnectionState
	messages int
}

func (p *lifecyclePrinter) print(v domain.SessionView) {
	if !v.Loaded {
		return
	}
	if !p.started {
		p.started = true
		p.cmd.Printf("%s (%s)\n", v.Document.DisplayName(), v.Document.ID)
		p.conn = v.Connection
		p.messages = len(v.Transcript)
		p.printStatus(v)
		return
	}

	if v.Connection != p.conn {
		p.conn = v.Connection
		p.cmd.Printf("  connection: %s\n", v.Connection)
	}
	if v.Document.Status != p.status {
		p.printStatus(v)
	} else if v.Document.Status == domain.StatusProcessing && v.Progress != p.progress {
		p.progress = v.Progress
		p.cmd.Printf("  progress: %.0f%%\n", v.Progress)
	}
	for _, m := range v.Transcript[min(p.messages, len(v.Transcript)):] {
		p.cmd.Printf("  %s: %s\n", roleLabel(m.Role), m.Content)
	}
	p.messages = len(v.Transcript)
}

func (p *lifecyclePrinter) printStatus(v domain.SessionView) {
	p.status = v.Document.Status
	p.progress = v.Progress
	switch v.Document.Status {
	case domain.StatusCompleted:
		p.cmd.Printf("  status: %s (%d characters extracted)\n", v.Document.Status.Label(), len(v.Document.ExtractedText))
	case domain.StatusFailed:
		p.cmd.Printf("  status: %s: %s\n", v.Document.Status.Label(), failureText(v.Document))
	default:
		p.cmd.Printf("  status: %s\n", v.Document.Status.Label())
	}
}
