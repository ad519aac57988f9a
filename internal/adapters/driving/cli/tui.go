package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui [doc-id]",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface.

Lists your documents; opening one shows its OCR progress and extracted
text live, and a chat pane for questions once processing completes.
Pass a document ID to open it directly.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Actions / Ask
  Tab      - Switch between text and chat
  Esc      - Back
  q        - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(documentService, sessionFactory))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	watchConfig(cmd.Context())

	app.WithContext(cmd.Context())
	if len(args) == 1 {
		app.WithDocument(args[0])
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
