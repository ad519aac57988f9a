package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history [doc-id]",
	Short: "Show documents cached on this machine",
	Long: `Show the local copy of documents you have viewed, without contacting
the service. With a document ID, prints the cached status, text and
conversation of that document.

The cache is kept while cache.enabled is true.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if len(args) == 1 {
		snap, err := documentService.Cached(cmd.Context(), args[0])
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %s is not cached: %w", args[0], err)
		}
		if err != nil {
			return fmt.Errorf("failed to read cache: %w", err)
		}
		printSnapshot(cmd, snap, true)
		return nil
	}

	docs, err := documentService.History(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No cached documents.")
		return nil
	}

	printDocuments(cmd, docs)
	cmd.Printf("Total: %d cached documents\n", len(docs))
	return nil
}
