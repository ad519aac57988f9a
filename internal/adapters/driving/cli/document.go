package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04:05"

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage uploaded documents",
	Long:    `Upload, list, view, download or delete documents on the OCR service.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document status, text and conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a JPEG, PNG or PDF for OCR",
	Long: `Upload a file for OCR processing.

Only JPEG, PNG and PDF files up to 10 MB are accepted. The file is checked
locally before anything is sent. Use --watch to follow processing until it
finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentUpload,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentDownloadCmd = &cobra.Command{
	Use:   "download [doc-id]",
	Short: "Download the originally uploaded file",
	Long: `Download the file a document was created from.

The file is saved under its original name in the current directory unless
--output is given. Use --output - to write to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentDownload,
}

// Flags for document commands.
var (
	documentGetNoText bool
	uploadWatch       bool
	downloadOutput    string
)

func init() {
	documentGetCmd.Flags().BoolVar(&documentGetNoText, "no-text", false, "Omit the extracted text")
	documentUploadCmd.Flags().BoolVarP(&uploadWatch, "watch", "w", false, "Follow processing after upload")
	documentDownloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "Destination file (default: original name)")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentUploadCmd)
	documentCmd.AddCommand(documentDownloadCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents yet. Upload one with: ocrchat document upload <file>")
		return nil
	}

	printDocuments(cmd, docs)
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func printDocuments(cmd *cobra.Command, docs []domain.Document) {
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Name:    %s\n", docs[i].DisplayName())
		cmd.Printf("    Status:  %s\n", docs[i].Status.Label())
		cmd.Printf("    Size:    %s\n", domain.FormatSize(docs[i].FileSize))
		if !docs[i].CreatedAt.IsZero() {
			cmd.Printf("    Created: %s\n", docs[i].CreatedAt.Local().Format(timeLayout))
		}
		cmd.Println()
	}
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	snap, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	printSnapshot(cmd, snap, !documentGetNoText)
	return nil
}

func printSnapshot(cmd *cobra.Command, snap *domain.Snapshot, withText bool) {
	doc := snap.Document
	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Name:     %s\n", doc.DisplayName())
	cmd.Printf("  Status:   %s\n", doc.Status.Label())
	cmd.Printf("  Size:     %s\n", domain.FormatSize(doc.FileSize))
	if doc.StorageURL != "" {
		cmd.Printf("  File:     %s\n", doc.StorageURL)
	}
	if !doc.CreatedAt.IsZero() {
		cmd.Printf("  Created:  %s\n", doc.CreatedAt.Local().Format(timeLayout))
	}
	if doc.FailureReason != "" {
		cmd.Printf("  Error:    %s\n", doc.FailureReason)
	}

	if withText && doc.Status == domain.StatusCompleted {
		cmd.Println("\nExtracted text:")
		cmd.Println(doc.ExtractedText)
	}

	if len(snap.Conversation.Messages) > 0 {
		cmd.Println("\nConversation:")
		printTranscript(cmd, snap.Conversation.Messages)
	}
}

func printTranscript(cmd *cobra.Command, messages []domain.Message) {
	for _, m := range messages {
		cmd.Printf("  %s: %s\n", roleLabel(m.Role), m.Content)
	}
}

func roleLabel(r domain.Role) string {
	if r == domain.RoleAssistant {
		return "Assistant"
	}
	return "You"
}

func runDocumentUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Upload(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to upload document: %w", err)
	}

	cmd.Printf("Uploaded %s as %s (%s)\n", doc.DisplayName(), doc.ID, doc.Status.Label())
	if !uploadWatch {
		cmd.Printf("Follow processing with: ocrchat watch %s\n", doc.ID)
		return nil
	}
	return followDocument(cmd, doc.ID, false)
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func runDocumentDownload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	id := args[0]

	if downloadOutput == "-" {
		if err := documentService.Download(cmd.Context(), id, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to download document: %w", err)
		}
		return nil
	}

	path := downloadOutput
	if path == "" {
		snap, err := documentService.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}
		path = downloadName(snap.Document)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := documentService.Download(cmd.Context(), id, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to download document: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	cmd.Printf("Saved %s to %s\n", id, path)
	return nil
}

// downloadName is the base of the original file name, falling back to
// the document ID when the name is empty or not a plain file name.
func downloadName(doc domain.Document) string {
	name := filepath.Base(doc.OriginalName)
	if name == "." || name == ".." || name == string(filepath.Separator) || doc.OriginalName == "" {
		return doc.ID
	}
	return name
}
