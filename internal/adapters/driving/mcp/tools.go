package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// defaultAskWait bounds how long ask_document waits for processing.
const defaultAskWait = 2 * time.Minute

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentSummary `json:"documents"`
	Count     int               `json:"count"`
}

// DocumentSummary describes a document without its text.
type DocumentSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Size      string `json:"size"`
	CreatedAt string `json:"created_at,omitempty"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document ID"`
}

// GetDocumentOutput is the output schema for the get_document tool.
type GetDocumentOutput struct {
	DocumentSummary
	ExtractedText string          `json:"extracted_text,omitempty"`
	Error         string          `json:"error,omitempty"`
	Messages      []MessageOutput `json:"messages,omitempty"`
}

// MessageOutput is one conversation entry.
type MessageOutput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskDocumentInput is the input schema for the ask_document tool.
type AskDocumentInput struct {
	DocumentID  string `json:"document_id" jsonschema:"the document ID"`
	Question    string `json:"question" jsonschema:"the question about the document's extracted text"`
	WaitSeconds int    `json:"wait_seconds,omitempty" jsonschema:"how long to wait for OCR to finish (default 120)"`
}

// AskDocumentOutput is the output schema for the ask_document tool.
type AskDocumentOutput struct {
	DocumentID string `json:"document_id"`
	Answer     string `json:"answer"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the user's uploaded documents with their OCR status",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Get a document's OCR status, extracted text and conversation",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Ask a question about a document's extracted text and wait for the answer",
	}, s.handleAskDocument)
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentSummary, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = summarise(&docs[i])
	}

	return nil, output, nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	snap, err := s.ports.Documents.Get(ctx, input.DocumentID)
	if err != nil {
		return nil, GetDocumentOutput{}, err
	}

	output := GetDocumentOutput{
		DocumentSummary: summarise(&snap.Document),
		Error:           snap.Document.FailureReason,
	}
	if snap.Document.Status == domain.StatusCompleted {
		output.ExtractedText = snap.Document.ExtractedText
	}
	for _, m := range snap.Conversation.Messages {
		output.Messages = append(output.Messages, MessageOutput{Role: string(m.Role), Content: m.Content})
	}

	return nil, output, nil
}

// handleAskDocument opens a session, waits for OCR to finish and asks.
func (s *Server) handleAskDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskDocumentInput,
) (*mcp.CallToolResult, AskDocumentOutput, error) {
	if s.ports.Sessions == nil {
		return nil, AskDocumentOutput{}, ErrAskUnavailable
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, AskDocumentOutput{}, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	wait := defaultAskWait
	if input.WaitSeconds > 0 {
		wait = time.Duration(input.WaitSeconds) * time.Second
	}

	session := s.ports.Sessions.Open(input.DocumentID)
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		return nil, AskDocumentOutput{}, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	view, err := session.WaitSettled(waitCtx)
	cancel()
	if err != nil {
		return nil, AskDocumentOutput{}, fmt.Errorf("waiting for OCR: %w", err)
	}
	if view.Document.Status == domain.StatusFailed {
		return nil, AskDocumentOutput{}, fmt.Errorf("OCR failed: %s", view.Document.FailureReason)
	}

	answer, err := session.Ask(ctx, question)
	if err != nil {
		return nil, AskDocumentOutput{}, err
	}

	return nil, AskDocumentOutput{DocumentID: input.DocumentID, Answer: answer.Content}, nil
}

func summarise(doc *domain.Document) DocumentSummary {
	out := DocumentSummary{
		ID:     doc.ID,
		Name:   doc.DisplayName(),
		Status: string(doc.Status),
		Size:   domain.FormatSize(doc.FileSize),
	}
	if !doc.CreatedAt.IsZero() {
		out.CreatedAt = doc.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}
