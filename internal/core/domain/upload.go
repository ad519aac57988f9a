package domain

import (
	"fmt"
	"io"
)

// MaxUploadSize is the largest file the service accepts (10 MB).
const MaxUploadSize = 10 * 1024 * 1024

// AllowedUploadTypes are the MIME types accepted for OCR.
var AllowedUploadTypes = []string{
	"image/jpeg",
	"image/png",
	"application/pdf",
}

// Upload is a file to be sent to the document service.
type Upload struct {
	// Filename is the base name sent in the multipart form.
	Filename string

	// ContentType is the detected MIME type.
	ContentType string

	// Size is the file size in bytes.
	Size int64

	// Content streams the file body.
	Content io.Reader
}

// ValidateUpload checks type and size before any network call.
func ValidateUpload(u Upload) error {
	if u.Filename == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	allowed := false
	for _, t := range AllowedUploadTypes {
		if u.ContentType == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: unsupported file type %q (use JPEG, PNG or PDF)", ErrInvalidInput, u.ContentType)
	}
	if u.Size <= 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if u.Size > MaxUploadSize {
		return fmt.Errorf("%w: file too large (%s, max %s)",
			ErrInvalidInput, FormatSize(u.Size), FormatSize(MaxUploadSize))
	}
	return nil
}

// FormatSize renders a byte count as B, KB or MB.
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
