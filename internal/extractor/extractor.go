// Package extractor turns uploaded file bytes into plain text.
package extractor

import (
	"fmt"
)

// ExtractionError marks content that could not be parsed as its
// declared format.
type ExtractionError struct {
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeTXT  = "text/plain"
)

// Extract dispatches on content type. Unsupported types return an
// ExtractionError with no wrapped cause.
func Extract(data []byte, contentType string) (string, error) {
	switch contentType {
	case ContentTypePDF:
		return ExtractPDF(data)
	case ContentTypeDOCX:
		return ExtractDOCX(data)
	case ContentTypeTXT:
		return ExtractTXT(data)
	default:
		return "", &ExtractionError{Format: contentType, Err: fmt.Errorf("unsupported content type")}
	}
}
