package extractor

import (
	"errors"
	"fmt"

	"github.com/BerylCAtieno/document-scanner-api/internal/models"
)

var (
	// ErrNoTextLayer marks formats whose text is left to the external OCR service.
	ErrNoTextLayer = errors.New("format has no extractable text layer")
	// ErrEmptyText means the file parsed but contained no text.
	ErrEmptyText = errors.New("no text could be extracted")
)

// Extract returns the plain text of data according to its content type.
func Extract(contentType string, data []byte) (string, error) {
	switch contentType {
	case models.ContentTypePDF:
		return ExtractPDF(data)
	case models.ContentTypeDOCX:
		return ExtractDOCX(data)
	case models.ContentTypeTXT:
		return ExtractTXT(data)
	case models.ContentTypeDOC, models.ContentTypeJPEG, models.ContentTypePNG:
		return "", ErrNoTextLayer
	}
	return "", fmt.Errorf("unsupported content type %q", contentType)
}
