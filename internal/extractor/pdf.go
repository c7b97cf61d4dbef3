package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDF returns the text layer of a PDF, one page per block. Scanned
// PDFs without a text layer yield ErrNoTextLayer.
func ExtractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	failed := 0
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			failed++
			continue
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}

	if len(pages) == 0 {
		if failed > 0 {
			return "", fmt.Errorf("%w: %d of %d PDF pages unreadable", ErrEmptyText, failed, reader.NumPage())
		}
		return "", fmt.Errorf("%w: PDF has no text on any page", ErrNoTextLayer)
	}

	return strings.Join(pages, "\n\n"), nil
}
