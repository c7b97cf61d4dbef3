package history

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "History"

var exportHeaders = []string{"Document Name", "Document Type", "Date", "Status"}

// ExportXLSX renders docs as a spreadsheet in the order given.
func ExportXLSX(docs []models.Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, d := range docs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			d.DocumentName,
			strings.ToLower(d.DocumentType.Label()),
			d.CreatedAt.UTC().Format("Jan 2, 2006, 03:04 PM"),
			string(d.Status),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
