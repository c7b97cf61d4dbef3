package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// ExtractDOCX walks word/document.xml and keeps paragraph, tab, line break
// and table cell boundaries so invoice and challan tables stay readable.
func ExtractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX archive: %w", err)
	}

	part, err := archive.Open(docxBodyPart)
	if err != nil {
		return "", fmt.Errorf("%s not found in DOCX: %w", docxBodyPart, err)
	}
	defer part.Close()

	text, err := wordText(part)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", docxBodyPart, err)
	}

	if text == "" {
		return "", fmt.Errorf("%w: DOCX has no text", ErrEmptyText)
	}
	return text, nil
}

func wordText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		out    strings.Builder
		line   strings.Builder
		inText bool
		tables int
	)
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			out.WriteString(s)
			out.WriteByte('\n')
		}
		line.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tbl":
				tables++
			case "tab":
				line.WriteByte('\t')
			case "br", "cr":
				flush()
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				// Paragraphs inside a cell share the row's line.
				if tables > 0 {
					line.WriteByte(' ')
				} else {
					flush()
				}
			case "tc":
				cell := strings.TrimRight(line.String(), " ")
				line.Reset()
				line.WriteString(cell)
				line.WriteByte('\t')
			case "tr":
				flush()
			case "tbl":
				tables--
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	flush()

	return strings.TrimSpace(out.String()), nil
}
