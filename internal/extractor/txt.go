package extractor

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textSniffLen is how many leading bytes looksLikeText inspects.
const textSniffLen = 512

var errBinaryText = errors.New("file does not appear to be plain text")

// ExtractTXT decodes a plain-text upload and normalises its line endings.
// UTF-8 and UTF-16 with a byte order mark, bare UTF-8 and Windows-1252 are
// understood.
func ExtractTXT(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: text file is empty", ErrEmptyText)
	}
	if !looksLikeText(data) {
		return "", errBinaryText
	}

	decoded, err := decodeText(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text file: %w", err)
	}

	text := normalizeLines(decoded)
	if text == "" {
		return "", fmt.Errorf("%w: text file is blank", ErrEmptyText)
	}
	return text, nil
}

func hasBOM(data []byte) bool {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return true
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return true
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return true
	}
	return false
}

func decodeText(data []byte) (string, error) {
	if hasBOM(data) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		return string(out), err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	// Exports from older billing tools are usually Windows-1252.
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	return string(out), err
}

// normalizeLines drops NULs, trims every line and removes blank lines.
func normalizeLines(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")

	var lines []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// looksLikeText rejects binary content renamed to .txt. UTF-16 is mostly
// zero bytes, so a byte order mark alone is accepted.
func looksLikeText(data []byte) bool {
	if hasBOM(data) {
		return true
	}

	sample := data
	if len(sample) > textSniffLen {
		sample = sample[:textSniffLen]
	}

	printable := 0
	for _, b := range sample {
		if b >= 0x20 && b != 0x7F || b == '\t' || b == '\n' || b == '\r' {
			printable++
		}
	}
	return printable*5 >= len(sample)*4
}
