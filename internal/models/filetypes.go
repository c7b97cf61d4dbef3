package models

import (
	"path/filepath"
	"strings"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOC  = "application/msword"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeTXT  = "text/plain"
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

// AllowedExtensions maps every accepted upload extension to its content type.
var AllowedExtensions = map[string]string{
	"pdf":  ContentTypePDF,
	"doc":  ContentTypeDOC,
	"docx": ContentTypeDOCX,
	"txt":  ContentTypeTXT,
	"jpg":  ContentTypeJPEG,
	"jpeg": ContentTypeJPEG,
	"png":  ContentTypePNG,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ContentTypeFor resolves the content type of filename from its extension.
// Files are never content-sniffed.
func ContentTypeFor(filename string) (string, bool) {
	ct, ok := AllowedExtensions[NormalizeExt(filepath.Ext(filename))]
	return ct, ok
}
