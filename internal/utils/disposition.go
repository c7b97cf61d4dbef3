package utils

import (
	"mime"
	"path"
)

// AttachmentDisposition builds a Content-Disposition header value that saves
// the response as name. Non-ASCII names are encoded per RFC 2231.
func AttachmentDisposition(name string) string {
	name = path.Base(name)
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
