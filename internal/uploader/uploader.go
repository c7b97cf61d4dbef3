// Package uploader holds the locally selected file and the document category
// it will be scanned under. Nothing here touches the network.
package uploader

import (
	"fmt"
	"sync"

	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/BerylCAtieno/document-scanner-api/internal/notify"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
)

type Uploader struct {
	mu       sync.Mutex
	category models.DocumentType
	selected *models.SelectedFile
	notifier notify.Sink
}

// New returns an Uploader with the resume category active and no file held.
func New(notifier notify.Sink) *Uploader {
	return &Uploader{
		category: models.DocumentTypeResume,
		notifier: notifier,
	}
}

// SelectFile validates candidate by extension and, if accepted, replaces the
// held file. The content type is always derived from the extension; a
// rejected candidate leaves the current selection untouched.
func (u *Uploader) SelectFile(candidate models.SelectedFile) (*models.SelectedFile, error) {
	if candidate.Name == "" {
		return nil, utils.NewBadRequestError("File name is required")
	}

	contentType, ok := models.ContentTypeFor(candidate.Name)
	if !ok {
		u.notifier.Notify(notify.Error("Unsupported file type", "Supported formats: PDF, DOC, DOCX, TXT, JPG, PNG"))
		return nil, fmt.Errorf("%s: %w", candidate.Name, utils.ErrUnsupportedFileType)
	}

	selected := &models.SelectedFile{
		Name:        candidate.Name,
		ContentType: contentType,
		Data:        candidate.Data,
	}

	u.mu.Lock()
	u.selected = selected
	u.mu.Unlock()

	u.notifier.Notify(notify.Info("File selected", fmt.Sprintf("%s (%.2f KB)", selected.Name, float64(selected.Size())/1024)))

	out := *selected
	return &out, nil
}

// ChooseCategory switches the active document type. Switching to a different
// category drops the held file so it cannot be scanned under the wrong type.
func (u *Uploader) ChooseCategory(docType models.DocumentType) error {
	if !docType.Valid() {
		return utils.NewBadRequestError(fmt.Sprintf("Unknown document type '%s'", docType))
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if docType != u.category {
		u.category = docType
		u.selected = nil
	}
	return nil
}

func (u *Uploader) ClearSelection() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.selected = nil
}

// Selected returns a copy of the held file, or nil.
func (u *Uploader) Selected() *models.SelectedFile {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.selected == nil {
		return nil
	}
	out := *u.selected
	return &out
}

func (u *Uploader) Category() models.DocumentType {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.category
}
