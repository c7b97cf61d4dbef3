// Package scan drives a single scan request for the file held by an uploader
// and tracks its phase.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/BerylCAtieno/document-scanner-api/internal/notify"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
)

// Selection is the uploader state a scan reads from and clears on success.
type Selection interface {
	Selected() *models.SelectedFile
	Category() models.DocumentType
	ClearSelection()
}

type Scanner interface {
	ScanDocument(ctx context.Context, req *models.ScanRequest) (*models.Document, error)
}

type Trigger struct {
	mu       sync.Mutex
	phase    models.Phase
	scanner  Scanner
	notifier notify.Sink
	logger   *utils.Logger
}

func New(scanner Scanner, notifier notify.Sink, logger *utils.Logger) *Trigger {
	return &Trigger{
		phase:    models.PhaseIdle,
		scanner:  scanner,
		notifier: notifier,
		logger:   logger,
	}
}

func (t *Trigger) Phase() models.Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Reset returns a finished trigger to idle. It has no effect while uploading.
func (t *Trigger) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != models.PhaseUploading {
		t.phase = models.PhaseIdle
	}
}

// Submit scans the file held by sel under its active category.
//
// Without a held file it fails with ErrNoFileSelected and makes no backend
// call. While another submission is in flight it fails with
// ErrScanInProgress. On success the selection is cleared; on failure it is
// kept so the caller can retry.
func (t *Trigger) Submit(ctx context.Context, sel Selection) (*models.Document, error) {
	return t.SubmitTo(ctx, sel, t.notifier)
}

// SubmitTo is Submit reporting to notifier instead of the trigger's own sink.
// Triggers shared between requests use it so each request sees only its own
// notifications.
func (t *Trigger) SubmitTo(ctx context.Context, sel Selection, notifier notify.Sink) (*models.Document, error) {
	file := sel.Selected()
	if file == nil {
		notifier.Notify(notify.Error("No file selected", "Please select a file to scan"))
		return nil, utils.ErrNoFileSelected
	}

	if !t.begin() {
		t.logger.Warn("Scan already in progress", "filename", file.Name)
		return nil, utils.ErrScanInProgress
	}

	finished := false
	defer func() {
		if !finished {
			t.finish(models.PhaseError)
		}
	}()

	t.logger.Info("Scan started", "filename", file.Name, "document_type", sel.Category(), "size", file.Size())

	doc, err := t.scanner.ScanDocument(ctx, &models.ScanRequest{
		File:         file.Data,
		Filename:     file.Name,
		ContentType:  file.ContentType,
		DocumentType: sel.Category(),
	})

	if err != nil {
		var appErr *utils.AppError
		if !errors.As(err, &appErr) {
			err = utils.NewNetworkError("Failed to scan document", err)
		}
		finished = true
		t.finish(models.PhaseError)
		notifier.Notify(notify.Error("Error", utils.UserMessage(err)))
		return doc, err
	}

	finished = true
	t.finish(models.PhaseSuccess)
	sel.ClearSelection()
	notifier.Notify(notify.Info("Success", fmt.Sprintf("%s scanned successfully!", file.Name)))

	return doc, nil
}

func (t *Trigger) begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase == models.PhaseUploading {
		return false
	}
	t.phase = models.PhaseUploading
	return true
}

func (t *Trigger) finish(phase models.Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = phase
}
