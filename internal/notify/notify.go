// Package notify delivers user-facing notifications. Sinks are fire-and-forget.
package notify

import (
	"sync"

	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
)

type Sink interface {
	Notify(n models.Notification)
}

func Info(title, description string) models.Notification {
	return models.Notification{Variant: models.NotificationInfo, Title: title, Description: description}
}

func Error(title, description string) models.Notification {
	return models.Notification{Variant: models.NotificationError, Title: title, Description: description}
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *utils.Logger
}

func NewLogSink(logger *utils.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(n models.Notification) {
	if n.Variant == models.NotificationError {
		s.logger.Warn("notification", "title", n.Title, "description", n.Description)
		return
	}
	s.logger.Info("notification", "title", n.Title, "description", n.Description)
}

// Recorder keeps notifications in memory so they can be returned to an HTTP client.
type Recorder struct {
	mu    sync.Mutex
	items []models.Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (models.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return models.Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Multi fans a notification out to several sinks.
type Multi []Sink

func (m Multi) Notify(n models.Notification) {
	for _, s := range m {
		s.Notify(n)
	}
}
