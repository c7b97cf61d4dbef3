// Package history lists previously scanned documents and retrieves their
// content.
package history

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BerylCAtieno/document-scanner-api/internal/auth"
	"github.com/BerylCAtieno/document-scanner-api/internal/config"
	"github.com/BerylCAtieno/document-scanner-api/internal/metrics"
	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/BerylCAtieno/document-scanner-api/internal/notify"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
)

const (
	SignInPath = "/signin"

	MessageNoDocuments = "No documents uploaded yet"
	MessageNoMatches   = "No documents found matching your search"
)

type LoadState string

const (
	StateIdle    LoadState = "idle"
	StateLoading LoadState = "loading"
	StateLoaded  LoadState = "loaded"
	StateError   LoadState = "error"
)

type DocumentSource interface {
	ListDocuments(ctx context.Context) ([]models.Document, error)
}

type ContentSource interface {
	DownloadContent(ctx context.Context, filePath string) ([]byte, error)
	SignedURL(ctx context.Context, filePath string, ttl time.Duration) (string, error)
}

// Redirector sends an unauthenticated caller elsewhere.
type Redirector interface {
	Redirect(target string)
}

type Options struct {
	Strategy     config.RetrievalStrategy
	SignedURLTTL time.Duration
}

// Content is what FetchContent hands back: bytes for a download, or a URL.
type Content struct {
	Strategy  config.RetrievalStrategy
	FileName  string
	Data      []byte
	URL       string
	ExpiresAt time.Time
}

type Browser struct {
	mu    sync.Mutex
	state LoadState
	docs  []models.Document

	documents DocumentSource
	content   ContentSource
	auth      auth.Provider
	redirect  Redirector
	notifier  notify.Sink
	opts      Options
	now       func() time.Time
}

func NewBrowser(documents DocumentSource, content ContentSource, provider auth.Provider, redirect Redirector, notifier notify.Sink, opts Options) *Browser {
	if !opts.Strategy.Valid() {
		opts.Strategy = config.RetrievalSignedURL
	}
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = 60 * time.Second
	}
	return &Browser{
		state:     StateIdle,
		documents: documents,
		content:   content,
		auth:      provider,
		redirect:  redirect,
		notifier:  notifier,
		opts:      opts,
		now:       time.Now,
	}
}

func (b *Browser) State() LoadState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Load fetches the document list once and caches it. Later calls return the
// cached list until Refresh is called. On any failure the list is emptied.
func (b *Browser) Load(ctx context.Context) ([]models.Document, error) {
	b.mu.Lock()
	if b.state == StateLoaded {
		docs := b.snapshot()
		b.mu.Unlock()
		return docs, nil
	}
	b.state = StateLoading
	b.mu.Unlock()

	docs, err := b.fetch(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.state = StateError
		b.docs = nil
		return nil, err
	}
	b.state = StateLoaded
	b.docs = docs
	return b.snapshot(), nil
}

// Refresh discards the cached list and loads it again.
func (b *Browser) Refresh(ctx context.Context) ([]models.Document, error) {
	b.mu.Lock()
	b.state = StateIdle
	b.mu.Unlock()
	return b.Load(ctx)
}

func (b *Browser) fetch(ctx context.Context) ([]models.Document, error) {
	user, err := b.auth.CurrentUser(ctx)
	if err != nil || user == nil {
		b.redirect.Redirect(SignInPath)
		return nil, utils.ErrUnauthorized
	}

	docs, err := b.documents.ListDocuments(ctx)
	if err != nil {
		var appErr *utils.AppError
		if !errors.As(err, &appErr) || appErr.Kind != utils.KindFetch {
			err = utils.NewFetchError("Failed to load documents", err)
		}
		b.notifier.Notify(notify.Error("Error", utils.UserMessage(err)))
		return nil, err
	}

	SortNewestFirst(docs)
	return docs, nil
}

// snapshot must be called with b.mu held.
func (b *Browser) snapshot() []models.Document {
	out := make([]models.Document, len(b.docs))
	copy(out, b.docs)
	return out
}

// Documents returns the loaded list, empty until Load succeeds.
func (b *Browser) Documents() []models.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

// Search filters the loaded list by name.
func (b *Browser) Search(query string) []models.Document {
	return Search(b.Documents(), query)
}

// EmptyMessage is the text shown when the filtered view has no rows. Once
// documents are loaded an empty view can only come from filtering.
func (b *Browser) EmptyMessage(query string) string {
	b.mu.Lock()
	loaded := len(b.docs)
	b.mu.Unlock()

	if loaded > 0 {
		return MessageNoMatches
	}
	return EmptyMessage(query)
}

// FetchContent retrieves a stored file with the configured strategy.
func (b *Browser) FetchContent(ctx context.Context, filePath, fileName string) (*Content, error) {
	return b.FetchContentWith(ctx, b.opts.Strategy, filePath, fileName)
}

// FetchContentWith retrieves a stored file with an explicit strategy. Empty
// bytes or an empty URL are treated as a retrieval failure.
func (b *Browser) FetchContentWith(ctx context.Context, strategy config.RetrievalStrategy, filePath, fileName string) (*Content, error) {
	if !strategy.Valid() {
		return nil, utils.NewBadRequestError("Unknown retrieval strategy '" + string(strategy) + "'")
	}
	if filePath == "" {
		return nil, b.retrievalFailed(strategy, utils.NewRetrievalError("Document has no stored file", nil))
	}

	content := &Content{Strategy: strategy, FileName: fileName}

	switch strategy {
	case config.RetrievalDownload:
		data, err := b.content.DownloadContent(ctx, filePath)
		if err == nil && len(data) == 0 {
			err = utils.NewRetrievalError("Document content is empty", nil)
		}
		if err != nil {
			return nil, b.retrievalFailed(strategy, asRetrievalError(err))
		}
		content.Data = data
	case config.RetrievalSignedURL:
		url, err := b.content.SignedURL(ctx, filePath, b.opts.SignedURLTTL)
		if err == nil && url == "" {
			err = utils.NewRetrievalError("Failed to create document link", nil)
		}
		if err != nil {
			return nil, b.retrievalFailed(strategy, asRetrievalError(err))
		}
		content.URL = url
		content.ExpiresAt = b.now().Add(b.opts.SignedURLTTL)
	}

	metrics.RetrievalsTotal.WithLabelValues(string(strategy), "success").Inc()
	b.notifier.Notify(notify.Info("Success", "Document downloaded successfully"))
	return content, nil
}

func (b *Browser) retrievalFailed(strategy config.RetrievalStrategy, err error) error {
	metrics.RetrievalsTotal.WithLabelValues(string(strategy), "error").Inc()
	b.notifier.Notify(notify.Error("Error", utils.UserMessage(err)))
	return err
}

func asRetrievalError(err error) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) && appErr.Kind == utils.KindRetrieval {
		return err
	}
	return utils.NewRetrievalError("Failed to download document", err)
}

// SortNewestFirst orders docs by created_at descending, keeping the relative
// order of equal timestamps.
func SortNewestFirst(docs []models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
}

// Search returns the documents whose name contains query, ignoring case.
// The query is matched as typed, surrounding spaces included. docs is not
// modified; an empty query returns all of them in order.
func Search(docs []models.Document, query string) []models.Document {
	q := strings.ToLower(query)
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if q == "" || strings.Contains(strings.ToLower(d.DocumentName), q) {
			out = append(out, d)
		}
	}
	return out
}

// FilterByDate keeps documents created within [from, to]. A zero bound is open.
func FilterByDate(docs []models.Document, from, to time.Time) []models.Document {
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if !from.IsZero() && d.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && d.CreatedAt.After(to) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// EmptyMessage picks the empty-state text from the search box contents.
func EmptyMessage(query string) string {
	if query != "" {
		return MessageNoMatches
	}
	return MessageNoDocuments
}
