package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/BerylCAtieno/document-scanner-api/internal/repository"
	"github.com/BerylCAtieno/document-scanner-api/internal/storage"
)

// memRepository is an in-memory repository.Repository.
type memRepository struct {
	mu        sync.Mutex
	docs      map[string]*models.Document
	clock     time.Time
	insertErr error
	updateErr error
	listErr   error
}

func newMemRepository() *memRepository {
	return &memRepository{
		docs:  map[string]*models.Document{},
		clock: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (r *memRepository) Insert(ctx context.Context, doc *models.Document) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	stored := *doc
	r.clock = r.clock.Add(time.Minute)
	stored.Status = models.StatusPending
	stored.CreatedAt = r.clock
	stored.UpdatedAt = r.clock
	r.docs[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *memRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *doc
	return &out, nil
}

func (r *memRepository) ListAll(ctx context.Context) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepository) UpdateStatus(ctx context.Context, id string, update repository.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	doc, ok := r.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !doc.Status.CanTransitionTo(update.Status) {
		return repository.ErrInvalidTransition
	}
	doc.Status = update.Status
	doc.ExtractedText = update.ExtractedText
	doc.Fields = update.Fields
	doc.ErrorMessage = update.ErrorMessage
	return nil
}

func (r *memRepository) DeletePending(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if doc.Status != models.StatusPending {
		return repository.ErrInvalidTransition
	}
	delete(r.docs, id)
	return nil
}

// memStorage is an in-memory storage.Storage.
type memStorage struct {
	mu        sync.Mutex
	deleteCtx []error
	objects   map[string][]byte
	uploadErr error
	uploads   int
	deleted   []string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.objects[key] = append([]byte(nil), data...)
	return key, nil
}

func (s *memStorage) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (s *memStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return "", storage.ErrObjectNotFound
	}
	return "https://storage.example/" + key + "?X-Amz-Expires=" + ttl.String(), nil
}

func (s *memStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCtx = append(s.deleteCtx, ctx.Err())
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

type stubAnalyzer struct {
	fields map[string]interface{}
	err    error
	calls  int
}

func (a *stubAnalyzer) Analyze(ctx context.Context, docType models.DocumentType, text string) (*models.LLMAnalysisResult, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return &models.LLMAnalysisResult{Fields: a.fields}, nil
}

var errBackendDown = errors.New("backend unavailable")
