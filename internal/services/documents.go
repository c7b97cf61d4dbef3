package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/BerylCAtieno/document-scanner-api/internal/analyzer"
	"github.com/BerylCAtieno/document-scanner-api/internal/extractor"
	"github.com/BerylCAtieno/document-scanner-api/internal/metrics"
	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/BerylCAtieno/document-scanner-api/internal/repository"
	"github.com/BerylCAtieno/document-scanner-api/internal/storage"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
)

type DocumentService interface {
	ScanDocument(ctx context.Context, req *models.ScanRequest) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DownloadContent(ctx context.Context, filePath string) ([]byte, error)
	SignedURL(ctx context.Context, filePath string, ttl time.Duration) (string, error)
}

type documentService struct {
	repo     repository.Repository
	storage  storage.Storage
	analyzer analyzer.Analyzer
	extract  func(contentType string, data []byte) (string, error)
	logger   *utils.Logger
}

// NewService wires the document pipeline. textAnalyzer may be nil, in which
// case scans stop after text extraction.
func NewService(repo repository.Repository, store storage.Storage, textAnalyzer analyzer.Analyzer, logger *utils.Logger) DocumentService {
	return &documentService{
		repo:     repo,
		storage:  store,
		analyzer: textAnalyzer,
		extract:  extractor.Extract,
		logger:   logger,
	}
}

// ScanDocument uploads the file, records a pending document and runs
// extraction. The object is stored before the row is inserted, so a failed
// upload never leaves a document behind. Extraction failures are recorded on
// the document (status error) and returned as a scan error alongside it.
func (s *documentService) ScanDocument(ctx context.Context, req *models.ScanRequest) (*models.Document, error) {
	if err := validateScanRequest(req); err != nil {
		s.logger.Warn("Rejected scan request", "error", err, "filename", req.Filename)
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.ScanDuration.WithLabelValues(string(req.DocumentType)).Observe(time.Since(start).Seconds())
	}()

	docID := utils.GenerateID()
	key := fmt.Sprintf("documents/%s/%s/%s", req.DocumentType, docID, req.Filename)

	filePath, err := s.storage.Upload(ctx, key, req.File, req.ContentType)
	if err != nil {
		s.logger.Error("Failed to upload to S3", "error", err, "s3_key", key)
		metrics.ScansTotal.WithLabelValues(string(req.DocumentType), "upload_failed").Inc()
		return nil, utils.NewNetworkError("Failed to store document", err)
	}

	doc, err := s.repo.Insert(ctx, &models.Document{
		ID:           docID,
		DocumentName: req.Filename,
		DocumentType: req.DocumentType,
		FilePath:     filePath,
		ContentType:  req.ContentType,
		FileSize:     int64(len(req.File)),
	})
	if err != nil {
		s.logger.Error("Failed to save document to database", "error", err, "doc_id", docID)
		s.removeObject(ctx, filePath)
		metrics.ScansTotal.WithLabelValues(string(req.DocumentType), "persist_failed").Inc()
		return nil, utils.NewNetworkError("Failed to save document metadata", err)
	}

	update, scanErr := s.process(ctx, doc, req.File)

	if err := s.repo.UpdateStatus(ctx, doc.ID, update); err != nil {
		s.logger.Error("Failed to record scan outcome", "error", err, "doc_id", doc.ID)
		s.rollback(ctx, doc)
		metrics.ScansTotal.WithLabelValues(string(req.DocumentType), "persist_failed").Inc()
		return nil, utils.NewNetworkError("Failed to save scan result", err)
	}

	doc.Status = update.Status
	doc.ExtractedText = update.ExtractedText
	doc.Fields = update.Fields
	doc.ErrorMessage = update.ErrorMessage
	metrics.ScansTotal.WithLabelValues(string(req.DocumentType), string(update.Status)).Inc()

	if scanErr != nil {
		s.logger.Warn("Document scan failed", "error", scanErr, "id", doc.ID, "filename", doc.DocumentName)
		return doc, scanErr
	}

	s.logger.Info("Document scanned successfully",
		"id", doc.ID,
		"filename", doc.DocumentName,
		"document_type", doc.DocumentType,
		"text_length", len(update.ExtractedText))

	return doc, nil
}

// rollback removes a document whose scan outcome could not be recorded, so
// no pending row outlives a failed scan.
func (s *documentService) rollback(ctx context.Context, doc *models.Document) {
	cleanupCtx := context.WithoutCancel(ctx)
	if err := s.repo.DeletePending(cleanupCtx, doc.ID); err != nil {
		s.logger.Error("Failed to remove pending document", "error", err, "doc_id", doc.ID)
	}
	s.removeObject(ctx, doc.FilePath)
}

// removeObject deletes an uploaded object that no document refers to. It
// outlives request cancellation, which is often why the caller failed.
func (s *documentService) removeObject(ctx context.Context, key string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("Failed to remove orphaned object", "error", err, "s3_key", key)
	}
}

// process runs text extraction and, when configured, field analysis.
func (s *documentService) process(ctx context.Context, doc *models.Document, data []byte) (repository.StatusUpdate, error) {
	text, err := s.extract(doc.ContentType, data)
	switch {
	case errors.Is(err, extractor.ErrNoTextLayer):
		// left for the external OCR service
		return repository.StatusUpdate{Status: models.StatusSuccess}, nil
	case err != nil:
		return failed("Failed to extract text from document", err)
	}

	update := repository.StatusUpdate{Status: models.StatusSuccess, ExtractedText: text}
	if s.analyzer == nil {
		return update, nil
	}

	result, err := s.analyzer.Analyze(ctx, doc.DocumentType, text)
	if err != nil {
		return failed("Failed to analyze document", err)
	}
	update.Fields = result.Fields

	return update, nil
}

func failed(message string, cause error) (repository.StatusUpdate, error) {
	return repository.StatusUpdate{
		Status:       models.StatusError,
		ErrorMessage: message,
	}, utils.NewScanError(message, cause)
}

func validateScanRequest(req *models.ScanRequest) error {
	if req.Filename == "" {
		return utils.NewBadRequestError("File name is required")
	}
	if !req.DocumentType.Valid() {
		return utils.NewBadRequestError(fmt.Sprintf("Unknown document type '%s'", req.DocumentType))
	}
	if len(req.File) == 0 {
		return utils.NewBadRequestError("Uploaded file is empty")
	}
	ct, ok := models.ContentTypeFor(req.Filename)
	if !ok || ct != req.ContentType {
		return utils.ErrUnsupportedFileType
	}
	return nil
}

func (s *documentService) ListDocuments(ctx context.Context) ([]models.Document, error) {
	docs, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err)
		return nil, utils.NewFetchError("Failed to load documents", err)
	}
	return docs, nil
}

func (s *documentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NewNotFoundError("Document not found")
	}
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", id)
		return nil, utils.NewFetchError("Failed to retrieve document", err)
	}

	return doc, nil
}

func (s *documentService) DownloadContent(ctx context.Context, filePath string) ([]byte, error) {
	data, err := s.storage.Download(ctx, filePath)
	if err != nil {
		s.logger.Error("Failed to download document", "error", err, "file_path", filePath)
		return nil, retrievalError("Failed to download document", err)
	}
	if len(data) == 0 {
		return nil, utils.NewRetrievalError("Document content is empty", nil)
	}
	return data, nil
}

func (s *documentService) SignedURL(ctx context.Context, filePath string, ttl time.Duration) (string, error) {
	url, err := s.storage.SignedURL(ctx, filePath, ttl)
	if err != nil {
		s.logger.Error("Failed to create signed URL", "error", err, "file_path", filePath)
		return "", retrievalError("Failed to create document link", err)
	}
	if url == "" {
		return "", utils.NewRetrievalError("Failed to create document link", nil)
	}
	return url, nil
}

func retrievalError(message string, err error) error {
	if errors.Is(err, storage.ErrObjectNotFound) {
		return utils.NewRetrievalError("Document not found in storage", err)
	}
	retrievalErr := utils.NewRetrievalError(message, err)
	retrievalErr.StatusCode = http.StatusBadGateway
	return retrievalErr
}
