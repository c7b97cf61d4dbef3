package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/BerylCAtieno/document-scanner-api/internal/analyzer"
	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(repo *memRepository, store *memStorage, a *stubAnalyzer) *documentService {
	var textAnalyzer analyzer.Analyzer
	if a != nil {
		textAnalyzer = a
	}
	svc := NewService(repo, store, textAnalyzer, utils.NewLoggerWithWriter("error", io.Discard))
	return svc.(*documentService)
}

func txtRequest(name, body string, dt models.DocumentType) *models.ScanRequest {
	return &models.ScanRequest{
		File:         []byte(body),
		Filename:     name,
		ContentType:  models.ContentTypeTXT,
		DocumentType: dt,
	}
}

func TestScanDocumentSuccess(t *testing.T) {
	repo, store := newMemRepository(), newMemStorage()
	svc := newTestService(repo, store, nil)

	doc, err := svc.ScanDocument(context.Background(), txtRequest("challan.txt", "Challan No 9\nConsignee: Acme", models.DocumentTypeChallan))
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, doc.Status)
	assert.Equal(t, "challan.txt", doc.DocumentName)
	assert.Equal(t, models.DocumentTypeChallan, doc.DocumentType)
	assert.Contains(t, doc.FilePath, "documents/challan/"+doc.ID+"/challan.txt")
	assert.Equal(t, "Challan No 9\nConsignee: Acme", doc.ExtractedText)

	stored, err := repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, stored.Status)
	assert.Contains(t, store.objects, doc.FilePath)
}

func TestScanDocumentImageSkipsTextExtraction(t *testing.T) {
	repo, store := newMemRepository(), newMemStorage()
	a := &stubAnalyzer{}
	svc := newTestService(repo, store, a)

	doc, err := svc.ScanDocument(context.Background(), &models.ScanRequest{
		File:         []byte{0xFF, 0xD8, 0xFF},
		Filename:     "invoice.jpg",
		ContentType:  models.ContentTypeJPEG,
		DocumentType: models.DocumentTypeInvoice,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, doc.Status)
	assert.Empty(t, doc.ExtractedText)
	assert.Zero(t, a.calls)
}

func TestScanDocumentWithAnalyzer(t *testing.T) {
	repo, store := newMemRepository(), newMemStorage()
	a := &stubAnalyzer{fields: map[string]interface{}{"invoice_number": "INV-1"}}
	svc := newTestService(repo, store, a)

	doc, err := svc.ScanDocument(context.Background(), txtRequest("inv.txt", "Invoice INV-1", models.DocumentTypeInvoice))
	require.NoError(t, err)
	assert.Equal(t, "INV-1", doc.Fields["invoice_number"])
	assert.Equal(t, 1, a.calls)
}

func TestScanDocumentAnalyzerFailureMarksError(t *testing.T) {
	repo, store := newMemRepository(), newMemStorage()
	svc := newTestService(repo, store, &stubAnalyzer{err: errBackendDown})

	doc, err := svc.ScanDocument(context.Background(), txtRequest("cv.txt", "Jane Doe", models.DocumentTypeResume))
	require.Error(t, err)
	assert.Equal(t, utils.KindScan, utils.KindOf(err))
	require.NotNil(t, doc)
	assert.Equal(t, models.StatusError, doc.Status)

	stored, err := repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, stored.Status)
	assert.Equal(t, "Failed to analyze document", stored.ErrorMessage)
}

func TestScanDocumentUploadFailureCreatesNoDocument(t *testing.T) {
	repo, store := newMemRepository(), newMemStorage()
	store.uploadErr = errBackendDown
	svc := newTestService(repo, store, nil)

	doc, err := svc.ScanDocument(context.Background(), txtRequest("cv.txt", "Jane Doe", models.DocumentTypeResume))
	assert.Nil(t, doc)
	assert.Equal(t, utils.KindNetwork, utils.KindOf(err))

	docs, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestScanDocumentInsertFailureRemovesObject(t *testing.T) {
	repo, store := newMemRepository(), newMemStorage()
	repo.insertErr = errBackendDown
	svc := newTestService(repo, store, nil)

	_, err := svc.ScanDocument(context.Background(), txtRequest("cv.txt", "Jane Doe", models.DocumentTypeResume))
	assert.Equal(t, utils.KindNetwork, utils.KindOf(err))
	require.Len(t, store.deleted, 1)
	assert.Empty(t, store.objects)
}

func TestScanDocumentUpdateFailureLeavesNothingBehind(t *testing.T) {
	repo, store := newMemRepository(), newMemStorage()
	repo.updateErr = errors.New("database is locked")
	svc := newTestService(repo, store, nil)

	doc, err := svc.ScanDocument(context.Background(), txtRequest("resume.txt", "Jane Doe", models.DocumentTypeResume))
	assert.Nil(t, doc)
	assert.Equal(t, utils.KindNetwork, utils.KindOf(err))

	docs, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Empty(t, store.objects)
	require.Len(t, store.deleted, 1)

	// A retry starts from a clean slate and yields exactly one document.
	repo.updateErr = nil
	doc, err = svc.ScanDocument(context.Background(), txtRequest("resume.txt", "Jane Doe", models.DocumentTypeResume))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, doc.Status)

	docs, err = repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestScanDocumentCleanupSurvivesCancellation(t *testing.T) {
	repo, store := newMemRepository(), newMemStorage()
	repo.insertErr = context.Canceled
	svc := newTestService(repo, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ScanDocument(ctx, txtRequest("cv.txt", "Jane Doe", models.DocumentTypeResume))
	require.Error(t, err)
	require.Len(t, store.deleteCtx, 1)
	assert.NoError(t, store.deleteCtx[0])
	assert.Empty(t, store.objects)
}

func TestScanDocumentValidation(t *testing.T) {
	store := newMemStorage()
	svc := newTestService(newMemRepository(), store, nil)
	ctx := context.Background()

	_, err := svc.ScanDocument(ctx, &models.ScanRequest{File: []byte("GIF89a"), Filename: "image.gif", ContentType: "image/gif", DocumentType: models.DocumentTypeResume})
	assert.ErrorIs(t, err, utils.ErrUnsupportedFileType)

	_, err = svc.ScanDocument(ctx, txtRequest("cv.txt", "x", models.DocumentType("passport")))
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = svc.ScanDocument(ctx, txtRequest("cv.txt", "", models.DocumentTypeResume))
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	assert.Zero(t, store.uploads)
}

func TestListDocumentsFetchError(t *testing.T) {
	repo := newMemRepository()
	repo.listErr = errBackendDown
	svc := newTestService(repo, newMemStorage(), nil)

	_, err := svc.ListDocuments(context.Background())
	assert.Equal(t, utils.KindFetch, utils.KindOf(err))
}

func TestGetDocumentNotFound(t *testing.T) {
	svc := newTestService(newMemRepository(), newMemStorage(), nil)

	_, err := svc.GetDocument(context.Background(), "nope")
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}

func TestRetrievalMissingObject(t *testing.T) {
	store := newMemStorage()
	store.objects["documents/resume/1/cv.pdf"] = []byte("%PDF-1.4")
	store.objects["documents/resume/2/empty.pdf"] = []byte{}
	svc := newTestService(newMemRepository(), store, nil)
	ctx := context.Background()

	data, err := svc.DownloadContent(ctx, "documents/resume/1/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	_, err = svc.DownloadContent(ctx, "documents/resume/9/missing.pdf")
	assert.Equal(t, utils.KindRetrieval, utils.KindOf(err))

	_, err = svc.DownloadContent(ctx, "documents/resume/2/empty.pdf")
	assert.Equal(t, utils.KindRetrieval, utils.KindOf(err))

	url, err := svc.SignedURL(ctx, "documents/resume/1/cv.pdf", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "documents/resume/1/cv.pdf")

	url, err = svc.SignedURL(ctx, "documents/resume/9/missing.pdf", time.Minute)
	assert.Equal(t, utils.KindRetrieval, utils.KindOf(err))
	assert.Empty(t, url)
}
