package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/BerylCAtieno/document-scanner-api/internal/auth"
	"github.com/BerylCAtieno/document-scanner-api/internal/config"
	"github.com/BerylCAtieno/document-scanner-api/internal/history"
	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/BerylCAtieno/document-scanner-api/internal/notify"
	"github.com/BerylCAtieno/document-scanner-api/internal/scan"
	"github.com/BerylCAtieno/document-scanner-api/internal/services"
	"github.com/BerylCAtieno/document-scanner-api/internal/uploader"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
	"github.com/gorilla/mux"
)

const dateLayout = "2006-01-02"

type DocumentHandler struct {
	service     services.DocumentService
	sessions    *scan.Sessions
	retrieval   history.Options
	maxFileSize int64
	logger      *utils.Logger
}

func NewDocumentHandler(service services.DocumentService, cfg *config.Config, logger *utils.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:  service,
		sessions: scan.NewSessions(service, notify.NewLogSink(logger), logger),
		retrieval: history.Options{
			Strategy:     cfg.RetrievalStrategy,
			SignedURLTTL: cfg.SignedURLTTL,
		},
		maxFileSize: cfg.MaxFileSize,
		logger:      logger,
	}
}

// redirectRecorder captures the redirect target chosen by the history browser.
type redirectRecorder struct {
	target string
}

func (r *redirectRecorder) Redirect(target string) {
	r.target = target
}

func (h *DocumentHandler) sink(rec *notify.Recorder) notify.Sink {
	return notify.Multi{rec, notify.NewLogSink(h.logger)}
}

func (h *DocumentHandler) newBrowser(redirect history.Redirector, rec *notify.Recorder) *history.Browser {
	return history.NewBrowser(h.service, h.service, auth.ContextProvider{}, redirect, h.sink(rec), h.retrieval)
}

func (h *DocumentHandler) ScanDocument(w http.ResponseWriter, r *http.Request) {
	limit := h.maxFileSize
	if r.ContentLength > limit {
		h.respondError(w, utils.NewBadRequestError(fmt.Sprintf("File size exceeds %d bytes", limit)))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(w, utils.NewBadRequestError(fmt.Sprintf("File size exceeds %d bytes", limit)))
			return
		}
		h.respondError(w, utils.NewBadRequestError("Invalid form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, utils.ErrNoFileSelected)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, utils.NewInternalError("Failed to read file"))
		return
	}

	rec := notify.NewRecorder()
	sink := h.sink(rec)

	up := uploader.New(sink)
	if docType := strings.TrimSpace(r.FormValue("document_type")); docType != "" {
		if err := up.ChooseCategory(models.DocumentType(strings.ToLower(docType))); err != nil {
			h.respondError(w, err)
			return
		}
	}

	h.logger.Info("File upload attempt",
		"filename", header.Filename,
		"reported_content_type", header.Header.Get("Content-Type"),
		"document_type", up.Category())

	if _, err := up.SelectFile(models.SelectedFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}); err != nil {
		h.respondError(w, err)
		return
	}

	trigger, release := h.sessions.Acquire(scanSessionKey(r))
	defer release()

	doc, err := trigger.SubmitTo(r.Context(), up, sink)
	if err != nil && doc != nil {
		// The document was stored but its scan failed; hand the record back.
		h.respondScanFailure(w, doc, err)
		return
	}
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, models.ScanResponse{
		Document:      doc,
		Phase:         trigger.Phase(),
		Notifications: rec.Notifications(),
	})
}

// scanSessionKey identifies the caller whose scans may not overlap: the
// signed-in user, or the client address for anonymous uploads.
func scanSessionKey(r *http.Request) string {
	if user := auth.UserFromContext(r.Context()); user != nil {
		return "user:" + user.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, ok := h.loadFiltered(w, r)
	if !ok {
		return
	}

	resp := models.ListResponse{Documents: docs.filtered, Total: len(docs.filtered)}
	if len(docs.filtered) == 0 {
		resp.Message = docs.browser.EmptyMessage(docs.query)
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) ExportDocuments(w http.ResponseWriter, r *http.Request) {
	docs, ok := h.loadFiltered(w, r)
	if !ok {
		return
	}

	data, err := history.ExportXLSX(docs.filtered)
	if err != nil {
		h.logger.Error("Failed to export history", "error", err)
		h.respondError(w, utils.NewInternalError("Failed to export documents"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", utils.AttachmentDisposition("document-history.xlsx"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type loadedDocuments struct {
	browser  *history.Browser
	query    string
	filtered []models.Document
}

// loadFiltered loads the history and applies the q, from and to query
// parameters. It writes the error response itself and reports false on failure.
func (h *DocumentHandler) loadFiltered(w http.ResponseWriter, r *http.Request) (loadedDocuments, bool) {
	query := r.URL.Query()

	from, err := parseDate(query.Get("from"), false)
	if err != nil {
		h.respondError(w, utils.NewBadRequestError("Invalid 'from' date, expected YYYY-MM-DD"))
		return loadedDocuments{}, false
	}
	to, err := parseDate(query.Get("to"), true)
	if err != nil {
		h.respondError(w, utils.NewBadRequestError("Invalid 'to' date, expected YYYY-MM-DD"))
		return loadedDocuments{}, false
	}

	redirect := &redirectRecorder{}
	browser := h.newBrowser(redirect, notify.NewRecorder())

	if _, err := browser.Load(r.Context()); err != nil {
		h.respondRedirect(w, redirect.target)
		h.respondError(w, err)
		return loadedDocuments{}, false
	}

	q := query.Get("q")
	filtered := history.FilterByDate(browser.Search(q), from, to)
	return loadedDocuments{browser: browser, query: q, filtered: filtered}, true
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		h.respondError(w, utils.NewBadRequestError("Document ID is required"))
		return
	}

	doc, err := h.service.GetDocument(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) GetDocumentContent(w http.ResponseWriter, r *http.Request) {
	if !h.requireUser(w, r) {
		return
	}

	doc, err := h.service.GetDocument(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	strategy := h.retrieval.Strategy
	if s := r.URL.Query().Get("strategy"); s != "" {
		strategy = config.RetrievalStrategy(s)
	}

	browser := h.newBrowser(&redirectRecorder{}, notify.NewRecorder())
	content, err := browser.FetchContentWith(r.Context(), strategy, doc.FilePath, doc.DocumentName)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if content.Strategy == config.RetrievalSignedURL {
		h.respondJSON(w, http.StatusOK, models.SignedURLResponse{URL: content.URL, ExpiresAt: content.ExpiresAt})
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", utils.AttachmentDisposition(content.FileName))
	w.WriteHeader(http.StatusOK)
	w.Write(content.Data)
}

func (h *DocumentHandler) requireUser(w http.ResponseWriter, r *http.Request) bool {
	if auth.UserFromContext(r.Context()) != nil {
		return true
	}
	h.respondRedirect(w, history.SignInPath)
	h.respondError(w, utils.ErrUnauthorized)
	return false
}

func (h *DocumentHandler) respondRedirect(w http.ResponseWriter, target string) {
	if target != "" {
		w.Header().Set("Location", target)
	}
}

// parseDate parses YYYY-MM-DD in UTC. With endOfDay the last instant of that
// day is returned so that "to" is inclusive.
func parseDate(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (h *DocumentHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *DocumentHandler) respondScanFailure(w http.ResponseWriter, doc *models.Document, err error) {
	status := http.StatusUnprocessableEntity
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode
	}

	h.logger.Warn("Scan failed after upload", "status", status, "id", doc.ID, "error", utils.UserMessage(err))
	h.respondJSON(w, status, map[string]interface{}{
		"error":    utils.UserMessage(err),
		"document": doc,
	})
}

func (h *DocumentHandler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		status = appErr.StatusCode
		message = appErr.Message
	}

	h.logger.Error("Request error", "status", status, "error", message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
