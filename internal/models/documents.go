package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type DocumentType string

const (
	DocumentTypeResume  DocumentType = "resume"
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeChallan DocumentType = "challan"
)

// DocumentTypes lists the categories in the order they are offered to users.
var DocumentTypes = []DocumentType{DocumentTypeResume, DocumentTypeInvoice, DocumentTypeChallan}

func (t DocumentType) Valid() bool {
	for _, dt := range DocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// Label is the human readable category name.
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypeResume:
		return "Resume"
	case DocumentTypeInvoice:
		return "Invoice"
	case DocumentTypeChallan:
		return "Delivery Challan"
	}
	return string(t)
}

func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown document type %q", s)
	}
	return t, nil
}

type DocumentStatus string

const (
	StatusPending DocumentStatus = "pending"
	StatusSuccess DocumentStatus = "success"
	StatusError   DocumentStatus = "error"
)

func (s DocumentStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// CanTransitionTo allows only pending -> success|error.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	return s == StatusPending && next.Terminal()
}

type Document struct {
	ID            string                 `json:"id" db:"id"`
	DocumentName  string                 `json:"document_name" db:"document_name"`
	DocumentType  DocumentType           `json:"document_type" db:"document_type"`
	FilePath      string                 `json:"file_path" db:"file_path"`
	Status        DocumentStatus         `json:"status" db:"status"`
	ContentType   string                 `json:"content_type" db:"content_type"`
	FileSize      int64                  `json:"file_size" db:"file_size"`
	ExtractedText string                 `json:"extracted_text,omitempty" db:"extracted_text"`
	Fields        map[string]interface{} `json:"fields,omitempty" db:"-"`
	ErrorMessage  string                 `json:"error_message,omitempty" db:"error_message"`
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at" db:"updated_at"`
}

// SelectedFile is a candidate file held locally before it is scanned.
type SelectedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *SelectedFile) Size() int64 {
	return int64(len(f.Data))
}

func (f *SelectedFile) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

// Phase is the lifecycle of an in-flight scan.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseUploading Phase = "uploading"
	PhaseSuccess   Phase = "success"
	PhaseError     Phase = "error"
)

type ScanRequest struct {
	File         []byte
	Filename     string
	ContentType  string
	DocumentType DocumentType
}

type ScanResponse struct {
	Document      *Document      `json:"document"`
	Phase         Phase          `json:"phase"`
	Notifications []Notification `json:"notifications"`
}

type ListResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
	Message   string     `json:"message,omitempty"`
}

type SignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type NotificationVariant string

const (
	NotificationInfo  NotificationVariant = "info"
	NotificationError NotificationVariant = "error"
)

type Notification struct {
	Variant     NotificationVariant `json:"variant"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
}

type ExtractionResult struct {
	Text   string
	Fields map[string]interface{}
}

type LLMAnalysisResult struct {
	Fields map[string]interface{} `json:"fields"`
}
