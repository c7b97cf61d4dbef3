package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BerylCAtieno/document-scanner-api/internal/models"
	"github.com/BerylCAtieno/document-scanner-api/internal/utils"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrInvalidTransition  = errors.New("document status is already terminal")
	ErrMissingRequiredCol = errors.New("document_name and file_path are required")
)

type Repository interface {
	Insert(ctx context.Context, doc *models.Document) (*models.Document, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListAll(ctx context.Context) ([]models.Document, error)
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error
	DeletePending(ctx context.Context, id string) error
}

// StatusUpdate carries the outcome of the scan step.
type StatusUpdate struct {
	Status        models.DocumentStatus
	ExtractedText string
	Fields        map[string]interface{}
	ErrorMessage  string
}

type repository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db, now: time.Now}
}

// documentRow mirrors the documents table. Timestamps are unix nanoseconds so
// that ORDER BY created_at is numeric.
type documentRow struct {
	ID            string         `db:"id"`
	DocumentName  string         `db:"document_name"`
	DocumentType  string         `db:"document_type"`
	FilePath      string         `db:"file_path"`
	Status        string         `db:"status"`
	ContentType   string         `db:"content_type"`
	FileSize      int64          `db:"file_size"`
	ExtractedText string         `db:"extracted_text"`
	Fields        sql.NullString `db:"fields"`
	ErrorMessage  string         `db:"error_message"`
	CreatedAt     int64          `db:"created_at"`
	UpdatedAt     int64          `db:"updated_at"`
}

func (r documentRow) toModel() (models.Document, error) {
	doc := models.Document{
		ID:            r.ID,
		DocumentName:  r.DocumentName,
		DocumentType:  models.DocumentType(r.DocumentType),
		FilePath:      r.FilePath,
		Status:        models.DocumentStatus(r.Status),
		ContentType:   r.ContentType,
		FileSize:      r.FileSize,
		ExtractedText: r.ExtractedText,
		ErrorMessage:  r.ErrorMessage,
		CreatedAt:     time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt:     time.Unix(0, r.UpdatedAt).UTC(),
	}

	if r.Fields.Valid && r.Fields.String != "" {
		if err := json.Unmarshal([]byte(r.Fields.String), &doc.Fields); err != nil {
			return doc, fmt.Errorf("failed to decode fields for %s: %w", r.ID, err)
		}
	}

	return doc, nil
}

const selectColumns = `id, document_name, document_type, file_path, status, content_type, file_size,
	extracted_text, fields, error_message, created_at, updated_at`

// Insert assigns id, created_at and the pending status, and returns the stored row.
func (r *repository) Insert(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if doc.DocumentName == "" || doc.FilePath == "" {
		return nil, ErrMissingRequiredCol
	}

	stored := *doc
	if stored.ID == "" {
		stored.ID = utils.GenerateID()
	}
	now := r.now().UTC()
	stored.Status = models.StatusPending
	stored.CreatedAt = now
	stored.UpdatedAt = now

	query := `
		INSERT INTO documents (id, document_name, document_type, file_path, status, content_type, file_size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		stored.ID,
		stored.DocumentName,
		string(stored.DocumentType),
		stored.FilePath,
		string(stored.Status),
		stored.ContentType,
		stored.FileSize,
		now.UnixNano(),
		now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	return &stored, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var row documentRow

	query := `SELECT ` + selectColumns + ` FROM documents WHERE id = ?`

	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	doc, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListAll returns every document, newest first.
func (r *repository) ListAll(ctx context.Context) ([]models.Document, error) {
	var rows []documentRow

	query := `SELECT ` + selectColumns + ` FROM documents ORDER BY created_at DESC, rowid DESC`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]models.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toModel()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// UpdateStatus moves a pending document to a terminal status. Documents that
// are already terminal are left untouched and ErrInvalidTransition is returned.
func (r *repository) UpdateStatus(ctx context.Context, id string, update StatusUpdate) error {
	if !models.StatusPending.CanTransitionTo(update.Status) {
		return fmt.Errorf("%w: cannot move to %q", ErrInvalidTransition, update.Status)
	}

	var fields sql.NullString
	if len(update.Fields) > 0 {
		data, err := json.Marshal(update.Fields)
		if err != nil {
			return fmt.Errorf("failed to encode fields: %w", err)
		}
		fields = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		UPDATE documents
		SET status = ?, extracted_text = ?, fields = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	res, err := r.db.ExecContext(ctx, query,
		string(update.Status),
		update.ExtractedText,
		fields,
		update.ErrorMessage,
		r.now().UTC().UnixNano(),
		id,
		string(models.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	return nil
}

// DeletePending removes a document that never left pending. It is the
// rollback for a scan whose outcome could not be recorded; terminal documents
// are never deleted.
func (r *repository) DeletePending(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ? AND status = ?`,
		id, string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to delete pending document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	return nil
}
