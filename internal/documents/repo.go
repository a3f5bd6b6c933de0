package documents

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// Repository persists document references.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a documents repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a document row.
func (r *Repository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// FindByType returns the earliest document of docType on the thread, or nil.
func (r *Repository) FindByType(ctx context.Context, thread models.ThreadRef, docType enums.DocType) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Where("thread_type = ? AND thread_id = ? AND doc_type = ?", thread.Type, thread.ID, docType).
		Order("created_at ASC").
		Order("id ASC").
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns the thread's documents, optionally restricted to docTypes.
func (r *Repository) List(ctx context.Context, thread models.ThreadRef, docTypes []enums.DocType) ([]models.Document, error) {
	query := r.db.WithContext(ctx).
		Where("thread_type = ? AND thread_id = ?", thread.Type, thread.ID)
	if len(docTypes) > 0 {
		query = query.Where("doc_type IN ?", docTypes)
	}
	var rows []models.Document
	err := query.Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}
