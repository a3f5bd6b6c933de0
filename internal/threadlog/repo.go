package threadlog

import (
	"context"

	"gorm.io/gorm"

	"github.com/Dj0083/final-project-sub000/pkg/db/models"
)

// Repository persists thread messages.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a messages repo bound to the provided GORM DB.
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

// Create appends a message.
func (r *Repository) Create(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// List returns a thread's messages ordered by created_at then id.
func (r *Repository) List(ctx context.Context, q listQuery) ([]models.Message, error) {
	direction := "ASC"
	if q.descending {
		direction = "DESC"
	}
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("thread_type = ? AND thread_id = ?", q.thread.Type, q.thread.ID).
		Order("created_at " + direction).
		Order("id " + direction).
		Limit(q.limit).
		Find(&rows).Error
	return rows, err
}

type listQuery struct {
	thread     models.ThreadRef
	descending bool
	limit      int
}
