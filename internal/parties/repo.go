package parties

import (
	"context"

	"gorm.io/gorm"

	"github.com/Dj0083/final-project-sub000/pkg/db/models"
)

// Repository reads the identity provider's users table.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a parties repo bound to the provided GORM DB.
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

// FindByID loads a party by id.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.Party, error) {
	var party models.Party
	if err := r.db.WithContext(ctx).First(&party, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &party, nil
}
