package handshake

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// Repository persists one handshake kind.
type Repository[T Thread] struct {
	db   *gorm.DB
	kind Kind[T]
}

// NewRepository constructs a handshake repo bound to the provided GORM DB.
func NewRepository[T Thread](db *gorm.DB, kind Kind[T]) *Repository[T] {
	return &Repository[T]{db: db, kind: kind}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	if tx == nil {
		return r
	}
	return &Repository[T]{db: tx, kind: r.kind}
}

// InsertIfAbsent creates the row unless the pair already exists. It reports whether a row was written.
func (r *Repository[T]) InsertIfAbsent(ctx context.Context, row *T) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindPair loads the thread between initiator and responder.
func (r *Repository[T]) FindPair(ctx context.Context, initiatorID, responderID uint64) (*T, error) {
	var row T
	err := r.db.WithContext(ctx).
		Where(r.kind.InitiatorColumn+" = ? AND "+r.kind.ResponderColumn+" = ?", initiatorID, responderID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByID loads a thread by id.
func (r *Repository[T]) FindByID(ctx context.Context, id uint64) (*T, error) {
	var row T
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindForResponder loads the thread only if responderID is its named responder.
func (r *Repository[T]) FindForResponder(ctx context.Context, id, responderID uint64) (*T, error) {
	var row T
	err := r.db.WithContext(ctx).
		Where("id = ? AND "+r.kind.ResponderColumn+" = ?", id, responderID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Resolve moves a pending thread to status. Zero rows means it was no longer pending.
func (r *Repository[T]) Resolve(ctx context.Context, id, responderID uint64, status enums.HandshakeStatus, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(new(T)).
		Where("id = ? AND "+r.kind.ResponderColumn+" = ? AND status = ?", id, responderID, enums.HandshakeStatusPending).
		Updates(map[string]any{
			"status":       status,
			"responded_at": at,
		})
	return res.RowsAffected, res.Error
}

// List returns threads newest first. An empty column lists every thread.
func (r *Repository[T]) List(ctx context.Context, column string, partyID uint64, status *enums.HandshakeStatus) ([]T, error) {
	query := r.db.WithContext(ctx).Model(new(T))
	if column != "" {
		query = query.Where(column+" = ?", partyID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []T
	err := query.
		Order(r.kind.CreatedColumn + " DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// IsParticipant reports whether partyID is either side of the thread.
func (r *Repository[T]) IsParticipant(ctx context.Context, id, partyID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(new(T)).
		Where("id = ? AND ("+r.kind.InitiatorColumn+" = ? OR "+r.kind.ResponderColumn+" = ?)", id, partyID, partyID).
		Count(&count).Error
	return count > 0, err
}
