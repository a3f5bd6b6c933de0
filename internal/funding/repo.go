package funding

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// Repository persists funding requests.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a funding repo bound to the provided GORM DB.
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

// InsertIfAbsent creates the request unless the pair already has one.
func (r *Repository) InsertIfAbsent(ctx context.Context, req *models.FundingRequest) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(req)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindPair loads the request between seller and investor.
func (r *Repository) FindPair(ctx context.Context, sellerID, investorID uint64) (*models.FundingRequest, error) {
	var req models.FundingRequest
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND investor_id = ?", sellerID, investorID).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByID loads a request by id.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.FundingRequest, error) {
	var req models.FundingRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// Transition moves the request to "to" only while it is in one of "from".
// Zero rows affected means another writer got there first.
func (r *Repository) Transition(ctx context.Context, id uint64, from []enums.FundingStatus, to enums.FundingStatus, at time.Time, extra map[string]any) (int64, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&models.FundingRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// Touch refreshes updated_at while the request is in one of statuses.
func (r *Repository) Touch(ctx context.Context, id uint64, statuses []enums.FundingStatus, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.FundingRequest{}).
		Where("id = ? AND status IN ?", id, statuses).
		Update("updated_at", at)
	return res.RowsAffected, res.Error
}

// List returns requests newest first using keyset pagination.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.FundingRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.FundingRequest{})
	if opts.column != "" {
		query = query.Where(opts.column+" = ?", opts.partyID)
	}
	if opts.status != nil {
		query = query.Where("status = ?", *opts.status)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	var rows []models.FundingRequest
	err := query.Order("created_at DESC").Order("id DESC").Limit(opts.limit).Find(&rows).Error
	return rows, err
}

type statusTotal struct {
	Status enums.FundingStatus
	Count  int64
	Funded decimal.Decimal
}

// Totals groups request counts and funded sums by status. An empty column covers the platform.
func (r *Repository) Totals(ctx context.Context, column string, partyID uint64) ([]statusTotal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.FundingRequest{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(funded_amount), 0) AS funded")
	if column != "" {
		query = query.Where(column+" = ?", partyID)
	}
	var rows []statusTotal
	err := query.Group("status").Scan(&rows).Error
	return rows, err
}
