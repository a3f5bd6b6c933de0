package attribution

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// Repository persists affiliate profiles and attribution events.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an attribution repo bound to the provided GORM DB.
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

// FindByCode returns the affiliate owning code, or nil.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Affiliate, error) {
	return r.first(ctx, "tracking_code = ?", code)
}

// FindByUserID returns the caller's affiliate profile, or nil.
func (r *Repository) FindByUserID(ctx context.Context, userID uint64) (*models.Affiliate, error) {
	return r.first(ctx, "user_id = ?", userID)
}

// FindByID returns the affiliate profile, or nil.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.Affiliate, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := r.db.WithContext(ctx).Where(query, args...).First(&affiliate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &affiliate, nil
}

// CreateProfile inserts a new affiliate profile.
func (r *Repository) CreateProfile(ctx context.Context, affiliate *models.Affiliate) error {
	return r.db.WithContext(ctx).Create(affiliate).Error
}

// UpdateProfile writes the editable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, affiliate *models.Affiliate) error {
	return r.db.WithContext(ctx).
		Model(affiliate).
		Select("display_name", "social_links", "updated_at").
		Updates(affiliate).Error
}

// SetStatus changes the profile's approval status.
func (r *Repository) SetStatus(ctx context.Context, id uint64, status enums.AffiliateStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Affiliate{}).
		Where("id = ?", id).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// ListProfiles returns profiles oldest first, optionally filtered by status.
func (r *Repository) ListProfiles(ctx context.Context, status *enums.AffiliateStatus) ([]models.Affiliate, error) {
	query := r.db.WithContext(ctx).Model(&models.Affiliate{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.Affiliate
	err := query.Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// CreateClick appends a click event.
func (r *Repository) CreateClick(ctx context.Context, click *models.Click) error {
	return r.db.WithContext(ctx).Create(click).Error
}

// CreateSale appends a sale event.
func (r *Repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// AddCommission inserts the affiliate's rollup or increments it in a single statement.
func (r *Repository) AddCommission(ctx context.Context, affiliateID uint64, amount decimal.Decimal, at time.Time) error {
	rollup := models.CommissionRollup{AffiliateID: affiliateID, TotalEarned: amount, UpdatedAt: at}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "affiliate_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_earned": gorm.Expr("commission_rollups.total_earned + excluded.total_earned"),
				"updated_at":   gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(&rollup).Error
}

// FindRollup returns the affiliate's running total, or nil before the first sale.
func (r *Repository) FindRollup(ctx context.Context, affiliateID uint64) (*models.CommissionRollup, error) {
	var rollup models.CommissionRollup
	err := r.db.WithContext(ctx).First(&rollup, "affiliate_id = ?", affiliateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rollup, nil
}

// CountClicks counts every click attributed to the affiliate.
func (r *Repository) CountClicks(ctx context.Context, affiliateID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Click{}).Where("affiliate_id = ?", affiliateID).Count(&count).Error
	return count, err
}

// CountSales counts every sale attributed to the affiliate.
func (r *Repository) CountSales(ctx context.Context, affiliateID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Sale{}).Where("affiliate_id = ?", affiliateID).Count(&count).Error
	return count, err
}

// SalesSince returns the affiliate's sales at or after since.
func (r *Repository) SalesSince(ctx context.Context, affiliateID uint64, since time.Time) ([]models.Sale, error) {
	var rows []models.Sale
	err := r.db.WithContext(ctx).
		Where("affiliate_id = ? AND created_at >= ?", affiliateID, since).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
