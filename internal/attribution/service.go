package attribution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/pkg/db"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
	"github.com/Dj0083/final-project-sub000/pkg/logger"
	"github.com/Dj0083/final-project-sub000/pkg/metrics"
	"github.com/Dj0083/final-project-sub000/pkg/types"
)

const (
	trackingCodeLen = 12
	maxDisplayName  = 120
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProfileInput carries the editable affiliate profile fields.
type ProfileInput struct {
	DisplayName string
	SocialLinks types.SocialLinks
}

// SaleInput is a sale reported by the storefront.
type SaleInput struct {
	ProductID uint64
	Code      string
	Amount    decimal.Decimal
}

// Service records attribution events and manages the affiliate profiles behind tracking codes.
type Service interface {
	TrackClick(ctx context.Context, productID uint64, code, sourceIP string) error
	RecordSale(ctx context.Context, in SaleInput) (*models.Sale, error)
	Dashboard(ctx context.Context, affiliateID uint64) (*Dashboard, error)
	MyDashboard(ctx context.Context, actor parties.Actor) (*Dashboard, error)

	UpsertProfile(ctx context.Context, actor parties.Actor, in ProfileInput) (*models.Affiliate, bool, error)
	MyProfile(ctx context.Context, actor parties.Actor) (*models.Affiliate, error)
	ListProfiles(ctx context.Context, actor parties.Actor, status *enums.AffiliateStatus) ([]models.Affiliate, error)
	SetStatus(ctx context.Context, actor parties.Actor, affiliateID uint64, status enums.AffiliateStatus) (*models.Affiliate, error)
}

type service struct {
	repo    *Repository
	tx      txRunner
	rate    decimal.Decimal
	metrics *metrics.WorkflowMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the attribution ledger with a fixed commission rate.
func NewService(repo *Repository, tx txRunner, rate decimal.Decimal, m *metrics.WorkflowMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("attribution repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate must be between 0 and 1")
	}
	return &service{repo: repo, tx: tx, rate: rate, metrics: m, logg: logg, now: time.Now}, nil
}

// Commission prices a sale at rate, rounded to cents.
func Commission(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}

// TrackClick records one click. Repeated clicks are all counted.
func (s *service) TrackClick(ctx context.Context, productID uint64, code, sourceIP string) error {
	if productID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	affiliate, err := s.approvedAffiliate(ctx, code)
	if err != nil {
		return err
	}
	click := &models.Click{
		ProductID:   productID,
		AffiliateID: affiliate.ID,
		SourceIP:    sourceIP,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateClick(ctx, click); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record click")
	}
	s.metrics.IncClick()
	return nil
}

// RecordSale prices the sale and adds its commission to the affiliate's rollup atomically.
func (s *service) RecordSale(ctx context.Context, in SaleInput) (*models.Sale, error) {
	if in.ProductID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if !in.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	affiliate, err := s.approvedAffiliate(ctx, in.Code)
	if err != nil {
		return nil, err
	}

	amount := in.Amount.Round(2)
	now := s.now().UTC()
	sale := &models.Sale{
		ProductID:   in.ProductID,
		AffiliateID: affiliate.ID,
		Amount:      amount,
		Commission:  Commission(amount, s.rate),
		CreatedAt:   now,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateSale(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record sale")
		}
		if err := repo.AddCommission(ctx, affiliate.ID, sale.Commission, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update commission rollup")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveSale(sale.Commission.InexactFloat64())
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"affiliate_id": affiliate.ID,
			"sale_id":      sale.ID,
			"commission":   sale.Commission.StringFixed(2),
		})
		s.logg.Info(logCtx, "attribution.sale_recorded")
	}
	return sale, nil
}

func (s *service) approvedAffiliate(ctx context.Context, code string) (*models.Affiliate, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate code is required")
	}
	affiliate, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve affiliate code")
	}
	if affiliate == nil || affiliate.Status != enums.AffiliateStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate code not found")
	}
	return affiliate, nil
}

// UpsertProfile creates the caller's profile with a fresh tracking code, or updates
// its display fields. The boolean reports whether the profile was created.
func (s *service) UpsertProfile(ctx context.Context, actor parties.Actor, in ProfileInput) (*models.Affiliate, bool, error) {
	if err := actor.Require(enums.RoleAffiliate); err != nil {
		return nil, false, err
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" || len(name) > maxDisplayName {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("display_name must be 1-%d characters", maxDisplayName))
	}
	links := in.SocialLinks.Normalize()
	if err := links.Validate(); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	existing, err := s.repo.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load affiliate profile")
	}
	if existing != nil {
		existing.DisplayName = name
		existing.SocialLinks = links
		if err := s.repo.UpdateProfile(ctx, existing); err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update affiliate profile")
		}
		return existing, false, nil
	}

	profile := &models.Affiliate{
		UserID:       actor.ID,
		TrackingCode: newTrackingCode(),
		DisplayName:  name,
		SocialLinks:  links,
		Status:       enums.AffiliateStatusPending,
	}
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, false, pkgerrors.New(pkgerrors.CodeConflict, "affiliate profile already exists; retry the update")
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create affiliate profile")
	}
	return profile, true, nil
}

func (s *service) MyProfile(ctx context.Context, actor parties.Actor) (*models.Affiliate, error) {
	if err := actor.Require(enums.RoleAffiliate); err != nil {
		return nil, err
	}
	profile, err := s.repo.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load affiliate profile")
	}
	if profile == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate profile not found")
	}
	return profile, nil
}

func (s *service) ListProfiles(ctx context.Context, actor parties.Actor, status *enums.AffiliateStatus) ([]models.Affiliate, error) {
	if err := actor.Require(enums.RoleAdmin); err != nil {
		return nil, err
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	rows, err := s.repo.ListProfiles(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list affiliate profiles")
	}
	return rows, nil
}

// SetStatus lets the admin approve or reject a tracking code.
func (s *service) SetStatus(ctx context.Context, actor parties.Actor, affiliateID uint64, status enums.AffiliateStatus) (*models.Affiliate, error) {
	if err := actor.Require(enums.RoleAdmin); err != nil {
		return nil, err
	}
	if status != enums.AffiliateStatusApproved && status != enums.AffiliateStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or rejected")
	}
	affected, err := s.repo.SetStatus(ctx, affiliateID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update affiliate status")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate profile not found")
	}
	profile, err := s.repo.FindByID(ctx, affiliateID)
	if err != nil || profile == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload affiliate profile")
	}
	return profile, nil
}

func newTrackingCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:trackingCodeLen])
}
