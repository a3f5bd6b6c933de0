package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// FundingRequest tracks a seller's capital ask through admin review.
type FundingRequest struct {
	ID              uint64              `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SellerID        uint64              `gorm:"column:seller_id;not null;uniqueIndex:ux_funding_requests_pair" json:"seller_id"`
	InvestorID      *uint64             `gorm:"column:investor_id;uniqueIndex:ux_funding_requests_pair;index" json:"investor_id,omitempty"`
	RequestedAmount decimal.Decimal     `gorm:"column:requested_amount;type:numeric(14,2);not null" json:"requested_amount"`
	FundedAmount    decimal.NullDecimal `gorm:"column:funded_amount;type:numeric(14,2)" json:"funded_amount"`
	Status          enums.FundingStatus `gorm:"column:status;type:varchar(16);not null;default:'pending';index" json:"status"`
	AdminApproved   bool                `gorm:"column:admin_approved;not null;default:false" json:"admin_approved"`
	CreatedAt       time.Time           `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (FundingRequest) TableName() string { return "funding_requests" }

// HasParticipant reports whether the party is the request's seller or investor.
func (f FundingRequest) HasParticipant(partyID uint64) bool {
	if f.SellerID == partyID {
		return true
	}
	return f.InvestorID != nil && *f.InvestorID == partyID
}
