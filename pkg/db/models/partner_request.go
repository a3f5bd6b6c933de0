package models

import (
	"time"

	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// PartnerRequest is the seller to affiliate handshake.
type PartnerRequest struct {
	ID              uint64                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SellerID        uint64                `gorm:"column:seller_id;not null;uniqueIndex:ux_partner_requests_pair" json:"seller_id"`
	AffiliateUserID uint64                `gorm:"column:affiliate_user_id;not null;uniqueIndex:ux_partner_requests_pair;index" json:"affiliate_user_id"`
	Status          enums.HandshakeStatus `gorm:"column:status;type:varchar(16);not null;default:'pending'" json:"status"`
	Message         *string               `gorm:"column:message" json:"message,omitempty"`
	CreatedAt       time.Time             `gorm:"column:created_at;not null" json:"created_at"`
	RespondedAt     *time.Time            `gorm:"column:responded_at" json:"responded_at,omitempty"`
}

func (PartnerRequest) TableName() string { return "partner_requests" }

func (p PartnerRequest) ThreadID() uint64 { return p.ID }
func (p PartnerRequest) ThreadStatus() enums.HandshakeStatus { return p.Status }
func (p PartnerRequest) Initiator() uint64 { return p.SellerID }
func (p PartnerRequest) Responder() uint64 { return p.AffiliateUserID }
