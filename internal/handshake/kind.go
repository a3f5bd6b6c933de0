package handshake

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
)

// Thread is a two-party request resolved by a single accept or reject.
type Thread interface {
	ThreadID() uint64
	ThreadStatus() enums.HandshakeStatus
	Initiator() uint64
	Responder() uint64
}

// Kind describes one handshake instantiation and how it maps onto its table.
// Precondition runs before the insert; nil means none.
type Kind[T Thread] struct {
	ThreadType      enums.ThreadType
	Label           string
	InitiatorRole   enums.Role
	ResponderRole   enums.Role
	InitiatorColumn string
	ResponderColumn string
	CreatedColumn   string
	New             func(initiatorID, responderID uint64, note *string, at time.Time) T
	Precondition    func(ctx context.Context, db *gorm.DB, initiatorID uint64) error
}

// ConnectionKind is the seller to investor handshake.
func ConnectionKind() Kind[models.Connection] {
	return Kind[models.Connection]{
		ThreadType:      enums.ThreadTypeConnection,
		Label:           "Connection request",
		InitiatorRole:   enums.RoleSeller,
		ResponderRole:   enums.RoleInvestor,
		InitiatorColumn: "seller_id",
		ResponderColumn: "investor_id",
		CreatedColumn:   "requested_at",
		New: func(initiatorID, responderID uint64, note *string, at time.Time) models.Connection {
			return models.Connection{
				SellerID:    initiatorID,
				InvestorID:  responderID,
				Status:      enums.HandshakeStatusPending,
				Notes:       note,
				RequestedAt: at,
			}
		},
	}
}

// PartnerKind is the seller to affiliate handshake. Sellers must be investor-vetted first.
func PartnerKind() Kind[models.PartnerRequest] {
	return Kind[models.PartnerRequest]{
		ThreadType:      enums.ThreadTypePartnerRequest,
		Label:           "Partnership request",
		InitiatorRole:   enums.RoleSeller,
		ResponderRole:   enums.RoleAffiliate,
		InitiatorColumn: "seller_id",
		ResponderColumn: "affiliate_user_id",
		CreatedColumn:   "created_at",
		New: func(initiatorID, responderID uint64, note *string, at time.Time) models.PartnerRequest {
			return models.PartnerRequest{
				SellerID:        initiatorID,
				AffiliateUserID: responderID,
				Status:          enums.HandshakeStatusPending,
				Message:         note,
				CreatedAt:       at,
			}
		},
		Precondition: requireVettedSeller,
	}
}

func requireVettedSeller(ctx context.Context, db *gorm.DB, sellerID uint64) error {
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Connection{}).
		Where("seller_id = ? AND status = ?", sellerID, enums.HandshakeStatusAccepted).
		Count(&count).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check seller connections")
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodePreconditionFailed, "seller needs an accepted investor connection before partnering with affiliates").
			WithStatus(http.StatusForbidden)
	}
	return nil
}
