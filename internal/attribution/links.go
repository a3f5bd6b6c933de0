package attribution

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
)

// partnerThreads resolves a partnership the caller can see.
type partnerThreads interface {
	Get(ctx context.Context, actor parties.Actor, threadID uint64) (models.PartnerRequest, error)
}

// BuildLink returns the storefront product URL carrying the affiliate code.
func BuildLink(base string, productID uint64, code string) string {
	return strings.TrimRight(base, "/") + "/product/" + strconv.FormatUint(productID, 10) + "?aff=" + url.QueryEscape(code)
}

// Links issues tracking links to the parties of accepted partnerships.
type Links struct {
	partners partnerThreads
	repo     *Repository
	base     string
}

// NewLinks builds a link issuer for the storefront at base.
func NewLinks(partners partnerThreads, repo *Repository, base string) (*Links, error) {
	if partners == nil {
		return nil, fmt.Errorf("partner request service required")
	}
	if repo == nil {
		return nil, fmt.Errorf("attribution repository required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid storefront url: %w", err)
	}
	return &Links{partners: partners, repo: repo, base: base}, nil
}

// Issue builds the tracking link for productID on an accepted partnership the caller belongs to.
func (l *Links) Issue(ctx context.Context, actor parties.Actor, partnerRequestID, productID uint64) (string, error) {
	if productID == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	req, err := l.partners.Get(ctx, actor, partnerRequestID)
	if err != nil {
		return "", err
	}
	if actor.ID != req.SellerID && actor.ID != req.AffiliateUserID {
		return "", pkgerrors.New(pkgerrors.CodeNotParticipant, "caller is not a participant of this thread")
	}
	if req.Status != enums.HandshakeStatusAccepted {
		return "", pkgerrors.New(pkgerrors.CodePreconditionFailed, "tracking links require an accepted partnership").
			WithDetails(map[string]any{"status": req.Status})
	}
	profile, err := l.repo.FindByUserID(ctx, req.AffiliateUserID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load affiliate profile")
	}
	if profile == nil {
		return "", pkgerrors.New(pkgerrors.CodePreconditionFailed, "affiliate has not set up a tracking profile")
	}
	return BuildLink(l.base, productID, profile.TrackingCode), nil
}
