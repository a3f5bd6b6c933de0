package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Dj0083/final-project-sub000/api/middleware"
	"github.com/Dj0083/final-project-sub000/api/responses"
	"github.com/Dj0083/final-project-sub000/api/validators"
	"github.com/Dj0083/final-project-sub000/internal/attribution"
	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
	"github.com/Dj0083/final-project-sub000/pkg/logger"
	"github.com/Dj0083/final-project-sub000/pkg/types"
)

type linkIssuer interface {
	Issue(ctx context.Context, actor parties.Actor, partnerRequestID, productID uint64) (string, error)
}

type saleRequest struct {
	ProductID uint64           `json:"product_id" validate:"required"`
	Code      string           `json:"code" validate:"required,max=32"`
	Amount    *decimal.Decimal `json:"amount" validate:"required"`
}

type affiliateProfileRequest struct {
	DisplayName string            `json:"display_name" validate:"required,max=120"`
	SocialLinks types.SocialLinks `json:"social_links"`
}

// TrackClick records a click for ?ref= and redirects to the storefront product page.
func TrackClick(svc attribution.Service, storefrontURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attribution service unavailable"))
			return
		}
		productID, err := validators.ParseURLID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code := strings.TrimSpace(r.URL.Query().Get("ref"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "ref is required"))
			return
		}

		if err := svc.TrackClick(r.Context(), productID, code, middleware.ClientIP(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		http.Redirect(w, r, attribution.BuildLink(storefrontURL, productID, code), http.StatusFound)
	}
}

// TrackSale records a storefront sale and returns the commission it earned.
func TrackSale(svc attribution.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attribution service unavailable"))
			return
		}
		var payload saleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.RecordSale(r.Context(), attribution.SaleInput{
			ProductID: payload.ProductID,
			Code:      payload.Code,
			Amount:    *payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"sale_id":    sale.ID,
			"commission": sale.Commission,
		})
	}
}

// PartnerLink issues a tracking link on an accepted partnership for ?product_id=.
func PartnerLink(links linkIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if links == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "link issuer unavailable"))
			return
		}
		id, err := validators.ParseURLID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseQueryID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := links.Issue(r.Context(), middleware.ActorFromContext(r.Context()), id, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"link": link})
	}
}

// AffiliateUpsert creates or updates the caller's affiliate profile.
func AffiliateUpsert(svc attribution.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attribution service unavailable"))
			return
		}
		var payload affiliateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		links := payload.SocialLinks.Normalize()
		if err := links.Validate(); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()).
				WithDetails(map[string]string{"social_links": err.Error()}))
			return
		}

		profile, created, err := svc.UpsertProfile(r.Context(), middleware.ActorFromContext(r.Context()), attribution.ProfileInput{
			DisplayName: payload.DisplayName,
			SocialLinks: links,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, createdStatus(created), profile)
	}
}

func AffiliateMe(svc attribution.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attribution service unavailable"))
			return
		}
		profile, err := svc.MyProfile(r.Context(), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func AffiliateDashboard(svc attribution.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attribution service unavailable"))
			return
		}
		dash, err := svc.MyDashboard(r.Context(), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dash)
	}
}

// AdminAffiliateList lists affiliate profiles, optionally filtered by ?status=.
func AdminAffiliateList(svc attribution.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attribution service unavailable"))
			return
		}
		var status *enums.AffiliateStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseAffiliateStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
				return
			}
			status = &parsed
		}

		rows, err := svc.ListProfiles(r.Context(), middleware.ActorFromContext(r.Context()), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminAffiliateSetStatus approves or rejects the affiliate profile named by {id}.
func AdminAffiliateSetStatus(svc attribution.Service, status enums.AffiliateStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attribution service unavailable"))
			return
		}
		id, err := validators.ParseURLID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.SetStatus(r.Context(), middleware.ActorFromContext(r.Context()), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
