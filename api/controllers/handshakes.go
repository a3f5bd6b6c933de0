package controllers

import (
	"net/http"
	"strings"

	"github.com/Dj0083/final-project-sub000/api/middleware"
	"github.com/Dj0083/final-project-sub000/api/responses"
	"github.com/Dj0083/final-project-sub000/api/validators"
	"github.com/Dj0083/final-project-sub000/internal/handshake"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
	"github.com/Dj0083/final-project-sub000/pkg/logger"
)

type connectionRequest struct {
	InvestorID uint64  `json:"investor_id" validate:"required"`
	Notes      *string `json:"notes" validate:"omitempty,max=1000"`
}

type connectionRespondRequest struct {
	ConnectionID uint64 `json:"connection_id" validate:"required"`
	Decision     string `json:"decision" validate:"required,oneof=accept reject"`
}

type partnerRequest struct {
	AffiliateUserID uint64  `json:"affiliate_user_id" validate:"required"`
	Message         *string `json:"message" validate:"omitempty,max=1000"`
}

// ConnectionRequest lets a seller ask an investor to connect. A repeated request
// returns the existing connection with 200 instead of 201.
func ConnectionRequest(svc handshake.Service[models.Connection], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "connection service unavailable"))
			return
		}
		var payload connectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		conn, created, err := svc.Request(r.Context(), middleware.ActorFromContext(r.Context()), payload.InvestorID, payload.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, createdStatus(created), conn)
	}
}

// ConnectionRespond records the investor's decision on a pending connection.
func ConnectionRespond(svc handshake.Service[models.Connection], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "connection service unavailable"))
			return
		}
		var payload connectionRespondRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		decision, err := enums.ParseDecision(payload.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		conn, err := svc.Respond(r.Context(), middleware.ActorFromContext(r.Context()), payload.ConnectionID, decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, conn)
	}
}

// PartnerRequestCreate lets an investor-vetted seller invite an affiliate.
func PartnerRequestCreate(svc handshake.Service[models.PartnerRequest], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner request service unavailable"))
			return
		}
		var payload partnerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, created, err := svc.Request(r.Context(), middleware.ActorFromContext(r.Context()), payload.AffiliateUserID, payload.Message)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, createdStatus(created), req)
	}
}

// PartnerRequestRespond applies a fixed decision to the partner request named by {id}.
func PartnerRequestRespond(svc handshake.Service[models.PartnerRequest], decision enums.Decision, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partner request service unavailable"))
			return
		}
		id, err := validators.ParseURLID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := svc.Respond(r.Context(), middleware.ActorFromContext(r.Context()), id, decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

// HandshakeList lists the caller's threads of one kind, newest first, with an optional ?status= filter.
func HandshakeList[T handshake.Thread](svc handshake.Service[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "handshake service unavailable"))
			return
		}
		var status *enums.HandshakeStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseHandshakeStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
				return
			}
			status = &parsed
		}

		rows, err := svc.ListFor(r.Context(), middleware.ActorFromContext(r.Context()), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
