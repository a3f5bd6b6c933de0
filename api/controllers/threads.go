package controllers

import (
	"context"
	"net/http"

	"github.com/Dj0083/final-project-sub000/api/middleware"
	"github.com/Dj0083/final-project-sub000/api/responses"
	"github.com/Dj0083/final-project-sub000/api/validators"
	"github.com/Dj0083/final-project-sub000/internal/documents"
	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/internal/threadlog"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
	"github.com/Dj0083/final-project-sub000/pkg/logger"
)

// threadResources is the message and document surface shared by every thread type.
type threadResources interface {
	PostMessage(ctx context.Context, actor parties.Actor, id uint64, body string) (*models.Message, error)
	ListMessages(ctx context.Context, actor parties.Actor, id uint64, in threadlog.ListInput) ([]models.Message, error)
	UploadDocument(ctx context.Context, actor parties.Actor, id uint64, docType string, file documents.File) (*models.Document, error)
	ListDocuments(ctx context.Context, actor parties.Actor, id uint64) ([]models.Document, error)
}

type messageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// ThreadMessagePost appends a user-authored message to the thread named by {id}.
func ThreadMessagePost(svc threadResources, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "thread service unavailable"))
			return
		}
		id, err := validators.ParseURLID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload messageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msg, err := svc.PostMessage(r.Context(), middleware.ActorFromContext(r.Context()), id, payload.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, msg)
	}
}

// ThreadMessageList reads the thread log. Supports ?order=asc|desc and ?limit= up to 50.
func ThreadMessageList(svc threadResources, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "thread service unavailable"))
			return
		}
		id, err := validators.ParseURLID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := threadlog.ParseOrder(r.URL.Query().Get("order"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", threadlog.MaxListLimit, 1, threadlog.MaxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msgs, err := svc.ListMessages(r.Context(), middleware.ActorFromContext(r.Context()), id, threadlog.ListInput{Order: order, Limit: limit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, msgs)
	}
}

// ThreadDocumentUpload stores a multipart document on the thread named by {id}.
func ThreadDocumentUpload(svc threadResources, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "thread service unavailable"))
			return
		}
		id, err := validators.ParseURLID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		upload, err := validators.ParseUpload(w, r, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer upload.Close()

		doc, err := svc.UploadDocument(r.Context(), middleware.ActorFromContext(r.Context()), id, upload.DocType, documents.File{
			Name: upload.Filename,
			Body: upload.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, doc)
	}
}

// ThreadDocumentList lists the documents the caller may see on the thread.
func ThreadDocumentList(svc threadResources, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "thread service unavailable"))
			return
		}
		id, err := validators.ParseURLID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docs, err := svc.ListDocuments(r.Context(), middleware.ActorFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, docs)
	}
}
