package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Dj0083/final-project-sub000/api/middleware"
	"github.com/Dj0083/final-project-sub000/internal/attribution"
	"github.com/Dj0083/final-project-sub000/internal/documents"
	"github.com/Dj0083/final-project-sub000/internal/funding"
	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/internal/threadlog"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details map[string]any  `json:"details"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func newRequest(method, target, body string, actor parties.Actor, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := middleware.WithActor(req.Context(), actor)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

type stubHandshake[T any] struct {
	thread   T
	created  bool
	err      error
	rows     []T
	targetID uint64
	note     *string
	threadID uint64
	decision enums.Decision
	status   *enums.HandshakeStatus
	actor    parties.Actor
}

func (s *stubHandshake[T]) Request(ctx context.Context, actor parties.Actor, targetID uint64, note *string) (T, bool, error) {
	s.actor, s.targetID, s.note = actor, targetID, note
	return s.thread, s.created, s.err
}

func (s *stubHandshake[T]) Respond(ctx context.Context, actor parties.Actor, threadID uint64, decision enums.Decision) (T, error) {
	s.actor, s.threadID, s.decision = actor, threadID, decision
	return s.thread, s.err
}

func (s *stubHandshake[T]) ListFor(ctx context.Context, actor parties.Actor, status *enums.HandshakeStatus) ([]T, error) {
	s.actor, s.status = actor, status
	return s.rows, s.err
}

func (s *stubHandshake[T]) IsParticipant(ctx context.Context, threadID, partyID uint64) (bool, error) {
	return s.err == nil, s.err
}

func (s *stubHandshake[T]) Get(ctx context.Context, actor parties.Actor, threadID uint64) (T, error) {
	s.actor, s.threadID = actor, threadID
	return s.thread, s.err
}

func (s *stubHandshake[T]) PostMessage(ctx context.Context, actor parties.Actor, threadID uint64, body string) (*models.Message, error) {
	return nil, s.err
}

func (s *stubHandshake[T]) ListMessages(ctx context.Context, actor parties.Actor, threadID uint64, in threadlog.ListInput) ([]models.Message, error) {
	return nil, s.err
}

func (s *stubHandshake[T]) UploadDocument(ctx context.Context, actor parties.Actor, threadID uint64, docType string, file documents.File) (*models.Document, error) {
	return nil, s.err
}

func (s *stubHandshake[T]) ListDocuments(ctx context.Context, actor parties.Actor, threadID uint64) ([]models.Document, error) {
	return nil, s.err
}

type stubThreads struct {
	err      error
	id       uint64
	body     string
	docType  string
	content  string
	listIn   threadlog.ListInput
	messages []models.Message
	docs     []models.Document
}

func (s *stubThreads) PostMessage(ctx context.Context, actor parties.Actor, id uint64, body string) (*models.Message, error) {
	s.id, s.body = id, body
	if s.err != nil {
		return nil, s.err
	}
	return &models.Message{ID: 1, ThreadID: id, SenderID: actor.ID, Body: body}, nil
}

func (s *stubThreads) ListMessages(ctx context.Context, actor parties.Actor, id uint64, in threadlog.ListInput) ([]models.Message, error) {
	s.id, s.listIn = id, in
	return s.messages, s.err
}

func (s *stubThreads) UploadDocument(ctx context.Context, actor parties.Actor, id uint64, docType string, file documents.File) (*models.Document, error) {
	s.id, s.docType = id, docType
	if file.Body != nil {
		data, _ := io.ReadAll(file.Body)
		s.content = string(data)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.Document{ID: 3, ThreadID: id, DocType: enums.DocType(docType)}, nil
}

func (s *stubThreads) ListDocuments(ctx context.Context, actor parties.Actor, id uint64) ([]models.Document, error) {
	s.id = id
	return s.docs, s.err
}

type stubFunding struct {
	stubThreads
	req      *models.FundingRequest
	created  bool
	input    funding.CreateInput
	params   funding.ListParams
	amount   *decimal.Decimal
	reason   *string
	snapshot *funding.Snapshot
}

func (s *stubFunding) Create(ctx context.Context, actor parties.Actor, in funding.CreateInput) (*models.FundingRequest, bool, error) {
	s.input = in
	return s.req, s.created, s.err
}

func (s *stubFunding) Get(ctx context.Context, actor parties.Actor, id uint64) (*models.FundingRequest, error) {
	s.id = id
	return s.req, s.err
}

func (s *stubFunding) List(ctx context.Context, actor parties.Actor, params funding.ListParams) (*funding.ListResult, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return &funding.ListResult{}, nil
}

func (s *stubFunding) Approve(ctx context.Context, actor parties.Actor, id uint64) (*models.FundingRequest, error) {
	s.id = id
	return s.req, s.err
}

func (s *stubFunding) Fund(ctx context.Context, actor parties.Actor, id uint64, amount *decimal.Decimal) (*models.FundingRequest, error) {
	s.id, s.amount = id, amount
	return s.req, s.err
}

func (s *stubFunding) Reject(ctx context.Context, actor parties.Actor, id uint64, reason *string) (*models.FundingRequest, error) {
	s.id, s.reason = id, reason
	return s.req, s.err
}

func (s *stubFunding) Stats(ctx context.Context, actor parties.Actor) (*funding.Snapshot, error) {
	return s.snapshot, s.err
}

type stubAttribution struct {
	err       error
	productID uint64
	code      string
	sourceIP  string
	sale      attribution.SaleInput
	profile   attribution.ProfileInput
	status    enums.AffiliateStatus
	id        uint64
}

func (s *stubAttribution) TrackClick(ctx context.Context, productID uint64, code, sourceIP string) error {
	s.productID, s.code, s.sourceIP = productID, code, sourceIP
	return s.err
}

func (s *stubAttribution) RecordSale(ctx context.Context, in attribution.SaleInput) (*models.Sale, error) {
	s.sale = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Sale{ID: 9, Amount: in.Amount, Commission: attribution.Commission(in.Amount, decimal.RequireFromString("0.15"))}, nil
}

func (s *stubAttribution) Dashboard(ctx context.Context, affiliateID uint64) (*attribution.Dashboard, error) {
	return &attribution.Dashboard{AffiliateID: affiliateID}, s.err
}

func (s *stubAttribution) MyDashboard(ctx context.Context, actor parties.Actor) (*attribution.Dashboard, error) {
	return &attribution.Dashboard{AffiliateID: 1}, s.err
}

func (s *stubAttribution) UpsertProfile(ctx context.Context, actor parties.Actor, in attribution.ProfileInput) (*models.Affiliate, bool, error) {
	s.profile = in
	if s.err != nil {
		return nil, false, s.err
	}
	return &models.Affiliate{ID: 1, UserID: actor.ID, DisplayName: in.DisplayName, SocialLinks: in.SocialLinks}, true, nil
}

func (s *stubAttribution) MyProfile(ctx context.Context, actor parties.Actor) (*models.Affiliate, error) {
	return &models.Affiliate{ID: 1, UserID: actor.ID}, s.err
}

func (s *stubAttribution) ListProfiles(ctx context.Context, actor parties.Actor, status *enums.AffiliateStatus) ([]models.Affiliate, error) {
	if status != nil {
		s.status = *status
	}
	return nil, s.err
}

func (s *stubAttribution) SetStatus(ctx context.Context, actor parties.Actor, affiliateID uint64, status enums.AffiliateStatus) (*models.Affiliate, error) {
	s.id, s.status = affiliateID, status
	return &models.Affiliate{ID: affiliateID, Status: status}, s.err
}

type stubLinks struct {
	link string
	err  error
}

func (s stubLinks) Issue(ctx context.Context, actor parties.Actor, partnerRequestID, productID uint64) (string, error) {
	return s.link, s.err
}
