package funding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Dj0083/final-project-sub000/internal/documents"
	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/internal/threadlog"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
	"github.com/Dj0083/final-project-sub000/pkg/logger"
	"github.com/Dj0083/final-project-sub000/pkg/metrics"
	pkgpagination "github.com/Dj0083/final-project-sub000/pkg/pagination"
)

const (
	msgFinalAgreementUploaded = "Final agreement uploaded; awaiting admin approval."
	msgPaymentSlipUploaded    = "Payment slip uploaded; awaiting admin confirmation."
	msgApproved               = "Funding request approved by admin. Investor, please upload the payment slip to complete funding."
	msgFundedInternal         = "Funding of %s confirmed by admin."
	msgFundedInvestor         = "Your investment of %s has been marked as funded. Thank you."
	msgRejected               = "Funding request rejected by admin."
	maxReasonLen              = 1000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives a funding request from pending through approval to funding.
type Service interface {
	Create(ctx context.Context, actor parties.Actor, in CreateInput) (*models.FundingRequest, bool, error)
	Get(ctx context.Context, actor parties.Actor, id uint64) (*models.FundingRequest, error)
	List(ctx context.Context, actor parties.Actor, params ListParams) (*ListResult, error)
	UploadDocument(ctx context.Context, actor parties.Actor, id uint64, docType string, file documents.File) (*models.Document, error)
	ListDocuments(ctx context.Context, actor parties.Actor, id uint64) ([]models.Document, error)
	PostMessage(ctx context.Context, actor parties.Actor, id uint64, body string) (*models.Message, error)
	ListMessages(ctx context.Context, actor parties.Actor, id uint64, in threadlog.ListInput) ([]models.Message, error)
	Approve(ctx context.Context, actor parties.Actor, id uint64) (*models.FundingRequest, error)
	Fund(ctx context.Context, actor parties.Actor, id uint64, amount *decimal.Decimal) (*models.FundingRequest, error)
	Reject(ctx context.Context, actor parties.Actor, id uint64, reason *string) (*models.FundingRequest, error)
	Stats(ctx context.Context, actor parties.Actor) (*Snapshot, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	directory parties.Directory
	log       threadlog.Log
	gate      documents.Gate
	metrics   *metrics.WorkflowMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the funding state machine.
func NewService(repo *Repository, tx txRunner, directory parties.Directory, log threadlog.Log, gate documents.Gate, m *metrics.WorkflowMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("funding repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if directory == nil {
		return nil, fmt.Errorf("party directory required")
	}
	if log == nil {
		return nil, fmt.Errorf("thread log required")
	}
	if gate == nil {
		return nil, fmt.Errorf("document gate required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		directory: directory,
		log:       log,
		gate:      gate,
		metrics:   m,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor parties.Actor, in CreateInput) (*models.FundingRequest, bool, error) {
	if err := actor.Require(enums.RoleSeller, enums.RoleInvestor, enums.RoleAdmin); err != nil {
		return nil, false, err
	}
	switch actor.Role {
	case enums.RoleSeller:
		in.SellerID = actor.ID
	case enums.RoleInvestor:
		in.InvestorID = actor.ID
	}
	if in.SellerID == 0 || in.InvestorID == 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "seller_id and investor_id are required")
	}
	if !in.RequestedAmount.IsPositive() {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "requested_amount must be greater than zero")
	}
	if _, err := s.directory.Lookup(ctx, in.SellerID, enums.RoleSeller); err != nil {
		return nil, false, err
	}
	if _, err := s.directory.Lookup(ctx, in.InvestorID, enums.RoleInvestor); err != nil {
		return nil, false, err
	}

	now := s.now().UTC()
	investorID := in.InvestorID
	req := &models.FundingRequest{
		SellerID:        in.SellerID,
		InvestorID:      &investorID,
		RequestedAmount: in.RequestedAmount.Round(2),
		Status:          enums.FundingStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	created, err := s.repo.InsertIfAbsent(ctx, req)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert funding request")
	}
	existing, err := s.repo.FindPair(ctx, in.SellerID, in.InvestorID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load funding request")
	}
	if created {
		s.metrics.IncTransition(enums.ThreadTypeFundingRequest.String(), enums.FundingStatusPending.String())
	}
	return existing, created, nil
}

func (s *service) Get(ctx context.Context, actor parties.Actor, id uint64) (*models.FundingRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || (actor.ID != 0 && req.HasParticipant(actor.ID)) {
		return req, nil
	}
	return nil, notParticipant()
}

func (s *service) List(ctx context.Context, actor parties.Actor, params ListParams) (*ListResult, error) {
	var column string
	switch actor.Role {
	case enums.RoleSeller:
		column = "seller_id"
	case enums.RoleInvestor:
		column = "investor_id"
	case enums.RoleAdmin:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role "+actor.Role.String()+" has no funding requests")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	cursor, err := pkgpagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, listQuery{
		column:  column,
		partyID: actor.ID,
		status:  params.Status,
		limit:   limit + 1,
		cursor:  cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list funding requests")
	}

	items, next := pkgpagination.Page(rows, limit, func(r models.FundingRequest) pkgpagination.Cursor {
		return pkgpagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return &ListResult{Items: items, Cursor: next}, nil
}

// UploadDocument stores a gating document. The request's updated_at refresh and
// the system message commit together with the document row. A rollback after the
// object was stored removes the object as well.
func (s *service) UploadDocument(ctx context.Context, actor parties.Actor, id uint64, docType string, file documents.File) (*models.Document, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID == 0 || !req.HasParticipant(actor.ID) {
		return nil, notParticipant()
	}
	normalized, err := documents.Authorize(enums.ThreadTypeFundingRequest, docType, actor.Role)
	if err != nil {
		return nil, err
	}
	if req.Status.IsTerminal() {
		return nil, wrongState(req.Status, "funding request is closed")
	}

	thread := threadRef(id)
	allowed := []enums.FundingStatus{enums.FundingStatusPending, enums.FundingStatusApproved}
	notice := msgFinalAgreementUploaded
	if normalized == enums.DocTypePaymentSlip {
		if req.Status != enums.FundingStatusApproved {
			return nil, wrongState(req.Status, "payment slip can only be uploaded after admin approval")
		}
		agreement, err := s.gate.Find(ctx, thread, enums.DocTypeFinalAgreement)
		if err != nil {
			return nil, err
		}
		if agreement == nil {
			return nil, pkgerrors.New(pkgerrors.CodePreconditionFailed, "final agreement must be uploaded before the payment slip")
		}
		allowed = []enums.FundingStatus{enums.FundingStatusApproved}
		notice = msgPaymentSlipUploaded
	}

	var doc *models.Document
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		touched, err := s.repo.WithTx(tx).Touch(ctx, id, allowed, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "touch funding request")
		}
		if touched == 0 {
			return pkgerrors.New(pkgerrors.CodePreconditionFailed, "funding request changed state; reload and retry")
		}
		doc, err = s.gate.WithTx(tx).Upload(ctx, documents.UploadInput{
			Thread:       thread,
			UploaderID:   actor.ID,
			UploaderRole: actor.Role,
			DocType:      normalized.String(),
			File:         file,
		})
		if err != nil {
			return err
		}
		_, err = s.log.WithTx(tx).AppendSystem(ctx, thread, actor.ID, notice)
		return err
	})
	if err != nil {
		s.gate.Discard(ctx, doc)
		return nil, err
	}
	return doc, nil
}

func (s *service) ListDocuments(ctx context.Context, actor parties.Actor, id uint64) ([]models.Document, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.gate.List(ctx, threadRef(id), actor.Role)
}

func (s *service) PostMessage(ctx context.Context, actor parties.Actor, id uint64, body string) (*models.Message, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID == 0 || !req.HasParticipant(actor.ID) {
		return nil, notParticipant()
	}
	return s.log.Append(ctx, threadlog.AppendInput{
		Thread:     threadRef(id),
		SenderID:   actor.ID,
		SenderType: enums.SenderTypeForRole(actor.Role),
		Body:       body,
	})
}

func (s *service) ListMessages(ctx context.Context, actor parties.Actor, id uint64, in threadlog.ListInput) ([]models.Message, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.log.List(ctx, threadRef(id), in)
}

// Approve requires a final agreement on file.
func (s *service) Approve(ctx context.Context, actor parties.Actor, id uint64) (*models.FundingRequest, error) {
	if err := actor.Require(enums.RoleAdmin); err != nil {
		return nil, err
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != enums.FundingStatusPending {
		return nil, wrongState(req.Status, "only pending requests can be approved")
	}
	if err := s.requireDocument(ctx, id, enums.DocTypeFinalAgreement, "final agreement is required before approval"); err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, id, []enums.FundingStatus{enums.FundingStatusPending}, enums.FundingStatusApproved,
		map[string]any{"admin_approved": true},
		msgApproved)
}

// Fund requires an approved request with a payment slip on file. A nil amount
// keeps the prior funded amount, falling back to the requested amount.
func (s *service) Fund(ctx context.Context, actor parties.Actor, id uint64, amount *decimal.Decimal) (*models.FundingRequest, error) {
	if err := actor.Require(enums.RoleAdmin); err != nil {
		return nil, err
	}
	if amount != nil && !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "funded_amount must be greater than zero")
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != enums.FundingStatusApproved {
		return nil, wrongState(req.Status, "only approved requests can be funded")
	}
	if err := s.requireDocument(ctx, id, enums.DocTypePaymentSlip, "payment slip is required before funding"); err != nil {
		return nil, err
	}

	funded := req.RequestedAmount
	switch {
	case amount != nil:
		funded = *amount
	case req.FundedAmount.Valid:
		funded = req.FundedAmount.Decimal
	}
	funded = funded.Round(2)

	return s.transition(ctx, actor, id, []enums.FundingStatus{enums.FundingStatusApproved}, enums.FundingStatusFunded,
		map[string]any{"funded_amount": decimal.NewNullDecimal(funded)},
		fmt.Sprintf(msgFundedInternal, funded.StringFixed(2)),
		fmt.Sprintf(msgFundedInvestor, funded.StringFixed(2)))
}

func (s *service) Reject(ctx context.Context, actor parties.Actor, id uint64, reason *string) (*models.FundingRequest, error) {
	if err := actor.Require(enums.RoleAdmin); err != nil {
		return nil, err
	}
	body := msgRejected
	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		if len(trimmed) > maxReasonLen {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reason exceeds %d characters", maxReasonLen))
		}
		if trimmed != "" {
			body += " Reason: " + trimmed
		}
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status.IsTerminal() {
		return nil, wrongState(req.Status, "funding request is already closed")
	}

	return s.transition(ctx, actor, id, []enums.FundingStatus{enums.FundingStatusPending, enums.FundingStatusApproved}, enums.FundingStatusRejected,
		map[string]any{"admin_approved": false}, body)
}

// transition applies a conditional status change and its system messages in one transaction.
func (s *service) transition(ctx context.Context, actor parties.Actor, id uint64, from []enums.FundingStatus, to enums.FundingStatus, extra map[string]any, notices ...string) (*models.FundingRequest, error) {
	thread := threadRef(id)
	var out *models.FundingRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.Transition(ctx, id, from, to, s.now().UTC(), extra)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update funding request")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodePreconditionFailed, "funding request changed state; reload and retry")
		}
		log := s.log.WithTx(tx)
		for _, notice := range notices {
			if _, err := log.AppendSystem(ctx, thread, actor.ID, notice); err != nil {
				return err
			}
		}
		out, err = repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload funding request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(enums.ThreadTypeFundingRequest.String(), to.String())
	if s.logg != nil {
		logCtx := s.logg.WithThread(ctx, enums.ThreadTypeFundingRequest.String(), id)
		logCtx = s.logg.WithUserID(logCtx, actor.ID)
		s.logg.Info(logCtx, "funding."+to.String())
	}
	return out, nil
}

func (s *service) requireDocument(ctx context.Context, id uint64, docType enums.DocType, message string) error {
	doc, err := s.gate.Find(ctx, threadRef(id), docType)
	if err != nil {
		return err
	}
	if doc == nil {
		return pkgerrors.New(pkgerrors.CodePreconditionFailed, message).
			WithDetails(map[string]any{"missing_document": docType})
	}
	return nil
}

func (s *service) load(ctx context.Context, id uint64) (*models.FundingRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "funding request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load funding request")
	}
	return req, nil
}

func threadRef(id uint64) models.ThreadRef {
	return models.ThreadRef{Type: enums.ThreadTypeFundingRequest, ID: id}
}

func notParticipant() error {
	return pkgerrors.New(pkgerrors.CodeNotParticipant, "caller is not a participant of this funding request")
}

func wrongState(status enums.FundingStatus, message string) error {
	return pkgerrors.New(pkgerrors.CodePreconditionFailed, message).
		WithDetails(map[string]any{"status": status})
}
