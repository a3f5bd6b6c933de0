package funding

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Dj0083/final-project-sub000/internal/documents"
	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/internal/threadlog"
	"github.com/Dj0083/final-project-sub000/pkg/db"
	"github.com/Dj0083/final-project-sub000/pkg/db/dbtest"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
	"github.com/Dj0083/final-project-sub000/pkg/pagination"
	"github.com/Dj0083/final-project-sub000/pkg/storage/local"
)

const pdfBody = "%PDF-1.7\n1 0 obj\n<<>>\nendobj\n"

type fixture struct {
	client   *db.Client
	svc      Service
	seller   parties.Actor
	investor parties.Actor
	admin    parties.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)

	directory, err := parties.NewDirectory(parties.NewRepository(client.DB()))
	require.NoError(t, err)
	log, err := threadlog.NewLog(threadlog.NewRepository(client.DB()))
	require.NoError(t, err)
	store, err := local.New(t.TempDir(), "/files")
	require.NoError(t, err)
	gate, err := documents.NewGate(documents.NewRepository(client.DB()), store, nil, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(client.DB()), client, directory, log, gate, nil, nil)
	require.NoError(t, err)

	return &fixture{
		client:   client,
		svc:      svc,
		seller:   parties.Actor{ID: dbtest.SeedParty(t, client, enums.RoleSeller, "Seller"), Role: enums.RoleSeller},
		investor: parties.Actor{ID: dbtest.SeedParty(t, client, enums.RoleInvestor, "Investor"), Role: enums.RoleInvestor},
		admin:    parties.Actor{ID: dbtest.SeedParty(t, client, enums.RoleAdmin, "Admin"), Role: enums.RoleAdmin},
	}
}

func (f *fixture) create(t *testing.T, amount string) *models.FundingRequest {
	t.Helper()
	req, created, err := f.svc.Create(context.Background(), f.seller, CreateInput{
		InvestorID:      f.investor.ID,
		RequestedAmount: decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	require.True(t, created)
	return req
}

func (f *fixture) upload(id uint64, actor parties.Actor, docType string) (*models.Document, error) {
	return f.svc.UploadDocument(context.Background(), actor, id, docType, documents.File{Name: docType + ".pdf", Body: strings.NewReader(pdfBody)})
}

func (f *fixture) status(t *testing.T, id uint64) enums.FundingStatus {
	t.Helper()
	req, err := f.svc.Get(context.Background(), f.admin, id)
	require.NoError(t, err)
	return req.Status
}

func TestNewServiceValidatesDeps(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil, nil, nil, nil)
	require.Error(t, err)
}

func TestCreateReturnsExistingRequestForPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, "2500")
	require.Equal(t, enums.FundingStatusPending, first.Status)
	require.NotNil(t, first.InvestorID)
	require.Equal(t, f.investor.ID, *first.InvestorID)
	require.False(t, first.FundedAmount.Valid)

	again, created, err := f.svc.Create(ctx, f.investor, CreateInput{SellerID: f.seller.ID, RequestedAmount: decimal.NewFromInt(9000)})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, again.ID)
	require.True(t, again.RequestedAmount.Equal(decimal.NewFromInt(2500)))

	_, err = f.svc.Reject(ctx, f.admin, first.ID, nil)
	require.NoError(t, err)
	afterReject, created, err := f.svc.Create(ctx, f.admin, CreateInput{SellerID: f.seller.ID, InvestorID: f.investor.ID, RequestedAmount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, enums.FundingStatusRejected, afterReject.Status)
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Create(ctx, f.seller, CreateInput{InvestorID: f.investor.ID, RequestedAmount: decimal.Zero})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, _, err = f.svc.Create(ctx, f.admin, CreateInput{SellerID: f.seller.ID, RequestedAmount: decimal.NewFromInt(10)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, _, err = f.svc.Create(ctx, f.seller, CreateInput{InvestorID: f.admin.ID, RequestedAmount: decimal.NewFromInt(10)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	affiliate := parties.Actor{ID: dbtest.SeedParty(t, f.client, enums.RoleAffiliate, "Aff"), Role: enums.RoleAffiliate}
	_, _, err = f.svc.Create(ctx, affiliate, CreateInput{SellerID: f.seller.ID, InvestorID: f.investor.ID, RequestedAmount: decimal.NewFromInt(10)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestApproveWithoutFinalAgreementFails(t *testing.T) {
	f := newFixture(t)
	req := f.create(t, "1000")

	_, err := f.svc.Approve(context.Background(), f.admin, req.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed))
	require.Equal(t, http.StatusBadRequest, pkgerrors.As(err).HTTPStatus())
	require.Equal(t, enums.FundingStatusPending, f.status(t, req.ID))
}

func TestFundingLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t, "4000")

	_, err := f.upload(req.ID, f.investor, "payment_slip")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed), "slip needs approval first")

	_, err = f.upload(req.ID, f.seller, "final_agreement")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	agreement, err := f.upload(req.ID, f.investor, "Final_Agreement")
	require.NoError(t, err)
	require.Equal(t, enums.DocTypeFinalAgreement, agreement.DocType)

	_, err = f.svc.Approve(ctx, f.investor, req.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Fund(ctx, f.admin, req.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed), "pending requests cannot be funded")

	approved, err := f.svc.Approve(ctx, f.admin, req.ID)
	require.NoError(t, err)
	require.Equal(t, enums.FundingStatusApproved, approved.Status)
	require.True(t, approved.AdminApproved)

	_, err = f.svc.Fund(ctx, f.admin, req.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed), "slip required before funding")

	_, err = f.upload(req.ID, f.investor, "payment_slip")
	require.NoError(t, err)

	amount := decimal.NewFromInt(5000)
	funded, err := f.svc.Fund(ctx, f.admin, req.ID, &amount)
	require.NoError(t, err)
	require.Equal(t, enums.FundingStatusFunded, funded.Status)
	require.True(t, funded.FundedAmount.Valid)
	require.True(t, funded.FundedAmount.Decimal.Equal(amount))

	msgs, err := f.svc.ListMessages(ctx, f.seller, req.ID, threadlog.ListInput{})
	require.NoError(t, err)
	bodies := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		require.True(t, msg.IsSystem)
		bodies = append(bodies, msg.Body)
	}
	require.Equal(t, []string{
		msgFinalAgreementUploaded,
		msgApproved,
		msgPaymentSlipUploaded,
		"Funding of 5000.00 confirmed by admin.",
		"Your investment of 5000.00 has been marked as funded. Thank you.",
	}, bodies)
}

func TestFundDefaultsToRequestedAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t, "1250.50")

	_, err := f.upload(req.ID, f.investor, "final_agreement")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin, req.ID)
	require.NoError(t, err)
	_, err = f.upload(req.ID, f.investor, "payment_slip")
	require.NoError(t, err)

	negative := decimal.NewFromInt(-1)
	_, err = f.svc.Fund(ctx, f.admin, req.ID, &negative)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	funded, err := f.svc.Fund(ctx, f.admin, req.ID, nil)
	require.NoError(t, err)
	require.True(t, funded.FundedAmount.Decimal.Equal(decimal.RequireFromString("1250.50")))
}

func TestSecondFinalAgreementConflicts(t *testing.T) {
	f := newFixture(t)
	req := f.create(t, "1000")

	first, err := f.upload(req.ID, f.investor, "final_agreement")
	require.NoError(t, err)

	_, err = f.upload(req.ID, f.investor, "final_agreement")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, first.ID, details["existing_document_id"])

	docs, err := f.svc.ListDocuments(context.Background(), f.investor, req.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, first.FilePath, docs[0].FilePath)

	msgs, err := f.svc.ListMessages(context.Background(), f.investor, req.ID, threadlog.ListInput{})
	require.NoError(t, err)
	require.Len(t, msgs, 1, "a rejected upload leaves no system message behind")
}

func TestTerminalStatesAreFinal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rejected := f.create(t, "300")
	_, err := f.upload(rejected.ID, f.investor, "final_agreement")
	require.NoError(t, err)
	reason := "  incomplete paperwork "
	out, err := f.svc.Reject(ctx, f.admin, rejected.ID, &reason)
	require.NoError(t, err)
	require.Equal(t, enums.FundingStatusRejected, out.Status)

	_, err = f.svc.Approve(ctx, f.admin, rejected.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed))
	_, err = f.svc.Reject(ctx, f.admin, rejected.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed))
	_, err = f.svc.Fund(ctx, f.admin, rejected.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed))
	_, err = f.upload(rejected.ID, f.investor, "payment_slip")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed))
	require.Equal(t, enums.FundingStatusRejected, f.status(t, rejected.ID))

	msgs, err := f.svc.ListMessages(ctx, f.admin, rejected.ID, threadlog.ListInput{Order: threadlog.OrderDesc})
	require.NoError(t, err)
	require.Equal(t, msgRejected+" Reason: incomplete paperwork", msgs[0].Body)

	otherInvestor := parties.Actor{ID: dbtest.SeedParty(t, f.client, enums.RoleInvestor, "Second"), Role: enums.RoleInvestor}
	funded, _, err := f.svc.Create(ctx, f.seller, CreateInput{InvestorID: otherInvestor.ID, RequestedAmount: decimal.NewFromInt(700)})
	require.NoError(t, err)
	_, err = f.upload(funded.ID, otherInvestor, "final_agreement")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin, funded.ID)
	require.NoError(t, err)
	_, err = f.upload(funded.ID, otherInvestor, "payment_slip")
	require.NoError(t, err)
	_, err = f.svc.Fund(ctx, f.admin, funded.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, f.admin, funded.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed))
	_, err = f.svc.Fund(ctx, f.admin, funded.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed))
	require.Equal(t, enums.FundingStatusFunded, f.status(t, funded.ID))
}

func TestRejectFromApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t, "1200")

	_, err := f.upload(req.ID, f.investor, "final_agreement")
	require.NoError(t, err)
	approved, err := f.svc.Approve(ctx, f.admin, req.ID)
	require.NoError(t, err)
	require.True(t, approved.AdminApproved)

	reason := "investor withdrew"
	out, err := f.svc.Reject(ctx, f.admin, req.ID, &reason)
	require.NoError(t, err)
	require.Equal(t, enums.FundingStatusRejected, out.Status)
	require.False(t, out.AdminApproved)
	require.Equal(t, enums.FundingStatusRejected, f.status(t, req.ID))

	msgs, err := f.svc.ListMessages(ctx, f.admin, req.ID, threadlog.ListInput{Order: threadlog.OrderDesc})
	require.NoError(t, err)
	require.True(t, msgs[0].IsSystem)
	require.Equal(t, msgRejected+" Reason: investor withdrew", msgs[0].Body)

	_, err = f.upload(req.ID, f.investor, "payment_slip")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed))
	_, err = f.svc.Fund(ctx, f.admin, req.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePreconditionFailed))

	docs, err := f.svc.ListDocuments(ctx, f.admin, req.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, enums.DocTypeFinalAgreement, docs[0].DocType)
}

type failingLog struct {
	threadlog.Log
}

func (l failingLog) WithTx(*gorm.DB) threadlog.Log { return l }

func (failingLog) AppendSystem(context.Context, models.ThreadRef, uint64, string) (*models.Message, error) {
	return nil, errors.New("messages unavailable")
}

func TestUploadRollbackDiscardsStoredObject(t *testing.T) {
	client := dbtest.Open(t)
	root := t.TempDir()

	directory, err := parties.NewDirectory(parties.NewRepository(client.DB()))
	require.NoError(t, err)
	log, err := threadlog.NewLog(threadlog.NewRepository(client.DB()))
	require.NoError(t, err)
	store, err := local.New(root, "/files")
	require.NoError(t, err)
	gate, err := documents.NewGate(documents.NewRepository(client.DB()), store, nil, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(client.DB()), client, directory, failingLog{Log: log}, gate, nil, nil)
	require.NoError(t, err)

	seller := parties.Actor{ID: dbtest.SeedParty(t, client, enums.RoleSeller, "Seller"), Role: enums.RoleSeller}
	investor := parties.Actor{ID: dbtest.SeedParty(t, client, enums.RoleInvestor, "Investor"), Role: enums.RoleInvestor}
	req, _, err := svc.Create(context.Background(), seller, CreateInput{InvestorID: investor.ID, RequestedAmount: decimal.NewFromInt(900)})
	require.NoError(t, err)

	_, err = svc.UploadDocument(context.Background(), investor, req.ID, "final_agreement", documents.File{Name: "fa.pdf", Body: strings.NewReader(pdfBody)})
	require.Error(t, err)

	docs, err := gate.List(context.Background(), threadRef(req.ID), enums.RoleAdmin)
	require.NoError(t, err)
	require.Empty(t, docs)

	var files []string
	require.NoError(t, filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	}))
	require.Empty(t, files, "rolled back upload left its object in the store")
}

func TestThreadAccessRequiresParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t, "800")

	outsider := parties.Actor{ID: dbtest.SeedParty(t, f.client, enums.RoleInvestor, "Outsider"), Role: enums.RoleInvestor}
	_, err := f.svc.Get(ctx, outsider, req.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotParticipant))
	_, err = f.upload(req.ID, outsider, "final_agreement")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotParticipant))
	_, err = f.svc.PostMessage(ctx, outsider, req.ID, "hello")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotParticipant))
	_, err = f.svc.PostMessage(ctx, f.admin, req.ID, "hello")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotParticipant))

	msg, err := f.svc.PostMessage(ctx, f.seller, req.ID, "looking forward to it")
	require.NoError(t, err)
	require.Equal(t, enums.SenderTypeVendor, msg.SenderType)

	_, err = f.svc.Get(ctx, f.seller, 4242)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListIsRoleScopedAndPaginated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		investor := dbtest.SeedParty(t, f.client, enums.RoleInvestor, "Inv")
		_, _, err := f.svc.Create(ctx, f.seller, CreateInput{InvestorID: investor, RequestedAmount: decimal.NewFromInt(100)})
		require.NoError(t, err)
	}
	mine := f.create(t, "50")

	page, err := f.svc.List(ctx, f.seller, ListParams{Params: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Cursor)

	next, err := f.svc.List(ctx, f.seller, ListParams{Params: pagination.Params{Limit: 2, Cursor: page.Cursor}})
	require.NoError(t, err)
	require.Len(t, next.Items, 2)
	require.Empty(t, next.Cursor)
	require.NotEqual(t, page.Items[1].ID, next.Items[0].ID)

	investorView, err := f.svc.List(ctx, f.investor, ListParams{})
	require.NoError(t, err)
	require.Len(t, investorView.Items, 1)
	require.Equal(t, mine.ID, investorView.Items[0].ID)

	pending := enums.FundingStatusPending
	adminView, err := f.svc.List(ctx, f.admin, ListParams{Status: &pending})
	require.NoError(t, err)
	require.Len(t, adminView.Items, 4)

	_, err = f.svc.List(ctx, f.seller, ListParams{Params: pagination.Params{Cursor: "not-a-cursor"}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestStatsAreRoleScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	funded := f.create(t, "1000")
	_, err := f.upload(funded.ID, f.investor, "final_agreement")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin, funded.ID)
	require.NoError(t, err)
	_, err = f.upload(funded.ID, f.investor, "payment_slip")
	require.NoError(t, err)
	amount := decimal.NewFromInt(5000)
	_, err = f.svc.Fund(ctx, f.admin, funded.ID, &amount)
	require.NoError(t, err)

	otherSeller := parties.Actor{ID: dbtest.SeedParty(t, f.client, enums.RoleSeller, "Other"), Role: enums.RoleSeller}
	approved, _, err := f.svc.Create(ctx, otherSeller, CreateInput{InvestorID: f.investor.ID, RequestedAmount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	_, err = f.upload(approved.ID, f.investor, "final_agreement")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin, approved.ID)
	require.NoError(t, err)

	investorStats, err := f.svc.Stats(ctx, f.investor)
	require.NoError(t, err)
	require.True(t, investorStats.TotalInvested.Equal(amount))
	require.Equal(t, int64(1), investorStats.ActiveDeals)
	require.Equal(t, int64(1), *investorStats.AwaitingFunding)
	require.Nil(t, investorStats.TotalRaised)

	sellerStats, err := f.svc.Stats(ctx, otherSeller)
	require.NoError(t, err)
	require.True(t, sellerStats.TotalRaised.IsZero())
	require.Zero(t, sellerStats.ActiveDeals)
	require.Zero(t, *sellerStats.PendingApprovals)

	adminStats, err := f.svc.Stats(ctx, f.admin)
	require.NoError(t, err)
	require.True(t, adminStats.TotalFunded.Equal(amount))
	require.Equal(t, int64(2), *adminStats.TotalRequests)
	require.Equal(t, int64(1), *adminStats.AwaitingFunding)
}
