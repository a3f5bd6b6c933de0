package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Dj0083/final-project-sub000/api/controllers"
	"github.com/Dj0083/final-project-sub000/internal/attribution"
	"github.com/Dj0083/final-project-sub000/internal/documents"
	"github.com/Dj0083/final-project-sub000/internal/funding"
	"github.com/Dj0083/final-project-sub000/internal/handshake"
	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/internal/threadlog"
	pkgAuth "github.com/Dj0083/final-project-sub000/pkg/auth"
	"github.com/Dj0083/final-project-sub000/pkg/config"
	"github.com/Dj0083/final-project-sub000/pkg/db"
	"github.com/Dj0083/final-project-sub000/pkg/db/dbtest"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	"github.com/Dj0083/final-project-sub000/pkg/metrics"
	"github.com/Dj0083/final-project-sub000/pkg/storage/local"
)

const pdfBody = "%PDF-1.7\n1 0 obj\n<<>>\nendobj\n"

type harness struct {
	t        *testing.T
	cfg      *config.Config
	client   *db.Client
	handler  http.Handler
	seller   uint64
	investor uint64
	admin    uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		App:      config.AppConfig{Env: "dev", CORSOrigins: []string{"http://localhost:3000"}},
		Auth:     config.AuthConfig{Secret: "test-secret", Issuer: "market-test", TokenTTLMinutes: 5},
		Storage:  config.StorageConfig{Driver: "local", PublicBase: "/files", MaxUploadMB: 1},
		Tracking: config.TrackingConfig{StorefrontURL: "https://shop.example.com", WebhookSecret: "hook", CommissionRate: "0.15"},
	}
	client := dbtest.Open(t)
	reg := prometheus.NewRegistry()
	wm := metrics.NewWorkflowMetrics(reg)

	root := t.TempDir()
	store, err := local.New(root, cfg.Storage.PublicBase)
	require.NoError(t, err)

	directory, err := parties.NewDirectory(parties.NewRepository(client.DB()))
	require.NoError(t, err)
	log, err := threadlog.NewLog(threadlog.NewRepository(client.DB()))
	require.NoError(t, err)
	gate, err := documents.NewGate(documents.NewRepository(client.DB()), store, wm, nil)
	require.NoError(t, err)

	hsDeps := handshake.Deps{DB: client.DB(), Tx: client, Directory: directory, Log: log, Gate: gate, Metrics: wm}
	connections, err := handshake.NewConnections(hsDeps)
	require.NoError(t, err)
	partners, err := handshake.NewPartnerRequests(hsDeps)
	require.NoError(t, err)
	fundingSvc, err := funding.NewService(funding.NewRepository(client.DB()), client, directory, log, gate, wm, nil)
	require.NoError(t, err)
	attrRepo := attribution.NewRepository(client.DB())
	rate, err := cfg.Tracking.Rate()
	require.NoError(t, err)
	attrSvc, err := attribution.NewService(attrRepo, client, rate, wm, nil)
	require.NoError(t, err)
	links, err := attribution.NewLinks(partners, attrRepo, cfg.Tracking.StorefrontURL)
	require.NoError(t, err)

	handler := NewRouter(Deps{
		Config:          cfg,
		Ready:           map[string]controllers.Pinger{"db": client},
		HTTPMetrics:     metrics.NewHTTPMetrics(reg),
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Files:           http.FileServer(http.Dir(root)),
		Connections:     connections,
		PartnerRequests: partners,
		Funding:         fundingSvc,
		Attribution:     attrSvc,
		Links:           links,
	})

	return &harness{
		t:        t,
		cfg:      cfg,
		client:   client,
		handler:  handler,
		seller:   dbtest.SeedParty(t, client, enums.RoleSeller, "Seller"),
		investor: dbtest.SeedParty(t, client, enums.RoleInvestor, "Investor"),
		admin:    dbtest.SeedParty(t, client, enums.RoleAdmin, "Admin"),
	}
}

func (h *harness) token(userID uint64, role enums.Role) string {
	h.t.Helper()
	token, err := pkgAuth.MintAccessToken(h.cfg.Auth, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID, Role: role})
	require.NoError(h.t, err)
	return token
}

func (h *harness) do(method, path, token string, body io.Reader, contentType string) (*httptest.ResponseRecorder, map[string]any) {
	h.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func (h *harness) json(method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	return h.do(method, path, token, reader, "application/json")
}

func (h *harness) upload(path, token, docType string) (*httptest.ResponseRecorder, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(h.t, mw.WriteField("doc_type", docType))
	part, err := mw.CreateFormFile("file", docType+".pdf")
	require.NoError(h.t, err)
	_, err = part.Write([]byte(pdfBody))
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())
	return h.do(http.MethodPost, path, token, &buf, mw.FormDataContentType())
}

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func data(payload map[string]any) map[string]any {
	out, _ := payload["data"].(map[string]any)
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec, payload := h.do(http.MethodGet, "/health/live", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, payload["success"])

	rec, payload = h.do(http.MethodGet, "/health/ready", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", data(payload)["checks"].(map[string]any)["db"])

	rec, _ = h.do(http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestAPIRequiresBearerToken(t *testing.T) {
	h := newHarness(t)
	rec, payload := h.json(http.MethodGet, "/api/v1/connections", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, false, payload["success"])
}

func TestRoleGates(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.json(http.MethodPost, "/api/v1/connections/request", h.token(h.investor, enums.RoleInvestor), `{"investor_id":1}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = h.json(http.MethodPost, "/api/v1/funding-requests/1/approve", h.token(h.seller, enums.RoleSeller), "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPartnerRequestRequiresVettedSeller(t *testing.T) {
	h := newHarness(t)
	affiliate := dbtest.SeedParty(t, h.client, enums.RoleAffiliate, "Affiliate")

	rec, payload := h.json(http.MethodPost, "/api/v1/partner-requests", h.token(h.seller, enums.RoleSeller),
		`{"affiliate_user_id":`+itoa(affiliate)+`}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "PRECONDITION_FAILED", payload["code"])
}

func TestConnectionRequestIsIdempotent(t *testing.T) {
	h := newHarness(t)
	sellerToken := h.token(h.seller, enums.RoleSeller)
	body := `{"investor_id":` + itoa(h.investor) + `}`

	rec, first := h.json(http.MethodPost, "/api/v1/connections/request", sellerToken, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, second := h.json(http.MethodPost, "/api/v1/connections/request", sellerToken, body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, data(first)["id"], data(second)["id"])

	rec, resolved := h.json(http.MethodPost, "/api/v1/connections/respond", h.token(h.investor, enums.RoleInvestor),
		`{"connection_id":`+itoa(uint64(data(first)["id"].(float64)))+`,"decision":"accept"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "accepted", data(resolved)["status"])
}

func TestFundingLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	sellerToken := h.token(h.seller, enums.RoleSeller)
	investorToken := h.token(h.investor, enums.RoleInvestor)
	adminToken := h.token(h.admin, enums.RoleAdmin)

	rec, created := h.json(http.MethodPost, "/api/v1/funding-requests", sellerToken,
		`{"investor_id":`+itoa(h.investor)+`,"requested_amount":"4000"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/api/v1/funding-requests/" + itoa(uint64(data(created)["id"].(float64)))

	rec, payload := h.json(http.MethodPost, base+"/approve", adminToken, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "PRECONDITION_FAILED", payload["code"])

	rec, doc := h.upload(base+"/documents", investorToken, "final_agreement")
	require.Equal(t, http.StatusCreated, rec.Code)
	filePath := data(doc)["file_path"].(string)

	rec, _ = h.do(http.MethodGet, filePath, "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, pdfBody, rec.Body.String())

	rec, _ = h.upload(base+"/documents", investorToken, "final_agreement")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, payload = h.json(http.MethodPost, base+"/approve", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "approved", data(payload)["status"])

	rec, _ = h.upload(base+"/documents", investorToken, "payment_slip")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, payload = h.json(http.MethodPost, base+"/fund", adminToken, `{"funded_amount":"5000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "funded", data(payload)["status"])
	require.Equal(t, "5000", data(payload)["funded_amount"])

	rec, payload = h.json(http.MethodPost, base+"/reject", adminToken, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "PRECONDITION_FAILED", payload["code"])

	rec, payload = h.json(http.MethodGet, base+"/messages", sellerToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, payload["data"], 5)

	rec, payload = h.json(http.MethodGet, "/api/v1/funding-requests/stats", investorToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "5000", data(payload)["total_invested"])

	outsider := dbtest.SeedParty(t, h.client, enums.RoleInvestor, "Outsider")
	rec, payload = h.json(http.MethodGet, base+"/messages", h.token(outsider, enums.RoleInvestor), "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "NOT_PARTICIPANT", payload["code"])
}

func TestTrackingEndpoints(t *testing.T) {
	h := newHarness(t)
	affiliateUser := dbtest.SeedParty(t, h.client, enums.RoleAffiliate, "Affiliate")
	affiliateToken := h.token(affiliateUser, enums.RoleAffiliate)

	rec, profile := h.json(http.MethodPut, "/api/v1/affiliates/me", affiliateToken, `{"display_name":"Ava","social_links":{"instagram":"https://instagram.com/ava"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	code := data(profile)["tracking_code"].(string)
	profileID := uint64(data(profile)["id"].(float64))

	rec, _ = h.do(http.MethodGet, "/api/v1/track/click/42?ref="+code, "", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = h.json(http.MethodPost, "/api/v1/admin/affiliates/"+itoa(profileID)+"/approve", h.token(h.admin, enums.RoleAdmin), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = h.do(http.MethodGet, "/api/v1/track/click/42?ref="+code, "", nil, "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "https://shop.example.com/product/42?aff="+code, rec.Header().Get("Location"))

	saleBody := `{"product_id":42,"code":"` + code + `","amount":"1000.00"}`
	rec, _ = h.json(http.MethodPost, "/api/v1/track/sale", "", saleBody)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/track/sale", bytes.NewBufferString(saleBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", "hook")
	sale := httptest.NewRecorder()
	h.handler.ServeHTTP(sale, req)
	require.Equal(t, http.StatusCreated, sale.Code)
	var salePayload map[string]any
	require.NoError(t, json.Unmarshal(sale.Body.Bytes(), &salePayload))
	require.Equal(t, "150", data(salePayload)["commission"])

	rec, dash := h.json(http.MethodGet, "/api/v1/affiliates/me/dashboard", affiliateToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, data(dash)["total_clicks"])
	require.EqualValues(t, 1, data(dash)["total_sales"])
	commission, err := decimal.NewFromString(data(dash)["total_commission"].(string))
	require.NoError(t, err)
	require.True(t, commission.Equal(decimal.NewFromInt(150)))
}
