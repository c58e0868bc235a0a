package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vaidashi/pool-dealer-portal/internal/config"
	"github.com/vaidashi/pool-dealer-portal/internal/session"
	"github.com/vaidashi/pool-dealer-portal/internal/storage"
	"github.com/vaidashi/pool-dealer-portal/internal/testutil"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
}

type testServer struct {
	*Server
	fix *testutil.Fixtures
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewDB(t)
	fix := testutil.Seed(t, db)
	log := logger.NewNop()

	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, "http://localhost/uploads")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	svc := BuildServices(db, store, session.NewMemoryStore(time.Hour), log)
	svc.Auth.WithHashCost(bcrypt.MinCost)

	cfg := &config.Config{
		Port: 0,
		Auth: config.AuthConfig{LoginBurst: 5, LoginRatePerSec: 0.001},
	}
	s := NewServer(cfg, db, svc, Options{UploadsDir: dir}, log)
	t.Cleanup(func() { s.loginLimiter.Stop() })

	return &testServer{Server: s, fix: fix}
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) (int, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "192.0.2.10:4321"

	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", req.Method, req.URL.Path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func (ts *testServer) json(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return ts.do(t, req, token)
}

func (ts *testServer) login(t *testing.T, email string) string {
	t.Helper()
	code, env := ts.json(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": testutil.Password,
	})
	if code != http.StatusOK {
		t.Fatalf("login %s = %d %s", email, code, env.Error)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil || out.Token == "" {
		t.Fatalf("login token: %v", err)
	}
	return out.Token
}

func decode(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func TestOrderApprovalFlow(t *testing.T) {
	ts := newTestServer(t)
	dealerToken := ts.login(t, ts.fix.DealerEmail)
	adminToken := ts.login(t, "admin@pools.test")

	code, env := ts.json(t, http.MethodPost, "/api/v1/orders", dealerToken, map[string]string{
		"pool_model_id":    ts.fix.PoolModelID,
		"color_id":         ts.fix.ColorID,
		"delivery_address": "12 Palm Way, Tampa, FL",
		"shipping_method":  "FACTORY_DELIVERY",
	})
	if code != http.StatusCreated {
		t.Fatalf("create order = %d %s", code, env.Error)
	}
	var order struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, env, &order)
	if order.Status != "PENDING_PAYMENT_APPROVAL" {
		t.Fatalf("new order status = %s", order.Status)
	}

	statusPath := "/api/v1/orders/" + order.ID + "/status"
	code, env = ts.json(t, http.MethodPost, statusPath, adminToken, map[string]string{"status": "APPROVED"})
	if code != http.StatusUnprocessableEntity || env.Code != "REQUIREMENT_NOT_MET" {
		t.Fatalf("approve without payment proof = %d %s", code, env.Code)
	}
	if env.Details["kind"] != "document" || env.Details["name"] != "PROOF_OF_PAYMENT" {
		t.Errorf("details = %v", env.Details)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("doc_type", "PROOF_OF_PAYMENT")
	part, err := mw.CreateFormFile("file", "wire-receipt.pdf")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("%PDF-1.4 receipt"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+order.ID+"/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if code, env := ts.do(t, req, dealerToken); code != http.StatusCreated {
		t.Fatalf("upload = %d %s", code, env.Error)
	}

	code, env = ts.json(t, http.MethodPost, statusPath, adminToken, map[string]string{"status": "APPROVED"})
	if code != http.StatusOK {
		t.Fatalf("approve = %d %s", code, env.Error)
	}

	code, env = ts.json(t, http.MethodGet, "/api/v1/orders/"+order.ID, dealerToken, nil)
	if code != http.StatusOK {
		t.Fatalf("get order = %d", code)
	}
	var detail struct {
		Order struct {
			Status string `json:"status"`
		} `json:"order"`
		History []json.RawMessage `json:"history"`
		Media   []json.RawMessage `json:"media"`
	}
	decode(t, env, &detail)
	if detail.Order.Status != "APPROVED" || len(detail.History) != 2 || len(detail.Media) != 1 {
		t.Errorf("detail: status %s, %d history, %d media", detail.Order.Status, len(detail.History), len(detail.Media))
	}

	code, env = ts.json(t, http.MethodGet, "/api/v1/orders/"+order.ID, ts.login(t, "sales@rival.test"), nil)
	if code != http.StatusNotFound {
		t.Errorf("other dealer reading the order = %d, want 404", code)
	}
}

func TestAuthErrors(t *testing.T) {
	ts := newTestServer(t)

	if code, env := ts.json(t, http.MethodGet, "/api/v1/orders", "", nil); code != http.StatusUnauthorized || env.Success {
		t.Errorf("no token = %d", code)
	}
	if code, _ := ts.json(t, http.MethodGet, "/api/v1/orders", "not-a-session", nil); code != http.StatusUnauthorized {
		t.Errorf("unknown token = %d", code)
	}

	dealerToken := ts.login(t, ts.fix.DealerEmail)
	if code, env := ts.json(t, http.MethodGet, "/api/v1/admin/dealers", dealerToken, nil); code != http.StatusForbidden || env.Code != "FORBIDDEN" {
		t.Errorf("dealer listing dealers = %d %s", code, env.Code)
	}

	if code, _ := ts.json(t, http.MethodPost, "/api/v1/auth/logout", dealerToken, nil); code != http.StatusOK {
		t.Fatalf("logout = %d", code)
	}
	if code, _ := ts.json(t, http.MethodGet, "/api/v1/me", dealerToken, nil); code != http.StatusUnauthorized {
		t.Errorf("token after logout = %d, want 401", code)
	}
}

func TestRegisterThenPendingDealerCannotOrder(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.json(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":        "owner@bluelagoon.test",
		"password":     "long-enough-pw",
		"company_name": "Blue Lagoon Pools",
		"contact_name": "Sam Lee",
	})
	if code != http.StatusCreated {
		t.Fatalf("register = %d %s", code, env.Error)
	}

	code, env = ts.json(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "bad"})
	if code != http.StatusBadRequest || env.Code != "VALIDATION_ERROR" {
		t.Fatalf("invalid register = %d %s", code, env.Code)
	}
	if _, ok := env.Details["fields"]; !ok {
		t.Errorf("validation details = %v", env.Details)
	}

	code, env = ts.json(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "owner@bluelagoon.test",
		"password": "long-enough-pw",
	})
	if code != http.StatusOK {
		t.Fatalf("login = %d", code)
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, env, &out)

	code, _ = ts.json(t, http.MethodPost, "/api/v1/orders", out.Token, map[string]string{
		"pool_model_id":    ts.fix.PoolModelID,
		"color_id":         ts.fix.ColorID,
		"delivery_address": "1 Main St",
		"shipping_method":  "DEALER_PICKUP",
	})
	if code != http.StatusForbidden {
		t.Errorf("pending dealer ordering = %d, want 403", code)
	}
}

func TestLoginIsThrottled(t *testing.T) {
	ts := newTestServer(t)

	wrong := map[string]string{"email": ts.fix.DealerEmail, "password": "wrong-password"}
	for i := 0; i < 5; i++ {
		if code, _ := ts.json(t, http.MethodPost, "/api/v1/auth/login", "", wrong); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d = %d, want 401", i+1, code)
		}
	}

	code, env := ts.json(t, http.MethodPost, "/api/v1/auth/login", "", wrong)
	if code != http.StatusTooManyRequests || env.Code != "RATE_LIMITED" {
		t.Fatalf("attempt over the burst = %d %s", code, env.Code)
	}
}

func TestHealthAndErrorMasking(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.json(t, http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || !env.Success {
		t.Fatalf("health = %d", code)
	}
	var health Health
	decode(t, env, &health)
	if health.Database != "ok" {
		t.Errorf("database = %s", health.Database)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	ts.respondWithError(rec, req, errors.New("pq: relation \"orders\" does not exist"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "relation") {
		t.Errorf("internal details leaked: %s", rec.Body.String())
	}
}

func TestMalformedJSONIsRejected(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "admin@pools.test")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/factories", strings.NewReader("{"))
	code, env := ts.do(t, req, token)
	if code != http.StatusBadRequest || env.Error != "invalid request payload" {
		t.Errorf("malformed body = %d %q", code, env.Error)
	}
}
