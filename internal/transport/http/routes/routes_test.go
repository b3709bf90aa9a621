package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/face-auth-service/internal/core/domain"
	"github.com/arklim/face-auth-service/internal/infra/config"
	"github.com/arklim/face-auth-service/internal/infra/security"
	"github.com/arklim/face-auth-service/internal/repository"
	"github.com/arklim/face-auth-service/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: make(map[string]domain.Account)}
}

func (r *memAccountRepo) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return repository.ErrDuplicate
		}
	}
	r.accounts[account.ID] = account
	return nil
}

func (r *memAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

func (r *memAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Email == email {
			copied := account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memAccountRepo) SetTemplate(_ context.Context, id string, storedTemplate string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	decoded, err := domain.DecodeTemplate(storedTemplate)
	if err != nil {
		return nil, err
	}
	account.FaceTemplate = decoded
	account.UpdatedAt = time.Now().UTC()
	r.accounts[id] = account
	return &account, nil
}

type memChallengeStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemChallengeStore() *memChallengeStore {
	return &memChallengeStore{entries: make(map[string]string)}
}

func (s *memChallengeStore) Put(_ context.Context, tokenHash, accountID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tokenHash] = accountID
	return nil
}

func (s *memChallengeStore) Consume(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accountID, ok := s.entries[tokenHash]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(s.entries, tokenHash)
	return accountID, nil
}

type testHarness struct {
	engine     *gin.Engine
	accounts   *memAccountRepo
	challenges *memChallengeStore
}

func newTestHarness(t *testing.T, policy config.PasswordSettings) *testHarness {
	t.Helper()

	previous := security.CurrentArgon2Config()
	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	}); err != nil {
		t.Fatalf("ConfigureArgon2 returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = security.ConfigureArgon2(previous)
	})

	cfg := &config.AppConfig{
		App:      config.AppSettings{Name: "face-auth-service", Env: "test"},
		Password: policy,
		Face: config.FaceSettings{
			Dimension:      4,
			MatchThreshold: 0.6,
			ChallengeTTL:   time.Minute,
		},
	}

	accounts := newMemAccountRepo()
	challenges := newMemChallengeStore()

	auth := usecase.NewAuthService(accounts, challenges, cfg.Face, time.Second, nil)
	registration := usecase.NewRegistrationService(accounts, nil, cfg.Password, time.Second, nil)
	enrollment := usecase.NewEnrollmentService(accounts, nil, cfg.Face, time.Second, nil)

	engine := Register(Dependencies{
		Config: cfg,
		Services: ServiceSet{
			Auth:         auth,
			Registration: registration,
			Enrollment:   enrollment,
		},
	})

	return &testHarness{engine: engine, accounts: accounts, challenges: challenges}
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	return newTestHarness(t, config.PasswordSettings{}).engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func registerAccount(t *testing.T, engine *gin.Engine, email, password string) string {
	t.Helper()

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Account struct {
			ID string `json:"id"`
		} `json:"account"`
	}
	decodeBody(t, rec, &resp)
	return resp.Account.ID
}

func TestRegisterEndpoint(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "alice@example.com",
		"password": "tr0ub4dor-horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	decodeBody(t, rec, &resp)

	raw := rec.Body.String()
	for _, leaked := range []string{"password", "argon2id", "face_template"} {
		if bytes.Contains([]byte(raw), []byte(leaked)) {
			t.Fatalf("response leaks %q: %s", leaked, raw)
		}
	}
}

func TestRegisterEndpoint_Duplicate(t *testing.T) {
	engine := newTestEngine(t)

	registerAccount(t, engine, "alice@example.com", "tr0ub4dor-horse")

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "alice@example.com",
		"password": "an0ther-g00d-one",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterEndpoint_ShortPasswordAcceptedByDefault(t *testing.T) {
	engine := newTestEngine(t)

	// Without an explicit policy, any non-empty password registers.
	rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "a@x.com",
		"password": "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterEndpoint_StrictPolicyRejectsWeakPassword(t *testing.T) {
	harness := newTestHarness(t, config.PasswordSettings{MinLength: 8, MinScore: 2})

	rec := doJSON(t, harness.engine, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "alice@example.com",
		"password": "password",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginEndpoint_NoTemplate(t *testing.T) {
	engine := newTestEngine(t)

	registerAccount(t, engine, "alice@example.com", "tr0ub4dor-horse")

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "tr0ub4dor-horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Authenticated {
		t.Fatalf("expected authenticated=true without a template")
	}
}

func TestLoginEndpoint_EnumerationResistance(t *testing.T) {
	engine := newTestEngine(t)

	registerAccount(t, engine, "alice@example.com", "tr0ub4dor-horse")

	unknown := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever-pass1",
	})
	wrong := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password1",
	})

	if unknown.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", unknown.Code, wrong.Code)
	}

	var unknownResp, wrongResp struct {
		Error string `json:"error"`
	}
	decodeBody(t, unknown, &unknownResp)
	decodeBody(t, wrong, &wrongResp)

	if unknownResp.Error != wrongResp.Error {
		t.Fatalf("error message differs: %q vs %q", unknownResp.Error, wrongResp.Error)
	}
}

func TestLoginEndpoint_BlankEmailRejected(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "   ",
		"password": "some-password",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a blank email, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVerifyEndpoint_NoTemplateEnrolled(t *testing.T) {
	harness := newTestHarness(t, config.PasswordSettings{})

	accountID := registerAccount(t, harness.engine, "alice@example.com", "tr0ub4dor-horse")

	// Plant a challenge for an account that never enrolled a template, as if
	// the template had been removed between login and verification.
	token := "stray-challenge-token"
	if err := harness.challenges.Put(context.Background(), security.HashToken(token), accountID, time.Minute); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	rec := doJSON(t, harness.engine, http.MethodPost, "/api/v1/auth/face/verify", map[string]any{
		"challenge_token": token,
		"descriptor":      []float64{0.1, 0.2, 0.3, 0.4},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	if resp.Error != "no face template enrolled for this account" {
		t.Fatalf("unexpected error message %q", resp.Error)
	}
}

func TestFullFaceVerificationFlow(t *testing.T) {
	engine := newTestEngine(t)

	accountID := registerAccount(t, engine, "alice@example.com", "tr0ub4dor-horse")

	template := []float64{0.1, 0.2, 0.3, 0.4}
	enrollRec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/face/enroll", map[string]any{
		"account_id": accountID,
		"descriptor": template,
	})
	if enrollRec.Code != http.StatusOK {
		t.Fatalf("enroll returned %d: %s", enrollRec.Code, enrollRec.Body.String())
	}

	loginRec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "tr0ub4dor-horse",
	})
	if loginRec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", loginRec.Code, loginRec.Body.String())
	}

	var loginResp struct {
		Authenticated            bool   `json:"authenticated"`
		RequiresFaceVerification bool   `json:"requires_face_verification"`
		ChallengeToken           string `json:"challenge_token"`
	}
	decodeBody(t, loginRec, &loginResp)

	if loginResp.Authenticated {
		t.Fatalf("expected authenticated=false while face verification is pending")
	}
	if !loginResp.RequiresFaceVerification || loginResp.ChallengeToken == "" {
		t.Fatalf("expected a face verification challenge, got %+v", loginResp)
	}

	verifyRec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/face/verify", map[string]any{
		"challenge_token": loginResp.ChallengeToken,
		"descriptor":      template,
	})
	if verifyRec.Code != http.StatusOK {
		t.Fatalf("verify returned %d: %s", verifyRec.Code, verifyRec.Body.String())
	}

	var verifyResp struct {
		Verified  bool    `json:"verified"`
		Distance  float64 `json:"distance"`
		AccountID string  `json:"account_id"`
	}
	decodeBody(t, verifyRec, &verifyResp)

	if !verifyResp.Verified {
		t.Fatalf("expected verification to succeed, distance %v", verifyResp.Distance)
	}
	if verifyResp.AccountID != accountID {
		t.Fatalf("verification bound to wrong account: %s", verifyResp.AccountID)
	}

	// Replaying the same challenge must fail.
	replay := doJSON(t, engine, http.MethodPost, "/api/v1/auth/face/verify", map[string]any{
		"challenge_token": loginResp.ChallengeToken,
		"descriptor":      template,
	})
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for challenge replay, got %d: %s", replay.Code, replay.Body.String())
	}
}

func TestVerifyEndpoint_NonMatchReturns200(t *testing.T) {
	engine := newTestEngine(t)

	accountID := registerAccount(t, engine, "alice@example.com", "tr0ub4dor-horse")

	doJSON(t, engine, http.MethodPost, "/api/v1/auth/face/enroll", map[string]any{
		"account_id": accountID,
		"descriptor": []float64{0, 0, 0, 0},
	})

	loginRec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "tr0ub4dor-horse",
	})

	var loginResp struct {
		ChallengeToken string `json:"challenge_token"`
	}
	decodeBody(t, loginRec, &loginResp)

	verifyRec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/face/verify", map[string]any{
		"challenge_token": loginResp.ChallengeToken,
		"descriptor":      []float64{1, 1, 1, 1},
	})
	if verifyRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a valid challenge with a non-matching face, got %d", verifyRec.Code)
	}

	var verifyResp struct {
		Verified bool `json:"verified"`
	}
	decodeBody(t, verifyRec, &verifyResp)
	if verifyResp.Verified {
		t.Fatalf("expected verified=false for a distant descriptor")
	}
}

func TestVerifyEndpoint_DimensionMismatch(t *testing.T) {
	engine := newTestEngine(t)

	accountID := registerAccount(t, engine, "alice@example.com", "tr0ub4dor-horse")

	doJSON(t, engine, http.MethodPost, "/api/v1/auth/face/enroll", map[string]any{
		"account_id": accountID,
		"descriptor": []float64{0.1, 0.2, 0.3, 0.4},
	})

	loginRec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "tr0ub4dor-horse",
	})

	var loginResp struct {
		ChallengeToken string `json:"challenge_token"`
	}
	decodeBody(t, loginRec, &loginResp)

	verifyRec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/face/verify", map[string]any{
		"challenge_token": loginResp.ChallengeToken,
		"descriptor":      []float64{0.1, 0.2},
	})
	if verifyRec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for mismatched dimensions, got %d: %s", verifyRec.Code, verifyRec.Body.String())
	}
}

func TestEnrollEndpoint_UnknownAccount(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/auth/face/enroll", map[string]any{
		"account_id": "missing",
		"descriptor": []float64{1, 2, 3, 4},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	engine := newTestEngine(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics returned %d", rec.Code)
	}
}

func TestRequestIDHeaderPropagated(t *testing.T) {
	engine := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
	if rec.Header().Get("X-Trace-ID") == "" {
		t.Fatalf("expected a generated trace id header")
	}
}
