package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/admitguard-api/internal/middleware"
	"github.com/noah-isme/admitguard-api/internal/models"
	"github.com/noah-isme/admitguard-api/internal/service"
	appErrors "github.com/noah-isme/admitguard-api/pkg/errors"
)

type fakeAuthService struct {
	signupReq *models.SignupRequest
	signupErr error
	loginErr  error
}

func (f *fakeAuthService) Signup(_ context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	f.signupReq = &req
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &models.AuthResponse{AccessToken: "tok", TokenType: "Bearer", User: models.UserInfo{ID: "u-1", Email: req.Email, Role: models.RoleAdmin}}, nil
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.AuthResponse{AccessToken: "tok", TokenType: "Bearer", User: models.UserInfo{ID: "u-1", Email: req.Email, Role: models.RoleManager}}, nil
}

type fakeCandidateService struct {
	known       map[string]bool
	reviewActor *models.JWTClaims
	reviewID    string
}

func (f *fakeCandidateService) List(context.Context, *models.Batch) ([]models.Candidate, error) {
	return []models.Candidate{}, nil
}

func (f *fakeCandidateService) Get(_ context.Context, batch *models.Batch, id string) (*models.Candidate, error) {
	if f.known[id] {
		return &models.Candidate{ID: id, BatchID: batch.ID}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
}

func (f *fakeCandidateService) Create(_ context.Context, batch *models.Batch, req models.CandidateRequest) (*models.Candidate, error) {
	return &models.Candidate{ID: "c-1", BatchID: batch.ID, Name: req.Name}, nil
}

func (f *fakeCandidateService) Update(context.Context, *models.Batch, string, models.CandidateRequest) (*models.Candidate, error) {
	return nil, appErrors.ErrCandidateRejected
}

func (f *fakeCandidateService) Review(_ context.Context, batch *models.Batch, id string, actor *models.JWTClaims, req models.ReviewRequest) (*models.Candidate, error) {
	f.reviewActor = actor
	f.reviewID = id
	status := req.ReviewStatus
	return &models.Candidate{ID: id, BatchID: batch.ID, ReviewStatus: &status}, nil
}

type fakeExporter struct {
	format service.ExportFormat
}

func (f *fakeExporter) Roster(_ context.Context, batch *models.Batch, format service.ExportFormat) (*service.ExportFile, error) {
	f.format = format
	if format == "xlsx" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	return &service.ExportFile{Filename: "Spring_students.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("#,Name\n")}, nil
}

var testBatch = &models.Batch{ID: "b-1", Name: "Spring", CreatedBy: "u-1"}

func newContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, _ := json.Marshal(v)
		reader = bytes.NewReader(raw)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSignupCreated(t *testing.T) {
	svc := &fakeAuthService{}
	h := NewAuthHandler(svc)

	c, rec := newContext(http.MethodPost, "/api/auth/signup", map[string]string{"name": "Alice", "email": "a@x.com", "password": "password1"})
	c.Request.Header.Set("User-Agent", "curl/8")
	h.Signup(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.signupReq)
	assert.Equal(t, "a@x.com", svc.signupReq.Email)
	assert.Equal(t, "curl/8", svc.signupReq.UserAgent)
}

func TestSignupClosedWinsOverMalformedBody(t *testing.T) {
	svc := &fakeAuthService{signupErr: appErrors.ErrSignupDisabled}
	h := NewAuthHandler(svc)

	c, rec := newContext(http.MethodPost, "/api/auth/signup", "{not json")
	h.Signup(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Signup is disabled. Contact your administrator.")
}

func TestLoginMalformedBody(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})

	c, rec := newContext(http.MethodPost, "/api/auth/login", "[]")
	h.Login(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{loginErr: appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid email or password.")})

	c, rec := newContext(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.com", "password": "wrong"})
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestMeReturnsTokenIdentity(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})

	c, rec := newContext(http.MethodGet, "/api/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Name: "Alice", Email: "a@x.com", Role: models.RoleAdmin})
	h.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"u-1","name":"Alice","email":"a@x.com","role":"admin"}`, string(decodeEnvelope(t, rec)["data"]))

	c, rec = newContext(http.MethodGet, "/api/auth/me", nil)
	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBatchGetUsesResolvedBatch(t *testing.T) {
	h := NewBatchHandler(nil)

	c, rec := newContext(http.MethodGet, "/api/batches/b-1", nil)
	c.Set(middleware.ContextBatchKey, testBatch)
	h.Get(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec)["data"]), `"id":"b-1"`)

	c, rec = newContext(http.MethodGet, "/api/batches/b-1", nil)
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCandidateListEmptyIsArray(t *testing.T) {
	h := NewCandidateHandler(&fakeCandidateService{}, &fakeExporter{})

	c, rec := newContext(http.MethodGet, "/api/batches/b-1/candidates", nil)
	c.Set(middleware.ContextBatchKey, testBatch)
	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(decodeEnvelope(t, rec)["data"]))
}

func TestCandidateCreateAndRejectedUpdate(t *testing.T) {
	h := NewCandidateHandler(&fakeCandidateService{}, &fakeExporter{})

	c, rec := newContext(http.MethodPost, "/api/batches/b-1/candidates", map[string]interface{}{"name": "Cara", "email": "c@x.com", "data": map[string]string{"city": "Pune"}})
	c.Set(middleware.ContextBatchKey, testBatch)
	h.Create(c)
	assert.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newContext(http.MethodPut, "/api/batches/b-1/candidates/c-1", map[string]interface{}{"name": "Cara", "email": "c@x.com", "interview_status": "Rejected"})
	c.Set(middleware.ContextBatchKey, testBatch)
	c.Params = gin.Params{{Key: CandidateParam, Value: "c-1"}}
	h.Update(c)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Candidate is Rejected. Submission blocked.")
}

func TestCandidateUpdateMalformedBody(t *testing.T) {
	h := NewCandidateHandler(&fakeCandidateService{known: map[string]bool{"c-1": true}}, &fakeExporter{})

	c, rec := newContext(http.MethodPut, "/api/batches/b-1/candidates/c-404", "{not json")
	c.Set(middleware.ContextBatchKey, testBatch)
	c.Params = gin.Params{{Key: CandidateParam, Value: "c-404"}}
	h.Update(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newContext(http.MethodPut, "/api/batches/b-1/candidates/c-1", "{not json")
	c.Set(middleware.ContextBatchKey, testBatch)
	c.Params = gin.Params{{Key: CandidateParam, Value: "c-1"}}
	h.Update(c)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCandidateReviewPassesActor(t *testing.T) {
	svc := &fakeCandidateService{}
	h := NewCandidateHandler(svc, &fakeExporter{})
	actor := &models.JWTClaims{UserID: "u-1", Email: "a@x.com", Role: models.RoleAdmin}

	c, rec := newContext(http.MethodPatch, "/api/batches/b-1/candidates/c-9/review", map[string]string{"review_status": "accepted"})
	c.Set(middleware.ContextUserKey, actor)
	c.Set(middleware.ContextBatchKey, testBatch)
	c.Params = gin.Params{{Key: CandidateParam, Value: "c-9"}}
	h.Review(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Same(t, actor, svc.reviewActor)
	assert.Equal(t, "c-9", svc.reviewID)
}

func TestCandidateExport(t *testing.T) {
	exporter := &fakeExporter{}
	h := NewCandidateHandler(&fakeCandidateService{}, exporter)

	c, rec := newContext(http.MethodGet, "/api/batches/b-1/candidates/export?format=CSV", nil)
	c.Set(middleware.ContextBatchKey, testBatch)
	h.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportFormatCSV, exporter.format)
	assert.Equal(t, `attachment; filename="Spring_students.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "#,Name\n", rec.Body.String())

	c, rec = newContext(http.MethodGet, "/api/batches/b-1/candidates/export?format=xlsx", nil)
	c.Set(middleware.ContextBatchKey, testBatch)
	h.Export(c)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRulesDefault(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/rules/default", nil)
	NewRulesHandler().Default(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var cfg map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec)["data"], &cfg))
	assert.Len(t, cfg, 11)
	assert.Contains(t, cfg, "offer_letter")
}

func TestHealthEndpoints(t *testing.T) {
	h := NewHealthHandler(PingerFunc(func(context.Context) error { return nil }), nil, nil)

	c, rec := newContext(http.MethodGet, "/", nil)
	h.Root(c)
	assert.JSONEq(t, `{"status":"ok","service":"AdmitGuard API"}`, rec.Body.String())

	c, rec = newContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewHealthHandler(nil, PingerFunc(func(context.Context) error { return errors.New("redis down") }), nil)
	c, rec = newContext(http.MethodGet, "/ready", nil)
	down.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis down")

	c, rec = newContext(http.MethodGet, "/metrics", nil)
	down.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
