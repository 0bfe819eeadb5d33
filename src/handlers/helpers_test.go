package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/khabaroff/portfolio-site/src/middleware"
	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories"
	"github.com/khabaroff/portfolio-site/src/repositories/memory"
	"github.com/khabaroff/portfolio-site/src/services"
	"github.com/khabaroff/portfolio-site/src/templates"
)

// Test helpers for handler tests

const (
	testSecret   = "handlers-test-secret-of-32-chars!!!!"
	testPassword = "password123"
)

// createTestContext creates a test Gin context with recorder
func createTestContext() (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return w, c
}

// assertStatusCode checks if response status code matches expected
func assertStatusCode(t *testing.T, w *httptest.ResponseRecorder, expectedCode int) {
	t.Helper()
	if w.Code != expectedCode {
		t.Errorf("expected status %d, got %d: %s", expectedCode, w.Code, w.Body.String())
	}
}

// assertJSONError checks if response contains expected error message
func assertJSONError(t *testing.T, w *httptest.ResponseRecorder, expectedError string) {
	t.Helper()
	response := decodeJSON(t, w)
	if response["error"] != expectedError {
		t.Errorf("expected error '%s', got '%v'", expectedError, response["error"])
	}
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v (%s)", err, w.Body.String())
	}
	return response
}

// testServer is the full router over an in-memory credential store
type testServer struct {
	router   *gin.Engine
	repo     repositories.AdminRepository
	codec    *services.TokenCodec
	registry *services.SessionRegistry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithRepo(t, memory.NewAdminRepository())
}

func newTestServerWithRepo(t *testing.T, repo repositories.AdminRepository) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := services.NewTokenCodec(testSecret, "test")
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	registry := services.NewSessionRegistry(repo, memory.NewLoginEventLog(memory.DefaultEventsPerUser), nil)
	resolver := services.NewSessionResolver(codec, registry, nil)
	authService := services.NewAuthService(services.AuthConfig{
		Repo:     repo,
		Registry: registry,
		Codec:    codec,
	})
	cookie := middleware.SessionCookie{Name: middleware.DefaultSessionCookie, MaxAge: authService.SessionTTL()}

	pages, err := templates.LoadPageConfig()
	if err != nil {
		t.Fatalf("failed to load page config: %v", err)
	}
	tmpl, err := templates.Load()
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.SetHTMLTemplate(tmpl)

	routes := &Routes{
		Health: NewHealthHandler(nil),
		Auth:   NewAuthHandler(authService, registry, cookie),
		Pages: NewAdminPagesHandler(AdminPagesConfig{
			Resolver: resolver,
			Registry: registry,
			Admins:   services.NewAdminService(repo, registry),
			Cookie:   cookie,
			Pages:    pages,
		}),
		Gate: middleware.AuthGate(middleware.GateConfig{
			Codec:     codec,
			Cookie:    cookie,
			Protected: []string{"/admin"},
		}),
		RequireSession: middleware.RequireSession(resolver, cookie),
	}
	routes.Register(router)

	return &testServer{router: router, repo: repo, codec: codec, registry: registry}
}

// seed stores an admin with testPassword
func (s *testServer) seed(t *testing.T, username string, active bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	if err := s.repo.Create(context.Background(), &models.AdminUser{
		ID:           username + "-id",
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login posts credentials and returns the response and the session cookie, if any
func (s *testServer) login(t *testing.T, username, password string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)
	return w, sessionCookie(w)
}

// mustLogin logs username in and returns its token
func (s *testServer) mustLogin(t *testing.T, username string) string {
	t.Helper()
	w, token := s.login(t, username, testPassword)
	if w.Code != http.StatusOK || token == "" {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	return token
}

func authed(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: middleware.DefaultSessionCookie, Value: token})
	return req
}

func sessionCookie(w *httptest.ResponseRecorder) string {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.DefaultSessionCookie && c.MaxAge >= 0 {
			return c.Value
		}
	}
	return ""
}

func cookieCleared(w *httptest.ResponseRecorder) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.DefaultSessionCookie && c.MaxAge < 0 {
			return true
		}
	}
	return false
}
