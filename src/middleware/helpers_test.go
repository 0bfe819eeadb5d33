package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories/memory"
	"github.com/khabaroff/portfolio-site/src/services"
)

const testSecret = "middleware-test-secret-of-32-chars!!"

type testStack struct {
	repo     *memory.AdminRepository
	codec    *services.TokenCodec
	registry *services.SessionRegistry
	resolver *services.SessionResolver
	cookie   SessionCookie
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := services.NewTokenCodec(testSecret, "test")
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	repo := memory.NewAdminRepository()
	registry := services.NewSessionRegistry(repo, nil, nil)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := repo.Create(context.Background(), &models.AdminUser{
		ID: "1", Username: "admin", PasswordHash: string(hash), IsActive: true,
	}); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	return &testStack{
		repo:     repo,
		codec:    codec,
		registry: registry,
		resolver: services.NewSessionResolver(codec, registry, nil),
		cookie:   SessionCookie{Name: DefaultSessionCookie, MaxAge: time.Hour},
	}
}

// login starts a session for admin and returns its token
func (s *testStack) login(t *testing.T) string {
	t.Helper()
	sid, err := s.registry.StartSession(context.Background(), "admin")
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	token, _, err := s.codec.Issue("admin", sid, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func withCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: token})
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// clearedCookie reports whether the response expires the session cookie
func clearedCookie(w *httptest.ResponseRecorder) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == DefaultSessionCookie && c.MaxAge < 0 {
			return true
		}
	}
	return false
}
